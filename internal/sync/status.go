package sync

import (
	"time"

	"github.com/renanlido/agentic-development-kit-sub001/backend"
	"github.com/renanlido/agentic-development-kit-sub001/internal/featurestate"
	"github.com/renanlido/agentic-development-kit-sub001/internal/queue"
)

// FeatureStatus is one row of `adk sync status`
type FeatureStatus struct {
	Feature    string             `json:"feature" yaml:"feature"`
	Phase      backend.Phase      `json:"phase" yaml:"phase"`
	Progress   int                `json:"progress" yaml:"progress"`
	SyncStatus backend.SyncStatus `json:"syncStatus" yaml:"sync_status"`
	RemoteID   string             `json:"remoteId,omitempty" yaml:"remote_id,omitempty"`
	LastSynced *time.Time         `json:"lastSynced,omitempty" yaml:"last_synced,omitempty"`
	LastError  string             `json:"lastError,omitempty" yaml:"last_error,omitempty"`
	Queued     int                `json:"queued" yaml:"queued"`
}

// StatusReport summarizes local sync state without touching the network
type StatusReport struct {
	Features []FeatureStatus `json:"features" yaml:"features"`
	Pending  int             `json:"pending" yaml:"pending"`
	Synced   int             `json:"synced" yaml:"synced"`
	Errored  int             `json:"errored" yaml:"errored"`
	Queued   int             `json:"queued" yaml:"queued"`
}

// Status reads every tracked feature and the queue
func Status(store *featurestate.Store, q *queue.Queue) (*StatusReport, error) {
	names, err := store.List()
	if err != nil {
		return nil, err
	}

	report := &StatusReport{Features: make([]FeatureStatus, 0, len(names))}
	for _, name := range names {
		state, err := store.Load(name)
		if err != nil {
			continue
		}
		row := FeatureStatus{
			Feature:    name,
			Phase:      state.Phase,
			Progress:   state.Progress,
			SyncStatus: state.SyncStatus,
			RemoteID:   state.RemoteID,
			LastSynced: state.LastSynced,
			LastError:  state.LastError,
			Queued:     len(q.GetByFeature(name)),
		}
		switch row.SyncStatus {
		case backend.SyncStatusSynced:
			report.Synced++
		case backend.SyncStatusError:
			report.Errored++
		default:
			report.Pending++
		}
		report.Features = append(report.Features, row)
	}
	report.Queued = q.GetPendingCount()
	return report, nil
}
