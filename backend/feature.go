package backend

import (
	"fmt"
	"time"
)

// SyncStatus is the sync state of a feature, also used as the status of a
// provider sync result (which is only ever synced or error)
type SyncStatus string

const (
	SyncStatusPending SyncStatus = "pending"
	SyncStatusSynced  SyncStatus = "synced"
	SyncStatusError   SyncStatus = "error"
)

// LocalFeature is the local view of a feature's sync-relevant state
type LocalFeature struct {
	Name        string    `json:"name" validate:"required"`
	Phase       Phase     `json:"phase"`
	Progress    int       `json:"progress"`
	LastUpdated time.Time `json:"lastUpdated"`
}

// Normalize clamps progress to [0,100] and replaces an unknown phase
// with the first workflow phase
func (f *LocalFeature) Normalize() {
	f.Progress = ClampProgress(f.Progress)
	if !f.Phase.Valid() {
		if parsed, err := ParsePhase(string(f.Phase)); err == nil {
			f.Phase = parsed
		} else {
			f.Phase = PhasePRD
		}
	}
}

// ClampProgress bounds a progress value to [0,100]
func ClampProgress(progress int) int {
	if progress < 0 {
		return 0
	}
	if progress > 100 {
		return 100
	}
	return progress
}

// RemoteFeature is the remote view of a feature. Phase and Progress are nil
// when the remote does not carry them. Timestamps are kept in the remote's
// own format and only parsed when they have to be compared.
type RemoteFeature struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Status    string `json:"status"`
	Phase     *Phase `json:"phase,omitempty"`
	Progress  *int   `json:"progress,omitempty"`
	URL       string `json:"url,omitempty"`
	CreatedAt string `json:"createdAt,omitempty"`
	UpdatedAt string `json:"updatedAt,omitempty"`
}

func (f RemoteFeature) String() string {
	phase := "-"
	if f.Phase != nil {
		phase = string(*f.Phase)
	}
	progress := "-"
	if f.Progress != nil {
		progress = fmt.Sprintf("%d%%", *f.Progress)
	}
	return fmt.Sprintf("%s [%s] phase=%s progress=%s", f.Name, f.ID, phase, progress)
}

// PhasePtr returns a pointer to p, for building RemoteFeature values
func PhasePtr(p Phase) *Phase {
	return &p
}

// IntPtr returns a pointer to n
func IntPtr(n int) *int {
	return &n
}

// Workspace is a container a provider can sync into (team, space, project)
type Workspace struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Credentials holds what a provider needs to authenticate and to locate
// the container features are written to
type Credentials struct {
	Token       string
	WorkspaceID string
	SpaceID     string
	ListID      string
}

// ConnectResult is the outcome of a provider handshake
type ConnectResult struct {
	Success    bool        `json:"success"`
	Message    string      `json:"message"`
	Workspaces []Workspace `json:"workspaces,omitempty"`
}

// SyncResult is the structured outcome of Provider.SyncFeature. A provider
// reports rejections it understands (validation, permissions) here with
// Status == SyncStatusError; transport failures come back as an error instead.
type SyncResult struct {
	Status     SyncStatus `json:"status"`
	RemoteID   string     `json:"remoteId,omitempty"`
	RemoteURL  string     `json:"remoteUrl,omitempty"`
	LastSynced *time.Time `json:"lastSynced,omitempty"`
	Message    string     `json:"message"`
}
