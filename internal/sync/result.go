package sync

import (
	"fmt"

	"github.com/renanlido/agentic-development-kit-sub001/internal/conflict"
)

// Outcome is the end state of one feature in one invocation
type Outcome string

const (
	OutcomeSynced        Outcome = "synced"
	OutcomeFailed        Outcome = "failed"
	OutcomeQueued        Outcome = "queued"
	OutcomeSkipped       Outcome = "skipped"
	OutcomeManualPending Outcome = "manual-pending"
	OutcomeNotFound      Outcome = "not-found"
)

// FeatureResult describes what happened to one feature
type FeatureResult struct {
	Feature    string                  `json:"feature" yaml:"feature"`
	Outcome    Outcome                 `json:"outcome" yaml:"outcome"`
	RemoteID   string                  `json:"remoteId,omitempty" yaml:"remote_id,omitempty"`
	RemoteURL  string                  `json:"remoteUrl,omitempty" yaml:"remote_url,omitempty"`
	Message    string                  `json:"message,omitempty" yaml:"message,omitempty"`
	Conflicts  []conflict.SyncConflict `json:"conflicts,omitempty" yaml:"conflicts,omitempty"`
	Resolution *conflict.Resolution    `json:"resolution,omitempty" yaml:"resolution,omitempty"`
	ReportPath string                  `json:"reportPath,omitempty" yaml:"report_path,omitempty"`
}

func (r FeatureResult) String() string {
	if r.Message == "" {
		return fmt.Sprintf("%s: %s", r.Feature, r.Outcome)
	}
	return fmt.Sprintf("%s: %s (%s)", r.Feature, r.Outcome, r.Message)
}

// BulkResult aggregates SyncAllFeatures
type BulkResult struct {
	Synced   int             `json:"synced" yaml:"synced"`
	Failed   int             `json:"failed" yaml:"failed"`
	Skipped  int             `json:"skipped" yaml:"skipped"`
	Features []FeatureResult `json:"features" yaml:"features"`
}

// QueueResult aggregates ProcessQueue. Remaining is read after the pass;
// Dropped counts orphaned operations whose feature no longer exists.
type QueueResult struct {
	Processed int `json:"processed" yaml:"processed"`
	Succeeded int `json:"succeeded" yaml:"succeeded"`
	Failed    int `json:"failed" yaml:"failed"`
	Evicted   int `json:"evicted" yaml:"evicted"`
	Dropped   int `json:"dropped" yaml:"dropped"`
	Remaining int `json:"remaining" yaml:"remaining"`
}
