// Package conflict detects field-level divergence between the local and
// remote view of a feature and resolves it with a configured strategy.
package conflict

import (
	"fmt"
	"strings"
	"time"

	"github.com/renanlido/agentic-development-kit-sub001/backend"
)

// Field names a reconciled attribute of a feature
type Field string

const (
	FieldPhase    Field = "phase"
	FieldProgress Field = "progress"
	FieldName     Field = "name"
)

// Strategy is a conflict resolution policy
type Strategy string

const (
	LocalWins  Strategy = "local-wins"  // Push local values over the remote
	RemoteWins Strategy = "remote-wins" // Accept remote values
	NewestWins Strategy = "newest-wins" // Per field, the later timestamp wins
	Manual     Strategy = "manual"      // Stop and write a report for a human
)

// Strategies lists the accepted strategy names
var Strategies = []Strategy{LocalWins, RemoteWins, NewestWins, Manual}

// ParseStrategy validates a configured strategy name. An empty name
// defaults to local-wins.
func ParseStrategy(s string) (Strategy, error) {
	normalized := Strategy(strings.ToLower(strings.TrimSpace(s)))
	if normalized == "" {
		return LocalWins, nil
	}
	for _, known := range Strategies {
		if known == normalized {
			return known, nil
		}
	}
	return "", fmt.Errorf("unknown conflict strategy %q", s)
}

// Winner identifies which side a resolved conflict took its value from
type Winner string

const (
	WinnerLocal  Winner = "local"
	WinnerRemote Winner = "remote"
)

// SyncConflict is one divergent field. Timestamps are kept as strings since
// the remote side is free-form; they are parsed only by newest-wins.
type SyncConflict struct {
	Field           Field       `json:"field"`
	LocalValue      interface{} `json:"localValue"`
	RemoteValue     interface{} `json:"remoteValue"`
	LocalTimestamp  string      `json:"localTimestamp"`
	RemoteTimestamp string      `json:"remoteTimestamp"`
}

// ResolvedConflict records the winning side of one conflict
type ResolvedConflict struct {
	Field  Field       `json:"field"`
	Winner Winner      `json:"winner"`
	Value  interface{} `json:"value"`
}

// Resolution is the outcome of applying a strategy to a conflict list
type Resolution struct {
	Strategy                 Strategy              `json:"strategy"`
	ResolvedData             map[Field]interface{} `json:"resolvedData"`
	ResolvedConflicts        []ResolvedConflict    `json:"resolvedConflicts"`
	RequiresManualResolution bool                  `json:"requiresManualResolution"`
	UnresolvedConflicts      []SyncConflict        `json:"unresolvedConflicts,omitempty"`
}

// Winner returns the recorded winner for field, if it was resolved
func (r Resolution) Winner(field Field) (Winner, bool) {
	for _, rc := range r.ResolvedConflicts {
		if rc.Field == field {
			return rc.Winner, true
		}
	}
	return "", false
}

// DetectConflicts compares the two snapshots field by field. A field the
// remote leaves unset, or sets to an unknown phase, never produces a conflict.
func DetectConflicts(local backend.LocalFeature, remote backend.RemoteFeature) []SyncConflict {
	localTS := ""
	if !local.LastUpdated.IsZero() {
		localTS = local.LastUpdated.UTC().Format(time.RFC3339Nano)
	}
	remoteTS := remote.UpdatedAt

	conflicts := make([]SyncConflict, 0, 3)

	if remote.Phase != nil && remote.Phase.Valid() && *remote.Phase != local.Phase {
		conflicts = append(conflicts, SyncConflict{
			Field:           FieldPhase,
			LocalValue:      local.Phase,
			RemoteValue:     *remote.Phase,
			LocalTimestamp:  localTS,
			RemoteTimestamp: remoteTS,
		})
	}

	if remote.Progress != nil && *remote.Progress != local.Progress {
		conflicts = append(conflicts, SyncConflict{
			Field:           FieldProgress,
			LocalValue:      local.Progress,
			RemoteValue:     *remote.Progress,
			LocalTimestamp:  localTS,
			RemoteTimestamp: remoteTS,
		})
	}

	if remote.Name != local.Name {
		conflicts = append(conflicts, SyncConflict{
			Field:           FieldName,
			LocalValue:      local.Name,
			RemoteValue:     remote.Name,
			LocalTimestamp:  localTS,
			RemoteTimestamp: remoteTS,
		})
	}

	return conflicts
}
