// Package featurestate persists the per-feature sync state documents kept
// under each feature's directory.
package featurestate

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/renanlido/agentic-development-kit-sub001/backend"
	"github.com/renanlido/agentic-development-kit-sub001/internal/utils"
)

const (
	// StateFileName is the sync state document inside a feature directory
	StateFileName = "sync-state.json"
	// ConflictReportFileName is written only when manual resolution is required
	ConflictReportFileName = "sync-conflicts.md"
)

// ErrNotFound is returned when a feature has no readable sync state
var ErrNotFound = errors.New("feature sync state not found")

// SyncableProgress is the persisted sync state of one feature
type SyncableProgress struct {
	backend.LocalFeature
	SyncStatus backend.SyncStatus `json:"syncStatus"`
	RemoteID   string             `json:"remoteId,omitempty"`
	LastSynced *time.Time         `json:"lastSynced,omitempty"`
	LastError  string             `json:"lastError,omitempty"`
}

// Local returns the feature view sent to providers
func (p SyncableProgress) Local() backend.LocalFeature {
	return p.LocalFeature
}

// IsNew reports whether the feature was never linked to a remote record
func (p SyncableProgress) IsNew() bool {
	return p.RemoteID == ""
}

// Store reads and writes sync state under a features root directory:
// <root>/<feature>/sync-state.json
type Store struct {
	root     string
	validate *validator.Validate
	now      func() time.Time
}

// NewStore returns a store rooted at dir
func NewStore(dir string) *Store {
	return &Store{
		root:     dir,
		validate: validator.New(),
		now:      time.Now,
	}
}

// Root returns the features directory
func (s *Store) Root() string {
	return s.root
}

// Dir returns the directory of a feature
func (s *Store) Dir(name string) string {
	return filepath.Join(s.root, name)
}

func (s *Store) statePath(name string) string {
	return filepath.Join(s.Dir(name), StateFileName)
}

func validName(name string) error {
	if name == "" || name == "." || name == ".." || strings.ContainsAny(name, `/\`) {
		return fmt.Errorf("invalid feature name %q", name)
	}
	return nil
}

// Load reads the sync state of a feature. Invalid names and missing,
// unreadable or invalid documents all yield ErrNotFound.
func (s *Store) Load(name string) (*SyncableProgress, error) {
	if err := validName(name); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotFound, err)
	}

	data, err := os.ReadFile(s.statePath(name))
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			utils.Warnf("Cannot read sync state for %s: %v", name, err)
		}
		return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
	}

	var state SyncableProgress
	if err := json.Unmarshal(data, &state); err != nil {
		utils.Warnf("Ignoring corrupt sync state for %s: %v", name, err)
		return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	if state.Name == "" {
		state.Name = name
	}
	if err := s.validate.Struct(state.LocalFeature); err != nil {
		utils.Warnf("Ignoring invalid sync state for %s: %v", name, err)
		return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
	}

	state.Normalize()
	switch state.SyncStatus {
	case backend.SyncStatusPending, backend.SyncStatusSynced, backend.SyncStatusError:
	default:
		state.SyncStatus = backend.SyncStatusPending
	}
	return &state, nil
}

// Save writes the sync state of state.Name atomically
func (s *Store) Save(state *SyncableProgress) error {
	if err := validName(state.Name); err != nil {
		return err
	}
	state.Normalize()
	if state.SyncStatus == "" {
		state.SyncStatus = backend.SyncStatusPending
	}

	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode sync state for %s: %w", state.Name, err)
	}
	if err := utils.WriteFileAtomic(s.statePath(state.Name), data, 0644); err != nil {
		return fmt.Errorf("failed to save sync state for %s: %w", state.Name, err)
	}
	return nil
}

// List returns the names of every feature with a sync state document, sorted
func (s *Store) List() ([]string, error) {
	entries, err := os.ReadDir(s.root)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return []string{}, nil
		}
		return nil, fmt.Errorf("failed to list features in %s: %w", s.root, err)
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		if _, err := os.Stat(s.statePath(e.Name())); err == nil {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}

// Track starts tracking a feature, or updates phase and progress of an
// existing one. Any change puts the feature back to pending.
func (s *Store) Track(name string, phase backend.Phase, progress int) (*SyncableProgress, error) {
	if err := validName(name); err != nil {
		return nil, err
	}

	state, err := s.Load(name)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			return nil, err
		}
		state = &SyncableProgress{LocalFeature: backend.LocalFeature{Name: name}}
	}

	state.Phase = phase
	state.Progress = progress
	state.LastUpdated = s.now().UTC()
	state.SyncStatus = backend.SyncStatusPending
	state.LastError = ""

	if err := s.Save(state); err != nil {
		return nil, err
	}
	return state, nil
}

// WriteConflictReport writes a markdown conflict report into the feature
// directory and returns its path
func (s *Store) WriteConflictReport(name, report string) (string, error) {
	if err := validName(name); err != nil {
		return "", err
	}
	path := filepath.Join(s.Dir(name), ConflictReportFileName)
	if err := utils.WriteFileAtomic(path, []byte(report), 0644); err != nil {
		return "", fmt.Errorf("failed to write conflict report for %s: %w", name, err)
	}
	return path, nil
}
