// Package file implements a remote provider that keeps each feature as a
// JSON document in a directory. It is meant for offline use and tests.
package file

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/renanlido/agentic-development-kit-sub001/backend"
	"github.com/renanlido/agentic-development-kit-sub001/internal/utils"
)

func init() {
	backend.RegisterProvider("file", func(config backend.ProviderConfig) (backend.Provider, error) {
		return NewProvider(config)
	})
}

// Provider stores RemoteFeature records as <root>/<id>.json
type Provider struct {
	name      string
	root      string
	connected bool
	now       func() time.Time
}

// NewProvider creates a file provider rooted at config.Path
func NewProvider(config backend.ProviderConfig) (*Provider, error) {
	if config.Path == "" {
		return nil, fmt.Errorf("file provider requires a path")
	}
	root, err := utils.ExpandPath(config.Path)
	if err != nil {
		return nil, fmt.Errorf("invalid file provider path: %w", err)
	}
	name := config.Name
	if name == "" {
		name = "file"
	}
	return &Provider{name: name, root: root, now: time.Now}, nil
}

func (p *Provider) Name() string {
	return p.name
}

// Connect checks that a token is present and the root directory is usable
func (p *Provider) Connect(ctx context.Context, creds backend.Credentials) (*backend.ConnectResult, error) {
	if creds.Token == "" {
		return &backend.ConnectResult{Success: false, Message: "token is required"}, nil
	}
	if err := os.MkdirAll(p.root, 0755); err != nil {
		return nil, backend.NewProviderError("Connect", 0, "cannot create remote directory").WithError(err)
	}
	p.connected = true
	return &backend.ConnectResult{
		Success:    true,
		Message:    "connected to " + p.root,
		Workspaces: []backend.Workspace{{ID: p.root, Name: filepath.Base(p.root)}},
	}, nil
}

func (p *Provider) recordPath(id string) (string, error) {
	if id == "" || strings.ContainsAny(id, `/\`) || id == "." || id == ".." {
		return "", backend.NewProviderError("file", 400, fmt.Sprintf("invalid remote id %q", id))
	}
	return filepath.Join(p.root, id+".json"), nil
}

func (p *Provider) read(op, id string) (*backend.RemoteFeature, error) {
	path, err := p.recordPath(id)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, backend.NewProviderError(op, 404, "record not found").WithRemoteID(id)
		}
		return nil, backend.NewProviderError(op, 0, "read failed").WithRemoteID(id).WithError(err)
	}
	var record backend.RemoteFeature
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, backend.NewProviderError(op, 422, "corrupt record").WithRemoteID(id).WithError(err)
	}
	// an unknown phase is treated as unset, like the todoist mapper does
	if record.Phase != nil && !record.Phase.Valid() {
		utils.Debugf("Record %s has unknown phase %q, ignoring it", id, *record.Phase)
		record.Phase = nil
	}
	return &record, nil
}

func (p *Provider) write(op string, record backend.RemoteFeature) error {
	path, err := p.recordPath(record.ID)
	if err != nil {
		return err
	}
	data, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		return err
	}
	if err := utils.WriteFileAtomic(path, data, 0644); err != nil {
		return backend.NewProviderError(op, 0, "write failed").WithRemoteID(record.ID).WithError(err)
	}
	return nil
}

func (p *Provider) toRecord(id string, local backend.LocalFeature, createdAt string) backend.RemoteFeature {
	now := p.now().UTC().Format(time.RFC3339Nano)
	if createdAt == "" {
		createdAt = now
	}
	status := "open"
	if local.Phase == backend.PhaseDocs && local.Progress >= 100 {
		status = "completed"
	}
	return backend.RemoteFeature{
		ID:        id,
		Name:      local.Name,
		Status:    status,
		Phase:     backend.PhasePtr(local.Phase),
		Progress:  backend.IntPtr(backend.ClampProgress(local.Progress)),
		URL:       "file://" + filepath.Join(p.root, id+".json"),
		CreatedAt: createdAt,
		UpdatedAt: now,
	}
}

// SyncFeature writes local, creating the record when remoteID is empty or
// the record was removed
func (p *Provider) SyncFeature(ctx context.Context, local backend.LocalFeature, remoteID string) (*backend.SyncResult, error) {
	if !p.connected {
		return nil, backend.ErrNotConnected
	}
	if local.Name == "" {
		return &backend.SyncResult{Status: backend.SyncStatusError, RemoteID: remoteID, Message: "feature name is required"}, nil
	}

	var (
		record *backend.RemoteFeature
		err    error
	)
	if remoteID != "" {
		record, err = p.UpdateFeature(ctx, remoteID, local)
		if backend.IsNotFound(err) {
			record, err = p.CreateFeature(ctx, local)
		}
	} else {
		record, err = p.CreateFeature(ctx, local)
	}
	if err != nil {
		if backend.IsTransient(err) {
			return nil, err
		}
		return &backend.SyncResult{Status: backend.SyncStatusError, RemoteID: remoteID, Message: err.Error()}, nil
	}

	now := p.now()
	return &backend.SyncResult{
		Status:     backend.SyncStatusSynced,
		RemoteID:   record.ID,
		RemoteURL:  record.URL,
		LastSynced: &now,
		Message:    "written to " + p.root,
	}, nil
}

// GetFeature returns nil when the record does not exist
func (p *Provider) GetFeature(ctx context.Context, remoteID string) (*backend.RemoteFeature, error) {
	if !p.connected {
		return nil, backend.ErrNotConnected
	}
	record, err := p.read("GetFeature", remoteID)
	if backend.IsNotFound(err) {
		return nil, nil
	}
	return record, err
}

// GetTasks returns every record, sorted by name
func (p *Provider) GetTasks(ctx context.Context) ([]backend.RemoteFeature, error) {
	if !p.connected {
		return nil, backend.ErrNotConnected
	}
	entries, err := os.ReadDir(p.root)
	if err != nil {
		return nil, backend.NewProviderError("GetTasks", 0, "list failed").WithError(err)
	}
	out := []backend.RemoteFeature{}
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ".json" {
			continue
		}
		record, err := p.read("GetTasks", strings.TrimSuffix(e.Name(), ".json"))
		if err != nil {
			utils.Warnf("Skipping unreadable record %s: %v", e.Name(), err)
			continue
		}
		out = append(out, *record)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// CreateFeature writes a new record with a generated id
func (p *Provider) CreateFeature(ctx context.Context, local backend.LocalFeature) (*backend.RemoteFeature, error) {
	if !p.connected {
		return nil, backend.ErrNotConnected
	}
	record := p.toRecord(uuid.NewString(), local, "")
	if err := p.write("CreateFeature", record); err != nil {
		return nil, err
	}
	return &record, nil
}

// UpdateFeature rewrites an existing record
func (p *Provider) UpdateFeature(ctx context.Context, remoteID string, local backend.LocalFeature) (*backend.RemoteFeature, error) {
	if !p.connected {
		return nil, backend.ErrNotConnected
	}
	existing, err := p.read("UpdateFeature", remoteID)
	if err != nil {
		return nil, err
	}
	record := p.toRecord(remoteID, local, existing.CreatedAt)
	if err := p.write("UpdateFeature", record); err != nil {
		return nil, err
	}
	return &record, nil
}

// DeleteFeature removes the record; a missing record is not an error
func (p *Provider) DeleteFeature(ctx context.Context, remoteID string) error {
	if !p.connected {
		return backend.ErrNotConnected
	}
	path, err := p.recordPath(remoteID)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return backend.NewProviderError("DeleteFeature", 0, "delete failed").WithRemoteID(remoteID).WithError(err)
	}
	return nil
}
