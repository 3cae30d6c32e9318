package todoist

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/renanlido/agentic-development-kit-sub001/backend"
	"github.com/renanlido/agentic-development-kit-sub001/internal/utils"
)

func init() {
	backend.RegisterProvider("todoist", func(config backend.ProviderConfig) (backend.Provider, error) {
		return NewProvider(config), nil
	})
}

// Provider syncs features as tasks in one Todoist project. Phase and
// progress travel as "phase:<p>" and "progress:<n>" labels.
type Provider struct {
	config    backend.ProviderConfig
	client    *APIClient
	projectID string
	now       func() time.Time
}

// NewProvider creates an unconnected Todoist provider
func NewProvider(config backend.ProviderConfig) *Provider {
	if config.Name == "" {
		config.Name = "todoist"
	}
	return &Provider{config: config, now: time.Now}
}

// Name returns the registered provider name
func (p *Provider) Name() string {
	return p.config.Name
}

// Connect validates the token by listing projects. ListID selects the
// project features are written to; without it tasks land in the inbox.
func (p *Provider) Connect(ctx context.Context, creds backend.Credentials) (*backend.ConnectResult, error) {
	if creds.Token == "" {
		return &backend.ConnectResult{Success: false, Message: "API token is required"}, nil
	}

	client := NewAPIClient(p.config.BaseURL, creds.Token)
	projects, err := client.GetProjects(ctx)
	if err != nil {
		var pErr *backend.ProviderError
		if errors.As(err, &pErr) && pErr.StatusCode > 0 && !pErr.IsServerError() {
			return &backend.ConnectResult{
				Success: false,
				Message: fmt.Sprintf("Todoist rejected the token (status %d)", pErr.StatusCode),
			}, nil
		}
		return nil, err
	}

	workspaces := make([]backend.Workspace, 0, len(projects))
	found := creds.ListID == ""
	for _, project := range projects {
		workspaces = append(workspaces, backend.Workspace{ID: project.ID, Name: project.Name})
		if project.ID == creds.ListID {
			found = true
		}
	}
	if !found {
		return &backend.ConnectResult{
			Success:    false,
			Message:    fmt.Sprintf("project %s not found", creds.ListID),
			Workspaces: workspaces,
		}, nil
	}

	p.client = client
	p.projectID = creds.ListID
	utils.Debugf("Connected to Todoist (%d projects, project=%q)", len(projects), p.projectID)

	return &backend.ConnectResult{
		Success:    true,
		Message:    fmt.Sprintf("connected, %d projects available", len(projects)),
		Workspaces: workspaces,
	}, nil
}

func (p *Provider) connected() error {
	if p.client == nil {
		return backend.ErrNotConnected
	}
	return nil
}

// SyncFeature creates or updates the task for local. A task deleted on the
// Todoist side is recreated. Transient failures come back as errors; any
// other rejection is reported as an error result.
func (p *Provider) SyncFeature(ctx context.Context, local backend.LocalFeature, remoteID string) (*backend.SyncResult, error) {
	if err := p.connected(); err != nil {
		return nil, err
	}

	var (
		remote *backend.RemoteFeature
		err    error
	)
	if remoteID != "" {
		remote, err = p.UpdateFeature(ctx, remoteID, local)
		if backend.IsNotFound(err) {
			utils.Infof("Task %s for %s no longer exists, recreating", remoteID, local.Name)
			remote, err = p.CreateFeature(ctx, local)
		}
	} else {
		remote, err = p.CreateFeature(ctx, local)
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
		RemoteID:   remote.ID,
		RemoteURL:  remote.URL,
		LastSynced: &now,
		Message:    "synced to Todoist",
	}, nil
}

// GetFeature returns nil when the task does not exist
func (p *Provider) GetFeature(ctx context.Context, remoteID string) (*backend.RemoteFeature, error) {
	if err := p.connected(); err != nil {
		return nil, err
	}
	task, err := p.client.GetTask(ctx, remoteID)
	if err != nil {
		if backend.IsNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	remote := toRemoteFeature(task)
	return &remote, nil
}

// GetTasks lists the adk-managed tasks of the project
func (p *Provider) GetTasks(ctx context.Context) ([]backend.RemoteFeature, error) {
	if err := p.connected(); err != nil {
		return nil, err
	}
	tasks, err := p.client.GetTasks(ctx, p.projectID, FeatureLabel)
	if err != nil {
		return nil, err
	}
	out := make([]backend.RemoteFeature, 0, len(tasks))
	for i := range tasks {
		out = append(out, toRemoteFeature(&tasks[i]))
	}
	return out, nil
}

// CreateFeature creates a task for local
func (p *Provider) CreateFeature(ctx context.Context, local backend.LocalFeature) (*backend.RemoteFeature, error) {
	if err := p.connected(); err != nil {
		return nil, err
	}
	if local.Name == "" {
		return nil, backend.NewProviderError("CreateFeature", 400, "feature name is required")
	}

	task, err := p.client.CreateTask(ctx, CreateTaskRequest{
		Content:   local.Name,
		ProjectID: p.projectID,
		Labels:    featureLabels(local, nil),
	})
	if err != nil {
		return nil, withFeature(err, local.Name, "")
	}
	if isComplete(local) {
		if err := p.client.CloseTask(ctx, task.ID); err != nil {
			return nil, withFeature(err, local.Name, task.ID)
		}
		task.IsCompleted = true
	}

	remote := toRemoteFeature(task)
	return &remote, nil
}

// UpdateFeature rewrites name and labels of an existing task and toggles
// its completion to match local
func (p *Provider) UpdateFeature(ctx context.Context, remoteID string, local backend.LocalFeature) (*backend.RemoteFeature, error) {
	if err := p.connected(); err != nil {
		return nil, err
	}

	current, err := p.client.GetTask(ctx, remoteID)
	if err != nil {
		return nil, withFeature(err, local.Name, remoteID)
	}

	updated, err := p.client.UpdateTask(ctx, remoteID, UpdateTaskRequest{
		Content: local.Name,
		Labels:  featureLabels(local, current.Labels),
	})
	if err != nil {
		return nil, withFeature(err, local.Name, remoteID)
	}
	if updated == nil {
		updated = current
		updated.Content = local.Name
		updated.Labels = featureLabels(local, current.Labels)
	}

	switch complete := isComplete(local); {
	case complete && !current.IsCompleted:
		err = p.client.CloseTask(ctx, remoteID)
	case !complete && current.IsCompleted:
		err = p.client.ReopenTask(ctx, remoteID)
	}
	if err != nil {
		return nil, withFeature(err, local.Name, remoteID)
	}
	updated.IsCompleted = isComplete(local)

	remote := toRemoteFeature(updated)
	return &remote, nil
}

// DeleteFeature deletes the task. Deleting a missing task is not an error.
func (p *Provider) DeleteFeature(ctx context.Context, remoteID string) error {
	if err := p.connected(); err != nil {
		return err
	}
	if err := p.client.DeleteTask(ctx, remoteID); err != nil && !backend.IsNotFound(err) {
		return withFeature(err, "", remoteID)
	}
	return nil
}

func withFeature(err error, name, remoteID string) error {
	var pErr *backend.ProviderError
	if errors.As(err, &pErr) {
		if name != "" {
			pErr.WithFeature(name)
		}
		if remoteID != "" {
			pErr.WithRemoteID(remoteID)
		}
	}
	return err
}
