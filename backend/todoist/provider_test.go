package todoist

import (
	"context"
	"net/http"
	"testing"

	"github.com/renanlido/agentic-development-kit-sub001/backend"
)

func connectedProvider(t *testing.T, baseURL string) *Provider {
	t.Helper()
	p := NewProvider(backend.ProviderConfig{BaseURL: baseURL})
	res, err := p.Connect(context.Background(), backend.Credentials{Token: "secret", ListID: "p2"})
	if err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	if !res.Success {
		t.Fatalf("Connect() rejected: %s", res.Message)
	}
	return p
}

func TestProvider_Registered(t *testing.T) {
	p, err := backend.NewProvider("Todoist", backend.ProviderConfig{})
	if err != nil {
		t.Fatalf("NewProvider() error = %v", err)
	}
	if p.Name() != "todoist" {
		t.Errorf("Name() = %q", p.Name())
	}
}

func TestProvider_Connect(t *testing.T) {
	_, srv := newFakeTodoist(t)
	ctx := context.Background()

	tests := []struct {
		name        string
		creds       backend.Credentials
		wantSuccess bool
	}{
		{"valid token", backend.Credentials{Token: "secret"}, true},
		{"valid project", backend.Credentials{Token: "secret", ListID: "p2"}, true},
		{"unknown project", backend.Credentials{Token: "secret", ListID: "p9"}, false},
		{"bad token", backend.Credentials{Token: "wrong"}, false},
		{"empty token", backend.Credentials{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewProvider(backend.ProviderConfig{BaseURL: srv.URL})
			res, err := p.Connect(ctx, tt.creds)
			if err != nil {
				t.Fatalf("Connect() error = %v", err)
			}
			if res.Success != tt.wantSuccess {
				t.Errorf("Success = %v, want %v (%s)", res.Success, tt.wantSuccess, res.Message)
			}
			if tt.wantSuccess && len(res.Workspaces) != 2 {
				t.Errorf("Workspaces = %+v", res.Workspaces)
			}
		})
	}
}

func TestProvider_ConnectUnreachable(t *testing.T) {
	p := NewProvider(backend.ProviderConfig{BaseURL: "http://127.0.0.1:1"})
	if _, err := p.Connect(context.Background(), backend.Credentials{Token: "secret"}); err == nil {
		t.Error("Connect() to an unreachable host should return an error")
	}
}

func TestProvider_NotConnected(t *testing.T) {
	p := NewProvider(backend.ProviderConfig{})
	if _, err := p.SyncFeature(context.Background(), backend.LocalFeature{Name: "auth"}, ""); err != backend.ErrNotConnected {
		t.Errorf("SyncFeature() error = %v, want ErrNotConnected", err)
	}
}

func TestProvider_SyncCreateThenUpdate(t *testing.T) {
	fake, srv := newFakeTodoist(t)
	p := connectedProvider(t, srv.URL)
	ctx := context.Background()

	local := backend.LocalFeature{Name: "auth", Phase: backend.PhaseImplement, Progress: 40}
	res, err := p.SyncFeature(ctx, local, "")
	if err != nil {
		t.Fatalf("SyncFeature(create) error = %v", err)
	}
	if res.Status != backend.SyncStatusSynced || res.RemoteID == "" || res.LastSynced == nil {
		t.Fatalf("create result = %+v", res)
	}

	created := fake.tasks[res.RemoteID]
	if created.ProjectID != "p2" {
		t.Errorf("ProjectID = %q, want p2", created.ProjectID)
	}
	for _, want := range []string{"adk", "phase:implement", "progress:40"} {
		if !contains(created.Labels, want) {
			t.Errorf("labels %v missing %q", created.Labels, want)
		}
	}

	// a label added by a user in Todoist survives updates
	created.Labels = append(created.Labels, "urgent")

	local.Phase, local.Progress = backend.PhaseQA, 90
	res2, err := p.SyncFeature(ctx, local, res.RemoteID)
	if err != nil {
		t.Fatalf("SyncFeature(update) error = %v", err)
	}
	if res2.RemoteID != res.RemoteID {
		t.Errorf("update changed remote id: %s -> %s", res.RemoteID, res2.RemoteID)
	}

	remote, err := p.GetFeature(ctx, res.RemoteID)
	if err != nil || remote == nil {
		t.Fatalf("GetFeature() = %v, %v", remote, err)
	}
	if remote.Phase == nil || *remote.Phase != backend.PhaseQA {
		t.Errorf("remote phase = %v", remote.Phase)
	}
	if remote.Progress == nil || *remote.Progress != 90 {
		t.Errorf("remote progress = %v", remote.Progress)
	}
	if !contains(fake.tasks[res.RemoteID].Labels, "urgent") {
		t.Error("user label was dropped")
	}
}

func TestProvider_SyncRecreatesDeletedTask(t *testing.T) {
	_, srv := newFakeTodoist(t)
	p := connectedProvider(t, srv.URL)

	res, err := p.SyncFeature(context.Background(), backend.LocalFeature{Name: "auth", Phase: backend.PhasePRD}, "gone")
	if err != nil {
		t.Fatalf("SyncFeature() error = %v", err)
	}
	if res.Status != backend.SyncStatusSynced || res.RemoteID == "gone" {
		t.Errorf("result = %+v", res)
	}
}

func TestProvider_SyncErrorClassification(t *testing.T) {
	tests := []struct {
		name       string
		status     int
		wantErr    bool
		wantResult backend.SyncStatus
	}{
		{"server error is thrown", http.StatusBadGateway, true, ""},
		{"rate limit is thrown", http.StatusTooManyRequests, true, ""},
		{"validation is a result", http.StatusBadRequest, false, backend.SyncStatusError},
		{"forbidden is a result", http.StatusForbidden, false, backend.SyncStatusError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fake, srv := newFakeTodoist(t)
			p := connectedProvider(t, srv.URL)
			fake.failStatus = tt.status

			res, err := p.SyncFeature(context.Background(), backend.LocalFeature{Name: "auth", Phase: backend.PhasePRD}, "")
			if (err != nil) != tt.wantErr {
				t.Fatalf("SyncFeature() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && res.Status != tt.wantResult {
				t.Errorf("Status = %s, want %s", res.Status, tt.wantResult)
			}
		})
	}
}

func TestProvider_GetFeatureNotFound(t *testing.T) {
	_, srv := newFakeTodoist(t)
	p := connectedProvider(t, srv.URL)

	remote, err := p.GetFeature(context.Background(), "missing")
	if err != nil {
		t.Fatalf("GetFeature() error = %v", err)
	}
	if remote != nil {
		t.Errorf("GetFeature() = %+v, want nil", remote)
	}
}

func TestProvider_GetFeaturePropagatesFailures(t *testing.T) {
	fake, srv := newFakeTodoist(t)
	p := connectedProvider(t, srv.URL)
	fake.failStatus = http.StatusInternalServerError

	if _, err := p.GetFeature(context.Background(), "t1"); err == nil {
		t.Error("GetFeature() should propagate non-404 failures")
	}
}

func TestProvider_CompletionToggle(t *testing.T) {
	fake, srv := newFakeTodoist(t)
	p := connectedProvider(t, srv.URL)
	ctx := context.Background()

	done := backend.LocalFeature{Name: "auth", Phase: backend.PhaseDocs, Progress: 100}
	created, err := p.CreateFeature(ctx, done)
	if err != nil {
		t.Fatalf("CreateFeature() error = %v", err)
	}
	if created.Status != "completed" || !fake.tasks[created.ID].IsCompleted {
		t.Errorf("finished feature should create a completed task: %+v", created)
	}

	reopened, err := p.UpdateFeature(ctx, created.ID, backend.LocalFeature{Name: "auth", Phase: backend.PhaseQA, Progress: 80})
	if err != nil {
		t.Fatalf("UpdateFeature() error = %v", err)
	}
	if reopened.Status != "open" || fake.tasks[created.ID].IsCompleted {
		t.Errorf("moving back to qa should reopen the task: %+v", reopened)
	}
}

func TestProvider_GetTasksAndDelete(t *testing.T) {
	fake, srv := newFakeTodoist(t)
	p := connectedProvider(t, srv.URL)
	ctx := context.Background()

	a, _ := p.CreateFeature(ctx, backend.LocalFeature{Name: "auth", Phase: backend.PhasePRD})
	p.CreateFeature(ctx, backend.LocalFeature{Name: "billing", Phase: backend.PhaseTasks})
	fake.tasks["manual"] = &Task{ID: "manual", ProjectID: "p2", Content: "not ours"}

	tasks, err := p.GetTasks(ctx)
	if err != nil {
		t.Fatalf("GetTasks() error = %v", err)
	}
	if len(tasks) != 2 {
		t.Errorf("GetTasks() returned %d tasks, want 2 managed tasks", len(tasks))
	}

	if err := p.DeleteFeature(ctx, a.ID); err != nil {
		t.Fatalf("DeleteFeature() error = %v", err)
	}
	if err := p.DeleteFeature(ctx, a.ID); err != nil {
		t.Errorf("deleting a missing task should succeed, got %v", err)
	}
	if _, ok := fake.tasks[a.ID]; ok {
		t.Error("task still present after delete")
	}
}
