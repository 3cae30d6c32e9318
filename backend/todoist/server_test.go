package todoist

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
)

// fakeTodoist is an in-memory stand-in for the Todoist REST v2 API
type fakeTodoist struct {
	mu       sync.Mutex
	token    string
	projects []Project
	tasks    map[string]*Task
	nextID   int

	// failStatus, when set, is returned for every task request
	failStatus int
	requests   []string
}

func newFakeTodoist(t *testing.T) (*fakeTodoist, *httptest.Server) {
	t.Helper()
	f := &fakeTodoist{
		token:    "secret",
		projects: []Project{{ID: "p1", Name: "Inbox", IsInboxProject: true}, {ID: "p2", Name: "Features"}},
		tasks:    map[string]*Task{},
	}
	srv := httptest.NewServer(http.HandlerFunc(f.handle))
	t.Cleanup(srv.Close)
	return f, srv
}

func (f *fakeTodoist) handle(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.requests = append(f.requests, r.Method+" "+r.URL.Path)

	if r.Header.Get("Authorization") != "Bearer "+f.token {
		http.Error(w, "Forbidden", http.StatusForbidden)
		return
	}

	path := r.URL.Path
	switch {
	case path == "/projects" && r.Method == http.MethodGet:
		writeJSON(w, f.projects)
		return
	case f.failStatus != 0:
		http.Error(w, "scripted failure", f.failStatus)
		return
	case path == "/tasks" && r.Method == http.MethodGet:
		out := []Task{}
		for _, task := range f.tasks {
			if pid := r.URL.Query().Get("project_id"); pid != "" && task.ProjectID != pid {
				continue
			}
			if label := r.URL.Query().Get("label"); label != "" && !contains(task.Labels, label) {
				continue
			}
			out = append(out, *task)
		}
		writeJSON(w, out)
	case path == "/tasks" && r.Method == http.MethodPost:
		var req CreateTaskRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Content == "" {
			http.Error(w, "content is required", http.StatusBadRequest)
			return
		}
		f.nextID++
		id := fmt.Sprintf("t%d", f.nextID)
		task := &Task{
			ID:        id,
			ProjectID: req.ProjectID,
			Content:   req.Content,
			Labels:    req.Labels,
			URL:       "https://todoist.com/showTask?id=" + id,
			CreatedAt: "2026-03-01T10:00:00Z",
		}
		f.tasks[id] = task
		writeJSON(w, task)
	case strings.HasPrefix(path, "/tasks/"):
		rest := strings.TrimPrefix(path, "/tasks/")
		id, action, _ := strings.Cut(rest, "/")
		task, ok := f.tasks[id]
		if !ok {
			http.Error(w, "Task not found", http.StatusNotFound)
			return
		}
		switch {
		case action == "" && r.Method == http.MethodGet:
			writeJSON(w, task)
		case action == "" && r.Method == http.MethodPost:
			var req UpdateTaskRequest
			json.NewDecoder(r.Body).Decode(&req)
			if req.Content != "" {
				task.Content = req.Content
			}
			task.Labels = req.Labels
			task.UpdatedAt = "2026-03-02T10:00:00Z"
			writeJSON(w, task)
		case action == "" && r.Method == http.MethodDelete:
			delete(f.tasks, id)
			w.WriteHeader(http.StatusNoContent)
		case action == "close":
			task.IsCompleted = true
			w.WriteHeader(http.StatusNoContent)
		case action == "reopen":
			task.IsCompleted = false
			w.WriteHeader(http.StatusNoContent)
		default:
			http.NotFound(w, r)
		}
	default:
		http.NotFound(w, r)
	}
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
