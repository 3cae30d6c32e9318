package todoist

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/renanlido/agentic-development-kit-sub001/backend"
)

const (
	// Todoist REST API v2 base URL
	APIBaseURL = "https://api.todoist.com/rest/v2"

	maxErrorBody = 4096
)

// APIClient handles HTTP communication with Todoist REST API v2
type APIClient struct {
	baseURL    string
	apiToken   string
	httpClient *http.Client
}

// NewAPIClient creates a new Todoist API client. An empty baseURL uses the
// public API.
func NewAPIClient(baseURL, apiToken string) *APIClient {
	if baseURL == "" {
		baseURL = APIBaseURL
	}
	return &APIClient{
		baseURL:  strings.TrimRight(baseURL, "/"),
		apiToken: apiToken,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// Project represents a Todoist project
type Project struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	IsInboxProject bool   `json:"is_inbox_project"`
	URL            string `json:"url"`
}

// Task represents a task from the Todoist API
type Task struct {
	ID          string   `json:"id"`
	ProjectID   string   `json:"project_id"`
	Content     string   `json:"content"`
	Description string   `json:"description"`
	IsCompleted bool     `json:"is_completed"`
	Labels      []string `json:"labels"`
	URL         string   `json:"url"`
	CreatedAt   string   `json:"created_at"`
	UpdatedAt   string   `json:"updated_at,omitempty"`
}

// CreateTaskRequest represents request body for creating a task
type CreateTaskRequest struct {
	Content     string   `json:"content"`
	Description string   `json:"description,omitempty"`
	ProjectID   string   `json:"project_id,omitempty"`
	Labels      []string `json:"labels,omitempty"`
}

// UpdateTaskRequest represents request body for updating a task
type UpdateTaskRequest struct {
	Content     string   `json:"content,omitempty"`
	Description string   `json:"description,omitempty"`
	Labels      []string `json:"labels"`
}

// doRequest performs an authenticated request and decodes a JSON response
// into out (when non-nil). Any status outside 2xx becomes a ProviderError
// carrying the status code; transport failures carry status 0.
func (c *APIClient) doRequest(ctx context.Context, op, method, endpoint string, body, out interface{}) error {
	var reqBody io.Reader
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
		reqBody = bytes.NewBuffer(jsonData)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+endpoint, reqBody)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiToken)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return backend.NewProviderError(op, 0, "request failed").WithError(err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		msg := strings.TrimSpace(string(data))
		if msg == "" {
			msg = http.StatusText(resp.StatusCode)
		}
		return backend.NewProviderError(op, resp.StatusCode, msg).WithBody(string(data))
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return backend.NewProviderError(op, resp.StatusCode, "failed to decode response").WithError(err)
	}
	return nil
}

// GetProjects retrieves all projects
func (c *APIClient) GetProjects(ctx context.Context) ([]Project, error) {
	var projects []Project
	if err := c.doRequest(ctx, "GetProjects", http.MethodGet, "/projects", nil, &projects); err != nil {
		return nil, err
	}
	return projects, nil
}

// GetTasks retrieves active tasks, optionally filtered by project and label
func (c *APIClient) GetTasks(ctx context.Context, projectID, label string) ([]Task, error) {
	params := url.Values{}
	if projectID != "" {
		params.Set("project_id", projectID)
	}
	if label != "" {
		params.Set("label", label)
	}
	endpoint := "/tasks"
	if len(params) > 0 {
		endpoint += "?" + params.Encode()
	}

	var tasks []Task
	if err := c.doRequest(ctx, "GetTasks", http.MethodGet, endpoint, nil, &tasks); err != nil {
		return nil, err
	}
	return tasks, nil
}

// GetTask retrieves a single task by ID
func (c *APIClient) GetTask(ctx context.Context, taskID string) (*Task, error) {
	var task Task
	if err := c.doRequest(ctx, "GetTask", http.MethodGet, "/tasks/"+url.PathEscape(taskID), nil, &task); err != nil {
		return nil, err
	}
	return &task, nil
}

// CreateTask creates a new task
func (c *APIClient) CreateTask(ctx context.Context, req CreateTaskRequest) (*Task, error) {
	var task Task
	if err := c.doRequest(ctx, "CreateTask", http.MethodPost, "/tasks", req, &task); err != nil {
		return nil, err
	}
	return &task, nil
}

// UpdateTask updates an existing task. Todoist answers 200 with the task or
// 204 with no content; in the latter case nil is returned.
func (c *APIClient) UpdateTask(ctx context.Context, taskID string, req UpdateTaskRequest) (*Task, error) {
	var task Task
	if err := c.doRequest(ctx, "UpdateTask", http.MethodPost, "/tasks/"+url.PathEscape(taskID), req, &task); err != nil {
		return nil, err
	}
	if task.ID == "" {
		return nil, nil
	}
	return &task, nil
}

// CloseTask marks a task as completed
func (c *APIClient) CloseTask(ctx context.Context, taskID string) error {
	return c.doRequest(ctx, "CloseTask", http.MethodPost, "/tasks/"+url.PathEscape(taskID)+"/close", nil, nil)
}

// ReopenTask marks a completed task as not completed
func (c *APIClient) ReopenTask(ctx context.Context, taskID string) error {
	return c.doRequest(ctx, "ReopenTask", http.MethodPost, "/tasks/"+url.PathEscape(taskID)+"/reopen", nil, nil)
}

// DeleteTask deletes a task
func (c *APIClient) DeleteTask(ctx context.Context, taskID string) error {
	return c.doRequest(ctx, "DeleteTask", http.MethodDelete, "/tasks/"+url.PathEscape(taskID), nil, nil)
}
