package utils

import (
	"errors"
	"strings"
	"testing"
)

func TestErrorWithSuggestion(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		suggestion string
		want       string
	}{
		{
			name:       "with suggestion",
			err:        errors.New("boom"),
			suggestion: "try again",
			want:       "boom\n\nSuggestion: try again",
		},
		{
			name: "without suggestion",
			err:  errors.New("boom"),
			want: "boom",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := &ErrorWithSuggestion{Err: tt.err, Suggestion: tt.suggestion}
			if got := e.Error(); got != tt.want {
				t.Errorf("Error() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestWrapWithSuggestion(t *testing.T) {
	if WrapWithSuggestion(nil, "x") != nil {
		t.Error("WrapWithSuggestion(nil) should return nil")
	}

	originalErr := errors.New("original")
	wrapped := WrapWithSuggestion(originalErr, "hint")
	if !errors.Is(wrapped, originalErr) {
		t.Error("errors.Is should work with wrapped error")
	}

	var ews *ErrorWithSuggestion
	if !errors.As(wrapped, &ews) || ews.Suggestion != "hint" {
		t.Errorf("errors.As failed or wrong suggestion: %+v", ews)
	}
}

func TestErrorConstructors(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		contains []string
	}{
		{"feature not found", ErrFeatureNotFound("auth"), []string{"auth", "adk track auth"}},
		{"sync not enabled", ErrSyncNotEnabled(), []string{"not enabled", "integration.enabled"}},
		{"provider not configured", ErrProviderNotConfigured(), []string{"no sync provider", "integration.provider"}},
		{"unknown provider", ErrUnknownProvider("jira", []string{"file", "todoist"}), []string{"jira", "file, todoist"}},
		{"token not found", ErrTokenNotFound("todoist", "TODOIST_API_TOKEN"), []string{"todoist", "TODOIST_API_TOKEN=<token>", "--prompt"}},
		{"credentials not found", ErrCredentialsNotFound("todoist"), []string{"todoist", "credentials set todoist"}},
		{"invalid phase", ErrInvalidPhase("build", []string{"prd", "qa"}), []string{"build", "prd, qa"}},
		{"config not found", ErrConfigFileNotFound("/tmp/x.yaml"), []string{"/tmp/x.yaml", "adk config init"}},
		{"invalid config", ErrInvalidConfig("queue.storage", "must be json or sqlite"), []string{"queue.storage", "must be json or sqlite"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errStr := tt.err.Error()
			if !strings.Contains(errStr, "Suggestion:") {
				t.Errorf("Error should contain suggestion, got: %s", errStr)
			}
			for _, c := range tt.contains {
				if !strings.Contains(errStr, c) {
					t.Errorf("Error should contain %q, got: %s", c, errStr)
				}
			}
		})
	}
}

func TestErrConnectionFailed(t *testing.T) {
	tests := []struct {
		name           string
		reason         string
		wantSuggestion string
	}{
		{"unauthorized", "status 401", "credentials get todoist"},
		{"connection refused", "dial tcp: connection refused", "server is running"},
		{"timeout", "i/o timeout", "slow or unreachable"},
		{"generic", "unknown error", "internet connection"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errStr := ErrConnectionFailed("todoist", tt.reason).Error()
			if !strings.Contains(errStr, tt.reason) {
				t.Errorf("Error should contain reason, got: %s", errStr)
			}
			if !strings.Contains(errStr, tt.wantSuggestion) {
				t.Errorf("Error should contain suggestion about '%s', got: %s", tt.wantSuggestion, errStr)
			}
		})
	}
}
