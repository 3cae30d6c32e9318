package utils

import (
	"fmt"
	"strings"
)

// ErrorWithSuggestion wraps an error with a helpful suggestion for the user
type ErrorWithSuggestion struct {
	Err        error
	Suggestion string
}

// Error implements the error interface
func (e *ErrorWithSuggestion) Error() string {
	if e.Suggestion != "" {
		return fmt.Sprintf("%v\n\nSuggestion: %s", e.Err, e.Suggestion)
	}
	return e.Err.Error()
}

// Unwrap allows errors.Is and errors.As to work
func (e *ErrorWithSuggestion) Unwrap() error {
	return e.Err
}

// Common error constructors with suggestions

// ErrFeatureNotFound creates an error when no sync state exists for a feature
func ErrFeatureNotFound(name string) error {
	return &ErrorWithSuggestion{
		Err:        fmt.Errorf("feature '%s' is not tracked", name),
		Suggestion: fmt.Sprintf("Start tracking it with 'adk track %s'", name),
	}
}

// ErrSyncNotEnabled creates an error when sync is attempted with integration disabled
func ErrSyncNotEnabled() error {
	return &ErrorWithSuggestion{
		Err:        fmt.Errorf("integration is not enabled in configuration"),
		Suggestion: "Set 'integration.enabled: true' in your adk config.yaml",
	}
}

// ErrProviderNotConfigured creates an error when no provider name is set
func ErrProviderNotConfigured() error {
	return &ErrorWithSuggestion{
		Err:        fmt.Errorf("no sync provider configured"),
		Suggestion: "Set 'integration.provider' in your adk config.yaml (e.g. todoist)",
	}
}

// ErrUnknownProvider creates an error for a provider name without a registered constructor
func ErrUnknownProvider(name string, known []string) error {
	return &ErrorWithSuggestion{
		Err:        fmt.Errorf("unknown sync provider '%s'", name),
		Suggestion: fmt.Sprintf("Available providers: %s", strings.Join(known, ", ")),
	}
}

// ErrTokenNotFound creates an error when no API token can be resolved
func ErrTokenNotFound(provider, envKey string) error {
	return &ErrorWithSuggestion{
		Err:        fmt.Errorf("no API token found for %s", provider),
		Suggestion: fmt.Sprintf("Add %s=<token> to your env file, export it, or run 'adk credentials set %s --prompt'", envKey, provider),
	}
}

// ErrConnectionFailed creates an error when the provider handshake fails
func ErrConnectionFailed(provider, reason string) error {
	suggestion := "Check your internet connection and try again"
	if strings.Contains(reason, "401") || strings.Contains(strings.ToLower(reason), "unauthorized") {
		suggestion = fmt.Sprintf("Check the token with 'adk credentials get %s' and update if needed", provider)
	} else if strings.Contains(reason, "refused") {
		suggestion = "Check if the server is running and accessible"
	} else if strings.Contains(reason, "timeout") {
		suggestion = "The server may be slow or unreachable. Try again later"
	}

	return &ErrorWithSuggestion{
		Err:        fmt.Errorf("failed to connect to %s: %s", provider, reason),
		Suggestion: suggestion,
	}
}

// ErrCredentialsNotFound creates an error when no keyring entry exists
func ErrCredentialsNotFound(provider string) error {
	return &ErrorWithSuggestion{
		Err:        fmt.Errorf("credentials not found for %s", provider),
		Suggestion: fmt.Sprintf("Store credentials with 'adk credentials set %s --prompt'", provider),
	}
}

// ErrInvalidPhase creates an error for unknown phase names
func ErrInvalidPhase(phase string, valid []string) error {
	return &ErrorWithSuggestion{
		Err:        fmt.Errorf("invalid phase: %s", phase),
		Suggestion: fmt.Sprintf("Valid phases: %s", strings.Join(valid, ", ")),
	}
}

// ErrConfigFileNotFound creates an error when config file is not found
func ErrConfigFileNotFound(path string) error {
	return &ErrorWithSuggestion{
		Err:        fmt.Errorf("config file not found at %s", path),
		Suggestion: "Run 'adk config init' to create a default configuration file",
	}
}

// ErrInvalidConfig creates an error for invalid configuration
func ErrInvalidConfig(field string, reason string) error {
	return &ErrorWithSuggestion{
		Err:        fmt.Errorf("invalid configuration for '%s': %s", field, reason),
		Suggestion: fmt.Sprintf("Check your adk config.yaml and fix the '%s' field", field),
	}
}

// WrapWithSuggestion wraps an existing error with a suggestion
func WrapWithSuggestion(err error, suggestion string) error {
	if err == nil {
		return nil
	}
	return &ErrorWithSuggestion{
		Err:        err,
		Suggestion: suggestion,
	}
}
