package backend

import (
	"errors"
	"fmt"
)

// ProviderError represents an error from a provider operation.
// It carries the HTTP status code (when there is one), the operation and the
// feature it concerned, and the underlying error.
type ProviderError struct {
	Operation   string // e.g., "SyncFeature", "GetFeature", "Connect"
	StatusCode  int    // HTTP status code (0 if not an HTTP error)
	Message     string // Human-readable error message
	FeatureName string // Optional: affected feature
	RemoteID    string // Optional: affected remote record
	Body        string // Optional: response body for debugging
	Err         error  // Optional: underlying error
}

// Error implements the error interface
func (e *ProviderError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("%s failed with status %d: %s", e.Operation, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("%s failed: %s", e.Operation, e.Message)
}

// Unwrap returns the underlying error for error wrapping
func (e *ProviderError) Unwrap() error {
	return e.Err
}

// IsNotFound returns true if the error is a 404 Not Found
func (e *ProviderError) IsNotFound() bool {
	return e.StatusCode == 404
}

// IsUnauthorized returns true if the error is a 401 Unauthorized or 403 Forbidden
func (e *ProviderError) IsUnauthorized() bool {
	return e.StatusCode == 401 || e.StatusCode == 403
}

// IsServerError returns true if the error is a 5xx server error
func (e *ProviderError) IsServerError() bool {
	return e.StatusCode >= 500 && e.StatusCode < 600
}

// IsTransient reports whether retrying the same request later may succeed:
// transport failures (no status), rate limiting and server errors
func (e *ProviderError) IsTransient() bool {
	return e.StatusCode == 0 || e.StatusCode == 429 || e.IsServerError()
}

// NewProviderError creates a new ProviderError
func NewProviderError(operation string, statusCode int, message string) *ProviderError {
	return &ProviderError{
		Operation:  operation,
		StatusCode: statusCode,
		Message:    message,
	}
}

// WithFeature adds the feature name to the error for context
func (e *ProviderError) WithFeature(name string) *ProviderError {
	e.FeatureName = name
	return e
}

// WithRemoteID adds the remote record ID to the error for context
func (e *ProviderError) WithRemoteID(id string) *ProviderError {
	e.RemoteID = id
	return e
}

// WithBody adds the response body to the error for debugging
func (e *ProviderError) WithBody(body string) *ProviderError {
	e.Body = body
	return e
}

// WithError wraps an underlying error
func (e *ProviderError) WithError(err error) *ProviderError {
	e.Err = err
	return e
}

// IsNotFound reports whether err is, or wraps, a 404 ProviderError
func IsNotFound(err error) bool {
	var pErr *ProviderError
	return errors.As(err, &pErr) && pErr.IsNotFound()
}

// IsTransient reports whether err wraps a ProviderError worth retrying.
// Errors that are not ProviderErrors are assumed to be transport failures.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	var pErr *ProviderError
	if errors.As(err, &pErr) {
		return pErr.IsTransient()
	}
	return true
}

// ErrNotConnected is returned by provider operations called before a
// successful Connect
var ErrNotConnected = errors.New("provider is not connected")
