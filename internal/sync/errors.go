package sync

import (
	"errors"
	"fmt"

	"github.com/renanlido/agentic-development-kit-sub001/backend"
	"github.com/renanlido/agentic-development-kit-sub001/internal/utils"
)

// Connection failures, checked with errors.Is
var (
	ErrIntegrationDisabled   = errors.New("integration disabled")
	ErrProviderNotConfigured = errors.New("provider not configured")
	ErrUnknownProvider       = errors.New("unknown provider")
	ErrTokenMissing          = errors.New("token missing")
	ErrConnectionFailed      = errors.New("connection failed")
)

// ConnectError pairs a connection failure kind with the user-facing error
// (which carries a suggestion)
type ConnectError struct {
	Kind error
	Err  error
}

func (e *ConnectError) Error() string {
	return e.Err.Error()
}

// Unwrap exposes both the kind and the detailed error to errors.Is/As
func (e *ConnectError) Unwrap() []error {
	return []error{e.Kind, e.Err}
}

func connectError(kind, err error) error {
	return &ConnectError{Kind: kind, Err: err}
}

// IsConfigurationAbsent reports whether err means sync is simply not set
// up. The CLI reports such errors without failing.
func IsConfigurationAbsent(err error) bool {
	return errors.Is(err, ErrIntegrationDisabled) ||
		errors.Is(err, ErrProviderNotConfigured) ||
		errors.Is(err, ErrUnknownProvider) ||
		errors.Is(err, ErrTokenMissing)
}

func connectionFailed(provider string, reason error) error {
	var perr *backend.ProviderError
	if errors.As(reason, &perr) && perr.IsUnauthorized() {
		return connectError(ErrConnectionFailed, utils.WrapWithSuggestion(
			fmt.Errorf("%s rejected the API token: %w", provider, reason),
			fmt.Sprintf("Check the token with 'adk credentials get %s' and update if needed", provider),
		))
	}
	return connectError(ErrConnectionFailed, utils.ErrConnectionFailed(provider, reason.Error()))
}

func connectionRejected(provider, message string) error {
	return connectError(ErrConnectionFailed, utils.ErrConnectionFailed(provider, fmt.Sprintf("handshake rejected: %s", message)))
}
