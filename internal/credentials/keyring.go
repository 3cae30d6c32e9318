package credentials

import (
	"errors"
	"fmt"
	"strings"

	"github.com/zalando/go-keyring"
)

const (
	// KeyringServicePrefix is the prefix for all adk keyring entries
	KeyringServicePrefix = "adk"

	// KeyringUser is the account name tokens are stored under
	KeyringUser = "token"
)

// getServiceName returns the keyring service name for a provider
func getServiceName(provider string) string {
	return fmt.Sprintf("%s-%s", KeyringServicePrefix, strings.ToLower(strings.TrimSpace(provider)))
}

// SetToken stores a provider token in the OS keyring
func SetToken(provider, token string) error {
	if provider == "" {
		return fmt.Errorf("provider name cannot be empty")
	}
	if token == "" {
		return fmt.Errorf("token cannot be empty")
	}

	if err := keyring.Set(getServiceName(provider), KeyringUser, token); err != nil {
		return fmt.Errorf("failed to store token in keyring: %w", err)
	}
	return nil
}

// GetToken retrieves a provider token from the OS keyring. A missing entry
// yields an error wrapping ErrNotFound.
func GetToken(provider string) (string, error) {
	if provider == "" {
		return "", fmt.Errorf("provider name cannot be empty")
	}

	token, err := keyring.Get(getServiceName(provider), KeyringUser)
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return "", fmt.Errorf("%w: no keyring entry for %q", ErrNotFound, provider)
		}
		return "", fmt.Errorf("failed to retrieve token from keyring: %w", err)
	}
	return token, nil
}

// DeleteToken removes a provider token from the OS keyring
func DeleteToken(provider string) error {
	if provider == "" {
		return fmt.Errorf("provider name cannot be empty")
	}

	if err := keyring.Delete(getServiceName(provider), KeyringUser); err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return fmt.Errorf("%w: no keyring entry for %q", ErrNotFound, provider)
		}
		return fmt.Errorf("failed to delete token from keyring: %w", err)
	}
	return nil
}

// IsAvailable checks if the keyring is accessible
func IsAvailable() bool {
	// A working keyring answers ErrNotFound for an entry that was never stored
	_, err := keyring.Get("adk-keyring-test", "test")
	return err == nil || errors.Is(err, keyring.ErrNotFound)
}
