// Package credentials resolves provider API tokens from an env file, the
// process environment and the OS keyring.
package credentials

import (
	"errors"
	"fmt"
	"strings"

	"github.com/renanlido/agentic-development-kit-sub001/internal/utils"
)

// ErrNotFound is returned when no source holds a token
var ErrNotFound = errors.New("credentials not found")

// Source indicates where a token was found
type Source string

const (
	SourceEnvFile Source = "env-file"
	SourceEnv     Source = "env"
	SourceKeyring Source = "keyring"
)

// Token is a resolved provider token
type Token struct {
	Provider string
	Value    string
	Source   Source
}

// Resolver looks up tokens in priority order:
//  1. EnvFile ({PROVIDER}_API_TOKEN)
//  2. process environment, same key
//  3. OS keyring, when UseKeyring is set
type Resolver struct {
	EnvFile    string
	UseKeyring bool
}

// NewResolver creates a resolver reading envFile first
func NewResolver(envFile string) *Resolver {
	return &Resolver{EnvFile: envFile, UseKeyring: true}
}

// Resolve returns the token for provider
func (r *Resolver) Resolve(provider string) (*Token, error) {
	if provider == "" {
		return nil, fmt.Errorf("provider name is required for credential resolution")
	}

	value, err := TokenFromEnvFile(r.EnvFile, provider)
	if err != nil {
		// fall through to the remaining sources
		utils.Warnf("%v", err)
	}
	if value != "" {
		return &Token{Provider: provider, Value: value, Source: SourceEnvFile}, nil
	}

	if value := TokenFromEnv(provider); value != "" {
		return &Token{Provider: provider, Value: value, Source: SourceEnv}, nil
	}

	if r.UseKeyring && IsAvailable() {
		value, err := GetToken(provider)
		if err == nil && value != "" {
			return &Token{Provider: provider, Value: value, Source: SourceKeyring}, nil
		}
		if err != nil && !errors.Is(err, ErrNotFound) {
			utils.Debugf("Keyring lookup for %s failed: %v", provider, err)
		}
	}

	tried := []string{"environment"}
	if r.EnvFile != "" {
		tried = append([]string{"env file " + r.EnvFile}, tried...)
	}
	if r.UseKeyring {
		tried = append(tried, "keyring")
	}
	return nil, fmt.Errorf("%w: %s for %s (tried: %s)", ErrNotFound, TokenEnvKey(provider), provider, strings.Join(tried, ", "))
}

// Mask shortens a token for display
func Mask(token string) string {
	if len(token) <= 8 {
		return strings.Repeat("*", len(token))
	}
	return token[:4] + strings.Repeat("*", len(token)-8) + token[len(token)-4:]
}
