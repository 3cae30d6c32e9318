package credentials

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"

	"github.com/renanlido/agentic-development-kit-sub001/internal/utils"
)

// normalizeProviderName converts a provider name to the format used in
// environment variables. Example: "todoist-work" becomes "TODOIST_WORK"
func normalizeProviderName(provider string) string {
	normalized := strings.ToUpper(strings.TrimSpace(provider))
	normalized = strings.ReplaceAll(normalized, "-", "_")
	return normalized
}

// TokenEnvKey returns the variable holding a provider's API token:
// {PROVIDER}_API_TOKEN
func TokenEnvKey(provider string) string {
	return normalizeProviderName(provider) + "_API_TOKEN"
}

// TokenFromEnvFile reads the provider token from a dotenv file. A missing
// file is not an error; it just holds no token.
func TokenFromEnvFile(path, provider string) (string, error) {
	if path == "" || provider == "" {
		return "", nil
	}
	expanded, err := utils.ExpandPath(path)
	if err != nil {
		return "", err
	}

	values, err := godotenv.Read(expanded)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", nil
		}
		return "", fmt.Errorf("failed to read env file %s: %w", expanded, err)
	}
	return strings.TrimSpace(values[TokenEnvKey(provider)]), nil
}

// TokenFromEnv reads the provider token from the process environment
func TokenFromEnv(provider string) string {
	if provider == "" {
		return ""
	}
	return strings.TrimSpace(os.Getenv(TokenEnvKey(provider)))
}
