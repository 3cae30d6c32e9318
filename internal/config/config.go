package config

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/renanlido/agentic-development-kit-sub001/internal/utils"
)

//go:embed config.sample.yaml
var sampleConfig []byte

const (
	CONFIG_DIR_PATH  = "adk"
	CONFIG_FILE_PATH = "config.yaml"
	CONFIG_DIR_PERM  = 0755
	CONFIG_FILE_PERM = 0644

	QueueStorageJSON   = "json"
	QueueStorageSQLite = "sqlite"
)

var (
	configOnce       sync.Once
	globalConfig     *Config
	globalConfigErr  error
	customConfigPath string // set via --config
)

// Config is the adk configuration file
type Config struct {
	FeaturesDir string            `yaml:"features_dir" validate:"required"`
	Integration IntegrationConfig `yaml:"integration"`
	Queue       QueueConfig       `yaml:"queue"`
	Providers   ProvidersConfig   `yaml:"providers"`

	// path the config was read from; empty when defaults are in use
	path string
}

// IntegrationConfig selects and configures the remote provider
type IntegrationConfig struct {
	Enabled          bool   `yaml:"enabled"`
	Provider         string `yaml:"provider"`
	ConflictStrategy string `yaml:"conflict_strategy" validate:"omitempty,oneof=local-wins remote-wins newest-wins manual"`
	EnvFile          string `yaml:"env_file"`
	WorkspaceID      string `yaml:"workspace_id"`
	SpaceID          string `yaml:"space_id"`
	ListID           string `yaml:"list_id"`
	BaseURL          string `yaml:"base_url" validate:"omitempty,url"`
}

// QueueConfig selects where the offline queue is persisted
type QueueConfig struct {
	Storage string `yaml:"storage" validate:"omitempty,oneof=json sqlite"`
	Path    string `yaml:"path"`
}

// ProvidersConfig holds provider-specific settings
type ProvidersConfig struct {
	File FileProviderConfig `yaml:"file"`
}

// FileProviderConfig configures the file provider
type FileProviderConfig struct {
	Path string `yaml:"path"`
}

// Default returns the configuration used when no file exists
func Default() *Config {
	return &Config{
		FeaturesDir: filepath.Join(".adk", "features"),
		Integration: IntegrationConfig{
			ConflictStrategy: "local-wins",
			EnvFile:          ".env",
		},
		Queue: QueueConfig{Storage: QueueStorageJSON},
	}
}

// SampleConfig returns the embedded sample configuration
func SampleConfig() []byte {
	return sampleConfig
}

// Path returns the file the configuration was loaded from, or "" for defaults
func (c *Config) Path() string {
	return c.path
}

// Validate checks struct tags and cross-field rules
func (c *Config) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return utils.ErrInvalidConfig(yamlFieldPath(fe.Namespace()), describeTag(fe))
		}
		return err
	}

	if c.Integration.Enabled && strings.EqualFold(c.Integration.Provider, "file") && c.Providers.File.Path == "" {
		return utils.ErrInvalidConfig("providers.file.path", "required when the file provider is used")
	}
	return nil
}

func describeTag(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "oneof":
		return fmt.Sprintf("must be one of: %s", strings.ReplaceAll(fe.Param(), " ", ", "))
	case "url":
		return "must be a valid URL"
	default:
		return fmt.Sprintf("failed %q validation", fe.Tag())
	}
}

// yamlFieldPath maps "Config.Integration.ConflictStrategy" to
// "integration.conflict_strategy"
func yamlFieldPath(namespace string) string {
	parts := strings.Split(namespace, ".")
	if len(parts) > 1 {
		parts = parts[1:]
	}
	for i, p := range parts {
		parts[i] = toSnake(p)
	}
	return strings.Join(parts, ".")
}

func toSnake(s string) string {
	var b strings.Builder
	for i, r := range s {
		if r >= 'A' && r <= 'Z' {
			// keep acronyms like "URL" and "ID" together
			if i > 0 && !(s[i-1] >= 'A' && s[i-1] <= 'Z') {
				b.WriteByte('_')
			}
			b.WriteRune(r + ('a' - 'A'))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// FeaturesPath returns the expanded features directory
func (c *Config) FeaturesPath() (string, error) {
	return utils.ExpandPath(c.FeaturesDir)
}

// EnvFilePath returns the expanded env file path, or "" when unset
func (c *Config) EnvFilePath() (string, error) {
	return utils.ExpandPath(c.Integration.EnvFile)
}

// QueueStorage returns the configured queue backend, defaulting to json
func (c *Config) QueueStorage() string {
	if c.Queue.Storage == "" {
		return QueueStorageJSON
	}
	return c.Queue.Storage
}

// QueuePath returns where the offline queue lives. The default is
// <user config dir>/adk/sync-queue.json (sync-queue.db for sqlite).
func (c *Config) QueuePath() (string, error) {
	if c.Queue.Path != "" {
		return utils.ExpandPath(c.Queue.Path)
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user config dir: %w", err)
	}
	name := "sync-queue.json"
	if c.QueueStorage() == QueueStorageSQLite {
		name = "sync-queue.db"
	}
	return filepath.Join(dir, CONFIG_DIR_PATH, name), nil
}

// SetCustomConfigPath sets a custom config path to use instead of the
// default user config directory. A directory means <dir>/config.yaml.
// Must be called before GetConfig.
func SetCustomConfigPath(path string) {
	if path == "" {
		customConfigPath = ""
		return
	}
	if info, err := os.Stat(path); err == nil && info.IsDir() {
		customConfigPath = filepath.Join(path, CONFIG_FILE_PATH)
		return
	}
	customConfigPath = path
}

// GetConfigPath returns the config file location
func GetConfigPath() (string, error) {
	if customConfigPath != "" {
		return customConfigPath, nil
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user config dir: %w", err)
	}
	return filepath.Join(dir, CONFIG_DIR_PATH, CONFIG_FILE_PATH), nil
}

// GetConfig loads the configuration once per process. An explicit --config
// path must exist; the default location falls back to defaults.
func GetConfig() (*Config, error) {
	configOnce.Do(func() {
		path, err := GetConfigPath()
		if err != nil {
			globalConfigErr = err
			return
		}
		if customConfigPath != "" {
			if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
				globalConfigErr = utils.ErrConfigFileNotFound(path)
				return
			}
		}
		globalConfig, globalConfigErr = Load(path)
	})
	return globalConfig, globalConfigErr
}

// Load reads and validates the config at path. A missing file yields the
// defaults, which keep integration disabled.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			utils.Debugf("No config at %s, using defaults", path)
			return Default(), nil
		}
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}
	return Parse(data, path)
}

// Parse decodes YAML config data over the defaults
func Parse(data []byte, path string) (*Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, utils.WrapWithSuggestion(
			fmt.Errorf("invalid YAML in config file %s: %w", path, err),
			"Fix the syntax or regenerate the file with 'adk config init --force'",
		)
	}
	cfg.path = path
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// WriteSample writes the embedded sample to path. An existing file is only
// replaced when force is set.
func WriteSample(path string, force bool) error {
	if _, err := os.Stat(path); err == nil && !force {
		return fmt.Errorf("config already exists at %s (use --force to overwrite)", path)
	}
	if err := os.MkdirAll(filepath.Dir(path), CONFIG_DIR_PERM); err != nil {
		return fmt.Errorf("failed to create config dir: %w", err)
	}
	return utils.WriteFileAtomic(path, sampleConfig, CONFIG_FILE_PERM)
}
