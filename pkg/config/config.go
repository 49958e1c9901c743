package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"clipkeeper/pkg/errors"

	"gopkg.in/yaml.v3"
)

const (
	DefaultHistoryMaxEntries = 50
	DefaultRetryInterval     = 100 * time.Millisecond
	DefaultLogLevel          = "warn"
)

// Config holds the complete configuration
type Config struct {
	Snapshot  SnapshotConfig  `json:"snapshot" yaml:"snapshot"`
	History   HistoryConfig   `json:"history" yaml:"history"`
	Clipboard ClipboardConfig `json:"clipboard" yaml:"clipboard"`
	Log       LogConfig       `json:"log" yaml:"log"`
}

type SnapshotConfig struct {
	// Path of the snapshot file used when no path is given. Empty means
	// the default under the user config directory.
	Path string `json:"path,omitempty" yaml:"path,omitempty"`
}

type HistoryConfig struct {
	Path       string        `json:"path,omitempty" yaml:"path,omitempty"`
	MaxEntries int           `json:"max_entries" yaml:"max_entries"`
	MaxAge     time.Duration `json:"max_age,omitempty" yaml:"max_age,omitempty"`
}

type ClipboardConfig struct {
	// OpenRetries is how many more times the CLI tries to open a busy
	// clipboard before giving up.
	OpenRetries   int           `json:"open_retries" yaml:"open_retries"`
	RetryInterval time.Duration `json:"retry_interval" yaml:"retry_interval"`
}

type LogConfig struct {
	Level string `json:"level" yaml:"level"`
}

// Default returns the configuration used when no file exists.
func Default() *Config {
	return &Config{
		History: HistoryConfig{
			MaxEntries: DefaultHistoryMaxEntries,
		},
		Clipboard: ClipboardConfig{
			RetryInterval: DefaultRetryInterval,
		},
		Log: LogConfig{
			Level: DefaultLogLevel,
		},
	}
}

// Load loads the configuration file, applies environment overrides and
// validates the result. A missing file is not an error.
func Load() (*Config, error) {
	configPath, err := GetConfigPath()
	if err != nil {
		return nil, errors.NewWithError(errors.ExitCodeConfig, "failed to get config path", err)
	}
	return loadFromPath(configPath)
}

// GetConfigPath returns the path to the config file
func GetConfigPath() (string, error) {
	if p := os.Getenv("CLIPKEEPER_CONFIG"); p != "" {
		return p, nil
	}
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, "clipkeeper", "config.yaml"), nil
}

// Save saves the configuration to file
func Save(cfg *Config) error {
	configPath, err := GetConfigPath()
	if err != nil {
		return err
	}
	return saveToPath(configPath, cfg)
}

func saveToPath(configPath string, cfg *Config) error {
	// Ensure directory exists
	configDir := filepath.Dir(configPath)
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return errors.NewWithError(errors.ExitCodeFileOperation, "failed to create config directory", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return errors.NewWithError(errors.ExitCodeConfig, "failed to marshal config", err)
	}

	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return errors.NewWithError(errors.ExitCodeFileOperation, "failed to write config file", err)
	}

	return nil
}

// HistoryPath returns the configured history database path or the default
// under the user cache directory.
func (c *Config) HistoryPath() string {
	if c.History.Path != "" {
		return c.History.Path
	}
	cacheDir, err := os.UserCacheDir()
	if err != nil {
		cacheDir = os.TempDir()
	}
	return filepath.Join(cacheDir, "clipkeeper", "history.db")
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func loadFromPath(configPath string) (*Config, error) {
	cfg := Default()

	if err := loadConfigFile(configPath, cfg); err != nil {
		return nil, err
	}

	applyEnvironmentOverrides(cfg)

	if err := validateConfig(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// loadConfigFile reads and parses the config file from the given path
func loadConfigFile(path string, cfg *Config) error {
	if _, err := os.Stat(path); err != nil {
		// File doesn't exist, that's okay - defaults and env vars apply
		return nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return errors.NewWithError(errors.ExitCodeFileOperation, "failed to read config file", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return errors.NewWithError(errors.ExitCodeConfig, "failed to parse config file", err)
	}

	return nil
}

// applyEnvironmentOverrides applies environment variable overrides to the config
func applyEnvironmentOverrides(cfg *Config) {
	cfg.Snapshot.Path = getEnv("CLIPKEEPER_SNAPSHOT_PATH", cfg.Snapshot.Path)
	cfg.History.Path = getEnv("CLIPKEEPER_HISTORY_DB", cfg.History.Path)
	cfg.History.MaxEntries = getEnvInt("CLIPKEEPER_HISTORY_MAX_ENTRIES", cfg.History.MaxEntries)
	cfg.History.MaxAge = getEnvDuration("CLIPKEEPER_HISTORY_MAX_AGE", cfg.History.MaxAge)
	cfg.Clipboard.OpenRetries = getEnvInt("CLIPKEEPER_OPEN_RETRIES", cfg.Clipboard.OpenRetries)
	cfg.Clipboard.RetryInterval = getEnvDuration("CLIPKEEPER_RETRY_INTERVAL", cfg.Clipboard.RetryInterval)
	cfg.Log.Level = getEnv("CLIPKEEPER_LOG_LEVEL", cfg.Log.Level)
}

// validateConfig rejects values the commands cannot work with
func validateConfig(cfg *Config) error {
	if cfg.History.MaxEntries < 0 {
		return errors.ConfigError(fmt.Sprintf("history.max_entries must not be negative, got %d", cfg.History.MaxEntries))
	}
	if cfg.History.MaxAge < 0 {
		return errors.ConfigError(fmt.Sprintf("history.max_age must not be negative, got %s", cfg.History.MaxAge))
	}
	if cfg.Clipboard.OpenRetries < 0 {
		return errors.ConfigError(fmt.Sprintf("clipboard.open_retries must not be negative, got %d", cfg.Clipboard.OpenRetries))
	}
	if cfg.Clipboard.RetryInterval <= 0 {
		return errors.ConfigError(fmt.Sprintf("clipboard.retry_interval must be positive, got %s", cfg.Clipboard.RetryInterval))
	}
	return nil
}
