package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"clipkeeper/pkg/errors"

	"gopkg.in/yaml.v3"
)

var envKeys = []string{
	"CLIPKEEPER_CONFIG",
	"CLIPKEEPER_SNAPSHOT_PATH",
	"CLIPKEEPER_HISTORY_DB",
	"CLIPKEEPER_HISTORY_MAX_ENTRIES",
	"CLIPKEEPER_HISTORY_MAX_AGE",
	"CLIPKEEPER_OPEN_RETRIES",
	"CLIPKEEPER_RETRY_INTERVAL",
	"CLIPKEEPER_LOG_LEVEL",
}

// clearEnv blanks every CLIPKEEPER_* variable for the duration of the test.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range envKeys {
		t.Setenv(k, "")
	}
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	configPath := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write test config file: %v", err)
	}
	return configPath
}

func TestLoad_Success(t *testing.T) {
	clearEnv(t)
	configPath := writeConfig(t, `snapshot:
  path: /tmp/snap.json
history:
  path: /tmp/history.db
  max_entries: 10
  max_age: 72h
clipboard:
  open_retries: 3
  retry_interval: 250ms
log:
  level: debug
`)

	cfg, err := loadFromPath(configPath)
	if err != nil {
		t.Fatalf("loadFromPath() returned error: %v", err)
	}

	if cfg.Snapshot.Path != "/tmp/snap.json" {
		t.Errorf("Expected snapshot path '/tmp/snap.json', got '%s'", cfg.Snapshot.Path)
	}
	if cfg.History.Path != "/tmp/history.db" {
		t.Errorf("Expected history path '/tmp/history.db', got '%s'", cfg.History.Path)
	}
	if cfg.History.MaxEntries != 10 {
		t.Errorf("Expected max_entries 10, got %d", cfg.History.MaxEntries)
	}
	if cfg.History.MaxAge != 72*time.Hour {
		t.Errorf("Expected max_age 72h, got %s", cfg.History.MaxAge)
	}
	if cfg.Clipboard.OpenRetries != 3 {
		t.Errorf("Expected open_retries 3, got %d", cfg.Clipboard.OpenRetries)
	}
	if cfg.Clipboard.RetryInterval != 250*time.Millisecond {
		t.Errorf("Expected retry_interval 250ms, got %s", cfg.Clipboard.RetryInterval)
	}
	if cfg.Log.Level != "debug" {
		t.Errorf("Expected log level 'debug', got '%s'", cfg.Log.Level)
	}
}

func TestLoad_MinimalConfig(t *testing.T) {
	clearEnv(t)
	configPath := writeConfig(t, "log:\n  level: info\n")

	cfg, err := loadFromPath(configPath)
	if err != nil {
		t.Fatalf("loadFromPath() returned error: %v", err)
	}

	if cfg.Log.Level != "info" {
		t.Errorf("Expected log level 'info', got '%s'", cfg.Log.Level)
	}
	if cfg.History.MaxEntries != DefaultHistoryMaxEntries {
		t.Errorf("Expected default max_entries %d, got %d", DefaultHistoryMaxEntries, cfg.History.MaxEntries)
	}
	if cfg.Clipboard.RetryInterval != DefaultRetryInterval {
		t.Errorf("Expected default retry_interval %s, got %s", DefaultRetryInterval, cfg.Clipboard.RetryInterval)
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	clearEnv(t)
	configPath := writeConfig(t, "history: [unclosed\n")

	_, err := loadFromPath(configPath)
	if err == nil {
		t.Fatal("Expected error for invalid YAML, got nil")
	}
	if errors.CodeOf(err) != errors.ExitCodeConfig {
		t.Errorf("Expected config exit code, got %v", errors.CodeOf(err))
	}
}

func TestLoad_FileNotFound(t *testing.T) {
	clearEnv(t)

	cfg, err := loadFromPath(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("Expected defaults for a missing file, got error: %v", err)
	}

	def := Default()
	if *cfg != *def {
		t.Errorf("Expected default config %+v, got %+v", def, cfg)
	}
}

func TestLoad_WithEnvOverrides(t *testing.T) {
	clearEnv(t)
	configPath := writeConfig(t, `history:
  max_entries: 10
log:
  level: info
`)

	t.Setenv("CLIPKEEPER_SNAPSHOT_PATH", "/env/snap.json")
	t.Setenv("CLIPKEEPER_HISTORY_DB", "/env/history.db")
	t.Setenv("CLIPKEEPER_HISTORY_MAX_ENTRIES", "5")
	t.Setenv("CLIPKEEPER_HISTORY_MAX_AGE", "1h")
	t.Setenv("CLIPKEEPER_OPEN_RETRIES", "7")
	t.Setenv("CLIPKEEPER_RETRY_INTERVAL", "2s")
	t.Setenv("CLIPKEEPER_LOG_LEVEL", "error")

	cfg, err := loadFromPath(configPath)
	if err != nil {
		t.Fatalf("loadFromPath() returned error: %v", err)
	}

	if cfg.Snapshot.Path != "/env/snap.json" {
		t.Errorf("Expected env snapshot path, got '%s'", cfg.Snapshot.Path)
	}
	if cfg.History.Path != "/env/history.db" {
		t.Errorf("Expected env history path, got '%s'", cfg.History.Path)
	}
	if cfg.History.MaxEntries != 5 {
		t.Errorf("Expected max_entries 5 from env, got %d", cfg.History.MaxEntries)
	}
	if cfg.History.MaxAge != time.Hour {
		t.Errorf("Expected max_age 1h from env, got %s", cfg.History.MaxAge)
	}
	if cfg.Clipboard.OpenRetries != 7 {
		t.Errorf("Expected open_retries 7 from env, got %d", cfg.Clipboard.OpenRetries)
	}
	if cfg.Clipboard.RetryInterval != 2*time.Second {
		t.Errorf("Expected retry_interval 2s from env, got %s", cfg.Clipboard.RetryInterval)
	}
	if cfg.Log.Level != "error" {
		t.Errorf("Expected log level 'error' from env, got '%s'", cfg.Log.Level)
	}
}

func TestLoad_MalformedEnvIgnored(t *testing.T) {
	clearEnv(t)
	t.Setenv("CLIPKEEPER_OPEN_RETRIES", "many")
	t.Setenv("CLIPKEEPER_RETRY_INTERVAL", "soon")

	cfg, err := loadFromPath(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("loadFromPath() returned error: %v", err)
	}
	if cfg.Clipboard.OpenRetries != 0 {
		t.Errorf("Expected open_retries to stay 0, got %d", cfg.Clipboard.OpenRetries)
	}
	if cfg.Clipboard.RetryInterval != DefaultRetryInterval {
		t.Errorf("Expected retry_interval to stay default, got %s", cfg.Clipboard.RetryInterval)
	}
}

func TestLoad_Validation(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantMsg string
	}{
		{"negative max entries", "history:\n  max_entries: -1\n", "max_entries"},
		{"negative max age", "history:\n  max_age: -1h\n", "max_age"},
		{"negative retries", "clipboard:\n  open_retries: -2\n", "open_retries"},
		{"zero interval", "clipboard:\n  retry_interval: 0s\n", "retry_interval"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			configPath := writeConfig(t, tt.content)

			_, err := loadFromPath(configPath)
			if err == nil {
				t.Fatal("Expected validation error, got nil")
			}
			if errors.CodeOf(err) != errors.ExitCodeConfig {
				t.Errorf("Expected config exit code, got %v", errors.CodeOf(err))
			}
			if !strings.Contains(err.Error(), tt.wantMsg) {
				t.Errorf("Expected error to mention %q, got %q", tt.wantMsg, err.Error())
			}
		})
	}
}

func TestGetConfigPath(t *testing.T) {
	clearEnv(t)
	tmpDir := t.TempDir()
	t.Setenv("HOME", tmpDir)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(tmpDir, "xdg"))
	t.Setenv("APPDATA", filepath.Join(tmpDir, "xdg"))

	path, err := GetConfigPath()
	if err != nil {
		t.Fatalf("GetConfigPath() failed: %v", err)
	}
	if filepath.Base(path) != "config.yaml" {
		t.Errorf("Expected config.yaml, got %s", path)
	}
	if filepath.Base(filepath.Dir(path)) != "clipkeeper" {
		t.Errorf("Expected config under a clipkeeper directory, got %s", path)
	}
}

func TestGetConfigPath_EnvOverride(t *testing.T) {
	clearEnv(t)
	t.Setenv("CLIPKEEPER_CONFIG", "/custom/clipkeeper.yaml")

	path, err := GetConfigPath()
	if err != nil {
		t.Fatalf("GetConfigPath() failed: %v", err)
	}
	if path != "/custom/clipkeeper.yaml" {
		t.Errorf("Expected override path, got %s", path)
	}
}

func TestGetEnv(t *testing.T) {
	t.Setenv("CLIPKEEPER_TEST_VAR", "value")
	if got := getEnv("CLIPKEEPER_TEST_VAR", "default"); got != "value" {
		t.Errorf("Expected 'value', got '%s'", got)
	}
	if got := getEnv("CLIPKEEPER_TEST_UNSET", "default"); got != "default" {
		t.Errorf("Expected 'default', got '%s'", got)
	}
}

func TestConfig_SaveAndLoad(t *testing.T) {
	clearEnv(t)
	configPath := filepath.Join(t.TempDir(), "nested", "config.yaml")

	cfg := Default()
	cfg.History.MaxEntries = 20
	cfg.History.MaxAge = 24 * time.Hour
	cfg.Clipboard.OpenRetries = 4

	if err := saveToPath(configPath, cfg); err != nil {
		t.Fatalf("saveToPath() failed: %v", err)
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		t.Fatalf("Failed to read saved config: %v", err)
	}
	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		t.Fatalf("Saved config is not valid YAML: %v", err)
	}
	if _, ok := raw["history"]; !ok {
		t.Errorf("Saved config missing history section: %s", data)
	}

	loaded, err := loadFromPath(configPath)
	if err != nil {
		t.Fatalf("loadFromPath() failed: %v", err)
	}
	if *loaded != *cfg {
		t.Errorf("Round trip mismatch: saved %+v, loaded %+v", cfg, loaded)
	}
}

func TestConfig_HistoryPath(t *testing.T) {
	cfg := Default()
	cfg.History.Path = "/data/history.db"
	if got := cfg.HistoryPath(); got != "/data/history.db" {
		t.Errorf("Expected configured path, got %s", got)
	}

	cfg.History.Path = ""
	got := cfg.HistoryPath()
	if filepath.Base(got) != "history.db" {
		t.Errorf("Expected default history.db, got %s", got)
	}
}
