package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	apperrors "github.com/vistoria/fieldsync/internal/errors"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Sync.Interval != 30*time.Second {
		t.Errorf("sync interval = %v, want 30s", cfg.Sync.Interval)
	}
	if cfg.Sync.MaxAttempts != 5 {
		t.Errorf("max attempts = %d, want 5", cfg.Sync.MaxAttempts)
	}
	if cfg.Cache.Retention != 7*24*time.Hour {
		t.Errorf("cache retention = %v, want 168h", cfg.Cache.Retention)
	}
	if cfg.Log.Level != "info" {
		t.Errorf("log level = %q, want info", cfg.Log.Level)
	}
}

func TestEnvironmentOverridesDefaults(t *testing.T) {
	t.Setenv("FIELDSYNC_DATA_DIR", "/var/lib/fieldsync")
	t.Setenv("FIELDSYNC_SYNC_INTERVAL", "2m")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.DataDir != "/var/lib/fieldsync" {
		t.Errorf("data dir = %q", cfg.DataDir)
	}
	if cfg.Sync.Interval != 2*time.Minute {
		t.Errorf("sync interval = %v, want 2m", cfg.Sync.Interval)
	}
}

func TestLoadExplicitFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "fieldsync.yaml")
	content := []byte(`
data_dir: /tmp/fieldsync-test
remote:
  url: https://backend.example.com
  api_key: test-key
sync:
  interval: 45s
  max_attempts: 3
`)
	if err := os.WriteFile(path, content, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Remote.URL != "https://backend.example.com" {
		t.Errorf("remote url = %q", cfg.Remote.URL)
	}
	if cfg.Sync.Interval != 45*time.Second || cfg.Sync.MaxAttempts != 3 {
		t.Errorf("sync settings not read: %+v", cfg.Sync)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("complete config should validate: %v", err)
	}
}

func TestLoadMissingExplicitFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Fatal("expected error for a named file that does not exist")
	}
}

func TestValidate(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if err := cfg.Validate(); !apperrors.Is(err, apperrors.ErrValidation) {
		t.Fatalf("expected validation error without remote url, got %v", err)
	}

	cfg.Remote.URL = "https://backend.example.com"
	if err := cfg.Validate(); err != nil {
		t.Errorf("expected valid config, got %v", err)
	}
}
