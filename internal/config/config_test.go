package config

import (
	"os"
	"path/filepath"
	"testing"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{ConfigFileEnv, "PORT", "LISTEN_ADDR", "DATABASE_PATH", "SESSION_SECRET", "GIN_MODE", "LOG_LEVEL", "LOG_PRETTY"} {
		t.Setenv(key, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Port != "8080" || cfg.ListenAddr != ":8080" {
		t.Fatalf("unexpected listen defaults: %+v", cfg)
	}
	if cfg.DatabasePath != "database/veg_crib.db" {
		t.Fatalf("expected default database path, got %s", cfg.DatabasePath)
	}
	if cfg.GinMode != "release" || cfg.LogLevel != "info" || cfg.LogPretty {
		t.Fatalf("unexpected mode defaults: %+v", cfg)
	}
}

func TestLoadFileThenEnvOverrides(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), "vegcrib.yaml")
	content := []byte("port: \"9090\"\ndatabase_path: /data/crib.db\nlog_level: debug\nlog_pretty: true\n")
	if err := os.WriteFile(path, content, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv(ConfigFileEnv, path)
	t.Setenv("LOG_LEVEL", "warn")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Port != "9090" || cfg.ListenAddr != ":9090" {
		t.Fatalf("expected port from file, got %+v", cfg)
	}
	if cfg.DatabasePath != "/data/crib.db" {
		t.Fatalf("expected database path from file, got %s", cfg.DatabasePath)
	}
	if cfg.LogLevel != "warn" {
		t.Fatalf("expected env to override log level, got %s", cfg.LogLevel)
	}
	if !cfg.LogPretty {
		t.Fatalf("expected log_pretty from file")
	}
}

func TestLoadRejectsBadInput(t *testing.T) {
	tests := []struct {
		name  string
		setup func(t *testing.T)
	}{
		{name: "missing file", setup: func(t *testing.T) {
			t.Setenv(ConfigFileEnv, filepath.Join(t.TempDir(), "missing.yaml"))
		}},
		{name: "malformed yaml", setup: func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "bad.yaml")
			if err := os.WriteFile(path, []byte("port: [1, 2"), 0o644); err != nil {
				t.Fatalf("write config: %v", err)
			}
			t.Setenv(ConfigFileEnv, path)
		}},
		{name: "bad LOG_PRETTY", setup: func(t *testing.T) {
			t.Setenv("LOG_PRETTY", "sometimes")
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			tt.setup(t)
			if _, err := Load(); err == nil {
				t.Fatalf("expected error")
			}
		})
	}
}
