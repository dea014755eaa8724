package model

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoadConfig_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.API.BaseURL != "http://localhost:8080/" {
		t.Errorf("unexpected base url %q", cfg.API.BaseURL)
	}
	if cfg.API.UpdateMethod != "POST" {
		t.Errorf("expected POST update method, got %q", cfg.API.UpdateMethod)
	}
	if cfg.Session.Backend != SessionBackendKeyring {
		t.Errorf("expected keyring backend, got %q", cfg.Session.Backend)
	}
	if cfg.Session.Key != "token" {
		t.Errorf("expected session key token, got %q", cfg.Session.Key)
	}
	if !cfg.Todos.ConfirmDelete || !cfg.Todos.RollbackFailedToggle {
		t.Errorf("expected delete confirmation and rollback enabled, got %+v", cfg.Todos)
	}
}

func TestLoadConfig_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
api:
  base_url: https://todo.example.com/api/
  update_method: put
session:
  backend: SQLite
todos:
  confirm_delete: false
  refresh_interval_sec: 30
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("writing config: %v", err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.API.BaseURL != "https://todo.example.com/api/" {
		t.Errorf("unexpected base url %q", cfg.API.BaseURL)
	}
	if cfg.API.UpdateMethod != "PUT" {
		t.Errorf("expected PUT, got %q", cfg.API.UpdateMethod)
	}
	if cfg.Session.Backend != SessionBackendSQLite {
		t.Errorf("expected sqlite backend, got %q", cfg.Session.Backend)
	}
	if cfg.Todos.ConfirmDelete {
		t.Error("expected confirm_delete false")
	}
	if !cfg.Todos.RollbackFailedToggle {
		t.Error("expected rollback default to survive partial file")
	}
	if cfg.Todos.RefreshIntervalSec != 30 {
		t.Errorf("expected refresh interval 30, got %d", cfg.Todos.RefreshIntervalSec)
	}
}

func TestLoadConfig_EnvOverride(t *testing.T) {
	t.Setenv("TODO_API_BASE_URL", "https://env.example.com/")

	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "config.yaml"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.API.BaseURL != "https://env.example.com/" {
		t.Errorf("expected env override, got %q", cfg.API.BaseURL)
	}
}

func TestLoadConfig_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{
			name:    "bad update method",
			content: "api:\n  update_method: PATCH\n",
			wantErr: "api.update_method",
		},
		{
			name:    "bad backend",
			content: "session:\n  backend: file\n",
			wantErr: "session.backend",
		},
		{
			name:    "negative timeout",
			content: "api:\n  timeout_sec: -1\n",
			wantErr: "api.timeout_sec",
		},
		{
			name:    "malformed yaml",
			content: "api: [\n",
			wantErr: "reading config",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.yaml")
			if err := os.WriteFile(path, []byte(tt.content), 0o600); err != nil {
				t.Fatalf("writing config: %v", err)
			}

			_, err := LoadConfig(path)
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("expected error containing %q, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestSaveConfig_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("loading defaults: %v", err)
	}
	cfg.API.BaseURL = "https://saved.example.com/"
	cfg.Todos.RefreshIntervalSec = 15

	if err := SaveConfig(path, cfg); err != nil {
		t.Fatalf("saving config: %v", err)
	}

	loaded, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("reloading config: %v", err)
	}
	if loaded.API.BaseURL != "https://saved.example.com/" {
		t.Errorf("unexpected base url %q", loaded.API.BaseURL)
	}
	if loaded.Todos.RefreshIntervalSec != 15 {
		t.Errorf("unexpected refresh interval %d", loaded.Todos.RefreshIntervalSec)
	}
}
