package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/doeshing/zai-go/internal/domain"
)

func TestLoadCreatesDefaultFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")

	loader := NewFileLoader(path)
	cfg, err := loader.Load(context.Background())
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("default config file not written: %v", err)
	}
	if cfg.Server.Host != domain.DefaultServerHost || cfg.Server.Port != domain.DefaultServerPort {
		t.Fatalf("unexpected server defaults: %+v", cfg.Server)
	}
	if !cfg.Client.AutoStart() {
		t.Fatal("auto-start should default to enabled")
	}
}

func TestLoadHydratesPartialFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	partial := "server:\n  port: 9999\n"
	if err := os.WriteFile(path, []byte(partial), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := NewFileLoader(path).Load(context.Background())
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Server.Port != 9999 {
		t.Fatalf("Port = %d, want explicit 9999", cfg.Server.Port)
	}
	if cfg.Server.Host != domain.DefaultServerHost {
		t.Fatalf("Host = %q, want hydrated default", cfg.Server.Host)
	}
	if cfg.Model.ContextSize != domain.DefaultContextSize {
		t.Fatalf("ContextSize = %d, want hydrated default", cfg.Model.ContextSize)
	}
}

func TestLoadRejectsMalformedYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte(":\n\t- broken"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := NewFileLoader(path).Load(context.Background()); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestEnvOverridesWinOverFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	body := "server:\n  host: 10.1.1.1\n  port: 7000\nclient:\n  auto_start_server: true\n"
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}

	t.Setenv("ZAI_SERVER_HOST", "127.0.0.1")
	t.Setenv("ZAI_SERVER_PORT", "8123")
	t.Setenv("ZAI_AUTO_START_SERVER", "0")
	t.Setenv("ZAI_THREADS", "2")

	cfg, err := NewFileLoader(path).Load(context.Background())
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Server.Host != "127.0.0.1" || cfg.Server.Port != 8123 {
		t.Fatalf("env overrides not applied: %+v", cfg.Server)
	}
	if cfg.Client.AutoStart() {
		t.Fatal("ZAI_AUTO_START_SERVER=0 should disable auto-start")
	}
	if cfg.Model.Threads != 2 {
		t.Fatalf("Threads = %d, want 2", cfg.Model.Threads)
	}
}

func TestResetRestoresDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("server:\n  port: 1\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := NewFileLoader(path).Reset()
	if err != nil {
		t.Fatalf("Reset() error = %v", err)
	}
	if cfg.Server.Port != domain.DefaultServerPort {
		t.Fatalf("Reset port = %d, want default", cfg.Server.Port)
	}
}
