package shared_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"reviewlens/internal/shared"
)

func TestLoad_Defaults(t *testing.T) {
	chdir(t, t.TempDir()) // no stray .env
	cfg := shared.Load()

	if cfg.StoreBackend != "file" || cfg.HTTPAddr != ":8080" {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if cfg.UpstreamTimeout != 180*time.Second || cfg.UpstreamLimit != 50 {
		t.Fatalf("unexpected upstream defaults: %v / %d", cfg.UpstreamTimeout, cfg.UpstreamLimit)
	}
}

func TestLoad_FileThenEnvOverrides(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)
	path := filepath.Join(dir, "config.yaml")
	yml := []byte("store_backend: mongo\nmongo_db: fromfile\nupstream_timeout_seconds: 30\nredis_addr: cache:6379\n")
	if err := os.WriteFile(path, yml, 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	t.Setenv("CONFIG_FILE", path)
	t.Setenv("MONGO_DB", "fromenv")

	cfg := shared.Load()
	if cfg.StoreBackend != "mongo" {
		t.Fatalf("backend = %s, want mongo", cfg.StoreBackend)
	}
	if cfg.MongoDB != "fromenv" {
		t.Fatalf("env should override file, got %s", cfg.MongoDB)
	}
	if cfg.UpstreamTimeout != 30*time.Second || cfg.RedisAddr != "cache:6379" {
		t.Fatalf("file values not applied: %+v", cfg)
	}
}

func TestLoad_UnknownBackendFallsBackToFile(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("STORE_BACKEND", "firestore")
	if cfg := shared.Load(); cfg.StoreBackend != "file" {
		t.Fatalf("backend = %s, want file", cfg.StoreBackend)
	}
}

// chdir mirrors testing.T.Chdir (Go 1.24+) for older toolchains.
func chdir(t *testing.T, dir string) {
	t.Helper()
	old, err := os.Getwd()
	if err != nil {
		t.Fatalf("getwd: %v", err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("chdir: %v", err)
	}
	t.Cleanup(func() { _ = os.Chdir(old) })
}
