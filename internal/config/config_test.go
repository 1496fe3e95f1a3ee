package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/vango-dev/vstate/internal/errors"
)

func TestNew(t *testing.T) {
	cfg := New()

	if cfg.Storage.Backend != DefaultBackend {
		t.Errorf("Storage.Backend = %q, want %q", cfg.Storage.Backend, DefaultBackend)
	}
	if cfg.Storage.Dir != DefaultDir {
		t.Errorf("Storage.Dir = %q, want %q", cfg.Storage.Dir, DefaultDir)
	}
	if cfg.HTTP.Addr != DefaultAddr {
		t.Errorf("HTTP.Addr = %q, want %q", cfg.HTTP.Addr, DefaultAddr)
	}
	if cfg.Codec().Name() != "json" {
		t.Errorf("Codec = %q, want json", cfg.Codec().Name())
	}
	if cfg.Timeout() != 10*time.Second {
		t.Errorf("Timeout = %v, want 10s", cfg.Timeout())
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults should validate: %v", err)
	}
}

func TestLoad(t *testing.T) {
	tmpDir := t.TempDir()

	// Test loading non-existent config
	_, err := Load(tmpDir)
	if !errors.HasCode(err, "E100") {
		t.Errorf("Load of missing file = %v, want E100", err)
	}

	configJSON := `{
  "storage": {
    "backend": "sqlite",
    "path": "state.db",
    "codec": "yaml"
  },
  "log": {
    "level": "debug"
  }
}
`
	if err := os.WriteFile(filepath.Join(tmpDir, ConfigFileName), []byte(configJSON), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(tmpDir)
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}

	if cfg.Storage.Backend != "sqlite" {
		t.Errorf("Storage.Backend = %q, want sqlite", cfg.Storage.Backend)
	}
	if cfg.Codec().Name() != "yaml" {
		t.Errorf("Codec = %q, want yaml", cfg.Codec().Name())
	}
	if cfg.HTTP.Addr != DefaultAddr {
		t.Errorf("HTTP.Addr = %q, want default", cfg.HTTP.Addr)
	}
	if lvl, err := cfg.SlogLevel(); err != nil || lvl != slog.LevelDebug {
		t.Errorf("SlogLevel = %v, %v", lvl, err)
	}
	if cfg.Dir() != tmpDir {
		t.Errorf("Dir = %q, want %q", cfg.Dir(), tmpDir)
	}
	if got := cfg.ResolvePath(cfg.Storage.Path); got != filepath.Join(tmpDir, "state.db") {
		t.Errorf("ResolvePath = %q", got)
	}
	if !Exists(tmpDir) {
		t.Error("Exists = false after writing the file")
	}
}

func TestLoadInvalidJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), ConfigFileName)
	if err := os.WriteFile(path, []byte("{not json"), 0644); err != nil {
		t.Fatal(err)
	}

	_, err := LoadFile(path)
	if !errors.HasCode(err, "E101") {
		t.Errorf("LoadFile = %v, want E101", err)
	}
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), ConfigFileName)
	cfg := New()
	cfg.Storage.Backend = "memory"
	cfg.HTTP.Addr = ":9000"

	if err := cfg.SaveTo(path); err != nil {
		t.Fatalf("SaveTo: %v", err)
	}
	if cfg.Path() != path {
		t.Errorf("Path = %q, want %q", cfg.Path(), path)
	}

	loaded, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if loaded.Storage.Backend != "memory" || loaded.HTTP.Addr != ":9000" {
		t.Errorf("round trip lost fields: %+v", loaded)
	}

	if err := New().Save(); err == nil {
		t.Error("Save without a path should fail")
	}
}

func TestApplyEnv(t *testing.T) {
	t.Setenv("VSTATE_STORAGE_BACKEND", "s3")
	t.Setenv("VSTATE_S3_BUCKET", "state")
	t.Setenv("VSTATE_S3_PREFIX", "dev/")
	t.Setenv("VSTATE_LOG_LEVEL", "warn")

	cfg := New()
	if err := cfg.ApplyEnv(); err != nil {
		t.Fatalf("ApplyEnv: %v", err)
	}

	if cfg.Storage.Backend != "s3" || cfg.Storage.Bucket != "state" || cfg.Storage.Prefix != "dev/" {
		t.Errorf("storage overrides not applied: %+v", cfg.Storage)
	}
	if cfg.Log.Level != "warn" {
		t.Errorf("Log.Level = %q, want warn", cfg.Log.Level)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate: %v", err)
	}
}

func TestApplyEnvEmpty(t *testing.T) {
	t.Setenv("VSTATE_HTTP_ADDR", " ")

	err := New().ApplyEnv()
	if !errors.HasCode(err, "E103") {
		t.Errorf("ApplyEnv = %v, want E103", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"unknown backend", func(c *Config) { c.Storage.Backend = "redis" }},
		{"s3 without bucket", func(c *Config) { c.Storage.Backend = "s3" }},
		{"unknown codec", func(c *Config) { c.Storage.Codec = "toml" }},
		{"bad timeout", func(c *Config) { c.Storage.Timeout = "soon" }},
		{"bad level", func(c *Config) { c.Log.Level = "loud" }},
		{"bad format", func(c *Config) { c.Log.Format = "xml" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := New()
			tt.mutate(cfg)
			if err := cfg.Validate(); !errors.HasCode(err, "E102") {
				t.Errorf("Validate = %v, want E102", err)
			}
		})
	}
}

func TestResolve(t *testing.T) {
	path := filepath.Join(t.TempDir(), ConfigFileName)
	if err := os.WriteFile(path, []byte(`{"storage":{"backend":"memory"}}`), 0644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("VSTATE_LOG_FORMAT", "json")

	cfg, err := Resolve(path)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if cfg.Storage.Backend != "memory" || cfg.Log.Format != "json" {
		t.Errorf("Resolve = %+v", cfg)
	}

	if _, err := Resolve(filepath.Join(t.TempDir(), "missing.json")); !errors.HasCode(err, "E100") {
		t.Errorf("Resolve(missing) = %v, want E100", err)
	}
}

func TestLoadEnvFile(t *testing.T) {
	const key = "VSTATE_TEST_FROM_DOTENV"
	t.Cleanup(func() { os.Unsetenv(key) })

	path := filepath.Join(t.TempDir(), ".env")
	if err := os.WriteFile(path, []byte(key+"=hello\n"), 0644); err != nil {
		t.Fatal(err)
	}

	if err := LoadEnvFile(path, filepath.Join(t.TempDir(), "absent.env")); err != nil {
		t.Fatalf("LoadEnvFile: %v", err)
	}
	if got := os.Getenv(key); got != "hello" {
		t.Errorf("%s = %q, want hello", key, got)
	}
}
