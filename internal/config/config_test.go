package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	for _, key := range []string{
		"BOARDHAND_BASE_URL", "BOARDHAND_DATA_DIR", "BOARDHAND_STORE",
		"BOARDHAND_REDIS_ADDR", "BOARDHAND_REDIS_PREFIX", "BOARDHAND_TOKEN_ENDPOINT", "BOARDHAND_PASSWORD",
	} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.BaseURL != "http://127.0.0.1:8000" {
		t.Fatalf("base url = %q", cfg.BaseURL)
	}
	if cfg.StoreBackend != StoreBolt {
		t.Fatalf("store = %q", cfg.StoreBackend)
	}
	if cfg.TokenEndpoint != "/token" {
		t.Fatalf("token endpoint = %q", cfg.TokenEndpoint)
	}
	if want := filepath.Join(home, ".boardhand"); cfg.DataDir != want {
		t.Fatalf("data dir = %q, want %q", cfg.DataDir, want)
	}
	if want := filepath.Join(home, ".boardhand", "session.db"); cfg.SessionDBPath() != want {
		t.Fatalf("session db = %q, want %q", cfg.SessionDBPath(), want)
	}
}

func TestLoadOverrides(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("BOARDHAND_BASE_URL", "https://boards.example.test")
	t.Setenv("BOARDHAND_DATA_DIR", dir)
	t.Setenv("BOARDHAND_STORE", "redis")
	t.Setenv("BOARDHAND_REDIS_ADDR", "redis:6379")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.BaseURL != "https://boards.example.test" || cfg.DataDir != dir {
		t.Fatalf("unexpected config %+v", cfg)
	}
	if cfg.StoreBackend != StoreRedis || cfg.RedisAddr != "redis:6379" {
		t.Fatalf("unexpected store config %+v", cfg)
	}
}

func TestValidateRejectsUnknownStore(t *testing.T) {
	t.Setenv("BOARDHAND_DATA_DIR", t.TempDir())
	t.Setenv("BOARDHAND_STORE", "sqlite")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	err = cfg.Validate()
	if err == nil || !strings.Contains(err.Error(), "sqlite") {
		t.Fatalf("expected unknown store error, got %v", err)
	}
}

type envTestConfig struct {
	Port int `env:"BOARDHAND_TEST_PORT" envDefault:"123"`
}

func TestParseEnvError(t *testing.T) {
	var cfg envTestConfig
	t.Setenv("BOARDHAND_TEST_PORT", "not-an-int")

	err := ParseEnv(&cfg)
	if err == nil || !strings.Contains(err.Error(), "parse env:") {
		t.Fatalf("expected parse env prefix, got %v", err)
	}
}
