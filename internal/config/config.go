// Package config loads CLI settings from BOARDHAND_* environment variables.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/caarlos0/env/v11"
)

// Store backends.
const (
	StoreBolt   = "bolt"
	StoreRedis  = "redis"
	StoreMemory = "memory"
	StoreNone   = "none"
)

// Config is the resolved CLI configuration. Command-line flags override
// these values after ParseEnv.
type Config struct {
	BaseURL       string `env:"BOARDHAND_BASE_URL" envDefault:"http://127.0.0.1:8000"`
	DataDir       string `env:"BOARDHAND_DATA_DIR"`
	StoreBackend  string `env:"BOARDHAND_STORE" envDefault:"bolt"`
	RedisAddr     string `env:"BOARDHAND_REDIS_ADDR" envDefault:"127.0.0.1:6379"`
	RedisPrefix   string `env:"BOARDHAND_REDIS_PREFIX" envDefault:"boardhand:session:"`
	TokenEndpoint string `env:"BOARDHAND_TOKEN_ENDPOINT" envDefault:"/token"`
	Password      string `env:"BOARDHAND_PASSWORD"`
}

// ParseEnv loads configuration from environment variables.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// Load parses the environment into a Config and fills in the data
// directory when it is unset. It does not validate: callers apply their
// overrides first and then call Validate.
func Load() (Config, error) {
	var cfg Config
	if err := ParseEnv(&cfg); err != nil {
		return Config{}, err
	}
	if cfg.DataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return Config{}, fmt.Errorf("resolving home directory: %w", err)
		}
		cfg.DataDir = filepath.Join(home, ".boardhand")
	}
	return cfg, nil
}

// Validate checks fields that have a fixed set of values.
func (c Config) Validate() error {
	switch c.StoreBackend {
	case StoreBolt, StoreRedis, StoreMemory, StoreNone:
		return nil
	default:
		return fmt.Errorf("unknown store backend %q (want bolt, redis, memory or none)", c.StoreBackend)
	}
}

// SessionDBPath is the bbolt file holding the persisted session.
func (c Config) SessionDBPath() string {
	return filepath.Join(c.DataDir, "session.db")
}
