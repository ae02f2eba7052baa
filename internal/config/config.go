// Package config loads server configuration from the environment.
package config

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/caarlos0/env/v11"
)

// Storage backends
const (
	StorageMemory   = "memory"
	StoragePostgres = "postgres"
)

// Session backends
const (
	SessionMemory = "memory"
	SessionRedis  = "redis"
)

// Config is the server configuration
type Config struct {
	Host string `env:"HOST" envDefault:""`
	Port int    `env:"PORT" envDefault:"8080"`

	// StorageType selects the persistence backend: memory or postgres
	StorageType string `env:"STORAGE_TYPE" envDefault:"memory"`
	DatabaseURL string `env:"DATABASE_URL"`

	// SessionBackend selects where sessions live: memory or redis
	SessionBackend string        `env:"SESSION_BACKEND" envDefault:"memory"`
	RedisURL       string        `env:"REDIS_URL" envDefault:"redis://localhost:6379/0"`
	SessionTTL     time.Duration `env:"SESSION_TTL" envDefault:"24h"`

	// AdminName and AdminPIN describe the bootstrap admin account created on
	// startup when the roster is empty. No PIN means no bootstrap.
	AdminName string `env:"ADMIN_NAME" envDefault:"Admin"`
	AdminPIN  string `env:"ADMIN_PIN"`

	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`
}

// Load parses the configuration from the environment
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	switch cfg.StorageType {
	case StorageMemory, StoragePostgres:
	default:
		return nil, fmt.Errorf("unknown STORAGE_TYPE %q", cfg.StorageType)
	}
	if cfg.StorageType == StoragePostgres && cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required with STORAGE_TYPE=postgres")
	}
	switch cfg.SessionBackend {
	case SessionMemory, SessionRedis:
	default:
		return nil, fmt.Errorf("unknown SESSION_BACKEND %q", cfg.SessionBackend)
	}

	return cfg, nil
}

// SlogLevel maps the configured log level onto slog
func (c *Config) SlogLevel() slog.Level {
	switch c.LogLevel {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
