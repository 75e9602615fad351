// Package config loads runtime settings from PROPLATFORM_* environment variables.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// Session backends
const (
	BackendMemory = "memory"
	BackendFile   = "file"
	BackendRedis  = "redis"
)

// Config holds settings shared by ppctl and ppweb
type Config struct {
	APIKey  string `env:"PROPLATFORM_API_KEY"`
	BaseURL string `env:"PROPLATFORM_BASE_URL" envDefault:"https://identitytoolkit.googleapis.com/v1"`

	// SessionBackend is memory, file or redis. Empty means the caller's default.
	SessionBackend string        `env:"PROPLATFORM_SESSION_BACKEND"`
	SessionDir     string        `env:"PROPLATFORM_SESSION_DIR"`
	SessionSlot    string        `env:"PROPLATFORM_SESSION_SLOT" envDefault:"userData"`
	SessionTTL     time.Duration `env:"PROPLATFORM_SESSION_TTL"`
	RedisURL       string        `env:"PROPLATFORM_REDIS_URL" envDefault:"redis://localhost:6379/0"`

	ListenAddr  string        `env:"PROPLATFORM_LISTEN_ADDR" envDefault:"127.0.0.1:8080"`
	LogLevel    string        `env:"PROPLATFORM_LOG_LEVEL" envDefault:"info"`
	HTTPTimeout time.Duration `env:"PROPLATFORM_HTTP_TIMEOUT" envDefault:"10s"`
}

// Load reads the process environment
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg.withDefaults(), nil
}

// LoadFrom reads the given variables instead of the process environment
func LoadFrom(environ map[string]string) (Config, error) {
	var cfg Config
	if err := env.ParseWithOptions(&cfg, env.Options{Environment: environ}); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg.withDefaults(), nil
}

func (c Config) withDefaults() Config {
	if c.SessionDir == "" {
		c.SessionDir = DefaultSessionDir()
	}
	c.SessionBackend = strings.ToLower(strings.TrimSpace(c.SessionBackend))
	return c
}

// Validate checks values that env parsing cannot
func (c Config) Validate() error {
	switch c.SessionBackend {
	case "", BackendMemory, BackendFile, BackendRedis:
	default:
		return fmt.Errorf("invalid session backend %q: must be memory, file or redis", c.SessionBackend)
	}
	if c.SessionSlot == "" {
		return fmt.Errorf("session slot must not be empty")
	}
	if c.SessionBackend == BackendRedis && c.RedisURL == "" {
		return fmt.Errorf("redis URL required when session backend is redis")
	}
	if c.HTTPTimeout < 0 {
		return fmt.Errorf("http timeout must not be negative")
	}
	if _, err := c.SlogLevel(); err != nil {
		return err
	}
	return nil
}

// BackendOr returns the configured session backend, or def when none is set
func (c Config) BackendOr(def string) string {
	if c.SessionBackend == "" {
		return def
	}
	return c.SessionBackend
}

// SlogLevel parses LogLevel (debug, info, warn, error)
func (c Config) SlogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return 0, fmt.Errorf("invalid log level %q: %w", c.LogLevel, err)
	}
	return level, nil
}

// DefaultSessionDir is ~/.proplatform, or .proplatform when there is no home directory
func DefaultSessionDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".proplatform"
	}
	return filepath.Join(home, ".proplatform")
}
