// Package server provides configuration loading that defines runtime
// defaults, origin policy, and rate-limiting parameters for the AreaChat
// service.
package server

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// RateLimitConfig defines the parameters for per-connection event rate limiting.
type RateLimitConfig struct {
	Burst          int           `env:"RATE_LIMIT_BURST" envDefault:"10"`
	RefillInterval time.Duration `env:"RATE_LIMIT_REFILL_INTERVAL" envDefault:"1s"`
}

// Config holds the server configuration settings including security controls.
type Config struct {
	Port            string          `env:"SERVER_PORT" envDefault:":8080"`
	AllowedOrigins  []string        `env:"ALLOWED_ORIGINS" envSeparator:"," envDefault:"http://localhost:8080"`
	MaxMessageSize  int64           `env:"MAX_MESSAGE_SIZE" envDefault:"4096"`
	RateLimit       RateLimitConfig
	ShutdownTimeout time.Duration   `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`
}

// NewConfig returns a Config populated with default values for all settings.
func NewConfig() Config {
	return sanitizeConfig(Config{
		Port:           ":8080",
		AllowedOrigins: []string{"http://localhost:8080"},
		MaxMessageSize: 4096,
		RateLimit: RateLimitConfig{
			Burst:          10,
			RefillInterval: time.Second,
		},
		ShutdownTimeout: 10 * time.Second,
	})
}

// NewConfigFromEnv loads configuration from environment variables, falling
// back to defaults for anything unset or invalid.
func NewConfigFromEnv() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	return sanitizeConfig(cfg), nil
}

// sanitizeConfig replaces zero or out-of-range values with safe defaults so a
// partially configured environment still yields a working server.
func sanitizeConfig(cfg Config) Config {
	if cfg.Port == "" {
		cfg.Port = ":8080"
	}
	if cfg.MaxMessageSize <= 0 {
		cfg.MaxMessageSize = 4096
	}
	if cfg.RateLimit.Burst <= 0 {
		cfg.RateLimit.Burst = 10
	}
	if cfg.RateLimit.RefillInterval <= 0 {
		cfg.RateLimit.RefillInterval = time.Second
	}
	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = 10 * time.Second
	}
	return cfg
}
