// Package config loads runtime configuration from the environment.
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config holds everything the serve command needs. Values come from the
// environment so the same binary runs unchanged in dev and production.
type Config struct {
	ListenAddr string `env:"CALLFLOW_LISTEN_ADDR" envDefault:":8080"`

	// Store selects the session backend: memory, file, or redis.
	Store      string `env:"CALLFLOW_STORE" envDefault:"file"`
	SessionDir string `env:"CALLFLOW_SESSION_DIR" envDefault:".callflow/sessions"`

	RedisAddr     string `env:"CALLFLOW_REDIS_ADDR" envDefault:"localhost:6379"`
	RedisPassword string `env:"CALLFLOW_REDIS_PASSWORD"`
	RedisDB       int    `env:"CALLFLOW_REDIS_DB" envDefault:"0"`

	DefaultCampaign string        `env:"CALLFLOW_DEFAULT_CAMPAIGN" envDefault:"campaign_001"`
	SessionGrace    time.Duration `env:"CALLFLOW_SESSION_GRACE" envDefault:"30s"`
	MaxReprompts    int           `env:"CALLFLOW_MAX_REPROMPTS" envDefault:"3"`

	LogLevel string `env:"CALLFLOW_LOG_LEVEL" envDefault:"info"`
}

// Load parses the environment into a Config.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse environment: %w", err)
	}
	return cfg, nil
}
