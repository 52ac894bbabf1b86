package infra

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// Config holds all application configuration parsed from environment variables.
type Config struct {
	// Database
	DBPath        string `env:"UMAPE_DB_PATH" envDefault:"umape.db"`
	BusyTimeoutMS int    `env:"UMAPE_BUSY_TIMEOUT_MS" envDefault:"5000"`

	// First-run preference blob
	PrefsPath string `env:"UMAPE_PREFS_PATH" envDefault:"user_prefs.json"`
}

// LoadConfig parses environment variables into a Config struct.
func LoadConfig() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}
