// Package config provides configuration for moodlog.
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Storage drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Classifier modes.
const (
	ClassifierRemote = "remote"
	ClassifierLocal  = "local"
)

// Config holds the service configuration.
type Config struct {
	// Server settings
	HTTPPort         int      `env:"HTTP_PORT" envDefault:"8080"`
	CORSAllowOrigins []string `env:"CORS_ALLOW_ORIGINS" envSeparator:"," envDefault:"*"`

	// Database
	DatabaseDriver string `env:"DATABASE_DRIVER" envDefault:"sqlite"`
	DatabaseURL    string `env:"DATABASE_URL" envDefault:"file:moodlog.db?cache=shared&mode=rwc&_busy_timeout=5000&_journal_mode=WAL"`

	// Sentiment engine
	ClassifierURL     string        `env:"CLASSIFIER_URL" envDefault:"http://127.0.0.1:5001"`
	ClassifierMode    string        `env:"CLASSIFIER_MODE" envDefault:"remote"`
	ClassifierTimeout time.Duration `env:"CLASSIFIER_TIMEOUT" envDefault:"10s"`

	// Ledger
	PersistTimeout       time.Duration `env:"PERSIST_TIMEOUT" envDefault:"5s"`
	MaxTextLength        int           `env:"MAX_TEXT_LENGTH" envDefault:"1000"`
	AnalyticsDefaultDays int           `env:"ANALYTICS_DEFAULT_DAYS" envDefault:"30"`

	// Repair of ledger/aggregate drift; zero interval disables it
	ReconcileInterval time.Duration `env:"RECONCILE_INTERVAL" envDefault:"5m"`
	ReconcileGrace    time.Duration `env:"RECONCILE_GRACE" envDefault:"1m"`

	// Logging
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`
}

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks values env tags cannot express.
func (c *Config) Validate() error {
	switch c.DatabaseDriver {
	case DriverSQLite, DriverPostgres:
	default:
		return fmt.Errorf("unsupported DATABASE_DRIVER %q", c.DatabaseDriver)
	}
	switch c.ClassifierMode {
	case ClassifierRemote, ClassifierLocal:
	default:
		return fmt.Errorf("unsupported CLASSIFIER_MODE %q", c.ClassifierMode)
	}
	if c.MaxTextLength <= 0 {
		return fmt.Errorf("MAX_TEXT_LENGTH must be positive, got %d", c.MaxTextLength)
	}
	if c.AnalyticsDefaultDays <= 0 {
		return fmt.Errorf("ANALYTICS_DEFAULT_DAYS must be positive, got %d", c.AnalyticsDefaultDays)
	}
	if c.ClassifierTimeout <= 0 {
		return fmt.Errorf("CLASSIFIER_TIMEOUT must be positive")
	}
	if c.PersistTimeout <= 0 {
		return fmt.Errorf("PERSIST_TIMEOUT must be positive")
	}
	return nil
}
