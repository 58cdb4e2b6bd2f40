// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package config handles gateway-wide settings and environment parsing.

It leverages 'caarlos0/env' to map OS environment variables into a strongly-typed
Go struct, providing early validation and default values.

Usage:

	cfg, err := config.Load()
	if err != nil {
	    log.Fatal(err)
	}

Architecture:

  - Immutability: Once loaded, configuration is read-only.
  - DI-Friendly: Passed to core components (storage, directory client) via constructors.
  - Zero Hidden State: No global variables are used to store config.
*/
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// # Backend Names

const (
	BackendMemory   = "memory"
	BackendRedis    = "redis"
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"
)

// # Configuration Schema

// Config holds all runtime configuration for the localmart gateway.
type Config struct {

	// Server settings
	ServerPort  string `env:"SERVER_PORT"  envDefault:"8080"`
	Environment string `env:"ENVIRONMENT"  envDefault:"development"`
	Debug       bool   `env:"DEBUG"        envDefault:"false"`

	// Tab tokens scope every request to a tab (session storage) and a device (local storage)
	SessionSecret string        `env:"SESSION_SECRET,required"`
	TabTokenTTL   time.Duration `env:"TAB_TOKEN_TTL" envDefault:"24h"`

	// Session storage (per tab)
	SessionBackend string        `env:"SESSION_BACKEND" envDefault:"memory"`
	SessionTTL     time.Duration `env:"SESSION_TTL"     envDefault:"12h"`
	RedisURL       string        `env:"REDIS_URL"`

	// Local storage (per device)
	LocalBackend  string `env:"LOCAL_BACKEND"  envDefault:"memory"`
	SQLitePath    string `env:"SQLITE_PATH"    envDefault:"./data/localmart.db"`
	DatabaseURL   string `env:"DATABASE_URL"`
	MigrationPath string `env:"MIGRATION_PATH" envDefault:"./data/migrations"`

	// Remote collaborators: the PHP directory and the Node verification service
	DirectoryBaseURL      string        `env:"DIRECTORY_BASE_URL,required"`
	AuthBaseURL           string        `env:"AUTH_BASE_URL,required"`
	RemoteTimeout         time.Duration `env:"REMOTE_TIMEOUT"          envDefault:"10s"`
	AllowInsecureFallback bool          `env:"ALLOW_INSECURE_FALLBACK" envDefault:"true"`

	// Navigation targets returned to the client as redirects
	LoginPath   string `env:"LOGIN_PATH"   envDefault:"/login"`
	SignupPath  string `env:"SIGNUP_PATH"  envDefault:"/signup"`
	LandingPath string `env:"LANDING_PATH" envDefault:"/"`

	// OTPFlowTTL is how long an untouched OTP page keeps its flow alive.
	OTPFlowTTL time.Duration `env:"OTP_FLOW_TTL" envDefault:"15m"`

	// Cross-Origin Resource Sharing
	ExtraOrigins string `env:"EXTRA_ORIGINS"`
}

// # Configuration Loading

// Load parses environment variables into a [Config] struct and validates the
// cross-field rules env tags cannot express.
func Load() (*Config, error) {
	cfg := &Config{}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("config: failed to parse environment variables: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	return cfg, nil
}

// Validate checks backend selections against the URLs they need.
func (c *Config) Validate() error {
	var problems []error

	switch c.SessionBackend {
	case BackendMemory:
	case BackendRedis:
		if c.RedisURL == "" {
			problems = append(problems, errors.New("REDIS_URL is required when SESSION_BACKEND=redis"))
		}
	default:
		problems = append(problems, fmt.Errorf("unknown SESSION_BACKEND %q", c.SessionBackend))
	}

	switch c.LocalBackend {
	case BackendMemory:
	case BackendSQLite:
		if c.SQLitePath == "" {
			problems = append(problems, errors.New("SQLITE_PATH is required when LOCAL_BACKEND=sqlite"))
		}
	case BackendPostgres:
		if c.DatabaseURL == "" {
			problems = append(problems, errors.New("DATABASE_URL is required when LOCAL_BACKEND=postgres"))
		}
	default:
		problems = append(problems, fmt.Errorf("unknown LOCAL_BACKEND %q", c.LocalBackend))
	}

	if len(c.SessionSecret) < 32 {
		problems = append(problems, errors.New("SESSION_SECRET must be at least 32 characters"))
	}

	return errors.Join(problems...)
}

// IsDevelopment reports whether the gateway is running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// IsProduction reports whether the gateway is running in production mode.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// AllowedOrigins returns the comma-separated EXTRA_ORIGINS as a trimmed list.
func (c *Config) AllowedOrigins() []string {
	var origins []string
	for _, origin := range strings.Split(c.ExtraOrigins, ",") {
		if origin = strings.TrimSpace(origin); origin != "" {
			origins = append(origins, origin)
		}
	}
	return origins
}
