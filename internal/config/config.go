// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package config handles application configuration loading from environment
// variables. It provides a centralized Config struct used across the application.
package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Development-only defaults that production refuses to run with.
const (
	defaultDBPassword         = "changeme"
	defaultTokenSecret        = "dev-insecure-token-secret"
	defaultSuperadminPassword = "admin"
)

// Config holds all application configuration values loaded from the environment.
type Config struct {
	// Server settings
	Host string `env:"APP_HOST" envDefault:"0.0.0.0"`
	Port string `env:"APP_PORT" envDefault:"8080"`
	Env  string `env:"APP_ENV"  envDefault:"development"` // "development", "production", "testing"

	// PostgreSQL connection
	DBHost     string `env:"POSTGRES_HOST"     envDefault:"localhost"`
	DBPort     string `env:"POSTGRES_PORT"     envDefault:"5432"`
	DBUser     string `env:"POSTGRES_USER"     envDefault:"figdex"`
	DBPassword string `env:"POSTGRES_PASSWORD" envDefault:"changeme"`
	DBName     string `env:"POSTGRES_DB"       envDefault:"figdex"`

	// Valkey (Redis-compatible session store and rate limiter)
	ValkeyHost     string `env:"VALKEY_HOST" envDefault:"localhost"`
	ValkeyPort     string `env:"VALKEY_PORT" envDefault:"6379"`
	ValkeyPassword string `env:"VALKEY_PASSWORD"`

	// Credentials
	TokenSecret    string        `env:"AUTH_TOKEN_SECRET" envDefault:"dev-insecure-token-secret"`
	TokenTTL       time.Duration `env:"AUTH_TOKEN_TTL"    envDefault:"24h"`
	SessionTTL     time.Duration `env:"SESSION_TTL"       envDefault:"24h"`
	LoginRateLimit int           `env:"LOGIN_RATE_LIMIT"  envDefault:"10"` // attempts per minute per IP

	// Bootstrap superadmin, created on first start.
	SuperadminEmail    string `env:"SUPERADMIN_EMAIL"    envDefault:"admin@figdex.local"`
	SuperadminPassword string `env:"SUPERADMIN_PASSWORD" envDefault:"admin"`
}

// Load reads configuration from the process environment.
func Load() (*Config, error) {
	return load(env.Options{})
}

// LoadFrom reads configuration from the given variables instead of the
// process environment.
func LoadFrom(vars map[string]string) (*Config, error) {
	return load(env.Options{Environment: vars})
}

func load(opts env.Options) (*Config, error) {
	cfg := &Config{}
	if err := env.ParseWithOptions(cfg, opts); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	if cfg.LoginRateLimit <= 0 {
		return nil, errors.New("LOGIN_RATE_LIMIT must be positive")
	}
	if cfg.TokenTTL <= 0 {
		return nil, errors.New("AUTH_TOKEN_TTL must be positive")
	}

	if cfg.Env == "production" {
		if cfg.DBPassword == defaultDBPassword {
			return nil, errors.New("POSTGRES_PASSWORD must be set in production")
		}
		if cfg.TokenSecret == defaultTokenSecret {
			return nil, errors.New("AUTH_TOKEN_SECRET must be set in production")
		}
		if cfg.SuperadminEmail != "" && cfg.SuperadminPassword == defaultSuperadminPassword {
			return nil, errors.New("SUPERADMIN_PASSWORD must be set in production")
		}
	}

	return cfg, nil
}

// DSN returns the PostgreSQL connection string.
func (c *Config) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=disable",
		c.DBUser, c.DBPassword, c.DBHost, c.DBPort, c.DBName,
	)
}

// Addr returns the server listen address (host:port).
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%s", c.Host, c.Port)
}

// IsDev returns true if the application is running in development mode.
func (c *Config) IsDev() bool {
	return c.Env == "development"
}
