// Copyright (c) 2026 KKM Registry. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package config handles application-wide settings and environment parsing.

It leverages 'caarlos0/env' to map OS environment variables into a strongly-typed
Go struct, providing early validation and default values. A '.env' file in the
working directory is loaded first when present; real environment variables
always win over it.

Usage:

	cfg, err := config.Load()
	if err != nil {
	    log.Fatal(err)
	}

Architecture:

  - Immutability: Once loaded, configuration is read-only.
  - DI-Friendly: Passed to core components (DB, Redis, token service) via constructors.
  - Zero Hidden State: No global variables are used to store config.
*/
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// # Configuration Schema

// Config holds all runtime configuration for the registry API server.
type Config struct {

	// Server settings
	ServerPort  string `env:"SERVER_PORT"  envDefault:"8080"`
	Environment string `env:"ENVIRONMENT"  envDefault:"development"`
	Debug       bool   `env:"DEBUG"        envDefault:"false"`

	// Relational Database (PostgreSQL)
	DatabaseURL string `env:"DATABASE_URL,required,notEmpty"`

	// MigrationPath is the filesystem path to the SQL migrations directory.
	MigrationPath string `env:"MIGRATION_PATH" envDefault:"./data/migrations"`

	// Key-Value Cache (Redis). Empty disables login throttling.
	RedisURL string `env:"REDIS_URL"`

	// Signing keys. All three must be distinct.
	JWTAccessSecret  string `env:"JWT_ACCESS_SECRET,required,notEmpty"`
	JWTRefreshSecret string `env:"JWT_REFRESH_SECRET,required,notEmpty"`
	CookieSecret     string `env:"COOKIE_SECRET,required,notEmpty"`

	// Token lifetimes
	AccessTokenTTL  time.Duration `env:"ACCESS_TOKEN_TTL"  envDefault:"15m"`
	RefreshTokenTTL time.Duration `env:"REFRESH_TOKEN_TTL" envDefault:"336h"`

	// Cross-Origin Resource Sharing
	AllowedOrigin string `env:"ALLOWED_ORIGIN" envDefault:"http://localhost:4000"`

	// TrustedProxies lists the CIDRs or addresses whose X-Real-IP and
	// X-Forwarded-For headers are believed. Empty means none.
	TrustedProxies []string `env:"TRUSTED_PROXIES" envSeparator:","`

	// Login throttling
	LoginMaxAttempts   int           `env:"LOGIN_MAX_ATTEMPTS"   envDefault:"5"`
	LoginLockoutWindow time.Duration `env:"LOGIN_LOCKOUT_WINDOW" envDefault:"15m"`
}

// # Configuration Loading

// Load reads an optional .env file, then parses environment variables into a [Config].
func Load() (*Config, error) {

	// A missing .env is the normal case outside development.
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("config: failed to read .env: %w", err)
	}

	return Parse()
}

// Parse maps the current environment onto a [Config] and validates it.
func Parse() (*Config, error) {
	cfg := &Config{}

	// This will fail if any field marked with 'required' is missing.
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("config: failed to parse environment variables: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) validate() error {
	if c.JWTAccessSecret == c.JWTRefreshSecret ||
		c.JWTAccessSecret == c.CookieSecret ||
		c.JWTRefreshSecret == c.CookieSecret {
		return errors.New("config: JWT_ACCESS_SECRET, JWT_REFRESH_SECRET and COOKIE_SECRET must be distinct")
	}

	if c.AccessTokenTTL <= 0 || c.RefreshTokenTTL <= 0 {
		return errors.New("config: token TTLs must be positive")
	}

	if c.AccessTokenTTL >= c.RefreshTokenTTL {
		return errors.New("config: ACCESS_TOKEN_TTL must be shorter than REFRESH_TOKEN_TTL")
	}

	if c.LoginMaxAttempts < 1 {
		return errors.New("config: LOGIN_MAX_ATTEMPTS must be at least 1")
	}

	return nil
}

// IsDevelopment reports whether the server is running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// IsProduction reports whether the server is running in production mode.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// ThrottleEnabled reports whether a Redis instance is configured for login throttling.
func (c *Config) ThrottleEnabled() bool {
	return c.RedisURL != ""
}
