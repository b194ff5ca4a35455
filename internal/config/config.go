// Package config loads the server configuration from the environment.
//
// Values come from real environment variables, with an optional .env file
// loaded first for local development. There is no global config state —
// Load returns a value that main passes down explicitly.
package config

import (
	"fmt"
	"runtime"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config holds everything the server needs to start. The env tags are
// parsed by caarlos0/env; defaults cover local development, JWT_SECRET is
// the one value that must always be provided.
type Config struct {
	Port        int    `env:"PORT" envDefault:"8080"`
	DBPath      string `env:"DB_PATH" envDefault:"data/snippets.db"`
	JWTSecret   string `env:"JWT_SECRET"`
	HashWorkers int    `env:"HASH_WORKERS"`
}

// Load reads the configuration, preferring real environment variables over
// the optional .env file.
func Load() (Config, error) {
	// A missing .env is fine — production sets real env vars.
	_ = godotenv.Load()

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("config: parsing environment: %w", err)
	}

	if cfg.JWTSecret == "" {
		return Config{}, fmt.Errorf("config: JWT_SECRET must be set (try: openssl rand -hex 32)")
	}

	// bcrypt is pure CPU — one worker per core is the sweet spot.
	if cfg.HashWorkers <= 0 {
		cfg.HashWorkers = runtime.NumCPU()
	}

	return cfg, nil
}
