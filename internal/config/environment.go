// Package config provides configuration loading and management for the Inkbin application.
package config

import (
	"context"
	"os"
	"strings"

	"github.com/caarlos0/env"
	"github.com/joho/godotenv"

	"github.com/inkbin/inkbin/pkg/logger"
)

// Config holds environment configuration for the Inkbin application.
type Config struct {
	// InkbinPort is the port on which the Inkbin server runs.
	InkbinPort string `env:"INKBIN_PORT"`

	// PostgresURL, when set, takes precedence over the individual fields below.
	PostgresURL      string `env:"POSTGRES_URL"`
	PostgresHost     string `env:"POSTGRES_HOST"`
	PostgresPort     string `env:"POSTGRES_PORT"`
	PostgresUser     string `env:"POSTGRES_USER"`
	PostgresPassword string `env:"POSTGRES_PASSWORD"`
	PostgresDB       string `env:"POSTGRES_DB"`
	PostgresSSLMode  string `env:"POSTGRES_SSLMODE"`

	RedisAddr     string `env:"REDIS_ADDR"`
	RedisPassword string `env:"REDIS_PASSWORD"`
	RedisDB       int    `env:"REDIS_DB"`

	// CacheTTLSeconds bounds how long rendered paste text and envelopes stay cached.
	CacheTTLSeconds int `env:"CACHE_TTL_SECONDS" envDefault:"300"`

	// HitWindowHours is the unique-viewer dedup window for the hit counter.
	HitWindowHours int `env:"HIT_WINDOW_HOURS" envDefault:"24"`
}

// Conf holds the global configuration for the Inkbin application.
var Conf Config

func loadDotEnv() {
	// Load .env file at the root of the project into environment if present.
	// Does not override existing environ variables.
	path := os.Getenv("DOTENV_PATHS")
	if path != "" {
		err := godotenv.Load(strings.Split(path, ",")...)
		if err != nil {
			logger.Fatal(context.Background(), err.Error())
		}
	}
}

// InitConf initializes the global configuration by loading environment variables and .env files.
func InitConf() {
	loadDotEnv()

	if err := env.Parse(&Conf); err != nil {
		logger.Fatal(context.Background(), err.Error())
	}
}
