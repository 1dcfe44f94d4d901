// Package config loads server configuration from the environment, with an
// optional .env file for local development.
package config

import (
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all server configuration.
type Config struct {
	// Port is the HTTP listen port.
	Port int

	// DBPath is the SQLite database file path.
	DBPath string

	// StaticPath is the directory the SPA frontend is served from.
	StaticPath string

	// JWTSecret signs session tokens. Must be overridden in production.
	JWTSecret string

	// TokenDuration is how long issued tokens remain valid.
	TokenDuration time.Duration

	// RatesBaseURL is the exchange-rate API endpoint.
	RatesBaseURL string

	// RatesCacheTTL is how long a fetched rate table is reused.
	RatesCacheTTL time.Duration
}

// Load reads configuration from the environment. A .env file in the working
// directory is applied first if present.
func Load() *Config {
	if err := godotenv.Load(); err == nil {
		slog.Debug("Loaded .env file")
	}

	return &Config{
		Port:          getEnvInt("PORT", 8080),
		DBPath:        getEnv("DB_PATH", "./data/splitscan.db"),
		StaticPath:    getEnv("STATIC_PATH", "../frontend/static"),
		JWTSecret:     getEnv("JWT_SECRET", "dev-secret-change-me"),
		TokenDuration: getEnvDuration("TOKEN_DURATION", 24*time.Hour),
		RatesBaseURL:  getEnv("RATES_BASE_URL", "https://open.er-api.com/v6/latest"),
		RatesCacheTTL: getEnvDuration("RATES_CACHE_TTL", time.Hour),
	}
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
		slog.Warn("Invalid integer env value, using fallback", "key", key, "fallback", fallback)
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
		slog.Warn("Invalid duration env value, using fallback", "key", key, "fallback", fallback)
	}
	return fallback
}
