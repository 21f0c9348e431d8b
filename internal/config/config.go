// Package config reads the environment shared by the row API server, the
// CLI and the loader script.
package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port           string
	DatabaseURL    string
	RowsBackend    string
	ServiceSecret  string
	IdentitySecret string

	APIURL         string
	APIKey         string
	SnapshotPath   string
	CacheTTL       time.Duration
	RequestTimeout time.Duration

	LogLevel  string
	LogFormat string
}

// Load reads .env if present, then the process environment. Malformed
// numbers and durations are errors rather than silent defaults.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Printf("config: .env not loaded: %v", err)
	}

	cfg := &Config{
		Port:           getEnv("PORT", "8080"),
		DatabaseURL:    getEnv("DATABASE_URL", ""),
		RowsBackend:    getEnv("ROWS_BACKEND", "postgres"),
		ServiceSecret:  getEnv("SERVICE_SECRET", ""),
		IdentitySecret: getEnv("IDENTITY_SECRET", ""),
		APIURL:         getEnv("API_URL", "http://localhost:8080"),
		APIKey:         getEnv("API_KEY", ""),
		SnapshotPath:   getEnv("SNAPSHOT_PATH", ".swiss-hub"),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		LogFormat:      getEnv("LOG_FORMAT", "console"),
	}

	var err error
	if cfg.CacheTTL, err = getEnvDuration("CACHE_TTL", 5*time.Minute); err != nil {
		return nil, err
	}
	if cfg.RequestTimeout, err = getEnvDuration("REQUEST_TIMEOUT", 10*time.Second); err != nil {
		return nil, err
	}
	if _, err = getEnvInt("PORT", 8080); err != nil {
		return nil, err
	}
	switch cfg.RowsBackend {
	case "postgres", "memory":
	default:
		return nil, fmt.Errorf("ROWS_BACKEND must be postgres or memory, got %q", cfg.RowsBackend)
	}
	return cfg, nil
}

// CheckServer reports settings the row API cannot start without.
func (c *Config) CheckServer() error {
	if c.ServiceSecret == "" {
		return errors.New("SERVICE_SECRET is required")
	}
	if c.RowsBackend == "postgres" && c.DatabaseURL == "" {
		return errors.New("DATABASE_URL is required for the postgres backend")
	}
	return nil
}

func (c *Config) Addr() string {
	return ":" + c.Port
}

func getEnv(key, defaultValue string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return n, nil
}

func getEnvDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("%s must be positive, got %s", key, value)
	}
	return d, nil
}
