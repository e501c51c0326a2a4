// Package config handles loading application configuration from environment
// variables. All config is centralized here so no other package reads env
// vars directly. Sensible defaults are provided for development.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// DefaultDatabasePath is where the prompt database lives when PROMPT_DB_PATH
// is not set. Relative to the working directory (the application root).
const DefaultDatabasePath = "data/prompts.db"

// Config holds all application configuration. Populated from environment
// variables at startup. Passed to other packages via dependency injection.
type Config struct {
	// Env is the runtime environment: "development" or "production".
	Env string

	// Port is the HTTP listen port (default: 8080).
	Port int

	// BaseURL is the public-facing URL used for links and redirects.
	BaseURL string

	// LogLevel controls log verbosity: "debug", "info", "warn", "error".
	LogLevel string

	// Database holds SQLite settings.
	Database DatabaseConfig

	// Redis holds optional Redis settings for shared rate limiting.
	Redis RedisConfig

	// RateLimit bounds how many form submissions one client may make.
	RateLimit RateLimitConfig
}

// DatabaseConfig holds the embedded SQLite database settings.
type DatabaseConfig struct {
	// Path is the database file location (PROMPT_DB_PATH).
	Path string

	// MaxOpenConns is the maximum number of open connections in the pool.
	MaxOpenConns int

	// MaxIdleConns is the maximum number of idle connections in the pool.
	MaxIdleConns int

	// ConnMaxLifetime is how long a connection can be reused. Zero keeps
	// connections forever.
	ConnMaxLifetime time.Duration

	// BusyTimeout is how long a statement waits on a locked database before
	// SQLite reports SQLITE_BUSY.
	BusyTimeout time.Duration
}

// DSN returns the modernc.org/sqlite connection string. Pragmas are passed
// in the DSN so every pooled connection gets them, not only the first one.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"file:%s?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)&_pragma=busy_timeout(%d)",
		d.Path, d.BusyTimeout.Milliseconds(),
	)
}

// Dir returns the directory holding the database file.
func (d DatabaseConfig) Dir() string {
	return filepath.Dir(d.Path)
}

// RedisConfig holds Redis connection parameters.
type RedisConfig struct {
	// URL is the Redis connection URL (e.g., "redis://localhost:6379").
	// Empty disables Redis and rate limiting stays in process memory.
	URL string
}

// Enabled reports whether a Redis URL was configured.
func (r RedisConfig) Enabled() bool {
	return r.URL != ""
}

// RateLimitConfig holds per-client limits for mutating requests.
type RateLimitConfig struct {
	Requests int
	Window   time.Duration
}

// Load reads configuration from environment variables with sensible defaults.
// A .env file in the working directory is applied first when present; real
// environment variables always win over it.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("loading .env: %w", err)
	}

	cfg := &Config{
		Env:      getEnv("ENV", "development"),
		Port:     getEnvInt("PORT", 8080),
		BaseURL:  getEnv("BASE_URL", "http://localhost:8080"),
		LogLevel: getEnv("LOG_LEVEL", "debug"),

		Database: DatabaseConfig{
			Path:            getEnv("PROMPT_DB_PATH", DefaultDatabasePath),
			MaxOpenConns:    getEnvInt("DB_MAX_OPEN_CONNS", 4),
			MaxIdleConns:    getEnvInt("DB_MAX_IDLE_CONNS", 4),
			ConnMaxLifetime: getEnvDuration("DB_CONN_MAX_LIFETIME", 0),
			BusyTimeout:     getEnvDuration("DB_BUSY_TIMEOUT", 5*time.Second),
		},

		Redis: RedisConfig{
			URL: getEnv("REDIS_URL", ""),
		},

		RateLimit: RateLimitConfig{
			Requests: getEnvInt("RATE_LIMIT_REQUESTS", 120),
			Window:   getEnvDuration("RATE_LIMIT_WINDOW", time.Minute),
		},
	}

	if strings.TrimSpace(cfg.Database.Path) == "" {
		return nil, fmt.Errorf("PROMPT_DB_PATH must not be blank")
	}
	if cfg.RateLimit.Requests <= 0 || cfg.RateLimit.Window <= 0 {
		return nil, fmt.Errorf("RATE_LIMIT_REQUESTS and RATE_LIMIT_WINDOW must be positive")
	}

	return cfg, nil
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	env := strings.ToLower(c.Env)
	return env == "development" || env == "dev"
}

// --- Helper functions for reading environment variables ---

// getEnv reads a string env var or returns the default.
func getEnv(key, defaultVal string) string {
	if val, ok := os.LookupEnv(key); ok {
		return val
	}
	return defaultVal
}

// getEnvInt reads an integer env var or returns the default.
func getEnvInt(key string, defaultVal int) int {
	if val, ok := os.LookupEnv(key); ok {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return defaultVal
}

// getEnvDuration reads a duration env var (e.g., "90s") or returns the default.
func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	if val, ok := os.LookupEnv(key); ok {
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
	}
	return defaultVal
}
