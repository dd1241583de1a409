// Package config loads server configuration from the environment.
package config

import (
	"errors"
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	// Env is the deployment environment ("development", "production", ...).
	Env string

	// Server
	Port     string
	LogLevel string

	// Database
	DBPath           string
	StoreRetryBudget int

	// Ledger
	SplitConcurrency int

	// Auth
	JWTSecret         string
	JWTExpiration     time.Duration
	AdminPasswordHash string
	AdminPassword     string

	// Receipt extraction
	ReceiptExtractorURL     string
	ReceiptExtractorAPIKey  string
	ReceiptExtractorTimeout time.Duration
}

const devJWTSecret = "fallback-secret-key-for-dev-only"

var (
	ErrMissingJWTSecret     = errors.New("JWT_SECRET is required outside development")
	ErrMissingAdminPassword = errors.New("ADMIN_PASSWORD_HASH or ADMIN_PASSWORD is required outside development")
)

// Load reads .env (if present) and then the environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		slog.Warn(".env file not found, using environment only")
	}

	cfg := &Config{
		Env:      getEnv("ENV", "development"),
		Port:     getEnv("PORT", "8080"),
		LogLevel: getEnv("LOG_LEVEL", "info"),

		DBPath:           getEnv("DB_PATH", "./data/ledger.db"),
		StoreRetryBudget: getEnvInt("STORE_RETRY_BUDGET", 5),

		SplitConcurrency: getEnvInt("SPLIT_CONCURRENCY", 4),

		JWTSecret:         getEnv("JWT_SECRET", ""),
		JWTExpiration:     getEnvDuration("JWT_EXPIRES_IN", 24*time.Hour),
		AdminPasswordHash: getEnv("ADMIN_PASSWORD_HASH", ""),
		AdminPassword:     getEnv("ADMIN_PASSWORD", ""),

		ReceiptExtractorURL:     getEnv("RECEIPT_EXTRACTOR_URL", ""),
		ReceiptExtractorAPIKey:  getEnv("RECEIPT_EXTRACTOR_API_KEY", ""),
		ReceiptExtractorTimeout: getEnvDuration("RECEIPT_EXTRACTOR_TIMEOUT", 30*time.Second),
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// IsDevelopment reports whether the server runs with development defaults.
func (c *Config) IsDevelopment() bool {
	return c.Env == "development" || c.Env == "dev"
}

func (c *Config) validate() error {
	if c.JWTSecret == "" {
		if !c.IsDevelopment() {
			return ErrMissingJWTSecret
		}
		slog.Warn("JWT_SECRET not set, using development secret")
		c.JWTSecret = devJWTSecret
	}
	if c.AdminPasswordHash == "" && c.AdminPassword == "" {
		if !c.IsDevelopment() {
			return ErrMissingAdminPassword
		}
		slog.Warn("No admin password configured, admin login is disabled")
	}
	return nil
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	raw := getEnv(key, "")
	if raw == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		slog.Warn("Invalid integer in environment, using default", "key", key, "value", raw, "default", defaultValue)
		return defaultValue
	}
	return n
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	raw := getEnv(key, "")
	if raw == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		slog.Warn("Invalid duration in environment, using default", "key", key, "value", raw, "default", defaultValue)
		return defaultValue
	}
	return d
}
