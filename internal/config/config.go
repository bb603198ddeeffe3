// Package config provides configuration management functionality.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	DataDir         string // Base directory for databases (always absolute)
	Port            int
	LogLevel        string
	DevMode         bool
	ProviderBaseURL string        // Quote/history provider endpoint
	ProviderTimeout time.Duration // Per-call timeout for provider requests
	CacheTTL        time.Duration // TTL for quote/history cache entries
	CacheMaxEntries int           // Bounded cache capacity (oldest-eviction)
	RefreshSchedule string        // Cron schedule for the market overview refresh job
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	dataDir := getEnv("STOCKDASH_DATA_DIR", "")
	if dataDir == "" {
		dataDir = "./data"
	}

	// Always resolve to absolute path
	absDataDir, err := filepath.Abs(dataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve data directory path: %w", err)
	}

	if err := os.MkdirAll(absDataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	cfg := &Config{
		DataDir:         absDataDir,
		Port:            getEnvAsInt("PORT", 8080),
		LogLevel:        getEnv("LOG_LEVEL", "info"),
		DevMode:         getEnvAsBool("DEV_MODE", false),
		ProviderBaseURL: getEnv("PROVIDER_BASE_URL", "https://query1.finance.yahoo.com"),
		ProviderTimeout: time.Duration(getEnvAsInt("PROVIDER_TIMEOUT_SECONDS", 10)) * time.Second,
		CacheTTL:        time.Duration(getEnvAsInt("CACHE_TTL_SECONDS", 300)) * time.Second,
		CacheMaxEntries: getEnvAsInt("CACHE_MAX_ENTRIES", 1000),
		RefreshSchedule: getEnv("REFRESH_SCHEDULE", "@every 5m"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks if required configuration is present and sane
func (c *Config) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Port)
	}
	if c.CacheMaxEntries <= 0 {
		return fmt.Errorf("cache max entries must be positive, got %d", c.CacheMaxEntries)
	}
	if c.ProviderTimeout <= 0 {
		return fmt.Errorf("provider timeout must be positive, got %s", c.ProviderTimeout)
	}
	return nil
}

// Helper functions
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}
