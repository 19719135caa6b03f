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
	DataDir            string // Base directory for all databases (always absolute)
	AlphaVantageAPIKey string
	LogLevel           string
	Port               int
	DevMode            bool

	// ProfileCacheTTL bounds how long a fetched ETF profile is served
	// from cache before the provider is consulted again.
	ProfileCacheTTL time.Duration

	// SearchDelay is the pause between the profile query and the
	// best-effort symbol-search query, to avoid tripping the provider's
	// per-minute limits.
	SearchDelay time.Duration

	// Backup settings. Backups are disabled unless S3Bucket is set.
	// Access keys are optional; when empty the SDK's default credential
	// chain (env, shared config, instance role) is used.
	S3Bucket    string
	S3Region    string
	S3AccessKey string
	S3SecretKey string
}

// Load reads configuration from environment variables.
// A .env file in the working directory is honored when present.
func Load() (*Config, error) {
	_ = godotenv.Load()

	dataDir := getEnv("FUNDLENS_DATA_DIR", "")
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to determine home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".fundlens")
	}

	// Always resolve to an absolute path so database paths stay stable
	// regardless of the working directory the binary was started from.
	absDataDir, err := filepath.Abs(dataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve data directory to absolute: %w", err)
	}
	if err := os.MkdirAll(absDataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	port, err := strconv.Atoi(getEnv("PORT", "8090"))
	if err != nil {
		return nil, fmt.Errorf("invalid PORT: %w", err)
	}

	ttlHours, err := strconv.Atoi(getEnv("PROFILE_CACHE_TTL_HOURS", "24"))
	if err != nil || ttlHours <= 0 {
		return nil, fmt.Errorf("invalid PROFILE_CACHE_TTL_HOURS: %q", getEnv("PROFILE_CACHE_TTL_HOURS", "24"))
	}

	searchDelayMs, err := strconv.Atoi(getEnv("SEARCH_DELAY_MS", "500"))
	if err != nil || searchDelayMs < 0 {
		return nil, fmt.Errorf("invalid SEARCH_DELAY_MS: %q", getEnv("SEARCH_DELAY_MS", "500"))
	}

	return &Config{
		DataDir:            absDataDir,
		AlphaVantageAPIKey: getEnv("ALPHAVANTAGE_API_KEY", ""),
		LogLevel:           getEnv("LOG_LEVEL", "info"),
		Port:               port,
		DevMode:            getEnv("DEV_MODE", "false") == "true",
		ProfileCacheTTL:    time.Duration(ttlHours) * time.Hour,
		SearchDelay:        time.Duration(searchDelayMs) * time.Millisecond,
		S3Bucket:           getEnv("BACKUP_S3_BUCKET", ""),
		S3Region:           getEnv("BACKUP_S3_REGION", "us-east-1"),
		S3AccessKey:        getEnv("BACKUP_S3_ACCESS_KEY", ""),
		S3SecretKey:        getEnv("BACKUP_S3_SECRET_KEY", ""),
	}, nil
}

// DatabasePath returns the absolute path for a named database file.
func (c *Config) DatabasePath(name string) string {
	return filepath.Join(c.DataDir, name)
}

// getEnv retrieves an environment variable value, returning a fallback
// if the variable is not set or is empty.
func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
