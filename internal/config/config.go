// Package config provides configuration management functionality.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// DefaultCurrency is used when neither the environment nor a request names one
const DefaultCurrency = "INR"

// Archive backends
const (
	ArchiveBackendDisk = "disk"
	ArchiveBackendS3   = "s3"
	ArchiveBackendNone = "none"
)

// Config holds application configuration
type Config struct {
	DataDir             string // Base directory for the market database and run archive (always absolute)
	LogLevel            string
	PolicyFile          string // Optional YAML overlay for the scoring/allocation policy
	DatabasePath        string
	SentimentServiceURL string // Empty means sentiment is read from the market database
	UniverseFile        string // Optional YAML universe seeded into the market database at startup
	DefaultCurrency     string
	Archive             ArchiveConfig
	SentimentTimeout    time.Duration
	Port                int
	ScoringWorkers      int
	HistoryLookbackDays int
	LogPretty           bool
	DevMode             bool
}

// ArchiveConfig holds run archive settings
type ArchiveConfig struct {
	Backend           string
	Dir               string
	S3Bucket          string
	S3Prefix          string
	S3Region          string
	S3Endpoint        string // Optional, for S3-compatible stores (R2, MinIO)
	AccessKeyID       string // Optional static credentials; default AWS chain otherwise
	SecretAccessKey   string
	RetentionSchedule string // cron expression with seconds field
	RetentionDays     int
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	dataDir := getEnv("ADVISOR_DATA_DIR", "./data")
	absDataDir, err := filepath.Abs(dataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve data directory path: %w", err)
	}

	if err := os.MkdirAll(absDataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	cfg := &Config{
		DataDir:             absDataDir,
		LogLevel:            getEnv("LOG_LEVEL", "info"),
		LogPretty:           getEnvAsBool("LOG_PRETTY", true),
		Port:                getEnvAsInt("PORT", 8080),
		DevMode:             getEnvAsBool("DEV_MODE", false),
		PolicyFile:          getEnv("POLICY_FILE", ""),
		DatabasePath:        getEnv("DATABASE_PATH", filepath.Join(absDataDir, "market.db")),
		SentimentServiceURL: strings.TrimRight(getEnv("SENTIMENT_SERVICE_URL", ""), "/"),
		UniverseFile:        getEnv("UNIVERSE_FILE", ""),
		SentimentTimeout:    time.Duration(getEnvAsInt("SENTIMENT_TIMEOUT_SECONDS", 5)) * time.Second,
		ScoringWorkers:      getEnvAsInt("SCORING_WORKERS", runtime.NumCPU()),
		DefaultCurrency:     strings.ToUpper(getEnv("DEFAULT_CURRENCY", DefaultCurrency)),
		HistoryLookbackDays: getEnvAsInt("HISTORY_LOOKBACK_DAYS", 400),
		Archive: ArchiveConfig{
			Backend:           strings.ToLower(getEnv("ARCHIVE_BACKEND", ArchiveBackendDisk)),
			Dir:               filepath.Join(absDataDir, "runs"),
			S3Bucket:          getEnv("ARCHIVE_S3_BUCKET", ""),
			S3Prefix:          getEnv("ARCHIVE_S3_PREFIX", "runs/"),
			S3Region:          getEnv("AWS_REGION", "eu-central-1"),
			S3Endpoint:        getEnv("ARCHIVE_S3_ENDPOINT", ""),
			AccessKeyID:       getEnv("AWS_ACCESS_KEY_ID", ""),
			SecretAccessKey:   getEnv("AWS_SECRET_ACCESS_KEY", ""),
			RetentionDays:     getEnvAsInt("ARCHIVE_RETENTION_DAYS", 90),
			RetentionSchedule: getEnv("ARCHIVE_RETENTION_SCHEDULE", "0 0 3 * * *"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks that the configuration is usable
func (c *Config) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port %d", c.Port)
	}
	if c.ScoringWorkers <= 0 {
		return fmt.Errorf("SCORING_WORKERS must be positive, got %d", c.ScoringWorkers)
	}
	if c.HistoryLookbackDays <= 0 {
		return fmt.Errorf("HISTORY_LOOKBACK_DAYS must be positive, got %d", c.HistoryLookbackDays)
	}

	switch c.Archive.Backend {
	case ArchiveBackendDisk, ArchiveBackendNone:
	case ArchiveBackendS3:
		if c.Archive.S3Bucket == "" {
			return fmt.Errorf("ARCHIVE_S3_BUCKET is required for the s3 archive backend")
		}
	default:
		return fmt.Errorf("unknown archive backend %q", c.Archive.Backend)
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
