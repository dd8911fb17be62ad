// Package config loads configuration from environment variables.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all server configuration.
type Config struct {
	// Server
	ListenAddr  string
	MetricsAddr string

	// Logging
	LogLevel  string
	LogFormat string

	// Google Drive
	GoogleAPIKey      string
	DriveRootFolderID string
	DriveBaseURL      string
	DriveTimeout      time.Duration
	DriveQPS          float64
	DrivePageSize     int

	// Ranking
	WalkerConcurrency int
	CareerConcurrency int
	WalkerMaxDepth    int
	TopN              int

	// Schedule
	ScheduleTZ         string
	ScheduleCheckEvery time.Duration

	// Snapshot store ("memory", "file", "sqlite", "postgres" or "s3")
	SnapshotBackend string
	SnapshotPath    string
	SQLitePath      string
	DatabaseURL     string

	// S3 backend
	S3Endpoint  string
	S3Bucket    string
	S3AccessKey string
	S3SecretKey string
	S3Region    string
	S3UseSSL    bool
	S3Key       string

	// Refresh endpoint guard ("" = unauthenticated)
	RefreshToken string
}

// Load reads configuration from the environment with defaults. A .env file
// in the working directory is applied first if present.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		ListenAddr:  envOr("LISTEN_ADDR", ":8080"),
		MetricsAddr: envOr("METRICS_ADDR", ":9090"),
		LogLevel:    envOr("LOG_LEVEL", "info"),
		LogFormat:   envOr("LOG_FORMAT", "json"),

		GoogleAPIKey:      envOr("GOOGLE_API_KEY", ""),
		DriveRootFolderID: envOr("DRIVE_ROOT_FOLDER_ID", ""),
		DriveBaseURL:      envOr("DRIVE_BASE_URL", "https://www.googleapis.com/drive/v3"),
		DriveTimeout:      envDuration("DRIVE_TIMEOUT", 30*time.Second),
		DriveQPS:          envFloat("DRIVE_QPS", 8),
		DrivePageSize:     envInt("DRIVE_PAGE_SIZE", 100),

		WalkerConcurrency: envInt("WALKER_CONCURRENCY", 4),
		CareerConcurrency: envInt("CAREER_CONCURRENCY", 3),
		WalkerMaxDepth:    envInt("WALKER_MAX_DEPTH", 1000),
		TopN:              envInt("RANKING_TOP_N", 5),

		ScheduleTZ:         envOr("SCHEDULE_TZ", "Local"),
		ScheduleCheckEvery: envDuration("SCHEDULE_CHECK_EVERY", 4*time.Hour),

		SnapshotBackend: envOr("SNAPSHOT_BACKEND", "file"),
		SnapshotPath:    envOr("SNAPSHOT_PATH", "ranking-data.json"),
		SQLitePath:      envOr("SQLITE_PATH", "apuntes.db"),
		DatabaseURL:     envOr("DATABASE_URL", ""),

		S3Endpoint:  envOr("S3_ENDPOINT", ""),
		S3Bucket:    envOr("S3_BUCKET", "uda-apuntes"),
		S3AccessKey: envOr("S3_ACCESS_KEY", ""),
		S3SecretKey: envOr("S3_SECRET_KEY", ""),
		S3Region:    envOr("S3_REGION", "us-east-1"),
		S3UseSSL:    envBool("S3_USE_SSL", true),
		S3Key:       envOr("S3_KEY", "ranking-data.json"),

		RefreshToken: envOr("REFRESH_TOKEN", ""),
	}

	if cfg.GoogleAPIKey == "" {
		return nil, fmt.Errorf("GOOGLE_API_KEY is required")
	}
	if cfg.DriveRootFolderID == "" {
		return nil, fmt.Errorf("DRIVE_ROOT_FOLDER_ID is required")
	}
	if cfg.SnapshotBackend == "postgres" && cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required for the postgres snapshot backend")
	}

	return cfg, nil
}

// Location resolves the schedule timezone.
func (c *Config) Location() (*time.Location, error) {
	if c.ScheduleTZ == "" || c.ScheduleTZ == "Local" {
		return time.Local, nil
	}
	return time.LoadLocation(c.ScheduleTZ)
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}

func envInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return i
}

func envFloat(key string, fallback float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return fallback
	}
	return f
}

func envDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}
