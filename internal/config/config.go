package config

import (
	"os"
	"strconv"
)

type Config struct {
	DatabaseURL     string
	TemporalAddress string
	HTTPListenAddr  string
	MetricsAddr     string
	LogLevel        string

	// Zimbra admin SOAP endpoint and credentials.
	ZimbraAdminURL string
	ZimbraUser     string
	ZimbraPassword string

	// SyncBatchSize is the page size used when walking the directory.
	SyncBatchSize int
	// SyncErrorDetailLimit caps per-account error details kept on a run.
	SyncErrorDetailLimit int
	// PurgeDelayDays is how long a closed account waits before deletion.
	PurgeDelayDays int
}

func Load() (*Config, error) {
	cfg := &Config{
		DatabaseURL:          getEnv("DATABASE_URL", ""),
		TemporalAddress:      getEnv("TEMPORAL_ADDRESS", "localhost:7233"),
		HTTPListenAddr:       getEnv("HTTP_LISTEN_ADDR", ":8080"),
		MetricsAddr:          getEnv("METRICS_ADDR", ":9090"),
		LogLevel:             getEnv("LOG_LEVEL", "info"),
		ZimbraAdminURL:       getEnv("ZIMBRA_ADMIN_URL", ""),
		ZimbraUser:           getEnv("ZIMBRA_ADMIN_USER", ""),
		ZimbraPassword:       getEnv("ZIMBRA_ADMIN_PASSWORD", ""),
		SyncBatchSize:        getEnvInt("SYNC_BATCH_SIZE", 500),
		SyncErrorDetailLimit: getEnvInt("SYNC_ERROR_DETAIL_LIMIT", 100),
		PurgeDelayDays:       getEnvInt("PURGE_DELAY_DAYS", 60),
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return fallback
}
