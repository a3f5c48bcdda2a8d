package config

import (
	"fmt"
	"os"
	"time"
)

type Config struct {
	DatabaseURL string // KRECORDS_DATABASE_URL (required)
	HTTPAddr    string // KRECORDS_HTTP_ADDR (default ":8080")
	NATSURL     string // KRECORDS_NATS_URL (optional, empty = no events)
	AuthToken   string // KRECORDS_AUTH_TOKEN (optional, empty = auth disabled)

	// Snapshot settings
	SyncInterval   time.Duration // KRECORDS_SYNC_INTERVAL (default 3m; 0 = disabled)
	SyncS3Bucket   string        // KRECORDS_SYNC_S3_BUCKET (enables S3 when set)
	SyncS3Endpoint string        // KRECORDS_SYNC_S3_ENDPOINT (custom endpoint for MinIO)
	SyncS3Region   string        // KRECORDS_SYNC_S3_REGION (default "us-east-1")
	SyncS3Key      string        // KRECORDS_SYNC_S3_KEY (default "krecords/snapshot.jsonl")
}

func Load() (*Config, error) {
	c := &Config{
		DatabaseURL:    os.Getenv("KRECORDS_DATABASE_URL"),
		HTTPAddr:       envOrDefault("KRECORDS_HTTP_ADDR", ":8080"),
		NATSURL:        os.Getenv("KRECORDS_NATS_URL"),
		AuthToken:      os.Getenv("KRECORDS_AUTH_TOKEN"),
		SyncS3Bucket:   os.Getenv("KRECORDS_SYNC_S3_BUCKET"),
		SyncS3Endpoint: os.Getenv("KRECORDS_SYNC_S3_ENDPOINT"),
		SyncS3Region:   envOrDefault("KRECORDS_SYNC_S3_REGION", "us-east-1"),
		SyncS3Key:      envOrDefault("KRECORDS_SYNC_S3_KEY", "krecords/snapshot.jsonl"),
	}
	if c.DatabaseURL == "" {
		return nil, fmt.Errorf("KRECORDS_DATABASE_URL is required")
	}

	intervalStr := envOrDefault("KRECORDS_SYNC_INTERVAL", "3m")
	if intervalStr != "" {
		d, err := time.ParseDuration(intervalStr)
		if err != nil {
			return nil, fmt.Errorf("KRECORDS_SYNC_INTERVAL: %w", err)
		}
		c.SyncInterval = d
	}

	return c, nil
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
