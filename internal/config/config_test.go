package config

import (
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("KRECORDS_DATABASE_URL", "postgres://localhost/krecords")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.HTTPAddr != ":8080" {
		t.Errorf("HTTPAddr: got %q", cfg.HTTPAddr)
	}
	if cfg.SyncInterval != 3*time.Minute {
		t.Errorf("SyncInterval: got %v", cfg.SyncInterval)
	}
	if cfg.SyncS3Region != "us-east-1" {
		t.Errorf("SyncS3Region: got %q", cfg.SyncS3Region)
	}
	if cfg.SyncS3Key != "krecords/snapshot.jsonl" {
		t.Errorf("SyncS3Key: got %q", cfg.SyncS3Key)
	}
	if cfg.NATSURL != "" || cfg.AuthToken != "" {
		t.Error("optional settings should default to empty")
	}
}

func TestLoad_RequiresDatabaseURL(t *testing.T) {
	t.Setenv("KRECORDS_DATABASE_URL", "")

	if _, err := Load(); err == nil {
		t.Fatal("expected error without KRECORDS_DATABASE_URL")
	}
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("KRECORDS_DATABASE_URL", "postgres://db/krecords")
	t.Setenv("KRECORDS_HTTP_ADDR", ":9999")
	t.Setenv("KRECORDS_NATS_URL", "nats://localhost:4222")
	t.Setenv("KRECORDS_AUTH_TOKEN", "secret")
	t.Setenv("KRECORDS_SYNC_INTERVAL", "30s")
	t.Setenv("KRECORDS_SYNC_S3_BUCKET", "snapshots")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.HTTPAddr != ":9999" || cfg.NATSURL != "nats://localhost:4222" || cfg.AuthToken != "secret" {
		t.Errorf("overrides not applied: %+v", cfg)
	}
	if cfg.SyncInterval != 30*time.Second || cfg.SyncS3Bucket != "snapshots" {
		t.Errorf("snapshot settings not applied: %+v", cfg)
	}
}

func TestLoad_BadInterval(t *testing.T) {
	t.Setenv("KRECORDS_DATABASE_URL", "postgres://db/krecords")
	t.Setenv("KRECORDS_SYNC_INTERVAL", "soon")

	if _, err := Load(); err == nil {
		t.Fatal("expected error for unparseable interval")
	}
}
