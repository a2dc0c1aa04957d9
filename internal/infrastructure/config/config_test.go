package config

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/sethvargo/go-envconfig"
)

func TestLoadFrom_Defaults(t *testing.T) {
	cfg, err := LoadFrom(context.Background(), envconfig.MapLookuper(map[string]string{
		"DATABASE_URL": "postgres://localhost/escrow",
	}))
	if err != nil {
		t.Fatalf("LoadFrom error: %v", err)
	}
	if cfg.Port != "8080" || cfg.Env != "development" {
		t.Errorf("unexpected defaults: port=%s env=%s", cfg.Port, cfg.Env)
	}
	if cfg.SessionTTL != 24*time.Hour || cfg.SessionSweepInterval != 15*time.Minute {
		t.Errorf("unexpected session durations: %v %v", cfg.SessionTTL, cfg.SessionSweepInterval)
	}
	if cfg.Database.MaxOpenConns != 25 || !cfg.Database.AutoMigrate {
		t.Errorf("unexpected database defaults: %+v", cfg.Database)
	}
	if cfg.Blob.Backend != BlobBackendGridFS || cfg.MaxAttachmentBytes != 10<<20 {
		t.Errorf("unexpected blob defaults: %+v", cfg.Blob)
	}
	if cfg.Redis.Addr != "" {
		t.Errorf("redis must be disabled by default, got %q", cfg.Redis.Addr)
	}
}

func TestLoadFrom_RequiresDatabaseURL(t *testing.T) {
	_, err := LoadFrom(context.Background(), envconfig.MapLookuper(map[string]string{}))
	if err == nil || !strings.Contains(err.Error(), "DATABASE_URL") {
		t.Fatalf("expected DATABASE_URL error, got %v", err)
	}
}

func TestLoadFrom_ValidatesBlobBackend(t *testing.T) {
	cases := map[string]map[string]string{
		"unknown backend":   {"BLOB_BACKEND": "ftp"},
		"s3 without bucket": {"BLOB_BACKEND": "s3"},
	}
	for name, env := range cases {
		t.Run(name, func(t *testing.T) {
			env["DATABASE_URL"] = "postgres://localhost/escrow"
			if _, err := LoadFrom(context.Background(), envconfig.MapLookuper(env)); err == nil {
				t.Fatal("expected validation error")
			}
		})
	}
}

func TestLoadFrom_Overrides(t *testing.T) {
	cfg, err := LoadFrom(context.Background(), envconfig.MapLookuper(map[string]string{
		"DATABASE_URL":    "postgres://db/escrow",
		"ENV":             "production",
		"SESSION_TTL":     "2h",
		"BLOB_BACKEND":    "s3",
		"S3_BUCKET":       "escrow-files",
		"REDIS_ADDR":      "redis:6379",
		"DB_AUTO_MIGRATE": "false",
	}))
	if err != nil {
		t.Fatalf("LoadFrom error: %v", err)
	}
	if !cfg.IsProduction() || cfg.SessionTTL != 2*time.Hour || cfg.Database.AutoMigrate {
		t.Errorf("overrides not applied: %+v", cfg)
	}
	if cfg.Blob.S3Bucket != "escrow-files" || cfg.Redis.Addr != "redis:6379" {
		t.Errorf("unexpected values: %+v %+v", cfg.Blob, cfg.Redis)
	}
}
