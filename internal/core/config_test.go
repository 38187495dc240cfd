package core

import (
	"pantry/internal/blob"
	"pantry/internal/infra/persistence/sqlite"
	"testing"
)

func TestLoadConfigDefaults(t *testing.T) {
	for _, key := range []string{
		"PANTRY_STORAGE_DRIVER", "PANTRY_SQLITE_PATH", "PANTRY_POSTGRES_DSN",
		"PANTRY_BLOB_DRIVER", "PANTRY_BLOB_S3_PATH_STYLE", "PANTRY_LOG_LEVEL", "PANTRY_METRICS",
	} {
		t.Setenv(key, "")
	}
	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Storage != StorageMemory || cfg.SQLitePath != sqlite.DefaultPath || cfg.Blob.Driver != blob.DriverFilesystem {
		t.Fatalf("unexpected defaults %+v", cfg)
	}
	if cfg.LogLevel != "info" || cfg.Metrics != MetricsNone {
		t.Fatalf("unexpected defaults %+v", cfg)
	}
}

func TestLoadConfigFromEnvironment(t *testing.T) {
	t.Setenv("PANTRY_STORAGE_DRIVER", "sqlite")
	t.Setenv("PANTRY_SQLITE_PATH", "/tmp/x.db")
	t.Setenv("PANTRY_BLOB_DRIVER", "s3")
	t.Setenv("PANTRY_BLOB_S3_BUCKET", "fixtures")
	t.Setenv("PANTRY_BLOB_S3_PATH_STYLE", "true")
	t.Setenv("PANTRY_LOG_LEVEL", "DEBUG")
	t.Setenv("PANTRY_METRICS", "prometheus")
	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Storage != StorageSQLite || cfg.SQLitePath != "/tmp/x.db" {
		t.Fatalf("unexpected storage %+v", cfg)
	}
	if cfg.Blob.Driver != blob.DriverS3 || cfg.Blob.S3.Bucket != "fixtures" || !cfg.Blob.S3.PathStyle {
		t.Fatalf("unexpected blob %+v", cfg.Blob)
	}
	if cfg.LogLevel != "debug" || cfg.Metrics != MetricsPrometheus {
		t.Fatalf("unexpected observability %+v", cfg)
	}

	t.Setenv("PANTRY_BLOB_S3_PATH_STYLE", "maybe")
	if _, err := LoadConfig(); err == nil {
		t.Fatalf("expected path style parse error")
	}
}

func TestConfigValidate(t *testing.T) {
	valid := Config{Storage: StorageMemory}
	if err := valid.Validate(); err != nil {
		t.Fatalf("valid: %v", err)
	}
	cases := map[string]Config{
		"storage":   {Storage: "mongo"},
		"blob":      {Storage: StorageMemory, Blob: blob.Config{Driver: "ftp"}},
		"s3 bucket": {Storage: StorageMemory, Blob: blob.Config{Driver: blob.DriverS3}},
		"log level": {Storage: StorageMemory, LogLevel: "loud"},
		"metrics":   {Storage: StorageMemory, Metrics: "statsd"},
	}
	for name, cfg := range cases {
		t.Run(name, func(t *testing.T) {
			if err := cfg.Validate(); err == nil {
				t.Fatalf("expected error for %+v", cfg)
			}
		})
	}
}
