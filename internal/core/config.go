package core

import (
	"fmt"
	"os"
	"pantry/internal/blob"
	"pantry/internal/infra/persistence/postgres"
	"pantry/internal/infra/persistence/sqlite"
	"strconv"
	"strings"
)

// MetricsBackend names the recorder OpenRepositories installs.
type MetricsBackend string

const (
	MetricsNone       MetricsBackend = "none"
	MetricsExpvar     MetricsBackend = "expvar"
	MetricsPrometheus MetricsBackend = "prometheus"
)

// Config gathers every setting the service layer reads from the environment.
type Config struct {
	Storage     StorageDriver
	SQLitePath  string
	PostgresDSN string
	Blob        blob.Config
	LogLevel    string
	Metrics     MetricsBackend
}

// LoadConfig reads configuration from the environment.
//
//	PANTRY_STORAGE_DRIVER: memory|sqlite|postgres (default memory)
//	PANTRY_SQLITE_PATH: sqlite file (default ./pantry.db)
//	PANTRY_POSTGRES_DSN: postgres DSN
//	PANTRY_BLOB_DRIVER: fs|s3|memory (default fs)
//	PANTRY_BLOB_FS_ROOT: directory for the fs driver
//	PANTRY_BLOB_S3_BUCKET, _REGION, _ENDPOINT, _PATH_STYLE,
//	_ACCESS_KEY_ID, _SECRET_ACCESS_KEY, _SESSION_TOKEN: s3 driver settings
//	PANTRY_LOG_LEVEL: debug|info|warn|error (default info)
//	PANTRY_METRICS: none|expvar|prometheus (default none)
func LoadConfig() (Config, error) {
	cfg := Config{
		Storage:     StorageDriver(env("PANTRY_STORAGE_DRIVER", string(StorageMemory))),
		SQLitePath:  env("PANTRY_SQLITE_PATH", sqlite.DefaultPath),
		PostgresDSN: env("PANTRY_POSTGRES_DSN", postgres.DefaultDSN),
		Blob: blob.Config{
			Driver: blob.Driver(env("PANTRY_BLOB_DRIVER", string(blob.DriverFilesystem))),
			FSRoot: os.Getenv("PANTRY_BLOB_FS_ROOT"),
			S3: blob.S3Config{
				Bucket:          os.Getenv("PANTRY_BLOB_S3_BUCKET"),
				Region:          os.Getenv("PANTRY_BLOB_S3_REGION"),
				Endpoint:        os.Getenv("PANTRY_BLOB_S3_ENDPOINT"),
				AccessKeyID:     os.Getenv("PANTRY_BLOB_S3_ACCESS_KEY_ID"),
				SecretAccessKey: os.Getenv("PANTRY_BLOB_S3_SECRET_ACCESS_KEY"),
				SessionToken:    os.Getenv("PANTRY_BLOB_S3_SESSION_TOKEN"),
			},
		},
		LogLevel: strings.ToLower(env("PANTRY_LOG_LEVEL", "info")),
		Metrics:  MetricsBackend(env("PANTRY_METRICS", string(MetricsNone))),
	}
	if v := os.Getenv("PANTRY_BLOB_S3_PATH_STYLE"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return Config{}, fmt.Errorf("PANTRY_BLOB_S3_PATH_STYLE: %w", err)
		}
		cfg.Blob.S3.PathStyle = b
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects unknown drivers and levels.
func (c Config) Validate() error {
	switch c.Storage {
	case StorageMemory, StorageSQLite, StoragePostgres:
	default:
		return fmt.Errorf("unknown storage driver %s", c.Storage)
	}
	switch c.Blob.Driver {
	case "", blob.DriverFilesystem, blob.DriverMemory:
	case blob.DriverS3:
		if c.Blob.S3.Bucket == "" {
			return fmt.Errorf("blob driver s3 requires PANTRY_BLOB_S3_BUCKET")
		}
	default:
		return fmt.Errorf("unknown blob driver %s", c.Blob.Driver)
	}
	switch c.LogLevel {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("unknown log level %s", c.LogLevel)
	}
	switch c.Metrics {
	case "", MetricsNone, MetricsExpvar, MetricsPrometheus:
	default:
		return fmt.Errorf("unknown metrics backend %s", c.Metrics)
	}
	return nil
}

func env(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
