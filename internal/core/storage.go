package core

import (
	"context"
	"fmt"
	"pantry/internal/infra/persistence/memory"
	"pantry/internal/infra/persistence/postgres"
	"pantry/internal/infra/persistence/sqlite"
	"pantry/internal/infra/persistence/sqlstore"
	"pantry/pkg/domain"

	"github.com/prometheus/client_golang/prometheus"
)

// StorageDriver identifies a concrete repository backend.
type StorageDriver string

const (
	StorageMemory   StorageDriver = "memory"   // in-process entity stores
	StorageSQLite   StorageDriver = "sqlite"   // embedded sqlite file
	StoragePostgres StorageDriver = "postgres" // PostgreSQL server
)

// Repositories is an opened backend. Close releases its connections.
type Repositories struct {
	domain.Repositories
	Driver StorageDriver
	// Memory is set when Driver is StorageMemory.
	Memory *memory.Catalog
	// SQL is set for the sqlite and postgres drivers.
	SQL *sqlstore.Catalog
}

// Close releases the backend. Memory backends keep their contents.
func (r *Repositories) Close() error {
	if r.SQL != nil {
		return r.SQL.Close()
	}
	return nil
}

// Counts reports the number of stored entities per kind.
func (r *Repositories) Counts(ctx context.Context) (map[domain.EntityType]int64, error) {
	if r.SQL != nil {
		return r.SQL.Counts(ctx)
	}
	out := make(map[domain.EntityType]int64)
	for kind, n := range r.Memory.Registry.Counts() {
		out[kind] = int64(n)
	}
	return out, nil
}

type openOptions struct {
	registry *memory.Registry
	logger   Logger
	recorder MetricsRecorder
	promReg  prometheus.Registerer
}

// Option configures OpenRepositories.
type Option func(*openOptions)

// WithRegistry backs the memory driver with r instead of the shared registry.
func WithRegistry(r *memory.Registry) Option {
	return func(o *openOptions) { o.registry = r }
}

// WithLogger routes diagnostics to logger.
func WithLogger(logger Logger) Option {
	return func(o *openOptions) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithMetrics installs rec instead of the recorder named by Config.Metrics.
func WithMetrics(rec MetricsRecorder) Option {
	return func(o *openOptions) { o.recorder = rec }
}

// WithPrometheusRegisterer registers prometheus collectors with reg.
func WithPrometheusRegisterer(reg prometheus.Registerer) Option {
	return func(o *openOptions) { o.promReg = reg }
}

// OpenRepositories selects and opens the backend named by cfg.Storage, then
// wraps it with the configured metrics recorder.
func OpenRepositories(ctx context.Context, cfg Config, opts ...Option) (*Repositories, error) {
	o := openOptions{logger: noopLogger{}}
	for _, opt := range opts {
		opt(&o)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	rec := o.recorder
	if rec == nil {
		var err error
		if rec, err = NewMetricsRecorder(cfg.Metrics, o.promReg); err != nil {
			return nil, err
		}
	}

	out := &Repositories{Driver: cfg.Storage}
	switch cfg.Storage {
	case StorageMemory:
		reg := o.registry
		if reg == nil {
			reg = memory.Shared()
		}
		c, err := memory.NewCatalog(reg)
		if err != nil {
			return nil, err
		}
		out.Memory = c
		out.Repositories = c.Repositories()
	case StorageSQLite:
		c, err := sqlite.Open(ctx, cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		out.SQL = c
		out.Repositories = c.Repositories()
	case StoragePostgres:
		c, err := postgres.Open(ctx, cfg.PostgresDSN)
		if err != nil {
			return nil, err
		}
		out.SQL = c
		out.Repositories = c.Repositories()
	default:
		return nil, fmt.Errorf("unknown storage driver %s", cfg.Storage)
	}
	out.Repositories = Instrument(out.Repositories, rec)
	o.logger.Info("repositories opened", "driver", string(cfg.Storage), "metrics", string(cfg.Metrics))
	return out, nil
}
