// Package sqlite provides the SQLite-backed catalog repositories.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"pantry/internal/infra/persistence/sqlstore"
	"path/filepath"

	_ "modernc.org/sqlite" // pure go sqlite driver
)

const (
	driverName = "sqlite"
	// DefaultPath is used when Open receives an empty path.
	DefaultPath = "pantry.db"
	// InMemory opens a private database that lives as long as the catalog.
	InMemory = ":memory:"
)

// Open creates (or reopens) the SQLite database at path, applies the catalog
// schema, and returns repositories over it.
func Open(ctx context.Context, path string) (*sqlstore.Catalog, error) {
	if path == "" {
		path = DefaultPath
	}
	if path != InMemory {
		if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil && !errors.Is(err, os.ErrExist) {
			return nil, fmt.Errorf("create dirs: %w", err)
		}
	}
	db, err := sql.Open(driverName, path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// One connection keeps ":memory:" databases alive and the foreign key
	// pragma in effect; SQLite serialises writers anyway.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)
	if _, err := db.ExecContext(ctx, `PRAGMA foreign_keys = ON`); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}
	cat, err := sqlstore.Open(ctx, db, sqlstore.SQLite)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return cat, nil
}
