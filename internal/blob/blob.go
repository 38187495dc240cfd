// Package blob selects a blob storage backend and re-exports its contract so
// callers never import internal/infra/blob directly.
package blob

import (
	"context"
	"fmt"
	"pantry/internal/blob/core"
	"pantry/internal/infra/blob/fs"
	memorystore "pantry/internal/infra/blob/memory"
	infraS3 "pantry/internal/infra/blob/s3"
)

type (
	// Driver identifies a blob backend.
	Driver = core.Driver
	// PutOptions configures a blob write.
	PutOptions = core.PutOptions
	// Info describes stored blob metadata.
	Info = core.Info
	// Store is the blob storage contract.
	Store = core.Store
	// S3Config configures the S3 backend.
	S3Config = infraS3.Config
)

const (
	// DriverFilesystem is the local filesystem driver.
	DriverFilesystem = core.DriverFilesystem
	// DriverS3 is the S3-compatible driver.
	DriverS3 = core.DriverS3
	// DriverMemory is the in-memory driver.
	DriverMemory = core.DriverMemory
)

var (
	// ErrNotFound reports a missing blob.
	ErrNotFound = core.ErrNotFound
	// ErrExists reports a create-only write onto an existing key.
	ErrExists = core.ErrExists
)

// Config selects and configures a backend.
type Config struct {
	Driver Driver
	// FSRoot is the directory used by the fs driver.
	FSRoot string
	S3     S3Config
}

// Open builds the backend named by cfg.Driver (fs when empty).
func Open(ctx context.Context, cfg Config) (Store, error) {
	switch cfg.Driver {
	case "", DriverFilesystem:
		return fs.New(cfg.FSRoot)
	case DriverS3:
		return infraS3.New(ctx, cfg.S3)
	case DriverMemory:
		return memorystore.New(), nil
	default:
		return nil, fmt.Errorf("unknown blob driver %s", cfg.Driver)
	}
}

// NewMemory returns an empty in-memory store.
func NewMemory() Store { return memorystore.New() }

// NewMockS3ForTests returns an S3 store talking to an in-process fake endpoint.
func NewMockS3ForTests() Store { return infraS3.NewMockForTests() }
