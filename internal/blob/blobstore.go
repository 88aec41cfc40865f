// Package blob re-exports core blob abstractions and wires the concrete
// backends. Only this package may import the infra implementations; other
// packages depend on the blob.Store interface.
package blob

import (
	"context"
	"fmt"

	"bizcore/internal/blob/core"
	fsblob "bizcore/internal/infra/blob/fs"
	memblob "bizcore/internal/infra/blob/memory"
	s3blob "bizcore/internal/infra/blob/s3"
)

type (
	// Driver identifies a blob backend driver.
	Driver = core.Driver
	// PutOptions configures a blob write.
	PutOptions = core.PutOptions
	// SignedURLOptions configures URL pre-signing.
	SignedURLOptions = core.SignedURLOptions
	// Info describes stored blob metadata.
	Info = core.Info
	// Store is the interface for blob storage backends.
	Store = core.Store
	// S3Config holds S3 driver construction parameters.
	S3Config = s3blob.Config
)

const (
	// DriverFilesystem is the local filesystem driver.
	DriverFilesystem = core.DriverFilesystem
	// DriverS3 is the S3-compatible driver.
	DriverS3 = core.DriverS3
	// DriverMemory is the in-memory test driver.
	DriverMemory = core.DriverMemory
)

// ErrUnsupported indicates an operation isn't supported by a driver.
var ErrUnsupported = core.ErrUnsupported

// ErrNotFound indicates the blob key does not exist.
var ErrNotFound = core.ErrNotFound

// Config selects and parameterises a blob backend. Configuration is always
// explicit; the core reads no environment variables.
type Config struct {
	Driver Driver
	FSRoot string // directory root when Driver == fs
	S3     S3Config
}

// NewFilesystem returns a filesystem blob store rooted at path.
func NewFilesystem(root string) (Store, error) { return fsblob.New(root) }

// NewMemory returns an in-memory blob store for tests.
func NewMemory() Store { return memblob.New() }

// NewS3 returns an S3-compatible blob store.
func NewS3(ctx context.Context, cfg S3Config) (Store, error) { return s3blob.New(ctx, cfg) }

// Open selects a Store implementation from Config. Defaults to filesystem.
func Open(ctx context.Context, cfg Config) (Store, error) {
	driver := cfg.Driver
	if driver == "" {
		driver = DriverFilesystem
	}
	switch driver {
	case DriverFilesystem:
		return NewFilesystem(cfg.FSRoot)
	case DriverS3:
		return NewS3(ctx, cfg.S3)
	case DriverMemory:
		return NewMemory(), nil
	default:
		return nil, fmt.Errorf("unknown blob driver %s", driver)
	}
}
