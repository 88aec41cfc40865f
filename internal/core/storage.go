package core

import (
	"fmt"

	"bizcore/internal/infra/persistence/memory"
	"bizcore/internal/infra/persistence/postgres"
	"bizcore/internal/infra/persistence/sqlite"
	"bizcore/pkg/domain"
)

// StorageDriver identifies a concrete persistent storage implementation.
type StorageDriver string

const (
	StorageMemory   StorageDriver = "memory"   // in-memory only (tests / ephemeral)
	StorageSQLite   StorageDriver = "sqlite"   // embedded sqlite file
	StoragePostgres StorageDriver = "postgres" // PostgreSQL server
)

type (
	Transaction     = domain.Transaction
	TransactionView = domain.TransactionView
	PersistentStore = domain.PersistentStore
)

// StorageConfig selects and parameterises a persistence backend. The core
// is configured explicitly by its embedder; it reads no environment
// variables.
type StorageConfig struct {
	Driver      StorageDriver
	SQLitePath  string // sqlite file path when Driver == sqlite (default ./bizcore.db)
	PostgresDSN string // DSN when Driver == postgres
}

// OpenPersistentStore selects a backend from config. Defaults to sqlite
// when the driver is unset.
func OpenPersistentStore(cfg StorageConfig, engine *RulesEngine) (PersistentStore, error) {
	driver := cfg.Driver
	if driver == "" {
		driver = StorageSQLite
	}
	switch driver {
	case StorageMemory:
		return memory.NewStore(engine), nil
	case StorageSQLite:
		return sqlite.NewStore(cfg.SQLitePath, engine)
	case StoragePostgres:
		return postgres.NewStore(cfg.PostgresDSN, engine)
	default:
		return nil, fmt.Errorf("unknown storage driver %s", driver)
	}
}
