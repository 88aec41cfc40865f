package core_test

import (
	"context"
	"path/filepath"
	"testing"

	core "bizcore/internal/core"
	"bizcore/pkg/domain"
)

func TestOpenPersistentStoreMemory(t *testing.T) {
	store, err := core.OpenPersistentStore(core.StorageConfig{Driver: core.StorageMemory}, nil)
	if err != nil {
		t.Fatalf("open memory store: %v", err)
	}
	if _, err := store.RunInTransaction(context.Background(), func(tx core.Transaction) error {
		tx.SaveContact(domain.Contact{Name: "Ann", Email: "ann@shop.com"})
		return nil
	}); err != nil {
		t.Fatalf("transaction: %v", err)
	}
	if got := len(store.ListContacts()); got != 1 {
		t.Fatalf("expected 1 contact, got %d", got)
	}
}

func TestOpenPersistentStoreDefaultsToSQLite(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "core.db")
	store, err := core.OpenPersistentStore(core.StorageConfig{SQLitePath: dbPath}, core.NewDefaultRulesEngine())
	if err != nil {
		t.Fatalf("open default store: %v", err)
	}
	ctx := context.Background()
	var created domain.BusinessPlan
	if _, err := store.RunInTransaction(ctx, func(tx core.Transaction) error {
		created = tx.SavePlan(domain.BusinessPlan{Title: "Grow", Type: domain.PlanTypeStrategic})
		return nil
	}); err != nil {
		t.Fatalf("transaction: %v", err)
	}

	reopened, err := core.OpenPersistentStore(core.StorageConfig{Driver: core.StorageSQLite, SQLitePath: dbPath}, nil)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	if _, ok := reopened.GetPlan(created.ID); !ok {
		t.Fatalf("plan must survive a reopen")
	}
}

func TestOpenPersistentStoreUnknownDriver(t *testing.T) {
	if _, err := core.OpenPersistentStore(core.StorageConfig{Driver: "tape"}, nil); err == nil {
		t.Fatalf("unknown driver must fail")
	}
}
