package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"bizcore/pkg/domain"
)

func newTestStore(t *testing.T, path string) *Store {
	t.Helper()
	store, err := NewStore(path, nil)
	if err != nil {
		t.Fatalf("new sqlite store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestSnapshotReload(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "state.db")
	store := newTestStore(t, dbPath)
	ctx := context.Background()

	var created domain.Contact
	if _, err := store.RunInTransaction(ctx, func(tx domain.Transaction) error {
		created = tx.SaveContact(domain.Contact{Name: "Ann", Email: "ann@example.com"})
		tx.SetProfile(domain.UserProfile{FirstName: "Ann", Email: "ann@example.com"})
		return nil
	}); err != nil {
		t.Fatalf("seed: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	reopened := newTestStore(t, dbPath)
	if !reopened.LoadReport().Clean() {
		t.Fatalf("expected clean load, got %+v", reopened.LoadReport())
	}
	got, ok := reopened.GetContact(created.ID)
	if !ok || got.Name != "Ann" {
		t.Fatalf("contact lost across reopen: %+v ok=%v", got, ok)
	}
	if !got.CreatedAt.Equal(created.CreatedAt) {
		t.Fatalf("timestamps must survive the round trip: %v vs %v", got.CreatedAt, created.CreatedAt)
	}
	if _, ok := reopened.GetProfile(); !ok {
		t.Fatalf("profile lost across reopen")
	}
}

func TestDefaultPath(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "nested", "dir", "state.db")
	store := newTestStore(t, dbPath)
	if store.Path() != dbPath {
		t.Fatalf("expected path %s, got %s", dbPath, store.Path())
	}
}

func TestCorruptedBucketLoadsEmptyButIsReported(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "state.db")
	store := newTestStore(t, dbPath)
	ctx := context.Background()
	if _, err := store.RunInTransaction(ctx, func(tx domain.Transaction) error {
		tx.SaveContact(domain.Contact{Name: "Ann", Email: "ann@example.com"})
		tx.SavePlan(domain.BusinessPlan{Title: "Growth"})
		return nil
	}); err != nil {
		t.Fatalf("seed: %v", err)
	}
	if _, err := store.DB().Exec(`UPDATE state SET payload = ? WHERE bucket = ?`, []byte("{not json"), "contacts"); err != nil {
		t.Fatalf("corrupt bucket: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	reopened := newTestStore(t, dbPath)
	report := reopened.LoadReport()
	if report.Clean() {
		t.Fatalf("expected corruption to be reported")
	}
	if len(report.Corrupted) != 1 || report.Corrupted[0].Bucket != "contacts" {
		t.Fatalf("unexpected corruption report: %+v", report.Corrupted)
	}
	if report.Corrupted[0].Err == nil || len(report.Corrupted[0].Raw) == 0 {
		t.Fatalf("corruption must retain the decode error and raw payload")
	}
	if got := len(reopened.ListContacts()); got != 0 {
		t.Fatalf("corrupted bucket must degrade to empty, got %d contacts", got)
	}
	if got := len(reopened.ListPlans()); got != 1 {
		t.Fatalf("healthy buckets must still load, got %d plans", got)
	}
}

func TestUnknownBucketIgnored(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "state.db")
	store := newTestStore(t, dbPath)
	if _, err := store.DB().Exec(`INSERT INTO state(bucket,payload) VALUES(?,?)`, "future_feature", []byte(`{"v":2}`)); err != nil {
		t.Fatalf("insert unknown bucket: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	reopened := newTestStore(t, dbPath)
	if !reopened.LoadReport().Clean() {
		t.Fatalf("unknown buckets must not be treated as corruption: %+v", reopened.LoadReport())
	}
}

func TestPersistAfterEveryCommit(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "state.db")
	store := newTestStore(t, dbPath)
	ctx := context.Background()
	if _, err := store.RunInTransaction(ctx, func(tx domain.Transaction) error {
		tx.SaveDocument(domain.DocumentItem{Filename: "a.pdf"})
		return nil
	}); err != nil {
		t.Fatalf("commit: %v", err)
	}

	var payload []byte
	if err := store.DB().QueryRow(`SELECT payload FROM state WHERE bucket = ?`, "documents").Scan(&payload); err != nil {
		t.Fatalf("documents bucket missing after commit: %v", err)
	}
	if len(payload) == 0 || payload[0] != '[' {
		t.Fatalf("documents bucket must hold a JSON array, got %q", payload)
	}
}
