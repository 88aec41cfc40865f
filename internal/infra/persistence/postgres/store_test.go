package postgres

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"bizcore/pkg/domain"
)

func TestNewStoreEnsuresTableAndHydrates(t *testing.T) {
	db, conn := newStubDB()
	seed, _ := json.Marshal([]domain.Contact{{Base: domain.Base{ID: "c1"}, Name: "Ann", Email: "ann@example.com"}})
	conn.buckets["contacts"] = seed

	restore := OverrideSQLOpen(func(_, _ string) (*sql.DB, error) { return db, nil })
	defer restore()

	store, err := NewStore("", domain.NewRulesEngine())
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	if !store.LoadReport().Clean() {
		t.Fatalf("expected clean load, got %+v", store.LoadReport())
	}
	got, ok := store.GetContact("c1")
	if !ok || got.Name != "Ann" {
		t.Fatalf("expected hydrated contact, got %+v ok=%v", got, ok)
	}
	var sawDDL bool
	for _, stmt := range conn.execs {
		if strings.Contains(strings.ToUpper(stmt), "CREATE TABLE") {
			sawDDL = true
			break
		}
	}
	if !sawDDL {
		t.Fatalf("expected state table DDL, got execs: %v", conn.execs)
	}
}

func TestRunInTransactionPersistsEveryBucket(t *testing.T) {
	db, conn := newStubDB()
	restore := OverrideSQLOpen(func(_, _ string) (*sql.DB, error) { return db, nil })
	defer restore()

	store, err := NewStore("", nil)
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	if _, err := store.RunInTransaction(context.Background(), func(tx domain.Transaction) error {
		tx.SaveContact(domain.Contact{Name: "Ann", Email: "ann@example.com"})
		tx.SetOnboarding(domain.OnboardingData{BusinessName: "Acme"})
		return nil
	}); err != nil {
		t.Fatalf("commit: %v", err)
	}

	for _, bucket := range postgresBuckets {
		if _, ok := conn.buckets[bucket]; !ok {
			t.Fatalf("bucket %s not persisted; have %v", bucket, conn.buckets)
		}
	}
	var contacts []domain.Contact
	if err := json.Unmarshal(conn.buckets["contacts"], &contacts); err != nil {
		t.Fatalf("contacts payload not JSON: %v", err)
	}
	if len(contacts) != 1 || contacts[0].Name != "Ann" {
		t.Fatalf("unexpected persisted contacts: %+v", contacts)
	}
}

func TestCorruptedBucketHydratesEmptyButIsReported(t *testing.T) {
	db, conn := newStubDB()
	conn.buckets["plans"] = []byte("{not json")

	restore := OverrideSQLOpen(func(_, _ string) (*sql.DB, error) { return db, nil })
	defer restore()

	store, err := NewStore("", nil)
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	report := store.LoadReport()
	if report.Clean() || len(report.Corrupted) != 1 || report.Corrupted[0].Bucket != "plans" {
		t.Fatalf("unexpected load report: %+v", report)
	}
	if got := len(store.ListPlans()); got != 0 {
		t.Fatalf("corrupted bucket must hydrate empty, got %d plans", got)
	}
}

func TestPersistFailureSurfaces(t *testing.T) {
	db, conn := newStubDB()
	restore := OverrideSQLOpen(func(_, _ string) (*sql.DB, error) { return db, nil })
	defer restore()

	store, err := NewStore("", nil)
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	conn.failExec = true
	if _, err := store.RunInTransaction(context.Background(), func(tx domain.Transaction) error {
		tx.SaveContact(domain.Contact{Name: "Ann", Email: "ann@example.com"})
		return nil
	}); err == nil {
		t.Fatalf("snapshot write failure must surface to the caller")
	}
}

// Stub driver -----------------------------------------------------------------

type stubDriver struct {
	conn *stubConn
}

func (d *stubDriver) Open(string) (driver.Conn, error) { return d.conn, nil }

// stubConn emulates just enough of the state table for the store: a single
// bucket/payload map with upsert semantics.
type stubConn struct {
	mu       sync.Mutex
	buckets  map[string][]byte
	execs    []string
	failExec bool
}

func newStubDB() (*sql.DB, *stubConn) {
	conn := &stubConn{buckets: make(map[string][]byte)}
	name := fmt.Sprintf("stubpg%d", time.Now().UnixNano())
	sql.Register(name, &stubDriver{conn: conn})
	db, err := sql.Open(name, "stub")
	if err != nil {
		panic(err)
	}
	return db, conn
}

func (c *stubConn) Prepare(string) (driver.Stmt, error) { return nil, fmt.Errorf("not implemented") }
func (c *stubConn) Close() error                        { return nil }
func (c *stubConn) Begin() (driver.Tx, error) {
	return c.BeginTx(context.Background(), driver.TxOptions{})
}

func (c *stubConn) Ping(_ context.Context) error { return nil }

func (c *stubConn) BeginTx(_ context.Context, _ driver.TxOptions) (driver.Tx, error) {
	return stubTx{}, nil
}

func (c *stubConn) ExecContext(_ context.Context, query string, args []driver.NamedValue) (driver.Result, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.execs = append(c.execs, query)
	if c.failExec {
		return nil, fmt.Errorf("exec fail")
	}
	if strings.HasPrefix(strings.ToUpper(strings.TrimSpace(query)), "INSERT INTO STATE") {
		if len(args) != 2 {
			return nil, fmt.Errorf("expected bucket and payload args, got %d", len(args))
		}
		bucket, ok := args[0].Value.(string)
		if !ok {
			return nil, fmt.Errorf("bucket arg must be a string, got %T", args[0].Value)
		}
		payload, ok := args[1].Value.([]byte)
		if !ok {
			return nil, fmt.Errorf("payload arg must be bytes, got %T", args[1].Value)
		}
		c.buckets[bucket] = append([]byte(nil), payload...)
		return driver.RowsAffected(1), nil
	}
	return driver.RowsAffected(0), nil
}

func (c *stubConn) QueryContext(_ context.Context, query string, _ []driver.NamedValue) (driver.Rows, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !strings.Contains(strings.ToUpper(query), "FROM STATE") {
		return nil, fmt.Errorf("unexpected query %q", query)
	}
	rows := make([][]driver.Value, 0, len(c.buckets))
	for bucket, payload := range c.buckets {
		rows = append(rows, []driver.Value{bucket, append([]byte(nil), payload...)})
	}
	return &stubRows{cols: []string{"bucket", "payload"}, rows: rows}, nil
}

type stubTx struct{}

func (stubTx) Commit() error   { return nil }
func (stubTx) Rollback() error { return nil }

type stubRows struct {
	cols []string
	rows [][]driver.Value
	idx  int
}

func (r *stubRows) Columns() []string { return r.cols }
func (r *stubRows) Close() error      { return nil }

func (r *stubRows) Next(dest []driver.Value) error {
	if r.idx >= len(r.rows) {
		return io.EOF
	}
	copy(dest, r.rows[r.idx])
	r.idx++
	return nil
}
