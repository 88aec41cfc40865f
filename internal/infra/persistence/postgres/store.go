// Package postgres provides a Postgres-backed persistent store that mirrors
// the in-memory semantics, snapshotting each collection into a JSONB state
// table after every committed transaction.
package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"

	_ "github.com/jackc/pgx/v5/stdlib" // register pgx as a database/sql driver

	"bizcore/internal/infra/persistence/memory"
	"bizcore/pkg/domain"
)

// Compile-time contract assertion ensuring the store satisfies the domain interface.
var _ domain.PersistentStore = (*Store)(nil)

const (
	defaultDriver = "pgx"
	defaultDSN    = "postgres://localhost/bizcore?sslmode=disable"
)

var (
	sqlOpen = sql.Open
	openMu  sync.Mutex
)

var postgresBuckets = []string{"contacts", "plans", "documents", "profile", "onboarding"}

// Corruption records one bucket whose stored payload failed to decode.
type Corruption struct {
	Bucket string
	Raw    []byte
	Err    error
}

// LoadReport distinguishes cleanly loaded buckets from corrupted ones;
// corrupted buckets hydrate empty.
type LoadReport struct {
	Corrupted []Corruption
}

// Clean reports whether every bucket decoded.
func (r LoadReport) Clean() bool { return len(r.Corrupted) == 0 }

// Store persists state to Postgres while reusing the in-memory implementation for transactions.
type Store struct {
	*memory.Store
	db     *sql.DB
	mu     sync.Mutex
	report LoadReport
}

// NewStore opens a Postgres-backed store using the provided DSN (falls back
// to defaultDSN), ensures the snapshot table exists, and hydrates the
// in-memory store from any existing snapshot.
func NewStore(dsn string, engine *domain.RulesEngine) (*Store, error) {
	if dsn == "" {
		dsn = defaultDSN
	}
	openMu.Lock()
	db, err := sqlOpen(defaultDriver, dsn)
	openMu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	ctx := context.Background()
	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	if err := ensureStateTable(ctx, db); err != nil {
		return nil, err
	}
	mem := memory.NewStore(engine)
	s := &Store{Store: mem, db: db}
	snapshot, report, err := loadSnapshot(ctx, db)
	if err != nil {
		return nil, err
	}
	s.report = report
	mem.ImportState(snapshot)
	return s, nil
}

// RunInTransaction applies the provided function within a transaction, then snapshots to Postgres if successful.
func (s *Store) RunInTransaction(ctx context.Context, fn func(domain.Transaction) error) (domain.Result, error) {
	res, err := s.Store.RunInTransaction(ctx, fn)
	if err != nil {
		return res, err
	}
	if err := s.persist(ctx); err != nil {
		return res, err
	}
	return res, nil
}

// LoadReport describes the outcome of the startup load.
func (s *Store) LoadReport() LoadReport { return s.report }

// DB exposes the underlying sql.DB for integration testing hooks.
func (s *Store) DB() *sql.DB { return s.db }

func ensureStateTable(ctx context.Context, db *sql.DB) error {
	ddl := `CREATE TABLE IF NOT EXISTS state (
		bucket TEXT PRIMARY KEY,
		payload JSONB NOT NULL
	)`
	if _, err := db.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("ensure state table: %w", err)
	}
	return nil
}

func loadSnapshot(ctx context.Context, db *sql.DB) (memory.Snapshot, LoadReport, error) {
	rows, err := db.QueryContext(ctx, `SELECT bucket, payload FROM state`)
	if err != nil {
		return memory.Snapshot{}, LoadReport{}, fmt.Errorf("select state: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var snapshot memory.Snapshot
	var report LoadReport
	for rows.Next() {
		var bucket string
		var payload []byte
		if err := rows.Scan(&bucket, &payload); err != nil {
			return memory.Snapshot{}, LoadReport{}, fmt.Errorf("scan state: %w", err)
		}
		if len(payload) == 0 {
			continue
		}
		var target any
		switch bucket {
		case "contacts":
			target = &snapshot.Contacts
		case "plans":
			target = &snapshot.Plans
		case "documents":
			target = &snapshot.Documents
		case "profile":
			target = &snapshot.Profile
		case "onboarding":
			target = &snapshot.Onboarding
		default:
			continue
		}
		if err := json.Unmarshal(payload, target); err != nil {
			report.Corrupted = append(report.Corrupted, Corruption{Bucket: bucket, Raw: payload, Err: err})
		}
	}
	if err := rows.Err(); err != nil {
		return memory.Snapshot{}, LoadReport{}, fmt.Errorf("iterate state: %w", err)
	}
	return snapshot, report, nil
}

func (s *Store) persist(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	snapshot := s.ExportState()
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()
	for _, bucket := range postgresBuckets {
		var data []byte
		switch bucket {
		case "contacts":
			data, err = json.Marshal(snapshot.Contacts)
		case "plans":
			data, err = json.Marshal(snapshot.Plans)
		case "documents":
			data, err = json.Marshal(snapshot.Documents)
		case "profile":
			data, err = json.Marshal(snapshot.Profile)
		case "onboarding":
			data, err = json.Marshal(snapshot.Onboarding)
		}
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `INSERT INTO state(bucket,payload) VALUES($1,$2) ON CONFLICT(bucket) DO UPDATE SET payload=EXCLUDED.payload`, bucket, data); err != nil {
			return fmt.Errorf("upsert %s: %w", bucket, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	committed = true
	return nil
}

// OverrideSQLOpen swaps the sqlOpen function for tests and returns a restore function.
func OverrideSQLOpen(fn func(driverName, dataSourceName string) (*sql.DB, error)) func() {
	openMu.Lock()
	defer openMu.Unlock()
	prev := sqlOpen
	sqlOpen = fn
	return func() {
		openMu.Lock()
		defer openMu.Unlock()
		sqlOpen = prev
	}
}
