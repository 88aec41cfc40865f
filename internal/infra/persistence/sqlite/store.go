// Package sqlite provides the default durable backend. It reuses the
// in-memory store for transactional semantics and snapshots every
// collection to a single SQLite table as JSON payloads after each
// successful commit.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	_ "modernc.org/sqlite" // pure go sqlite driver

	"bizcore/internal/infra/persistence/memory"
	"bizcore/pkg/domain"
)

// Compile-time contract assertion ensuring the store satisfies the domain interface.
var _ domain.PersistentStore = (*Store)(nil)

// Bucket keys; stable across releases. Each collection bucket holds one
// JSON-encoded ordered sequence, the singleton buckets hold one object.
const (
	bucketContacts   = "contacts"
	bucketPlans      = "plans"
	bucketDocuments  = "documents"
	bucketProfile    = "profile"
	bucketOnboarding = "onboarding"
)

var sqliteBuckets = []string{bucketContacts, bucketPlans, bucketDocuments, bucketProfile, bucketOnboarding}

// Corruption records one bucket whose stored payload failed to decode.
type Corruption struct {
	Bucket string
	Raw    []byte
	Err    error
}

// LoadReport distinguishes cleanly loaded buckets from corrupted ones.
// Corrupted buckets degrade soft to empty collections (keeping the UI
// resilient), but the corruption stays observable here instead of being
// silently discarded.
type LoadReport struct {
	Corrupted []Corruption
}

// Clean reports whether every bucket decoded.
func (r LoadReport) Clean() bool { return len(r.Corrupted) == 0 }

// Store persists the in-memory state to a single SQLite table as JSON blobs.
// It snapshots the full state after every successful transaction.
type Store struct {
	*memory.Store
	db     *sql.DB
	mu     sync.Mutex
	path   string
	report LoadReport
}

// NewStore constructs a snapshotting SQLite-backed persistent store.
func NewStore(path string, engine *domain.RulesEngine) (*Store, error) {
	if path == "" {
		path = "bizcore.db"
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil && !errors.Is(err, os.ErrExist) {
			return nil, fmt.Errorf("create dirs: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS state (
		bucket TEXT PRIMARY KEY,
		payload BLOB NOT NULL
	)`); err != nil {
		return nil, fmt.Errorf("create state table: %w", err)
	}
	s := &Store{Store: memory.NewStore(engine), db: db, path: path}
	if err := s.load(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Store) load() error {
	rows, err := s.db.Query(`SELECT bucket, payload FROM state`)
	if err != nil {
		return fmt.Errorf("select state: %w", err)
	}
	defer func() { _ = rows.Close() }()

	snapshot := memory.Snapshot{}
	for rows.Next() {
		var bucket string
		var payload []byte
		if err := rows.Scan(&bucket, &payload); err != nil {
			return fmt.Errorf("scan: %w", err)
		}
		if len(payload) == 0 {
			continue
		}
		if err := decodeBucket(&snapshot, bucket, payload); err != nil {
			// Soft-fail: the bucket loads empty, the corruption is retained
			// for callers that want to surface a diagnostic.
			s.report.Corrupted = append(s.report.Corrupted, Corruption{Bucket: bucket, Raw: payload, Err: err})
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate state: %w", err)
	}
	s.ImportState(snapshot)
	return nil
}

func decodeBucket(snapshot *memory.Snapshot, bucket string, payload []byte) error {
	switch bucket {
	case bucketContacts:
		return json.Unmarshal(payload, &snapshot.Contacts)
	case bucketPlans:
		return json.Unmarshal(payload, &snapshot.Plans)
	case bucketDocuments:
		return json.Unmarshal(payload, &snapshot.Documents)
	case bucketProfile:
		return json.Unmarshal(payload, &snapshot.Profile)
	case bucketOnboarding:
		return json.Unmarshal(payload, &snapshot.Onboarding)
	default:
		// Unknown buckets are ignored for forward compatibility.
		return nil
	}
}

func encodeBucket(snapshot memory.Snapshot, bucket string) ([]byte, error) {
	switch bucket {
	case bucketContacts:
		return json.Marshal(snapshot.Contacts)
	case bucketPlans:
		return json.Marshal(snapshot.Plans)
	case bucketDocuments:
		return json.Marshal(snapshot.Documents)
	case bucketProfile:
		return json.Marshal(snapshot.Profile)
	case bucketOnboarding:
		return json.Marshal(snapshot.Onboarding)
	default:
		return nil, fmt.Errorf("unknown bucket %s", bucket)
	}
}

func (s *Store) persist() (retErr error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	snapshot := s.ExportState()
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer func() {
		if retErr != nil {
			_ = tx.Rollback()
		}
	}()
	for _, bucket := range sqliteBuckets {
		data, err := encodeBucket(snapshot, bucket)
		if err != nil {
			retErr = err
			return retErr
		}
		if _, err = tx.Exec(`INSERT INTO state(bucket,payload) VALUES(?,?) ON CONFLICT(bucket) DO UPDATE SET payload=excluded.payload`, bucket, data); err != nil {
			retErr = fmt.Errorf("upsert %s: %w", bucket, err)
			return retErr
		}
	}
	if err = tx.Commit(); err != nil {
		return err
	}
	return nil
}

// RunInTransaction applies the provided function within a transaction, then
// snapshots state to SQLite if successful. Snapshot failures (disk full,
// locked database) surface to the caller rather than being swallowed.
func (s *Store) RunInTransaction(ctx context.Context, fn func(domain.Transaction) error) (domain.Result, error) {
	res, err := s.Store.RunInTransaction(ctx, fn)
	if err != nil {
		return res, err
	}
	if pErr := s.persist(); pErr != nil {
		return res, pErr
	}
	return res, nil
}

// LoadReport describes the outcome of the startup load.
func (s *Store) LoadReport() LoadReport { return s.report }

// DB exposes the underlying sql.DB for integration testing hooks.
func (s *Store) DB() *sql.DB { return s.db }

// Path returns the configured database path.
func (s *Store) Path() string { return s.path }

// Close releases the underlying database handle.
func (s *Store) Close() error { return s.db.Close() }
