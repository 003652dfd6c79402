// Package sqlite provides a SQLite-backed persistent store that reuses the
// in-memory transactional semantics and snapshots the committed state to a
// single state table as JSON blobs.
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

	"freezercore/internal/infra/persistence/memory"
	"freezercore/pkg/domain"

	_ "modernc.org/sqlite" // pure go sqlite driver
)

// Compile-time contract assertion ensuring the store satisfies the domain interface.
var _ domain.PersistentStore = (*Store)(nil)

// Store persists the in-memory state to a single SQLite table as JSON blobs.
// It snapshots the full state after every successful transaction.
type Store struct {
	*memory.Store
	db   *sql.DB
	mu   sync.Mutex
	path string
}

// NewStore constructs a snapshotting SQLite-backed persistent store.
func NewStore(path string, engine *domain.RulesEngine) (*Store, error) {
	if path == "" {
		path = "freezercore.db"
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil && !errors.Is(err, os.ErrExist) {
		return nil, fmt.Errorf("create dirs: %w", err)
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
	mem := memory.NewStore(engine)
	s := &Store{Store: mem, db: db, path: path}
	if err := s.load(); err != nil {
		return nil, err
	}
	return s, nil
}

var sqliteBuckets = []string{"freezers", "racks", "boxes", "samples", "history", "meta"}

type snapshotMeta struct {
	Seq int64 `json:"seq"`
}

func (s *Store) load() error {
	rows, err := s.db.Query(`SELECT bucket, payload FROM state`)
	if err != nil {
		return fmt.Errorf("select state: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var (
		snapshot memory.Snapshot
		found    bool
	)
	for rows.Next() {
		var bucket string
		var payload []byte
		if err := rows.Scan(&bucket, &payload); err != nil {
			return fmt.Errorf("scan: %w", err)
		}
		found = true
		switch bucket {
		case "freezers":
			if err := json.Unmarshal(payload, &snapshot.Freezers); err != nil {
				return fmt.Errorf("decode freezers: %w", err)
			}
		case "racks":
			if err := json.Unmarshal(payload, &snapshot.Racks); err != nil {
				return fmt.Errorf("decode racks: %w", err)
			}
		case "boxes":
			if err := json.Unmarshal(payload, &snapshot.Boxes); err != nil {
				return fmt.Errorf("decode boxes: %w", err)
			}
		case "samples":
			if err := json.Unmarshal(payload, &snapshot.Samples); err != nil {
				return fmt.Errorf("decode samples: %w", err)
			}
		case "history":
			if err := json.Unmarshal(payload, &snapshot.History); err != nil {
				return fmt.Errorf("decode history: %w", err)
			}
		case "meta":
			var meta snapshotMeta
			if err := json.Unmarshal(payload, &meta); err != nil {
				return fmt.Errorf("decode meta: %w", err)
			}
			snapshot.Seq = meta.Seq
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate state: %w", err)
	}
	if !found {
		return nil
	}
	s.ImportState(snapshot)
	return nil
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
		var data []byte
		switch bucket {
		case "freezers":
			data, err = json.Marshal(snapshot.Freezers)
		case "racks":
			data, err = json.Marshal(snapshot.Racks)
		case "boxes":
			data, err = json.Marshal(snapshot.Boxes)
		case "samples":
			data, err = json.Marshal(snapshot.Samples)
		case "history":
			data, err = json.Marshal(snapshot.History)
		case "meta":
			data, err = json.Marshal(snapshotMeta{Seq: snapshot.Seq})
		}
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

// RunInTransaction applies the provided function within a transaction, then snapshots state to SQLite if successful.
func (s *Store) RunInTransaction(ctx context.Context, fn func(tx domain.Transaction) error) (domain.Result, error) {
	res, err := s.Store.RunInTransaction(ctx, fn)
	if err != nil {
		return res, err
	}
	if pErr := s.persist(); pErr != nil {
		return res, pErr
	}
	return res, nil
}

// DB exposes the underlying sql.DB for integration testing hooks.
func (s *Store) DB() *sql.DB { return s.db }

// Path returns the configured database path.
func (s *Store) Path() string { return s.path }

// Close releases the database handle.
func (s *Store) Close() error { return s.db.Close() }
