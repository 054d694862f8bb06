// Package sqlitestore persists snapshots in SQLite, keeping an append-only
// history per document key. Load returns the most recent snapshot; History
// exposes prior flushes for inspection.
package sqlitestore

import (
	"context"
	"database/sql"
	"encoding/json"
	_ "embed"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/kvisten/autosave/store"
)

//go:embed schema.sql
var schemaSQL string

// Schema version tracking:
// 0 - Initial schema (pre-migration)
// 1 - Added UNIQUE index on snapshots.snapshot_id
const currentSchemaVersion = 1

// Store is a snapshot history for one document key.
// Uses SQLite with WAL mode for concurrent read access.
type Store[T any] struct {
	db  *sql.DB
	key string
}

// Open creates or opens a SQLite database at path, bound to the document
// identified by key. Applies required pragmas and migrations automatically.
//
// The database is configured with:
//   - WAL mode for concurrent reads during writes
//   - NORMAL synchronous mode (balance durability/performance)
//   - 5-second busy timeout for lock contention
//
// This function is idempotent - safe to call multiple times.
func Open[T any](path, key string) (*Store[T], error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("sqlitestore: open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlitestore: connect: %w", err)
	}

	// SQLite only supports one writer at a time, so limit connections.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := applyPragmas(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlitestore: apply pragmas: %w", err)
	}
	if err := applySchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlitestore: apply schema: %w", err)
	}
	return &Store[T]{db: db, key: store.Key(key)}, nil
}

// Close closes the database connection.
func (s *Store[T]) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Load implements store.Store: returns the most recent snapshot for the key.
func (s *Store[T]) Load(ctx context.Context) (T, store.Meta, bool, error) {
	var zero T
	row := s.db.QueryRowContext(ctx, `
		SELECT snapshot_id, saved_at, payload
		FROM snapshots
		WHERE key = ?
		ORDER BY seq DESC
		LIMIT 1
	`, s.key)

	var snapshotID, savedAt, payload string
	err := row.Scan(&snapshotID, &savedAt, &payload)
	if err == sql.ErrNoRows {
		return zero, store.Meta{}, false, nil
	}
	if err != nil {
		return zero, store.Meta{}, false, fmt.Errorf("sqlitestore: load %q: %w", s.key, err)
	}

	meta, err := metaFromRow(snapshotID, savedAt)
	if err != nil {
		return zero, store.Meta{}, false, err
	}
	var snapshot T
	if err := json.Unmarshal([]byte(payload), &snapshot); err != nil {
		return zero, store.Meta{}, false, fmt.Errorf("sqlitestore: decode snapshot %s: %w", snapshotID, err)
	}
	return snapshot, meta, true, nil
}

// Save implements store.Store: appends a new snapshot row for the key.
func (s *Store[T]) Save(ctx context.Context, snapshot T, meta store.Meta) (store.Meta, error) {
	meta = store.Stamp(meta)
	payload, err := json.Marshal(snapshot)
	if err != nil {
		return store.Meta{}, fmt.Errorf("sqlitestore: encode snapshot: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO snapshots (key, snapshot_id, saved_at, payload)
		VALUES (?, ?, ?, ?)
	`, s.key, meta.SnapshotID, meta.SavedAt.UTC().Format(time.RFC3339Nano), string(payload))
	if err != nil {
		return store.Meta{}, fmt.Errorf("sqlitestore: save %q: %w", s.key, err)
	}
	return meta, nil
}

// History returns metadata for up to limit snapshots, newest first.
// limit <= 0 means no limit.
func (s *Store[T]) History(ctx context.Context, limit int) ([]store.Meta, error) {
	if limit <= 0 {
		limit = -1 // SQLite treats a negative LIMIT as unlimited
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT snapshot_id, saved_at
		FROM snapshots
		WHERE key = ?
		ORDER BY seq DESC
		LIMIT ?
	`, s.key, limit)
	if err != nil {
		return nil, fmt.Errorf("sqlitestore: history %q: %w", s.key, err)
	}
	defer rows.Close()

	var history []store.Meta
	for rows.Next() {
		var snapshotID, savedAt string
		if err := rows.Scan(&snapshotID, &savedAt); err != nil {
			return nil, fmt.Errorf("sqlitestore: scan history row: %w", err)
		}
		meta, err := metaFromRow(snapshotID, savedAt)
		if err != nil {
			return nil, err
		}
		history = append(history, meta)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlitestore: iterate history: %w", err)
	}
	return history, nil
}

func metaFromRow(snapshotID, savedAt string) (store.Meta, error) {
	ts, err := time.Parse(time.RFC3339Nano, savedAt)
	if err != nil {
		return store.Meta{}, fmt.Errorf("sqlitestore: parse saved_at %q: %w", savedAt, err)
	}
	return store.Meta{SnapshotID: snapshotID, SavedAt: ts}, nil
}

// applyPragmas sets required SQLite configuration.
func applyPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return fmt.Errorf("execute %q: %w", pragma, err)
		}
	}
	return nil
}

// applySchema creates tables if they don't exist and runs migrations.
// This function is idempotent.
func applySchema(db *sql.DB) error {
	if _, err := db.Exec(schemaSQL); err != nil {
		return fmt.Errorf("execute schema: %w", err)
	}
	return runMigrations(db)
}

// runMigrations applies incremental schema migrations based on user_version.
func runMigrations(db *sql.DB) error {
	var version int
	if err := db.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		return fmt.Errorf("get user_version: %w", err)
	}

	if version < 1 {
		if err := migrateToV1(db); err != nil {
			return err
		}
	}

	if _, err := db.Exec(fmt.Sprintf("PRAGMA user_version = %d", currentSchemaVersion)); err != nil {
		return fmt.Errorf("set user_version: %w", err)
	}
	return nil
}

// migrateToV1 adds the UNIQUE index on snapshots.snapshot_id for databases
// created before v1. New databases get it from schema.sql.
func migrateToV1(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE UNIQUE INDEX IF NOT EXISTS idx_snapshots_snapshot_id
		ON snapshots(snapshot_id)
	`)
	if err != nil {
		return fmt.Errorf("migrate to v1: %w", err)
	}
	return nil
}
