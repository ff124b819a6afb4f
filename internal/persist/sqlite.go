package persist

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"github.com/banisterious/obsidian-oneirometrics-sub006/pkg/types"
)

const payloadKey = "taxonomy"

const (
	createSettings = `CREATE TABLE IF NOT EXISTS settings (
    key TEXT PRIMARY KEY,
    value TEXT NOT NULL,
    updated_at TEXT NOT NULL
);`

	createSaveHistory = `CREATE TABLE IF NOT EXISTS save_history (
    history_id INTEGER PRIMARY KEY AUTOINCREMENT,
    key TEXT NOT NULL,
    version TEXT,
    bytes INTEGER NOT NULL,
    saved_at TEXT NOT NULL
);`
)

// SQLite stores the payload as a JSON document in a settings table and
// records every save in save_history.
type SQLite struct {
	mu sync.Mutex
	db *sql.DB
}

// OpenSQLite opens (or creates) the database at path and ensures the schema.
func OpenSQLite(path string) (*SQLite, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating data dir: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	for _, ddl := range []string{createSettings, createSaveHistory} {
		if _, err := db.Exec(ddl); err != nil {
			db.Close()
			return nil, fmt.Errorf("creating schema: %w", err)
		}
	}
	return &SQLite{db: db}, nil
}

// Load reads the stored payload, or nil when none was saved.
func (s *SQLite) Load(ctx context.Context) (*types.Payload, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db == nil {
		return nil, types.ErrStoreClosed
	}

	var value string
	err := s.db.QueryRowContext(ctx, "SELECT value FROM settings WHERE key = ?", payloadKey).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying settings: %w", err)
	}
	var p types.Payload
	if err := json.Unmarshal([]byte(value), &p); err != nil {
		return nil, fmt.Errorf("decoding payload: %w", err)
	}
	return &p, nil
}

// Save upserts the payload and appends a history row in one transaction.
func (s *SQLite) Save(ctx context.Context, p types.Payload) error {
	data, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("encoding payload: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db == nil {
		return types.ErrStoreClosed
	}

	now := time.Now().UTC().Format(time.RFC3339Nano)
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning save transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO settings (key, value, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		payloadKey, string(data), now,
	)
	if err != nil {
		return fmt.Errorf("writing settings: %w", err)
	}

	var version sql.NullString
	if p.Version != nil {
		version = sql.NullString{String: *p.Version, Valid: true}
	}
	_, err = tx.ExecContext(ctx,
		"INSERT INTO save_history (key, version, bytes, saved_at) VALUES (?, ?, ?, ?)",
		payloadKey, version, len(data), now,
	)
	if err != nil {
		return fmt.Errorf("writing save history: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing save transaction: %w", err)
	}
	return nil
}

// SaveCount returns the number of recorded saves.
func (s *SQLite) SaveCount(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db == nil {
		return 0, types.ErrStoreClosed
	}
	var n int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM save_history").Scan(&n); err != nil {
		return 0, fmt.Errorf("counting saves: %w", err)
	}
	return n, nil
}

// Close closes the database. Idempotent.
func (s *SQLite) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}
