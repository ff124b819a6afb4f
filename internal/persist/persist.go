// Package persist implements the durable storage behind the taxonomy store:
// an atomic JSON file, a SQLite settings table, and an in-memory store for
// tests. All three hold a single opaque payload.
package persist

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/banisterious/obsidian-oneirometrics-sub006/pkg/types"
)

// Persister loads and saves the store payload.
type Persister interface {
	// Load returns the persisted payload, or nil when nothing was saved yet.
	Load(ctx context.Context) (*types.Payload, error)
	// Save replaces the persisted payload.
	Save(ctx context.Context, p types.Payload) error
	// Close releases backend resources. Idempotent.
	Close() error
}

// File names inside the data directory.
const (
	JSONFileName   = "taxonomy.json"
	SQLiteFileName = "taxonomy.db"
)

// Open returns the persister selected by cfg.Backend.
func Open(cfg types.Config) (Persister, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	dataDir := cfg.DataDir
	if dataDir == "" {
		dataDir = "."
	}
	switch cfg.Backend {
	case types.BackendJSON:
		return NewFile(filepath.Join(dataDir, JSONFileName))
	case types.BackendSQLite:
		return OpenSQLite(filepath.Join(dataDir, SQLiteFileName))
	case types.BackendMemory:
		return NewMemory(), nil
	default:
		return nil, fmt.Errorf("%w: %s", types.ErrBackendUnknown, cfg.Backend)
	}
}
