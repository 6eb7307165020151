// Package sqlite implements the SQLite storage backend for the Fable story
// engine: schema management, transactional CRUD over users, progress,
// dialogs, and choices, graph validation, and fallback story synthesis.
package sqlite

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"github.com/mesh-intelligence/fable/pkg/types"
)

// DBFileName is the SQLite database file created inside DataDir.
const DBFileName = "story.db"

// Compile-time interface check: Store must implement Repository.
var _ types.Repository = (*Store)(nil)

// Store implements the Repository interface over a single SQLite database.
// It is the only component permitted to mutate persisted state. Reads may
// interleave freely; writes take the exclusive lock so each mutation observes
// full isolation from concurrent writes in this process.
type Store struct {
	mu     sync.RWMutex
	closed bool
	cfg    types.Config
	db     *sql.DB
	log    *zap.Logger
}

// Open creates the data directory if needed, opens (or creates) the database,
// brings the schema to the current version, and guarantees the story graph is
// non-empty and navigable before returning. A nil logger is replaced with a
// no-op logger.
//
// Schema creation failure and an unsupported on-disk schema version are
// unrecoverable: Open returns the error and the store must not be used.
func Open(cfg types.Config, log *zap.Logger) (*Store, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if log == nil {
		log = zap.NewNop()
	}

	dataDir := cfg.DataDir
	if dataDir == "" {
		dataDir = "."
	}
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}

	db, err := sql.Open("sqlite", filepath.Join(dataDir, DBFileName))
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// Referential integrity for the session. Only choice sources carry a
	// declared foreign key; see schema.go for the columns left unenforced.
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}

	s := &Store{cfg: cfg, db: db, log: log}

	fresh, err := s.isFresh()
	if err != nil {
		db.Close()
		return nil, err
	}

	if fresh {
		if err := s.initializeSchema(); err != nil {
			db.Close()
			return nil, fmt.Errorf("initialize schema: %w", err)
		}
		if err := s.seedStory(); err != nil {
			db.Close()
			return nil, err
		}
	} else {
		if err := s.upgradeSchema(); err != nil {
			db.Close()
			return nil, err
		}
	}

	return s, nil
}

// Close releases the database connection. Idempotent: repeated calls succeed.
// After Close, all operations return ErrStoreClosed.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true

	if s.db != nil {
		if err := s.db.Close(); err != nil {
			return fmt.Errorf("close database: %w", err)
		}
		s.db = nil
	}
	return nil
}

// isFresh reports whether the database has no schema yet.
func (s *Store) isFresh() (bool, error) {
	var n int
	err := s.db.QueryRow(
		"SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = 'users'",
	).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("inspect schema: %w", err)
	}
	return n == 0, nil
}

// checkOpenRead acquires the read lock and verifies the store is usable.
// The caller must release via s.mu.RUnlock when err is nil.
func (s *Store) checkOpenRead() error {
	s.mu.RLock()
	if s.closed {
		s.mu.RUnlock()
		return types.ErrStoreClosed
	}
	return nil
}

// checkOpenWrite acquires the write lock and verifies the store is usable.
// The caller must release via s.mu.Unlock when err is nil.
func (s *Store) checkOpenWrite() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return types.ErrStoreClosed
	}
	return nil
}
