// Package state persists per-output build signatures so one-shot builds can
// skip outputs whose full reference-set content is unchanged.
package state

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

// Store is a SQLite-backed signature store.
type Store struct {
	db *sql.DB
	mu sync.Mutex
}

// Open creates a signature store. Use ":memory:" for an in-memory database,
// or a file path for persistent storage.
func Open(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	s := &Store{db: db}
	if err := s.initialize(); err != nil {
		_ = db.Close() // Best effort cleanup on initialization error
		return nil, fmt.Errorf("initialize schema: %w", err)
	}
	return s, nil
}

func (s *Store) initialize() error {
	schema := `
	CREATE TABLE IF NOT EXISTS signatures (
		output TEXT PRIMARY KEY,
		signature TEXT NOT NULL,
		built_at INTEGER NOT NULL
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Get returns the stored signature for output, or "" when none exists.
func (s *Store) Get(ctx context.Context, output string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var sig string
	err := s.db.QueryRowContext(ctx, "SELECT signature FROM signatures WHERE output = ?", output).Scan(&sig)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("query signature: %w", err)
	}
	return sig, nil
}

// Put records output's signature, replacing any previous one.
func (s *Store) Put(ctx context.Context, output, signature string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO signatures (output, signature, built_at) VALUES (?, ?, ?)
		 ON CONFLICT(output) DO UPDATE SET signature = excluded.signature, built_at = excluded.built_at`,
		output, signature, time.Now().Unix(),
	)
	if err != nil {
		return fmt.Errorf("store signature: %w", err)
	}
	return nil
}

// Close releases the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}
