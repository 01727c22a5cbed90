// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"github.com/pdiddy/trendscope/pkg/types"
)

// SQLiteStore persists session snapshots as JSON rows so sessions survive a
// process restart. One row per session; Set replaces the whole snapshot.
type SQLiteStore struct {
	db     *sql.DB
	drain  time.Duration
	logger *zap.Logger

	stop     chan struct{}
	stopOnce sync.Once
}

// NewSQLiteStore opens or creates the session database at cfg.Path and
// starts the eviction janitor.
func NewSQLiteStore(cfg types.StoreConfig, logger *zap.Logger) (*SQLiteStore, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("sqlite store requires a database path")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	if dir := filepath.Dir(cfg.Path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", cfg.Path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if _, err := db.Exec(
		`CREATE TABLE IF NOT EXISTS sessions (
			id TEXT PRIMARY KEY,
			status TEXT NOT NULL,
			state TEXT NOT NULL,
			updated_at TEXT NOT NULL
		)`,
	); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	drain := cfg.DrainInterval
	if drain <= 0 {
		drain = 10 * time.Minute
	}
	s := &SQLiteStore{
		db:     db,
		drain:  drain,
		logger: logger,
		stop:   make(chan struct{}),
	}
	go s.janitor()
	return s, nil
}

// Get returns the stored state for id, or ErrNotFound.
func (s *SQLiteStore) Get(ctx context.Context, id string) (*types.ResearchState, error) {
	var raw string
	err := s.db.QueryRowContext(ctx,
		`SELECT state FROM sessions WHERE id = ?`, id,
	).Scan(&raw)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("reading session %s: %w", id, err)
	}

	var state types.ResearchState
	if err := json.Unmarshal([]byte(raw), &state); err != nil {
		return nil, fmt.Errorf("decoding session %s: %w", id, err)
	}
	return &state, nil
}

// Set replaces the snapshot for id.
func (s *SQLiteStore) Set(ctx context.Context, id string, state *types.ResearchState) error {
	raw, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("encoding session %s: %w", id, err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO sessions (id, status, state, updated_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
			status=excluded.status, state=excluded.state, updated_at=excluded.updated_at`,
		id, string(state.Status), string(raw),
		time.Now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("writing session %s: %w", id, err)
	}
	return nil
}

// Delete removes the snapshot for id, if any.
func (s *SQLiteStore) Delete(ctx context.Context, id string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE id = ?`, id); err != nil {
		return fmt.Errorf("deleting session %s: %w", id, err)
	}
	return nil
}

// Close stops the janitor and releases the database connection.
func (s *SQLiteStore) Close() error {
	s.stopOnce.Do(func() { close(s.stop) })
	return s.db.Close()
}

func (s *SQLiteStore) janitor() {
	ticker := time.NewTicker(janitorTick)
	defer ticker.Stop()
	for {
		select {
		case <-s.stop:
			return
		case <-ticker.C:
			s.evictFinished(time.Now())
		}
	}
}

func (s *SQLiteStore) evictFinished(now time.Time) {
	cutoff := now.Add(-s.drain).UTC().Format(time.RFC3339Nano)
	res, err := s.db.Exec(
		`DELETE FROM sessions WHERE status IN (?, ?) AND updated_at < ?`,
		string(types.StatusCompleted), string(types.StatusFailed), cutoff,
	)
	if err != nil {
		s.logger.Warn("session eviction failed", zap.Error(err))
		return
	}
	if n, err := res.RowsAffected(); err == nil && n > 0 {
		s.logger.Debug("evicted finished sessions", zap.Int64("count", n))
	}
}
