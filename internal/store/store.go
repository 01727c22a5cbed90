// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package store persists research session state keyed by session ID. The
// default backend keeps sessions in process memory; the sqlite backend
// snapshots them to disk so sessions survive a restart. Both evict
// finished sessions after a configurable drain interval.
package store

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/pdiddy/trendscope/pkg/types"
)

// ErrNotFound reports a session ID with no stored state.
var ErrNotFound = errors.New("research session not found")

// Store reads and writes research session snapshots. Get returns a copy
// the caller may mutate freely; Set stores a copy of the given state.
// Delete is idempotent.
type Store interface {
	Get(ctx context.Context, id string) (*types.ResearchState, error)
	Set(ctx context.Context, id string, state *types.ResearchState) error
	Delete(ctx context.Context, id string) error
	Close() error
}

// New builds the store named by cfg.Backend.
func New(cfg types.StoreConfig, logger *zap.Logger) (Store, error) {
	switch cfg.Backend {
	case "", "memory":
		return NewMemoryStore(cfg, logger), nil
	case "sqlite":
		return NewSQLiteStore(cfg, logger)
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.Backend)
	}
}
