// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package store

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/pdiddy/trendscope/pkg/types"
)

// janitorTick is how often finished sessions are checked for eviction.
const janitorTick = time.Minute

type memoryEntry struct {
	state   *types.ResearchState
	touched time.Time
}

// MemoryStore keeps session snapshots in a process-local map. Terminal
// sessions are evicted once they have sat untouched for the drain interval,
// so streaming observers have time to read the final snapshot.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry

	drain  time.Duration
	logger *zap.Logger

	stop     chan struct{}
	stopOnce sync.Once
}

// NewMemoryStore builds a memory store and starts its eviction janitor.
func NewMemoryStore(cfg types.StoreConfig, logger *zap.Logger) *MemoryStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	drain := cfg.DrainInterval
	if drain <= 0 {
		drain = 10 * time.Minute
	}
	s := &MemoryStore{
		entries: make(map[string]memoryEntry),
		drain:   drain,
		logger:  logger,
		stop:    make(chan struct{}),
	}
	go s.janitor()
	return s
}

// Get returns a deep copy of the stored state, or ErrNotFound.
func (s *MemoryStore) Get(_ context.Context, id string) (*types.ResearchState, error) {
	s.mu.RLock()
	entry, ok := s.entries[id]
	s.mu.RUnlock()
	if !ok {
		return nil, ErrNotFound
	}
	return entry.state.Clone(), nil
}

// Set stores a deep copy of state under id, replacing any previous snapshot.
func (s *MemoryStore) Set(_ context.Context, id string, state *types.ResearchState) error {
	s.mu.Lock()
	s.entries[id] = memoryEntry{state: state.Clone(), touched: time.Now()}
	s.mu.Unlock()
	return nil
}

// Delete removes the snapshot for id, if any.
func (s *MemoryStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	delete(s.entries, id)
	s.mu.Unlock()
	return nil
}

// Close stops the eviction janitor.
func (s *MemoryStore) Close() error {
	s.stopOnce.Do(func() { close(s.stop) })
	return nil
}

func (s *MemoryStore) janitor() {
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

// evictFinished drops terminal sessions untouched for the drain interval.
func (s *MemoryStore) evictFinished(now time.Time) {
	cutoff := now.Add(-s.drain)
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, entry := range s.entries {
		if entry.state.Status.Terminal() && entry.touched.Before(cutoff) {
			delete(s.entries, id)
			s.logger.Debug("evicted finished session",
				zap.String("id", id),
				zap.String("status", string(entry.state.Status)))
		}
	}
}
