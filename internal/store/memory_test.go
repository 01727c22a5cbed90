// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/pdiddy/trendscope/pkg/types"
)

func TestMemoryStoreRoundTrip(t *testing.T) {
	s := NewMemoryStore(types.StoreConfig{}, nil)
	defer s.Close()
	ctx := context.Background()

	state := types.NewResearchState("AI 에이전트 시장")
	state.RawResults = []types.SearchResult{{Title: "doc", URL: "https://example.com"}}
	if err := s.Set(ctx, "r1", state); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	got, err := s.Get(ctx, "r1")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.Query != "AI 에이전트 시장" || len(got.RawResults) != 1 {
		t.Errorf("Get() = %+v, want stored state", got)
	}
}

func TestMemoryStoreNotFound(t *testing.T) {
	s := NewMemoryStore(types.StoreConfig{}, nil)
	defer s.Close()

	if _, err := s.Get(context.Background(), "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get() error = %v, want ErrNotFound", err)
	}
}

func TestMemoryStoreSnapshotIsolation(t *testing.T) {
	s := NewMemoryStore(types.StoreConfig{}, nil)
	defer s.Close()
	ctx := context.Background()

	state := types.NewResearchState("query")
	state.RawResults = []types.SearchResult{{Title: "original"}}
	if err := s.Set(ctx, "r1", state); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	// Mutations after Set must not leak into the store.
	state.RawResults[0].Title = "mutated after set"

	got, err := s.Get(ctx, "r1")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.RawResults[0].Title != "original" {
		t.Errorf("stored title = %q, want %q", got.RawResults[0].Title, "original")
	}

	// Mutations of a returned snapshot must not leak either.
	got.Status = types.StatusFailed
	again, err := s.Get(ctx, "r1")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if again.Status != types.StatusInitialized {
		t.Errorf("stored status = %q, want %q", again.Status, types.StatusInitialized)
	}
}

func TestMemoryStoreEviction(t *testing.T) {
	s := NewMemoryStore(types.StoreConfig{DrainInterval: 10 * time.Minute}, nil)
	defer s.Close()
	ctx := context.Background()

	finished := types.NewResearchState("done")
	finished.Status = types.StatusCompleted
	running := types.NewResearchState("running")
	running.Status = types.StatusAnalyzing
	if err := s.Set(ctx, "finished", finished); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	if err := s.Set(ctx, "running", running); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	// Before the drain interval elapses nothing is evicted.
	s.evictFinished(time.Now())
	if _, err := s.Get(ctx, "finished"); err != nil {
		t.Fatalf("finished session evicted before drain interval: %v", err)
	}

	// After the interval only the terminal session goes.
	s.evictFinished(time.Now().Add(11 * time.Minute))
	if _, err := s.Get(ctx, "finished"); !errors.Is(err, ErrNotFound) {
		t.Errorf("finished session Get() error = %v, want ErrNotFound", err)
	}
	if _, err := s.Get(ctx, "running"); err != nil {
		t.Errorf("running session evicted: %v", err)
	}
}

func TestMemoryStoreDelete(t *testing.T) {
	s := NewMemoryStore(types.StoreConfig{}, nil)
	defer s.Close()
	ctx := context.Background()

	if err := s.Set(ctx, "r1", types.NewResearchState("query")); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	if err := s.Delete(ctx, "r1"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, err := s.Get(ctx, "r1"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get() after delete error = %v, want ErrNotFound", err)
	}
	// Idempotent.
	if err := s.Delete(ctx, "r1"); err != nil {
		t.Errorf("repeat Delete() error = %v", err)
	}
}

func TestNewDispatch(t *testing.T) {
	s, err := New(types.StoreConfig{}, nil)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer s.Close()
	if _, ok := s.(*MemoryStore); !ok {
		t.Errorf("New() with empty backend = %T, want *MemoryStore", s)
	}

	if _, err := New(types.StoreConfig{Backend: "redis"}, nil); err == nil {
		t.Error("New() with unknown backend expected error, got nil")
	}
}
