// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package stream

import (
	"context"
	"testing"
	"time"

	"github.com/pdiddy/trendscope/internal/store"
	"github.com/pdiddy/trendscope/pkg/types"
)

const testInterval = 5 * time.Millisecond

func newTestStore(t *testing.T) store.Store {
	t.Helper()
	s := store.NewMemoryStore(types.StoreConfig{}, nil)
	t.Cleanup(func() { s.Close() })
	return s
}

func collectUpdates(t *testing.T, ch <-chan types.ProgressUpdate) []types.ProgressUpdate {
	t.Helper()
	var updates []types.ProgressUpdate
	deadline := time.After(5 * time.Second)
	for {
		select {
		case u, ok := <-ch:
			if !ok {
				return updates
			}
			updates = append(updates, u)
		case <-deadline:
			t.Fatalf("channel did not close, got %d updates so far", len(updates))
		}
	}
}

func TestSubscribeEmitsOnStatusChange(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()
	state := types.NewResearchState("AI agents")
	if err := st.Set(ctx, "r1", state); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	ch := Subscribe(ctx, st, "r1", testInterval)

	// Walk the store through the workflow statuses while the subscriber
	// polls. The ticker is far faster than the writes, so every transition
	// is observed and duplicate polls of an unchanged status emit nothing.
	transitions := []types.ResearchStatus{
		types.StatusSearching,
		types.StatusSearchCompleted,
		types.StatusCompleted,
	}
	go func() {
		for _, s := range transitions {
			time.Sleep(10 * testInterval)
			state.Status = s
			st.Set(ctx, "r1", state)
		}
	}()

	updates := collectUpdates(t, ch)

	want := []types.ResearchStatus{
		types.StatusInitialized,
		types.StatusSearching,
		types.StatusSearchCompleted,
		types.StatusCompleted,
	}
	if len(updates) != len(want) {
		t.Fatalf("got %d updates %v, want %d", len(updates), updates, len(want))
	}
	for i, u := range updates {
		if u.Status != want[i] {
			t.Errorf("updates[%d].Status = %q, want %q", i, u.Status, want[i])
		}
		if u.Message == "" {
			t.Errorf("updates[%d].Message empty", i)
		}
	}
	for i := 1; i < len(updates); i++ {
		if updates[i].Status == updates[i-1].Status {
			t.Errorf("consecutive updates share status %q", updates[i].Status)
		}
	}
}

func TestSubscribeTerminatesOnFailure(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()
	state := types.NewResearchState("query")
	state.Status = types.StatusFailed
	state.Error = "검색 결과를 찾을 수 없습니다. 다른 키워드로 다시 시도해주세요."
	if err := st.Set(ctx, "r1", state); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	updates := collectUpdates(t, Subscribe(ctx, st, "r1", testInterval))

	if len(updates) != 1 {
		t.Fatalf("got %d updates, want 1 terminal event", len(updates))
	}
	if updates[0].Status != types.StatusFailed || updates[0].Error != state.Error {
		t.Errorf("update = %+v, want failed with error message", updates[0])
	}
}

func TestSubscribeNotFoundClosesImmediately(t *testing.T) {
	st := newTestStore(t)

	updates := collectUpdates(t, Subscribe(context.Background(), st, "missing", testInterval))
	if len(updates) != 0 {
		t.Errorf("got %d updates for a missing session, want 0", len(updates))
	}
}

func TestSubscribeStopsOnCancel(t *testing.T) {
	st := newTestStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	state := types.NewResearchState("query")
	state.Status = types.StatusSearching
	if err := st.Set(context.Background(), "r1", state); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	ch := Subscribe(ctx, st, "r1", testInterval)

	// Drain the first event, then disconnect.
	select {
	case <-ch:
	case <-time.After(time.Second):
		t.Fatal("no initial event")
	}
	cancel()

	select {
	case _, ok := <-ch:
		if ok {
			t.Error("received event after cancellation, want closed channel")
		}
	case <-time.After(time.Second):
		t.Fatal("channel did not close after cancellation")
	}
}

func TestUpdateForCounters(t *testing.T) {
	state := types.NewResearchState("AI agents")
	state.Status = types.StatusCompleted
	state.RawResults = make([]types.SearchResult, 7)
	state.Clusters = make([]types.ClusterInfo, 2)
	state.Insights = &types.InsightResult{Insights: []string{"a", "b", "c"}}

	u := updateFor(state)
	if u.ResultsCount != 7 || u.ClustersCount != 2 || u.InsightsCount != 3 {
		t.Errorf("counters = (%d, %d, %d), want (7, 2, 3)", u.ResultsCount, u.ClustersCount, u.InsightsCount)
	}
	if u.Node != "insight" {
		t.Errorf("Node = %q, want insight", u.Node)
	}
}
