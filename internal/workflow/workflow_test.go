// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package workflow

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/pdiddy/trendscope/internal/collect"
	"github.com/pdiddy/trendscope/internal/store"
	"github.com/pdiddy/trendscope/pkg/types"
)

type fakeSearch struct {
	hits []collect.Hit
	err  error
}

func (f *fakeSearch) Name() string { return "fake" }

func (f *fakeSearch) Search(_ context.Context, _ string, _ int) ([]collect.Hit, error) {
	return f.hits, f.err
}

type fakeEmbed struct {
	vectors [][]float64
	err     error
	calls   int
}

func (f *fakeEmbed) Embed(_ context.Context, texts []string) ([][]float64, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	if f.vectors != nil {
		return f.vectors, nil
	}
	out := make([][]float64, len(texts))
	for i := range out {
		out[i] = []float64{float64(i), 0}
	}
	return out, nil
}

type fakeText struct {
	response string
	err      error
}

func (f *fakeText) Complete(_ context.Context, _, _ string) (string, error) {
	return f.response, f.err
}

// recordingStore wraps a memory store and records every published status.
type recordingStore struct {
	store.Store
	statuses []types.ResearchStatus
}

func newRecordingStore(t *testing.T) *recordingStore {
	t.Helper()
	mem := store.NewMemoryStore(types.StoreConfig{}, nil)
	t.Cleanup(func() { mem.Close() })
	return &recordingStore{Store: mem}
}

func (r *recordingStore) Set(ctx context.Context, id string, state *types.ResearchState) error {
	r.statuses = append(r.statuses, state.Status)
	return r.Store.Set(ctx, id, state)
}

func makeHits(n int) []collect.Hit {
	hits := make([]collect.Hit, n)
	for i := range hits {
		hits[i] = collect.Hit{
			Title:   fmt.Sprintf("문서 %d", i+1),
			URL:     fmt.Sprintf("https://site%d.example.com/a", i+1),
			Content: fmt.Sprintf("에이전트 자동화 관련 내용 %d", i+1),
			Score:   1.0,
		}
	}
	return hits
}

func newTestRunner(st store.Store, search *fakeSearch, embed *fakeEmbed, text *fakeText) *Runner {
	var cfg types.Config
	cfg.Defaults()
	return NewRunner(st, search, text, embed, cfg, nil)
}

func TestRunEmptySearchFails(t *testing.T) {
	st := newRecordingStore(t)
	embed := &fakeEmbed{}
	r := newTestRunner(st, &fakeSearch{}, embed, &fakeText{response: "이름"})

	_, state, err := r.Run(context.Background(), "AI agents")
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if state.Status != types.StatusFailed {
		t.Errorf("Status = %q, want failed", state.Status)
	}
	if state.Error != msgNoSearchResults {
		t.Errorf("Error = %q, want %q", state.Error, msgNoSearchResults)
	}
	if embed.calls != 0 {
		t.Errorf("embed called %d times after failed search, want 0", embed.calls)
	}
	want := []types.ResearchStatus{
		types.StatusInitialized,
		types.StatusSearching,
		types.StatusFailed,
	}
	if !reflect.DeepEqual(st.statuses, want) {
		t.Errorf("published statuses = %v, want %v", st.statuses, want)
	}
	if state.CompletedAt.IsZero() {
		t.Error("CompletedAt not set on terminal state")
	}
}

func TestRunSearchErrorFails(t *testing.T) {
	st := newRecordingStore(t)
	r := newTestRunner(st, &fakeSearch{err: errors.New("connection refused")}, &fakeEmbed{}, &fakeText{})

	_, state, err := r.Run(context.Background(), "AI agents")
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if state.Status != types.StatusFailed {
		t.Errorf("Status = %q, want failed", state.Status)
	}
	if !strings.Contains(state.Error, "connection refused") {
		t.Errorf("Error = %q, want collector error message", state.Error)
	}
}

func TestRunEmbeddingErrorFails(t *testing.T) {
	st := newRecordingStore(t)
	embed := &fakeEmbed{err: &types.EmbeddingError{Err: errors.New("api down")}}
	r := newTestRunner(st, &fakeSearch{hits: makeHits(6)}, embed, &fakeText{response: "이름"})

	_, state, err := r.Run(context.Background(), "AI agents")
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if state.Status != types.StatusFailed {
		t.Errorf("Status = %q, want failed", state.Status)
	}
	if state.Error == "" {
		t.Error("Error empty, want embedding failure message")
	}
	// Search output survives the failed analysis.
	if len(state.RawResults) != 6 {
		t.Errorf("RawResults = %d, want 6", len(state.RawResults))
	}
}

func TestRunSmallCorpusSkipsClustering(t *testing.T) {
	st := newRecordingStore(t)
	r := newTestRunner(st, &fakeSearch{hits: makeHits(4)}, &fakeEmbed{}, &fakeText{response: "이름"})

	_, state, err := r.Run(context.Background(), "AI 에이전트 시장")
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if state.Status != types.StatusCompleted {
		t.Fatalf("Status = %q (error %q), want completed", state.Status, state.Error)
	}
	if len(state.Clusters) != 1 {
		t.Fatalf("Clusters = %d, want 1", len(state.Clusters))
	}
	c := state.Clusters[0]
	if c.Name != "AI 에이전트 시장" || c.Size != 4 {
		t.Errorf("cluster = {Name: %q, Size: %d}, want query-named cluster of 4", c.Name, c.Size)
	}
	if len(c.Documents) != 3 {
		t.Errorf("representatives = %d, want 3", len(c.Documents))
	}
	if state.ClusterLabels != nil {
		t.Errorf("ClusterLabels = %v, want nil when clustering skipped", state.ClusterLabels)
	}
	if state.Insights == nil {
		t.Fatal("Insights nil after completed run")
	}

	var sawSkipped bool
	for _, s := range st.statuses {
		if s == types.StatusClusteringSkipped {
			sawSkipped = true
		}
		if s == types.StatusClusteringCompleted {
			t.Error("published clustering_completed for a 4-document corpus")
		}
	}
	if !sawSkipped {
		t.Errorf("statuses %v missing clustering_skipped", st.statuses)
	}
}

func TestRunClustersFiveDocs(t *testing.T) {
	st := newRecordingStore(t)
	// Two well-separated blobs: three documents near the origin, two far out.
	embed := &fakeEmbed{vectors: [][]float64{
		{0.0, 0.1}, {0.1, 0.0}, {0.2, 0.1},
		{10.0, 10.1}, {10.1, 10.0},
	}}
	r := newTestRunner(st, &fakeSearch{hits: makeHits(5)}, embed, &fakeText{response: "주제 이름"})

	_, state, err := r.Run(context.Background(), "AI agents")
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if state.Status != types.StatusCompleted {
		t.Fatalf("Status = %q (error %q), want completed", state.Status, state.Error)
	}
	if len(state.ClusterLabels) != len(state.RawResults) {
		t.Errorf("len(ClusterLabels) = %d, want %d", len(state.ClusterLabels), len(state.RawResults))
	}
	if len(state.Clusters) != 2 {
		t.Fatalf("Clusters = %d, want 2 for five documents", len(state.Clusters))
	}

	// Every cluster ID is distinct and appears among the labels; sizes are
	// consistent with the label assignment.
	seen := make(map[int]bool)
	for _, c := range state.Clusters {
		if seen[c.ID] {
			t.Errorf("duplicate cluster ID %d", c.ID)
		}
		seen[c.ID] = true
		n := 0
		for _, l := range state.ClusterLabels {
			if l == c.ID {
				n++
			}
		}
		if n != c.Size {
			t.Errorf("cluster %d Size = %d, labels say %d", c.ID, c.Size, n)
		}
		if n == 0 {
			t.Errorf("cluster ID %d never appears in labels", c.ID)
		}
		if len(c.Documents) > maxRepresentatives {
			t.Errorf("cluster %d has %d representatives, cap is %d", c.ID, len(c.Documents), maxRepresentatives)
		}
		if c.Name != "주제 이름" {
			t.Errorf("cluster %d Name = %q, want generated name", c.ID, c.Name)
		}
	}

	var sawCompleted bool
	for _, s := range st.statuses {
		if s == types.StatusClusteringCompleted {
			sawCompleted = true
		}
	}
	if !sawCompleted {
		t.Errorf("statuses %v missing clustering_completed", st.statuses)
	}
}

func TestRunInsightDegradationStillCompletes(t *testing.T) {
	st := newRecordingStore(t)
	// Text generation is down: naming falls back per cluster and synthesis
	// returns the statistical record, but the workflow still completes.
	text := &fakeText{err: errors.New("rate limited")}
	r := newTestRunner(st, &fakeSearch{hits: makeHits(4)}, &fakeEmbed{}, text)

	_, state, err := r.Run(context.Background(), "로봇")
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if state.Status != types.StatusCompleted {
		t.Fatalf("Status = %q (error %q), want completed", state.Status, state.Error)
	}
	if state.Insights == nil || len(state.Insights.Insights) != 3 {
		t.Fatalf("Insights = %+v, want three statistical statements", state.Insights)
	}
	if state.Insights.Summary != "Basic statistical summary (LLM unavailable)" {
		t.Errorf("Summary = %q, want unavailable marker", state.Insights.Summary)
	}
}

func TestSubmit(t *testing.T) {
	st := newRecordingStore(t)
	r := newTestRunner(st, &fakeSearch{hits: makeHits(4)}, &fakeEmbed{}, &fakeText{response: "이름"})
	ctx := context.Background()

	id, err := r.Submit(ctx, "AI agents")
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	if id == "" {
		t.Fatal("Submit() returned empty id")
	}

	deadline := time.After(5 * time.Second)
	for {
		state, err := st.Get(ctx, id)
		if err != nil {
			t.Fatalf("Get() error = %v", err)
		}
		if state.Status.Terminal() {
			if state.Status != types.StatusCompleted {
				t.Errorf("Status = %q (error %q), want completed", state.Status, state.Error)
			}
			return
		}
		select {
		case <-deadline:
			t.Fatalf("workflow did not reach a terminal state, last status %q", state.Status)
		case <-time.After(10 * time.Millisecond):
		}
	}
}

func TestSubmitEmptyQuery(t *testing.T) {
	st := newRecordingStore(t)
	r := newTestRunner(st, &fakeSearch{}, &fakeEmbed{}, &fakeText{})

	if _, err := r.Submit(context.Background(), "   "); err == nil {
		t.Error("Submit() with blank query expected error, got nil")
	}
}

func TestMergeLeavesUntouchedFields(t *testing.T) {
	state := types.NewResearchState("query")
	state.RawResults = []types.SearchResult{{Title: "doc"}}
	state.Status = types.StatusAnalyzing

	merge(state, delta{Status: types.StatusFailed, Error: "boom"})

	if len(state.RawResults) != 1 {
		t.Errorf("RawResults = %v, want untouched", state.RawResults)
	}
	if state.Status != types.StatusFailed || state.Error != "boom" {
		t.Errorf("state = {%q, %q}, want failed/boom", state.Status, state.Error)
	}
	if state.CompletedAt.IsZero() {
		t.Error("CompletedAt not set by terminal merge")
	}
}
