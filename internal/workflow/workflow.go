// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package workflow drives one research request through its three stages:
// search, analysis, insight. Each stage produces a delta of the fields it
// changed; the runner merges the delta into the running state and publishes
// the merged snapshot to the store before the next stage starts. A failed
// search or analysis stage terminates the run; insight-level degradations
// never do.
package workflow

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/pdiddy/trendscope/internal/analyze"
	"github.com/pdiddy/trendscope/internal/collect"
	"github.com/pdiddy/trendscope/internal/insight"
	"github.com/pdiddy/trendscope/internal/llm"
	"github.com/pdiddy/trendscope/internal/store"
	"github.com/pdiddy/trendscope/pkg/types"
)

const (
	// minDocsForClustering is the corpus size below which the whole corpus
	// becomes a single cluster named after the query.
	minDocsForClustering = 5

	// topKeywords is how many keywords each cluster keeps.
	topKeywords = 5

	// maxRepresentatives caps the documents attached to one cluster.
	maxRepresentatives = 3
)

// User-facing failure messages.
const (
	msgNoSearchResults = "검색 결과를 찾을 수 없습니다. 다른 키워드로 다시 시도해주세요."
	msgNoAnalysisInput = "분석할 검색 결과가 없습니다."
)

// delta is the set of fields one stage changed. Merge applies only the
// populated fields, so a failed stage touches nothing but status and error.
type delta struct {
	RawResults    []types.SearchResult
	Embeddings    [][]float64
	ClusterLabels []int
	Clusters      []types.ClusterInfo
	Insights      *types.InsightResult
	Status        types.ResearchStatus
	Error         string
}

func merge(state *types.ResearchState, d delta) {
	if d.RawResults != nil {
		state.RawResults = d.RawResults
	}
	if d.Embeddings != nil {
		state.Embeddings = d.Embeddings
	}
	if d.ClusterLabels != nil {
		state.ClusterLabels = d.ClusterLabels
	}
	if d.Clusters != nil {
		state.Clusters = d.Clusters
	}
	if d.Insights != nil {
		state.Insights = d.Insights
	}
	state.Status = d.Status
	state.Error = d.Error
	if d.Status.Terminal() {
		state.CompletedAt = time.Now().UTC()
	}
}

// Runner executes research workflows against a shared state store.
// Submissions are fire-and-forget: the stage chain runs in a background
// goroutine and publishes a snapshot after every transition.
type Runner struct {
	store  store.Store
	search collect.Backend
	text   llm.TextBackend
	embed  llm.EmbedBackend
	cfg    types.Config
	logger *zap.Logger
}

// NewRunner wires a runner from its collaborators.
func NewRunner(st store.Store, search collect.Backend, text llm.TextBackend, embed llm.EmbedBackend, cfg types.Config, logger *zap.Logger) *Runner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Runner{store: st, search: search, text: text, embed: embed, cfg: cfg, logger: logger}
}

// Submit stores the initial state for query and starts the workflow in the
// background. It returns the request identifier immediately.
func (r *Runner) Submit(ctx context.Context, query string) (string, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return "", fmt.Errorf("query must not be empty")
	}

	id := uuid.NewString()
	if err := r.store.Set(ctx, id, types.NewResearchState(query)); err != nil {
		return "", fmt.Errorf("storing initial state: %w", err)
	}

	go r.run(id)
	return id, nil
}

// Run executes the workflow for query synchronously and returns the final
// state. The one-shot CLI path uses this; the server path uses Submit.
func (r *Runner) Run(ctx context.Context, query string) (string, *types.ResearchState, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return "", nil, fmt.Errorf("query must not be empty")
	}

	id := uuid.NewString()
	state := types.NewResearchState(query)
	if err := r.store.Set(ctx, id, state); err != nil {
		return "", nil, fmt.Errorf("storing initial state: %w", err)
	}

	r.execute(ctx, id, state)
	return id, state, nil
}

// run is the background entry point. The workflow deliberately does not
// inherit the submitting request's context: once started it runs to a
// terminal state.
func (r *Runner) run(id string) {
	ctx := context.Background()

	state, err := r.store.Get(ctx, id)
	if err != nil {
		r.logger.Error("loading submitted state", zap.String("id", id), zap.Error(err))
		return
	}

	r.execute(ctx, id, state)
}

func (r *Runner) execute(ctx context.Context, id string, state *types.ResearchState) {
	defer func() {
		if rec := recover(); rec != nil {
			r.publish(ctx, id, state, delta{
				Status: types.StatusFailed,
				Error:  fmt.Sprintf("internal error: %v", rec),
			})
			r.logger.Error("workflow panicked", zap.String("id", id), zap.Any("panic", rec))
		}
	}()

	r.logger.Info("workflow started", zap.String("id", id), zap.String("query", state.Query))

	r.publish(ctx, id, state, delta{Status: types.StatusSearching})
	r.publish(ctx, id, state, r.searchStage(ctx, state))
	if state.Status == types.StatusFailed {
		r.logger.Warn("workflow failed in search stage",
			zap.String("id", id), zap.String("error", state.Error))
		return
	}

	r.publish(ctx, id, state, delta{Status: types.StatusAnalyzing})
	r.publish(ctx, id, state, r.analysisStage(ctx, state))
	if state.Status == types.StatusFailed {
		r.logger.Warn("workflow failed in analysis stage",
			zap.String("id", id), zap.String("error", state.Error))
		return
	}

	r.publish(ctx, id, state, delta{Status: types.StatusGeneratingInsights})
	r.publish(ctx, id, state, r.insightStage(ctx, state))

	r.logger.Info("workflow completed",
		zap.String("id", id),
		zap.Int("results", len(state.RawResults)),
		zap.Int("clusters", len(state.Clusters)))
}

// publish merges the delta and stores the full snapshot. A store write
// failure is logged but does not stop the workflow; the in-memory state
// stays authoritative for the remaining stages.
func (r *Runner) publish(ctx context.Context, id string, state *types.ResearchState, d delta) {
	merge(state, d)
	if err := r.store.Set(ctx, id, state); err != nil {
		r.logger.Error("publishing snapshot",
			zap.String("id", id), zap.String("status", string(state.Status)), zap.Error(err))
	}
}

// searchStage runs the collector. An empty result set is a failure, not an
// empty success.
func (r *Runner) searchStage(ctx context.Context, state *types.ResearchState) delta {
	results, err := collect.Collect(ctx, r.search, state.Query, r.cfg.Collect)
	if err != nil {
		return delta{Status: types.StatusFailed, Error: err.Error()}
	}
	if len(results) == 0 {
		return delta{Status: types.StatusFailed, Error: msgNoSearchResults}
	}
	return delta{RawResults: results, Status: types.StatusSearchCompleted}
}

// analysisStage embeds the corpus and applies the clustering decision tree:
// small corpora become a single query-named cluster, everything else goes
// through k-means, keyword extraction, and topic naming.
func (r *Runner) analysisStage(ctx context.Context, state *types.ResearchState) delta {
	n := len(state.RawResults)
	if n == 0 {
		return delta{Status: types.StatusFailed, Error: msgNoAnalysisInput}
	}

	texts := make([]string, n)
	for i, doc := range state.RawResults {
		texts[i] = doc.Title + " " + doc.Content
	}

	embeddings, err := r.embed.Embed(ctx, texts)
	if err != nil {
		return delta{Status: types.StatusFailed, Error: err.Error()}
	}

	if n < minDocsForClustering {
		return delta{
			Embeddings: embeddings,
			Clusters:   []types.ClusterInfo{r.singleCluster(state)},
			Status:     types.StatusClusteringSkipped,
		}
	}

	labels := analyze.Cluster(embeddings, minDocsForClustering)
	unique := analyze.UniqueLabels(labels)
	if len(unique) == 0 {
		// Every point was labeled noise; fold the corpus into one cluster.
		return delta{
			Embeddings:    embeddings,
			ClusterLabels: labels,
			Clusters:      []types.ClusterInfo{r.singleCluster(state)},
			Status:        types.StatusClusteringSkipped,
		}
	}

	keywords := analyze.ClusterKeywords(texts, labels, topKeywords)
	keywordSets := make([][]string, len(unique))
	for i, label := range unique {
		keywordSets[i] = keywords[label]
	}
	names := insight.NameClusters(ctx, r.text, keywordSets)

	clusters := make([]types.ClusterInfo, len(unique))
	for i, label := range unique {
		name := names[i]
		if name == "" {
			name = fmt.Sprintf("주제 %d", i+1)
		}
		clusters[i] = types.ClusterInfo{
			ID:        label,
			Name:      name,
			Size:      countLabel(labels, label),
			Keywords:  keywordSets[i],
			Documents: representatives(state.RawResults, labels, label),
		}
	}

	return delta{
		Embeddings:    embeddings,
		ClusterLabels: labels,
		Clusters:      clusters,
		Status:        types.StatusClusteringCompleted,
	}
}

// insightStage always succeeds: the synthesizer degrades to a statistical
// fallback instead of erroring.
func (r *Runner) insightStage(ctx context.Context, state *types.ResearchState) delta {
	result := insight.Synthesize(ctx, r.text, state.Query, state.Clusters, state.RawResults)
	return delta{Insights: result, Status: types.StatusCompleted}
}

// singleCluster wraps the whole corpus in one cluster named after the query,
// with up to the first three documents as representatives.
func (r *Runner) singleCluster(state *types.ResearchState) types.ClusterInfo {
	docs := state.RawResults
	if len(docs) > maxRepresentatives {
		docs = docs[:maxRepresentatives]
	}
	return types.ClusterInfo{
		ID:        0,
		Name:      state.Query,
		Size:      len(state.RawResults),
		Documents: append([]types.SearchResult(nil), docs...),
	}
}

func countLabel(labels []int, label int) int {
	n := 0
	for _, l := range labels {
		if l == label {
			n++
		}
	}
	return n
}

// representatives returns up to maxRepresentatives documents carrying the
// given label, preserving original order.
func representatives(docs []types.SearchResult, labels []int, label int) []types.SearchResult {
	var reps []types.SearchResult
	for i, l := range labels {
		if l != label {
			continue
		}
		reps = append(reps, docs[i])
		if len(reps) == maxRepresentatives {
			break
		}
	}
	return reps
}
