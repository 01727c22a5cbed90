// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines shared data structures for the trendscope research
// workflow: collected documents, topic clusters, narrative insights, and the
// per-request workflow state that moves between pipeline stages.
package types

import "time"

// ResearchStatus tracks a research request through the workflow stages.
type ResearchStatus string

const (
	StatusInitialized         ResearchStatus = "initialized"
	StatusSearching           ResearchStatus = "searching"
	StatusSearchCompleted     ResearchStatus = "search_completed"
	StatusAnalyzing           ResearchStatus = "analyzing"
	StatusClusteringCompleted ResearchStatus = "clustering_completed"
	StatusClusteringSkipped   ResearchStatus = "clustering_skipped"
	StatusGeneratingInsights  ResearchStatus = "generating_insights"
	StatusCompleted           ResearchStatus = "completed"
	StatusFailed              ResearchStatus = "failed"
)

// Terminal reports whether the status is final. A terminal state is never
// overwritten by a later stage.
func (s ResearchStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// SearchResult is one collected document. Results are immutable once produced
// by the collector; their position in ResearchState.RawResults defines the
// 1-based index used for citation references.
type SearchResult struct {
	// Title is the document title as returned by the search capability.
	Title string `json:"title" yaml:"title"`

	// URL is the document location.
	URL string `json:"url" yaml:"url"`

	// Content is the document body or extended snippet.
	Content string `json:"content" yaml:"content"`

	// Score is the relevance score after the recency adjustment.
	Score float64 `json:"score" yaml:"score"`

	// PublishedDate is the publication timestamp if the source provided one
	// (RFC 3339 or YYYY-MM-DD), empty otherwise.
	PublishedDate string `json:"published_date,omitempty" yaml:"published_date,omitempty"`

	// Source is the domain the document came from (e.g. "techcrunch.com").
	Source string `json:"source" yaml:"source"`
}

// ClusterInfo describes one topic cluster of collected documents.
type ClusterInfo struct {
	// ID is the cluster label, unique within a ResearchState. IDs are not
	// guaranteed to start at 0 or be contiguous after noise removal.
	ID int `json:"id" yaml:"id"`

	// Name is the human-readable topic label.
	Name string `json:"name" yaml:"name"`

	// Size is the number of documents assigned to the cluster.
	Size int `json:"size" yaml:"size"`

	// Keywords lists descriptive terms, most relevant first.
	Keywords []string `json:"keywords" yaml:"keywords"`

	// Documents holds up to 3 representative documents, a subsequence of
	// RawResults preserving original order.
	Documents []SearchResult `json:"documents" yaml:"documents"`
}

// InsightResult is the structured narrative produced by the insight stage.
// The four section slices hold one entry per bullet; each *Refs slice lists
// 1-based indices into RawResults cited for that section.
type InsightResult struct {
	Insights      []string `json:"insights" yaml:"insights"`
	SuccessCases  []string `json:"success_cases" yaml:"success_cases"`
	FailureCases  []string `json:"failure_cases" yaml:"failure_cases"`
	MarketOutlook []string `json:"market_outlook" yaml:"market_outlook"`

	InsightsRefs []int `json:"insights_refs,omitempty" yaml:"insights_refs,omitempty"`
	SuccessRefs  []int `json:"success_refs,omitempty" yaml:"success_refs,omitempty"`
	FailureRefs  []int `json:"failure_refs,omitempty" yaml:"failure_refs,omitempty"`
	OutlookRefs  []int `json:"outlook_refs,omitempty" yaml:"outlook_refs,omitempty"`

	// Summary is the raw narrative text the sections were parsed from.
	Summary string `json:"summary" yaml:"summary"`

	ClusterCount   int `json:"cluster_count" yaml:"cluster_count"`
	TotalDocuments int `json:"total_documents" yaml:"total_documents"`
}

// ResearchState is the full workflow state for one research request. It is
// created at submission, replaced field-by-stage as the workflow advances,
// and becomes immutable once Status is terminal.
//
// Invariant: len(ClusterLabels) == len(RawResults) whenever both are present,
// and every non-noise label appears as exactly one ClusterInfo.ID.
type ResearchState struct {
	Query string `json:"query" yaml:"query"`

	RawResults []SearchResult `json:"raw_results" yaml:"raw_results"`

	// Embeddings holds one vector per raw result, same order. Nil until the
	// analysis stage runs.
	Embeddings [][]float64 `json:"embeddings,omitempty" yaml:"embeddings,omitempty"`

	// ClusterLabels holds one label per raw result, same order. The value -1
	// is the noise sentinel. Nil until clustering runs (and when skipped).
	ClusterLabels []int `json:"cluster_labels,omitempty" yaml:"cluster_labels,omitempty"`

	Clusters []ClusterInfo `json:"clusters" yaml:"clusters"`

	Insights *InsightResult `json:"insights,omitempty" yaml:"insights,omitempty"`

	Status ResearchStatus `json:"status" yaml:"status"`

	// Error is the user-facing failure message when Status is failed.
	Error string `json:"error,omitempty" yaml:"error,omitempty"`

	CreatedAt   time.Time `json:"created_at" yaml:"created_at"`
	CompletedAt time.Time `json:"completed_at,omitempty" yaml:"completed_at,omitempty"`
}

// NewResearchState returns the initial state for a submitted query.
func NewResearchState(query string) *ResearchState {
	return &ResearchState{
		Query:     query,
		Status:    StatusInitialized,
		CreatedAt: time.Now().UTC(),
	}
}

// Clone returns a deep copy. Stores hand out clones so that observers only
// ever see a fully-replaced snapshot, never a state mid-mutation.
func (s *ResearchState) Clone() *ResearchState {
	if s == nil {
		return nil
	}
	c := *s
	c.RawResults = append([]SearchResult(nil), s.RawResults...)
	if s.Embeddings != nil {
		c.Embeddings = make([][]float64, len(s.Embeddings))
		for i, v := range s.Embeddings {
			c.Embeddings[i] = append([]float64(nil), v...)
		}
	}
	if s.ClusterLabels != nil {
		c.ClusterLabels = append([]int(nil), s.ClusterLabels...)
	}
	if s.Clusters != nil {
		c.Clusters = make([]ClusterInfo, len(s.Clusters))
		for i, cl := range s.Clusters {
			cl.Keywords = append([]string(nil), cl.Keywords...)
			cl.Documents = append([]SearchResult(nil), cl.Documents...)
			c.Clusters[i] = cl
		}
	}
	if s.Insights != nil {
		in := *s.Insights
		in.Insights = append([]string(nil), s.Insights.Insights...)
		in.SuccessCases = append([]string(nil), s.Insights.SuccessCases...)
		in.FailureCases = append([]string(nil), s.Insights.FailureCases...)
		in.MarketOutlook = append([]string(nil), s.Insights.MarketOutlook...)
		in.InsightsRefs = append([]int(nil), s.Insights.InsightsRefs...)
		in.SuccessRefs = append([]int(nil), s.Insights.SuccessRefs...)
		in.FailureRefs = append([]int(nil), s.Insights.FailureRefs...)
		in.OutlookRefs = append([]int(nil), s.Insights.OutlookRefs...)
		c.Insights = &in
	}
	return &c
}

// ProgressUpdate is one event emitted to a streaming observer. Events are
// emitted only when the observed status changes.
type ProgressUpdate struct {
	Status ResearchStatus `json:"status"`

	// Message is a human-readable description of the current stage.
	Message string `json:"message,omitempty"`

	// Node names the pipeline stage: "search", "analysis", or "insight".
	Node string `json:"node,omitempty"`

	ResultsCount  int `json:"results_count,omitempty"`
	ClustersCount int `json:"clusters_count,omitempty"`
	InsightsCount int `json:"insights_count,omitempty"`

	Error string `json:"error,omitempty"`
}
