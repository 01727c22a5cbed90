// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package collect gathers documents for a research query from an external
// search capability, re-ranks them by recency-adjusted relevance, and bounds
// any single domain's representation in the kept set.
package collect

import (
	"context"
	"fmt"
	"net/url"
	"sort"
	"time"

	"github.com/pdiddy/trendscope/pkg/types"
)

// Backend queries a single search capability. Implementations return raw
// hits in the capability's own order; scoring and diversification happen
// here.
type Backend interface {
	Name() string
	Search(ctx context.Context, query string, maxResults int) ([]Hit, error)
}

// Hit is one unprocessed result from a search backend.
// Scoring and domain attribution happen in Collect, not in backends.
type Hit struct {
	Title         string
	URL           string
	Content       string
	Score         float64
	PublishedDate string
}

// Collect runs the full collection pass: query the backend, apply the
// recency boost to each hit's relevance score, sort descending (stable, so
// ties keep the backend's order), and diversify sources.
//
// The returned order is significant: it determines the 1-based indices later
// used as citation references. A backend error is propagated as a
// *types.CollectionError; Collect never retries.
func Collect(ctx context.Context, backend Backend, query string, cfg types.CollectConfig) ([]types.SearchResult, error) {
	maxResults := cfg.MaxResults
	if maxResults <= 0 {
		maxResults = 30
	}

	hits, err := backend.Search(ctx, query, maxResults)
	if err != nil {
		return nil, &types.CollectionError{Err: fmt.Errorf("%s: %w", backend.Name(), err)}
	}

	results := make([]types.SearchResult, 0, len(hits))
	for _, h := range hits {
		results = append(results, types.SearchResult{
			Title:         h.Title,
			URL:           h.URL,
			Content:       h.Content,
			Score:         h.Score * recencyBoost(h.PublishedDate, time.Now()),
			PublishedDate: h.PublishedDate,
			Source:        extractDomain(h.URL),
		})
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})

	maxPerDomain := cfg.MaxPerDomain
	if maxPerDomain <= 0 {
		maxPerDomain = 5
	}
	return diversifySources(results, maxPerDomain), nil
}

// recencyBoost returns the multiplicative score adjustment for a publication
// date: 1.5 within 2 days, 1.2 within 7 days, 1.0 otherwise or when the date
// is missing or unparseable.
func recencyBoost(published string, now time.Time) float64 {
	if published == "" {
		return 1.0
	}
	t, err := parseDate(published)
	if err != nil {
		return 1.0
	}
	switch days := int(now.Sub(t).Hours() / 24); {
	case days <= 2:
		return 1.5
	case days <= 7:
		return 1.2
	default:
		return 1.0
	}
}

// dateLayouts are the timestamp formats search capabilities are known to emit.
var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02",
	"Mon, 02 Jan 2006 15:04:05 MST",
}

func parseDate(s string) (time.Time, error) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", s)
}

// extractDomain returns the hostname of u, or "unknown" if it cannot be parsed.
func extractDomain(u string) string {
	parsed, err := url.Parse(u)
	if err != nil || parsed.Hostname() == "" {
		return "unknown"
	}
	return parsed.Hostname()
}

// diversifySources walks the sorted results once and keeps a result only if
// its source domain has been kept fewer than maxPerDomain times so far. The
// relative order of kept results is unchanged.
func diversifySources(results []types.SearchResult, maxPerDomain int) []types.SearchResult {
	domainCount := make(map[string]int)
	diversified := make([]types.SearchResult, 0, len(results))

	for _, r := range results {
		domain := r.Source
		if domain == "" {
			domain = "unknown"
		}
		if domainCount[domain] >= maxPerDomain {
			continue
		}
		diversified = append(diversified, r)
		domainCount[domain]++
	}

	return diversified
}
