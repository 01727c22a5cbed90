// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package collect

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/pdiddy/trendscope/internal/httputil"
	"github.com/pdiddy/trendscope/pkg/types"
)

// tavilyAPIURL is the Tavily search endpoint. Declared as a var so tests can
// substitute an httptest server.
var tavilyAPIURL = "https://api.tavily.com/search"

// TavilyBackend queries the Tavily web search API with advanced depth and no
// domain filters.
type TavilyBackend struct {
	Client *http.Client
	Config types.CollectConfig
}

// Name returns the backend identifier.
func (b *TavilyBackend) Name() string { return "tavily" }

type tavilyRequest struct {
	Query          string   `json:"query"`
	MaxResults     int      `json:"max_results"`
	SearchDepth    string   `json:"search_depth"`
	IncludeDomains []string `json:"include_domains"`
	ExcludeDomains []string `json:"exclude_domains"`
}

type tavilyResponse struct {
	Results []struct {
		Title         string     `json:"title"`
		URL           string     `json:"url"`
		Content       string     `json:"content"`
		Score         looseScore `json:"score"`
		PublishedDate string     `json:"published_date"`
	} `json:"results"`
}

// looseScore decodes a relevance score that the API may send as a JSON
// number or a quoted string. Anything unparseable decodes to 0.0.
type looseScore float64

func (s *looseScore) UnmarshalJSON(data []byte) error {
	text := strings.Trim(strings.TrimSpace(string(data)), `"`)
	v, err := strconv.ParseFloat(text, 64)
	if err != nil {
		*s = 0.0
		return nil
	}
	*s = looseScore(v)
	return nil
}

// Search posts the query to the Tavily API and returns the raw hits in API
// order.
func (b *TavilyBackend) Search(ctx context.Context, query string, maxResults int) ([]Hit, error) {
	body, err := json.Marshal(tavilyRequest{
		Query:          query,
		MaxResults:     maxResults,
		SearchDepth:    "advanced",
		IncludeDomains: []string{},
		ExcludeDomains: []string{},
	})
	if err != nil {
		return nil, fmt.Errorf("encoding request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, tavilyAPIURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", b.Config.UserAgent)
	req.Header.Set("Authorization", "Bearer "+b.Config.APIKey)

	resp, err := httputil.DoWithRetry(ctx, b.Client, req, 0)
	if err != nil {
		return nil, fmt.Errorf("Tavily API request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("Tavily API returned HTTP %d", resp.StatusCode)
	}

	var tr tavilyResponse
	if err := json.NewDecoder(resp.Body).Decode(&tr); err != nil {
		return nil, fmt.Errorf("parsing Tavily response: %w", err)
	}

	hits := make([]Hit, 0, len(tr.Results))
	for _, r := range tr.Results {
		hits = append(hits, Hit{
			Title:         r.Title,
			URL:           r.URL,
			Content:       r.Content,
			Score:         float64(r.Score),
			PublishedDate: r.PublishedDate,
		})
	}
	return hits, nil
}
