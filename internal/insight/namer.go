// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package insight turns clustered research documents into human-readable
// topic labels and a structured narrative report. Both operations degrade
// per item instead of failing: naming falls back to a keyword-derived label
// and synthesis falls back to cluster statistics.
package insight

import (
	"context"
	"strings"

	"github.com/pdiddy/trendscope/internal/llm"
)

// fallbackTopic is the placeholder label for a cluster with no keywords.
const fallbackTopic = "미분류"

// NameClusters produces one short topic label per keyword set, in input
// order. A single set's generation failure does not block the others: the
// failed entry gets a deterministic name derived from its first keyword.
func NameClusters(ctx context.Context, backend llm.TextBackend, keywordSets [][]string) []string {
	names := make([]string, 0, len(keywordSets))
	for _, keywords := range keywordSets {
		names = append(names, nameOne(ctx, backend, keywords))
	}
	return names
}

func nameOne(ctx context.Context, backend llm.TextBackend, keywords []string) string {
	prompt, err := renderNamerPrompt(keywords)
	if err != nil {
		return fallbackName(keywords)
	}

	resp, err := backend.Complete(ctx, namerSystemPrompt, prompt)
	if err != nil {
		return fallbackName(keywords)
	}

	name := strings.TrimSpace(resp)
	name = strings.ReplaceAll(name, `"`, "")
	name = strings.ReplaceAll(name, "'", "")
	if name == "" {
		return fallbackName(keywords)
	}
	return name
}

// fallbackName derives a deterministic label from the first keyword, or the
// unclassified placeholder when the set is empty.
func fallbackName(keywords []string) string {
	if len(keywords) > 0 && keywords[0] != "" {
		return "주제: " + keywords[0]
	}
	return "주제: " + fallbackTopic
}
