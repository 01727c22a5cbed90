// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package insight

import (
	"context"
	"fmt"

	"github.com/pdiddy/trendscope/internal/llm"
	"github.com/pdiddy/trendscope/pkg/types"
)

// unavailableSummary is the fixed summary marker for a full capability
// failure.
const unavailableSummary = "Basic statistical summary (LLM unavailable)"

// needLLMPlaceholder fills the three case sections when no narrative could
// be generated.
const needLLMPlaceholder = "상세 분석을 위해서는 LLM이 필요합니다"

// Synthesize produces the structured insight report for a completed
// analysis. It prompts the text-generation capability with the cluster
// summary and a numbered document appendix, then parses the narrative
// response into four sections with per-section citation references.
//
// Synthesize never returns an error: a capability failure yields a complete
// fallback record built from cluster statistics, and an empty insights
// section is backfilled the same way. The other three sections may
// legitimately be empty.
func Synthesize(ctx context.Context, backend llm.TextBackend, query string, clusters []types.ClusterInfo, rawResults []types.SearchResult) *types.InsightResult {
	totalDocs := 0
	for _, c := range clusters {
		totalDocs += c.Size
	}

	prompt, err := renderSynthesisPrompt(query, clusters, rawResults)
	if err != nil {
		return fallbackResult(query, clusters, totalDocs)
	}

	content, err := backend.Complete(ctx, synthSystemPrompt, prompt)
	if err != nil {
		return fallbackResult(query, clusters, totalDocs)
	}

	parsed := parseNarrative(content)

	insights := parsed.insights
	if len(insights) == 0 {
		// The model omitted the section or used an unrecognized header;
		// downstream consumers always receive at least minimal insight text.
		insights = statisticalInsights(query, clusters, totalDocs)
	}

	maxRef := len(rawResults)
	return &types.InsightResult{
		Insights:       insights,
		SuccessCases:   parsed.successCases,
		FailureCases:   parsed.failureCases,
		MarketOutlook:  parsed.marketOutlook,
		InsightsRefs:   boundRefs(parsed.insightsRefs, maxRef),
		SuccessRefs:    boundRefs(parsed.successRefs, maxRef),
		FailureRefs:    boundRefs(parsed.failureRefs, maxRef),
		OutlookRefs:    boundRefs(parsed.outlookRefs, maxRef),
		Summary:        content,
		ClusterCount:   len(clusters),
		TotalDocuments: totalDocs,
	}
}

// statisticalInsights derives three generic statements from cluster
// statistics.
func statisticalInsights(query string, clusters []types.ClusterInfo, totalDocs int) []string {
	return []string{
		fmt.Sprintf("'%s' 관련 %d개의 주요 주제 발견", query, len(clusters)),
		fmt.Sprintf("총 %d개 문서 분석", totalDocs),
		fmt.Sprintf("가장 큰 주제: %s", largestClusterName(clusters)),
	}
}

func largestClusterName(clusters []types.ClusterInfo) string {
	if len(clusters) == 0 {
		return fallbackTopic
	}
	largest := clusters[0]
	for _, c := range clusters[1:] {
		if c.Size > largest.Size {
			largest = c
		}
	}
	return largest.Name
}

// fallbackResult is the complete record returned on a full capability
// failure: statistical insights, one placeholder sentence per case section,
// the fixed unavailable summary, and no reference lists.
func fallbackResult(query string, clusters []types.ClusterInfo, totalDocs int) *types.InsightResult {
	return &types.InsightResult{
		Insights:       statisticalInsights(query, clusters, totalDocs),
		SuccessCases:   []string{needLLMPlaceholder},
		FailureCases:   []string{needLLMPlaceholder},
		MarketOutlook:  []string{needLLMPlaceholder},
		Summary:        unavailableSummary,
		ClusterCount:   len(clusters),
		TotalDocuments: totalDocs,
	}
}
