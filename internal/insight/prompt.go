// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package insight

import (
	"bytes"
	"fmt"
	"strings"
	"text/template"

	"github.com/pdiddy/trendscope/pkg/types"
)

// namerSystemPrompt instructs the model to produce short Korean topic labels.
const namerSystemPrompt = "당신은 주제 명명 전문가입니다. 키워드를 바탕으로 간결하고 명확한 한국어 주제명(2-4단어)을 만드세요."

// namerUserTmpl renders the keyword list for one cluster.
var namerUserTmpl = template.Must(template.New("namer").Parse(
	"키워드: {{.Keywords}}\n\n위 키워드들을 대표하는 간결한 한국어 주제명을 생성하세요:"))

// synthSystemPrompt frames the market-analysis task and the citation
// convention: clean bullet text, with a trailing "참고:" line per section
// listing the referenced document numbers.
const synthSystemPrompt = `You are an expert market research analyst.
Analyze the following research clusters and search results to provide comprehensive market insights.
Be specific, data-driven, and actionable. Use the actual search result content to support your insights.

IMPORTANT:
1. Write clean, concise insights WITHOUT including source citations in the text itself.
2. After each section, add a line "참고: [list of document numbers]" to indicate which documents you referenced.
3. Document numbers refer to the numbered search results (e.g., [1], [2], [3], etc.)`

// synthUserTmpl renders the query, the cluster summary, the numbered
// document appendix, and the required response format.
var synthUserTmpl = template.Must(template.New("synthesis").Parse(`Query: {{.Query}}

Clusters found:
{{.Clusters}}
{{.DocumentDetails}}

Please provide a comprehensive analysis in the following format:

## 핵심 인사이트
1. First insight
2. Second insight
...
참고: [1, 2, 5]

## 성공 사례
1. First success case
2. Second success case
...
참고: [3, 7]

## 실패 사례
1. First failure case
2. Second failure case
...
참고: [4, 8]

## 향후 시장 전망
1. First outlook point
2. Second outlook point
...
참고: [2, 6, 9]

Use Korean for all sections. After each section, add a line starting with "참고: " followed by the document numbers in brackets that you referenced for that section.`))

// clusterSummary renders one line per cluster: name, size, top-5 keywords.
func clusterSummary(clusters []types.ClusterInfo) string {
	lines := make([]string, 0, len(clusters))
	for _, c := range clusters {
		keywords := c.Keywords
		if len(keywords) > 5 {
			keywords = keywords[:5]
		}
		lines = append(lines, fmt.Sprintf("- %s: %d documents, keywords: %s",
			c.Name, c.Size, strings.Join(keywords, ", ")))
	}
	return strings.Join(lines, "\n")
}

// documentDetails renders the numbered document appendix so the model can
// cite by 1-based index. Empty when no raw results are supplied.
func documentDetails(rawResults []types.SearchResult) string {
	if len(rawResults) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString("\n\n## 검색 결과 상세 내용\n\n")
	for i, doc := range rawResults {
		source := doc.Source
		if source == "" {
			source = doc.URL
		}
		if i > 0 {
			b.WriteString("\n\n")
		}
		fmt.Fprintf(&b, "### [%d] %s\n출처: %s\n내용: %s\n---", i+1, doc.Title, source, doc.Content)
	}
	return b.String()
}

// renderSynthesisPrompt produces the user prompt for the insight request.
func renderSynthesisPrompt(query string, clusters []types.ClusterInfo, rawResults []types.SearchResult) (string, error) {
	var buf bytes.Buffer
	err := synthUserTmpl.Execute(&buf, struct {
		Query           string
		Clusters        string
		DocumentDetails string
	}{
		Query:           query,
		Clusters:        clusterSummary(clusters),
		DocumentDetails: documentDetails(rawResults),
	})
	if err != nil {
		return "", fmt.Errorf("rendering synthesis prompt: %w", err)
	}
	return buf.String(), nil
}

// renderNamerPrompt produces the user prompt for naming one keyword set.
func renderNamerPrompt(keywords []string) (string, error) {
	var buf bytes.Buffer
	err := namerUserTmpl.Execute(&buf, struct{ Keywords string }{Keywords: strings.Join(keywords, ", ")})
	if err != nil {
		return "", fmt.Errorf("rendering namer prompt: %w", err)
	}
	return buf.String(), nil
}
