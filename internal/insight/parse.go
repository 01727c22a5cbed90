// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package insight

import (
	"regexp"
	"strconv"
	"strings"
)

// section identifies which narrative section a parsed line belongs to.
type section int

const (
	sectionNone section = iota
	sectionInsights
	sectionSuccess
	sectionFailure
	sectionOutlook
)

// refPattern extracts the bracketed integer list from a reference line,
// e.g. "참고: [1, 3, 5]".
var refPattern = regexp.MustCompile(`\[([\d,\s]+)\]`)

// bulletPrefix matches the leading numbering/bullet/punctuation run stripped
// from content lines. The exact character class is a compatibility contract
// with the narrative format: ".-•" is a rune range, so leading Latin text is
// consumed along with the numbering while Hangul survives. Do not rewrite it.
var bulletPrefix = regexp.MustCompile(`^[0-9.-•*)\s]+`)

// parsedSections holds the outcome of parsing one narrative response.
type parsedSections struct {
	insights      []string
	successCases  []string
	failureCases  []string
	marketOutlook []string

	insightsRefs []int
	successRefs  []int
	failureRefs  []int
	outlookRefs  []int
}

// parseNarrative walks the model's free-text response line by line. Header
// lines switch the active section and are not stored. "참고:" lines carry
// the active section's reference list. Lines starting with a digit, "-", or
// "•" are content for the active section. Everything else — blank lines and
// content before any header — is discarded.
func parseNarrative(content string) parsedSections {
	var out parsedSections
	current := sectionNone

	for _, line := range strings.Split(content, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}

		if sec := matchHeader(trimmed); sec != sectionNone {
			current = sec
			continue
		}

		if strings.HasPrefix(trimmed, "참고:") || strings.HasPrefix(trimmed, "참고 :") {
			if current != sectionNone {
				if refs := parseRefs(trimmed); refs != nil {
					out.setRefs(current, refs)
				}
			}
			continue
		}

		if current != sectionNone && isContentLine(trimmed) {
			clean := strings.TrimSpace(bulletPrefix.ReplaceAllString(trimmed, ""))
			if clean != "" {
				out.appendContent(current, clean)
			}
		}
	}

	return out
}

// matchHeader recognizes the four section headers in their Korean and
// English variants. These substrings are a byte-for-byte compatibility
// contract with the narrative format.
func matchHeader(line string) section {
	switch {
	case strings.Contains(line, "핵심 인사이트") || strings.Contains(line, "Key Insights"):
		return sectionInsights
	case strings.Contains(line, "성공 사례") || strings.Contains(line, "성공사례") || strings.Contains(line, "Success"):
		return sectionSuccess
	case strings.Contains(line, "실패 사례") || strings.Contains(line, "실패사례") || strings.Contains(line, "Failure"):
		return sectionFailure
	case strings.Contains(line, "향후 시장 전망") || strings.Contains(line, "시장 전망") || strings.Contains(line, "Market Outlook"):
		return sectionOutlook
	}
	return sectionNone
}

// parseRefs extracts the bracketed comma-separated integers from a reference
// line. A malformed or unbracketed line yields nil, leaving the section's
// refs empty.
func parseRefs(line string) []int {
	m := refPattern.FindStringSubmatch(line)
	if m == nil {
		return nil
	}
	var refs []int
	for _, part := range strings.Split(m[1], ",") {
		n, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil {
			continue
		}
		refs = append(refs, n)
	}
	return refs
}

// isContentLine reports whether the line begins with a digit or bullet
// marker.
func isContentLine(trimmed string) bool {
	r := trimmed[0]
	return (r >= '0' && r <= '9') || strings.HasPrefix(trimmed, "-") || strings.HasPrefix(trimmed, "•")
}

func (p *parsedSections) appendContent(sec section, line string) {
	switch sec {
	case sectionInsights:
		p.insights = append(p.insights, line)
	case sectionSuccess:
		p.successCases = append(p.successCases, line)
	case sectionFailure:
		p.failureCases = append(p.failureCases, line)
	case sectionOutlook:
		p.marketOutlook = append(p.marketOutlook, line)
	}
}

// setRefs replaces the section's reference list. A later "참고:" line under
// the same header wins, matching the replace-not-append contract.
func (p *parsedSections) setRefs(sec section, refs []int) {
	switch sec {
	case sectionInsights:
		p.insightsRefs = refs
	case sectionSuccess:
		p.successRefs = refs
	case sectionFailure:
		p.failureRefs = refs
	case sectionOutlook:
		p.outlookRefs = refs
	}
}

// boundRefs drops references outside 1..max, the valid range of 1-based
// document indices.
func boundRefs(refs []int, max int) []int {
	if refs == nil {
		return nil
	}
	bounded := refs[:0]
	for _, r := range refs {
		if r >= 1 && r <= max {
			bounded = append(bounded, r)
		}
	}
	if len(bounded) == 0 {
		return nil
	}
	return bounded
}
