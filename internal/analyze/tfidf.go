// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package analyze

import (
	"math"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"
)

// minTermLength filters out very short tokens; terms of this many runes or
// fewer are discarded.
const minTermLength = 2

// ClusterKeywords derives up to topK descriptive terms per cluster. For each
// distinct non-noise label it builds an independent TF-IDF index over that
// cluster's own documents only — cross-cluster terms are not suppressed,
// each cluster's IDF is local to itself — then sums per-term scores across
// the cluster's documents and keeps the highest-scoring terms.
//
// The result maps cluster label to keywords, most relevant first. Ties break
// alphabetically so repeated runs over the same inputs return identical
// lists. A label whose documents produce no usable terms maps to an empty
// list.
func ClusterKeywords(texts []string, labels []int, topK int) map[int][]string {
	keywords := make(map[int][]string)
	if len(texts) != len(labels) || topK <= 0 {
		return keywords
	}

	for _, label := range UniqueLabels(labels) {
		var clusterTexts []string
		for i, l := range labels {
			if l == label {
				clusterTexts = append(clusterTexts, texts[i])
			}
		}
		if len(clusterTexts) == 0 {
			continue
		}
		keywords[label] = topTerms(clusterTexts, topK)
	}

	return keywords
}

// topTerms scores every term in docs by summed TF-IDF and returns the topK.
func topTerms(docs []string, topK int) []string {
	n := len(docs)

	// Term frequency per document and document frequency across the cluster.
	tfs := make([]map[string]int, n)
	df := make(map[string]int)
	for i, doc := range docs {
		tf := make(map[string]int)
		for _, term := range tokenize(doc) {
			tf[term]++
		}
		tfs[i] = tf
		for term := range tf {
			df[term]++
		}
	}

	// Smoothed IDF keeps single-document clusters usable: a term appearing
	// in every document still carries its raw frequency weight.
	scores := make(map[string]float64)
	for _, tf := range tfs {
		for term, count := range tf {
			idf := math.Log(float64(n)/float64(df[term])) + 1
			scores[term] += float64(count) * idf
		}
	}

	terms := make([]string, 0, len(scores))
	for term := range scores {
		terms = append(terms, term)
	}
	sort.Slice(terms, func(i, j int) bool {
		if scores[terms[i]] != scores[terms[j]] {
			return scores[terms[i]] > scores[terms[j]]
		}
		return terms[i] < terms[j]
	})

	if len(terms) > topK {
		terms = terms[:topK]
	}
	return terms
}

// tokenize lowercases text and splits on any rune that is not a letter or
// digit, dropping terms of minTermLength runes or fewer.
func tokenize(text string) []string {
	fields := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})
	terms := fields[:0]
	for _, f := range fields {
		if utf8.RuneCountInString(f) > minTermLength {
			terms = append(terms, f)
		}
	}
	return terms
}
