// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package analyze

import (
	"reflect"
	"testing"
)

func TestClusterKeywordsLocalToCluster(t *testing.T) {
	texts := []string{
		"robotics automation factory robotics",
		"robotics sensors factory floor",
		"banking finance loans credit",
		"finance markets banking rates",
	}
	labels := []int{0, 0, 1, 1}

	got := ClusterKeywords(texts, labels, 5)

	if len(got) != 2 {
		t.Fatalf("len(got) = %d, want 2 clusters", len(got))
	}
	for _, kw := range got[0] {
		if kw == "banking" || kw == "finance" {
			t.Errorf("cluster 0 keywords %v leaked terms from cluster 1", got[0])
		}
	}
	for _, kw := range got[1] {
		if kw == "robotics" || kw == "factory" {
			t.Errorf("cluster 1 keywords %v leaked terms from cluster 0", got[1])
		}
	}
	// "robotics" appears 3 times across cluster 0; it must rank first.
	if len(got[0]) == 0 || got[0][0] != "robotics" {
		t.Errorf("cluster 0 keywords = %v, want robotics first", got[0])
	}
}

func TestClusterKeywordsIdempotent(t *testing.T) {
	texts := []string{
		"alpha beta gamma delta",
		"beta gamma delta epsilon",
		"gamma delta epsilon zeta",
		"delta epsilon zeta alpha",
		"epsilon zeta alpha beta",
	}
	labels := []int{0, 0, 0, 1, 1}

	first := ClusterKeywords(texts, labels, 3)
	second := ClusterKeywords(texts, labels, 3)
	if !reflect.DeepEqual(first, second) {
		t.Errorf("repeated extraction differs: %v vs %v", first, second)
	}
}

func TestClusterKeywordsSkipsShortTerms(t *testing.T) {
	texts := []string{"ai ml is on quantum computing platforms", "go ai of quantum computing advances"}
	labels := []int{0, 0}

	got := ClusterKeywords(texts, labels, 10)
	for _, kw := range got[0] {
		if len([]rune(kw)) <= 2 {
			t.Errorf("keyword %q has length <= 2, should be filtered", kw)
		}
	}
	found := false
	for _, kw := range got[0] {
		if kw == "quantum" {
			found = true
		}
	}
	if !found {
		t.Errorf("keywords = %v, want to contain %q", got[0], "quantum")
	}
}

func TestClusterKeywordsIgnoresNoise(t *testing.T) {
	texts := []string{"signal signal signal", "background chatter"}
	labels := []int{0, Noise}

	got := ClusterKeywords(texts, labels, 5)
	if _, ok := got[Noise]; ok {
		t.Error("noise label must not receive keywords")
	}
	if _, ok := got[0]; !ok {
		t.Error("cluster 0 missing from result")
	}
}

func TestClusterKeywordsTopK(t *testing.T) {
	texts := []string{"one two1 three four five six seven eight nine ten ten ten"}
	labels := []int{0}

	got := ClusterKeywords(texts, labels, 3)
	if len(got[0]) != 3 {
		t.Errorf("len(keywords) = %d, want 3", len(got[0]))
	}
	if got[0][0] != "ten" {
		t.Errorf("keywords = %v, want ten (highest TF) first", got[0])
	}
}

func TestClusterKeywordsMismatchedInput(t *testing.T) {
	got := ClusterKeywords([]string{"a"}, []int{0, 1}, 5)
	if len(got) != 0 {
		t.Errorf("mismatched texts/labels should yield no keywords, got %v", got)
	}
}

func TestTokenizeKoreanAndEnglish(t *testing.T) {
	// Two-rune terms ("ai", "시장") are filtered; longer Korean and English
	// terms survive.
	got := tokenize("AI 에이전트 시장, 급성장! ai-agents")
	want := []string{"에이전트", "급성장", "agents"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("tokenize() = %v, want %v", got, want)
	}
}
