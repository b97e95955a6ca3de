package digest

import (
	"testing"

	"github.com/ecamli/bskydigest/internal/models"
)

func TestKeywordMatcherWholeWord(t *testing.T) {
	m, err := NewKeywordMatcher([]string{"ai", "machine learning"}, true)
	if err != nil {
		t.Fatalf("NewKeywordMatcher returned error: %v", err)
	}

	cases := []struct {
		text string
		want bool
	}{
		{"thoughts on AI policy", true},
		{"Machine Learning is eating the world", true},
		{"he said it was fine", false},     // "ai" inside "said"
		{"painting my fence today", false}, // "ai" inside "painting"
		{"", false},
	}
	for _, tc := range cases {
		if got := m.Matches(models.Post{Text: tc.text}); got != tc.want {
			t.Errorf("Matches(%q) = %v, want %v", tc.text, got, tc.want)
		}
	}
}

func TestKeywordMatcherSubstringMode(t *testing.T) {
	m, err := NewKeywordMatcher([]string{"model"}, false)
	if err != nil {
		t.Fatalf("NewKeywordMatcher returned error: %v", err)
	}

	if !m.Matches(models.Post{Text: "supermodels everywhere"}) {
		t.Error("substring mode should match inside words")
	}
}

func TestKeywordMatcherChecksQuotedText(t *testing.T) {
	m, err := NewKeywordMatcher([]string{"llm"}, true)
	if err != nil {
		t.Fatalf("NewKeywordMatcher returned error: %v", err)
	}

	post := models.Post{
		Text: "this take is wild",
		QuotedPost: &models.QuotedPost{
			Author: models.Author{Handle: "quoted.bsky.social"},
			Text:   "our LLM benchmark results",
		},
	}
	if !m.Matches(post) {
		t.Error("expected match via quoted post text")
	}
}

func TestKeywordMatcherDefaultsAndEscaping(t *testing.T) {
	m, err := NewKeywordMatcher(nil, true)
	if err != nil {
		t.Fatalf("NewKeywordMatcher with defaults returned error: %v", err)
	}
	if !m.Matches(models.Post{Text: "shipping a new RAG pipeline"}) {
		t.Error("default keywords should match rag")
	}

	// Terms with regex metacharacters must be treated literally.
	if _, err := NewKeywordMatcher([]string{"c++ (systems)"}, true); err != nil {
		t.Errorf("metacharacter term should compile, got %v", err)
	}

	if _, err := NewKeywordMatcher([]string{"  ", ""}, true); err == nil {
		t.Error("expected error for all-blank term list")
	}
}
