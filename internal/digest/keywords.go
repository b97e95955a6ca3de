package digest

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/ecamli/bskydigest/internal/models"
)

// DefaultKeywords is the stock AI/ML vocabulary used by the topic-focused
// digest when no custom list is configured.
var DefaultKeywords = []string{
	"ai", "ml", "llm", "gpt", "rag",
	"machine learning", "deep learning", "neural network",
	"language model", "fine-tuning", "prompt engineering",
	"openai", "anthropic", "claude", "chatgpt", "gemini", "mistral",
	"hugging face", "transformer", "embedding", "inference",
}

// KeywordMatcher matches posts against a case-insensitive alternation of
// terms. With wholeWord set, single tokens are bounded so that "ai" does not
// match "said"; without it, bare substring matching applies (the legacy,
// over-matching behavior).
type KeywordMatcher struct {
	re *regexp.Regexp
}

// NewKeywordMatcher compiles the term list into a single pattern.
func NewKeywordMatcher(terms []string, wholeWord bool) (*KeywordMatcher, error) {
	if len(terms) == 0 {
		terms = DefaultKeywords
	}

	alts := make([]string, 0, len(terms))
	for _, term := range terms {
		term = strings.TrimSpace(term)
		if term == "" {
			continue
		}
		quoted := regexp.QuoteMeta(term)
		if wholeWord {
			quoted = `\b` + quoted + `\b`
		}
		alts = append(alts, quoted)
	}
	if len(alts) == 0 {
		return nil, fmt.Errorf("no usable keyword terms")
	}

	re, err := regexp.Compile(`(?i)(` + strings.Join(alts, "|") + `)`)
	if err != nil {
		return nil, fmt.Errorf("compile keyword pattern: %w", err)
	}
	return &KeywordMatcher{re: re}, nil
}

// Matches tests a post's text together with its quoted post's text.
func (m *KeywordMatcher) Matches(post models.Post) bool {
	text := post.Text
	if post.QuotedPost != nil {
		text += " " + post.QuotedPost.Text
	}
	return m.re.MatchString(text)
}
