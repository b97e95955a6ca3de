package digest

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/ecamli/bskydigest/internal/ai"
	"github.com/ecamli/bskydigest/internal/models"
)

// Synthesizer turns a ranked post set into a digest via a language-model
// completion. It has two output strategies over the same prompt: Generate
// buffers the response and parses the JSON contract; Stream passes raw
// chunks through to a sink with no structured extraction.
type Synthesizer struct {
	llm       ai.Client
	maxTokens int
}

// NewSynthesizer builds a synthesizer on top of a completion client.
func NewSynthesizer(llm ai.Client, maxTokens int) *Synthesizer {
	if maxTokens <= 0 {
		maxTokens = 2000
	}
	return &Synthesizer{llm: llm, maxTokens: maxTokens}
}

type digestResponse struct {
	Overview     string `json:"overview"`
	NotablePosts []struct {
		PostIndex int    `json:"postIndex"`
		Reason    string `json:"reason"`
	} `json:"notablePosts"`
	TrendingTopics []string `json:"trendingTopics"`
}

// Generate runs the completion and maps the constrained JSON response back
// to concrete posts. Malformed output (non-JSON, wrong shape, empty text) is
// a hard failure; there is no retry. Meta is left for the caller to fill.
func (s *Synthesizer) Generate(ctx context.Context, posts []models.Post, digestType models.DigestType) (*models.DigestRecord, error) {
	raw, err := s.llm.Complete(ctx, instructionsFor(digestType), buildPostsBlock(posts), s.maxTokens)
	if err != nil {
		return nil, fmt.Errorf("digest completion: %w", err)
	}

	parsed, err := parseDigestResponse(raw)
	if err != nil {
		return nil, err
	}

	record := &models.DigestRecord{
		Overview:       parsed.Overview,
		NotablePosts:   []models.NotablePost{},
		TrendingTopics: parsed.TrendingTopics,
	}
	if record.TrendingTopics == nil {
		record.TrendingTopics = []string{}
	}

	// Map 1-based indices back onto the ranked input. Out-of-range and
	// duplicate indices are dropped rather than erroring.
	seen := make(map[int]bool, len(parsed.NotablePosts))
	for _, np := range parsed.NotablePosts {
		if np.PostIndex < 1 || np.PostIndex > len(posts) || seen[np.PostIndex] {
			continue
		}
		seen[np.PostIndex] = true
		record.NotablePosts = append(record.NotablePosts, models.NotablePost{
			Post:   posts[np.PostIndex-1],
			Reason: np.Reason,
		})
	}

	return record, nil
}

// Stream runs the completion in streaming mode, forwarding raw text chunks
// verbatim as they arrive. No JSON contract applies in this mode.
func (s *Synthesizer) Stream(ctx context.Context, posts []models.Post, digestType models.DigestType, sink func(chunk string) error) error {
	return s.llm.Stream(ctx, streamInstructionsFor(digestType), buildPostsBlock(posts), s.maxTokens, sink)
}

func streamInstructionsFor(digestType models.DigestType) string {
	base := "You are a social media analyst. Write a readable plain-text daily digest of the following Bluesky posts: a short overview, the handful of posts worth reading with why, and the topics trending today."
	if digestType == models.DigestTypeTopic {
		base += " Focus exclusively on AI/ML content and skip keyword false positives."
	}
	return base
}

func parseDigestResponse(raw string) (*digestResponse, error) {
	clean := stripCodeFence(raw)
	if clean == "" {
		return nil, fmt.Errorf("empty digest response")
	}

	var parsed digestResponse
	if err := json.Unmarshal([]byte(clean), &parsed); err != nil {
		return nil, fmt.Errorf("parse digest response: %w", err)
	}
	if parsed.Overview == "" {
		return nil, fmt.Errorf("digest response missing overview")
	}
	return &parsed, nil
}

// stripCodeFence removes a leading/trailing triple-backtick fence (with an
// optional json language tag) that models sometimes wrap JSON answers in.
func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```json") {
		s = strings.TrimPrefix(s, "```json")
	} else if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```")
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
