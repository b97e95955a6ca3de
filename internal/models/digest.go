package models

import "time"

// DigestType names a configuration of the synthesizer's instructions and
// the topic filter's activation.
type DigestType string

const (
	DigestTypeGeneral DigestType = "general"
	DigestTypeTopic   DigestType = "topic-focused"
)

// Valid reports whether t is one of the known digest types.
func (t DigestType) Valid() bool {
	return t == DigestTypeGeneral || t == DigestTypeTopic
}

// NotablePost pairs a post with the model's justification for surfacing it.
type NotablePost struct {
	Post   Post   `json:"post"`
	Reason string `json:"reason"`
}

// DigestMeta describes the inputs a digest was generated from.
type DigestMeta struct {
	TotalPosts      int        `json:"total_posts"`
	PostsAnalyzed   int        `json:"posts_analyzed"`
	OldestPostDate  string     `json:"oldest_post_date,omitempty"`
	NewestPostDate  string     `json:"newest_post_date,omitempty"`
	GeneratedAt     time.Time  `json:"generated_at"`
	DigestType      DigestType `json:"digest_type"`
	KeywordMatches  int        `json:"keyword_matches,omitempty"`
	FeedPostCount   int        `json:"feed_post_count,omitempty"`
}

// DigestRecord is the cacheable unit produced by the synthesizer.
// Cached is set on records served from the cache rather than generated.
type DigestRecord struct {
	Overview       string        `json:"overview"`
	NotablePosts   []NotablePost `json:"notable_posts"`
	TrendingTopics []string      `json:"trending_topics"`
	Meta           DigestMeta    `json:"meta"`
	Cached         bool          `json:"cached,omitempty"`
}
