package digest

import (
	"context"
	"fmt"
	"strings"

	"github.com/ecamli/bskydigest/internal/bluesky"
	"github.com/ecamli/bskydigest/internal/logger"
	"github.com/ecamli/bskydigest/internal/models"
)

// FeedFetcher is the slice of the Bluesky client the topic filter needs:
// resolving an actor handle and paging a feed generator's output.
type FeedFetcher interface {
	ResolveHandle(ctx context.Context, handle string) (string, error)
	GetFeed(ctx context.Context, feedURI string, limit int, cursor string) (*bluesky.FeedPage, error)
}

// FeedRef identifies an externally curated feed by its owner and generator
// key, e.g. "skyfeed.xyz/ai-news".
type FeedRef struct {
	Actor string
	Key   string
}

// ParseFeedRef parses an "actor/key" reference.
func ParseFeedRef(s string) (FeedRef, error) {
	actor, key, ok := strings.Cut(s, "/")
	if !ok || actor == "" || key == "" {
		return FeedRef{}, fmt.Errorf("invalid feed reference %q, want actor/key", s)
	}
	return FeedRef{Actor: actor, Key: key}, nil
}

// ParseFeedRefs parses a list of "actor/key" references.
func ParseFeedRefs(refs []string) ([]FeedRef, error) {
	out := make([]FeedRef, 0, len(refs))
	for _, s := range refs {
		ref, err := ParseFeedRef(s)
		if err != nil {
			return nil, err
		}
		out = append(out, ref)
	}
	return out, nil
}

// TopicFilter narrows a collected post set to on-topic posts and merges in
// posts pulled from curated feeds.
type TopicFilter struct {
	client  FeedFetcher
	matcher *KeywordMatcher
	feeds   []FeedRef
	opts    CollectorOptions
}

// NewTopicFilter builds a topic filter. The collector options are the same
// policy the timeline collector runs with; each feed is paged with half the
// hard cap since results from every configured feed are merged.
func NewTopicFilter(client FeedFetcher, matcher *KeywordMatcher, feeds []FeedRef, opts CollectorOptions) *TopicFilter {
	opts = opts.withDefaults()
	opts.MaxPosts /= 2
	return &TopicFilter{client: client, matcher: matcher, feeds: feeds, opts: opts}
}

// Apply returns the merged, deduplicated on-topic set plus the number of
// keyword matches from the timeline and the number of posts fetched from
// external feeds. A failure on any single feed is logged and that feed
// contributes nothing; it never aborts the filter.
func (f *TopicFilter) Apply(ctx context.Context, posts []models.Post) ([]models.Post, int, int) {
	matched := make([]models.Post, 0, len(posts))
	for _, p := range posts {
		if f.matcher.Matches(p) {
			matched = append(matched, p)
		}
	}
	keywordMatches := len(matched)

	feedPostCount := 0
	merged := matched
	for _, ref := range f.feeds {
		feedPosts, err := f.collectFeed(ctx, ref)
		if err != nil {
			logger.Get().Warn().
				Err(err).
				Str("actor", ref.Actor).
				Str("feed", ref.Key).
				Msg("skipping external feed")
			continue
		}
		feedPostCount += len(feedPosts)
		merged = append(merged, feedPosts...)
	}

	return models.DedupPosts(merged), keywordMatches, feedPostCount
}

func (f *TopicFilter) collectFeed(ctx context.Context, ref FeedRef) ([]models.Post, error) {
	did := ref.Actor
	if !strings.HasPrefix(did, "did:") {
		resolved, err := f.client.ResolveHandle(ctx, ref.Actor)
		if err != nil {
			return nil, err
		}
		did = resolved
	}

	feedURI := fmt.Sprintf("at://%s/app.bsky.feed.generator/%s", did, ref.Key)
	collector := NewCollector(feedSource{client: f.client, uri: feedURI}, f.opts)

	posts, _, _, err := collector.Collect(ctx)
	return posts, err
}

type feedSource struct {
	client FeedFetcher
	uri    string
}

func (s feedSource) FetchPage(ctx context.Context, limit int, cursor string) (*bluesky.FeedPage, error) {
	return s.client.GetFeed(ctx, s.uri, limit, cursor)
}
