package digest

import (
	"context"
	"fmt"
	"time"

	"github.com/ecamli/bskydigest/internal/bluesky"
	"github.com/ecamli/bskydigest/internal/logger"
	"github.com/ecamli/bskydigest/internal/models"
)

// PageFetcher is a paged feed-access capability. An empty cursor in the
// returned page signals the end of pagination.
type PageFetcher interface {
	FetchPage(ctx context.Context, limit int, cursor string) (*bluesky.FeedPage, error)
}

// CollectorOptions tune the pagination loop. Zero values fall back to the
// defaults below.
type CollectorOptions struct {
	Cutoff        time.Duration
	PageSize      int
	StopThreshold int
	MaxPosts      int
	Now           func() time.Time
}

const (
	defaultCutoff        = 24 * time.Hour
	defaultPageSize      = 100
	defaultStopThreshold = 20
	defaultMaxPosts      = 1000
)

func (o CollectorOptions) withDefaults() CollectorOptions {
	if o.Cutoff <= 0 {
		o.Cutoff = defaultCutoff
	}
	if o.PageSize <= 0 {
		o.PageSize = defaultPageSize
	}
	if o.StopThreshold <= 0 {
		o.StopThreshold = defaultStopThreshold
	}
	if o.MaxPosts <= 0 {
		o.MaxPosts = defaultMaxPosts
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	return o
}

// Collector paginates a feed, retaining posts newer than the recency cutoff.
//
// The upstream ordering is not strictly chronological (re-ranking and reposts
// interleave old and new), so the loop does not stop on the first old post:
// it stops once StopThreshold consecutive old posts have been seen. A newer
// post anywhere in the run resets the counter.
type Collector struct {
	source PageFetcher
	opts   CollectorOptions
}

// NewCollector wraps a paged feed source with the collection policy.
func NewCollector(source PageFetcher, opts CollectorOptions) *Collector {
	return &Collector{source: source, opts: opts.withDefaults()}
}

// Collect runs the pagination loop and returns the deduplicated retained
// posts plus the oldest and newest dated post observed (nil when no post
// carries a timestamp).
func (c *Collector) Collect(ctx context.Context) ([]models.Post, *models.Post, *models.Post, error) {
	cutoffAt := c.opts.Now().Add(-c.opts.Cutoff)

	var collected []models.Post
	consecutiveOld := 0
	cursor := ""
	pages := 0

	for {
		page, err := c.source.FetchPage(ctx, c.opts.PageSize, cursor)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("fetch page %d: %w", pages+1, err)
		}
		pages++

		if len(page.Items) == 0 {
			break
		}

		stop := false
		for _, item := range page.Items {
			post := bluesky.NormalizePost(item)

			createdAt, parseErr := time.Parse(time.RFC3339, post.CreatedAt)
			if post.CreatedAt == "" || parseErr != nil {
				// Unknown-age posts are retained and do not touch the
				// old-post counter.
				collected = append(collected, post)
				continue
			}

			if createdAt.Before(cutoffAt) {
				consecutiveOld++
				// Strictly greater: a run that merely reaches the threshold
				// can still be rescued by a newer post right behind it.
				if consecutiveOld > c.opts.StopThreshold {
					stop = true
					break
				}
				continue
			}

			consecutiveOld = 0
			collected = append(collected, post)
		}

		if stop || page.Cursor == "" || len(collected) > c.opts.MaxPosts {
			break
		}
		cursor = page.Cursor
	}

	posts := models.DedupPosts(collected)
	oldest, newest := dateRange(posts)

	logger.Get().Debug().
		Int("pages", pages).
		Int("posts", len(posts)).
		Msg("collected feed posts")

	return posts, oldest, newest, nil
}

// dateRange scans for the oldest and newest post among those carrying a
// parseable timestamp.
func dateRange(posts []models.Post) (oldest, newest *models.Post) {
	var oldestAt, newestAt time.Time
	for i := range posts {
		t, err := time.Parse(time.RFC3339, posts[i].CreatedAt)
		if posts[i].CreatedAt == "" || err != nil {
			continue
		}
		if oldest == nil || t.Before(oldestAt) {
			oldest, oldestAt = &posts[i], t
		}
		if newest == nil || t.After(newestAt) {
			newest, newestAt = &posts[i], t
		}
	}
	return oldest, newest
}

// TimelineSource adapts the Bluesky client's home timeline to PageFetcher.
func TimelineSource(client *bluesky.Client) PageFetcher {
	return timelineSource{client: client}
}

type timelineSource struct {
	client *bluesky.Client
}

func (s timelineSource) FetchPage(ctx context.Context, limit int, cursor string) (*bluesky.FeedPage, error) {
	return s.client.GetTimeline(ctx, limit, cursor)
}
