package digest

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/ecamli/bskydigest/internal/bluesky"
)

var testNow = time.Date(2026, 8, 20, 12, 0, 0, 0, time.UTC)

func testOptions() CollectorOptions {
	return CollectorOptions{
		Cutoff:        24 * time.Hour,
		PageSize:      100,
		StopThreshold: 20,
		MaxPosts:      1000,
		Now:           func() time.Time { return testNow },
	}
}

// newItem is within the cutoff window, oldItem outside it.
func newItem(uri string) bluesky.FeedItem {
	return datedItem(uri, testNow.Add(-1*time.Hour))
}

func oldItem(uri string) bluesky.FeedItem {
	return datedItem(uri, testNow.Add(-48*time.Hour))
}

func datedItem(uri string, createdAt time.Time) bluesky.FeedItem {
	return bluesky.FeedItem{Post: bluesky.PostView{
		URI:    uri,
		Author: bluesky.ActorView{Handle: "someone.bsky.social"},
		Record: bluesky.PostRecord{Text: "post " + uri, CreatedAt: createdAt.Format(time.RFC3339)},
	}}
}

func undatedItem(uri string) bluesky.FeedItem {
	return bluesky.FeedItem{Post: bluesky.PostView{
		URI:    uri,
		Author: bluesky.ActorView{Handle: "someone.bsky.social"},
		Record: bluesky.PostRecord{Text: "post " + uri},
	}}
}

// scriptedFeed serves a fixed sequence of pages and counts fetches.
type scriptedFeed struct {
	pages   []*bluesky.FeedPage
	fetches int
}

func (s *scriptedFeed) FetchPage(ctx context.Context, limit int, cursor string) (*bluesky.FeedPage, error) {
	if s.fetches >= len(s.pages) {
		return nil, fmt.Errorf("unexpected fetch %d", s.fetches+1)
	}
	page := s.pages[s.fetches]
	s.fetches++
	return page, nil
}

func TestCollectStopsOnConsecutiveOldPosts(t *testing.T) {
	items := make([]bluesky.FeedItem, 0, 25)
	for i := 0; i < 25; i++ {
		items = append(items, oldItem(fmt.Sprintf("at://old/%d", i)))
	}
	// The cursor points at a second page that must never be fetched.
	feed := &scriptedFeed{pages: []*bluesky.FeedPage{{Items: items, Cursor: "more"}}}

	posts, oldest, newest, err := NewCollector(feed, testOptions()).Collect(context.Background())
	if err != nil {
		t.Fatalf("Collect returned error: %v", err)
	}
	if len(posts) != 0 {
		t.Errorf("expected no retained posts, got %d", len(posts))
	}
	if feed.fetches != 1 {
		t.Errorf("expected pagination to stop after 1 page, fetched %d", feed.fetches)
	}
	if oldest != nil || newest != nil {
		t.Errorf("expected nil date range for empty result, got %v / %v", oldest, newest)
	}
}

func TestCollectCounterResetsOnNewPost(t *testing.T) {
	items := []bluesky.FeedItem{newItem("at://new/1"), newItem("at://new/2")}
	for i := 0; i < 20; i++ {
		items = append(items, oldItem(fmt.Sprintf("at://old/%d", i)))
	}
	// A run of exactly StopThreshold old posts must not swallow the post
	// right behind it.
	items = append(items, newItem("at://new/3"))
	feed := &scriptedFeed{pages: []*bluesky.FeedPage{{Items: items}}}

	posts, _, _, err := NewCollector(feed, testOptions()).Collect(context.Background())
	if err != nil {
		t.Fatalf("Collect returned error: %v", err)
	}
	if len(posts) != 3 {
		t.Fatalf("expected 3 retained posts, got %d", len(posts))
	}
	if posts[2].URI != "at://new/3" {
		t.Errorf("expected trailing new post to be retained, got %q", posts[2].URI)
	}
}

func TestCollectPaginatesWithCursor(t *testing.T) {
	feed := &scriptedFeed{pages: []*bluesky.FeedPage{
		{Items: []bluesky.FeedItem{newItem("at://a"), newItem("at://b")}, Cursor: "page2"},
		{Items: []bluesky.FeedItem{newItem("at://c")}},
	}}

	posts, _, _, err := NewCollector(feed, testOptions()).Collect(context.Background())
	if err != nil {
		t.Fatalf("Collect returned error: %v", err)
	}
	if feed.fetches != 2 {
		t.Errorf("expected 2 fetches, got %d", feed.fetches)
	}
	if len(posts) != 3 || posts[2].URI != "at://c" {
		t.Errorf("unexpected posts: %+v", posts)
	}
}

func TestCollectStopsOnEmptyPage(t *testing.T) {
	feed := &scriptedFeed{pages: []*bluesky.FeedPage{
		{Items: []bluesky.FeedItem{newItem("at://a")}, Cursor: "page2"},
		{Items: nil, Cursor: "page3"},
	}}

	posts, _, _, err := NewCollector(feed, testOptions()).Collect(context.Background())
	if err != nil {
		t.Fatalf("Collect returned error: %v", err)
	}
	if feed.fetches != 2 {
		t.Errorf("expected 2 fetches, got %d", feed.fetches)
	}
	if len(posts) != 1 {
		t.Errorf("expected 1 post, got %d", len(posts))
	}
}

func TestCollectHonorsHardCap(t *testing.T) {
	items := make([]bluesky.FeedItem, 0, 6)
	for i := 0; i < 6; i++ {
		items = append(items, newItem(fmt.Sprintf("at://new/%d", i)))
	}
	feed := &scriptedFeed{pages: []*bluesky.FeedPage{{Items: items, Cursor: "more"}}}

	opts := testOptions()
	opts.MaxPosts = 5

	posts, _, _, err := NewCollector(feed, opts).Collect(context.Background())
	if err != nil {
		t.Fatalf("Collect returned error: %v", err)
	}
	if feed.fetches != 1 {
		t.Errorf("expected pagination to stop at the cap, fetched %d pages", feed.fetches)
	}
	if len(posts) != 6 {
		t.Errorf("expected the capped page's posts, got %d", len(posts))
	}
}

func TestCollectDeduplicatesByURI(t *testing.T) {
	feed := &scriptedFeed{pages: []*bluesky.FeedPage{
		{Items: []bluesky.FeedItem{newItem("at://a"), newItem("at://b")}, Cursor: "page2"},
		{Items: []bluesky.FeedItem{newItem("at://b"), newItem("at://c")}},
	}}

	posts, _, _, err := NewCollector(feed, testOptions()).Collect(context.Background())
	if err != nil {
		t.Fatalf("Collect returned error: %v", err)
	}

	want := []string{"at://a", "at://b", "at://c"}
	if len(posts) != len(want) {
		t.Fatalf("expected %d posts, got %d", len(want), len(posts))
	}
	for i, uri := range want {
		if posts[i].URI != uri {
			t.Errorf("expected posts[%d] = %q, got %q", i, uri, posts[i].URI)
		}
	}
}

func TestCollectDateRange(t *testing.T) {
	feed := &scriptedFeed{pages: []*bluesky.FeedPage{{Items: []bluesky.FeedItem{
		datedItem("at://mid", testNow.Add(-3*time.Hour)),
		datedItem("at://newest", testNow.Add(-1*time.Hour)),
		undatedItem("at://undated"),
		datedItem("at://oldest", testNow.Add(-10*time.Hour)),
	}}}}

	posts, oldest, newest, err := NewCollector(feed, testOptions()).Collect(context.Background())
	if err != nil {
		t.Fatalf("Collect returned error: %v", err)
	}
	if len(posts) != 4 {
		t.Fatalf("expected 4 posts (undated retained), got %d", len(posts))
	}
	if oldest == nil || oldest.URI != "at://oldest" {
		t.Errorf("unexpected oldest: %+v", oldest)
	}
	if newest == nil || newest.URI != "at://newest" {
		t.Errorf("unexpected newest: %+v", newest)
	}
}

func TestCollectUnknownAgePostsSkipCutoff(t *testing.T) {
	items := make([]bluesky.FeedItem, 0, 22)
	for i := 0; i < 20; i++ {
		items = append(items, oldItem(fmt.Sprintf("at://old/%d", i)))
	}
	// Undated posts neither reset nor advance the old-post counter.
	items = append(items, undatedItem("at://undated"))
	items = append(items, oldItem("at://old/20"))
	feed := &scriptedFeed{pages: []*bluesky.FeedPage{{Items: items, Cursor: "more"}}}

	posts, oldest, newest, err := NewCollector(feed, testOptions()).Collect(context.Background())
	if err != nil {
		t.Fatalf("Collect returned error: %v", err)
	}
	if feed.fetches != 1 {
		t.Errorf("expected the trailing old post to trip the threshold, fetched %d pages", feed.fetches)
	}
	if len(posts) != 1 || posts[0].URI != "at://undated" {
		t.Fatalf("expected only the undated post, got %+v", posts)
	}
	if oldest != nil || newest != nil {
		t.Errorf("expected nil date range when no retained post is dated")
	}
}

func TestCollectPropagatesFetchError(t *testing.T) {
	feed := &scriptedFeed{pages: nil} // first fetch errors

	_, _, _, err := NewCollector(feed, testOptions()).Collect(context.Background())
	if err == nil {
		t.Fatal("expected error from failing page fetch")
	}
}
