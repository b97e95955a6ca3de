package digest

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/ecamli/bskydigest/internal/bluesky"
	"github.com/ecamli/bskydigest/internal/cache"
	"github.com/ecamli/bskydigest/internal/models"
)

// recordingArchive remembers the records it was asked to persist.
type recordingArchive struct {
	saved []*models.DigestRecord
	err   error
}

func (a *recordingArchive) SaveDigest(ctx context.Context, record *models.DigestRecord) error {
	a.saved = append(a.saved, record)
	return a.err
}

func newTestService(t *testing.T, llm *stubLLM, archive Archiver) *Service {
	t.Helper()

	feed := &scriptedFeed{pages: []*bluesky.FeedPage{
		{Items: []bluesky.FeedItem{newItem("at://a"), newItem("at://b")}},
	}}
	collector := NewCollector(feed, testOptions())
	synth := NewSynthesizer(llm, 0)
	digestCache := cache.NewDigestCache(cache.NewMemoryStore(), 24*time.Hour, func() time.Time { return testNow })

	return NewService(collector, nil, synth, digestCache, ServiceOptions{
		Archive: archive,
		Now:     func() time.Time { return testNow },
	})
}

func okResponse() string {
	return `{"overview": "two posts today", "notablePosts": [{"postIndex": 1, "reason": "top ranked"}], "trendingTopics": ["testing"]}`
}

func TestServiceGenerateCachesResult(t *testing.T) {
	llm := &stubLLM{response: okResponse()}
	svc := newTestService(t, llm, nil)
	ctx := context.Background()

	first, err := svc.Generate(ctx, models.DigestTypeGeneral, false)
	if err != nil {
		t.Fatalf("Generate returned error: %v", err)
	}
	if first.Cached {
		t.Error("freshly generated digest must not be marked cached")
	}
	if first.Meta.TotalPosts != 2 || first.Meta.PostsAnalyzed != 2 {
		t.Errorf("unexpected meta: %+v", first.Meta)
	}
	if !first.Meta.GeneratedAt.Equal(testNow) {
		t.Errorf("unexpected generatedAt %v", first.Meta.GeneratedAt)
	}

	// Second call must come from the cache without touching the pipeline.
	llm.response = "this would fail to parse"
	second, err := svc.Generate(ctx, models.DigestTypeGeneral, false)
	if err != nil {
		t.Fatalf("cached Generate returned error: %v", err)
	}
	if !second.Cached {
		t.Error("second call should serve the cached record")
	}
	if second.Overview != first.Overview {
		t.Errorf("cached overview %q differs from original %q", second.Overview, first.Overview)
	}
}

func TestServiceGenerateRefreshBypassesCache(t *testing.T) {
	llm := &stubLLM{response: okResponse()}
	svc := newTestService(t, llm, nil)
	ctx := context.Background()

	if _, err := svc.Generate(ctx, models.DigestTypeGeneral, false); err != nil {
		t.Fatalf("Generate returned error: %v", err)
	}

	// refresh regenerates even with a warm cache. The scripted feed only has
	// one page, so a second pipeline run fails at collection.
	if _, err := svc.Generate(ctx, models.DigestTypeGeneral, true); err == nil {
		t.Fatal("refresh should have re-run the pipeline")
	}
}

func TestServiceGenerateTopicUnconfigured(t *testing.T) {
	llm := &stubLLM{response: okResponse()}
	svc := newTestService(t, llm, nil)

	if _, err := svc.Generate(context.Background(), models.DigestTypeTopic, false); err == nil {
		t.Fatal("expected error for unconfigured topic digest")
	}
}

func TestServiceGenerateArchivesBestEffort(t *testing.T) {
	archive := &recordingArchive{err: fmt.Errorf("bucket gone")}
	llm := &stubLLM{response: okResponse()}
	svc := newTestService(t, llm, archive)

	record, err := svc.Generate(context.Background(), models.DigestTypeGeneral, false)
	if err != nil {
		t.Fatalf("archive failure must not fail the request: %v", err)
	}
	if len(archive.saved) != 1 || archive.saved[0] != record {
		t.Errorf("expected the generated record to be archived, got %d saves", len(archive.saved))
	}
}

func TestServiceGenerateModelFailureIsFatal(t *testing.T) {
	llm := &stubLLM{response: "not json at all"}
	svc := newTestService(t, llm, nil)
	ctx := context.Background()

	if _, err := svc.Generate(ctx, models.DigestTypeGeneral, false); err == nil {
		t.Fatal("expected malformed model output to fail the request")
	}
}

func TestServiceGenerateStreamBypassesCache(t *testing.T) {
	llm := &stubLLM{response: okResponse(), chunks: []string{"hello ", "reader"}}
	svc := newTestService(t, llm, nil)
	ctx := context.Background()

	// Warm the cache first; streaming must still hit the model.
	if _, err := svc.Generate(ctx, models.DigestTypeGeneral, false); err != nil {
		t.Fatalf("Generate returned error: %v", err)
	}

	// Give the collector a fresh page for the streaming run.
	svc.collector = NewCollector(&scriptedFeed{pages: []*bluesky.FeedPage{
		{Items: []bluesky.FeedItem{newItem("at://c")}},
	}}, testOptions())

	var got string
	err := svc.GenerateStream(ctx, models.DigestTypeGeneral, func(chunk string) error {
		got += chunk
		return nil
	})
	if err != nil {
		t.Fatalf("GenerateStream returned error: %v", err)
	}
	if got != "hello reader" {
		t.Errorf("unexpected streamed output %q", got)
	}
}
