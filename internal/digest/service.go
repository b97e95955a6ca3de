package digest

import (
	"context"
	"fmt"
	"time"

	"github.com/ecamli/bskydigest/internal/cache"
	"github.com/ecamli/bskydigest/internal/logger"
	"github.com/ecamli/bskydigest/internal/models"
)

// Archiver persists generated digests outside the cache, best-effort.
type Archiver interface {
	SaveDigest(ctx context.Context, record *models.DigestRecord) error
}

// Service runs the digest pipeline: collect -> (topic filter) -> rank ->
// synthesize -> cache. All collaborators are constructor-injected.
type Service struct {
	collector *Collector
	topics    *TopicFilter
	synth     *Synthesizer
	cache     *cache.DigestCache
	archive   Archiver // optional
	rankLimit int
	now       func() time.Time
}

// ServiceOptions carries the optional pieces of a Service.
type ServiceOptions struct {
	Archive   Archiver
	RankLimit int
	Now       func() time.Time
}

// NewService wires the pipeline. topics may be nil when no topic-focused
// digest is configured; requesting one then fails.
func NewService(collector *Collector, topics *TopicFilter, synth *Synthesizer, digestCache *cache.DigestCache, opts ServiceOptions) *Service {
	if opts.RankLimit <= 0 {
		opts.RankLimit = 150
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Service{
		collector: collector,
		topics:    topics,
		synth:     synth,
		cache:     digestCache,
		archive:   opts.Archive,
		rankLimit: opts.RankLimit,
		now:       opts.Now,
	}
}

// Generate produces the digest for the given type. Unless refresh is set it
// serves today's cached record when present; on success it always writes the
// cache. Upstream and model failures are fatal for the request and never
// yield a partial digest.
func (s *Service) Generate(ctx context.Context, digestType models.DigestType, refresh bool) (*models.DigestRecord, error) {
	if !refresh {
		if record := s.cache.Get(ctx, digestType); record != nil {
			return record, nil
		}
	}

	record, err := s.generate(ctx, digestType)
	if err != nil {
		return nil, err
	}

	s.cache.Set(ctx, digestType, record)

	if s.archive != nil {
		if err := s.archive.SaveDigest(ctx, record); err != nil {
			logger.Get().Warn().Err(err).Str("digest_type", string(digestType)).Msg("digest archive failed")
		}
	}

	return record, nil
}

// GenerateStream produces the alternate streaming digest: raw model chunks
// forwarded to the sink as they arrive, bypassing the cache entirely.
func (s *Service) GenerateStream(ctx context.Context, digestType models.DigestType, sink func(chunk string) error) error {
	ranked, _, err := s.collectAndRank(ctx, digestType)
	if err != nil {
		return err
	}
	return s.synth.Stream(ctx, ranked, digestType, sink)
}

func (s *Service) generate(ctx context.Context, digestType models.DigestType) (*models.DigestRecord, error) {
	ranked, meta, err := s.collectAndRank(ctx, digestType)
	if err != nil {
		return nil, err
	}

	record, err := s.synth.Generate(ctx, ranked, digestType)
	if err != nil {
		return nil, err
	}

	meta.GeneratedAt = s.now().UTC()
	record.Meta = *meta

	logger.Get().Info().
		Str("digest_type", string(digestType)).
		Int("total_posts", meta.TotalPosts).
		Int("posts_analyzed", meta.PostsAnalyzed).
		Int("notable_posts", len(record.NotablePosts)).
		Msg("generated digest")

	return record, nil
}

func (s *Service) collectAndRank(ctx context.Context, digestType models.DigestType) ([]models.Post, *models.DigestMeta, error) {
	posts, oldest, newest, err := s.collector.Collect(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("collect timeline: %w", err)
	}

	meta := &models.DigestMeta{
		TotalPosts: len(posts),
		DigestType: digestType,
	}
	if oldest != nil {
		meta.OldestPostDate = oldest.CreatedAt
	}
	if newest != nil {
		meta.NewestPostDate = newest.CreatedAt
	}

	if digestType == models.DigestTypeTopic {
		if s.topics == nil {
			return nil, nil, fmt.Errorf("topic-focused digest is not configured")
		}
		posts, meta.KeywordMatches, meta.FeedPostCount = s.topics.Apply(ctx, posts)
	}

	ranked := Rank(posts, s.rankLimit)
	meta.PostsAnalyzed = len(ranked)

	return ranked, meta, nil
}
