package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/ecamli/bskydigest/internal/logger"
	"github.com/ecamli/bskydigest/internal/models"
)

// DigestCache stores completed digests keyed by digest type and UTC calendar
// date. Every backing-store failure degrades to a cache miss on read and a
// no-op on write; the pipeline never fails because of the cache. Writes are
// last-write-wins: concurrent regenerations for the same key are an accepted
// race at this granularity.
type DigestCache struct {
	store Store
	ttl   time.Duration
	now   func() time.Time
}

// NewDigestCache wraps a store with digest keying and expiry. now is
// injectable for tests; pass nil for the wall clock.
func NewDigestCache(store Store, ttl time.Duration, now func() time.Time) *DigestCache {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	if now == nil {
		now = time.Now
	}
	return &DigestCache{store: store, ttl: ttl, now: now}
}

// Key builds the cache key for a digest type on today's UTC date.
func (c *DigestCache) Key(digestType models.DigestType) string {
	return fmt.Sprintf("digest:%s:%s", digestType, c.now().UTC().Format("2006-01-02"))
}

// Get returns today's cached digest annotated cached:true, or nil on a miss.
// Store errors and undecodable payloads are logged and treated as misses.
func (c *DigestCache) Get(ctx context.Context, digestType models.DigestType) *models.DigestRecord {
	val, err := c.store.Get(ctx, c.Key(digestType))
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			logger.Get().Warn().Err(err).Str("digest_type", string(digestType)).Msg("digest cache read failed")
		}
		return nil
	}

	var record models.DigestRecord
	if err := json.Unmarshal([]byte(val), &record); err != nil {
		logger.Get().Warn().Err(err).Str("digest_type", string(digestType)).Msg("discarding undecodable cached digest")
		return nil
	}

	record.Cached = true
	return &record
}

// Set stores the digest under today's key, replacing any prior record.
// Failures are logged and swallowed.
func (c *DigestCache) Set(ctx context.Context, digestType models.DigestType, record *models.DigestRecord) {
	data, err := json.Marshal(record)
	if err != nil {
		logger.Get().Warn().Err(err).Str("digest_type", string(digestType)).Msg("digest cache encode failed")
		return
	}

	if err := c.store.Set(ctx, c.Key(digestType), string(data), c.ttl); err != nil {
		logger.Get().Warn().Err(err).Str("digest_type", string(digestType)).Msg("digest cache write failed")
	}
}

// Delete drops today's entry for the digest type.
func (c *DigestCache) Delete(ctx context.Context, digestType models.DigestType) error {
	return c.store.Delete(ctx, c.Key(digestType))
}
