package api

import (
	"bufio"
	"context"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/ecamli/bskydigest/internal/cache"
	"github.com/ecamli/bskydigest/internal/digest"
	"github.com/ecamli/bskydigest/internal/logger"
	"github.com/ecamli/bskydigest/internal/middleware"
	"github.com/ecamli/bskydigest/internal/models"
)

// streamTimeout bounds the background completion driving a stream response.
const streamTimeout = 5 * time.Minute

type Handlers struct {
	digests *digest.Service
	cache   *cache.DigestCache
}

// NewHandlers wires the HTTP layer to the digest pipeline.
func NewHandlers(digests *digest.Service, digestCache *cache.DigestCache) *Handlers {
	return &Handlers{digests: digests, cache: digestCache}
}

// DigestQuery is the query contract of the digest endpoints.
type DigestQuery struct {
	Type    string `query:"type" validate:"omitempty,oneof=general topic-focused"`
	Refresh bool   `query:"refresh"`
}

func (q DigestQuery) digestType() models.DigestType {
	if q.Type == "" {
		return models.DigestTypeGeneral
	}
	return models.DigestType(q.Type)
}

// HealthCheck handles GET /api/v1/health
func (h *Handlers) HealthCheck(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status": "ok",
		"time":   time.Now().Format(time.RFC3339),
	})
}

// GetDigest handles GET /api/v1/digest
func (h *Handlers) GetDigest(c *fiber.Ctx) error {
	var q DigestQuery
	if !middleware.ParseQuery(c, &q) {
		return nil
	}

	record, err := h.digests.Generate(c.Context(), q.digestType(), q.Refresh)
	if err != nil {
		logger.Get().Error().Err(err).Str("digest_type", q.Type).Msg("Error generating digest")
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
			"error": "Failed to generate digest",
		})
	}

	return c.JSON(record)
}

// StreamDigest handles GET /api/v1/digest/stream. It forwards raw model
// chunks as they arrive; nothing is cached in this mode.
func (h *Handlers) StreamDigest(c *fiber.Ctx) error {
	var q DigestQuery
	if !middleware.ParseQuery(c, &q) {
		return nil
	}
	digestType := q.digestType()

	c.Set(fiber.HeaderContentType, "text/plain; charset=utf-8")
	c.Context().SetBodyStreamWriter(func(w *bufio.Writer) {
		ctx, cancel := context.WithTimeout(context.Background(), streamTimeout)
		defer cancel()

		err := h.digests.GenerateStream(ctx, digestType, func(chunk string) error {
			if _, err := w.WriteString(chunk); err != nil {
				return err
			}
			return w.Flush()
		})
		if err != nil {
			logger.Get().Error().Err(err).Str("digest_type", string(digestType)).Msg("Error streaming digest")
		}
	})

	return nil
}

// PurgeDigest handles DELETE /api/v1/admin/digest/:type
func (h *Handlers) PurgeDigest(c *fiber.Ctx) error {
	digestType := models.DigestType(c.Params("type"))
	if !digestType.Valid() {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Unknown digest type",
		})
	}

	if err := h.cache.Delete(c.Context(), digestType); err != nil {
		logger.Get().Error().Err(err).Str("digest_type", string(digestType)).Msg("Error purging digest cache")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to purge digest cache",
		})
	}

	return c.JSON(fiber.Map{
		"status": "purged",
		"type":   digestType,
	})
}
