package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/ecamli/bskydigest/internal/ai"
	"github.com/ecamli/bskydigest/internal/api"
	"github.com/ecamli/bskydigest/internal/bluesky"
	"github.com/ecamli/bskydigest/internal/cache"
	"github.com/ecamli/bskydigest/internal/config"
	"github.com/ecamli/bskydigest/internal/digest"
	"github.com/ecamli/bskydigest/internal/logger"
	"github.com/ecamli/bskydigest/internal/middleware"
	"github.com/ecamli/bskydigest/internal/storage"
)

func main() {
	// Load and validate configuration
	cfg := config.Load()

	// Initialize logger
	if err := logger.Init(logger.Config{
		Level:  cfg.LogLevel,
		Output: "stdout",
		Pretty: cfg.Env == "development",
	}); err != nil {
		panic(err)
	}

	log := logger.Get()
	log.Info().Msg("Starting application...")

	// Initialize the cache store
	store, err := cache.NewRedisStore(cfg.RedisURL, cfg.RedisPrefix)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize Redis store")
	}
	defer func() {
		log.Info().Msg("Closing Redis store...")
		if err := store.Close(); err != nil {
			log.Error().Err(err).Msg("Error closing Redis store")
		}
	}()
	digestCache := cache.NewDigestCache(store, cfg.CacheTTL, nil)

	// Authenticate against Bluesky
	bsky := bluesky.NewClient(cfg.BskyHost)
	loginCtx, cancelLogin := context.WithTimeout(context.Background(), cfg.HTTPTimeout)
	if err := bsky.Login(loginCtx, cfg.BskyIdentifier, cfg.BskyAppPassword); err != nil {
		cancelLogin()
		log.Fatal().Err(err).Msg("Failed to authenticate with Bluesky")
	}
	cancelLogin()
	log.Info().Str("did", bsky.DID()).Msg("Authenticated with Bluesky")

	// Build the digest pipeline
	collectorOpts := digest.CollectorOptions{
		Cutoff:        cfg.DigestCutoff,
		PageSize:      cfg.TimelinePageSize,
		StopThreshold: cfg.OldPostThreshold,
		MaxPosts:      cfg.MaxTimelinePosts,
	}
	collector := digest.NewCollector(digest.TimelineSource(bsky), collectorOpts)

	matcher, err := digest.NewKeywordMatcher(cfg.TopicKeywords, cfg.TopicWholeWord)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to compile topic keywords")
	}
	feeds, err := digest.ParseFeedRefs(cfg.TopicFeeds)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to parse topic feeds")
	}
	topics := digest.NewTopicFilter(bsky, matcher, feeds, collectorOpts)

	synth := digest.NewSynthesizer(ai.NewOpenAI(cfg.AIApiKey, cfg.AIModel), cfg.AIMaxTokens)

	var archive digest.Archiver
	if cfg.R2Endpoint != "" {
		r2, err := storage.NewArchive(context.Background(), cfg.R2Endpoint, cfg.R2AccessKey, cfg.R2SecretKey, cfg.R2Bucket)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to initialize digest archive")
		}
		archive = r2
		log.Info().Str("bucket", cfg.R2Bucket).Msg("Digest archive enabled")
	}

	service := digest.NewService(collector, topics, synth, digestCache, digest.ServiceOptions{
		Archive:   archive,
		RankLimit: cfg.MaxRankedPosts,
	})

	// Create Fiber app with custom config
	app := fiber.New(fiber.Config{
		ReadTimeout:  cfg.HTTPTimeout,
		WriteTimeout: cfg.HTTPTimeout,
		IdleTimeout:  120 * time.Second,
		ErrorHandler: middleware.ErrorHandler,
	})

	// Global middleware
	app.Use(recover.New())
	app.Use(middleware.RequestLogger())

	// Setup API routes
	api.SetupRoutes(app, api.NewHandlers(service, digestCache), cfg.AdminAPIKey)

	// Start server in a goroutine
	go func() {
		log.Info().Str("port", cfg.Port).Msg("Starting server")
		if err := app.Listen(":" + cfg.Port); err != nil {
			log.Fatal().Err(err).Msg("Server error")
		}
	}()

	// Wait for interrupt signal to gracefully shut down the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := app.ShutdownWithContext(ctx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exited properly")
}
