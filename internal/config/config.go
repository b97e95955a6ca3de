package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
type Config struct {
	// Server configuration
	Port            string        `json:"port"`
	Env             string        `json:"env"`
	ShutdownTimeout time.Duration `json:"shutdown_timeout"`
	HTTPTimeout     time.Duration `json:"http_timeout"`

	// Bluesky configuration
	BskyHost        string `json:"bsky_host"`
	BskyIdentifier  string `json:"bsky_identifier" validate:"required"`
	BskyAppPassword string `json:"-" validate:"required"`

	// Digest collection
	DigestCutoff     time.Duration `json:"digest_cutoff"`
	TimelinePageSize int           `json:"timeline_page_size"`
	OldPostThreshold int           `json:"old_post_threshold"`
	MaxTimelinePosts int           `json:"max_timeline_posts"`
	MaxRankedPosts   int           `json:"max_ranked_posts"`

	// Topic filter
	TopicFeeds     []string `json:"topic_feeds"`
	TopicKeywords  []string `json:"topic_keywords"`
	TopicWholeWord bool     `json:"topic_whole_word"`

	// Redis configuration
	RedisURL    string        `json:"redis_url"`
	RedisPrefix string        `json:"redis_prefix"`
	CacheTTL    time.Duration `json:"cache_ttl"`

	// AI Configuration
	AIApiKey    string `json:"-" validate:"required"`
	AIModel     string `json:"ai_model"`
	AIMaxTokens int    `json:"ai_max_tokens"`

	// CloudFlare R2 digest archive (optional, disabled when endpoint is empty)
	R2Endpoint  string `json:"r2_endpoint"`
	R2AccessKey string `json:"-"`
	R2SecretKey string `json:"-"`
	R2Bucket    string `json:"r2_bucket"`

	// Logging
	LogLevel string `json:"log_level"`

	// Security
	AdminAPIKey string `json:"-"`
}

// Load loads configuration from environment variables and validates it
func Load() *Config {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("Warning: Error loading .env file: %v", err)
	}

	cfg := &Config{
		// Server configuration
		Port:            getEnv("PORT", "8080"),
		Env:             getEnv("APP_ENV", "development"),
		ShutdownTimeout: getEnvAsDuration("SHUTDOWN_TIMEOUT", 10*time.Second),
		HTTPTimeout:     getEnvAsDuration("HTTP_TIMEOUT", 30*time.Second),

		// Bluesky configuration
		BskyHost:        getEnv("BSKY_HOST", "https://bsky.social"),
		BskyIdentifier:  getEnv("BSKY_IDENTIFIER", ""),
		BskyAppPassword: getEnv("BSKY_APP_PASSWORD", ""),

		// Digest collection
		DigestCutoff:     getEnvAsDuration("DIGEST_CUTOFF", 24*time.Hour),
		TimelinePageSize: getEnvAsInt("TIMELINE_PAGE_SIZE", 100),
		OldPostThreshold: getEnvAsInt("OLD_POST_THRESHOLD", 20),
		MaxTimelinePosts: getEnvAsInt("MAX_TIMELINE_POSTS", 1000),
		MaxRankedPosts:   getEnvAsInt("MAX_RANKED_POSTS", 150),

		// Topic filter. Feeds are actor/generator-key pairs, e.g.
		// "did:plc:abc.../aiandml" or "handle.bsky.social/aiandml".
		TopicFeeds:     getEnvAsSlice("TOPIC_FEEDS", nil),
		TopicKeywords:  getEnvAsSlice("TOPIC_KEYWORDS", nil),
		TopicWholeWord: getEnvAsBool("TOPIC_WHOLE_WORD", true),

		// Redis configuration
		RedisURL:    getEnv("REDIS_URL", "redis://localhost:6379/0"),
		RedisPrefix: getEnv("REDIS_PREFIX", "bskydigest:"),
		CacheTTL:    getEnvAsDuration("CACHE_TTL", 24*time.Hour),

		// AI Configuration
		AIApiKey:    getEnv("AI_API_KEY", ""),
		AIModel:     getEnv("AI_MODEL", "gpt-4o-mini"),
		AIMaxTokens: getEnvAsInt("AI_MAX_TOKENS", 2000),

		// CloudFlare R2 Configuration
		R2Endpoint:  getEnv("R2_ENDPOINT", ""),
		R2AccessKey: getEnv("R2_ACCESS_KEY", ""),
		R2SecretKey: getEnv("R2_SECRET_ACCESS_KEY", ""),
		R2Bucket:    getEnv("R2_BUCKET", "bskydigest"),

		// Logging
		LogLevel: getEnv("LOG_LEVEL", "info"),

		// Security
		AdminAPIKey: getEnv("ADMIN_API_KEY", ""),
	}

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	return cfg
}

// Validate validates the configuration. Missing required credentials are
// fatal before any network call is attempted.
func (c *Config) Validate() error {
	return validator.New().Struct(c)
}

// Helper functions for environment variable handling
func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvAsInt(name string, defaultVal int) int {
	valueStr := getEnv(name, "")
	if valueStr == "" {
		return defaultVal
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		log.Printf("Invalid %s value: %v, using default: %d", name, err, defaultVal)
		return defaultVal
	}
	return value
}

func getEnvAsBool(name string, defaultVal bool) bool {
	valueStr := getEnv(name, "")
	if valueStr == "" {
		return defaultVal
	}
	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		log.Printf("Invalid %s value: %v, using default: %v", name, err, defaultVal)
		return defaultVal
	}
	return value
}

func getEnvAsDuration(name string, defaultVal time.Duration) time.Duration {
	valueStr := getEnv(name, "")
	if valueStr == "" {
		return defaultVal
	}
	value, err := time.ParseDuration(valueStr)
	if err != nil {
		log.Printf("Invalid %s value: %v, using default: %v", name, err, defaultVal)
		return defaultVal
	}
	return value
}

func getEnvAsSlice(name string, defaultVal []string) []string {
	valueStr := getEnv(name, "")
	if valueStr == "" {
		return defaultVal
	}
	parts := strings.Split(valueStr, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
