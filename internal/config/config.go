package config

import (
	"fmt"
	"time"

	"github.com/RishiKendai/overlap/internal/configs/env"
	"github.com/RishiKendai/overlap/internal/plagiarism"
)

const (
	SourceMongo  = "mongo"
	SourcePortal = "portal"
	SourceDir    = "dir"
)

// Config holds all configuration for the application
type Config struct {
	// MongoDB
	MongoURI    string
	MongoDBName string

	// Redis
	RedisHost               string
	RedisPassword           string
	RedisStreamKey          string
	RedisConsumerGroup      string
	RedisDeadLetterKey      string
	StreamRetentionDuration time.Duration

	// Submission source: mongo, portal or dir
	SubmissionSource string
	PortalBaseURL    string
	PortalAPIKey     string
	UploadsDir       string

	// JWT
	JWTSecret string
	JWTIssuer string

	// Rate Limiting
	RateLimitRPS float64

	// Concurrency
	MaxConcurrentCompute int

	// Computation
	ComputationTimeout time.Duration
	ShingleSize        int
	MinTokenLength     int

	// Interpretation tiers
	TierSignificant float64
	TierModerate    float64

	// Logging
	LogLevel string

	// Server
	ServerPort  string
	MetricsPort string
}

func Load() (*Config, error) {
	cfg := &Config{}

	// MongoDB
	cfg.MongoURI = env.GetEnv("MONGO_URI", "")
	cfg.MongoDBName = env.GetEnv("MONGO_DB_NAME", "")

	// Redis
	cfg.RedisHost = env.GetEnv("REDIS_HOST", "localhost:6379")
	cfg.RedisPassword = env.GetEnv("REDIS_PASSWORD", "")
	cfg.RedisStreamKey = env.GetEnv("REDIS_STREAM_KEY", "similarity:stream")
	cfg.RedisConsumerGroup = env.GetEnv("REDIS_CONSUMER_GROUP", "similarity:group")
	cfg.RedisDeadLetterKey = env.GetEnv("REDIS_DEAD_LETTER_KEY", "similarity:dlq")
	retentionHours := env.GetEnvInt("STREAM_RETENTION_DURATION", 24)
	cfg.StreamRetentionDuration = time.Duration(retentionHours) * time.Hour

	// Submission source
	cfg.SubmissionSource = env.GetEnv("SUBMISSION_SOURCE", SourceMongo)
	cfg.PortalBaseURL = env.GetEnv("PORTAL_BASE_URL", "")
	cfg.PortalAPIKey = env.GetEnv("PORTAL_API_KEY", "")
	cfg.UploadsDir = env.GetEnv("UPLOADS_DIR", "uploads")

	// JWT
	cfg.JWTSecret = env.GetEnv("JWT_SECRET", "")
	cfg.JWTIssuer = env.GetEnv("JWT_ISSUER", "overlap")

	// Rate Limiting
	cfg.RateLimitRPS = env.GetEnvFloat("RATE_LIMIT_RPS", 10.0)

	// Concurrency
	cfg.MaxConcurrentCompute = env.GetEnvInt("MAX_CONCURRENT_COMPUTE", 5)

	// Computation
	timeoutMinutes := env.GetEnvInt("COMPUTATION_TIMEOUT_MINUTES", 10)
	cfg.ComputationTimeout = time.Duration(timeoutMinutes) * time.Minute
	cfg.ShingleSize = env.GetEnvInt("SHINGLE_SIZE", plagiarism.DefaultShingleSize)
	cfg.MinTokenLength = env.GetEnvInt("MIN_TOKEN_LENGTH", plagiarism.DefaultMinTokenLength)

	// Interpretation tiers
	defaults := plagiarism.DefaultTiers()
	cfg.TierSignificant = env.GetEnvFloat("TIER_SIGNIFICANT", defaults.Significant)
	cfg.TierModerate = env.GetEnvFloat("TIER_MODERATE", defaults.Moderate)

	// Logging
	cfg.LogLevel = env.GetEnv("LOG_LEVEL", "info")

	// Server
	cfg.ServerPort = env.GetEnv("SERVER_PORT", "8080")
	cfg.MetricsPort = env.GetEnv("METRICS_PORT", "2112")

	return cfg, nil
}

func (c *Config) Validate() error {
	switch c.SubmissionSource {
	case SourceMongo:
	case SourcePortal:
		if c.PortalBaseURL == "" {
			return fmt.Errorf("PORTAL_BASE_URL is required when SUBMISSION_SOURCE=portal")
		}
	case SourceDir:
		if c.UploadsDir == "" {
			return fmt.Errorf("UPLOADS_DIR is required when SUBMISSION_SOURCE=dir")
		}
	default:
		return fmt.Errorf("SUBMISSION_SOURCE must be one of mongo, portal, dir; got %q", c.SubmissionSource)
	}
	// Reports are always persisted in MongoDB.
	if c.MongoURI == "" {
		return fmt.Errorf("MONGO_URI is required")
	}
	if c.MongoDBName == "" {
		return fmt.Errorf("MONGO_DB_NAME is required")
	}
	if c.RedisHost == "" {
		return fmt.Errorf("REDIS_HOST is required")
	}
	if c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}
	if c.MaxConcurrentCompute <= 0 {
		return fmt.Errorf("MAX_CONCURRENT_COMPUTE must be greater than 0")
	}
	if c.ComputationTimeout <= 0 {
		return fmt.Errorf("COMPUTATION_TIMEOUT_MINUTES must be greater than 0")
	}
	if c.StreamRetentionDuration <= 0 {
		return fmt.Errorf("STREAM_RETENTION_DURATION must be greater than 0")
	}
	if c.ShingleSize <= 0 {
		return fmt.Errorf("SHINGLE_SIZE must be greater than 0")
	}
	if c.MinTokenLength < 0 {
		return fmt.Errorf("MIN_TOKEN_LENGTH must not be negative")
	}
	if err := c.Tiers().Validate(); err != nil {
		return fmt.Errorf("invalid TIER_SIGNIFICANT/TIER_MODERATE: %w", err)
	}
	return nil
}

// Engine returns the comparison settings
func (c *Config) Engine() plagiarism.Options {
	opts := plagiarism.DefaultOptions()
	opts.ShingleSize = c.ShingleSize
	opts.MinTokenLength = c.MinTokenLength
	return opts
}

func (c *Config) Tiers() plagiarism.Tiers {
	return plagiarism.Tiers{
		Significant: c.TierSignificant,
		Moderate:    c.TierModerate,
	}
}
