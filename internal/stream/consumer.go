package stream

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/RishiKendai/overlap/internal/models"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const (
	readCount       = 10
	readBlock       = time.Second
	// minClaimIdle is the floor of the idle time before another consumer may take over an entry.
	minClaimIdle    = time.Minute
	claimBatch      = 100
	pelInterval     = 30 * time.Second
	cleanupInterval = time.Hour
)

// JobRunner executes one compare job
type JobRunner interface {
	Run(ctx context.Context, assignmentID, requestedBy string) (*models.SimilarityReport, error)
}

// streamClient is the part of *redis.Client the consumer uses
type streamClient interface {
	XGroupCreateMkStream(ctx context.Context, stream, group, start string) *redis.StatusCmd
	XReadGroup(ctx context.Context, a *redis.XReadGroupArgs) *redis.XStreamSliceCmd
	XAutoClaim(ctx context.Context, a *redis.XAutoClaimArgs) *redis.XAutoClaimCmd
	XTrimMinID(ctx context.Context, key string, minID string) *redis.IntCmd
	XAck(ctx context.Context, stream, group string, ids ...string) *redis.IntCmd
}

// ConsumerConfig names the stream, group and consumer identity
type ConsumerConfig struct {
	StreamKey     string
	ConsumerGroup string
	ConsumerName  string
	// JobTimeout bounds one comparison run.
	JobTimeout time.Duration
	// Retention is how long entries stay in the stream before trimming.
	Retention time.Duration
}

// Consumer reads compare jobs from a Redis stream through a consumer group
type Consumer struct {
	client       streamClient
	cfg          ConsumerConfig
	runner       JobRunner
	retryHandler *RetryHandler
	claimMinIdle time.Duration
}

func NewConsumer(client streamClient, cfg ConsumerConfig, runner JobRunner, retryHandler *RetryHandler) *Consumer {
	return &Consumer{
		client:       client,
		cfg:          cfg,
		runner:       runner,
		retryHandler: retryHandler,
		claimMinIdle: claimIdle(cfg.JobTimeout, retryHandler),
	}
}

// claimIdle outlasts a job's slowest run, all retries and backoffs included,
// so a live consumer never has its entry reclaimed mid-run.
func claimIdle(jobTimeout time.Duration, retry *RetryHandler) time.Duration {
	busy := jobTimeout
	if retry != nil {
		busy = retry.MaxDuration(jobTimeout)
	}
	return max(minClaimIdle, busy+minClaimIdle)
}

// Start blocks until ctx is cancelled, reading new jobs, periodically
// reclaiming idle pending entries and trimming entries past retention.
func (c *Consumer) Start(ctx context.Context) error {
	if err := c.ensureGroup(ctx); err != nil {
		log.Warn().Err(err).Str("group", c.cfg.ConsumerGroup).Msg("Failed to create consumer group")
	}

	// Crash recovery: entries delivered to a consumer that died before XACK
	if err := c.reclaimPending(ctx); err != nil {
		log.Warn().Err(err).Msg("Failed to reclaim pending jobs on startup")
	}
	c.trim(ctx)

	pelTicker := time.NewTicker(pelInterval)
	defer pelTicker.Stop()
	cleanupTicker := time.NewTicker(cleanupInterval)
	defer cleanupTicker.Stop()

	log.Info().
		Str("stream", c.cfg.StreamKey).
		Str("group", c.cfg.ConsumerGroup).
		Str("consumer", c.cfg.ConsumerName).
		Dur("retention", c.cfg.Retention).
		Msg("Stream consumer started")

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-pelTicker.C:
			if err := c.reclaimPending(ctx); err != nil {
				log.Warn().Err(err).Msg("Failed to reclaim pending jobs")
			}
		case <-cleanupTicker.C:
			c.trim(ctx)
		default:
			if err := c.readNew(ctx); err != nil && ctx.Err() == nil {
				log.Error().Err(err).Msg("Error consuming compare jobs")
				sleep(ctx, time.Second)
			}
		}
	}
}

func (c *Consumer) ensureGroup(ctx context.Context) error {
	// MKSTREAM creates the stream if it doesn't exist
	err := c.client.XGroupCreateMkStream(ctx, c.cfg.StreamKey, c.cfg.ConsumerGroup, "$").Err()
	if err != nil && strings.Contains(err.Error(), "BUSYGROUP") {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to create consumer group: %w", err)
	}

	log.Info().
		Str("group", c.cfg.ConsumerGroup).
		Str("stream", c.cfg.StreamKey).
		Msg("Created consumer group")
	return nil
}

func (c *Consumer) readNew(ctx context.Context) error {
	streams, err := c.client.XReadGroup(ctx, &redis.XReadGroupArgs{
		Group:    c.cfg.ConsumerGroup,
		Consumer: c.cfg.ConsumerName,
		Streams:  []string{c.cfg.StreamKey, ">"},
		Count:    readCount,
		Block:    readBlock,
	}).Result()
	if errors.Is(err, redis.Nil) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read from stream: %w", err)
	}

	for _, stream := range streams {
		for _, msg := range stream.Messages {
			c.handle(ctx, msg)
		}
	}
	return nil
}

// reclaimPending takes over entries idle in other consumers' pending lists
func (c *Consumer) reclaimPending(ctx context.Context) error {
	start := "0-0"
	for {
		msgs, next, err := c.client.XAutoClaim(ctx, &redis.XAutoClaimArgs{
			Stream:   c.cfg.StreamKey,
			Group:    c.cfg.ConsumerGroup,
			Consumer: c.cfg.ConsumerName,
			MinIdle:  c.claimMinIdle,
			Start:    start,
			Count:    claimBatch,
		}).Result()
		if errors.Is(err, redis.Nil) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to claim pending jobs: %w", err)
		}

		if len(msgs) > 0 {
			log.Info().Int("claimed", len(msgs)).Msg("Reclaimed pending compare jobs")
		}
		for _, msg := range msgs {
			c.handle(ctx, msg)
		}

		if next == "0-0" || len(msgs) == 0 {
			return nil
		}
		start = next
	}
}

// handle runs one job and acknowledges it once it either succeeded or was dead-lettered
func (c *Consumer) handle(ctx context.Context, msg redis.XMessage) {
	fields := make(map[string]string, len(msg.Values))
	for key, val := range msg.Values {
		if value, ok := val.(string); ok {
			fields[key] = value
		}
	}

	job, err := ParseJob(&StreamMessage{ID: msg.ID, Fields: fields})
	if err != nil {
		log.Error().Err(err).Str("message_id", msg.ID).Msg("Dropping malformed compare job")
		c.acknowledge(ctx, msg.ID)
		return
	}

	err = c.retryHandler.RetryWithBackoff(ctx, func() error {
		jobCtx, cancel := context.WithTimeout(ctx, c.cfg.JobTimeout)
		defer cancel()
		_, err := c.runner.Run(jobCtx, job.AssignmentID, job.RequestedBy)
		return err
	}, msg.ID, fields)

	if err != nil && ctx.Err() != nil {
		// Shutting down: leave the entry pending so another consumer reclaims it.
		return
	}
	if err != nil {
		log.Error().Err(err).
			Str("message_id", msg.ID).
			Str("assignmentId", job.AssignmentID).
			Msg("Compare job dead-lettered")
	}
	c.acknowledge(ctx, msg.ID)
}

// trim removes entries older than the retention window
func (c *Consumer) trim(ctx context.Context) {
	cutoff := time.Now().Add(-c.cfg.Retention)
	minID := fmt.Sprintf("%d-0", cutoff.UnixMilli())

	trimmed, err := c.client.XTrimMinID(ctx, c.cfg.StreamKey, minID).Result()
	if err != nil {
		log.Error().Err(err).Msg("Failed to trim stream")
		return
	}
	if trimmed > 0 {
		log.Debug().
			Int64("trimmed", trimmed).
			Str("cutoff_time", cutoff.Format(time.RFC3339)).
			Msg("Trimmed old compare jobs from stream")
	}
}

func (c *Consumer) acknowledge(ctx context.Context, messageID string) {
	if err := c.client.XAck(ctx, c.cfg.StreamKey, c.cfg.ConsumerGroup, messageID).Err(); err != nil {
		log.Error().Err(err).Str("message_id", messageID).Msg("Failed to acknowledge message")
		return
	}
	log.Debug().Str("message_id", messageID).Msg("Message acknowledged")
}

func sleep(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
