package stream

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/RishiKendai/overlap/internal/models"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// DeadLetter is the record pushed to the dead letter list
type DeadLetter struct {
	MessageID string            `json:"messageId"`
	Fields    map[string]string `json:"fields"`
	Error     string            `json:"error"`
	Attempts  int               `json:"attempts"`
	FailedAt  time.Time         `json:"failedAt"`
}

// listPusher is satisfied by *redis.Client
type listPusher interface {
	LPush(ctx context.Context, key string, values ...interface{}) *redis.IntCmd
}

type RetryHandler struct {
	client        listPusher
	deadLetterKey string
	maxAttempts   int
	baseDelay     time.Duration
	maxDelay      time.Duration
}

func NewRetryHandler(client listPusher, deadLetterKey string) *RetryHandler {
	return &RetryHandler{
		client:        client,
		deadLetterKey: deadLetterKey,
		maxAttempts:   3,
		baseDelay:     time.Second,
		maxDelay:      30 * time.Second,
	}
}

// isPermanent reports errors that retrying cannot fix
func isPermanent(err error) bool {
	return errors.Is(err, models.ErrAssignmentNotFound)
}

// backoff returns the wait before retry number attempt (1-based)
func (h *RetryHandler) backoff(attempt int) time.Duration {
	delay := h.baseDelay << (attempt - 1)
	if delay <= 0 || delay > h.maxDelay {
		return h.maxDelay
	}
	return delay
}

// MaxDuration is the longest RetryWithBackoff can take when every attempt
// runs for attemptTimeout.
func (h *RetryHandler) MaxDuration(attemptTimeout time.Duration) time.Duration {
	total := attemptTimeout * time.Duration(h.maxAttempts)
	for attempt := 1; attempt < h.maxAttempts; attempt++ {
		total += h.backoff(attempt)
	}
	return total
}

// RetryWithBackoff calls fn until it succeeds, fails permanently or runs out
// of attempts, then pushes the message to the dead letter list.
func (h *RetryHandler) RetryWithBackoff(ctx context.Context, fn func() error, messageID string, fields map[string]string) error {
	var err error
	attempts := 0
	for attempts < h.maxAttempts {
		attempts++
		if err = fn(); err == nil {
			return nil
		}
		if isPermanent(err) || ctx.Err() != nil {
			break
		}
		if attempts == h.maxAttempts {
			break
		}

		delay := h.backoff(attempts)
		log.Warn().Err(err).
			Str("message_id", messageID).
			Int("attempt", attempts).
			Dur("retry_in", delay).
			Msg("Compare job failed, retrying")

		select {
		case <-ctx.Done():
			return fmt.Errorf("retry aborted: %w", ctx.Err())
		case <-time.After(delay):
		}
	}

	if ctx.Err() != nil {
		return err
	}

	if dlqErr := h.sendToDeadLetter(ctx, messageID, fields, err, attempts); dlqErr != nil {
		log.Error().Err(dlqErr).Str("message_id", messageID).Msg("Failed to dead-letter compare job")
	}
	return err
}

func (h *RetryHandler) sendToDeadLetter(ctx context.Context, messageID string, fields map[string]string, cause error, attempts int) error {
	data, err := json.Marshal(DeadLetter{
		MessageID: messageID,
		Fields:    fields,
		Error:     cause.Error(),
		Attempts:  attempts,
		FailedAt:  time.Now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("failed to marshal dead letter: %w", err)
	}

	if err := h.client.LPush(ctx, h.deadLetterKey, data).Err(); err != nil {
		return fmt.Errorf("failed to push dead letter: %w", err)
	}
	return nil
}
