package stream

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/RishiKendai/overlap/internal/models"
	"github.com/redis/go-redis/v9"
)

// streamAdder is satisfied by *redis.Client
type streamAdder interface {
	XAdd(ctx context.Context, a *redis.XAddArgs) *redis.StringCmd
}

// Publish appends a compare job to the stream and returns the entry id
func Publish(ctx context.Context, client streamAdder, streamKey string, job models.CompareJob) (string, error) {
	job.AssignmentID = strings.TrimSpace(job.AssignmentID)
	if job.AssignmentID == "" {
		return "", fmt.Errorf("assignmentId is required")
	}

	payload, err := json.Marshal(job)
	if err != nil {
		return "", fmt.Errorf("failed to marshal compare job: %w", err)
	}

	id, err := client.XAdd(ctx, &redis.XAddArgs{
		Stream: streamKey,
		Values: map[string]interface{}{"payload": string(payload)},
	}).Result()
	if err != nil {
		return "", fmt.Errorf("failed to publish compare job: %w", err)
	}

	return id, nil
}
