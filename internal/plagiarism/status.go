package plagiarism

import (
	"context"
	"errors"
	"fmt"
	"time"

	redisInfra "github.com/RishiKendai/overlap/internal/infra/redis"
	"github.com/RishiKendai/overlap/internal/models"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const (
	statusKeyPrefix = "similarity_report_status:"
	statusTTL       = 12 * time.Hour
)

var validSteps = map[models.Step]bool{
	models.StepIdle:      true,
	models.StepInitiated: true,
	models.StepStarted:   true,
	models.StepLoading:   true,
	models.StepComparing: true,
	models.StepCompleted: true,
	models.StepFailed:    true,
}

// StatusStore keeps the current step of each assignment's run in Redis
type StatusStore struct {
	client *redisInfra.Client
}

func NewStatusStore(client *redisInfra.Client) *StatusStore {
	return &StatusStore{client: client}
}

func statusKey(assignmentID string) string {
	return statusKeyPrefix + assignmentID
}

func (s *StatusStore) UpdateStatus(ctx context.Context, assignmentID string, step models.Step) error {
	if !validSteps[step] {
		return fmt.Errorf("unknown step: %s", step)
	}

	rkey := statusKey(assignmentID)

	err := s.client.Set(ctx, rkey, string(step), statusTTL).Err()
	if err != nil {
		log.Error().Err(err).
			Str("step", string(step)).
			Str("assignmentId", assignmentID).
			Str("redisKey", rkey).
			Msg("Failed to update status in Redis")
		return fmt.Errorf("failed to update status in Redis: %w", err)
	}

	log.Trace().
		Str("step", string(step)).
		Str("assignmentId", assignmentID).
		Msg("Status updated in Redis")

	return nil
}

// GetStatus returns StepIdle when no run has been recorded
func (s *StatusStore) GetStatus(ctx context.Context, assignmentID string) (models.Step, error) {
	val, err := s.client.Get(ctx, statusKey(assignmentID)).Result()
	if errors.Is(err, redis.Nil) {
		return models.StepIdle, nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to read status from Redis: %w", err)
	}
	return models.Step(val), nil
}
