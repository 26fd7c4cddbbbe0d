package stream

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/RishiKendai/overlap/internal/models"
)

// StreamMessage is a stream entry with its string fields
type StreamMessage struct {
	ID     string
	Fields map[string]string
}

// ParseJob reads a compare job from either an "assignmentId" field or a JSON "payload" field
func ParseJob(msg *StreamMessage) (*models.CompareJob, error) {
	job := &models.CompareJob{}

	if payload, ok := msg.Fields["payload"]; ok {
		if err := json.Unmarshal([]byte(payload), job); err != nil {
			return nil, fmt.Errorf("message %s: invalid payload: %w", msg.ID, err)
		}
	} else {
		job.AssignmentID = msg.Fields["assignmentId"]
		job.RequestedBy = msg.Fields["requestedBy"]
	}

	job.AssignmentID = strings.TrimSpace(job.AssignmentID)
	if job.AssignmentID == "" {
		return nil, fmt.Errorf("message %s: assignmentId is required", msg.ID)
	}

	return job, nil
}
