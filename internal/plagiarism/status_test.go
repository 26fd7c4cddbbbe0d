package plagiarism

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/RishiKendai/overlap/internal/models"
)

func TestStatusKey(t *testing.T) {
	assert.Equal(t, "similarity_report_status:hw1", statusKey("hw1"))
}

func TestStatusStore_RejectsUnknownStep(t *testing.T) {
	store := NewStatusStore(nil)
	err := store.UpdateStatus(context.Background(), "hw1", models.Step("exploded"))
	assert.Error(t, err)
}
