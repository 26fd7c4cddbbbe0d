package stream

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RishiKendai/overlap/internal/models"
)

type fakeList struct {
	key    string
	values []interface{}
}

func (f *fakeList) LPush(ctx context.Context, key string, values ...interface{}) *redis.IntCmd {
	f.key = key
	f.values = append(f.values, values...)
	cmd := redis.NewIntCmd(ctx)
	cmd.SetVal(int64(len(f.values)))
	return cmd
}

func fastHandler(list *fakeList) *RetryHandler {
	h := NewRetryHandler(list, "similarity:dlq")
	h.baseDelay = time.Millisecond
	h.maxDelay = 2 * time.Millisecond
	return h
}

func TestRetryWithBackoff_Success(t *testing.T) {
	list := &fakeList{}
	calls := 0

	err := fastHandler(list).RetryWithBackoff(context.Background(), func() error {
		calls++
		if calls < 2 {
			return errors.New("transient")
		}
		return nil
	}, "1-0", nil)

	require.NoError(t, err)
	assert.Equal(t, 2, calls)
	assert.Empty(t, list.values)
}

func TestRetryWithBackoff_DeadLetter(t *testing.T) {
	list := &fakeList{}
	calls := 0

	err := fastHandler(list).RetryWithBackoff(context.Background(), func() error {
		calls++
		return errors.New("mongo unavailable")
	}, "1-0", map[string]string{"assignmentId": "hw1"})

	require.Error(t, err)
	assert.Equal(t, 3, calls)
	assert.Equal(t, "similarity:dlq", list.key)
	require.Len(t, list.values, 1)

	var dl DeadLetter
	require.NoError(t, json.Unmarshal(list.values[0].([]byte), &dl))
	assert.Equal(t, "1-0", dl.MessageID)
	assert.Equal(t, "hw1", dl.Fields["assignmentId"])
	assert.Equal(t, 3, dl.Attempts)
	assert.Equal(t, "mongo unavailable", dl.Error)
}

func TestRetryWithBackoff_PermanentError(t *testing.T) {
	list := &fakeList{}
	calls := 0

	err := fastHandler(list).RetryWithBackoff(context.Background(), func() error {
		calls++
		return fmt.Errorf("%w: hw9", models.ErrAssignmentNotFound)
	}, "1-0", nil)

	require.Error(t, err)
	assert.Equal(t, 1, calls)
	assert.Len(t, list.values, 1)
}

func TestRetryWithBackoff_Cancelled(t *testing.T) {
	list := &fakeList{}
	ctx, cancel := context.WithCancel(context.Background())

	err := fastHandler(list).RetryWithBackoff(ctx, func() error {
		cancel()
		return errors.New("interrupted")
	}, "1-0", nil)

	require.Error(t, err)
	assert.Empty(t, list.values)
}

func TestBackoff(t *testing.T) {
	h := NewRetryHandler(&fakeList{}, "dlq")
	assert.Equal(t, time.Second, h.backoff(1))
	assert.Equal(t, 2*time.Second, h.backoff(2))
	assert.Equal(t, 4*time.Second, h.backoff(3))
	assert.Equal(t, 30*time.Second, h.backoff(10))
	assert.Equal(t, 30*time.Second, h.backoff(70))
}
