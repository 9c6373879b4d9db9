package phase3

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRetry_SucceedsOnFirstAttempt(t *testing.T) {
	calls := 0
	result, err := Retry(context.Background(), DefaultBackoff(), nil, func(ctx context.Context) (int, error) {
		calls++
		return 42, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 42, result)
	assert.Equal(t, 1, calls)
}

func TestRetry_StopsImmediatelyWhenNotRetryable(t *testing.T) {
	calls := 0
	_, err := Retry(context.Background(), DefaultBackoff(), func(error) bool { return false }, func(ctx context.Context) (int, error) {
		calls++
		return 0, errors.New("terminal")
	})
	require.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestRetry_ExhaustsMaxAttempts(t *testing.T) {
	calls := 0
	policy := BackoffPolicy{MaxAttempts: 3, Initial: time.Millisecond, Factor: 2, Cap: 10 * time.Millisecond}
	_, err := Retry(context.Background(), policy, func(error) bool { return true }, func(ctx context.Context) (int, error) {
		calls++
		return 0, errors.New("always fails")
	})
	require.Error(t, err)
	assert.Equal(t, 3, calls)
}

func TestBackoffPolicy_DelayDoublesAndCaps(t *testing.T) {
	policy := BackoffPolicy{MaxAttempts: 5, Initial: time.Second, Factor: 2, Cap: 5 * time.Second}
	assert.Equal(t, time.Second, policy.delay(0))
	assert.Equal(t, 2*time.Second, policy.delay(1))
	assert.Equal(t, 4*time.Second, policy.delay(2))
	assert.Equal(t, 5*time.Second, policy.delay(3))
}
