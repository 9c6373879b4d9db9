package phase3

import (
	"context"
	"time"
)

// BackoffPolicy bounds a retry loop's attempt count and inter-attempt
// sleep, doubling the delay each attempt up to a cap.
type BackoffPolicy struct {
	MaxAttempts int
	Initial     time.Duration
	Factor      float64
	Cap         time.Duration
}

// DefaultBackoff is the suggested policy: 3 attempts, initial 2s, factor
// 2, capped at 30s.
func DefaultBackoff() BackoffPolicy {
	return BackoffPolicy{MaxAttempts: 3, Initial: 2 * time.Second, Factor: 2, Cap: 30 * time.Second}
}

// delay returns the sleep duration before attempt n (0-indexed).
func (p BackoffPolicy) delay(n int) time.Duration {
	d := p.Initial
	for i := 0; i < n; i++ {
		d = time.Duration(float64(d) * p.Factor)
		if d > p.Cap {
			return p.Cap
		}
	}
	return d
}

// Retry calls fn up to policy.MaxAttempts times, sleeping per delay()
// between attempts, stopping early if shouldRetry(err) is false or ctx is
// cancelled. It returns the last call's result and error.
func Retry[T any](ctx context.Context, policy BackoffPolicy, shouldRetry func(error) bool, fn func(ctx context.Context) (T, error)) (T, error) {
	var zero T
	var lastErr error
	for attempt := 0; attempt < policy.MaxAttempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return zero, ctx.Err()
			case <-time.After(policy.delay(attempt - 1)):
			}
		}

		result, err := fn(ctx)
		if err == nil {
			return result, nil
		}
		lastErr = err
		if shouldRetry != nil && !shouldRetry(err) {
			return zero, err
		}
	}
	return zero, lastErr
}
