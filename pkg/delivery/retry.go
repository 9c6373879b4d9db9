package delivery

import (
	"context"
	"time"

	"github.com/cuemby/docpipeline/pkg/extclients"
)

// retryAttempts/retryInitial/retryCap mirror the bounded exponential
// backoff Phase 3 uses for its external-model calls (3 attempts, initial
// 2s, cap 30s), applied here to upload/patch calls against the delivery
// target: only a 5xx response is retried, any 4xx (other than the 409
// already handled as a duplicate by Upload) is terminal.
const (
	retryAttempts = 3
	retryInitial  = 2 * time.Second
	retryCap      = 30 * time.Second
)

func retryOnServerError(ctx context.Context, fn func() error) error {
	delay := retryInitial
	var lastErr error
	for attempt := 0; attempt < retryAttempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
			delay *= 2
			if delay > retryCap {
				delay = retryCap
			}
		}
		err := fn()
		if err == nil {
			return nil
		}
		lastErr = err
		if !extclients.IsServerError(err) {
			return err
		}
	}
	return lastErr
}
