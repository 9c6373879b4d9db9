package extclients

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// ExternalModelClient calls the external large-model endpoint used by
// Phase 3. It carries the same request/response shape as InferenceClient
// but is additionally rate-limited, since the external endpoint is a paid
// third-party API rather than a locally hosted model.
type ExternalModelClient struct {
	base    baseClient
	limiter *rate.Limiter
}

// NewExternalModelClient builds an ExternalModelClient against baseURL,
// allowing at most requestsPerSecond calls on average with a burst of
// burst, and bounding every call to timeout.
func NewExternalModelClient(baseURL, token string, requestsPerSecond float64, burst int, timeout time.Duration) *ExternalModelClient {
	return &ExternalModelClient{
		base:    newBaseClient(baseURL, token, timeout),
		limiter: rate.NewLimiter(rate.Limit(requestsPerSecond), burst),
	}
}

// Infer blocks until the rate limiter admits the call (or ctx is
// cancelled), then submits prompt and returns the model's verdict.
func (c *ExternalModelClient) Infer(ctx context.Context, model, prompt string) (InferenceVerdict, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return InferenceVerdict{}, err
	}

	req := inferenceRequest{Model: model, Prompt: prompt}
	var verdict InferenceVerdict
	if err := c.base.doJSON(ctx, "POST", "/infer", req, &verdict); err != nil {
		return InferenceVerdict{}, err
	}
	return verdict, nil
}
