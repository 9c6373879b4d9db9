package extclients

import (
	"context"
	"time"
)

// InferenceVerdict is a model's structured opinion about a document.
type InferenceVerdict struct {
	DocKind    string            `json:"doc_kind"`
	Fields     map[string]string `json:"fields"`
	Confidence float64           `json:"confidence"`
}

type inferenceRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
}

// InferenceClient calls a local-inference endpoint used by Phase 2's
// escalation ladder (small/medium/large local models). One client
// instance targets one endpoint; the ladder holds one client per tier.
type InferenceClient struct {
	base baseClient
}

// NewInferenceClient builds an InferenceClient against baseURL, bounding
// every call to timeout (the per-tier model timeout from configuration).
func NewInferenceClient(baseURL, token string, timeout time.Duration) *InferenceClient {
	return &InferenceClient{base: newBaseClient(baseURL, token, timeout)}
}

// Infer submits prompt to model and returns its structured verdict.
func (c *InferenceClient) Infer(ctx context.Context, model, prompt string) (InferenceVerdict, error) {
	req := inferenceRequest{Model: model, Prompt: prompt}
	var verdict InferenceVerdict
	if err := c.base.doJSON(ctx, "POST", "/infer", req, &verdict); err != nil {
		return InferenceVerdict{}, err
	}
	return verdict, nil
}
