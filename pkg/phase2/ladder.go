package phase2

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cuemby/docpipeline/pkg/extclients"
	"github.com/cuemby/docpipeline/pkg/types"
)

// Tier identifies one rung of the escalation ladder.
type Tier string

const (
	TierSmall  Tier = "small"
	TierMedium Tier = "medium"
	TierLarge  Tier = "large"
)

// TierTimeouts are the suggested per-tier model timeouts.
var TierTimeouts = map[Tier]time.Duration{
	TierSmall:  60 * time.Second,
	TierMedium: 90 * time.Second,
	TierLarge:  180 * time.Second,
}

// Ladder holds one InferenceClient per tier, each targeting a distinct
// local-inference endpoint, and the timeout each tier is bounded to.
type Ladder struct {
	clients  map[Tier]*extclients.InferenceClient
	timeouts map[Tier]time.Duration
}

// NewLadder builds a Ladder from one client per tier. timeouts may be nil,
// in which case TierTimeouts is used.
func NewLadder(small, medium, large *extclients.InferenceClient, timeouts map[Tier]time.Duration) *Ladder {
	if timeouts == nil {
		timeouts = TierTimeouts
	}
	return &Ladder{
		clients: map[Tier]*extclients.InferenceClient{
			TierSmall:  small,
			TierMedium: medium,
			TierLarge:  large,
		},
		timeouts: timeouts,
	}
}

// tierResult is one call's outcome: Verdict is meaningful only if Parsed.
// TimedOut distinguishes a deadline-exceeded final attempt from an
// ordinary unparseable response, so the caller can record the right
// FailureReason instead of collapsing every non-parse into one code.
type tierResult struct {
	Verdict  extclients.InferenceVerdict
	Parsed   bool
	TimedOut bool
}

// callTier invokes model's endpoint with prompt, retrying once on an
// unparseable/failed response, per the ladder's "one retry" rule.
func (l *Ladder) callTier(ctx context.Context, tier Tier, prompt string) tierResult {
	client := l.clients[tier]
	if client == nil {
		return tierResult{}
	}

	timeout := l.timeouts[tier]
	verdict, err := l.invoke(ctx, client, tier, prompt, timeout)
	if err == nil && verdict.DocKind != "" {
		return tierResult{Verdict: verdict, Parsed: true}
	}

	verdict, err = l.invoke(ctx, client, tier, prompt, timeout)
	if err != nil || verdict.DocKind == "" {
		return tierResult{TimedOut: errors.Is(err, context.DeadlineExceeded)}
	}
	return tierResult{Verdict: verdict, Parsed: true}
}

func (l *Ladder) invoke(ctx context.Context, client *extclients.InferenceClient, tier Tier, prompt string, timeout time.Duration) (extclients.InferenceVerdict, error) {
	tctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return client.Infer(tctx, string(tier), prompt)
}

func toModelVerdict(tier Tier, r tierResult) types.ModelVerdict {
	if !r.Parsed {
		return types.ModelVerdict{Model: string(tier), Parsed: false}
	}
	return types.ModelVerdict{
		Model:      string(tier),
		Kind:       types.DocumentKind(r.Verdict.DocKind),
		Fields:     r.Verdict.Fields,
		Confidence: r.Verdict.Confidence,
		Parsed:     true,
	}
}

// buildPrompt renders the shared prompt template for text, parameterized
// by tier so each model gets an identical view of the item.
func buildPrompt(tier Tier, text string) string {
	return fmt.Sprintf("tier=%s\nclassify and extract fields from the following document text:\n%s", tier, text)
}
