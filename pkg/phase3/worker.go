package phase3

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/cuemby/docpipeline/pkg/extclients"
	"github.com/cuemby/docpipeline/pkg/log"
	"github.com/cuemby/docpipeline/pkg/types"
	"github.com/cuemby/docpipeline/pkg/workstore"
	"github.com/rs/zerolog"
)

// Config bounds a Worker's budget and retry behavior.
type Config struct {
	OwnerHost    string
	ModelName    string
	DailyCeiling float64
	CostPerCall  float64
	Backoff      BackoffPolicy
}

// Worker consumes the Phase 2 failure stream and calls the external
// large-model endpoint, subject to a per-day spend ceiling.
type Worker struct {
	store  *workstore.Store
	client *extclients.ExternalModelClient
	budget *BudgetTracker
	cfg    Config
	log    zerolog.Logger
}

// New builds a Phase 3 Worker.
func New(store *workstore.Store, client *extclients.ExternalModelClient, budget *BudgetTracker, cfg Config) *Worker {
	if cfg.Backoff == (BackoffPolicy{}) {
		cfg.Backoff = DefaultBackoff()
	}
	return &Worker{store: store, client: client, budget: budget, cfg: cfg, log: log.WithComponent("phase3")}
}

// ProcessPending drains Phase 2's failure stream (and any previously
// deferred items) through the external model, respecting the daily
// ceiling. Returns counts of items resolved, terminally failed, and
// newly deferred.
func (w *Worker) ProcessPending(ctx context.Context) (done, failed, deferred int, err error) {
	pending, err := w.store.ReadFailures(types.Phase2)
	if err != nil {
		return 0, 0, 0, fmt.Errorf("phase3: read phase2 failures: %w", err)
	}
	replay, err := w.store.ReadDeferred(types.Phase3)
	if err != nil {
		return 0, 0, 0, fmt.Errorf("phase3: read deferred: %w", err)
	}

	allRecords := append(append([]types.FailureRecord{}, replay...), pending...)

	for _, record := range allRecords {
		if ctx.Err() != nil {
			return done, failed, deferred, ctx.Err()
		}

		exceeded, err := w.budget.Exceeded(time.Now(), w.cfg.DailyCeiling)
		if err != nil {
			return done, failed, deferred, fmt.Errorf("phase3: check budget: %w", err)
		}
		if exceeded {
			if err := w.store.AppendDeferred(&types.FailureRecord{
				ItemID:          record.ItemID,
				Phase:           types.Phase3,
				Reason:          types.ReasonQuotaExhausted,
				LastTextSnippet: record.LastTextSnippet,
				ContentMD5:      record.ContentMD5,
			}); err != nil {
				return done, failed, deferred, fmt.Errorf("phase3: append deferred %s: %w", record.ItemID, err)
			}
			deferred++
			continue
		}

		outcome, err := w.ProcessRecord(ctx, record)
		if err != nil {
			return done, failed, deferred, err
		}
		switch outcome {
		case outcomeDone:
			done++
		case outcomeFailed:
			failed++
		}
	}

	if len(replay) > 0 {
		if err := w.store.ClearDeferred(types.Phase3); err != nil {
			return done, failed, deferred, fmt.Errorf("phase3: clear deferred: %w", err)
		}
	}
	return done, failed, deferred, nil
}

type outcome int

const (
	outcomeSkipped outcome = iota
	outcomeDone
	outcomeFailed
)

// ProcessRecord claims record's item, calls the external model with
// bounded retry, and writes either its Artifact or a Phase 4 failure
// record on terminal failure.
func (w *Worker) ProcessRecord(ctx context.Context, record types.FailureRecord) (outcome, error) {
	itemLog := w.log.With().Str("item_id", record.ItemID).Logger()

	claimed, err := w.store.Claim(types.Phase3, record.ItemID, w.cfg.OwnerHost)
	if err != nil {
		return outcomeSkipped, fmt.Errorf("phase3: claim %s: %w", record.ItemID, err)
	}
	if !claimed {
		return outcomeSkipped, nil
	}

	prompt := fmt.Sprintf("classify and extract fields from the following document text:\n%s", record.LastTextSnippet)
	verdict, callErr := Retry(ctx, w.cfg.Backoff, isRetryable, func(ctx context.Context) (extclients.InferenceVerdict, error) {
		return w.client.Infer(ctx, w.cfg.ModelName, prompt)
	})

	if _, budgetErr := w.budget.Add(time.Now(), w.cfg.CostPerCall); budgetErr != nil {
		return outcomeSkipped, fmt.Errorf("phase3: record spend %s: %w", record.ItemID, budgetErr)
	}

	if callErr != nil || verdict.DocKind == "" {
		if err := w.store.AppendFailure(&types.FailureRecord{
			ItemID:          record.ItemID,
			Phase:           types.Phase3,
			Reason:          reasonFor(callErr),
			LastTextSnippet: record.LastTextSnippet,
			ContentMD5:      record.ContentMD5,
		}); err != nil {
			return outcomeSkipped, fmt.Errorf("phase3: append failure %s: %w", record.ItemID, err)
		}
		itemLog.Warn().Err(callErr).Msg("external model exhausted, deferred to manual review")
		return outcomeFailed, nil
	}

	sum := sha256.Sum256([]byte(record.LastTextSnippet))
	artifact := &types.Artifact{
		ItemID:        record.ItemID,
		Phase:         types.Phase3,
		DocKind:       types.DocumentKind(verdict.DocKind),
		Fields:        verdict.Fields,
		RawTextSHA256: hex.EncodeToString(sum[:]),
		ContentMD5:    record.ContentMD5,
		Confidence:    verdict.Confidence,
		EscalationTrace: []types.ModelVerdict{{
			Model:      "external_large",
			Kind:       types.DocumentKind(verdict.DocKind),
			Fields:     verdict.Fields,
			Confidence: verdict.Confidence,
			Parsed:     true,
		}},
	}
	if err := w.store.WriteArtifact(artifact); err != nil {
		return outcomeSkipped, fmt.Errorf("phase3: write artifact %s: %w", record.ItemID, err)
	}
	itemLog.Info().Msg("resolved by external model")
	return outcomeDone, nil
}

// isRetryable reports whether a call error warrants another attempt: only
// 5xx responses (extclients.IsServerError). 4xx responses, 429 included,
// and errors from the rate limiter's own wait are not retried.
func isRetryable(err error) bool {
	if err == nil {
		return false
	}
	return extclients.IsServerError(err)
}

func reasonFor(err error) types.FailureReason {
	if err == nil {
		return types.ReasonModelUnparseable
	}
	if extclients.IsServerError(err) {
		return types.ReasonRateLimited
	}
	return types.ReasonModelUnparseable
}
