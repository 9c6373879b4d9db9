package phase2

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/cuemby/docpipeline/pkg/log"
	"github.com/cuemby/docpipeline/pkg/types"
	"github.com/cuemby/docpipeline/pkg/workstore"
	"github.com/rs/zerolog"
)

// Worker runs the escalation ladder over Phase 1's failure stream.
type Worker struct {
	store     *workstore.Store
	ladder    *Ladder
	ownerHost string
	log       zerolog.Logger
}

// New builds a Phase 2 Worker over store, escalating through ladder.
func New(store *workstore.Store, ladder *Ladder, ownerHost string) *Worker {
	return &Worker{store: store, ladder: ladder, ownerHost: ownerHost, log: log.WithComponent("phase2")}
}

// ProcessPending reads the Phase 1 failure stream and escalates every
// record not already claimed or resolved elsewhere. Returns the number of
// records that reached DONE and the number that reached FAILED.
func (w *Worker) ProcessPending(ctx context.Context) (done int, failed int, err error) {
	records, err := w.store.ReadFailures(types.Phase1)
	if err != nil {
		return 0, 0, fmt.Errorf("phase2: read phase1 failures: %w", err)
	}

	for _, record := range records {
		if ctx.Err() != nil {
			return done, failed, ctx.Err()
		}
		outcome, perr := w.ProcessRecord(ctx, record)
		if perr != nil {
			return done, failed, perr
		}
		switch outcome {
		case outcomeDone:
			done++
		case outcomeFailed:
			failed++
		}
	}
	return done, failed, nil
}

type outcome int

const (
	outcomeSkipped outcome = iota
	outcomeDone
	outcomeFailed
)

// ProcessRecord escalates one Phase 1 failure record through the ladder.
func (w *Worker) ProcessRecord(ctx context.Context, record types.FailureRecord) (outcome, error) {
	itemLog := w.log.With().Str("item_id", record.ItemID).Logger()

	claimed, err := w.store.Claim(types.Phase2, record.ItemID, w.ownerHost)
	if err != nil {
		return outcomeSkipped, fmt.Errorf("phase2: claim %s: %w", record.ItemID, err)
	}
	if !claimed {
		return outcomeSkipped, nil
	}

	text := record.LastTextSnippet
	small := w.ladder.callTier(ctx, TierSmall, buildPrompt(TierSmall, text))
	medium := w.ladder.callTier(ctx, TierMedium, buildPrompt(TierMedium, text))

	trace := []types.ModelVerdict{toModelVerdict(TierSmall, small), toModelVerdict(TierMedium, medium)}

	if small.Parsed && medium.Parsed && medium.Verdict.DocKind == string(small.Verdict.DocKind) {
		return w.finishDone(record, types.DocumentKind(small.Verdict.DocKind), small.Verdict.Fields, small.Verdict.Confidence, trace, text)
	}

	disagreed := small.Parsed && medium.Parsed

	large := w.ladder.callTier(ctx, TierLarge, buildPrompt(TierLarge, text))
	trace = append(trace, toModelVerdict(TierLarge, large))

	if large.Parsed {
		return w.finishDone(record, types.DocumentKind(large.Verdict.DocKind), large.Verdict.Fields, large.Verdict.Confidence, trace, text)
	}

	reason := types.ReasonModelUnparseable
	switch {
	case large.TimedOut:
		reason = types.ReasonModelTimeout
	case disagreed:
		reason = types.ReasonModelDisagreementUnres
	}

	if err := w.store.AppendFailure(&types.FailureRecord{
		ItemID:          record.ItemID,
		Phase:           types.Phase2,
		Reason:          reason,
		LastTextSnippet: text,
		ContentMD5:      record.ContentMD5,
	}); err != nil {
		return outcomeSkipped, fmt.Errorf("phase2: append failure %s: %w", record.ItemID, err)
	}
	itemLog.Warn().Str("reason", string(reason)).Msg("escalation exhausted, deferred to phase3")
	return outcomeFailed, nil
}

// finishDone writes the Artifact that ends an item's escalation, carrying
// forward the content hash computed back in Phase 1 so Phase 5 dedup sees
// the same identity regardless of which phase resolved the item.
func (w *Worker) finishDone(record types.FailureRecord, kind types.DocumentKind, fields map[string]string, confidence float64, trace []types.ModelVerdict, text string) (outcome, error) {
	sum := sha256.Sum256([]byte(text))
	artifact := &types.Artifact{
		ItemID:          record.ItemID,
		Phase:           types.Phase2,
		DocKind:         kind,
		Fields:          fields,
		RawTextSHA256:   hex.EncodeToString(sum[:]),
		ContentMD5:      record.ContentMD5,
		Confidence:      confidence,
		EscalationTrace: trace,
	}
	if err := w.store.WriteArtifact(artifact); err != nil {
		return outcomeSkipped, fmt.Errorf("phase2: write artifact %s: %w", record.ItemID, err)
	}
	return outcomeDone, nil
}
