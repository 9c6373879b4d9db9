package phase1

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/cuemby/docpipeline/pkg/emit"
	"github.com/cuemby/docpipeline/pkg/extclients"
	"github.com/cuemby/docpipeline/pkg/extract"
	"github.com/cuemby/docpipeline/pkg/log"
	"github.com/cuemby/docpipeline/pkg/rules"
	"github.com/cuemby/docpipeline/pkg/types"
	"github.com/cuemby/docpipeline/pkg/workstore"
	"github.com/rs/zerolog"
)

// minTrustedTextLength is the shortest concatenated text a worker will
// attempt to classify. Below this, OCR is assumed to have failed outright
// rather than produced a document that legitimately classifies as unknown.
const minTrustedTextLength = 100

// Config bounds a Worker's per-item OCR behavior.
type Config struct {
	// OwnerHost identifies this process in claim locks, e.g. hostname:pid.
	OwnerHost string
	// OCRTimeout bounds every single attachment's OCR call.
	OCRTimeout time.Duration
	// MaxPages bounds the OCR engine's per-attachment page budget. Zero
	// means unlimited.
	MaxPages int
}

// Worker implements the Phase 1 layout/OCR and rule-classification stage.
type Worker struct {
	store *workstore.Store
	rules *rules.Table
	ocr   *extclients.OCRClient
	cfg   Config
	log   zerolog.Logger
}

// New builds a Phase 1 Worker over store, classifying with table and
// OCR-ing attachments through ocr.
func New(store *workstore.Store, table *rules.Table, ocr *extclients.OCRClient, cfg Config) *Worker {
	return &Worker{
		store: store,
		rules: table,
		ocr:   ocr,
		cfg:   cfg,
		log:   log.WithComponent("phase1"),
	}
}

// Result summarizes one ProcessItem outcome for a caller accumulating
// per-range statistics.
type Result struct {
	Claimed   bool
	Succeeded bool
	Skipped   bool // already done elsewhere, or lost claim contention
}

// ProcessRange claims and processes every item in items whose Slot falls in
// [from, to), skipping items outside the range entirely. An item that ends
// in a FailureRecord does not abort the range; an error from ProcessItem
// (a work-store or emit failure) ends it and is returned with the counts
// so far.
func (w *Worker) ProcessRange(ctx context.Context, items []types.WorkItem, from, to int) (int, int, error) {
	processed, failed := 0, 0
	for _, item := range items {
		if item.Slot < from || item.Slot >= to {
			continue
		}
		if ctx.Err() != nil {
			return processed, failed, ctx.Err()
		}
		result, err := w.ProcessItem(ctx, item)
		if err != nil {
			return processed, failed, err
		}
		if result.Skipped {
			continue
		}
		processed++
		if !result.Succeeded {
			failed++
		}
	}
	return processed, failed, nil
}

// ProcessItem claims item, OCRs its attachments, classifies, extracts, and
// writes either an Artifact or a FailureRecord. A (Result{Skipped:true},
// nil) return means another phase or worker already owns this item's
// outcome; the caller should move on without counting it.
func (w *Worker) ProcessItem(ctx context.Context, item types.WorkItem) (Result, error) {
	itemLog := w.log.With().Str("item_id", item.ItemID).Logger()

	claimed, err := w.store.Claim(types.Phase1, item.ItemID, w.cfg.OwnerHost)
	if err != nil {
		return Result{}, fmt.Errorf("phase1: claim %s: %w", item.ItemID, err)
	}
	if !claimed {
		return Result{Skipped: true}, nil
	}

	bypassLengthGate := w.rules.IsNotificationSender(item.Envelope.Sender)

	rawText, reason := w.assembleText(ctx, item, itemLog, bypassLengthGate)
	if reason != "" {
		if err := w.store.AppendFailure(&types.FailureRecord{
			ItemID:          item.ItemID,
			Phase:           types.Phase1,
			Reason:          reason,
			LastTextSnippet: snippet(rawText),
			ContentMD5:      workstore.ContentMD5(item),
		}); err != nil {
			return Result{Claimed: true}, fmt.Errorf("phase1: append failure %s: %w", item.ItemID, err)
		}
		itemLog.Warn().Str("reason", string(reason)).Msg("phase1 failed item")
		return Result{Claimed: true, Succeeded: false}, nil
	}

	kind := w.rules.Classify(item.Envelope.Sender, rawText)
	if kind == types.KindUnknown {
		if err := w.store.AppendFailure(&types.FailureRecord{
			ItemID:          item.ItemID,
			Phase:           types.Phase1,
			Reason:          types.ReasonUnclassified,
			LastTextSnippet: snippet(rawText),
			ContentMD5:      workstore.ContentMD5(item),
		}); err != nil {
			return Result{Claimed: true}, fmt.Errorf("phase1: append failure %s: %w", item.ItemID, err)
		}
		itemLog.Info().Msg("unclassified, deferred to phase2")
		return Result{Claimed: true, Succeeded: false}, nil
	}

	fields := extract.Extract(rawText, kind, item.Envelope)

	if types.AccountingKinds[kind] {
		xmlBytes, err := emit.Emit(item.ItemID, kind, fields)
		if err != nil {
			return Result{Claimed: true}, fmt.Errorf("phase1: emit %s: %w", item.ItemID, err)
		}
		if err := w.store.WriteXML(item.ItemID, xmlBytes); err != nil {
			return Result{Claimed: true}, fmt.Errorf("phase1: write xml %s: %w", item.ItemID, err)
		}
	}

	sum := sha256.Sum256([]byte(rawText))
	artifact := &types.Artifact{
		ItemID:        item.ItemID,
		Phase:         types.Phase1,
		DocKind:       kind,
		Fields:        fields,
		RawText:       rawText,
		RawTextSHA256: hex.EncodeToString(sum[:]),
		ContentMD5:    workstore.ContentMD5(item),
		Confidence:    1.0,
	}
	if err := w.store.WriteArtifact(artifact); err != nil {
		return Result{Claimed: true}, fmt.Errorf("phase1: write artifact %s: %w", item.ItemID, err)
	}

	itemLog.Info().Str("doc_kind", string(kind)).Msg("phase1 artifact written")
	return Result{Claimed: true, Succeeded: true}, nil
}

// assembleText OCRs every attachment and concatenates the results with the
// envelope body. It returns a non-empty FailureReason when OCR itself
// failed or the resulting text is too short to classify with confidence.
// bypassLengthGate skips the latter check: a system_notification sender
// must reach Classify regardless of how little text its message carries,
// since that pattern match alone determines its kind.
func (w *Worker) assembleText(ctx context.Context, item types.WorkItem, itemLog zerolog.Logger, bypassLengthGate bool) (string, types.FailureReason) {
	var b strings.Builder
	b.WriteString(item.Envelope.Subject)
	b.WriteString("\n")
	b.WriteString(item.Envelope.Body)

	for _, att := range item.Attachments {
		octx, cancel := context.WithTimeout(ctx, w.cfg.OCRTimeout)
		result, err := w.ocr.Extract(octx, att.Data, att.MIMEType, w.cfg.MaxPages)
		cancel()
		if err != nil {
			if octx.Err() == context.DeadlineExceeded {
				itemLog.Warn().Str("attachment", att.Filename).Msg("ocr timed out")
				return b.String(), types.ReasonOCRTimeout
			}
			itemLog.Warn().Err(err).Str("attachment", att.Filename).Msg("ocr failed")
			return b.String(), types.ReasonOCRError
		}
		b.WriteString("\n")
		b.WriteString(result.Text)
	}

	text := b.String()
	if !bypassLengthGate && len(strings.TrimSpace(text)) < minTrustedTextLength {
		return text, types.ReasonOCRInsufficient
	}
	return text, ""
}

// snippet bounds a last-text-snippet to a size that keeps a FailureRecord
// well under the shared work store's 4KiB append limit.
func snippet(text string) string {
	const maxLen = 512
	text = strings.TrimSpace(text)
	if len(text) <= maxLen {
		return text
	}
	return text[:maxLen]
}

// hostname is a small helper callers use to build Config.OwnerHost.
func hostname() string {
	h, err := os.Hostname()
	if err != nil {
		return "unknown-host"
	}
	return h
}

// DefaultOwnerHost returns a process-identifying owner string combining
// the host name with the process ID, used when a launcher does not
// override Config.OwnerHost explicitly.
func DefaultOwnerHost() string {
	return fmt.Sprintf("%s:%d", hostname(), os.Getpid())
}
