package delivery

import (
	"context"
	"fmt"

	"github.com/cuemby/docpipeline/pkg/correspondent"
	"github.com/cuemby/docpipeline/pkg/extclients"
	"github.com/cuemby/docpipeline/pkg/log"
	"github.com/cuemby/docpipeline/pkg/types"
	"github.com/cuemby/docpipeline/pkg/workstore"
	"github.com/rs/zerolog"
)

// Worker delivers resolved Artifacts to the document-management target
// and keeps the correspondent directory reconciled.
type Worker struct {
	store  *workstore.Store
	client *extclients.DeliveryClient
	dir    *correspondent.Directory
	items  map[string]types.WorkItem
	log    zerolog.Logger
}

// New builds a delivery Worker. items is the full input set (from
// workstore.Store.ScanInput), keyed by ItemID, used to source the
// original document blob an Artifact alone does not retain.
func New(store *workstore.Store, client *extclients.DeliveryClient, dir *correspondent.Directory, items []types.WorkItem) *Worker {
	indexed := make(map[string]types.WorkItem, len(items))
	for _, item := range items {
		indexed[item.ItemID] = item
	}
	return &Worker{store: store, client: client, dir: dir, items: indexed, log: log.WithComponent("delivery")}
}

// DeliverAll delivers every Artifact across phases 1-4 not yet delivered.
// Delivery itself has no separate "delivered" marker; idempotency comes
// from the content-hash/correspondent-key/tag-name lookups inside
// DeliverOne, so calling this repeatedly over the same set is safe.
func (w *Worker) DeliverAll(ctx context.Context) (delivered, skipped, failed int, err error) {
	artifacts, err := w.store.ListArtifacts()
	if err != nil {
		return 0, 0, 0, fmt.Errorf("delivery: list artifacts: %w", err)
	}

	for _, artifact := range artifacts {
		if ctx.Err() != nil {
			return delivered, skipped, failed, ctx.Err()
		}
		outcome, derr := w.DeliverOne(ctx, artifact)
		if derr != nil {
			failed++
			w.log.Error().Err(derr).Str("item_id", artifact.ItemID).Msg("delivery failed")
			continue
		}
		if outcome == deliveredNew || outcome == deliveredDuplicate {
			delivered++
		} else {
			skipped++
		}
	}
	return delivered, skipped, failed, nil
}

type deliverOutcome int

const (
	deliverSkipped deliverOutcome = iota
	deliveredNew
	deliveredDuplicate
)

// DeliverOne performs the four-step delivery sequence for one Artifact:
// content dedup, correspondent resolution, tag resolution, upload/patch.
func (w *Worker) DeliverOne(ctx context.Context, artifact *types.Artifact) (deliverOutcome, error) {
	itemLog := w.log.With().Str("item_id", artifact.ItemID).Logger()

	existing, found, err := w.client.FindByHash(ctx, artifact.ContentMD5)
	if err != nil {
		return deliverSkipped, fmt.Errorf("delivery: find by hash: %w", err)
	}

	var documentID string
	outcome := deliveredNew
	if found {
		documentID = existing.ID
		outcome = deliveredDuplicate
	} else {
		blob, filename, mimeType := w.blobFor(artifact)
		var id string
		var duplicate bool
		err := retryOnServerError(ctx, func() error {
			var uploadErr error
			id, duplicate, uploadErr = w.client.Upload(ctx, filename, mimeType, blob)
			return uploadErr
		})
		if err != nil {
			if extclients.IsClientError(err) {
				return deliverSkipped, fmt.Errorf("delivery: terminal upload failure: %w", err)
			}
			return deliverSkipped, fmt.Errorf("delivery: upload: %w", err)
		}
		if duplicate {
			recovered, found, ferr := w.client.FindByHash(ctx, artifact.ContentMD5)
			if ferr != nil {
				return deliverSkipped, fmt.Errorf("delivery: recover duplicate: %w", ferr)
			}
			if !found {
				return deliverSkipped, fmt.Errorf("delivery: upload reported duplicate but hash lookup found nothing")
			}
			documentID = recovered.ID
			outcome = deliveredDuplicate
		} else {
			documentID = id
		}
	}

	correspondentName, err := w.resolveCorrespondent(ctx, artifact)
	if err != nil {
		return deliverSkipped, err
	}
	itemLog.Debug().Str("correspondent", correspondentName).Msg("correspondent resolved")

	if _, err := w.client.ResolveTag(ctx, TagName(artifact.DocKind)); err != nil {
		return deliverSkipped, fmt.Errorf("delivery: resolve tag: %w", err)
	}

	fields := make(map[string]string, len(types.FieldNames))
	for _, name := range types.FieldNames {
		if v, ok := artifact.Fields[name]; ok {
			fields[name] = v
		}
	}
	if err := retryOnServerError(ctx, func() error { return w.client.PatchFields(ctx, documentID, fields) }); err != nil {
		return deliverSkipped, fmt.Errorf("delivery: patch fields: %w", err)
	}

	itemLog.Info().Str("document_id", documentID).Bool("duplicate", outcome == deliveredDuplicate).Msg("delivered")
	return outcome, nil
}

// resolveCorrespondent normalizes the item's sender and looks up (or
// creates) both the local directory entry and the remote correspondent on
// the document-management service, incrementing the local document count
// used by the Merger's highest-count-wins rule. Resolving against the
// remote service (not just the local bbolt cache) is what makes repeat
// runs converge on the same correspondent records there, mirroring the
// FindByHash/ResolveTag calls already made for content and tags.
func (w *Worker) resolveCorrespondent(ctx context.Context, artifact *types.Artifact) (string, error) {
	senderText := artifact.Fields[types.FieldSenderEmail]
	if senderText == "" {
		senderText = artifact.Fields[types.FieldSenderName]
	}
	if senderText == "" {
		senderText = artifact.Fields[types.FieldCounterpartyName]
	}

	key := correspondent.Normalize(senderText)
	if key == "" {
		return "", nil
	}

	local, err := w.dir.Resolve(key)
	if err != nil {
		return "", fmt.Errorf("delivery: resolve local correspondent: %w", err)
	}
	if err := w.dir.IncrementDocumentCount(local.ID, 1); err != nil {
		return "", fmt.Errorf("delivery: increment document count: %w", err)
	}

	if _, err := w.client.ResolveCorrespondent(ctx, local.DisplayName); err != nil {
		return "", fmt.Errorf("delivery: resolve remote correspondent: %w", err)
	}
	return local.DisplayName, nil
}

// blobFor sources the primary document bytes for an Artifact from the
// original input item: the first attachment's raw bytes if one exists,
// otherwise the envelope body re-encoded as plain text. This mirrors
// workstore.ContentMD5's own basis so the bytes hashed and the bytes
// uploaded are always the same object.
func (w *Worker) blobFor(artifact *types.Artifact) (blob []byte, filename, mimeType string) {
	item, ok := w.items[artifact.ItemID]
	if !ok {
		return nil, artifact.ItemID + ".txt", "text/plain"
	}
	if len(item.Attachments) > 0 {
		att := item.Attachments[0]
		return att.Data, att.Filename, att.MIMEType
	}
	return []byte(item.Envelope.Body), artifact.ItemID + ".txt", "text/plain"
}
