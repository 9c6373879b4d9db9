package phase4

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/cuemby/docpipeline/pkg/log"
	"github.com/cuemby/docpipeline/pkg/types"
	"github.com/cuemby/docpipeline/pkg/workstore"
	"github.com/rs/zerolog"
)

// Resolver writes a reviewer's decision for one queued item.
type Resolver struct {
	store     *workstore.Store
	ownerHost string
	log       zerolog.Logger
}

// NewResolver builds a Resolver over store.
func NewResolver(store *workstore.Store, ownerHost string) *Resolver {
	return &Resolver{store: store, ownerHost: ownerHost, log: log.WithComponent("phase4")}
}

// Resolve claims record's item and writes its Artifact with the
// reviewer's chosen kind and fields. reviewer identifies the human for
// the escalation trace's audit trail.
func (r *Resolver) Resolve(record types.FailureRecord, kind types.DocumentKind, fields map[string]string, reviewer string) error {
	claimed, err := r.store.Claim(types.Phase4, record.ItemID, r.ownerHost)
	if err != nil {
		return fmt.Errorf("phase4: claim %s: %w", record.ItemID, err)
	}
	if !claimed {
		return fmt.Errorf("phase4: %s already resolved or claimed elsewhere", record.ItemID)
	}

	sum := sha256.Sum256([]byte(record.LastTextSnippet))
	artifact := &types.Artifact{
		ItemID:        record.ItemID,
		Phase:         types.Phase4,
		DocKind:       kind,
		Fields:        fields,
		RawTextSHA256: hex.EncodeToString(sum[:]),
		ContentMD5:    record.ContentMD5,
		Confidence:    1.0,
		EscalationTrace: []types.ModelVerdict{{
			Model:  "manual:" + reviewer,
			Kind:   kind,
			Fields: fields,
			Parsed: true,
		}},
	}
	if err := r.store.WriteArtifact(artifact); err != nil {
		return fmt.Errorf("phase4: write artifact %s: %w", record.ItemID, err)
	}

	r.log.Info().Str("item_id", record.ItemID).Str("reviewer", reviewer).Str("doc_kind", string(kind)).Msg("manual review resolved")
	return nil
}
