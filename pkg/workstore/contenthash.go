package workstore

import (
	"crypto/md5"
	"encoding/hex"

	"github.com/cuemby/docpipeline/pkg/types"
)

// ContentMD5 computes the dedup hash Phase 5 delivery uses as its sole
// content-identity key: the first attachment's raw bytes when the item
// carries one, otherwise the concatenated envelope body. Computed once
// here so every phase that writes an Artifact for the same item produces
// the same hash regardless of which phase finishes it.
func ContentMD5(item types.WorkItem) string {
	var sum [16]byte
	if len(item.Attachments) > 0 {
		sum = md5.Sum(item.Attachments[0].Data)
	} else {
		sum = md5.Sum([]byte(item.Envelope.Body))
	}
	return hex.EncodeToString(sum[:])
}
