package workstore

import (
	"crypto/sha256"
	"encoding/hex"
)

// ItemID derives a stable, host-independent identifier from a work item's
// source path. A content-independent hash of the path (rather than a
// random UUID) means two launchers scanning the same input tree on
// different hosts agree on the identifier without needing to communicate.
func ItemID(sourcePath string) string {
	sum := sha256.Sum256([]byte(sourcePath))
	return hex.EncodeToString(sum[:])[:32]
}
