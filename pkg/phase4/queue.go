package phase4

import (
	"fmt"

	"github.com/cuemby/docpipeline/pkg/types"
	"github.com/cuemby/docpipeline/pkg/workstore"
)

// Queue lists the items waiting on a human decision.
type Queue struct {
	store *workstore.Store
}

// NewQueue builds a Queue over store.
func NewQueue(store *workstore.Store) *Queue {
	return &Queue{store: store}
}

// Pending returns every Phase 3 failure record that does not already have
// an Artifact — an item can leave the queue only by a reviewer's Resolve
// call, so this list is exactly the review backlog.
func (q *Queue) Pending() ([]types.FailureRecord, error) {
	records, err := q.store.ReadFailures(types.Phase3)
	if err != nil {
		return nil, fmt.Errorf("phase4: read phase3 failures: %w", err)
	}

	var pending []types.FailureRecord
	for _, record := range records {
		done, err := q.store.HasArtifact(record.ItemID, types.Phase4)
		if err != nil {
			return nil, fmt.Errorf("phase4: check artifact %s: %w", record.ItemID, err)
		}
		if !done {
			pending = append(pending, record)
		}
	}
	return pending, nil
}
