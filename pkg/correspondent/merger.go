package correspondent

import (
	"fmt"
	"sort"

	"github.com/cuemby/docpipeline/pkg/types"
)

// ReassignFunc reassigns every delivered document currently attributed to
// fromID over to toID in the delivery service's own storage. The merger
// calls this once per duplicate before deleting the duplicate's directory
// entry, so the delivery side and the correspondent directory never
// disagree about which correspondent owns a document.
type ReassignFunc func(fromID, toID string) (reassigned int, err error)

// DeleteRemoteFunc removes the duplicate's corresponding record on the
// document-management service, keyed by the duplicate's display name (the
// same name resolveCorrespondent registers it under there). The merger
// calls this after its documents are reassigned and its local directory
// entry is deleted, so the remote service never keeps a correspondent the
// local directory no longer has.
type DeleteRemoteFunc func(displayName string) error

// MergeResult describes the outcome of collapsing one group of duplicate
// correspondents into a single primary.
type MergeResult struct {
	NormalizedKey string
	PrimaryID     string
	PrimaryName   string
	MergedIDs     []string
	DocumentsMoved int
	DryRun        bool
}

// Merger collapses correspondents that share a normalized key down to one
// primary record: the one with the most documents. It runs offline, on
// demand, never during normal Phase 5 delivery.
type Merger struct {
	dir          *Directory
	reassign     ReassignFunc
	deleteRemote DeleteRemoteFunc
}

// NewMerger builds a Merger over dir, using reassign to move documents from
// a duplicate correspondent to its group's primary. deleteRemote may be
// nil, in which case the merge only updates the local directory — a
// deployment with no document-management correspondent records to clean
// up (e.g. a dry-run-only tool) never needs it.
func NewMerger(dir *Directory, reassign ReassignFunc, deleteRemote DeleteRemoteFunc) *Merger {
	return &Merger{dir: dir, reassign: reassign, deleteRemote: deleteRemote}
}

// Run groups every correspondent in the directory by normalized key and
// merges each group with more than one member. When dryRun is true no
// documents are reassigned and no directory entries are deleted; the
// returned results describe what would happen.
func (m *Merger) Run(dryRun bool) ([]MergeResult, error) {
	all, err := m.dir.List()
	if err != nil {
		return nil, fmt.Errorf("correspondent: merger list: %w", err)
	}

	groups := make(map[string][]*types.Correspondent)
	for _, c := range all {
		groups[c.NormalizedKey] = append(groups[c.NormalizedKey], c)
	}

	var results []MergeResult
	keys := make([]string, 0, len(groups))
	for k := range groups {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, key := range keys {
		members := groups[key]
		if len(members) < 2 {
			continue
		}
		result, err := m.mergeGroup(key, members, dryRun)
		if err != nil {
			return results, err
		}
		results = append(results, result)
	}
	return results, nil
}

// mergeGroup picks the member with the highest DocumentCount as primary
// (ties broken by ID, for determinism), reassigns every other member's
// documents to it, and removes the duplicates.
func (m *Merger) mergeGroup(key string, members []*types.Correspondent, dryRun bool) (MergeResult, error) {
	sort.Slice(members, func(i, j int) bool {
		if members[i].DocumentCount != members[j].DocumentCount {
			return members[i].DocumentCount > members[j].DocumentCount
		}
		return members[i].ID < members[j].ID
	})
	primary := members[0]
	duplicates := members[1:]

	result := MergeResult{
		NormalizedKey: key,
		PrimaryID:     primary.ID,
		PrimaryName:   primary.DisplayName,
		DryRun:        dryRun,
	}

	for _, dup := range duplicates {
		result.MergedIDs = append(result.MergedIDs, dup.ID)
		if dryRun {
			result.DocumentsMoved += dup.DocumentCount
			continue
		}

		moved, err := m.reassign(dup.ID, primary.ID)
		if err != nil {
			return result, fmt.Errorf("correspondent: reassign %s -> %s: %w", dup.ID, primary.ID, err)
		}
		result.DocumentsMoved += moved

		if err := m.dir.IncrementDocumentCount(primary.ID, moved); err != nil {
			return result, fmt.Errorf("correspondent: update primary count: %w", err)
		}
		if err := m.dir.Delete(dup.ID); err != nil {
			return result, fmt.Errorf("correspondent: delete duplicate %s: %w", dup.ID, err)
		}
		if m.deleteRemote != nil {
			if err := m.deleteRemote(dup.DisplayName); err != nil {
				return result, fmt.Errorf("correspondent: delete remote duplicate %s: %w", dup.DisplayName, err)
			}
		}
	}
	return result, nil
}
