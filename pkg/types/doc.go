/*
Package types defines the core data structures shared across every phase of
the extraction pipeline.

This package contains the fundamental domain model: work items discovered
from the input archive, the per-phase artifacts and failure records that
flow between phases, the closed DocumentKind set, claim locks, and
correspondent records. These types are used by every other package for
state management and for the shapes written to and read from the shared
work store.

# Architecture

The types package is the foundation of the pipeline's data model:

  - WorkItem: the atomic unit of processing, discovered once by the launcher
  - Artifact: the single per-item, per-phase success record
  - FailureRecord: an append-only record that seeds the next phase
  - DocumentKind: the closed tag set a classifier assigns
  - Lock: the claim primitive that prevents double processing
  - Correspondent: the canonical sender entity used by delivery/dedup

All types are designed to be:
  - Serializable (JSON, since every on-disk record is JSON)
  - Self-documenting (clear field names, units in comments)
  - Validated at the boundary (closed DocumentKind set, explicit zero values)

# Lifecycle

WorkItems are created once by the launcher's scan of the input tree and are
never mutated; an item's journey is recorded externally, by the presence or
absence of Artifacts and FailureRecords naming its item_id across the
per-phase result and failure streams in the shared work store
(pkg/workstore). A WorkItem has at most one Artifact across all phases
(spec invariant).

# See Also

  - pkg/workstore for persistence and the claim protocol
  - pkg/rules for the DocumentKind classification tables
  - pkg/correspondent for the Correspondent normalization/merge logic
*/
package types
