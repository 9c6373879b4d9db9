/*
Package workstore implements the Shared Work Store: the filesystem tree
that every host in the fleet reaches, and the exclusive-create claim
protocol that lets tens to hundreds of worker processes coordinate without
a central broker.

# Layout

Under a configurable root:

	input/                         discovered work items
	results/phase{1..4}/<id>.json  Artifacts
	failed/phase{1..4}.jsonl       FailureRecords, newline-delimited
	locks/phase{1..4}/<id>         claim locks
	xml/<id>.xml                   structured-document payloads
	markers/phase{N}.done          phase completion markers, written only
	                               via Store.WriteMarker, which no command calls

# Claim protocol

Claiming item X in phase P succeeds iff no Artifact for X exists in phases
1..P, and an exclusive-create of locks/P/X succeeds. A lock whose mtime is
older than the stale-lock TTL is treated as abandoned: it is removed and
the create is retried exactly once. The worker writes its host identifier
into the lock body on success and removes the lock itself on completion
(success or failure); a worker that crashes mid-item leaves the lock for
another worker to reclaim after the TTL.

Artifacts are published via write-temp-then-rename so a reader never
observes a partial file; failure records are appended with a single
bounded Write so interleaved writers on NFS-like filesystems don't
interleave bytes inside the same append.
*/
package workstore
