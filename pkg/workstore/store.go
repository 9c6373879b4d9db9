package workstore

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/cuemby/docpipeline/pkg/types"
)

// StaleLockTTL is the duration after which an unrefreshed lock is treated
// as abandoned and may be reclaimed.
const StaleLockTTL = 10 * time.Minute

// maxFailureRecordBytes bounds a single FailureRecord write so that
// concurrent appenders on a shared filesystem never interleave within one
// record.
const maxFailureRecordBytes = 4096

// allPhases lists every phase whose results directory is checked for an
// existing Artifact before a claim is attempted (invariant: at most one
// Artifact per item across all phases).
var allPhases = []types.Phase{types.Phase1, types.Phase2, types.Phase3, types.Phase4}

// Store is the filesystem-backed Shared Work Store.
type Store struct {
	root string
}

// Open creates (if absent) and returns the well-known subtree under root.
func Open(root string) (*Store, error) {
	s := &Store{root: root}
	dirs := []string{
		s.inputDir(),
		s.xmlDir(),
		s.markersDir(),
	}
	for _, p := range allPhases {
		dirs = append(dirs, s.resultsDir(p), s.locksDir(p))
	}
	for _, d := range dirs {
		if err := os.MkdirAll(d, 0o755); err != nil {
			return nil, fmt.Errorf("workstore: create %s: %w", d, err)
		}
	}
	return s, nil
}

func (s *Store) inputDir() string   { return filepath.Join(s.root, "input") }
func (s *Store) xmlDir() string     { return filepath.Join(s.root, "xml") }
func (s *Store) markersDir() string { return filepath.Join(s.root, "markers") }

func (s *Store) resultsDir(p types.Phase) string {
	return filepath.Join(s.root, "results", p.String())
}

func (s *Store) locksDir(p types.Phase) string {
	return filepath.Join(s.root, "locks", p.String())
}

func (s *Store) failedPath(p types.Phase) string {
	return filepath.Join(s.root, "failed", p.String()+".jsonl")
}

func (s *Store) deferredPath(p types.Phase) string {
	return filepath.Join(s.root, "deferred", p.String()+".jsonl")
}

func (s *Store) resultPath(p types.Phase, itemID string) string {
	return filepath.Join(s.resultsDir(p), itemID+".json")
}

func (s *Store) lockPath(p types.Phase, itemID string) string {
	return filepath.Join(s.locksDir(p), itemID)
}

// lockBody is the content written into a claim lock file.
type lockBody struct {
	ItemID     string    `json:"item_id"`
	OwnerHost  string    `json:"owner_host"`
	AcquiredAt time.Time `json:"acquired_at"`
}

// ErrContention is returned when another worker currently holds the lock
// for an item.
var ErrContention = fmt.Errorf("workstore: claim contention")

// HasArtifact reports whether any phase in 1..upTo already produced an
// Artifact for itemID. Callers skip items where this is true: appearance
// in phase N's failure stream implies absence of an Artifact from phases
// 1..N.
func (s *Store) HasArtifact(itemID string, upTo types.Phase) (bool, error) {
	for _, p := range allPhases {
		if p > upTo {
			break
		}
		if _, err := os.Stat(s.resultPath(p, itemID)); err == nil {
			return true, nil
		} else if !os.IsNotExist(err) {
			return false, fmt.Errorf("workstore: stat artifact: %w", err)
		}
	}
	return false, nil
}

// Claim attempts to acquire the phase/item lock: skip if an Artifact
// already exists; otherwise exclusive-create the lock, reclaiming one
// stale lock if present. Returns (true, nil) on success, (false, nil) on
// contention or already-done, and (false, err) on unexpected filesystem
// errors.
func (s *Store) Claim(phase types.Phase, itemID, ownerHost string) (bool, error) {
	done, err := s.HasArtifact(itemID, phase)
	if err != nil {
		return false, err
	}
	if done {
		return false, nil // already_done
	}

	ok, err := s.tryExclusiveCreate(phase, itemID, ownerHost)
	if err != nil {
		return false, err
	}
	if ok {
		return true, nil
	}

	// Lock already existed. Reclaim it if stale, then retry exactly once.
	reclaimed, err := s.reclaimIfStale(phase, itemID)
	if err != nil {
		return false, err
	}
	if !reclaimed {
		return false, nil // claim_contention
	}
	return s.tryExclusiveCreate(phase, itemID, ownerHost)
}

func (s *Store) tryExclusiveCreate(phase types.Phase, itemID, ownerHost string) (bool, error) {
	body, err := json.Marshal(lockBody{ItemID: itemID, OwnerHost: ownerHost, AcquiredAt: time.Now()})
	if err != nil {
		return false, fmt.Errorf("workstore: marshal lock: %w", err)
	}

	f, err := os.OpenFile(s.lockPath(phase, itemID), os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		if os.IsExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("workstore: create lock: %w", err)
	}
	defer f.Close()

	if _, err := f.Write(body); err != nil {
		return false, fmt.Errorf("workstore: write lock: %w", err)
	}
	return true, nil
}

func (s *Store) reclaimIfStale(phase types.Phase, itemID string) (bool, error) {
	path := s.lockPath(phase, itemID)
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return true, nil // lock disappeared, caller's retry will create it fresh
	}
	if err != nil {
		return false, fmt.Errorf("workstore: stat lock: %w", err)
	}
	if time.Since(info.ModTime()) < StaleLockTTL {
		return false, nil
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return false, fmt.Errorf("workstore: remove stale lock: %w", err)
	}
	return true, nil
}

// ReleaseLock removes the lock held for itemID in phase. Safe to call
// after both successful completion and a rolled-back failure.
func (s *Store) ReleaseLock(phase types.Phase, itemID string) error {
	if err := os.Remove(s.lockPath(phase, itemID)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("workstore: release lock: %w", err)
	}
	return nil
}

// WriteArtifact publishes an Artifact via write-temp-then-rename, so a
// concurrent reader never observes a partially written file, then releases
// the item's lock for this phase.
func (s *Store) WriteArtifact(artifact *types.Artifact) error {
	artifact.WrittenAt = time.Now()
	data, err := json.MarshalIndent(artifact, "", "  ")
	if err != nil {
		return fmt.Errorf("workstore: marshal artifact: %w", err)
	}

	final := s.resultPath(artifact.Phase, artifact.ItemID)
	tmp := final + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("workstore: write temp artifact: %w", err)
	}
	if err := os.Rename(tmp, final); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("workstore: rename artifact: %w", err)
	}
	return s.ReleaseLock(artifact.Phase, artifact.ItemID)
}

// ReadArtifact loads the Artifact written for itemID in phase, if present.
func (s *Store) ReadArtifact(phase types.Phase, itemID string) (*types.Artifact, bool, error) {
	data, err := os.ReadFile(s.resultPath(phase, itemID))
	if os.IsNotExist(err) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("workstore: read artifact: %w", err)
	}
	var a types.Artifact
	if err := json.Unmarshal(data, &a); err != nil {
		return nil, false, fmt.Errorf("workstore: unmarshal artifact: %w", err)
	}
	return &a, true, nil
}

// ListArtifacts returns every Artifact across phases 1..4, the union
// Phase 5 delivery consumes.
func (s *Store) ListArtifacts() ([]*types.Artifact, error) {
	var out []*types.Artifact
	for _, p := range allPhases {
		entries, err := os.ReadDir(s.resultsDir(p))
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return nil, fmt.Errorf("workstore: list results %s: %w", p, err)
		}
		for _, e := range entries {
			if e.IsDir() {
				continue
			}
			itemID := trimJSONExt(e.Name())
			a, ok, err := s.ReadArtifact(p, itemID)
			if err != nil {
				return nil, err
			}
			if ok {
				out = append(out, a)
			}
		}
	}
	return out, nil
}

func trimJSONExt(name string) string {
	const ext = ".json"
	if len(name) > len(ext) && name[len(name)-len(ext):] == ext {
		return name[:len(name)-len(ext)]
	}
	return name
}

// AppendFailure appends record to phase's failure stream. The record is
// marshaled once, bounded by maxFailureRecordBytes, and written with a
// single Write call to stay append-atomic on the shared filesystem.
func (s *Store) AppendFailure(record *types.FailureRecord) error {
	record.RecordedAt = time.Now()
	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("workstore: marshal failure: %w", err)
	}
	data = append(data, '\n')
	if len(data) > maxFailureRecordBytes {
		return fmt.Errorf("workstore: failure record exceeds %d bytes", maxFailureRecordBytes)
	}

	path := s.failedPath(record.Phase)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("workstore: create failed dir: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("workstore: open failure stream: %w", err)
	}
	defer f.Close()
	if _, err := f.Write(data); err != nil {
		return fmt.Errorf("workstore: append failure: %w", err)
	}
	return s.ReleaseLock(record.Phase, record.ItemID)
}

// ReadFailures reads every record currently in phase's failure stream, in
// arrival order — the input Phase N+1 consumes.
func (s *Store) ReadFailures(phase types.Phase) ([]types.FailureRecord, error) {
	f, err := os.Open(s.failedPath(phase))
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("workstore: open failure stream: %w", err)
	}
	defer f.Close()

	var out []types.FailureRecord
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, maxFailureRecordBytes), maxFailureRecordBytes)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var rec types.FailureRecord
		if err := json.Unmarshal(line, &rec); err != nil {
			return nil, fmt.Errorf("workstore: unmarshal failure record: %w", err)
		}
		out = append(out, rec)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("workstore: scan failure stream: %w", err)
	}
	return out, nil
}

// AppendDeferred appends record to phase's deferred queue: items held back
// by a daily budget ceiling rather than failed outright, retried once the
// ceiling resets. Unlike AppendFailure this does not release the item's
// phase lock — the item is still "in flight" for this phase, just paused.
func (s *Store) AppendDeferred(record *types.FailureRecord) error {
	record.RecordedAt = time.Now()
	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("workstore: marshal deferred: %w", err)
	}
	data = append(data, '\n')
	if len(data) > maxFailureRecordBytes {
		return fmt.Errorf("workstore: deferred record exceeds %d bytes", maxFailureRecordBytes)
	}

	path := s.deferredPath(record.Phase)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("workstore: create deferred dir: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("workstore: open deferred queue: %w", err)
	}
	defer f.Close()
	if _, err := f.Write(data); err != nil {
		return fmt.Errorf("workstore: append deferred: %w", err)
	}
	return nil
}

// ReadDeferred reads every record currently queued in phase's deferred
// queue, in arrival order.
func (s *Store) ReadDeferred(phase types.Phase) ([]types.FailureRecord, error) {
	f, err := os.Open(s.deferredPath(phase))
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("workstore: open deferred queue: %w", err)
	}
	defer f.Close()

	var out []types.FailureRecord
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, maxFailureRecordBytes), maxFailureRecordBytes)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var rec types.FailureRecord
		if err := json.Unmarshal(line, &rec); err != nil {
			return nil, fmt.Errorf("workstore: unmarshal deferred record: %w", err)
		}
		out = append(out, rec)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("workstore: scan deferred queue: %w", err)
	}
	return out, nil
}

// ClearDeferred truncates phase's deferred queue, used once every queued
// item has been re-attempted under a reset budget.
func (s *Store) ClearDeferred(phase types.Phase) error {
	path := s.deferredPath(phase)
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("workstore: clear deferred queue: %w", err)
	}
	return nil
}

// WriteXML publishes a structured-document payload for an accounting-kind
// item.
func (s *Store) WriteXML(itemID string, data []byte) error {
	final := filepath.Join(s.xmlDir(), itemID+".xml")
	tmp := final + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("workstore: write temp xml: %w", err)
	}
	if err := os.Rename(tmp, final); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("workstore: rename xml: %w", err)
	}
	return nil
}

// WriteMarker writes the empty marker file signaling that phase's failure
// stream has been fully consumed by the next phase's launcher.
func (s *Store) WriteMarker(phase types.Phase) error {
	path := filepath.Join(s.markersDir(), phase.String()+".done")
	return os.WriteFile(path, nil, 0o644)
}

// HasMarker reports whether phase's completion marker has been written.
func (s *Store) HasMarker(phase types.Phase) (bool, error) {
	_, err := os.Stat(filepath.Join(s.markersDir(), phase.String()+".done"))
	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("workstore: stat marker: %w", err)
	}
	return true, nil
}

// CountArtifacts returns the number of Artifacts written for phase, used
// by the `status` CLI command.
func (s *Store) CountArtifacts(phase types.Phase) (int, error) {
	entries, err := os.ReadDir(s.resultsDir(phase))
	if os.IsNotExist(err) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("workstore: count artifacts: %w", err)
	}
	return len(entries), nil
}
