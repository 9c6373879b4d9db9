package launcher

import (
	"fmt"

	"github.com/cuemby/docpipeline/pkg/types"
	"github.com/cuemby/docpipeline/pkg/workstore"
)

// PhaseStatus is one phase's row in the status report: how many items
// have reached a terminal Artifact, how many are recorded as failed, and
// how many are sitting in a deferred queue waiting on budget or
// throttle, plus how many instances this Launcher currently has running
// for the phase.
type PhaseStatus struct {
	Phase            types.Phase
	Completed        int
	Failed           int
	Deferred         int
	RunningInstances int
}

// StatusReport aggregates PhaseStatus across every phase, the shape the
// `status` CLI command prints.
type StatusReport struct {
	Phases []PhaseStatus
}

// Report builds a StatusReport by reading the work store's artifact and
// failure-stream counts for every phase and cross-referencing this
// Launcher's own running-instance tally.
func Report(store *workstore.Store, l *Launcher) (StatusReport, error) {
	phases := []types.Phase{types.Phase1, types.Phase2, types.Phase3, types.Phase4, types.Phase5}
	report := StatusReport{Phases: make([]PhaseStatus, 0, len(phases))}

	for _, phase := range phases {
		// Phase 5 has no local results/failed directories of its own: it
		// consumes the union of phases 1-4's Artifacts and delivers to the
		// remote document-management service, so its row only reports
		// running instances.
		completed, err := store.CountArtifacts(phase)
		if err != nil {
			return StatusReport{}, fmt.Errorf("launcher: count artifacts for phase %d: %w", phase, err)
		}

		var failed, deferred int
		if phase != types.Phase5 {
			failures, err := store.ReadFailures(phase)
			if err != nil {
				return StatusReport{}, fmt.Errorf("launcher: read failures for phase %d: %w", phase, err)
			}
			failed = len(failures)

			deferredRecords, err := store.ReadDeferred(phase)
			if err != nil {
				return StatusReport{}, fmt.Errorf("launcher: read deferred for phase %d: %w", phase, err)
			}
			deferred = len(deferredRecords)
		}

		running := 0
		if l != nil {
			running = l.runningCount(phase)
		}

		report.Phases = append(report.Phases, PhaseStatus{
			Phase:            phase,
			Completed:        completed,
			Failed:           failed,
			Deferred:         deferred,
			RunningInstances: running,
		})
	}

	return report, nil
}
