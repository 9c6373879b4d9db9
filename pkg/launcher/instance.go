package launcher

import (
	"context"
	"sync"
	"time"

	"github.com/cuemby/docpipeline/pkg/log"
	"github.com/cuemby/docpipeline/pkg/types"
	"github.com/rs/zerolog"
)

// RunFunc performs one pass of a phase's work over whatever items are
// ready for it (an index range for Phase 1, the pending failure stream
// for Phases 2-4, every Artifact for Phase 5). A non-nil error is a worker-fatal condition
// (configuration or repeated filesystem failure) per the pipeline's
// error-handling contract; analyzer-level failures are expected to be
// caught internally and surfaced as FailureRecords, never returned here.
type RunFunc func(ctx context.Context) error

// InstanceStatus is the supervised lifecycle state of one Instance.
type InstanceStatus string

const (
	InstanceRunning InstanceStatus = "running"
	InstanceStopped InstanceStatus = "stopped"
	InstanceFailed  InstanceStatus = "failed"
)

// maxConsecutiveFSErrors mirrors the "three consecutive fs_error failures"
// worker-exit threshold.
const maxConsecutiveFSErrors = 3

// Instance supervises one worker loop: it calls RunFunc on a fixed poll
// interval, tracks a heartbeat the reconciler uses for liveness, and
// stops on either repeated run failures or an explicit Stop.
type Instance struct {
	ID         string
	Phase      types.Phase
	MachineTag string
	Range      Range

	run          RunFunc
	pollInterval time.Duration
	log          zerolog.Logger

	mu            sync.RWMutex
	status        InstanceStatus
	lastHeartbeat time.Time
	consecFailed  int

	cancel context.CancelFunc
	done   chan struct{}
}

// NewInstance builds an Instance. It does not start running until Start
// is called.
func NewInstance(id string, phase types.Phase, machineTag string, rng Range, run RunFunc, pollInterval time.Duration) *Instance {
	return &Instance{
		ID:           id,
		Phase:        phase,
		MachineTag:   machineTag,
		Range:        rng,
		run:          run,
		pollInterval: pollInterval,
		log:          log.WithComponent("launcher").With().Str("instance_id", id).Logger(),
		status:       InstanceStopped,
	}
}

// Start begins the poll loop in the background.
func (i *Instance) Start(ctx context.Context) {
	runCtx, cancel := context.WithCancel(ctx)
	i.mu.Lock()
	i.cancel = cancel
	i.status = InstanceRunning
	i.lastHeartbeat = time.Now()
	i.done = make(chan struct{})
	done := i.done
	i.mu.Unlock()

	go i.loop(runCtx, done)
}

func (i *Instance) loop(ctx context.Context, done chan struct{}) {
	defer close(done)
	ticker := time.NewTicker(i.pollInterval)
	defer ticker.Stop()

	i.tick(ctx)
	for {
		select {
		case <-ticker.C:
			if !i.tick(ctx) {
				return
			}
		case <-ctx.Done():
			i.mu.Lock()
			if i.status == InstanceRunning {
				i.status = InstanceStopped
			}
			i.mu.Unlock()
			return
		}
	}
}

// tick runs one RunFunc pass and returns false if the instance should stop.
func (i *Instance) tick(ctx context.Context) bool {
	err := i.run(ctx)

	i.mu.Lock()
	defer i.mu.Unlock()
	i.lastHeartbeat = time.Now()
	if err != nil {
		i.consecFailed++
		i.log.Error().Err(err).Int("consecutive_failures", i.consecFailed).Msg("instance pass failed")
		if i.consecFailed >= maxConsecutiveFSErrors {
			i.status = InstanceFailed
			return false
		}
		return true
	}
	i.consecFailed = 0
	return true
}

// Stop cancels the instance's context and waits up to grace for its
// current pass to finish before returning.
func (i *Instance) Stop(grace time.Duration) {
	i.mu.RLock()
	cancel := i.cancel
	done := i.done
	i.mu.RUnlock()
	if cancel == nil {
		return
	}
	cancel()

	if done == nil {
		return
	}
	select {
	case <-done:
	case <-time.After(grace):
	}

	i.mu.Lock()
	if i.status == InstanceRunning {
		i.status = InstanceStopped
	}
	i.mu.Unlock()
}

// Status returns the instance's current lifecycle state.
func (i *Instance) Status() InstanceStatus {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return i.status
}

// Heartbeat returns the time of the instance's last completed pass.
func (i *Instance) Heartbeat() time.Time {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return i.lastHeartbeat
}

// markFailed transitions the instance to InstanceFailed, used by the
// reconciler when it detects a stale heartbeat.
func (i *Instance) markFailed() {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.status = InstanceFailed
}
