package launcher

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/cuemby/docpipeline/pkg/log"
	"github.com/cuemby/docpipeline/pkg/metrics"
	"github.com/cuemby/docpipeline/pkg/resource"
	"github.com/cuemby/docpipeline/pkg/types"
	"github.com/rs/zerolog"
)

// Launcher starts, supervises, and stops the worker instances a machine
// owns for a phase, and reconciles their liveness against a stale-
// heartbeat threshold the way a process supervisor would.
type Launcher struct {
	monitor *resource.Monitor
	log     zerolog.Logger

	mu        sync.RWMutex
	instances map[string]*Instance

	stopCh chan struct{}
}

// NewLauncher builds a Launcher. monitor may be nil when the recommended-
// instance-count signal isn't needed (e.g. a single-shot CLI invocation).
func NewLauncher(monitor *resource.Monitor) *Launcher {
	return &Launcher{
		monitor:   monitor,
		log:       log.WithComponent("launcher"),
		instances: make(map[string]*Instance),
		stopCh:    make(chan struct{}),
	}
}

// Launch splits machineRange across instanceCount instances and starts
// one poll loop per slice, each running runFactory(slice) as its RunFunc.
func (l *Launcher) Launch(ctx context.Context, phase types.Phase, machineTag string, machineRange Range, instanceCount int, runFactory func(Range) RunFunc, pollInterval time.Duration) ([]*Instance, error) {
	ranges, err := Split(machineRange, instanceCount)
	if err != nil {
		return nil, fmt.Errorf("launcher: split range: %w", err)
	}

	started := make([]*Instance, 0, len(ranges))
	l.mu.Lock()
	for idx, rng := range ranges {
		id := fmt.Sprintf("%s-phase%d-%d", machineTag, phase, idx)
		inst := NewInstance(id, phase, machineTag, rng, runFactory(rng), pollInterval)
		l.instances[id] = inst
		started = append(started, inst)
	}
	l.mu.Unlock()

	for _, inst := range started {
		inst.Start(ctx)
	}

	metrics.InstancesRunning.WithLabelValues(phaseLabel(phase)).Set(float64(l.runningCount(phase)))
	l.log.Info().Str("machine_tag", machineTag).Int("phase", int(phase)).Int("instances", len(started)).Msg("launched instances")
	return started, nil
}

// Stop stops every instance belonging to machineTag (or every instance if
// machineTag is empty), SIGTERM-style: each instance's context is
// cancelled, then Stop waits up to grace for its current pass to return.
func (l *Launcher) Stop(machineTag string, grace time.Duration) {
	l.mu.RLock()
	var targets []*Instance
	for _, inst := range l.instances {
		if machineTag == "" || inst.MachineTag == machineTag {
			targets = append(targets, inst)
		}
	}
	l.mu.RUnlock()

	var wg sync.WaitGroup
	for _, inst := range targets {
		wg.Add(1)
		go func(inst *Instance) {
			defer wg.Done()
			inst.Stop(grace)
		}(inst)
	}
	wg.Wait()

	for _, phase := range []types.Phase{types.Phase1, types.Phase2, types.Phase3, types.Phase4, types.Phase5} {
		metrics.InstancesRunning.WithLabelValues(phaseLabel(phase)).Set(float64(l.runningCount(phase)))
	}
	l.log.Info().Str("machine_tag", machineTag).Int("stopped", len(targets)).Msg("stopped instances")
}

// Instances returns a snapshot of every instance this Launcher is tracking.
func (l *Launcher) Instances() []*Instance {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]*Instance, 0, len(l.instances))
	for _, inst := range l.instances {
		out = append(out, inst)
	}
	return out
}

func (l *Launcher) runningCount(phase types.Phase) int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	n := 0
	for _, inst := range l.instances {
		if inst.Phase == phase && inst.Status() == InstanceRunning {
			n++
		}
	}
	return n
}

// StartReconciler begins the background reconciliation loop: every
// interval it marks instances whose heartbeat has gone stale as failed,
// refreshes the running-instance gauge, and logs while the resource
// monitor signals throttle.
func (l *Launcher) StartReconciler(ctx context.Context, interval, staleAfter time.Duration) {
	go l.reconcileLoop(ctx, interval, staleAfter)
}

// StopReconciler stops the background reconciliation loop.
func (l *Launcher) StopReconciler() {
	close(l.stopCh)
}

func (l *Launcher) reconcileLoop(ctx context.Context, interval, staleAfter time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	l.log.Info().Msg("launcher reconciler started")
	for {
		select {
		case <-ticker.C:
			l.reconcile(staleAfter)
		case <-l.stopCh:
			l.log.Info().Msg("launcher reconciler stopped")
			return
		case <-ctx.Done():
			return
		}
	}
}

func (l *Launcher) reconcile(staleAfter time.Duration) {
	timer := metrics.NewTimer()
	defer func() {
		timer.ObserveDuration(metrics.ReconciliationDuration)
		metrics.ReconciliationCyclesTotal.Inc()
	}()

	l.reconcileInstances(staleAfter)
	l.reconcileThrottle()
}

// reconcileInstances marks any instance whose heartbeat is older than
// staleAfter as failed, mirroring a down-node detection: the instance's
// own poll loop should have kept its heartbeat fresh every pollInterval,
// so a stale heartbeat means its goroutine has wedged or the process
// hosting it is gone.
func (l *Launcher) reconcileInstances(staleAfter time.Duration) {
	now := time.Now()
	l.mu.RLock()
	instances := make([]*Instance, 0, len(l.instances))
	for _, inst := range l.instances {
		instances = append(instances, inst)
	}
	l.mu.RUnlock()

	for _, inst := range instances {
		if inst.Status() != InstanceRunning {
			continue
		}
		if age := now.Sub(inst.Heartbeat()); age > staleAfter {
			l.log.Warn().
				Str("instance_id", inst.ID).
				Dur("no_heartbeat_duration", age).
				Msg("instance heartbeat stale, marking failed")
			inst.markFailed()
		}
	}

	for _, phase := range []types.Phase{types.Phase1, types.Phase2, types.Phase3, types.Phase4, types.Phase5} {
		metrics.InstancesRunning.WithLabelValues(phaseLabel(phase)).Set(float64(l.runningCount(phase)))
	}
}

// reconcileThrottle logs a warning, with the monitor's recommended instance
// count, whenever the resource monitor's latest sample has raised the
// throttle signal. It does not compare that count with the running
// instances; scaling is left to the operator/CLI, not performed
// automatically.
func (l *Launcher) reconcileThrottle() {
	if l.monitor == nil {
		return
	}
	status := l.monitor.Status()
	if status.SampledAt.IsZero() {
		return
	}
	if status.Throttled {
		l.log.Warn().Int("recommended_instances", status.RecommendedInstances).Msg("resource monitor signaling throttle")
	}
}

func phaseLabel(phase types.Phase) string {
	return fmt.Sprintf("phase%d", int(phase))
}
