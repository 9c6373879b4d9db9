package resource

import (
	"context"
	"math"
	"sync"
	"time"

	"github.com/cuemby/docpipeline/pkg/events"
	"github.com/cuemby/docpipeline/pkg/metrics"
	"github.com/rs/zerolog"
)

// Thresholds configures when the throttle signal raises.
type Thresholds struct {
	CPUPercent     float64
	MemoryPercent  float64
	GPUPercent     float64
	MinFreeDiskGiB float64
}

// DefaultThresholds matches the pipeline's documented defaults.
func DefaultThresholds() Thresholds {
	return Thresholds{
		CPUPercent:     85,
		MemoryPercent:  85,
		GPUPercent:     90,
		MinFreeDiskGiB: 10,
	}
}

// Status is the monitor's latest published snapshot: the sample it was
// derived from, whether throttle is raised, and the recommended instance
// count for this host.
type Status struct {
	Sample               Sample
	Throttled            bool
	RecommendedInstances int
	SampledAt            time.Time
}

// Monitor periodically samples host resources, computes the throttle
// signal and recommended-instance count, updates the exported gauges, and
// publishes a throttle.changed event on the shared broker whenever the
// signal flips.
type Monitor struct {
	sampler    Sampler
	thresholds Thresholds
	interval   time.Duration
	broker     *events.Broker
	log        zerolog.Logger

	mu     sync.RWMutex
	status Status

	stopCh chan struct{}
}

// NewMonitor builds a Monitor. broker may be nil if throttle-change events
// are not needed (e.g. in a single-process test harness).
func NewMonitor(sampler Sampler, thresholds Thresholds, interval time.Duration, broker *events.Broker, log zerolog.Logger) *Monitor {
	return &Monitor{
		sampler:    sampler,
		thresholds: thresholds,
		interval:   interval,
		broker:     broker,
		log:        log.With().Str("component", "resource_monitor").Logger(),
		stopCh:     make(chan struct{}),
	}
}

// Start begins the sampling loop in the background.
func (m *Monitor) Start(ctx context.Context) {
	ticker := time.NewTicker(m.interval)
	go func() {
		m.sampleOnce(ctx)

		for {
			select {
			case <-ticker.C:
				m.sampleOnce(ctx)
			case <-m.stopCh:
				ticker.Stop()
				return
			case <-ctx.Done():
				ticker.Stop()
				return
			}
		}
	}()
}

// Stop stops the sampling loop.
func (m *Monitor) Stop() {
	close(m.stopCh)
}

// Status returns the most recently computed status.
func (m *Monitor) Status() Status {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.status
}

func (m *Monitor) sampleOnce(ctx context.Context) {
	sample, err := m.sampler.Sample(ctx)
	if err != nil {
		m.log.Warn().Err(err).Msg("resource sample failed")
		return
	}

	throttled := m.isThrottled(sample)
	recommended := RecommendedInstances(sample, throttled)

	m.mu.Lock()
	wasThrottled := m.status.Throttled
	m.status = Status{
		Sample:               sample,
		Throttled:            throttled,
		RecommendedInstances: recommended,
		SampledAt:            time.Now(),
	}
	m.mu.Unlock()

	metrics.ResourceCPUPercent.Set(sample.CPUPercent)
	metrics.ResourceMemoryPercent.Set(sample.MemoryPercent)
	metrics.ResourceGPUPercent.Set(sample.GPUPercent)
	metrics.ResourceDiskPercent.Set(sample.DiskFreeGiB)
	if throttled {
		metrics.ThrottleActive.Set(1)
	} else {
		metrics.ThrottleActive.Set(0)
	}

	if throttled != wasThrottled && m.broker != nil {
		msg := "throttle released"
		if throttled {
			msg = "throttle raised"
		}
		m.broker.Publish(&events.Event{
			Type:    events.EventThrottleChanged,
			Message: msg,
			Metadata: map[string]string{
				"throttled": boolString(throttled),
			},
		})
	}
}

// isThrottled raises the signal if any tracked resource has crossed its
// configured threshold.
func (m *Monitor) isThrottled(s Sample) bool {
	t := m.thresholds
	if s.CPUPercent > t.CPUPercent {
		return true
	}
	if s.MemoryPercent > t.MemoryPercent {
		return true
	}
	if t.GPUPercent > 0 && s.GPUPercent > t.GPUPercent {
		return true
	}
	if s.DiskFreeGiB < t.MinFreeDiskGiB {
		return true
	}
	return false
}

// RecommendedInstances computes min(cores/2, ram_gib/4) scaled by
// (100 - current_usage%)/100, further reduced when the GPU is the limiting
// resource. current_usage% is the larger of sampled CPU and memory
// utilization, since either can be the bottleneck. Returns 0 when
// throttled, since the recommendation exists to tell the launcher whether
// headroom remains at all.
func RecommendedInstances(s Sample, throttled bool) int {
	if throttled {
		return 0
	}

	byCores := float64(s.Cores) / 2
	byRAM := s.TotalRAMGiB / 4
	base := math.Min(byCores, byRAM)

	usage := math.Max(s.CPUPercent, s.MemoryPercent)
	headroom := (100 - usage) / 100
	if headroom < 0 {
		headroom = 0
	}
	recommended := base * headroom

	if s.GPUPercent > 0 {
		gpuHeadroom := (100 - s.GPUPercent) / 100
		if gpuHeadroom < headroom {
			recommended = base * gpuHeadroom
		}
	}

	n := int(math.Floor(recommended))
	if n < 0 {
		n = 0
	}
	return n
}

func boolString(b bool) string {
	if b {
		return "true"
	}
	return "false"
}
