package resource

import (
	"context"
	"testing"
	"time"

	"github.com/cuemby/docpipeline/pkg/events"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubSampler struct {
	sample Sample
	err    error
}

func (s stubSampler) Sample(context.Context) (Sample, error) {
	return s.sample, s.err
}

func TestRecommendedInstances_ScalesByHeadroom(t *testing.T) {
	s := Sample{Cores: 8, TotalRAMGiB: 16, CPUPercent: 50, MemoryPercent: 0}
	// base = min(8/2, 16/4) = min(4, 4) = 4; headroom = (100-50)/100 = 0.5
	got := RecommendedInstances(s, false)
	assert.Equal(t, 2, got)
}

func TestRecommendedInstances_ZeroWhenThrottled(t *testing.T) {
	s := Sample{Cores: 8, TotalRAMGiB: 16, CPUPercent: 10}
	assert.Equal(t, 0, RecommendedInstances(s, true))
}

func TestRecommendedInstances_GPUReducesFurtherWhenLimiting(t *testing.T) {
	s := Sample{Cores: 8, TotalRAMGiB: 16, CPUPercent: 0, MemoryPercent: 0, GPUPercent: 90}
	// base = 4; cpu/mem headroom = 1.0; gpu headroom = (100-90)/100 = 0.1
	got := RecommendedInstances(s, false)
	assert.Equal(t, 0, got)
}

func TestRecommendedInstances_NeverNegative(t *testing.T) {
	s := Sample{Cores: 2, TotalRAMGiB: 4, CPUPercent: 200}
	got := RecommendedInstances(s, false)
	assert.GreaterOrEqual(t, got, 0)
}

func TestMonitor_RaisesThrottleAboveCPUThreshold(t *testing.T) {
	sampler := stubSampler{sample: Sample{CPUPercent: 95, Cores: 4, TotalRAMGiB: 8}}
	m := NewMonitor(sampler, DefaultThresholds(), time.Hour, nil, zerolog.Nop())

	m.sampleOnce(context.Background())

	status := m.Status()
	assert.True(t, status.Throttled)
	assert.Equal(t, 0, status.RecommendedInstances)
}

func TestMonitor_NoThrottleWithinThresholds(t *testing.T) {
	sampler := stubSampler{sample: Sample{CPUPercent: 10, MemoryPercent: 10, DiskFreeGiB: 100, Cores: 4, TotalRAMGiB: 8}}
	m := NewMonitor(sampler, DefaultThresholds(), time.Hour, nil, zerolog.Nop())

	m.sampleOnce(context.Background())

	status := m.Status()
	assert.False(t, status.Throttled)
	assert.Greater(t, status.RecommendedInstances, 0)
}

func TestMonitor_RaisesThrottleBelowDiskThreshold(t *testing.T) {
	sampler := stubSampler{sample: Sample{CPUPercent: 5, MemoryPercent: 5, DiskFreeGiB: 1, Cores: 4, TotalRAMGiB: 8}}
	m := NewMonitor(sampler, DefaultThresholds(), time.Hour, nil, zerolog.Nop())

	m.sampleOnce(context.Background())

	assert.True(t, m.Status().Throttled)
}

func TestMonitor_PublishesEventOnThrottleTransition(t *testing.T) {
	broker := events.NewBroker()
	broker.Start()
	defer broker.Stop()
	sub := broker.Subscribe()

	m := NewMonitor(stubSampler{sample: Sample{CPUPercent: 10, Cores: 4, TotalRAMGiB: 8}}, DefaultThresholds(), time.Hour, broker, zerolog.Nop())
	m.sampleOnce(context.Background())

	m.sampler = stubSampler{sample: Sample{CPUPercent: 95, Cores: 4, TotalRAMGiB: 8}}
	m.sampleOnce(context.Background())

	select {
	case ev := <-sub:
		assert.Equal(t, events.EventThrottleChanged, ev.Type)
		assert.Equal(t, "true", ev.Metadata["throttled"])
	case <-time.After(time.Second):
		t.Fatal("expected a throttle.changed event")
	}
}

func TestMonitor_SampleErrorLeavesPreviousStatus(t *testing.T) {
	sampler := stubSampler{sample: Sample{CPUPercent: 10, Cores: 4, TotalRAMGiB: 8}}
	m := NewMonitor(sampler, DefaultThresholds(), time.Hour, nil, zerolog.Nop())
	m.sampleOnce(context.Background())
	first := m.Status()

	m.sampler = stubSampler{err: assertError("boom")}
	m.sampleOnce(context.Background())

	require.Equal(t, first, m.Status())
}

type assertError string

func (e assertError) Error() string { return string(e) }
