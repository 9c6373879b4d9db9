package launcher

import (
	"context"
	"testing"
	"time"

	"github.com/cuemby/docpipeline/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLauncher_LaunchStartsOneInstancePerSplitRange(t *testing.T) {
	l := NewLauncher(nil)
	instances, err := l.Launch(context.Background(), types.Phase1, "machine-a", Range{From: 0, To: 20}, 4, func(r Range) RunFunc {
		return func(ctx context.Context) error { return nil }
	}, 5*time.Millisecond)
	require.NoError(t, err)
	require.Len(t, instances, 4)
	t.Cleanup(func() { l.Stop("", time.Second) })

	assert.Len(t, l.Instances(), 4)
	assert.Equal(t, 4, l.runningCount(types.Phase1))
}

func TestLauncher_StopOnlyStopsMatchingMachineTag(t *testing.T) {
	l := NewLauncher(nil)
	_, err := l.Launch(context.Background(), types.Phase1, "machine-a", Range{From: 0, To: 4}, 2, func(r Range) RunFunc {
		return func(ctx context.Context) error { return nil }
	}, 5*time.Millisecond)
	require.NoError(t, err)
	_, err = l.Launch(context.Background(), types.Phase1, "machine-b", Range{From: 4, To: 8}, 2, func(r Range) RunFunc {
		return func(ctx context.Context) error { return nil }
	}, 5*time.Millisecond)
	require.NoError(t, err)

	l.Stop("machine-a", time.Second)

	running := 0
	for _, inst := range l.Instances() {
		if inst.Status() == InstanceRunning {
			running++
		}
	}
	assert.Equal(t, 2, running)
	t.Cleanup(func() { l.Stop("machine-b", time.Second) })
}

func TestLauncher_ReconcileMarksStaleInstancesFailed(t *testing.T) {
	l := NewLauncher(nil)
	_, err := l.Launch(context.Background(), types.Phase2, "machine-a", Range{From: 0, To: 2}, 1, func(r Range) RunFunc {
		return func(ctx context.Context) error { return nil }
	}, time.Hour)
	require.NoError(t, err)
	t.Cleanup(func() { l.Stop("", time.Second) })

	l.reconcile(0)

	found := false
	for _, inst := range l.Instances() {
		if inst.Status() == InstanceFailed {
			found = true
		}
	}
	assert.True(t, found)
}
