package launcher

import (
	"context"
	"testing"
	"time"

	"github.com/cuemby/docpipeline/pkg/types"
	"github.com/cuemby/docpipeline/pkg/workstore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReport_AggregatesCompletedFailedDeferredPerPhase(t *testing.T) {
	store, err := workstore.Open(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, store.WriteArtifact(&types.Artifact{ItemID: "item-1", Phase: types.Phase1, DocKind: types.KindInvoice}))
	require.NoError(t, store.AppendFailure(&types.FailureRecord{ItemID: "item-2", Phase: types.Phase1, Reason: types.ReasonOCRInsufficient, RecordedAt: time.Now()}))
	require.NoError(t, store.AppendDeferred(&types.FailureRecord{ItemID: "item-3", Phase: types.Phase3, Reason: types.ReasonQuotaExhausted, RecordedAt: time.Now()}))

	report, err := Report(store, nil)
	require.NoError(t, err)
	require.Len(t, report.Phases, 5)

	assert.Equal(t, 1, report.Phases[0].Completed)
	assert.Equal(t, 1, report.Phases[0].Failed)
	assert.Equal(t, 0, report.Phases[0].Deferred)

	assert.Equal(t, 1, report.Phases[2].Deferred)

	assert.Equal(t, types.Phase5, report.Phases[4].Phase)
	assert.Equal(t, 0, report.Phases[4].Completed)
}

func TestReport_IncludesRunningInstancesFromLauncher(t *testing.T) {
	store, err := workstore.Open(t.TempDir())
	require.NoError(t, err)

	l := NewLauncher(nil)
	_, err = l.Launch(context.Background(), types.Phase1, "machine-a", Range{From: 0, To: 2}, 1, func(r Range) RunFunc {
		return func(ctx context.Context) error { return nil }
	}, time.Hour)
	require.NoError(t, err)
	t.Cleanup(func() { l.Stop("", time.Second) })

	report, err := Report(store, l)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Phases[0].RunningInstances)
}
