package phase4

import (
	"testing"

	"github.com/cuemby/docpipeline/pkg/types"
	"github.com/cuemby/docpipeline/pkg/workstore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueue_PendingExcludesResolvedItems(t *testing.T) {
	store, err := workstore.Open(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, store.AppendFailure(&types.FailureRecord{ItemID: "a", Phase: types.Phase3, ContentMD5: "1"}))
	require.NoError(t, store.AppendFailure(&types.FailureRecord{ItemID: "b", Phase: types.Phase3, ContentMD5: "2"}))
	require.NoError(t, store.WriteArtifact(&types.Artifact{ItemID: "b", Phase: types.Phase4, DocKind: types.KindInvoice}))

	queue := NewQueue(store)
	pending, err := queue.Pending()
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, "a", pending[0].ItemID)
}

func TestQueue_PendingEmptyWhenNoFailures(t *testing.T) {
	store, err := workstore.Open(t.TempDir())
	require.NoError(t, err)

	queue := NewQueue(store)
	pending, err := queue.Pending()
	require.NoError(t, err)
	assert.Empty(t, pending)
}
