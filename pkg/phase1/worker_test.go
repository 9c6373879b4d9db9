package phase1

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/cuemby/docpipeline/pkg/extclients"
	"github.com/cuemby/docpipeline/pkg/rules"
	"github.com/cuemby/docpipeline/pkg/types"
	"github.com/cuemby/docpipeline/pkg/workstore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testTable(t *testing.T) *rules.Table {
	t.Helper()
	table, err := rules.NewTable(
		[]string{`^noreply@`},
		[]rules.Rule{
			{Kind: types.KindInvoice, Positive: rules.MustCompile(`(?i)invoice|faktura`)},
		},
	)
	require.NoError(t, err)
	return table
}

func testOCRServer(t *testing.T, text string) *extclients.OCRClient {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(extclients.OCRResult{Text: text, Confidence: 0.95, Language: "en"})
	}))
	t.Cleanup(server.Close)
	return extclients.NewOCRClient(server.URL, "tok", time.Second)
}

func newTestWorker(t *testing.T, store *workstore.Store, ocrText string) *Worker {
	t.Helper()
	return New(store, testTable(t), testOCRServer(t, ocrText), Config{
		OwnerHost:  "test-host",
		OCRTimeout: time.Second,
		MaxPages:   5,
	})
}

func TestProcessItem_WritesArtifactForClassifiedItem(t *testing.T) {
	store, err := workstore.Open(t.TempDir())
	require.NoError(t, err)
	w := newTestWorker(t, store, "Invoice number 12345 total 500 CZK due upon receipt, please remit payment within thirty days of this notice.")

	item := types.WorkItem{
		ItemID:      "item-1",
		Envelope:    types.Envelope{Sender: "billing@example.com", Subject: "Invoice"},
		Attachments: []types.Attachment{{Filename: "a.pdf", MIMEType: "application/pdf", Data: []byte("blob")}},
	}

	result, err := w.ProcessItem(context.Background(), item)
	require.NoError(t, err)
	assert.True(t, result.Claimed)
	assert.True(t, result.Succeeded)

	artifact, ok, err := store.ReadArtifact(types.Phase1, "item-1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, types.KindInvoice, artifact.DocKind)
	assert.NotEmpty(t, artifact.ContentMD5)
}

func TestProcessItem_RecordsFailureWhenTextTooShort(t *testing.T) {
	store, err := workstore.Open(t.TempDir())
	require.NoError(t, err)
	w := newTestWorker(t, store, "hi")

	item := types.WorkItem{
		ItemID:      "item-2",
		Envelope:    types.Envelope{Sender: "someone@example.com"},
		Attachments: []types.Attachment{{Filename: "a.pdf", MIMEType: "application/pdf", Data: []byte("blob")}},
	}

	result, err := w.ProcessItem(context.Background(), item)
	require.NoError(t, err)
	assert.True(t, result.Claimed)
	assert.False(t, result.Succeeded)

	failures, err := store.ReadFailures(types.Phase1)
	require.NoError(t, err)
	require.Len(t, failures, 1)
	assert.Equal(t, types.ReasonOCRInsufficient, failures[0].Reason)
}

func TestProcessItem_NotificationSenderBypassesTextLengthGate(t *testing.T) {
	store, err := workstore.Open(t.TempDir())
	require.NoError(t, err)
	w := newTestWorker(t, store, "")

	item := types.WorkItem{
		ItemID: "item-notification",
		Envelope: types.Envelope{
			Sender:  "noreply@loxone.com",
			Subject: "Statistic report",
		},
	}

	result, err := w.ProcessItem(context.Background(), item)
	require.NoError(t, err)
	assert.True(t, result.Claimed)
	assert.True(t, result.Succeeded)

	failures, err := store.ReadFailures(types.Phase1)
	require.NoError(t, err)
	assert.Empty(t, failures, "a system_notification sender must never be pushed toward phase2")

	artifacts, err := store.ListArtifacts()
	require.NoError(t, err)
	require.Len(t, artifacts, 1)
	assert.Equal(t, types.KindSystemNotification, artifacts[0].DocKind)
}

func TestProcessItem_RecordsUnclassifiedWhenNoRuleMatches(t *testing.T) {
	store, err := workstore.Open(t.TempDir())
	require.NoError(t, err)
	w := newTestWorker(t, store, "A long message about nothing in particular at all, just chit chat between friends today, nothing more to it than that.")

	item := types.WorkItem{
		ItemID: "item-3",
		Envelope: types.Envelope{
			Sender: "friend@example.com",
			Body:   "A long message about nothing in particular at all, just chit chat between friends today, nothing more to it than that.",
		},
	}

	result, err := w.ProcessItem(context.Background(), item)
	require.NoError(t, err)
	assert.True(t, result.Claimed)
	assert.False(t, result.Succeeded)

	failures, err := store.ReadFailures(types.Phase1)
	require.NoError(t, err)
	require.Len(t, failures, 1)
	assert.Equal(t, types.ReasonUnclassified, failures[0].Reason)
}

func TestProcessItem_SkipsItemAlreadyClaimed(t *testing.T) {
	store, err := workstore.Open(t.TempDir())
	require.NoError(t, err)
	w := newTestWorker(t, store, "Invoice number 1 total 1 CZK")

	item := types.WorkItem{
		ItemID:   "item-4",
		Envelope: types.Envelope{Sender: "billing@example.com"},
	}

	claimed, err := store.Claim(types.Phase1, item.ItemID, "other-host")
	require.NoError(t, err)
	require.True(t, claimed)

	result, err := w.ProcessItem(context.Background(), item)
	require.NoError(t, err)
	assert.True(t, result.Skipped)
}

func TestProcessItem_SkipsItemWithExistingArtifact(t *testing.T) {
	store, err := workstore.Open(t.TempDir())
	require.NoError(t, err)
	w := newTestWorker(t, store, "Invoice number 1 total 1 CZK")

	item := types.WorkItem{ItemID: "item-5", Envelope: types.Envelope{Sender: "billing@example.com"}}
	require.NoError(t, store.WriteArtifact(&types.Artifact{ItemID: item.ItemID, Phase: types.Phase1, DocKind: types.KindInvoice}))

	result, err := w.ProcessItem(context.Background(), item)
	require.NoError(t, err)
	assert.True(t, result.Skipped)
}

func TestProcessRange_OnlyProcessesItemsWithinBounds(t *testing.T) {
	store, err := workstore.Open(t.TempDir())
	require.NoError(t, err)
	w := newTestWorker(t, store, "Invoice number 1 total 1 CZK is due and payable immediately upon receipt of this notice, without any further reminder.")

	body := "Invoice number 1 total 1 CZK is due and payable immediately upon receipt of this notice, without any further reminder."
	items := []types.WorkItem{
		{ItemID: "a", Slot: 0, Envelope: types.Envelope{Sender: "billing@example.com", Body: body}},
		{ItemID: "b", Slot: 1, Envelope: types.Envelope{Sender: "billing@example.com", Body: body}},
		{ItemID: "c", Slot: 2, Envelope: types.Envelope{Sender: "billing@example.com", Body: body}},
	}

	processed, failed, err := w.ProcessRange(context.Background(), items, 1, 2)
	require.NoError(t, err)
	assert.Equal(t, 1, processed)
	assert.Equal(t, 0, failed)

	_, ok, err := store.ReadArtifact(types.Phase1, "a")
	require.NoError(t, err)
	assert.False(t, ok)

	_, ok, err = store.ReadArtifact(types.Phase1, "b")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestDefaultOwnerHost_IncludesPID(t *testing.T) {
	host := DefaultOwnerHost()
	assert.Contains(t, host, ":")
}
