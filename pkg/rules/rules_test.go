package rules

import (
	"testing"

	"github.com/cuemby/docpipeline/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassify_NotificationSenderBypassesRuleTable(t *testing.T) {
	table, err := NewDefaultTable()
	require.NoError(t, err)

	kind := table.Classify("noreply@loxone.com", "Faktura č. 2024-001")
	assert.Equal(t, types.KindSystemNotification, kind)
}

func TestClassify_SpecificRulePrecedesGenericReceipt(t *testing.T) {
	table, err := NewDefaultTable()
	require.NoError(t, err)

	// Matches both the parking-ticket rule and generic receipt keywords;
	// parking_ticket must win per the table's declared precedence.
	kind := table.Classify("city-parking@example.com", "Parkovací účtenka - uhraďte do 14 dnů")
	assert.Equal(t, types.KindParkingTicket, kind)
}

func TestClassify_NoMatchIsUnknown(t *testing.T) {
	table, err := NewDefaultTable()
	require.NoError(t, err)

	kind := table.Classify("friend@example.com", "hey, are we still on for lunch?")
	assert.Equal(t, types.KindUnknown, kind)
}

func TestClassify_InvoiceExample(t *testing.T) {
	table, err := NewDefaultTable()
	require.NoError(t, err)

	kind := table.Classify("vendor@example.com", "Faktura č. 2024-001, DIČ CZ12345678")
	assert.Equal(t, types.KindInvoice, kind)
}
