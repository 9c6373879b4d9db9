package delivery

import (
	"testing"

	"github.com/cuemby/docpipeline/pkg/types"
	"github.com/stretchr/testify/assert"
)

func TestTagName_KnownKindReturnsTableEntry(t *testing.T) {
	assert.Equal(t, "invoice", TagName(types.KindInvoice))
	assert.Equal(t, "bank-statement", TagName(types.KindBankStatement))
}

func TestTagName_EveryNonUnknownKindHasAMapping(t *testing.T) {
	kinds := []types.DocumentKind{
		types.KindInvoice, types.KindReceipt, types.KindTaxDocument, types.KindBankStatement,
		types.KindOrder, types.KindContract, types.KindParkingTicket, types.KindCarService,
		types.KindCarWash, types.KindGlassWork, types.KindProforma, types.KindDeliveryNote,
		types.KindPaymentDocument, types.KindSystemNotification, types.KindMarketing,
		types.KindCorrespondence, types.KindITNotes, types.KindProjectNotes,
	}
	for _, k := range kinds {
		_, ok := TagForKind[k]
		assert.True(t, ok, "missing tag mapping for %s", k)
	}
}
