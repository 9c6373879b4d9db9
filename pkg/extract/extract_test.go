package extract

import (
	"testing"

	"github.com/cuemby/docpipeline/pkg/types"
	"github.com/stretchr/testify/assert"
)

func TestExtract_InvoiceScenario(t *testing.T) {
	env := types.Envelope{Sender: "Acme s.r.o. <billing@acme.example>", Subject: "Invoice"}
	text := "Faktura č. 2024-001\nDIČ CZ12345678\nCelkem 1200,00 Kč\nSplatnost 15.02.2024"

	fields := Extract(text, types.KindInvoice, env)

	assert.Equal(t, "2024-001", fields[types.FieldDocumentNumber])
	assert.Equal(t, "CZ12345678", fields[types.FieldCounterpartyVATID])
	assert.Equal(t, "CZK", fields[types.FieldCurrency])
	assert.Equal(t, "Acme s.r.o.", fields[types.FieldSenderName])
	assert.Equal(t, "due", fields[types.FieldPaymentState])
}

func TestExtract_NonAccountingKindSkipsAccountingFields(t *testing.T) {
	env := types.Envelope{Sender: "friend@example.com"}
	fields := Extract("just a normal email", types.KindCorrespondence, env)

	_, hasDoc := fields[types.FieldDocumentNumber]
	assert.False(t, hasDoc)
	assert.Equal(t, string(types.KindCorrespondence), fields[types.FieldDocKind])
}
