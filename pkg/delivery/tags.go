package delivery

import "github.com/cuemby/docpipeline/pkg/types"

// TagForKind is the static DocumentKind-to-tag-vocabulary table. Every
// kind maps to exactly one tag name in the delivery target; tags are
// created on first use via DeliveryClient.ResolveTag.
var TagForKind = map[types.DocumentKind]string{
	types.KindInvoice:            "invoice",
	types.KindReceipt:            "receipt",
	types.KindTaxDocument:        "tax",
	types.KindBankStatement:      "bank-statement",
	types.KindOrder:              "order",
	types.KindContract:           "contract",
	types.KindParkingTicket:      "parking",
	types.KindCarService:         "car-service",
	types.KindCarWash:            "car-wash",
	types.KindGlassWork:          "glass-work",
	types.KindProforma:           "proforma",
	types.KindDeliveryNote:       "delivery-note",
	types.KindPaymentDocument:    "payment",
	types.KindSystemNotification: "notification",
	types.KindMarketing:          "marketing",
	types.KindCorrespondence:     "correspondence",
	types.KindITNotes:            "it-notes",
	types.KindProjectNotes:       "project-notes",
}

// TagName returns the tag vocabulary entry for kind, falling back to the
// kind's own string form for a kind with no explicit mapping (defensive
// only; every kind in types.DocumentKind has an entry above except
// KindUnknown, which Phase 5 never sees — unclassified items never reach
// an Artifact).
func TagName(kind types.DocumentKind) string {
	if tag, ok := TagForKind[kind]; ok {
		return tag
	}
	return string(kind)
}
