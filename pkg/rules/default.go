package rules

import "github.com/cuemby/docpipeline/pkg/types"

// DefaultNotificationSenders matches automated senders that must bypass
// every later analyzer phase.
var DefaultNotificationSenders = []string{
	`(?i)^noreply@`,
	`(?i)^no-reply@`,
	`(?i)^notifications?@`,
	`(?i)^do-not-reply@`,
	`(?i)@loxone\.com$`,
}

// DefaultRules is a representative seed table. Specific kinds that also
// match generic accounting keywords (parking, car service, car wash,
// glass work) are placed ahead of the generic receipt/invoice rules so
// their more specific positive patterns win first.
var DefaultRules = []Rule{
	{
		Kind:     types.KindParkingTicket,
		Positive: MustCompile(`(?i)parkovac|parking ticket|parkovn[ée]`),
	},
	{
		Kind:     types.KindCarWash,
		Positive: MustCompile(`(?i)autoumy?várna|car wash`),
	},
	{
		Kind:     types.KindCarService,
		Positive: MustCompile(`(?i)autoservis|car service|v[yý]m[eě]na oleje`),
	},
	{
		Kind:     types.KindGlassWork,
		Positive: MustCompile(`(?i)autosklo|windshield|v[yý]m[eě]na skla`),
	},
	{
		Kind:     types.KindTaxDocument,
		Positive: MustCompile(`(?i)da[ňn]ov[eé] p[řr]izn[ae]n[ií]|tax return|da[ňn] z p[řr]ijm[uů]`),
	},
	{
		Kind:     types.KindBankStatement,
		Positive: MustCompile(`(?i)v[yý]pis z [uú][cč]tu|bank statement`),
	},
	{
		Kind:     types.KindProforma,
		Positive: MustCompile(`(?i)proforma|z[aá]lohov[aá] faktura`),
	},
	{
		Kind:     types.KindInvoice,
		Positive: MustCompile(`(?i)faktura|invoice`),
	},
	{
		Kind:     types.KindReceipt,
		Positive: MustCompile(`(?i)[uú][cč]tenka|receipt`),
	},
	{
		Kind:     types.KindDeliveryNote,
		Positive: MustCompile(`(?i)dodac[ií] list|delivery note`),
	},
	{
		Kind:     types.KindPaymentDocument,
		Positive: MustCompile(`(?i)platebn[ií] doklad|payment confirmation`),
	},
	{
		Kind:     types.KindOrder,
		Positive: MustCompile(`(?i)objedn[aá]vka|purchase order`),
	},
	{
		Kind:     types.KindContract,
		Positive: MustCompile(`(?i)smlouva|contract agreement`),
	},
	{
		Kind:     types.KindMarketing,
		Positive: MustCompile(`(?i)newsletter|unsubscribe|special offer`),
	},
	{
		Kind:     types.KindITNotes,
		Positive: MustCompile(`(?i)incident #|ticket #|jira-`),
	},
	{
		Kind:     types.KindProjectNotes,
		Positive: MustCompile(`(?i)meeting notes|sprint (review|planning)`),
	},
}

// TagVocabulary maps DocumentKind to the downstream document-management
// service's tag names.
var TagVocabulary = map[types.DocumentKind]string{
	types.KindInvoice:            "invoice",
	types.KindReceipt:            "receipt",
	types.KindTaxDocument:        "tax-document",
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
	types.KindSystemNotification: "system-notification",
	types.KindMarketing:          "marketing",
	types.KindCorrespondence:     "correspondence",
	types.KindITNotes:            "it-notes",
	types.KindProjectNotes:       "project-notes",
}

// NewDefaultTable builds the Table used when no external rule file is
// configured.
func NewDefaultTable() (*Table, error) {
	return NewTable(DefaultNotificationSenders, DefaultRules)
}
