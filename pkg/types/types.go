package types

import "time"

// Phase identifies one of the five processing stages.
type Phase int

const (
	Phase1 Phase = 1 // layout/OCR + rule classifier
	Phase2 Phase = 2 // hierarchical local inference
	Phase3 Phase = 3 // external large-model
	Phase4 Phase = 4 // manual review
	Phase5 Phase = 5 // delivery
)

func (p Phase) String() string {
	switch p {
	case Phase1:
		return "phase1"
	case Phase2:
		return "phase2"
	case Phase3:
		return "phase3"
	case Phase4:
		return "phase4"
	case Phase5:
		return "phase5"
	default:
		return "unknown"
	}
}

// DocumentKind is the closed set of document classifications. The kind
// determines which downstream extractors/templates apply and whether a
// structured XML payload is emitted.
type DocumentKind string

const (
	KindInvoice            DocumentKind = "invoice"
	KindReceipt            DocumentKind = "receipt"
	KindTaxDocument        DocumentKind = "tax_document"
	KindBankStatement      DocumentKind = "bank_statement"
	KindOrder              DocumentKind = "order"
	KindContract           DocumentKind = "contract"
	KindParkingTicket      DocumentKind = "parking_ticket"
	KindCarService         DocumentKind = "car_service"
	KindCarWash            DocumentKind = "car_wash"
	KindGlassWork          DocumentKind = "glass_work"
	KindProforma           DocumentKind = "proforma"
	KindDeliveryNote       DocumentKind = "delivery_note"
	KindPaymentDocument    DocumentKind = "payment_document"
	KindSystemNotification DocumentKind = "system_notification"
	KindMarketing          DocumentKind = "marketing"
	KindCorrespondence     DocumentKind = "correspondence"
	KindITNotes            DocumentKind = "it_notes"
	KindProjectNotes       DocumentKind = "project_notes"
	KindUnknown            DocumentKind = "unknown"
)

// AccountingKinds are the kinds for which the Structured-Document Emitter
// produces an XML payload.
var AccountingKinds = map[DocumentKind]bool{
	KindInvoice:       true,
	KindReceipt:       true,
	KindTaxDocument:   true,
	KindBankStatement: true,
}

// Attachment is a single blob attached to an envelope.
type Attachment struct {
	Filename string
	MIMEType string
	Data     []byte
}

// Envelope is the parsed email wrapper around a WorkItem.
type Envelope struct {
	Sender     string
	Recipients []string
	Subject    string
	Date       time.Time
	Body       string
}

// WorkItem is the atomic unit of processing. ItemID is a stable hash of
// the source path and must be deterministic across hosts.
type WorkItem struct {
	ItemID      string
	Slot        int // position in the global input enumeration
	SourcePath  string
	Envelope    Envelope
	Attachments []Attachment
}

// ModelVerdict is one model's opinion during Phase 2 escalation.
type ModelVerdict struct {
	Model      string // "small", "medium", "large", "external_large", or "manual:<reviewer>"
	Kind       DocumentKind
	Fields     map[string]string
	Confidence float64
	Parsed     bool // false if the response was unparseable/timed out
}

// Artifact is the single per-item, per-phase success record. An item's
// successful Artifact is written exactly once by exactly one phase; later
// phases must skip it.
type Artifact struct {
	ItemID          string            `json:"item_id"`
	Phase           Phase             `json:"phase"`
	DocKind         DocumentKind      `json:"doc_kind"`
	Fields          map[string]string `json:"fields"`
	RawText         string            `json:"-"` // not persisted, in-process only
	RawTextSHA256   string            `json:"raw_text_sha256"`
	ContentMD5      string            `json:"content_md5"`
	Confidence      float64           `json:"confidence"`
	EscalationTrace []ModelVerdict    `json:"escalation_trace,omitempty"`
	WrittenAt       time.Time         `json:"written_at"`
}

// FailureReason is the closed set of typed failure classifications
// recorded alongside an item when it cannot produce an Artifact.
type FailureReason string

const (
	ReasonOCRInsufficient        FailureReason = "ocr_insufficient"
	ReasonOCRTimeout             FailureReason = "ocr_timeout"
	ReasonOCRError               FailureReason = "ocr_error"
	ReasonUnclassified           FailureReason = "unclassified"
	ReasonModelTimeout           FailureReason = "model_timeout"
	ReasonModelUnparseable       FailureReason = "model_unparseable"
	ReasonModelDisagreementUnres FailureReason = "model_disagreement_unresolved"
	ReasonRateLimited            FailureReason = "rate_limited"
	ReasonQuotaExhausted         FailureReason = "quota_exhausted"
	ReasonDeliveryConflict       FailureReason = "delivery_conflict"
	ReasonDeliveryTransient      FailureReason = "delivery_transient"
	ReasonDeliveryFatal          FailureReason = "delivery_fatal"
	ReasonFSError                FailureReason = "fs_error"
)

// FailureRecord is appended to an append-only failure stream that becomes
// the next phase's input. Records are kept small (<=4KiB) so that a writer
// appending to the shared stream stays within the filesystem's atomic
// append size.
type FailureRecord struct {
	ItemID          string        `json:"item_id"`
	Phase           Phase         `json:"phase"`
	Reason          FailureReason `json:"reason"`
	LastTextSnippet string        `json:"last_text_snippet"`
	ContentMD5      string        `json:"content_md5"`
	RecordedAt      time.Time     `json:"recorded_at"`
}

// Correspondent is a canonical sender entity. Two raw senders collide iff
// their normalized keys match.
type Correspondent struct {
	ID            string
	NormalizedKey string
	DisplayName   string
	DocumentCount int
}

// The 31 named fields are the fixed contract between Phase 1-4 output and
// Phase 5 input. Field keys are stable strings rather than
// struct fields so extractors can be added/adjusted per kind without
// changing the Artifact shape.
const (
	FieldDocKind           = "doc_kind"
	FieldCounterpartyName  = "counterparty_name"
	FieldCounterpartyTaxID = "counterparty_tax_id"
	FieldCounterpartyVATID = "counterparty_vat_id"
	FieldAmount            = "amount"
	FieldCurrency          = "currency"
	FieldDate              = "date"
	FieldDocumentNumber    = "document_number"
	FieldPaymentState      = "payment_state"
	FieldDueDate           = "due_date"
	FieldCategory          = "category"
	FieldSenderName        = "sender_name"
	FieldSenderEmail       = "sender_email"
	FieldSenderPhone       = "sender_phone"
	FieldSenderAddress     = "sender_address"
	FieldRecipientName     = "recipient_name"
	FieldRecipientEmail    = "recipient_email"
	FieldRecipientPhone    = "recipient_phone"
	FieldRecipientAddress  = "recipient_address"
	FieldTopic             = "topic"
	FieldAISummary         = "ai_summary"
	FieldAIKeywords        = "ai_keywords"
	FieldAIDescription     = "ai_description"
	FieldServiceType       = "service_type"
	FieldServiceName       = "service_name"
	FieldLineItemsText     = "line_items_text"
	FieldLineItemsJSON     = "line_items_json"
	FieldPeriod            = "period"
	FieldVariableSymbol    = "variable_symbol"
	FieldBankAccount       = "bank_account"
	FieldNotes             = "notes"
)

// FieldNames lists the full 31-field contract in a stable order, used when
// patching the document-management service's custom-field set.
var FieldNames = []string{
	FieldDocKind, FieldCounterpartyName, FieldCounterpartyTaxID, FieldCounterpartyVATID,
	FieldAmount, FieldCurrency, FieldDate, FieldDocumentNumber, FieldPaymentState,
	FieldDueDate, FieldCategory, FieldSenderName, FieldSenderEmail, FieldSenderPhone,
	FieldSenderAddress, FieldRecipientName, FieldRecipientEmail, FieldRecipientPhone,
	FieldRecipientAddress, FieldTopic, FieldAISummary, FieldAIKeywords, FieldAIDescription,
	FieldServiceType, FieldServiceName, FieldLineItemsText, FieldLineItemsJSON, FieldPeriod,
	FieldVariableSymbol, FieldBankAccount, FieldNotes,
}
