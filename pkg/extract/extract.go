package extract

import (
	"regexp"
	"strings"

	"github.com/cuemby/docpipeline/pkg/types"
)

var (
	reDocNumber  = regexp.MustCompile(`(?i)(?:faktura|invoice|dokladu?)\s*(?:č\.?|no\.?|#)?\s*([A-Z0-9][A-Z0-9./-]{3,})`)
	reVATID      = regexp.MustCompile(`(?i)\b(?:DIČ|VAT(?:\s*ID)?)\s*[:\s]*\s*([A-Z]{2}[0-9A-Z]{6,12})\b`)
	reTaxID      = regexp.MustCompile(`(?i)\b(?:IČ[OÓ]?|Tax\s*ID)\s*[:\s]*\s*([0-9]{6,12})\b`)
	reAmount     = regexp.MustCompile(`(?i)(?:celkem|total|amount)\D{0,10}([0-9][0-9 .,]{1,15})\s*(CZK|EUR|USD|Kč)?`)
	reDate       = regexp.MustCompile(`\b([0-3]?[0-9][./-][01]?[0-9][./-][0-9]{2,4})\b`)
	reDueDate    = regexp.MustCompile(`(?i)(?:splatnost|due date)\D{0,10}([0-3]?[0-9][./-][01]?[0-9][./-][0-9]{2,4})`)
	reVarSymbol  = regexp.MustCompile(`(?i)(?:variabiln[ií] symbol|variable symbol)\D{0,5}([0-9]{4,10})`)
	reBankAcct   = regexp.MustCompile(`\b([0-9]{1,6}-?[0-9]{2,10}/[0-9]{4})\b`)
	reEmail      = regexp.MustCompile(`[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}`)
	rePhone      = regexp.MustCompile(`\+?[0-9][0-9 ]{7,14}[0-9]`)
)

// Extract implements the Field Extractor: a pure function from raw text +
// kind to the fixed 31-field contract. Unmatched fields are simply absent
// from the returned map rather than present with an empty string, so
// downstream code can distinguish "not found" from "found empty".
func Extract(rawText string, kind types.DocumentKind, envelope types.Envelope) map[string]string {
	fields := make(map[string]string)

	fields[types.FieldDocKind] = string(kind)
	if email := firstMatch(reEmail, envelope.Sender); email != "" {
		fields[types.FieldSenderEmail] = email
	}
	if name := nameFromSender(envelope.Sender); name != "" {
		fields[types.FieldSenderName] = name
	}
	if len(envelope.Recipients) > 0 {
		if email := firstMatch(reEmail, envelope.Recipients[0]); email != "" {
			fields[types.FieldRecipientEmail] = email
		}
	}
	if topic := strings.TrimSpace(envelope.Subject); topic != "" {
		fields[types.FieldTopic] = topic
	}
	if phone := firstMatch(rePhone, rawText); phone != "" {
		fields[types.FieldSenderPhone] = phone
	}

	if types.AccountingKinds[kind] || kind == types.KindOrder || kind == types.KindProforma ||
		kind == types.KindDeliveryNote || kind == types.KindPaymentDocument {
		extractAccountingFields(rawText, fields)
	}

	return fields
}

func extractAccountingFields(rawText string, fields map[string]string) {
	if v := firstSubmatch(reDocNumber, rawText); v != "" {
		fields[types.FieldDocumentNumber] = v
	}
	if v := firstSubmatch(reVATID, rawText); v != "" {
		fields[types.FieldCounterpartyVATID] = v
	}
	if v := firstSubmatch(reTaxID, rawText); v != "" {
		fields[types.FieldCounterpartyTaxID] = v
	}
	if m := reAmount.FindStringSubmatch(rawText); m != nil {
		fields[types.FieldAmount] = strings.TrimSpace(m[1])
		if len(m) > 2 && m[2] != "" {
			fields[types.FieldCurrency] = normalizeCurrency(m[2])
		}
	}
	if v := firstSubmatch(reDate, rawText); v != "" {
		fields[types.FieldDate] = v
	}
	if v := firstSubmatch(reDueDate, rawText); v != "" {
		fields[types.FieldDueDate] = v
	}
	if v := firstSubmatch(reVarSymbol, rawText); v != "" {
		fields[types.FieldVariableSymbol] = v
	}
	if v := firstSubmatch(reBankAcct, rawText); v != "" {
		fields[types.FieldBankAccount] = v
	}
	if _, hasDue := fields[types.FieldDueDate]; hasDue {
		fields[types.FieldPaymentState] = "due"
	} else {
		fields[types.FieldPaymentState] = "unknown"
	}
}

func normalizeCurrency(raw string) string {
	switch strings.ToUpper(raw) {
	case "KČ", "KC":
		return "CZK"
	default:
		return strings.ToUpper(raw)
	}
}

func nameFromSender(sender string) string {
	if idx := strings.Index(sender, "<"); idx > 0 {
		return strings.TrimSpace(sender[:idx])
	}
	return ""
}

func firstMatch(re *regexp.Regexp, s string) string {
	return re.FindString(s)
}

func firstSubmatch(re *regexp.Regexp, s string) string {
	m := re.FindStringSubmatch(s)
	if len(m) < 2 {
		return ""
	}
	return strings.TrimSpace(m[1])
}
