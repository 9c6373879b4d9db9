package rules

import (
	"regexp"

	"github.com/cuemby/docpipeline/pkg/types"
)

// Rule is one entry in the precedence-ordered kind-classification table.
// A Rule matches text iff at least one Positive pattern matches and no
// Negative pattern matches. Rules are tried in table order; the first
// match wins.
type Rule struct {
	Kind     types.DocumentKind
	Positive []*regexp.Regexp
	Negative []*regexp.Regexp
}

// Table is an ordered, immutable rule set loaded once at worker startup.
type Table struct {
	notificationSenders []*regexp.Regexp
	rules               []Rule
}

// NewTable builds an immutable Table from notification sender patterns and
// an ordered rule slice. Callers load this once per process and share the
// *Table across worker goroutines; Table has no mutable state after
// construction so it requires no locking.
func NewTable(notificationSenders []string, rules []Rule) (*Table, error) {
	t := &Table{}
	for _, pat := range notificationSenders {
		re, err := regexp.Compile(pat)
		if err != nil {
			return nil, err
		}
		t.notificationSenders = append(t.notificationSenders, re)
	}
	t.rules = rules
	return t, nil
}

// MustCompile compiles pat or panics; used for building DefaultRules at
// package init where a malformed pattern is a programmer error.
func MustCompile(pats ...string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, 0, len(pats))
	for _, p := range pats {
		out = append(out, regexp.MustCompile(p))
	}
	return out
}

// Classify assigns a DocumentKind to the given sender + concatenated text.
// system_notification is checked first and unconditionally precedes the
// rule table. If nothing matches, the result is "unknown" and the caller
// records a FailureRecord with reason ReasonUnclassified.
func (t *Table) Classify(sender, text string) types.DocumentKind {
	if t.IsNotificationSender(sender) {
		return types.KindSystemNotification
	}

	for _, r := range t.rules {
		if r.matches(text) {
			return r.Kind
		}
	}
	return types.KindUnknown
}

// IsNotificationSender reports whether sender matches one of the
// notification-sender patterns, independent of the message's text. Callers
// use this to bypass text-quality gates (short OCR output, missing
// attachments) that would otherwise misroute a system notification into a
// failure instead of straight to a system_notification artifact.
func (t *Table) IsNotificationSender(sender string) bool {
	for _, re := range t.notificationSenders {
		if re.MatchString(sender) {
			return true
		}
	}
	return false
}

func (r Rule) matches(text string) bool {
	matched := false
	for _, re := range r.Positive {
		if re.MatchString(text) {
			matched = true
			break
		}
	}
	if !matched {
		return false
	}
	for _, re := range r.Negative {
		if re.MatchString(text) {
			return false
		}
	}
	return true
}
