package correspondent

import (
	"fmt"
	"os"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"
	"gopkg.in/yaml.v3"
)

// legalFormTokens are trailing company-form suffixes stripped before
// domain/diacritic normalization. Matched case-insensitively against the
// final whitespace-delimited token(s) of the name.
var legalFormTokens = []string{
	"s.r.o.", "s.r.o", "sro",
	"a.s.", "a.s", "as",
	"spol. s r.o.", "spol s r o",
	"inc.", "inc",
	"ltd.", "ltd",
	"gmbh",
	"llc",
	"co.", "co",
}

// serviceTokens are trailing automated-sender markers stripped before
// domain normalization.
var serviceTokens = []string{
	"newsletter", "alerts", "notifications", "support", "noreply", "no-reply",
}

// knownDomainSuffixes are stripped from the tail of a bare domain or
// email-derived name.
var knownDomainSuffixes = []string{
	".cz", ".com", ".sk", ".eu", ".org", ".net", ".io",
}

// KNOWN_MAPPINGS maps a normalized key to a human-friendly display name
// for correspondents whose title-cased key would otherwise read poorly.
var KNOWN_MAPPINGS = map[string]string{
	"aukro":    "Aukro",
	"cez":      "ČEZ",
	"o2":       "O2",
	"t-mobile": "T-Mobile",
	"loxone":   "Loxone",
}

var titleCaser = cases.Title(language.Und)

// Normalize implements the deterministic normalization pipeline: lowercase,
// strip whitespace, keep the name from "Display <addr>" (the address when
// no name precedes it), strip trailing legal-form and service tokens, strip the domain suffix, then
// NFKD-decompose and drop non-letter/digit runes before collapsing
// whitespace. normalize(normalize(x)) == normalize(x) for all x, since
// every step is idempotent on its own output.
func Normalize(raw string) string {
	s := strings.ToLower(strings.TrimSpace(raw))
	s = extractName(s)
	s = stripTrailingToken(s, legalFormTokens)
	s = stripTrailingToken(s, serviceTokens)
	s = stripDomainSuffix(s)
	s = decomposeAndFilter(s)
	s = collapseWhitespace(s)
	return s
}

// extractName keeps the display name of a "Display Name <addr>" shape,
// falling back to the bracketed address when no name precedes it.
func extractName(s string) string {
	start := strings.Index(s, "<")
	end := strings.Index(s, ">")
	if start >= 0 && end > start {
		if name := strings.TrimSpace(s[:start]); name != "" {
			return name
		}
		return strings.TrimSpace(s[start+1 : end])
	}
	return s
}

func stripTrailingToken(s string, tokens []string) string {
	trimmed := strings.Trim(s, ". ")
	for _, tok := range tokens {
		tok = strings.Trim(tok, ". ")
		if rest := strings.TrimSuffix(trimmed, tok); rest != trimmed && strings.HasSuffix(rest, " ") {
			return strings.TrimSpace(rest)
		}
	}
	return s
}

func stripDomainSuffix(s string) string {
	for _, suf := range knownDomainSuffixes {
		if strings.HasSuffix(s, suf) {
			return strings.TrimSuffix(s, suf)
		}
	}
	return s
}

// decomposeAndFilter NFKD-decomposes s (splitting accented letters into a
// base letter plus combining marks) and keeps only letters and digits,
// dropping the combining marks themselves along with punctuation.
func decomposeAndFilter(s string) string {
	decomposed := norm.NFKD.String(s)
	var b strings.Builder
	for _, r := range decomposed {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsSpace(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func collapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// DisplayName returns the human-friendly display name for a normalized
// key: the KNOWN_MAPPINGS entry if present, otherwise the title-cased key.
func DisplayName(normalizedKey string) string {
	if name, ok := KNOWN_MAPPINGS[normalizedKey]; ok {
		return name
	}
	return titleCaser.String(normalizedKey)
}

// LoadMappings reads a YAML file of normalized-key to display-name pairs
// (the operator-maintained correspondent known-mappings table) and merges
// it into KNOWN_MAPPINGS, overriding any built-in entry with the same key.
func LoadMappings(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("correspondent: read mappings %s: %w", path, err)
	}
	var extra map[string]string
	if err := yaml.Unmarshal(data, &extra); err != nil {
		return fmt.Errorf("correspondent: parse mappings %s: %w", path, err)
	}
	for k, v := range extra {
		KNOWN_MAPPINGS[k] = v
	}
	return nil
}
