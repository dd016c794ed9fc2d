// Package normalize canonicalizes free-text line items before matching
package normalize

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// abbreviations maps industry shorthand seen on competitor invoices to its
// expanded form. Lookups happen per token, after case folding.
var abbreviations = map[string]string{
	"hx":  "hex",
	"hd":  "head",
	"scr": "screw",
	"ss":  "stainless steel",
	"gr":  "grade",
	"w/":  "with",
	"&":   "and",
}

// Text canonicalizes a raw line item: lower-case, diacritics stripped,
// punctuation removed except characters meaningful inside part numbers
// (digits, letters, '.' and '/'), whitespace collapsed, and domain
// abbreviations expanded. Text is idempotent and returns "" for blank
// input; callers must treat an empty result as "no match possible".
func Text(input string) string {
	s := strings.ToLower(strings.TrimSpace(input))
	if s == "" {
		return ""
	}

	s = stripDiacritics(s)
	s = strings.ReplaceAll(s, "&", " and ")

	// Keep digits, letters, '.' and '/'; everything else becomes a space.
	var cleaned strings.Builder
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '.' || r == '/' {
			cleaned.WriteRune(r)
		} else {
			cleaned.WriteRune(' ')
		}
	}

	tokens := strings.Fields(cleaned.String())
	out := make([]string, 0, len(tokens))
	for _, tok := range tokens {
		for _, expanded := range expandToken(tok) {
			out = append(out, expanded)
		}
	}

	return strings.Join(out, " ")
}

// expandToken applies the abbreviation table to a single token. Trailing
// dots are dropped from alphabetic tokens ("gr." and "gr" are the same
// shorthand) but kept inside numeric tokens like "5.5".
func expandToken(tok string) []string {
	if strings.Trim(tok, "./") == "" {
		return nil
	}

	trimmed := strings.TrimRight(tok, ".")
	if trimmed != "" && !strings.ContainsAny(trimmed, "0123456789") {
		tok = trimmed
	}

	if expanded, ok := abbreviations[tok]; ok {
		return strings.Fields(expanded)
	}

	// "w/nut" reads as "with nut"; the slash binds to the leading w only.
	if rest, ok := strings.CutPrefix(tok, "w/"); ok {
		if rest == "" {
			return []string{"with"}
		}
		return append([]string{"with"}, expandToken(rest)...)
	}

	return []string{tok}
}

func stripDiacritics(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}
