// Package matcher validates that a name copied from the target application
// corresponds to the name expected for the record being processed. The
// displayed name varies in order and completeness (last/first swapped, extra
// middle names, truncated suffixes), so matching is done on normalized token
// sets rather than whole strings.
package matcher

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// minTokenLength filters out articles and connectives ("de", "la", ...).
const minTokenLength = 2

var stripMarks = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Tokens normalizes a free-text name into its comparable token set:
// diacritics stripped, upper-cased, whitespace-split, short tokens dropped.
func Tokens(name string) map[string]struct{} {
	stripped, _, err := transform.String(stripMarks, name)
	if err != nil {
		// Malformed input falls back to the raw string; upper-casing and
		// tokenization still apply.
		stripped = name
	}

	tokens := make(map[string]struct{})
	for _, word := range strings.Fields(strings.ToUpper(stripped)) {
		if len([]rune(word)) > minTokenLength {
			tokens[word] = struct{}{}
		}
	}
	return tokens
}

// Matches reports whether the observed name shares at least one normalized
// token with the expected name. An empty observed name never matches.
func Matches(expected, observed string) bool {
	if strings.TrimSpace(observed) == "" {
		return false
	}

	want := Tokens(expected)
	got := Tokens(observed)
	for token := range got {
		if _, ok := want[token]; ok {
			return true
		}
	}
	return false
}
