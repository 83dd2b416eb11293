package model

import (
	"strings"
	"unicode"
)

// NormalizeName trims surrounding whitespace from a country, state, or city
// name. Case is preserved.
func NormalizeName(s string) string {
	return strings.TrimSpace(s)
}

// NormalizeAddress trims a full address and collapses every internal run of
// whitespace to a single space, so "123  Main\tSt" and "123 Main St" resolve
// to the same record.
func NormalizeAddress(s string) string {
	var b strings.Builder
	b.Grow(len(s))

	pendingSpace := false
	for _, r := range s {
		if unicode.IsSpace(r) {
			pendingSpace = b.Len() > 0
			continue
		}
		if pendingSpace {
			b.WriteByte(' ')
			pendingSpace = false
		}
		b.WriteRune(r)
	}

	return b.String()
}
