// Package sanitize restricts values destined for logs to a safe
// printable form. Used by the debug logging around test cases, never by
// the harness bookkeeping itself.
package sanitize

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// DefaultMaxLen is the truncation limit applied by Value.
const DefaultMaxLen = 256

const truncationMark = "..."

// safePunct is the punctuation allowed through unchanged. Everything
// outside letters, digits, space, and this set is replaced.
const safePunct = `-_.:/?&=+%@,;()[]{}'"#!*`

// Value sanitizes s for logging: control characters are dropped, runes
// outside the safe set are replaced with '_', and the result is
// truncated to DefaultMaxLen.
func Value(s string) string {
	return ValueN(s, DefaultMaxLen)
}

// ValueN is Value with an explicit maximum length.
func ValueN(s string, max int) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch {
		case unicode.IsControl(r):
			// dropped
		case unicode.IsLetter(r), unicode.IsDigit(r), r == ' ':
			b.WriteRune(r)
		case strings.ContainsRune(safePunct, r):
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}

	out := b.String()
	if max > 0 && len(out) > max {
		if max <= len(truncationMark) {
			return out[:max]
		}
		cut := max - len(truncationMark)
		for cut > 0 && !utf8.RuneStart(out[cut]) {
			cut--
		}
		return out[:cut] + truncationMark
	}
	return out
}
