// Package strings holds text helpers shared by the output formatters.
package strings

import (
	"strings"
)

// DefaultCellMaxLen bounds table cells that carry free text such as saptune
// status values or command stderr.
const DefaultCellMaxLen = 100

// MinTruncateLen is the smallest useful limit: one character plus "...".
const MinTruncateLen = 4

// SingleLine collapses every run of whitespace, newlines included, into one
// space and trims the ends.
func SingleLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// Truncate returns s on a single line, cut to at most maxLen runes with a
// trailing "..." when it was longer. Limits below MinTruncateLen are raised
// to it.
func Truncate(s string, maxLen int) string {
	if maxLen < MinTruncateLen {
		maxLen = MinTruncateLen
	}
	s = SingleLine(s)
	runes := []rune(s)
	if len(runes) > maxLen {
		return string(runes[:maxLen-3]) + "..."
	}
	return s
}
