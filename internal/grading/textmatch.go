package grading

import "strings"

// fold normalizes text answers for comparison: surrounding whitespace is
// ignored and matching is case-insensitive. Interior spacing and
// punctuation are significant.
func fold(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
