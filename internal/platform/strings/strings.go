// Package strings provides small display helpers shared by writers and reports
package strings

import (
	std "strings"
	"unicode/utf8"
)

// Or returns def when s is blank, otherwise s
func Or(s, def string) string {
	if std.TrimSpace(s) == "" {
		return def
	}
	return s
}

// Dash is Or(s, "-") for table cells
func Dash(s string) string { return Or(s, "-") }

// Clip shortens s to at most n runes, marking the cut with "…"
func Clip(s string, n int) string {
	if n <= 0 || utf8.RuneCountInString(s) <= n {
		return s
	}
	if n == 1 {
		return "…"
	}
	i, k := 0, 0
	for i = range s {
		if k == n-1 {
			break
		}
		k++
	}
	return s[:i] + "…"
}
