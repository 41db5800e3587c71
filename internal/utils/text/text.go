// Package text holds small rune-aware string helpers shared by the scrapers,
// the normalizer and the chat renderer.
package text

import (
	"html"
	"strings"
	"unicode"
	"unicode/utf8"
)

// CountRunes counts Unicode code points; chat platform limits are
// expressed in characters, not bytes.
func CountRunes(s string) int {
	return utf8.RuneCountInString(s)
}

// Truncate shortens s to at most max runes. When cut, the result ends with
// "..." and still fits in max runes.
func Truncate(s string, max int) string {
	if max <= 0 {
		return ""
	}
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	if max <= 3 {
		return string(r[:max])
	}
	return strings.TrimRightFunc(string(r[:max-3]), unicode.IsSpace) + "..."
}

// Clip cuts s to at most max runes without a marker.
func Clip(s string, max int) string {
	if max <= 0 {
		return ""
	}
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max])
}

// CollapseSpace trims s and replaces every run of whitespace with one space.
func CollapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// CleanTitle decodes HTML entities and collapses whitespace.
func CleanTitle(s string) string {
	return CollapseSpace(html.UnescapeString(s))
}

// ContainsFold reports whether substr is within s, ignoring case.
func ContainsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}
