// Package textmatch provides question text normalization and fuzzy string similarity.
package textmatch

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/agnivade/levenshtein"
)

// Normalize canonicalizes question text for storage and comparison:
// lowercased, quotes and backslashes dropped, newlines folded to spaces,
// control characters stripped, surrounding whitespace and trailing commas trimmed.
// Normalize(Normalize(s)) == Normalize(s).
func Normalize(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch {
		case r == '"' || r == '\\' || r == '\r':
			continue
		case r == '\n':
			b.WriteRune(' ')
		case r < 0x20 || r == 0x7F:
			continue
		default:
			b.WriteRune(unicode.ToLower(r))
		}
	}

	out := strings.TrimRightFunc(b.String(), func(r rune) bool {
		return r == ',' || unicode.IsSpace(r)
	})
	return strings.TrimLeftFunc(out, unicode.IsSpace)
}

// Ratio returns a similarity score in [0,1] derived from the Levenshtein distance
// between a and b: 1 - distance/max(len(a), len(b)), counted in runes.
func Ratio(a, b string) float64 {
	if a == b {
		return 1
	}
	maxLen := utf8.RuneCountInString(a)
	if n := utf8.RuneCountInString(b); n > maxLen {
		maxLen = n
	}
	if maxLen == 0 {
		return 1
	}
	dist := levenshtein.ComputeDistance(a, b)
	return 1 - float64(dist)/float64(maxLen)
}

// EqualFold reports whether a and b are equal ignoring case and surrounding whitespace.
func EqualFold(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}

// IndexOption returns the index of the option equal to answer ignoring case and
// surrounding whitespace, or -1.
func IndexOption(answer string, options []string) int {
	for i, opt := range options {
		if EqualFold(answer, opt) {
			return i
		}
	}
	return -1
}

// Closest returns the index of the option most similar to text, first-seen on ties.
// Returns -1 for an empty option list.
func Closest(text string, options []string) int {
	best := -1
	bestScore := -1.0
	needle := strings.ToLower(strings.TrimSpace(text))
	for i, opt := range options {
		score := Ratio(needle, strings.ToLower(strings.TrimSpace(opt)))
		if score > bestScore {
			best = i
			bestScore = score
		}
	}
	return best
}
