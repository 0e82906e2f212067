// Package numeric parses and sanitizes free-text numeric input.
//
// Nothing in this package returns an error: malformed input collapses to 0
// or to the cleaned string so that calculators keep producing results while
// the user is still typing.
package numeric

import (
	"strconv"
	"strings"
)

// keep reports whether r survives the input filter.
func keep(r rune) bool {
	return (r >= '0' && r <= '9') || r == '.'
}

func filter(text string) string {
	var b strings.Builder
	b.Grow(len(text))
	for _, r := range text {
		if keep(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// ParseNumber strips everything except digits and '.', then parses the
// longest valid decimal prefix. Empty or unparseable text yields 0.
// "1,250.50" -> 1250.5, "1.2.3" -> 1.2, "abc" -> 0.
func ParseNumber(text string) float64 {
	cleaned := filter(text)
	if cleaned == "" {
		return 0
	}

	end := 0
	seenDot := false
	for end < len(cleaned) {
		if cleaned[end] == '.' {
			if seenDot {
				break
			}
			seenDot = true
		}
		end++
	}

	v, err := strconv.ParseFloat(strings.TrimSuffix(cleaned[:end], "."), 64)
	if err != nil {
		return 0
	}
	return v
}

// SanitizeForInput applies the same character filter as ParseNumber but
// drops every decimal point after the first, returning the cleaned text.
func SanitizeForInput(text string) string {
	cleaned := filter(text)
	idx := strings.IndexByte(cleaned, '.')
	if idx < 0 {
		return cleaned
	}
	return cleaned[:idx+1] + strings.ReplaceAll(cleaned[idx+1:], ".", "")
}

// MaxZIPLength is the length of a complete ZIP code.
const MaxZIPLength = 5

// SanitizeZIP keeps only digits and truncates to five characters.
func SanitizeZIP(text string) string {
	var b strings.Builder
	for _, r := range text {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
			if b.Len() == MaxZIPLength {
				break
			}
		}
	}
	return b.String()
}

// IsCompleteZIP reports whether zip is exactly five digits.
func IsCompleteZIP(zip string) bool {
	return len(zip) == MaxZIPLength && SanitizeZIP(zip) == zip
}
