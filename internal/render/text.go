package render

import (
	"regexp"
	"strings"
)

// Measure returns the rendered width of s in points at the current font.
type Measure func(s string) float64

var (
	lineBreaks = regexp.MustCompile(`[\r\n]+`)
	whitespace = regexp.MustCompile(`\s+`)
)

// Sanitize collapses line breaks and whitespace runs into single spaces and
// trims the result. Every drawn text run passes through it.
func Sanitize(s string) string {
	s = lineBreaks.ReplaceAllString(s, " ")
	s = whitespace.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

// Truncate shortens s with a trailing "..." until it fits max. Each round
// drops four runes, so the ellipsis of the previous round is replaced too.
// Strings of three runes or fewer are returned as they are.
func Truncate(measure Measure, s string, max float64) string {
	r := []rune(s)
	for measure(string(r)) > max && len(r) > 3 {
		r = append(r[:len(r)-4:len(r)-4], '.', '.', '.')
	}
	return string(r)
}

// Wrap breaks text into lines no wider than max using greedy word filling.
// A single word wider than max gets a line of its own and is not split.
func Wrap(measure Measure, text string, max float64) []string {
	var (
		lines   []string
		current string
	)
	for _, word := range strings.Fields(text) {
		candidate := word
		if current != "" {
			candidate = current + " " + word
		}
		if current != "" && measure(candidate) > max {
			lines = append(lines, current)
			current = word
			continue
		}
		current = candidate
	}
	if current != "" {
		lines = append(lines, current)
	}
	return lines
}
