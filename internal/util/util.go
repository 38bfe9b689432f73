// internal/util/util.go
// Package util holds small text helpers for terminal output.
package util

import (
	"strings"
	"unicode/utf8"
)

// Snippet collapses runs of whitespace in text and cuts it to maxRunes,
// appending an ellipsis when something was cut. maxRunes <= 0 disables the cut.
func Snippet(text string, maxRunes int) string {
	text = strings.Join(strings.Fields(text), " ")
	if maxRunes <= 0 || utf8.RuneCountInString(text) <= maxRunes {
		return text
	}
	runes := []rune(text)
	return strings.TrimRight(string(runes[:maxRunes]), " ") + "…"
}

// WrapToWidth breaks each line of text at word boundaries so no line is wider
// than width runes. Words longer than width are split.
func WrapToWidth(text string, width int) string {
	if width <= 0 {
		return text
	}
	var out []string
	for _, line := range strings.Split(text, "\n") {
		var cur []rune
		for _, word := range strings.Fields(line) {
			w := []rune(word)
			if len(cur) > 0 && len(cur)+1+len(w) > width {
				out = append(out, string(cur))
				cur = cur[:0]
			}
			for len(w) > width {
				if len(cur) > 0 {
					out = append(out, string(cur))
					cur = cur[:0]
				}
				out = append(out, string(w[:width]))
				w = w[width:]
			}
			if len(cur) > 0 {
				cur = append(cur, ' ')
			}
			cur = append(cur, w...)
		}
		out = append(out, string(cur))
	}
	return strings.Join(out, "\n")
}

// Indent prefixes every non-empty line of text.
func Indent(text, prefix string) string {
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		if line != "" {
			lines[i] = prefix + line
		}
	}
	return strings.Join(lines, "\n")
}
