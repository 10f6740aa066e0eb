package prompt

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// DefaultMaxFieldRunes bounds a single interpolated value.
const DefaultMaxFieldRunes = 200

// Neutralize flattens s into a single line that cannot open a new
// instruction block in the rendered prompt. Each run of line breaks and
// other control characters becomes one space, code fences are defused and
// the result is cut to maxRunes runes. Ordinary spaces and tabs are kept,
// so a single-line value passes through unchanged. maxRunes <= 0 disables
// the cut.
func Neutralize(s string, maxRunes int) string {
	if s == "" {
		return ""
	}

	var b strings.Builder
	b.Grow(len(s))
	inBreak := false
	for _, r := range s {
		if isBreaking(r) {
			if !inBreak {
				b.WriteByte(' ')
				inBreak = true
			}
			continue
		}
		inBreak = false
		b.WriteRune(r)
	}
	s = strings.ReplaceAll(b.String(), "```", "'")

	if maxRunes > 0 && utf8.RuneCountInString(s) > maxRunes {
		s = string([]rune(s)[:maxRunes])
	}
	return s
}

func isBreaking(r rune) bool {
	if r == '\t' {
		return false
	}
	return unicode.IsControl(r) || r == '\u2028' || r == '\u2029'
}
