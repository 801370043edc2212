package sanitize

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

// MaxInputRunes caps a single user message.
const MaxInputRunes = 4000

// ansiEscape matches CSI and OSC terminal sequences.
var ansiEscape = regexp.MustCompile(`\x1b(\[[0-9;?]*[ -/]*[@-~]|\][^\x07\x1b]*(\x07|\x1b\\))`)

// StripControlChars removes non-printable control characters except newline, tab
// and carriage return.
func StripControlChars(s string) string {
	var builder strings.Builder
	builder.Grow(len(s))

	for _, r := range s {
		if r == '\n' || r == '\t' || r == '\r' {
			builder.WriteRune(r)
			continue
		}
		if unicode.IsControl(r) {
			continue
		}
		builder.WriteRune(r)
	}

	return builder.String()
}

// StripANSI removes terminal escape sequences.
func StripANSI(s string) string {
	return ansiEscape.ReplaceAllString(s, "")
}

// Input cleans text typed into the widget: invalid UTF-8 is dropped, escape
// sequences and control characters are removed and the result is capped at
// MaxInputRunes.
func Input(s string) string {
	if !utf8.ValidString(s) {
		s = strings.ToValidUTF8(s, "")
	}
	s = StripControlChars(StripANSI(s))
	if utf8.RuneCountInString(s) > MaxInputRunes {
		s = string([]rune(s)[:MaxInputRunes])
	}
	return s
}

// ForTerminal makes remote text safe to print in a terminal.
func ForTerminal(s string) string {
	return StripControlChars(StripANSI(s))
}
