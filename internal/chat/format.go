package chat

import (
	"html"
	"regexp"
	"strings"
)

var (
	boldPattern   = regexp.MustCompile(`\*\*(.*?)\*\*`)
	italicPattern = regexp.MustCompile(`\*(.*?)\*`)
	urlPattern    = regexp.MustCompile(`(https?://[^\s<]+)`)
)

// FormatMessage renders message text as an HTML fragment for the web widget.
// The input is escaped first; then line breaks, **bold**, *italic* and bare
// http(s) URLs are converted.
func FormatMessage(content string) string {
	out := html.EscapeString(content)
	out = strings.ReplaceAll(out, "\r\n", "\n")
	out = strings.ReplaceAll(out, "\n", "<br>")
	out = boldPattern.ReplaceAllString(out, "<strong>$1</strong>")
	out = italicPattern.ReplaceAllString(out, "<em>$1</em>")
	out = urlPattern.ReplaceAllString(out, `<a href="$1" target="_blank" rel="noopener">$1</a>`)
	return out
}
