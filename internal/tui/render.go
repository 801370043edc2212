package tui

import (
	"strings"

	"github.com/charmbracelet/glamour"

	"chatwidget/internal/sanitize"
)

// Renderer turns bot replies into styled terminal text.
type Renderer struct {
	width int
	tr    *glamour.TermRenderer
}

// NewRenderer creates a markdown renderer wrapping at width. Rendering falls
// back to plain text when glamour cannot be set up.
func NewRenderer(width int) *Renderer {
	if width < 20 {
		width = 20
	}
	tr, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle("dark"),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		tr = nil
	}
	return &Renderer{width: width, tr: tr}
}

// Width returns the wrap width.
func (r *Renderer) Width() int { return r.width }

// Render renders content as markdown after stripping terminal escapes.
func (r *Renderer) Render(content string) string {
	content = sanitize.ForTerminal(content)
	if r == nil || r.tr == nil {
		return content
	}
	out, err := r.tr.Render(content)
	if err != nil {
		return content
	}
	return strings.Trim(out, "\n")
}
