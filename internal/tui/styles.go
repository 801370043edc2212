package tui

import "github.com/charmbracelet/lipgloss"

var (
	accent = lipgloss.Color("#7C3AED")
	muted  = lipgloss.Color("#6B7280")

	launcherStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFFFFF")).
			Background(accent).
			Padding(0, 2).
			Bold(true)

	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(accent)

	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(accent)
	hintStyle  = lipgloss.NewStyle().Foreground(muted)
	userStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#2563EB")).Bold(true)
	botStyle   = lipgloss.NewStyle().Foreground(accent).Bold(true)

	statusStyles = map[string]lipgloss.Style{
		"ready":        lipgloss.NewStyle().Foreground(lipgloss.Color("#10B981")),
		"initializing": lipgloss.NewStyle().Foreground(lipgloss.Color("#F59E0B")),
		"fallback":     lipgloss.NewStyle().Foreground(lipgloss.Color("#EF4444")),
	}
)

func statusStyle(class string) lipgloss.Style {
	if s, ok := statusStyles[class]; ok {
		return s
	}
	return hintStyle
}
