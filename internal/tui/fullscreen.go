package tui

import (
	"os"
	"sync"

	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/term"

	"chatwidget/internal/chat"
)

// AltScreen is the native fullscreen presenter for terminals. It switches to
// the terminal's alternate screen when the output is a TTY and refuses
// otherwise, leaving the controller to fall back to the layout presenter.
type AltScreen struct {
	isTTY func() bool

	mu      sync.Mutex
	active  bool
	changed bool
}

// NewAltScreen checks whether stdout is a terminal.
func NewAltScreen() *AltScreen {
	return &AltScreen{isTTY: func() bool { return term.IsTerminal(int(os.Stdout.Fd())) }}
}

// Enter implements chat.Fullscreen.
func (a *AltScreen) Enter() error {
	if a.isTTY == nil || !a.isTTY() {
		return chat.ErrFullscreenUnsupported
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	a.active = true
	a.changed = true
	return nil
}

// Exit implements chat.Fullscreen.
func (a *AltScreen) Exit() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.active {
		a.active = false
		a.changed = true
	}
	return nil
}

// Cmd returns the screen switch pending since the last call, if any.
func (a *AltScreen) Cmd() tea.Cmd {
	a.mu.Lock()
	defer a.mu.Unlock()
	if !a.changed {
		return nil
	}
	a.changed = false
	if a.active {
		return tea.EnterAltScreen
	}
	return tea.ExitAltScreen
}
