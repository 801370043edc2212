// Package tui renders the chat widget in a terminal with Bubble Tea.
package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"chatwidget/internal/chat"
	"chatwidget/internal/logger"
	"chatwidget/internal/sanitize"
)

const (
	compactWidth  = 60
	compactHeight = 22
	// title, status, quick actions, input and the two border rows
	chromeRows = 6
)

// replyMsg carries the outcome of a send.
type replyMsg struct {
	msg chat.Message
	err error
}

// readyMsg signals that the completion service finished initializing.
type readyMsg struct{}

// Options configures a Model.
type Options struct {
	// Ready is closed when the completion service finished initializing.
	Ready <-chan struct{}
	// AltScreen is the native fullscreen presenter the controller was built with.
	AltScreen *AltScreen
	// StartOpen opens the widget immediately.
	StartOpen bool
}

// Model is the Bubble Tea model for the widget.
type Model struct {
	ctl      *chat.Controller
	ctx      context.Context
	opts     Options
	input    textinput.Model
	viewport viewport.Model
	spinner  spinner.Model
	renderer *Renderer
	keys     KeyMap

	width  int
	height int
	// lastErr is a transient notice shown in the status line.
	lastErr string
}

// New creates the terminal widget around ctl.
func New(ctx context.Context, ctl *chat.Controller, opts Options) Model {
	if ctx == nil {
		ctx = context.Background()
	}

	in := textinput.New()
	in.Prompt = "› "
	in.CharLimit = sanitize.MaxInputRunes

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	m := Model{
		ctl:      ctl,
		ctx:      ctx,
		opts:     opts,
		input:    in,
		viewport: viewport.New(compactWidth-2, compactHeight-chromeRows),
		spinner:  sp,
		keys:     DefaultKeyMap(),
		width:    80,
		height:   24,
	}
	if opts.StartOpen {
		ctl.Open()
	}
	m.syncInput()
	m.resize()
	return m
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{textinput.Blink}
	if m.opts.Ready != nil {
		ready := m.opts.Ready
		cmds = append(cmds, func() tea.Msg {
			<-ready
			return readyMsg{}
		})
	}
	return tea.Batch(cmds...)
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.resize()
		return m, nil

	case readyMsg:
		m.refresh()
		return m, nil

	case replyMsg:
		if msg.err != nil && !errors.Is(msg.err, chat.ErrEmptyMessage) {
			m.lastErr = msg.err.Error()
		}
		m.syncInput()
		m.refresh()
		return m, nil

	case spinner.TickMsg:
		if !m.ctl.Loading() {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		// The user message lands while the reply is generated.
		m.refresh()
		return m, cmd

	case tea.KeyMsg:
		if cmd, handled := m.handleKey(msg); handled {
			return m, cmd
		}
	}

	if m.ctl.View().Open {
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		cmds = append(cmds, cmd)
		m.viewport, cmd = m.viewport.Update(msg)
		cmds = append(cmds, cmd)
	}
	return m, tea.Batch(cmds...)
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Cmd, bool) {
	open := m.ctl.View().Open

	switch {
	case key.Matches(msg, m.keys.Quit):
		return tea.Quit, true
	case key.Matches(msg, m.keys.Toggle):
		m.ctl.Toggle()
		m.afterStateChange()
		return m.screenCmd(), true
	case key.Matches(msg, m.keys.Close):
		if !open {
			return tea.Quit, true
		}
		m.ctl.Close()
		m.afterStateChange()
		return m.screenCmd(), true
	case key.Matches(msg, m.keys.Fullscreen):
		m.ctl.ToggleFullscreen()
		m.afterStateChange()
		return m.screenCmd(), true
	case key.Matches(msg, m.keys.Send):
		if !open {
			return nil, true
		}
		text := sanitize.Input(m.input.Value())
		if strings.TrimSpace(text) == "" || m.ctl.Loading() {
			return nil, true
		}
		m.input.Reset()
		ctl := m.ctl
		return m.startSend(func(ctx context.Context) (chat.Message, error) {
			return ctl.SendMessage(ctx, text)
		}), true
	}

	if open {
		for _, q := range m.keys.Quick {
			if key.Matches(msg, q.Binding) {
				if m.ctl.Loading() {
					return nil, true
				}
				ctl, action := m.ctl, q.Action
				return m.startSend(func(ctx context.Context) (chat.Message, error) {
					return ctl.HandleQuickAction(ctx, action)
				}), true
			}
		}
	}
	return nil, false
}

func (m *Model) startSend(send func(context.Context) (chat.Message, error)) tea.Cmd {
	m.lastErr = ""
	m.input.Blur()
	ctx := m.ctx
	return tea.Batch(m.spinner.Tick, func() tea.Msg {
		reply, err := send(ctx)
		if err != nil {
			logger.Debugf("[TUI] send: %v", err)
		}
		return replyMsg{msg: reply, err: err}
	})
}

func (m *Model) afterStateChange() {
	m.syncInput()
	m.resize()
}

func (m *Model) screenCmd() tea.Cmd {
	if m.opts.AltScreen == nil {
		return nil
	}
	return m.opts.AltScreen.Cmd()
}

// syncInput mirrors the controller's focus onto the text input.
func (m *Model) syncInput() {
	if m.ctl.View().InputFocused {
		m.input.Focus()
	} else {
		m.input.Blur()
	}
}

// boxSize is the outer widget size: the whole window when fullscreen.
func (m *Model) boxSize() (int, int) {
	if m.ctl.View().Fullscreen {
		return m.width, m.height
	}
	return min(m.width, compactWidth), min(m.height, compactHeight)
}

func (m *Model) resize() {
	w, h := m.boxSize()
	inner := max(w-2, 10)
	m.viewport.Width = inner
	m.viewport.Height = max(h-chromeRows, 3)
	m.input.Width = max(inner-4, 5)
	if m.renderer == nil || m.renderer.Width() != inner-2 {
		m.renderer = NewRenderer(inner - 2)
	}
	m.refresh()
}

// refresh redraws the transcript and keeps it scrolled to the newest message.
func (m *Model) refresh() {
	v := m.ctl.View()
	var b strings.Builder
	if len(v.Messages) == 0 {
		b.WriteString(m.renderer.Render(v.Welcome))
	}
	for i, msg := range v.Messages {
		if i > 0 || b.Len() > 0 {
			b.WriteString("\n\n")
		}
		if msg.Sender == chat.SenderUser {
			b.WriteString(userStyle.Render("You") + "\n")
			b.WriteString(sanitize.ForTerminal(msg.Content))
		} else {
			b.WriteString(botStyle.Render(v.Title) + "\n")
			b.WriteString(m.renderer.Render(msg.Content))
		}
	}
	m.viewport.SetContent(b.String())
	m.viewport.GotoBottom()
}

// View implements tea.Model.
func (m Model) View() string {
	v := m.ctl.View()
	if !v.Open {
		return launcherStyle.Render("💬 "+v.Title) + hintStyle.Render("  ctrl+o to chat · esc to quit")
	}

	w, h := m.boxSize()
	inner := max(w-2, 10)

	fsHint := "ctrl+f fullscreen"
	if v.Fullscreen {
		fsHint = "ctrl+f exit fullscreen"
	}
	title := titleStyle.Render(v.Title) + hintStyle.Render("  "+fsHint+" · esc close")

	status := statusStyle(v.StatusClass).Render("● " + v.Status)
	if m.lastErr != "" {
		status += hintStyle.Render("  " + m.lastErr)
	}

	quick := make([]string, 0, len(m.keys.Quick))
	for _, q := range m.keys.Quick {
		quick = append(quick, fmt.Sprintf("%s %s", q.Help().Key, quickLabel(q.Action)))
	}
	quickBar := hintStyle.Render(strings.Join(quick, "  "))

	var inputLine string
	if v.Loading {
		inputLine = m.spinner.View() + hintStyle.Render(" Thinking...")
	} else {
		in := m.input
		in.Placeholder = v.Placeholder
		inputLine = in.View()
	}

	body := lipgloss.JoinVertical(lipgloss.Left,
		title,
		status,
		m.viewport.View(),
		quickBar,
		inputLine,
	)
	return boxStyle.Width(inner).Height(max(h-2, 1)).Render(body)
}

func quickLabel(action string) string {
	for _, qa := range chat.QuickActions {
		if qa.Key == action {
			return qa.Label
		}
	}
	return action
}

// Run starts the terminal widget and blocks until the user quits.
func Run(ctx context.Context, ctl *chat.Controller, opts Options) error {
	p := tea.NewProgram(New(ctx, ctl, opts), tea.WithContext(ctx))
	_, err := p.Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}
