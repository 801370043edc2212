package chat

// Status values shown in the widget's status line.
const (
	StatusInitializing = "Initializing..."
	StatusReady        = "AI Assistant Ready"
	StatusOffline      = "ChatBot is offline"
)

// Container classes applied to the widget.
const (
	ClassContainer  = "chatbot-container"
	ClassOpen       = "chatbot-open"
	ClassFullscreen = "chatbot-fullscreen"
)

// View is a snapshot of everything a presentation surface needs to draw the
// widget.
type View struct {
	Title        string   `json:"title"`
	Welcome      string   `json:"welcome"`
	Open         bool     `json:"open"`
	Fullscreen   bool     `json:"fullscreen"`
	Loading      bool     `json:"loading"`
	InputFocused bool     `json:"input_focused"`
	InputEnabled bool     `json:"input_enabled"`
	Classes      []string `json:"classes"`

	// Fullscreen button affordance
	FullscreenIcon  string `json:"fullscreen_icon"`
	FullscreenLabel string `json:"fullscreen_label"`
	SendIcon        string `json:"send_icon"`

	Status      string `json:"status"`
	StatusClass string `json:"status_class"`
	Placeholder string `json:"placeholder"`

	Messages     []Message     `json:"messages"`
	QuickActions []QuickAction `json:"quick_actions"`
}

// View returns the current widget state.
func (c *Controller) View() View {
	c.mu.Lock()
	v := View{
		Title:        c.name,
		Welcome:      c.welcome,
		Open:         c.open,
		Fullscreen:   c.fullscreen,
		Loading:      c.loading,
		InputFocused: c.inputFocused && !c.loading,
		InputEnabled: !c.loading,
	}
	history := c.history
	c.mu.Unlock()

	v.Classes = []string{ClassContainer}
	if v.Open {
		v.Classes = append(v.Classes, ClassOpen)
	}
	if v.Fullscreen {
		v.Classes = append(v.Classes, ClassFullscreen)
		v.FullscreenIcon = "compress"
		v.FullscreenLabel = "Exit fullscreen"
	} else {
		v.FullscreenIcon = "expand"
		v.FullscreenLabel = "Enter fullscreen"
	}

	v.SendIcon = "paper-plane"
	if v.Loading {
		v.SendIcon = "spinner"
	}

	v.Status, v.StatusClass, v.Placeholder = StatusOf(c.gen)
	v.Messages = history.Messages()
	v.QuickActions = QuickActions
	return v
}

// StatusOf returns the status line text, its class and the input
// placeholder for gen.
func StatusOf(gen Generator) (text, class, placeholder string) {
	if init, ok := gen.(initializer); ok && !init.Initialized() {
		return StatusInitializing, "initializing", "Ask me anything ..."
	}
	if gen != nil && gen.IsAvailable() {
		return StatusReady, "ready", "Ask me anything..."
	}
	return StatusOffline, "fallback", "Ask me anything (offline mode)..."
}
