package tui

import "github.com/charmbracelet/bubbles/key"

// KeyMap defines the widget's keyboard bindings.
type KeyMap struct {
	Quit       key.Binding
	Toggle     key.Binding
	Close      key.Binding
	Fullscreen key.Binding
	Send       key.Binding
	// Quick holds one binding per quick action, in chat.QuickActions order.
	Quick []QuickBinding
}

// QuickBinding sends a quick action's query.
type QuickBinding struct {
	key.Binding
	Action string
}

// DefaultKeyMap returns the default key bindings.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Quit: key.NewBinding(
			key.WithKeys("ctrl+c"),
			key.WithHelp("ctrl+c", "quit"),
		),
		Toggle: key.NewBinding(
			key.WithKeys("ctrl+o"),
			key.WithHelp("ctrl+o", "open/close"),
		),
		Close: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "close"),
		),
		Fullscreen: key.NewBinding(
			key.WithKeys("ctrl+f", "f11"),
			key.WithHelp("ctrl+f", "fullscreen"),
		),
		Send: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "send"),
		),
		Quick: []QuickBinding{
			{key.NewBinding(key.WithKeys("f1"), key.WithHelp("F1", "Products")), "products"},
			{key.NewBinding(key.WithKeys("f2"), key.WithHelp("F2", "Services")), "services"},
			{key.NewBinding(key.WithKeys("f3"), key.WithHelp("F3", "Support")), "support"},
			{key.NewBinding(key.WithKeys("f4"), key.WithHelp("F4", "Contact")), "contact"},
		},
	}
}
