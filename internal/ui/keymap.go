package ui

import "github.com/charmbracelet/bubbles/key"

// KeyMap defines keyboard shortcuts for the dashboard
type KeyMap struct {
	Quit    key.Binding
	Refresh key.Binding
	Up      key.Binding
	Down    key.Binding

	// Feed filters
	ToggleInfo    key.Binding
	ToggleWarning key.Binding
	ToggleError   key.Binding
}

// DefaultKeyMap returns the default key bindings
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
		Refresh: key.NewBinding(
			key.WithKeys("r", "f5"),
			key.WithHelp("r", "refresh"),
		),
		Up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("↑/k", "scroll up"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("↓/j", "scroll down"),
		),
		ToggleInfo: key.NewBinding(
			key.WithKeys("f1"),
			key.WithHelp("F1", "info"),
		),
		ToggleWarning: key.NewBinding(
			key.WithKeys("f2"),
			key.WithHelp("F2", "warnings"),
		),
		ToggleError: key.NewBinding(
			key.WithKeys("f3"),
			key.WithHelp("F3", "errors"),
		),
	}
}

// ShortHelp returns the bindings shown in the help bar.
func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Refresh, k.Up, k.Down, k.ToggleInfo, k.ToggleWarning, k.ToggleError, k.Quit}
}
