package ui

import (
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"conswol/internal/session"
)

type keyMap struct {
	Quit  key.Binding
	Build key.Binding
	Up    key.Binding
	Down  key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
		Build: key.NewBinding(
			key.WithKeys("b", "f5"),
			key.WithHelp("b", "build"),
		),
		Up: key.NewBinding(
			key.WithKeys("k", "up"),
			key.WithHelp("↑/k", "up"),
		),
		Down: key.NewBinding(
			key.WithKeys("j", "down"),
			key.WithHelp("↓/j", "down"),
		),
	}
}

// lookup maps a key press to a session key; unbound keys map to KeyNone.
func (km keyMap) lookup(msg tea.KeyMsg) session.Key {
	switch {
	case key.Matches(msg, km.Quit):
		return session.KeyQuit
	case key.Matches(msg, km.Build):
		return session.KeyBuild
	case key.Matches(msg, km.Up):
		return session.KeyUp
	case key.Matches(msg, km.Down):
		return session.KeyDown
	default:
		return session.KeyNone
	}
}

func (km keyMap) bindings() []key.Binding {
	return []key.Binding{km.Build, km.Up, km.Down, km.Quit}
}
