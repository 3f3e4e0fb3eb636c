package overlay

import "github.com/charmbracelet/bubbles/key"

// Keys are the overlay's key bindings.
type Keys struct {
	Open    key.Binding
	Dismiss key.Binding
	Nudge   nudgeKeys
}

type nudgeKeys struct {
	Left  key.Binding
	Right key.Binding
	Up    key.Binding
	Down  key.Binding
}

var keys = Keys{
	Open: key.NewBinding(
		key.WithKeys("enter", "o"),
		key.WithHelp("Enter", "open app"),
	),
	Dismiss: key.NewBinding(
		key.WithKeys("esc", "ctrl+c"),
		key.WithHelp("Esc", "hide overlay"),
	),
	Nudge: nudgeKeys{
		Left: key.NewBinding(
			key.WithKeys("left", "h"),
			key.WithHelp("←", "move left"),
		),
		Right: key.NewBinding(
			key.WithKeys("right", "l"),
			key.WithHelp("→", "move right"),
		),
		Up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("↑", "move up"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("↓", "move down"),
		),
	},
}
