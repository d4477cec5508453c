package app

import "github.com/charmbracelet/bubbles/key"

// KeyMap defines the global keyboard bindings. Page-local bindings live
// with their views; these apply on pages that do not capture text input.
type KeyMap struct {
	Friends       key.Binding
	Portfolio     key.Binding
	Simulate      key.Binding
	Predict       key.Binding
	CoinGame      key.Binding
	News          key.Binding
	Users         key.Binding
	Notifications key.Binding
	Debug         key.Binding
	Logout        key.Binding
	Escape        key.Binding
	Quit          key.Binding
	ForceQuit     key.Binding
}

// DefaultKeyMap returns the default global key bindings.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Friends: key.NewBinding(
			key.WithKeys("1"),
			key.WithHelp("1", "friends"),
		),
		Portfolio: key.NewBinding(
			key.WithKeys("2"),
			key.WithHelp("2", "portfolio"),
		),
		Simulate: key.NewBinding(
			key.WithKeys("3"),
			key.WithHelp("3", "simulate"),
		),
		Predict: key.NewBinding(
			key.WithKeys("4"),
			key.WithHelp("4", "predict"),
		),
		CoinGame: key.NewBinding(
			key.WithKeys("5"),
			key.WithHelp("5", "coin game"),
		),
		News: key.NewBinding(
			key.WithKeys("6"),
			key.WithHelp("6", "news"),
		),
		Users: key.NewBinding(
			key.WithKeys("7"),
			key.WithHelp("7", "users"),
		),
		Notifications: key.NewBinding(
			key.WithKeys("n"),
			key.WithHelp("n", "notifications"),
		),
		Debug: key.NewBinding(
			key.WithKeys("D"),
			key.WithHelp("D", "event log"),
		),
		Logout: key.NewBinding(
			key.WithKeys("L"),
			key.WithHelp("L", "logout"),
		),
		Escape: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "back / close"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q"),
			key.WithHelp("q", "quit"),
		),
		ForceQuit: key.NewBinding(
			key.WithKeys("ctrl+c"),
			key.WithHelp("ctrl+c", "quit"),
		),
	}
}
