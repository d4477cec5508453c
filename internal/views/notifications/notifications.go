// Package notifications provides the notification overlay.
package notifications

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/investerm/investerm/internal/client"
	"github.com/investerm/investerm/internal/theme"
)

// LoadedMsg is returned after fetching notifications.
type LoadedMsg struct {
	Items        []client.Notification
	PendingCount int
	Err          error
}

// MarkedMsg is returned after a mark-read or delete call.
type MarkedMsg struct {
	Err error
}

// KeyMap holds the overlay key bindings.
type KeyMap struct {
	Up      key.Binding
	Down    key.Binding
	Read    key.Binding
	ReadAll key.Binding
	Delete  key.Binding
}

// DefaultKeyMap returns the default overlay key bindings.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Up: key.NewBinding(
			key.WithKeys("k", "up"),
			key.WithHelp("k/↑", "up"),
		),
		Down: key.NewBinding(
			key.WithKeys("j", "down"),
			key.WithHelp("j/↓", "down"),
		),
		Read: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "mark read"),
		),
		ReadAll: key.NewBinding(
			key.WithKeys("a"),
			key.WithHelp("a", "mark all read"),
		),
		Delete: key.NewBinding(
			key.WithKeys("d"),
			key.WithHelp("d", "delete"),
		),
	}
}

// Model is the notification overlay model.
type Model struct {
	http *client.HTTPClient
	self client.UserID
	keys KeyMap

	items   []client.Notification
	pending int
	cursor  int

	errMsg string
}

// New creates a notification model.
func New(http *client.HTTPClient, self client.UserID) Model {
	return Model{http: http, self: self, keys: DefaultKeyMap()}
}

// Init fetches the notification list.
func (m Model) Init() tea.Cmd {
	return Fetch(m.http, m.self)
}

// Pending returns the unread notification count for the status bar.
func (m Model) Pending() int { return m.pending }

// Update handles messages for the overlay.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case LoadedMsg:
		if msg.Err != nil {
			// A failed poll keeps the previous list; nothing to surface.
			return m, nil
		}
		m.items = msg.Items
		m.pending = msg.PendingCount
		if m.cursor >= len(m.items) {
			m.cursor = 0
		}
		return m, nil

	case MarkedMsg:
		if msg.Err != nil {
			m.errMsg = msg.Err.Error()
			return m, nil
		}
		m.errMsg = ""
		return m, Fetch(m.http, m.self)

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Up):
			if m.cursor > 0 {
				m.cursor--
			}
		case key.Matches(msg, m.keys.Down):
			if m.cursor < len(m.items)-1 {
				m.cursor++
			}
		case key.Matches(msg, m.keys.Read):
			if m.cursor < len(m.items) {
				return m, markRead(m.http, m.items[m.cursor].ID, m.self)
			}
		case key.Matches(msg, m.keys.ReadAll):
			return m, markAllRead(m.http, m.self)
		case key.Matches(msg, m.keys.Delete):
			if m.cursor < len(m.items) {
				return m, deleteNotification(m.http, m.items[m.cursor].ID, m.self)
			}
		}
	}
	return m, nil
}

// View renders the overlay panel.
func (m Model) View(width int) string {
	innerW := width - 4
	if innerW < 30 {
		innerW = 30
	}

	title := theme.StyleHeader.Render(" NOTIFICATIONS ")
	if m.pending > 0 {
		title += theme.StyleAccent.Render(fmt.Sprintf(" %d pending", m.pending))
	}

	var rows []string
	rows = append(rows, title, "")

	if len(m.items) == 0 {
		rows = append(rows, theme.StyleDimmed.Render("  Nothing here."))
	}
	for i, n := range m.items {
		text := n.Message
		if len(text) > innerW-8 && innerW > 8 {
			text = text[:innerW-11] + "..."
		}
		marker := "●"
		style := lipgloss.NewStyle().Foreground(theme.ColorBright)
		if n.Read {
			marker = "○"
			style = theme.StyleDimmed
		}
		line := fmt.Sprintf("%s %s", marker, text)
		if i == m.cursor {
			rows = append(rows, theme.StyleSelected.Render("> "+line))
		} else {
			rows = append(rows, "  "+style.Render(line))
		}
	}

	rows = append(rows, "")
	if m.errMsg != "" {
		rows = append(rows, theme.StyleError.Render("  "+m.errMsg))
	}
	rows = append(rows, theme.StyleDimmed.Render("  enter: read  a: read all  d: delete  esc: close"))

	return lipgloss.NewStyle().
		Width(innerW).
		Padding(1, 2).
		BorderStyle(lipgloss.DoubleBorder()).
		BorderForeground(theme.ColorBorder).
		Render(strings.Join(rows, "\n"))
}

// Fetch loads the notification list. Exported so the app-level poll
// timer can refresh the pending count while the overlay is closed.
func Fetch(h *client.HTTPClient, self client.UserID) tea.Cmd {
	return func() tea.Msg {
		items, pending, err := h.Notifications(self)
		return LoadedMsg{Items: items, PendingCount: pending, Err: err}
	}
}

func markRead(h *client.HTTPClient, id int64, self client.UserID) tea.Cmd {
	return func() tea.Msg {
		return MarkedMsg{Err: h.MarkNotificationRead(id, self)}
	}
}

func markAllRead(h *client.HTTPClient, self client.UserID) tea.Cmd {
	return func() tea.Msg {
		return MarkedMsg{Err: h.MarkAllNotificationsRead(self)}
	}
}

func deleteNotification(h *client.HTTPClient, id int64, self client.UserID) tea.Cmd {
	return func() tea.Msg {
		return MarkedMsg{Err: h.DeleteNotification(id, self)}
	}
}
