// Package admin provides the user directory: browse all accounts and
// send friend requests. Visible to every user; the admin badge is
// display only.
package admin

import (
	"fmt"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/investerm/investerm/internal/client"
	"github.com/investerm/investerm/internal/theme"
)

// LoadedMsg is returned after fetching the user list.
type LoadedMsg struct {
	Users []client.User
	Err   error
}

// RequestSentMsg is returned after sending a friend request.
type RequestSentMsg struct {
	To  client.UserID
	Err error
}

// KeyMap holds the directory key bindings.
type KeyMap struct {
	Up      key.Binding
	Down    key.Binding
	Request key.Binding
	Refresh key.Binding
}

// DefaultKeyMap returns the default directory key bindings.
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
		Request: key.NewBinding(
			key.WithKeys("enter", "f"),
			key.WithHelp("enter", "add friend"),
		),
		Refresh: key.NewBinding(
			key.WithKeys("R"),
			key.WithHelp("R", "refresh"),
		),
	}
}

// Model is the user directory model.
type Model struct {
	http *client.HTTPClient
	self client.UserID
	keys KeyMap

	users  []client.User
	cursor int

	isOnline func(ids ...string) bool

	loading   bool
	statusMsg string
	errMsg    string
	width     int
	height    int
}

// New creates a directory model in the loading state.
func New(http *client.HTTPClient, self client.UserID, isOnline func(ids ...string) bool) Model {
	return Model{
		http:     http,
		self:     self,
		keys:     DefaultKeyMap(),
		isOnline: isOnline,
		loading:  true,
	}
}

// Init fetches the user list.
func (m Model) Init() tea.Cmd {
	return fetchUsers(m.http)
}

// SetSize updates the available rendering area.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
}

// Update handles messages for the directory.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case LoadedMsg:
		m.loading = false
		if msg.Err != nil {
			m.errMsg = msg.Err.Error()
			return m, nil
		}
		m.errMsg = ""
		// Leave self out of the directory.
		users := msg.Users[:0:0]
		for _, u := range msg.Users {
			if u.ID != m.self {
				users = append(users, u)
			}
		}
		m.users = users
		if m.cursor >= len(m.users) {
			m.cursor = 0
		}
		return m, nil

	case RequestSentMsg:
		if msg.Err != nil {
			m.errMsg = msg.Err.Error()
			return m, nil
		}
		m.errMsg = ""
		m.statusMsg = "friend request sent"
		return m, nil

	case tea.KeyMsg:
		m.statusMsg = ""
		switch {
		case key.Matches(msg, m.keys.Up):
			if m.cursor > 0 {
				m.cursor--
			}
		case key.Matches(msg, m.keys.Down):
			if m.cursor < len(m.users)-1 {
				m.cursor++
			}
		case key.Matches(msg, m.keys.Request):
			if m.cursor < len(m.users) {
				return m, sendRequest(m.http, m.users[m.cursor].ID)
			}
		case key.Matches(msg, m.keys.Refresh):
			m.loading = true
			return m, fetchUsers(m.http)
		}
	}
	return m, nil
}

// View renders the directory.
func (m Model) View() string {
	if m.loading {
		return theme.StyleDimmed.Render("  Loading users...")
	}

	var rows []string
	rows = append(rows, theme.StyleHeader.Render(" USERS "), "")

	for i, u := range m.users {
		rows = append(rows, m.renderUser(u, i == m.cursor))
	}
	if len(m.users) == 0 {
		rows = append(rows, theme.StyleDimmed.Render("  Nobody else is here."))
	}

	rows = append(rows, "")
	if m.errMsg != "" {
		rows = append(rows, theme.StyleError.Render("  "+m.errMsg))
	} else if m.statusMsg != "" {
		rows = append(rows, theme.StyleAccent.Render("  "+m.statusMsg))
	}
	rows = append(rows, theme.StyleDimmed.Render("  enter: add friend  R: refresh"))

	return lipgloss.JoinVertical(lipgloss.Left, rows...)
}

func (m Model) renderUser(u client.User, selected bool) string {
	online := m.isOnline != nil && m.isOnline(u.Identifiers()...)
	dot := theme.PresenceDot(online)

	name := u.Name
	if name == "" {
		name = u.Username
	}
	line := fmt.Sprintf("%s %s", dot, name)
	if u.IsAdmin {
		line += " " + theme.StyleAccent.Render("[admin]")
	}
	if selected {
		return theme.StyleSelected.Render("> " + line)
	}
	return "  " + line
}

func fetchUsers(h *client.HTTPClient) tea.Cmd {
	return func() tea.Msg {
		users, err := h.Users()
		return LoadedMsg{Users: users, Err: err}
	}
}

func sendRequest(h *client.HTTPClient, to client.UserID) tea.Cmd {
	return func() tea.Msg {
		err := h.SendFriendRequest(to)
		return RequestSentMsg{To: to, Err: err}
	}
}
