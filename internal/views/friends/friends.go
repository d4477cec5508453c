// Package friends provides the friend list: presence dots, unread badges,
// typing indicators and friend-request handling.
package friends

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/investerm/investerm/internal/client"
	"github.com/investerm/investerm/internal/theme"
)

// LoadedMsg is returned after fetching the friend list.
type LoadedMsg struct {
	Friends []client.User
	Err     error
}

// RequestsLoadedMsg is returned after fetching incoming friend requests.
type RequestsLoadedMsg struct {
	Requests []client.FriendRequest
	Err      error
}

// RequestResolvedMsg is returned after approving or rejecting a request.
type RequestResolvedMsg struct {
	ID       int64
	Approved bool
	Err      error
}

// OpenChatMsg asks the parent to open the chat with a friend.
type OpenChatMsg struct {
	Friend client.User
}

// KeyMap holds the friend-list key bindings.
type KeyMap struct {
	Up      key.Binding
	Down    key.Binding
	Open    key.Binding
	Approve key.Binding
	Reject  key.Binding
	Refresh key.Binding
}

// DefaultKeyMap returns the default friend-list key bindings.
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
		Open: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "open chat"),
		),
		Approve: key.NewBinding(
			key.WithKeys("y"),
			key.WithHelp("y", "approve request"),
		),
		Reject: key.NewBinding(
			key.WithKeys("x"),
			key.WithHelp("x", "reject request"),
		),
		Refresh: key.NewBinding(
			key.WithKeys("R"),
			key.WithHelp("R", "refresh"),
		),
	}
}

// Model is the friend list model.
type Model struct {
	http *client.HTTPClient
	self client.UserID
	keys KeyMap

	friends  []client.User
	requests []client.FriendRequest

	// cursor indexes the combined list: requests first, then friends.
	cursor int

	// isOnline answers presence queries against the live presence set.
	isOnline func(ids ...string) bool

	counts map[client.UserID]int
	typing map[client.UserID]bool

	loading bool
	errMsg  string
	width   int
	height  int
}

// New creates a friend list model in the loading state.
func New(http *client.HTTPClient, self client.UserID, isOnline func(ids ...string) bool) Model {
	return Model{
		http:     http,
		self:     self,
		keys:     DefaultKeyMap(),
		isOnline: isOnline,
		counts:   make(map[client.UserID]int),
		typing:   make(map[client.UserID]bool),
		loading:  true,
	}
}

// Init fetches friends and incoming requests.
func (m Model) Init() tea.Cmd {
	return tea.Batch(fetchFriends(m.http, m.self), fetchRequests(m.http, m.self))
}

// SetSize updates the available rendering area.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
}

// SetCounts replaces the per-friend unread counts.
func (m *Model) SetCounts(counts map[client.UserID]int) {
	m.counts = counts
}

// SetTyping flips a friend's typing indicator.
func (m *Model) SetTyping(friendID client.UserID, active bool) {
	if active {
		m.typing[friendID] = true
	} else {
		delete(m.typing, friendID)
	}
}

// Friends returns the current friend list.
func (m Model) Friends() []client.User {
	return m.friends
}

// Update handles messages for the friend list.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case LoadedMsg:
		m.loading = false
		if msg.Err != nil {
			m.errMsg = msg.Err.Error()
			return m, nil
		}
		m.errMsg = ""
		m.friends = msg.Friends
		m.clampCursor()
		return m, nil

	case RequestsLoadedMsg:
		if msg.Err == nil {
			m.requests = msg.Requests
			m.clampCursor()
		}
		return m, nil

	case RequestResolvedMsg:
		if msg.Err != nil {
			m.errMsg = msg.Err.Error()
			return m, nil
		}
		for i, r := range m.requests {
			if r.ID == msg.ID {
				m.requests = append(m.requests[:i], m.requests[i+1:]...)
				break
			}
		}
		m.clampCursor()
		// An approval adds a friend; refetch the list.
		if msg.Approved {
			return m, fetchFriends(m.http, m.self)
		}
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	total := len(m.requests) + len(m.friends)
	switch {
	case key.Matches(msg, m.keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}

	case key.Matches(msg, m.keys.Down):
		if m.cursor < total-1 {
			m.cursor++
		}

	case key.Matches(msg, m.keys.Open):
		if f, ok := m.selectedFriend(); ok {
			friend := f
			return m, func() tea.Msg { return OpenChatMsg{Friend: friend} }
		}

	case key.Matches(msg, m.keys.Approve):
		if r, ok := m.selectedRequest(); ok {
			return m, resolveRequest(m.http, r.ID, true)
		}

	case key.Matches(msg, m.keys.Reject):
		if r, ok := m.selectedRequest(); ok {
			return m, resolveRequest(m.http, r.ID, false)
		}

	case key.Matches(msg, m.keys.Refresh):
		m.loading = true
		return m, tea.Batch(fetchFriends(m.http, m.self), fetchRequests(m.http, m.self))
	}
	return m, nil
}

func (m Model) selectedRequest() (client.FriendRequest, bool) {
	if m.cursor < len(m.requests) {
		return m.requests[m.cursor], true
	}
	return client.FriendRequest{}, false
}

func (m Model) selectedFriend() (client.User, bool) {
	i := m.cursor - len(m.requests)
	if i >= 0 && i < len(m.friends) {
		return m.friends[i], true
	}
	return client.User{}, false
}

func (m *Model) clampCursor() {
	total := len(m.requests) + len(m.friends)
	if m.cursor >= total {
		m.cursor = total - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
}

// View renders the friend list.
func (m Model) View() string {
	if m.loading {
		return theme.StyleDimmed.Render("  Loading friends...")
	}

	var rows []string
	rows = append(rows, theme.StyleHeader.Render(" FRIENDS "), "")

	for i, r := range m.requests {
		label := fmt.Sprintf("request from %s", requestFrom(r))
		line := "  " + theme.StyleAccent.Render("✉ "+label) + theme.StyleDimmed.Render("  y:approve x:reject")
		if i == m.cursor {
			line = theme.StyleSelected.Render("> " + "✉ " + label)
		}
		rows = append(rows, line)
	}
	if len(m.requests) > 0 {
		rows = append(rows, "")
	}

	if len(m.friends) == 0 {
		rows = append(rows, theme.StyleDimmed.Render("  No friends yet."))
	}
	for i, f := range m.friends {
		rows = append(rows, m.renderFriend(f, len(m.requests)+i == m.cursor))
	}

	rows = append(rows, "")
	if m.errMsg != "" {
		rows = append(rows, theme.StyleError.Render("  "+m.errMsg))
	}
	rows = append(rows, theme.StyleDimmed.Render("  j/k: move  enter: open chat  R: refresh"))

	return lipgloss.JoinVertical(lipgloss.Left, rows...)
}

func (m Model) renderFriend(f client.User, selected bool) string {
	online := m.isOnline != nil && m.isOnline(f.Identifiers()...)
	dot := theme.PresenceDot(online)

	name := f.Name
	if name == "" {
		name = f.Username
	}

	var suffix []string
	if n := m.counts[f.ID]; n > 0 {
		suffix = append(suffix, theme.UnreadBadge(n))
	}
	if m.typing[f.ID] {
		suffix = append(suffix, lipgloss.NewStyle().Foreground(theme.ColorTyping).Render("typing..."))
	}

	line := fmt.Sprintf("%s %s", dot, name)
	if len(suffix) > 0 {
		line += " " + strings.Join(suffix, " ")
	}
	if selected {
		return theme.StyleSelected.Render("> " + line)
	}
	return "  " + line
}

func requestFrom(r client.FriendRequest) string {
	if r.From.Name != "" {
		return r.From.Name
	}
	if r.From.Username != "" {
		return r.From.Username
	}
	return "user " + r.Sender.ID.String()
}

func fetchFriends(h *client.HTTPClient, self client.UserID) tea.Cmd {
	return func() tea.Msg {
		friends, err := h.MyFriends(self)
		return LoadedMsg{Friends: friends, Err: err}
	}
}

func fetchRequests(h *client.HTTPClient, self client.UserID) tea.Cmd {
	return func() tea.Msg {
		reqs, err := h.IncomingRequests(self)
		return RequestsLoadedMsg{Requests: reqs, Err: err}
	}
}

func resolveRequest(h *client.HTTPClient, id int64, approve bool) tea.Cmd {
	return func() tea.Msg {
		var err error
		if approve {
			err = h.ApproveRequest(id)
		} else {
			err = h.RejectRequest(id)
		}
		return RequestResolvedMsg{ID: id, Approved: approve, Err: err}
	}
}
