// Package chatview renders one open conversation: history with date
// separators, delivery ticks on outgoing messages, an input line, and
// the typing indicator.
package chatview

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/investerm/investerm/internal/chat"
	"github.com/investerm/investerm/internal/client"
	"github.com/investerm/investerm/internal/theme"
)

// typingIdle is how long after the last keystroke a typing_stop is sent.
const typingIdle = 3 * time.Second

// HistoryLoadedMsg is returned after fetching the conversation.
type HistoryLoadedMsg struct {
	FriendID client.UserID
	Msgs     []client.Message
	Err      error
}

// SendResultMsg is returned after the send request completes.
type SendResultMsg struct {
	TempID  client.MessageID
	Content string
	Resp    *client.SendMessageResponse
	Err     error
}

// SeenMarkedMsg is returned after the mark-conversation-seen request.
type SeenMarkedMsg struct {
	FriendID client.UserID
	Err      error
}

// CloseMsg asks the parent to return to the friend list.
type CloseMsg struct{}

// typingTickMsg fires after the typing idle window.
type typingTickMsg struct{ at time.Time }

// KeyMap holds the chat key bindings.
type KeyMap struct {
	Send   key.Binding
	Escape key.Binding
	Up     key.Binding
	Down   key.Binding
}

// DefaultKeyMap returns the default chat key bindings.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Send: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "send"),
		),
		Escape: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "back"),
		),
		Up: key.NewBinding(
			key.WithKeys("ctrl+k", "pgup"),
			key.WithHelp("pgup", "scroll up"),
		),
		Down: key.NewBinding(
			key.WithKeys("ctrl+j", "pgdown"),
			key.WithHelp("pgdn", "scroll down"),
		),
	}
}

// Model is the open-conversation model.
type Model struct {
	http *client.HTTPClient
	ws   *client.ChatSocket
	keys KeyMap

	self   client.UserID
	friend client.User
	conv   *chat.Conversation

	input  textinput.Model
	offset int // scroll offset from bottom

	friendOnline bool
	friendTyping bool
	typingSent   bool
	lastTyped    time.Time

	loading bool
	errMsg  string
	width   int
	height  int
}

// New opens a conversation with a friend.
func New(http *client.HTTPClient, ws *client.ChatSocket, self client.UserID, friend client.User) Model {
	in := textinput.New()
	in.Placeholder = "message " + displayName(friend)
	in.CharLimit = 2000
	in.Focus()

	return Model{
		http:    http,
		ws:      ws,
		keys:    DefaultKeyMap(),
		self:    self,
		friend:  friend,
		conv:    chat.New(self, friend.ID),
		input:   in,
		loading: true,
	}
}

// Init fetches the history and starts the cursor blink.
func (m Model) Init() tea.Cmd {
	return tea.Batch(fetchHistory(m.http, m.friend.ID), textinput.Blink)
}

// Friend returns the conversation peer.
func (m Model) Friend() client.User { return m.friend }

// Refresh refetches the conversation, picking up seen-flag changes on
// outgoing messages. Pending optimistic sends survive the reload.
func (m Model) Refresh() tea.Cmd {
	return fetchHistory(m.http, m.friend.ID)
}

// SetSize updates the available rendering area.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
}

// SetFriendOnline updates the peer's presence shown in the header and
// used for tick rendering.
func (m *Model) SetFriendOnline(online bool) {
	m.friendOnline = online
}

// SetFriendTyping flips the typing indicator.
func (m *Model) SetFriendTyping(active bool) {
	m.friendTyping = active
}

// HandleIncoming merges a pushed message into the open conversation and,
// when it adds an unseen message from the friend, fires a mark-seen
// request since the user is looking at the chat right now.
func (m *Model) HandleIncoming(msg client.Message) tea.Cmd {
	if !m.conv.Involves(msg) {
		return nil
	}
	m.conv.Merge(msg)
	m.offset = 0
	if m.conv.HasUnseenFromFriend() {
		return markSeen(m.http, m.friend.ID)
	}
	return nil
}

// Update handles messages for the open conversation.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case HistoryLoadedMsg:
		if msg.FriendID != m.friend.ID {
			return m, nil // stale response for a previously open chat
		}
		m.loading = false
		if msg.Err != nil {
			m.errMsg = msg.Err.Error()
			return m, nil
		}
		m.errMsg = ""
		m.conv.SetMessages(msg.Msgs)
		if m.conv.HasUnseenFromFriend() {
			return m, markSeen(m.http, m.friend.ID)
		}
		return m, nil

	case SendResultMsg:
		if msg.Err != nil {
			m.conv.RollbackSend(msg.TempID)
			m.errMsg = "send failed: " + msg.Err.Error()
			return m, nil
		}
		m.conv.ConfirmSend(msg.TempID, msg.Resp)
		// The REST write is the durable copy; the socket frame gives the
		// peer real-time delivery.
		return m, echoSend(m.ws, m.self, m.friend.ID, msg.Content)

	case SeenMarkedMsg:
		if msg.Err == nil && msg.FriendID == m.friend.ID {
			m.conv.MarkSeenFromFriend()
		}
		return m, nil

	case typingTickMsg:
		if m.typingSent && !m.lastTyped.After(msg.at.Add(-typingIdle)) {
			m.typingSent = false
			m.ws.SendTyping(m.friend.ID, true)
		}
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) handleKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Escape):
		if m.typingSent {
			m.ws.SendTyping(m.friend.ID, true)
		}
		return m, func() tea.Msg { return CloseMsg{} }

	case key.Matches(msg, m.keys.Up):
		if m.offset < m.conv.Len()-1 {
			m.offset++
		}
		return m, nil

	case key.Matches(msg, m.keys.Down):
		if m.offset > 0 {
			m.offset--
		}
		return m, nil

	case key.Matches(msg, m.keys.Send):
		content := strings.TrimSpace(m.input.Value())
		if content == "" {
			return m, nil
		}
		m.input.SetValue("")
		m.errMsg = ""
		m.offset = 0
		if m.typingSent {
			m.typingSent = false
			m.ws.SendTyping(m.friend.ID, true)
		}
		placeholder := m.conv.AppendOptimistic(content)
		return m, doSend(m.http, m.friend.ID, content, placeholder.ID)
	}

	before := m.input.Value()
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	if m.input.Value() != before {
		m.lastTyped = time.Now()
		cmds := []tea.Cmd{cmd, tea.Tick(typingIdle, func(t time.Time) tea.Msg {
			return typingTickMsg{at: t}
		})}
		if !m.typingSent {
			m.typingSent = true
			m.ws.SendTyping(m.friend.ID, false)
		}
		return m, tea.Batch(cmds...)
	}
	return m, cmd
}

// View renders the conversation.
func (m Model) View() string {
	header := m.renderHeader()
	body := m.renderMessages()
	footer := m.renderFooter()
	return lipgloss.JoinVertical(lipgloss.Left, header, body, footer)
}

func (m Model) renderHeader() string {
	name := displayName(m.friend)
	status := theme.StyleDimmed.Render("offline")
	if m.friendTyping {
		status = lipgloss.NewStyle().Foreground(theme.ColorTyping).Render("typing...")
	} else if m.friendOnline {
		status = lipgloss.NewStyle().Foreground(theme.ColorOnline).Render("online")
	}
	return theme.StyleBorder.Padding(0, 1).Render(
		theme.StyleHeader.Render(name) + "  " + status)
}

func (m Model) renderMessages() string {
	if m.loading {
		return theme.StyleDimmed.Render("  Loading conversation...")
	}
	msgs := m.conv.Messages()
	if len(msgs) == 0 {
		return theme.StyleDimmed.Render("  No messages yet. Say hi.")
	}

	visible := m.height - 7
	if visible < 3 {
		visible = 3
	}

	var lines []string
	var lastDay string
	for _, msg := range msgs {
		if day := msg.Timestamp.Format("2006-01-02"); day != lastDay && !msg.Timestamp.IsZero() {
			lastDay = day
			lines = append(lines, theme.StyleDimmed.Render("  ── "+msg.Timestamp.Format("Mon, Jan 2")+" ──"))
		}
		lines = append(lines, m.renderMessage(msg))
	}

	end := len(lines) - m.offset
	if end > len(lines) {
		end = len(lines)
	}
	start := end - visible
	if start < 0 {
		start = 0
	}
	if end < start {
		end = start
	}
	return strings.Join(lines[start:end], "\n")
}

func (m Model) renderMessage(msg client.Message) string {
	ts := theme.StyleDimmed.Render(msg.Timestamp.Format("15:04"))
	if msg.Sender == m.self {
		tick := theme.TickGlyph(msg.Seen, m.friendOnline)
		return fmt.Sprintf("  %s %s %s %s", ts,
			theme.StyleAccent.Render("you:"), msg.Content, tick)
	}
	return fmt.Sprintf("  %s %s %s", ts,
		theme.StyleHeader.Render(displayName(m.friend)+":"), msg.Content)
}

func (m Model) renderFooter() string {
	var rows []string
	if m.errMsg != "" {
		rows = append(rows, theme.StyleError.Render("  "+m.errMsg))
	}
	rows = append(rows, theme.StyleBorder.Padding(0, 1).Render(m.input.View()))
	rows = append(rows, theme.StyleDimmed.Render("  enter: send  esc: back  pgup/pgdn: scroll"))
	return lipgloss.JoinVertical(lipgloss.Left, rows...)
}

func displayName(u client.User) string {
	if u.Name != "" {
		return u.Name
	}
	return u.Username
}

func fetchHistory(h *client.HTTPClient, friendID client.UserID) tea.Cmd {
	return func() tea.Msg {
		msgs, err := h.Messages(friendID)
		return HistoryLoadedMsg{FriendID: friendID, Msgs: msgs, Err: err}
	}
}

func doSend(h *client.HTTPClient, friendID client.UserID, content string, tempID client.MessageID) tea.Cmd {
	return func() tea.Msg {
		resp, err := h.SendMessage(friendID, content)
		return SendResultMsg{TempID: tempID, Content: content, Resp: resp, Err: err}
	}
}

// echoSend mirrors a delivered message onto the chat socket. A closed
// socket is not an error: the server rebroadcasts persisted messages on
// its own when the peer reconnects.
func echoSend(ws *client.ChatSocket, from, to client.UserID, content string) tea.Cmd {
	return func() tea.Msg {
		ws.SendChatMessage(from, to, content)
		return nil
	}
}

func markSeen(h *client.HTTPClient, friendID client.UserID) tea.Cmd {
	return func() tea.Msg {
		err := h.MarkConversationSeen(friendID)
		return SeenMarkedMsg{FriendID: friendID, Err: err}
	}
}
