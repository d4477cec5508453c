// Package app wires the whole TUI together: pages, overlays, the chat
// channel, the poll timers and the session lifecycle.
package app

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/pkg/errors"

	"github.com/investerm/investerm/internal/client"
	"github.com/investerm/investerm/internal/config"
	"github.com/investerm/investerm/internal/presence"
	"github.com/investerm/investerm/internal/session"
	"github.com/investerm/investerm/internal/theme"
	"github.com/investerm/investerm/internal/unread"
	"github.com/investerm/investerm/internal/views/admin"
	"github.com/investerm/investerm/internal/views/chatview"
	"github.com/investerm/investerm/internal/views/coingame"
	"github.com/investerm/investerm/internal/views/debug"
	"github.com/investerm/investerm/internal/views/friends"
	"github.com/investerm/investerm/internal/views/login"
	"github.com/investerm/investerm/internal/views/news"
	"github.com/investerm/investerm/internal/views/notifications"
	"github.com/investerm/investerm/internal/views/portfolio"
	"github.com/investerm/investerm/internal/views/predict"
	"github.com/investerm/investerm/internal/views/simulate"
	"github.com/investerm/investerm/internal/views/status"
)

// Page identifies the active screen.
type Page int

const (
	PageLogin Page = iota
	PageFriends
	PageChat
	PagePortfolio
	PageSimulate
	PagePredict
	PageCoinGame
	PageNews
	PageUsers
)

// Overlay identifies which modal is active.
type Overlay int

const (
	OverlayNone Overlay = iota
	OverlayNotifications
	OverlayDebug
)

// Poll timer messages. Each timer reschedules itself independently.
type (
	presenceTickMsg     struct{}
	unreadTickMsg       struct{}
	notificationTickMsg struct{}
	chatPresenceTickMsg struct{}
	refreshDueMsg       struct{}
)

// unreadScannedMsg carries the unseen-messages poll result.
type unreadScannedMsg struct {
	msgs []client.Message
	err  error
}

// presenceRosterMsg carries the REST presence poll result.
type presenceRosterMsg struct {
	groups [][]string
	err    error
}

// tokenRefreshedMsg carries the token refresh result.
type tokenRefreshedMsg struct {
	resp *client.LoginResponse
	err  error
}

// Model is the root Bubble Tea model.
type Model struct {
	cfg    config.Config
	http   *client.HTTPClient
	ws     *client.ChatSocket
	ctx    context.Context
	cancel context.CancelFunc

	// wsCtx scopes the socket's reconnect loop to one session; logout
	// cancels it so a dying connection cannot respawn afterwards.
	wsCtx    context.Context
	wsCancel context.CancelFunc

	keys   KeyMap
	width  int
	height int

	sessions *session.Store
	sess     *session.Session

	online *presence.Set
	unread *unread.Counter

	page    Page
	overlay Overlay

	statusBar status.Model
	loginView login.Model
	debugView debug.Model

	// Views below exist only while a session is active.
	friendsView   friends.Model
	chatView      chatview.Model
	chatOpen      bool
	portfolioView portfolio.Model
	simulateView  simulate.Model
	predictView   predict.Model
	coingameView  coingame.Model
	newsView      news.Model
	adminView     admin.Model
	notifView     notifications.Model
}

// New creates the root model. A previously saved session, if still
// valid, skips the login page.
func New(cfg config.Config, http *client.HTTPClient, sessions *session.Store, restored *session.Session) Model {
	ctx, cancel := context.WithCancel(context.Background())
	m := Model{
		cfg:       cfg,
		http:      http,
		ctx:       ctx,
		cancel:    cancel,
		keys:      DefaultKeyMap(),
		sessions:  sessions,
		online:    presence.NewSet(),
		statusBar: status.New(),
		loginView: login.New(http),
		debugView: debug.New(),
	}
	if restored != nil {
		m.attachSession(restored)
	}
	return m
}

// Init connects the chat channel when a session was restored, otherwise
// shows the login form.
func (m Model) Init() tea.Cmd {
	if m.sess == nil {
		return m.loginView.Init()
	}
	return m.sessionStartCmds()
}

// attachSession installs an authenticated session and builds the
// session-scoped views.
func (m *Model) attachSession(s *session.Session) {
	m.sess = s
	m.http.SetToken(s.Token)
	m.wsCtx, m.wsCancel = context.WithCancel(m.ctx)
	m.ws = client.NewChatSocket(m.cfg.Server.WSURL, s.User.Username, s.Token)
	m.unread = unread.NewCounter(m.cfg.State.Dir, s.User.ID)

	m.friendsView = friends.New(m.http, s.User.ID, m.online.IsOnline)
	m.portfolioView = portfolio.New(m.http)
	m.simulateView = simulate.New(m.http)
	m.predictView = predict.New(m.http)
	m.coingameView = coingame.New(m.http)
	m.newsView = news.New(m.http, m.cfg.State.Dir)
	m.adminView = admin.New(m.http, s.User.ID, m.online.IsOnline)
	m.notifView = notifications.New(m.http, s.User.ID)

	m.statusBar.Username = s.User.Username
	m.page = PageFriends
	m.applySizes()
}

// sessionStartCmds is everything that starts running when a session
// becomes active: the chat channel, the initial fetches and the timers.
func (m Model) sessionStartCmds() tea.Cmd {
	return tea.Batch(
		m.ws.Listen(m.wsCtx),
		m.friendsView.Init(),
		m.coingameView.Init(),
		m.notifView.Init(),
		scanUnread(m.http),
		tickAfter(m.cfg.Poll.Presence, presenceTickMsg{}),
		tickAfter(m.cfg.Poll.GreyTicks, unreadTickMsg{}),
		tickAfter(m.cfg.Poll.Notifications, notificationTickMsg{}),
		tickAfter(m.cfg.Poll.ChatPresence, chatPresenceTickMsg{}),
		tickAfter(m.sess.RefreshIn(time.Now()), refreshDueMsg{}),
	)
}

// logout drops all session state and returns to the login page.
func (m *Model) logout(reason string) tea.Cmd {
	if m.wsCancel != nil {
		m.wsCancel()
	}
	if m.ws != nil {
		m.ws.Close()
	}
	m.sessions.Clear()
	m.sess = nil
	m.online = presence.NewSet()
	m.chatOpen = false
	m.overlay = OverlayNone
	m.page = PageLogin
	m.statusBar = status.New()
	m.statusBar.Width = m.width
	m.loginView = login.New(m.http)
	m.loginView.SetSize(m.width, m.height)
	if reason != "" {
		m.loginView.SetError(reason)
	}
	m.debugView.Add("nav", "logged out: "+reason)
	return m.loginView.Init()
}

// Update handles messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	// A rejected token anywhere ends the session; no view gets to
	// render a 401 as an ordinary error.
	if err := resultErr(msg); errors.Is(err, client.ErrUnauthorized) {
		if m.sess == nil {
			return m, nil
		}
		return m, m.logout("session expired, please log in again")
	}

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.applySizes()
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	// --- chat channel ---
	// Frames may still arrive from a socket torn down by logout; with
	// no session they have nothing to apply to.

	case client.ConnectedMsg:
		if m.sess == nil {
			return m, nil
		}
		m.statusBar.State = client.StateConnected
		m.debugView.Add("ws", "connected")
		return m, m.ws.ReadLoop(m.wsCtx)

	case client.DisconnectedMsg:
		m.statusBar.State = client.StateDisconnected
		if msg.Err != nil {
			m.debugView.Add("ws", "disconnected: "+msg.Err.Error())
		}
		if m.sess == nil {
			return m, nil
		}
		m.statusBar.State = client.StateConnecting
		return m, m.ws.Listen(m.wsCtx)

	case client.ReadyMsg:
		if m.sess == nil {
			return m, nil
		}
		return m, m.ws.ReadLoop(m.wsCtx)

	case client.RosterMsg:
		if m.sess == nil {
			return m, nil
		}
		m.online.ReplaceAll(msg.Groups)
		m.syncPresence()
		return m, m.ws.ReadLoop(m.wsCtx)

	case client.PresenceJoinMsg:
		if m.sess == nil {
			return m, nil
		}
		m.online.Add(msg.IDs...)
		m.syncPresence()
		return m, m.ws.ReadLoop(m.wsCtx)

	case client.PresenceLeaveMsg:
		if m.sess == nil {
			return m, nil
		}
		m.online.Remove(msg.IDs...)
		m.syncPresence()
		return m, m.ws.ReadLoop(m.wsCtx)

	case client.ChatMessageMsg:
		if m.sess == nil {
			return m, nil
		}
		cmds := []tea.Cmd{m.ws.ReadLoop(m.wsCtx)}
		if cmd := m.handleChatMessage(msg.Message); cmd != nil {
			cmds = append(cmds, cmd)
		}
		return m, tea.Batch(cmds...)

	case client.TypingMsg:
		if m.sess == nil {
			return m, nil
		}
		m.friendsView.SetTyping(msg.From, !msg.Stop)
		if m.chatOpen && m.chatView.Friend().ID == msg.From {
			m.chatView.SetFriendTyping(!msg.Stop)
		}
		return m, m.ws.ReadLoop(m.wsCtx)

	case client.ForceLogoutMsg:
		return m, m.logout("session ended by the server")

	// --- timers ---

	case presenceTickMsg:
		if m.sess == nil {
			return m, nil
		}
		return m, tea.Batch(
			pollPresence(m.http),
			tickAfter(m.cfg.Poll.Presence, presenceTickMsg{}),
		)

	case unreadTickMsg:
		if m.sess == nil {
			return m, nil
		}
		cmds := []tea.Cmd{
			scanUnread(m.http),
			tickAfter(m.cfg.Poll.GreyTicks, unreadTickMsg{}),
		}
		if m.chatOpen && m.page == PageChat {
			cmds = append(cmds, m.chatView.Refresh())
		}
		return m, tea.Batch(cmds...)

	case notificationTickMsg:
		if m.sess == nil {
			return m, nil
		}
		return m, tea.Batch(
			notifications.Fetch(m.http, m.sess.User.ID),
			tickAfter(m.cfg.Poll.Notifications, notificationTickMsg{}),
		)

	case chatPresenceTickMsg:
		if m.sess == nil {
			return m, nil
		}
		if m.chatOpen && m.page == PageChat {
			m.ws.RequestPresenceSync()
		}
		return m, tickAfter(m.cfg.Poll.ChatPresence, chatPresenceTickMsg{})

	case refreshDueMsg:
		if m.sess == nil {
			return m, nil
		}
		return m, refreshToken(m.http)

	case tokenRefreshedMsg:
		return m.handleTokenRefresh(msg)

	// --- polls ---

	case presenceRosterMsg:
		if msg.err != nil {
			// Stale presence is better than flapping on a failed poll.
			m.debugView.Add("poll", "presence poll failed: "+msg.err.Error())
			return m, nil
		}
		m.online.ReplaceAll(msg.groups)
		m.syncPresence()
		return m, nil

	case unreadScannedMsg:
		if msg.err != nil {
			m.debugView.Add("poll", "unread poll failed: "+msg.err.Error())
			return m, nil
		}
		m.applyUnreadScan(msg.msgs)
		return m, nil

	// --- view results ---

	case login.ResultMsg:
		return m.handleLoginResult(msg)

	case friends.OpenChatMsg:
		return m.openChat(msg.Friend)

	case chatview.CloseMsg:
		if m.chatOpen {
			m.unread.MarkVisited(m.chatView.Friend().ID)
		}
		m.page = PageFriends
		return m, nil

	case friends.LoadedMsg, friends.RequestsLoadedMsg, friends.RequestResolvedMsg:
		var cmd tea.Cmd
		m.friendsView, cmd = m.friendsView.Update(msg)
		return m, cmd

	case chatview.HistoryLoadedMsg, chatview.SendResultMsg, chatview.SeenMarkedMsg:
		if !m.chatOpen {
			return m, nil
		}
		var cmd tea.Cmd
		m.chatView, cmd = m.chatView.Update(msg)
		return m, cmd

	case portfolio.LoadedMsg, portfolio.ChartLoadedMsg, portfolio.DeletedMsg:
		var cmd tea.Cmd
		m.portfolioView, cmd = m.portfolioView.Update(msg)
		return m, cmd

	case simulate.CreatedMsg:
		var cmd tea.Cmd
		m.simulateView, cmd = m.simulateView.Update(msg)
		// A finished simulation shows up in the portfolio list too.
		return m, tea.Batch(cmd, m.portfolioView.Init())

	case predict.RequirementsMsg, predict.IngestedMsg, predict.PredictedMsg:
		var cmd tea.Cmd
		m.predictView, cmd = m.predictView.Update(msg)
		return m, cmd

	case coingame.WalletLoadedMsg:
		if msg.Err == nil && msg.Wallet != nil {
			m.statusBar.Balance = msg.Wallet.Balance
			m.statusBar.HasBalance = true
		}
		var cmd tea.Cmd
		m.coingameView, cmd = m.coingameView.Update(msg)
		return m, cmd

	case coingame.PositionsLoadedMsg, coingame.TradeResultMsg:
		var cmd tea.Cmd
		m.coingameView, cmd = m.coingameView.Update(msg)
		return m, cmd

	case news.LoadedMsg:
		var cmd tea.Cmd
		m.newsView, cmd = m.newsView.Update(msg)
		return m, cmd

	case admin.LoadedMsg, admin.RequestSentMsg:
		var cmd tea.Cmd
		m.adminView, cmd = m.adminView.Update(msg)
		return m, cmd

	case notifications.LoadedMsg, notifications.MarkedMsg:
		var cmd tea.Cmd
		m.notifView, cmd = m.notifView.Update(msg)
		m.statusBar.PendingCount = m.notifView.Pending()
		return m, cmd
	}

	// Everything else (cursor blinks, animation frames) goes to the
	// active page.
	return m.updateActive(msg)
}

// handleChatMessage feeds an inbound message to the unread counter and,
// when its conversation is on screen, to the open chat.
func (m *Model) handleChatMessage(msg client.Message) tea.Cmd {
	self := m.sess.User.ID
	viewing := m.chatOpen && m.page == PageChat && m.chatView.Friend().ID == msg.Sender

	if viewing {
		// Reading it right now: refresh the visit record instead of
		// counting it as unread.
		m.unread.MarkVisited(msg.Sender)
		m.unread.ClearForFriend(msg.Sender)
	} else {
		m.unread.HandleIncoming(self, msg)
	}
	m.friendsView.SetCounts(m.unread.Counts())
	m.friendsView.SetTyping(msg.Sender, false)
	m.statusBar.UnreadTotal = m.unread.TotalUnread()

	if m.chatOpen {
		return m.chatView.HandleIncoming(msg)
	}
	return nil
}

func (m Model) handleLoginResult(msg login.ResultMsg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	m.loginView, cmd = m.loginView.Update(msg)
	if msg.Err != nil || msg.Resp == nil {
		return m, cmd
	}

	s := session.FromLogin(msg.Resp)
	if err := m.sessions.Save(s); err != nil {
		m.debugView.Add("err", "saving session: "+err.Error())
	}
	m.attachSession(s)
	m.debugView.Add("nav", "logged in as "+s.User.Username)
	return m, tea.Batch(cmd, m.sessionStartCmds())
}

func (m Model) handleTokenRefresh(msg tokenRefreshedMsg) (tea.Model, tea.Cmd) {
	if m.sess == nil {
		return m, nil
	}
	if msg.err != nil {
		m.debugView.Add("err", "token refresh failed: "+msg.err.Error())
		// Retry well before a typical expiry; a dead token ends in a
		// 401 and a forced logout anyway.
		return m, tickAfter(time.Minute, refreshDueMsg{})
	}

	refreshed := session.FromLogin(msg.resp)
	// Refresh responses often omit the profile; keep the existing one.
	if refreshed.User.ID == 0 {
		refreshed.User = m.sess.User
	}
	m.sess = refreshed
	m.http.SetToken(refreshed.Token)
	m.ws.SetToken(refreshed.Token)
	if err := m.sessions.Save(refreshed); err != nil {
		m.debugView.Add("err", "saving session: "+err.Error())
	}
	return m, tickAfter(refreshed.RefreshIn(time.Now()), refreshDueMsg{})
}

func (m Model) openChat(friend client.User) (tea.Model, tea.Cmd) {
	m.unread.MarkClicked(friend.ID)
	m.unread.MarkVisited(friend.ID)
	m.unread.ClearForFriend(friend.ID)
	m.friendsView.SetCounts(m.unread.Counts())
	m.statusBar.UnreadTotal = m.unread.TotalUnread()

	m.chatView = chatview.New(m.http, m.ws, m.sess.User.ID, friend)
	m.chatView.SetSize(m.width, m.height)
	m.chatView.SetFriendOnline(m.online.IsOnline(friend.Identifiers()...))
	m.chatOpen = true
	m.page = PageChat
	m.debugView.Add("nav", "opened chat with "+friend.Username)
	return m, m.chatView.Init()
}

// applyUnreadScan rebuilds the unread counts from an unseen-messages
// poll. The poll and the push path converge on the same counts.
func (m *Model) applyUnreadScan(msgs []client.Message) {
	perFriend := make(map[client.UserID][]client.Message)
	for _, msg := range msgs {
		if msg.Sender == 0 {
			continue
		}
		perFriend[msg.Sender] = append(perFriend[msg.Sender], msg)
		if !msg.Timestamp.IsZero() {
			m.unread.UpdateLastMessage(msg.Sender, msg.Timestamp.Time)
		}
	}
	// The conversation on screen is being read, not piling up.
	if m.chatOpen && m.page == PageChat {
		delete(perFriend, m.chatView.Friend().ID)
	}
	m.unread.UpdateAll(perFriend)
	m.friendsView.SetCounts(m.unread.Counts())
	m.statusBar.UnreadTotal = m.unread.TotalUnread()
}

// syncPresence pushes the presence set into the widgets that render it.
func (m *Model) syncPresence() {
	m.statusBar.OnlineCount = m.online.Users()
	if m.chatOpen {
		f := m.chatView.Friend()
		m.chatView.SetFriendOnline(m.online.IsOnline(f.Identifiers()...))
	}
}

// capturesText reports whether the active page owns plain character
// keys (text inputs), leaving only control chords for the app.
func (m Model) capturesText() bool {
	switch m.page {
	case PageLogin, PageChat, PageSimulate, PagePredict, PageCoinGame:
		return true
	}
	return false
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keys.ForceQuit) {
		m.cancel()
		return m, tea.Quit
	}

	if m.overlay != OverlayNone {
		return m.handleOverlayKey(msg)
	}

	if m.sess == nil {
		var cmd tea.Cmd
		m.loginView, cmd = m.loginView.Update(msg)
		return m, cmd
	}

	// Pages with text inputs get almost every key; esc backs out.
	if m.capturesText() {
		if m.page != PageLogin && m.page != PageChat && key.Matches(msg, m.keys.Escape) {
			m.page = PageFriends
			return m, nil
		}
		return m.updateActive(msg)
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		m.cancel()
		return m, tea.Quit

	case key.Matches(msg, m.keys.Friends):
		m.page = PageFriends
		return m, nil

	case key.Matches(msg, m.keys.Portfolio):
		m.page = PagePortfolio
		return m, m.portfolioView.Init()

	case key.Matches(msg, m.keys.Simulate):
		m.page = PageSimulate
		return m, m.simulateView.Init()

	case key.Matches(msg, m.keys.Predict):
		m.page = PagePredict
		return m, m.predictView.Init()

	case key.Matches(msg, m.keys.CoinGame):
		m.page = PageCoinGame
		return m, m.coingameView.Init()

	case key.Matches(msg, m.keys.News):
		m.page = PageNews
		return m, m.newsView.Init()

	case key.Matches(msg, m.keys.Users):
		m.page = PageUsers
		return m, m.adminView.Init()

	case key.Matches(msg, m.keys.Notifications):
		m.overlay = OverlayNotifications
		return m, m.notifView.Init()

	case key.Matches(msg, m.keys.Debug):
		m.overlay = OverlayDebug
		return m, nil

	case key.Matches(msg, m.keys.Logout):
		cmd := m.logout("")
		return m, tea.Batch(doLogout(m.http), cmd)

	case key.Matches(msg, m.keys.Escape):
		m.page = PageFriends
		return m, nil
	}

	return m.updateActive(msg)
}

func (m Model) handleOverlayKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keys.Escape) {
		m.overlay = OverlayNone
		return m, nil
	}
	switch m.overlay {
	case OverlayNotifications:
		var cmd tea.Cmd
		m.notifView, cmd = m.notifView.Update(msg)
		m.statusBar.PendingCount = m.notifView.Pending()
		return m, cmd
	case OverlayDebug:
		switch msg.String() {
		case "k", "up":
			m.debugView.ScrollUp(1)
		case "j", "down":
			m.debugView.ScrollDown(1)
		}
	}
	return m, nil
}

// updateActive forwards a message to the active page's view.
func (m Model) updateActive(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch m.page {
	case PageLogin:
		m.loginView, cmd = m.loginView.Update(msg)
	case PageFriends:
		m.friendsView, cmd = m.friendsView.Update(msg)
	case PageChat:
		if m.chatOpen {
			m.chatView, cmd = m.chatView.Update(msg)
		}
	case PagePortfolio:
		m.portfolioView, cmd = m.portfolioView.Update(msg)
	case PageSimulate:
		m.simulateView, cmd = m.simulateView.Update(msg)
	case PagePredict:
		m.predictView, cmd = m.predictView.Update(msg)
	case PageCoinGame:
		m.coingameView, cmd = m.coingameView.Update(msg)
	case PageNews:
		m.newsView, cmd = m.newsView.Update(msg)
	case PageUsers:
		m.adminView, cmd = m.adminView.Update(msg)
	}
	return m, cmd
}

func (m *Model) applySizes() {
	m.statusBar.Width = m.width
	m.loginView.SetSize(m.width, m.height)
	m.friendsView.SetSize(m.width, m.height-4)
	m.chatView.SetSize(m.width, m.height-4)
	m.portfolioView.SetSize(m.width, m.height-4)
	m.simulateView.SetSize(m.width, m.height-4)
	m.predictView.SetSize(m.width, m.height-4)
	m.coingameView.SetSize(m.width, m.height-4)
	m.newsView.SetSize(m.width, m.height-4)
	m.adminView.SetSize(m.width, m.height-4)
}

// View renders the full TUI.
func (m Model) View() string {
	if m.width == 0 || m.height == 0 {
		return "Initializing..."
	}
	if m.sess == nil {
		return m.loginView.View()
	}

	var body string
	switch m.overlay {
	case OverlayNotifications:
		body = lipgloss.Place(m.width, m.height-3, lipgloss.Center, lipgloss.Center,
			m.notifView.View(m.width/2+20))
	case OverlayDebug:
		body = lipgloss.Place(m.width, m.height-3, lipgloss.Center, lipgloss.Center,
			m.debugView.View(m.width-10, m.height-6))
	default:
		body = m.pageView()
	}

	help := theme.StyleDimmed.Render(
		"  1:friends 2:portfolio 3:simulate 4:predict 5:coins 6:news 7:users  n:notifications  L:logout  q:quit")
	return lipgloss.JoinVertical(lipgloss.Left, m.statusBar.View(), body, help)
}

func (m Model) pageView() string {
	switch m.page {
	case PageFriends:
		return m.friendsView.View()
	case PageChat:
		if m.chatOpen {
			return m.chatView.View()
		}
		return m.friendsView.View()
	case PagePortfolio:
		return m.portfolioView.View()
	case PageSimulate:
		return m.simulateView.View()
	case PagePredict:
		return m.predictView.View()
	case PageCoinGame:
		return m.coingameView.View()
	case PageNews:
		return m.newsView.View()
	case PageUsers:
		return m.adminView.View()
	}
	return fmt.Sprintf("unknown page %d", m.page)
}

// resultErr extracts the error carried by a fetch result, whichever
// view or poll produced it. Login results are left out: a 401 there is
// a wrong password, not an expired session.
func resultErr(msg tea.Msg) error {
	switch msg := msg.(type) {
	case presenceRosterMsg:
		return msg.err
	case unreadScannedMsg:
		return msg.err
	case tokenRefreshedMsg:
		return msg.err
	case friends.LoadedMsg:
		return msg.Err
	case friends.RequestsLoadedMsg:
		return msg.Err
	case friends.RequestResolvedMsg:
		return msg.Err
	case chatview.HistoryLoadedMsg:
		return msg.Err
	case chatview.SendResultMsg:
		return msg.Err
	case chatview.SeenMarkedMsg:
		return msg.Err
	case portfolio.LoadedMsg:
		return msg.Err
	case portfolio.ChartLoadedMsg:
		return msg.Err
	case portfolio.DeletedMsg:
		return msg.Err
	case simulate.CreatedMsg:
		return msg.Err
	case predict.RequirementsMsg:
		return msg.Err
	case predict.IngestedMsg:
		return msg.Err
	case predict.PredictedMsg:
		return msg.Err
	case coingame.WalletLoadedMsg:
		return msg.Err
	case coingame.PositionsLoadedMsg:
		return msg.Err
	case coingame.TradeResultMsg:
		return msg.Err
	case news.LoadedMsg:
		return msg.Err
	case admin.LoadedMsg:
		return msg.Err
	case admin.RequestSentMsg:
		return msg.Err
	case notifications.LoadedMsg:
		return msg.Err
	case notifications.MarkedMsg:
		return msg.Err
	}
	return nil
}

// --- commands ---

func tickAfter(d time.Duration, msg tea.Msg) tea.Cmd {
	if d <= 0 {
		d = time.Millisecond
	}
	return tea.Tick(d, func(time.Time) tea.Msg { return msg })
}

func pollPresence(h *client.HTTPClient) tea.Cmd {
	return func() tea.Msg {
		groups, err := h.OnlineUsers()
		return presenceRosterMsg{groups: groups, err: err}
	}
}

func scanUnread(h *client.HTTPClient) tea.Cmd {
	return func() tea.Msg {
		msgs, err := h.UnreadMessages()
		return unreadScannedMsg{msgs: msgs, err: err}
	}
}

func refreshToken(h *client.HTTPClient) tea.Cmd {
	return func() tea.Msg {
		resp, err := h.RefreshToken()
		return tokenRefreshedMsg{resp: resp, err: err}
	}
}

func doLogout(h *client.HTTPClient) tea.Cmd {
	return func() tea.Msg {
		// Best effort; the local session is gone either way. The token
		// is cleared here so the request still carries it.
		h.Logout()
		h.SetToken("")
		return nil
	}
}
