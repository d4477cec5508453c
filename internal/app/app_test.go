package app

import (
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/investerm/investerm/internal/client"
	"github.com/investerm/investerm/internal/config"
	"github.com/investerm/investerm/internal/session"
	"github.com/investerm/investerm/internal/views/friends"
	"github.com/investerm/investerm/internal/views/login"
)

func testModel(t *testing.T) Model {
	t.Helper()
	cfg := *config.Default()
	cfg.State.Dir = t.TempDir()
	http := client.NewHTTPClient("http://127.0.0.1:1", "tok")
	store := session.NewStore(cfg.State.Dir)
	sess := &session.Session{
		User:      client.User{ID: 1, Username: "alice"},
		Token:     "tok",
		ExpiresAt: time.Now().Add(time.Hour),
	}
	m := New(cfg, http, store, sess)
	m.width = 100
	m.height = 30
	return m
}

func TestRestoredSessionSkipsLogin(t *testing.T) {
	m := testModel(t)
	if m.page != PageFriends {
		t.Errorf("page = %d, want friends after restore", m.page)
	}
	if m.sess == nil {
		t.Fatal("session not attached")
	}
}

func TestNoSessionShowsLogin(t *testing.T) {
	cfg := *config.Default()
	cfg.State.Dir = t.TempDir()
	m := New(cfg, client.NewHTTPClient("http://127.0.0.1:1", ""), session.NewStore(cfg.State.Dir), nil)
	if m.page != PageLogin {
		t.Errorf("page = %d, want login without a session", m.page)
	}
}

func TestPresenceRosterReplacesSet(t *testing.T) {
	m := testModel(t)

	next, _ := m.Update(client.RosterMsg{Groups: [][]string{{"2", "bob"}, {"3"}}})
	m = next.(Model)
	if !m.online.IsOnline("bob") {
		t.Error("bob should be online after roster")
	}
	if m.statusBar.OnlineCount != 2 {
		t.Errorf("OnlineCount = %d, want 2", m.statusBar.OnlineCount)
	}

	// A new roster discards the previous membership entirely.
	next, _ = m.Update(client.RosterMsg{Groups: [][]string{{"3"}}})
	m = next.(Model)
	if m.online.IsOnline("bob") || m.online.IsOnline("2") {
		t.Error("bob should be gone after the replacing roster")
	}
}

func TestPresenceLeaveByAlias(t *testing.T) {
	m := testModel(t)
	next, _ := m.Update(client.PresenceJoinMsg{IDs: []string{"2", "bob"}})
	m = next.(Model)
	if !m.online.IsOnline("2") {
		t.Fatal("join not applied")
	}

	// A disconnect naming only the username must clear the id too.
	next, _ = m.Update(client.PresenceLeaveMsg{IDs: []string{"bob"}})
	m = next.(Model)
	if m.online.IsOnline("2") {
		t.Error("id alias survived a username-only disconnect")
	}
}

func TestIncomingMessageCountsWhenChatClosed(t *testing.T) {
	m := testModel(t)
	msg := client.Message{
		ID:        "5",
		Sender:    2,
		Receiver:  1,
		Content:   "hey",
		Timestamp: client.WireTime{Time: time.Now()},
	}

	next, _ := m.Update(client.ChatMessageMsg{Message: msg})
	m = next.(Model)
	if got := m.unread.Count(2); got != 1 {
		t.Errorf("unread count = %d, want 1", got)
	}
	if m.statusBar.UnreadTotal != 1 {
		t.Errorf("status total = %d, want 1", m.statusBar.UnreadTotal)
	}
}

func TestIncomingMessageNotCountedWhileViewing(t *testing.T) {
	m := testModel(t)
	next, _ := m.openChat(client.User{ID: 2, Username: "bob"})
	m = next.(Model)
	if m.page != PageChat {
		t.Fatalf("page = %d, want chat", m.page)
	}

	msg := client.Message{
		ID:        "6",
		Sender:    2,
		Receiver:  1,
		Content:   "hey",
		Timestamp: client.WireTime{Time: time.Now()},
	}
	next, _ = m.Update(client.ChatMessageMsg{Message: msg})
	m = next.(Model)
	if got := m.unread.Count(2); got != 0 {
		t.Errorf("unread count while viewing = %d, want 0", got)
	}
}

func TestForceLogoutClearsSession(t *testing.T) {
	m := testModel(t)
	next, _ := m.Update(client.ForceLogoutMsg{})
	m = next.(Model)

	if m.sess != nil {
		t.Error("session should be cleared on forced logout")
	}
	if m.page != PageLogin {
		t.Errorf("page = %d, want login", m.page)
	}
	if s, _ := m.sessions.Load(); s != nil {
		t.Error("persisted session should be cleared on forced logout")
	}
}

func TestLateSocketFramesAfterLogout(t *testing.T) {
	m := testModel(t)
	next, _ := m.Update(client.ForceLogoutMsg{})
	m = next.(Model)

	// The closing socket can still deliver frames already in flight;
	// none of them may touch the dead session.
	msg := client.Message{ID: "9", Sender: 2, Receiver: 1, Content: "late"}
	next, _ = m.Update(client.ChatMessageMsg{Message: msg})
	m = next.(Model)
	next, _ = m.Update(client.TypingMsg{From: 2})
	m = next.(Model)
	next, _ = m.Update(client.ConnectedMsg{})
	m = next.(Model)

	if m.sess != nil {
		t.Error("late frames must not revive the session")
	}
	if m.page != PageLogin {
		t.Errorf("page = %d, want login", m.page)
	}
}

func TestLogoutCancelsSocketContext(t *testing.T) {
	m := testModel(t)
	ctx := m.wsCtx
	next, _ := m.Update(client.ForceLogoutMsg{})
	m = next.(Model)

	select {
	case <-ctx.Done():
	default:
		t.Error("logout should cancel the session's socket context")
	}
	if m.sess != nil {
		t.Error("session should be gone")
	}
}

func TestUnauthorizedPollForcesLogout(t *testing.T) {
	m := testModel(t)
	next, _ := m.Update(unreadScannedMsg{err: client.ErrUnauthorized})
	m = next.(Model)

	if m.sess != nil {
		t.Error("session should be cleared after a 401 poll result")
	}
	if m.page != PageLogin {
		t.Errorf("page = %d, want login", m.page)
	}
	if s, _ := m.sessions.Load(); s != nil {
		t.Error("persisted session should be cleared after a 401")
	}
}

func TestUnauthorizedViewResultForcesLogout(t *testing.T) {
	m := testModel(t)
	next, _ := m.Update(friends.LoadedMsg{Err: client.ErrUnauthorized})
	m = next.(Model)

	if m.sess != nil {
		t.Error("session should be cleared after a 401 view result")
	}
	if m.page != PageLogin {
		t.Errorf("page = %d, want login", m.page)
	}
}

func TestUnauthorizedLoginResultStaysOnForm(t *testing.T) {
	cfg := *config.Default()
	cfg.State.Dir = t.TempDir()
	m := New(cfg, client.NewHTTPClient("http://127.0.0.1:1", ""), session.NewStore(cfg.State.Dir), nil)

	next, _ := m.Update(login.ResultMsg{Err: client.ErrUnauthorized})
	m = next.(Model)
	if m.page != PageLogin {
		t.Errorf("page = %d, want login form after bad credentials", m.page)
	}
}

func TestCapturesText(t *testing.T) {
	m := testModel(t)
	capturing := map[Page]bool{
		PageLogin:    true,
		PageChat:     true,
		PageSimulate: true,
		PagePredict:  true,
		PageCoinGame: true,
	}
	for p := PageLogin; p <= PageUsers; p++ {
		m.page = p
		if got := m.capturesText(); got != capturing[p] {
			t.Errorf("page %d: capturesText = %v, want %v", p, got, capturing[p])
		}
	}
}

func TestUnreadScanIdempotent(t *testing.T) {
	m := testModel(t)
	now := time.Now()
	msgs := []client.Message{
		{ID: "1", Sender: 2, Receiver: 1, Timestamp: client.WireTime{Time: now}},
		{ID: "2", Sender: 2, Receiver: 1, Timestamp: client.WireTime{Time: now.Add(time.Second)}},
		{ID: "3", Sender: 3, Receiver: 1, Timestamp: client.WireTime{Time: now}},
	}

	// Two overlapping polls with the same payload converge.
	next, _ := m.Update(unreadScannedMsg{msgs: msgs})
	m = next.(Model)
	next, _ = m.Update(unreadScannedMsg{msgs: msgs})
	m = next.(Model)

	if got := m.unread.Count(2); got != 2 {
		t.Errorf("count for friend 2 = %d, want 2", got)
	}
	if got := m.statusBar.UnreadTotal; got != 3 {
		t.Errorf("total = %d, want 3", got)
	}
}

func TestViewShowsNavigationHelp(t *testing.T) {
	m := testModel(t)
	v := m.View()
	if !strings.Contains(v, "1:friends") {
		t.Error("view should include the navigation help line")
	}
}

func TestWindowSizePropagates(t *testing.T) {
	m := testModel(t)
	next, _ := m.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	m = next.(Model)
	if m.width != 120 || m.height != 40 {
		t.Errorf("size = %dx%d, want 120x40", m.width, m.height)
	}
	if m.statusBar.Width != 120 {
		t.Errorf("status bar width = %d, want 120", m.statusBar.Width)
	}
}
