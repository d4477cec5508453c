package client

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/gorilla/websocket"
)

const (
	reconnectBaseDelay = 1 * time.Second
	reconnectMaxDelay  = 30 * time.Second
	writeTimeout       = 10 * time.Second
	pongTimeout        = 60 * time.Second
	pingInterval       = 30 * time.Second
)

// ConnState is the chat channel's connection state.
type ConnState int

const (
	StateDisconnected ConnState = iota
	StateConnecting
	StateConnected
)

// FrameHandler receives every inbound frame. ChatHandler receives only
// normalized chat messages.
type (
	FrameHandler func(frameType string, raw []byte)
	ChatHandler  func(msg Message)
)

// ChatSocket manages the single WebSocket connection of an authenticated
// session. It demultiplexes inbound frames into Bubble Tea messages and
// fans them out to registered subscribers.
type ChatSocket struct {
	wsBase   string
	username string
	token    string

	mu      sync.Mutex
	writeMu sync.Mutex // serialises all conn writes (ping, frames)
	conn    *websocket.Conn
	state   ConnState
	pingCtx context.CancelFunc // cancels the active ping goroutine

	handlerMu    sync.Mutex
	nextHandler  int
	handlers     []frameSub
	chatHandlers []chatSub
}

type frameSub struct {
	id int
	fn FrameHandler
}

type chatSub struct {
	id int
	fn ChatHandler
}

// NewChatSocket creates a socket for the given session. wsBase is the
// scheme+host part, e.g. "ws://127.0.0.1:8002".
func NewChatSocket(wsBase, username, token string) *ChatSocket {
	return &ChatSocket{wsBase: wsBase, username: username, token: token}
}

// URL returns the full chat endpoint for this session.
func (c *ChatSocket) URL() string {
	c.mu.Lock()
	token := c.token
	c.mu.Unlock()
	return fmt.Sprintf("%s/ws/chat/%s/?token=%s", c.wsBase, c.username, token)
}

// SetToken swaps the bearer token used on the next (re)connect.
func (c *ChatSocket) SetToken(token string) {
	c.mu.Lock()
	c.token = token
	c.mu.Unlock()
}

// State returns the current connection state.
func (c *ChatSocket) State() ConnState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// --- Bubble Tea messages ---

// ConnectedMsg is sent when the WebSocket connects.
type ConnectedMsg struct{}

// DisconnectedMsg is sent when the connection drops.
type DisconnectedMsg struct{ Err error }

// ReadyMsg is the server's connection_established acknowledgement.
type ReadyMsg struct{}

// ChatMessageMsg delivers an inbound chat message.
type ChatMessageMsg struct{ Message Message }

// TypingMsg reports a typing indicator change.
type TypingMsg struct {
	From UserID
	Stop bool
}

// PresenceJoinMsg reports identifiers that came online together.
type PresenceJoinMsg struct{ IDs []string }

// PresenceLeaveMsg reports identifiers that went offline together.
type PresenceLeaveMsg struct{ IDs []string }

// RosterMsg delivers a full online-users snapshot.
type RosterMsg struct{ Groups [][]string }

// ForceLogoutMsg is the terminal session-invalidated signal. The app
// clears local session state; the socket does not reconnect after it.
type ForceLogoutMsg struct{}

// Subscribe registers a handler for all inbound frames. Handlers run in
// registration order; the returned function unregisters.
func (c *ChatSocket) Subscribe(fn FrameHandler) func() {
	c.handlerMu.Lock()
	defer c.handlerMu.Unlock()
	c.nextHandler++
	id := c.nextHandler
	c.handlers = append(c.handlers, frameSub{id: id, fn: fn})
	return func() {
		c.handlerMu.Lock()
		defer c.handlerMu.Unlock()
		for i, h := range c.handlers {
			if h.id == id {
				c.handlers = append(c.handlers[:i], c.handlers[i+1:]...)
				return
			}
		}
	}
}

// SubscribeChat registers a handler for chat messages only.
func (c *ChatSocket) SubscribeChat(fn ChatHandler) func() {
	c.handlerMu.Lock()
	defer c.handlerMu.Unlock()
	c.nextHandler++
	id := c.nextHandler
	c.chatHandlers = append(c.chatHandlers, chatSub{id: id, fn: fn})
	return func() {
		c.handlerMu.Lock()
		defer c.handlerMu.Unlock()
		for i, h := range c.chatHandlers {
			if h.id == id {
				c.chatHandlers = append(c.chatHandlers[:i], c.chatHandlers[i+1:]...)
				return
			}
		}
	}
}

// Listen returns a Bubble Tea command that connects and reconnects with
// exponential backoff. The original front end dropped presence accuracy
// permanently after a disconnect; here the channel recovers on its own.
func (c *ChatSocket) Listen(ctx context.Context) tea.Cmd {
	return func() tea.Msg {
		c.setState(StateConnecting)
		delay := reconnectBaseDelay
		for {
			select {
			case <-ctx.Done():
				c.setState(StateDisconnected)
				return nil
			default:
			}

			conn, _, err := websocket.DefaultDialer.Dial(c.URL(), nil)
			if err != nil {
				log.Printf("ws dial error: %v (retry in %v)", err, delay)
				time.Sleep(delay)
				delay = min(delay*2, reconnectMaxDelay)
				continue
			}

			// Ask the server for a presence snapshot before the
			// connection is shared; no write mutex needed yet.
			sync := map[string]string{"type": FramePresenceSync}
			if err := conn.WriteJSON(sync); err != nil {
				conn.Close()
				continue
			}

			// Cancel any previous ping goroutine.
			c.mu.Lock()
			if c.pingCtx != nil {
				c.pingCtx()
			}
			pingCtx, pingCancel := context.WithCancel(ctx)
			c.conn = conn
			c.state = StateConnected
			c.pingCtx = pingCancel
			c.mu.Unlock()

			go c.pingLoop(pingCtx, conn)

			return ConnectedMsg{}
		}
	}
}

// ReadLoop returns a Bubble Tea command that reads frames from the
// connection. It should be started after receiving ConnectedMsg and
// restarted after each delivered message.
func (c *ChatSocket) ReadLoop(ctx context.Context) tea.Cmd {
	return func() tea.Msg {
		c.mu.Lock()
		conn := c.conn
		c.mu.Unlock()
		if conn == nil {
			return DisconnectedMsg{Err: fmt.Errorf("no connection")}
		}

		conn.SetPongHandler(func(string) error {
			conn.SetReadDeadline(time.Now().Add(pongTimeout))
			return nil
		})
		conn.SetReadDeadline(time.Now().Add(pongTimeout))

		for {
			_, data, err := conn.ReadMessage()
			if err != nil {
				c.dropConn(conn)
				return DisconnectedMsg{Err: err}
			}

			var hdr frameHeader
			if err := json.Unmarshal(data, &hdr); err != nil {
				continue
			}

			c.fanOut(hdr.Type, data)

			teaMsg := c.dispatch(hdr.Type, data)
			if _, forced := teaMsg.(ForceLogoutMsg); forced {
				// Terminal: tear the channel down, no reconnect.
				c.dropConn(conn)
				return teaMsg
			}
			if teaMsg != nil {
				return teaMsg
			}
		}
	}
}

// Close tears down the connection and ping loop.
func (c *ChatSocket) Close() {
	c.mu.Lock()
	conn := c.conn
	c.conn = nil
	c.state = StateDisconnected
	if c.pingCtx != nil {
		c.pingCtx()
		c.pingCtx = nil
	}
	c.mu.Unlock()
	if conn != nil {
		conn.Close()
	}
}

// SendChatMessage sends a chat message frame for real-time delivery.
// The receiver id is repeated under the aliases older backends expect.
func (c *ChatSocket) SendChatMessage(from, to UserID, content string) error {
	return c.writeJSON(map[string]interface{}{
		"type":       FrameChatMessage,
		"content":    content,
		"to_user":    to,
		"to_user_id": to,
		"receiver":   to,
		"sender":     from,
	})
}

// SendTyping sends a typing indicator change.
func (c *ChatSocket) SendTyping(to UserID, stop bool) error {
	frameType := FrameTypingStart
	if stop {
		frameType = FrameTypingStop
	}
	return c.writeJSON(map[string]interface{}{
		"type":    frameType,
		"to_user": to,
	})
}

// RequestPresenceSync asks the server to resend the online roster.
func (c *ChatSocket) RequestPresenceSync() error {
	return c.writeJSON(map[string]string{"type": FramePresenceSync})
}

func (c *ChatSocket) writeJSON(v interface{}) error {
	c.mu.Lock()
	conn := c.conn
	c.mu.Unlock()
	if conn == nil {
		return fmt.Errorf("not connected")
	}
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	return conn.WriteJSON(v)
}

// pingLoop sends periodic pings on the given connection. It exits when
// the context is cancelled or the connection changes.
func (c *ChatSocket) pingLoop(ctx context.Context, conn *websocket.Conn) {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.mu.Lock()
			cc := c.conn
			c.mu.Unlock()
			if cc != conn {
				return
			}
			c.writeMu.Lock()
			conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			err := conn.WriteMessage(websocket.PingMessage, nil)
			c.writeMu.Unlock()
			if err != nil {
				return
			}
		}
	}
}

func (c *ChatSocket) setState(s ConnState) {
	c.mu.Lock()
	c.state = s
	c.mu.Unlock()
}

func (c *ChatSocket) dropConn(conn *websocket.Conn) {
	c.mu.Lock()
	if c.conn == conn {
		c.conn = nil
		c.state = StateDisconnected
	}
	c.mu.Unlock()
	conn.Close()
}

// fanOut delivers the frame to subscribers in registration order. A
// panicking subscriber must not prevent delivery to the rest.
func (c *ChatSocket) fanOut(frameType string, data []byte) {
	c.handlerMu.Lock()
	handlers := make([]frameSub, len(c.handlers))
	copy(handlers, c.handlers)
	var chat []chatSub
	if frameType == FrameChatMessage {
		chat = make([]chatSub, len(c.chatHandlers))
		copy(chat, c.chatHandlers)
	}
	c.handlerMu.Unlock()

	for _, h := range handlers {
		callIsolated(func() { h.fn(frameType, data) })
	}
	if len(chat) > 0 {
		var ev ChatMessageEvent
		if json.Unmarshal(data, &ev) != nil {
			return
		}
		msg := ev.Message()
		for _, h := range chat {
			callIsolated(func() { h.fn(msg) })
		}
	}
}

func callIsolated(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("ws subscriber panic: %v", r)
		}
	}()
	fn()
}

func (c *ChatSocket) dispatch(frameType string, data []byte) tea.Msg {
	switch frameType {
	case FrameUserConnected, FrameUserOnline:
		var ev PresenceEvent
		if json.Unmarshal(data, &ev) == nil {
			if ids := ev.Identifiers(); len(ids) > 0 {
				return PresenceJoinMsg{IDs: ids}
			}
		}
	case FrameUserDisconnected, FrameUserOffline:
		var ev PresenceEvent
		if json.Unmarshal(data, &ev) == nil {
			if ids := ev.Identifiers(); len(ids) > 0 {
				return PresenceLeaveMsg{IDs: ids}
			}
		}
	case FrameOnlineUsers, FrameOnlineUsersList:
		var ev RosterEvent
		if json.Unmarshal(data, &ev) == nil {
			return RosterMsg{Groups: ev.Groups()}
		}
	case FrameEstablished:
		return ReadyMsg{}
	case FrameForceLogout:
		return ForceLogoutMsg{}
	case FrameChatMessage:
		var ev ChatMessageEvent
		if json.Unmarshal(data, &ev) == nil {
			return ChatMessageMsg{Message: ev.Message()}
		}
	case FrameTypingStart:
		var ev TypingEvent
		if json.Unmarshal(data, &ev) == nil {
			return TypingMsg{From: ev.From()}
		}
	case FrameTypingStop:
		var ev TypingEvent
		if json.Unmarshal(data, &ev) == nil {
			return TypingMsg{From: ev.From(), Stop: true}
		}
	}
	return nil
}
