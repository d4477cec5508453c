package client

import (
	"encoding/json"
)

// Inbound frame type discriminators. The chat channel multiplexes chat
// messages, typing indicators, presence changes and session control over
// one connection; frames are flat JSON objects keyed by "type".
const (
	FrameUserConnected    = "user_connected"
	FrameUserOnline       = "user_online"
	FrameUserDisconnected = "user_disconnected"
	FrameUserOffline      = "user_offline"
	FrameOnlineUsers      = "online_users"
	FrameOnlineUsersList  = "online_users_list"
	FrameEstablished      = "connection_established"
	FrameForceLogout      = "force_logout"
	FrameChatMessage      = "chat_message"
	FrameTypingStart      = "typing_start"
	FrameTypingStop       = "typing_stop"
)

// Outbound frame types.
const (
	FramePresenceSync = "presence_sync"
)

type frameHeader struct {
	Type string `json:"type"`
}

// PresenceEvent is a single-user connect or disconnect frame. The
// username travels under whichever alias the backend version emits.
type PresenceEvent struct {
	UserID       json.RawMessage `json:"user_id"`
	Username     string          `json:"username"`
	UserUsername string          `json:"user_username"`
	User         string          `json:"user"`
}

// Identifiers returns the alias group carried by the event: the numeric
// id and username both refer to the same user and are added or removed
// from the presence set together.
func (e PresenceEvent) Identifiers() []string {
	var ids []string
	if uid := normalizeUserID(e.UserID); uid != 0 {
		ids = append(ids, uid.String())
	}
	for _, s := range []string{e.UserUsername, e.Username, e.User} {
		if s != "" {
			ids = append(ids, s)
			break
		}
	}
	return ids
}

// RosterEvent is a full online-users snapshot.
type RosterEvent struct {
	Users []json.RawMessage `json:"users"`
}

// Groups returns one alias group per roster entry.
func (e RosterEvent) Groups() [][]string {
	groups := make([][]string, 0, len(e.Users))
	for _, u := range e.Users {
		if ids := identifiersFromRaw(u); len(ids) > 0 {
			groups = append(groups, ids)
		}
	}
	return groups
}

// ChatMessageEvent is an inbound chat message frame. Sender and receiver
// travel under several aliases depending on the backend version.
type ChatMessageEvent struct {
	ID        MessageID       `json:"id"`
	Sender    UserRef         `json:"sender"`
	FromUser  UserRef         `json:"from_user"`
	UserID    json.RawMessage `json:"user_id"`
	Receiver  UserRef         `json:"receiver"`
	ToUser    UserRef         `json:"to_user"`
	ToUserID  UserRef         `json:"to_user_id"`
	To        UserRef         `json:"to"`
	Content   string          `json:"content"`
	Timestamp WireTime        `json:"timestamp"`
	Seen      bool            `json:"seen"`
}

// Message normalizes the event into the canonical Message shape.
func (e ChatMessageEvent) Message() Message {
	sender := e.Sender.ID
	if sender == 0 {
		sender = e.FromUser.ID
	}
	if sender == 0 {
		sender = normalizeUserID(e.UserID)
	}
	receiver := e.Receiver.ID
	for _, alt := range []UserID{e.ToUser.ID, e.ToUserID.ID, e.To.ID} {
		if receiver != 0 {
			break
		}
		receiver = alt
	}
	return Message{
		ID:        e.ID,
		Sender:    sender,
		Receiver:  receiver,
		Content:   e.Content,
		Timestamp: e.Timestamp,
		Seen:      e.Seen,
	}
}

// TypingEvent is a typing_start or typing_stop frame.
type TypingEvent struct {
	Sender   UserRef `json:"sender"`
	FromUser UserRef `json:"from_user"`
	ToUser   UserRef `json:"to_user"`
}

// From returns the typing user's id.
func (e TypingEvent) From() UserID {
	if e.Sender.ID != 0 {
		return e.Sender.ID
	}
	return e.FromUser.ID
}
