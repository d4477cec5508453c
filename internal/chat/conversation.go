// Package chat models a two-party conversation on the client side:
// chronological ordering, optimistic sends reconciled against server
// confirmations, and the seen-marking protocol.
package chat

import (
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/investerm/investerm/internal/client"
)

const tempIDPrefix = "tmp-"

// Conversation holds the message list between self and one friend.
type Conversation struct {
	self   client.UserID
	friend client.UserID
	msgs   []client.Message
}

// New creates an empty conversation.
func New(self, friend client.UserID) *Conversation {
	return &Conversation{self: self, friend: friend}
}

// Friend returns the peer's id.
func (c *Conversation) Friend() client.UserID { return c.friend }

// SetMessages replaces the list with a fetched conversation, sorted
// chronologically. Pending optimistic messages are preserved so an
// in-flight send is not dropped by a concurrent refresh.
func (c *Conversation) SetMessages(msgs []client.Message) {
	kept := make([]client.Message, 0, len(msgs)+1)
	kept = append(kept, msgs...)
	for _, m := range c.msgs {
		if isTempID(m.ID) {
			kept = append(kept, m)
		}
	}
	c.msgs = kept
	c.sort()
}

// Messages returns a copy of the current list, oldest first.
func (c *Conversation) Messages() []client.Message {
	out := make([]client.Message, len(c.msgs))
	copy(out, c.msgs)
	return out
}

// Len returns the number of messages.
func (c *Conversation) Len() int { return len(c.msgs) }

// AppendOptimistic adds a local placeholder for a message being sent and
// returns it. The placeholder carries a client-generated temp id that
// ConfirmSend or RollbackSend resolves later.
func (c *Conversation) AppendOptimistic(content string) client.Message {
	m := client.Message{
		ID:        client.MessageID(tempIDPrefix + uuid.NewString()),
		Sender:    c.self,
		Receiver:  c.friend,
		Content:   content,
		Timestamp: client.WireTime{Time: time.Now().UTC()},
	}
	c.msgs = append(c.msgs, m)
	c.sort()
	return m
}

// ConfirmSend patches the placeholder in place with the server-assigned
// id, timestamp and seen flag. The sender stays self so the message keeps
// rendering as outgoing regardless of what the server echoed.
func (c *Conversation) ConfirmSend(tempID client.MessageID, resp *client.SendMessageResponse) {
	for i := range c.msgs {
		if c.msgs[i].ID != tempID {
			continue
		}
		c.msgs[i].ID = resp.ID
		if !resp.Timestamp.IsZero() {
			c.msgs[i].Timestamp = resp.Timestamp
		}
		if resp.Seen {
			c.msgs[i].Seen = true
		}
		c.sort()
		return
	}
}

// RollbackSend removes the placeholder after a failed send, restoring
// the list to its pre-send state. The caller surfaces the error.
func (c *Conversation) RollbackSend(tempID client.MessageID) {
	for i := range c.msgs {
		if c.msgs[i].ID == tempID {
			c.msgs = append(c.msgs[:i], c.msgs[i+1:]...)
			return
		}
	}
}

// Involves reports whether a message belongs to this conversation.
func (c *Conversation) Involves(m client.Message) bool {
	return (m.Sender == c.friend && m.Receiver == c.self) ||
		(m.Sender == c.self && m.Receiver == c.friend)
}

// Merge adds a pushed message, deduplicating by id. An update to an
// existing id can only raise the seen flag, never lower it.
func (c *Conversation) Merge(m client.Message) bool {
	if !c.Involves(m) {
		return false
	}
	if m.ID != "" {
		for i := range c.msgs {
			if c.msgs[i].ID == m.ID {
				if m.Seen {
					c.msgs[i].Seen = true
				}
				return false
			}
		}
	}
	c.msgs = append(c.msgs, m)
	c.sort()
	return true
}

// HasUnseenFromFriend reports whether a mark-as-seen request is due:
// at least one message from the friend to self that is not yet seen.
// Firing the request without this gate would be redundant, not wrong.
func (c *Conversation) HasUnseenFromFriend() bool {
	for _, m := range c.msgs {
		if m.Sender == c.friend && m.Receiver == c.self && !m.Seen {
			return true
		}
	}
	return false
}

// MarkSeenFromFriend optimistically flags the friend's messages as seen
// after the mark-conversation request succeeds, and returns how many
// changed. Own outgoing messages are never touched; their seen flag is
// owned by the other party.
func (c *Conversation) MarkSeenFromFriend() int {
	n := 0
	for i := range c.msgs {
		if c.msgs[i].Sender == c.friend && !c.msgs[i].Seen {
			c.msgs[i].Seen = true
			n++
		}
	}
	return n
}

func (c *Conversation) sort() {
	sort.SliceStable(c.msgs, func(i, j int) bool {
		return c.msgs[i].Timestamp.Before(c.msgs[j].Timestamp.Time)
	})
}

func isTempID(id client.MessageID) bool {
	return strings.HasPrefix(string(id), tempIDPrefix)
}

// Tick is the delivery-status indicator for an outgoing message.
type Tick int

const (
	TickSingle     Tick = iota // sent, recipient offline
	TickDoubleGrey             // delivered, recipient online, not seen
	TickDoubleBlue             // seen
)

// TickFor returns the indicator for one of self's outgoing messages.
// Seen always wins over presence.
func TickFor(m client.Message, friendOnline bool) Tick {
	if m.Seen {
		return TickDoubleBlue
	}
	if friendOnline {
		return TickDoubleGrey
	}
	return TickSingle
}
