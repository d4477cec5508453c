package chat

import (
	"testing"
	"time"

	"github.com/investerm/investerm/internal/client"
)

func wireMsg(id string, sender, receiver client.UserID, ts time.Time, seen bool) client.Message {
	return client.Message{
		ID:        client.MessageID(id),
		Sender:    sender,
		Receiver:  receiver,
		Timestamp: client.WireTime{Time: ts},
		Seen:      seen,
	}
}

func TestOptimisticSendSuccess(t *testing.T) {
	c := New(1, 2)
	now := time.Now()
	c.SetMessages([]client.Message{
		wireMsg("10", 2, 1, now.Add(-time.Minute), true),
	})

	placeholder := c.AppendOptimistic("hello")
	if c.Len() != 2 {
		t.Fatalf("expected 2 messages after optimistic append, got %d", c.Len())
	}

	c.ConfirmSend(placeholder.ID, &client.SendMessageResponse{
		ID:        "11",
		Timestamp: client.WireTime{Time: now},
	})

	msgs := c.Messages()
	if len(msgs) != 2 {
		t.Fatalf("expected exactly 2 messages after confirm, got %d", len(msgs))
	}
	// Exactly one message with the server id, no surviving placeholder.
	found := 0
	for _, m := range msgs {
		if m.ID == "11" {
			found++
			if m.Sender != 1 {
				t.Errorf("confirmed message sender = %d, want self", m.Sender)
			}
		}
		if isTempID(m.ID) {
			t.Error("placeholder survived confirmation")
		}
	}
	if found != 1 {
		t.Errorf("found %d messages with server id, want 1", found)
	}
}

func TestOptimisticSendFailure(t *testing.T) {
	c := New(1, 2)
	now := time.Now()
	c.SetMessages([]client.Message{
		wireMsg("10", 2, 1, now.Add(-time.Minute), true),
	})
	before := c.Messages()

	placeholder := c.AppendOptimistic("hello")
	c.RollbackSend(placeholder.ID)

	after := c.Messages()
	if len(after) != len(before) {
		t.Fatalf("list changed after rollback: %d != %d", len(after), len(before))
	}
	for i := range before {
		if before[i].ID != after[i].ID {
			t.Errorf("message %d changed after rollback", i)
		}
	}
}

func TestSeenFlagMonotonic(t *testing.T) {
	c := New(1, 2)
	now := time.Now()
	c.SetMessages([]client.Message{
		wireMsg("10", 1, 2, now, true),
	})

	// A later push of the same message without the seen flag must not
	// regress it.
	c.Merge(wireMsg("10", 1, 2, now, false))

	if got := c.Messages()[0].Seen; !got {
		t.Error("seen flag regressed from true to false")
	}
}

func TestMergeDeduplicatesAndFilters(t *testing.T) {
	c := New(1, 2)
	now := time.Now()

	if !c.Merge(wireMsg("5", 2, 1, now, false)) {
		t.Error("first merge should add the message")
	}
	if c.Merge(wireMsg("5", 2, 1, now, false)) {
		t.Error("duplicate id should not be added twice")
	}
	if c.Merge(wireMsg("6", 3, 1, now, false)) {
		t.Error("message from another conversation should be ignored")
	}
	if c.Len() != 1 {
		t.Errorf("expected 1 message, got %d", c.Len())
	}
}

func TestSetMessagesKeepsPendingOptimistic(t *testing.T) {
	c := New(1, 2)
	placeholder := c.AppendOptimistic("in flight")

	// A refresh lands while the send is still pending.
	c.SetMessages([]client.Message{
		wireMsg("20", 2, 1, time.Now().Add(-time.Hour), true),
	})

	found := false
	for _, m := range c.Messages() {
		if m.ID == placeholder.ID {
			found = true
		}
	}
	if !found {
		t.Error("pending optimistic message dropped by refresh")
	}
}

func TestChronologicalOrder(t *testing.T) {
	c := New(1, 2)
	now := time.Now()
	c.SetMessages([]client.Message{
		wireMsg("3", 2, 1, now, false),
		wireMsg("1", 2, 1, now.Add(-2*time.Hour), true),
		wireMsg("2", 1, 2, now.Add(-time.Hour), true),
	})

	msgs := c.Messages()
	for i := 1; i < len(msgs); i++ {
		if msgs[i].Timestamp.Before(msgs[i-1].Timestamp.Time) {
			t.Fatalf("messages out of order at %d", i)
		}
	}
}

func TestSeenMarkingProtocol(t *testing.T) {
	c := New(1, 2)
	now := time.Now()
	c.SetMessages([]client.Message{
		wireMsg("1", 2, 1, now.Add(-2*time.Minute), false), // friend -> self, unseen
		wireMsg("2", 2, 1, now.Add(-time.Minute), true),    // friend -> self, seen
		wireMsg("3", 1, 2, now, false),                     // own outgoing
	})

	if !c.HasUnseenFromFriend() {
		t.Fatal("expected unseen messages from friend")
	}

	if n := c.MarkSeenFromFriend(); n != 1 {
		t.Errorf("MarkSeenFromFriend = %d, want 1", n)
	}
	for _, m := range c.Messages() {
		if m.Sender == 2 && !m.Seen {
			t.Error("friend message still unseen after marking")
		}
		if m.ID == "3" && m.Seen {
			t.Error("own outgoing message must never be marked seen locally")
		}
	}
	if c.HasUnseenFromFriend() {
		t.Error("gate should be closed after marking")
	}
}

func TestTickFor(t *testing.T) {
	tests := []struct {
		name   string
		seen   bool
		online bool
		want   Tick
	}{
		{"seen beats presence", true, false, TickDoubleBlue},
		{"seen while online", true, true, TickDoubleBlue},
		{"online unseen", false, true, TickDoubleGrey},
		{"offline unseen", false, false, TickSingle},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := client.Message{Seen: tt.seen}
			if got := TickFor(m, tt.online); got != tt.want {
				t.Errorf("TickFor = %d, want %d", got, tt.want)
			}
		})
	}
}
