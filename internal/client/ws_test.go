package client

import (
	"testing"
)

func TestDispatchFrames(t *testing.T) {
	c := NewChatSocket("ws://127.0.0.1:1", "alice", "tok")

	msg := c.dispatch(FrameUserConnected, []byte(`{"type":"user_connected","user_id":2,"username":"bob"}`))
	join, ok := msg.(PresenceJoinMsg)
	if !ok {
		t.Fatalf("dispatch = %T, want PresenceJoinMsg", msg)
	}
	if len(join.IDs) != 2 || join.IDs[0] != "2" || join.IDs[1] != "bob" {
		t.Errorf("join IDs = %v", join.IDs)
	}

	msg = c.dispatch(FrameUserOffline, []byte(`{"type":"user_offline","username":"bob"}`))
	leave, ok := msg.(PresenceLeaveMsg)
	if !ok {
		t.Fatalf("dispatch = %T, want PresenceLeaveMsg", msg)
	}
	if len(leave.IDs) != 1 || leave.IDs[0] != "bob" {
		t.Errorf("leave IDs = %v", leave.IDs)
	}

	msg = c.dispatch(FrameOnlineUsers, []byte(`{"type":"online_users","users":[{"id":1},{"id":2}]}`))
	roster, ok := msg.(RosterMsg)
	if !ok {
		t.Fatalf("dispatch = %T, want RosterMsg", msg)
	}
	if len(roster.Groups) != 2 {
		t.Errorf("roster groups = %v", roster.Groups)
	}

	msg = c.dispatch(FrameChatMessage, []byte(`{"type":"chat_message","id":9,"sender":2,"receiver":1,"content":"yo"}`))
	cm, ok := msg.(ChatMessageMsg)
	if !ok {
		t.Fatalf("dispatch = %T, want ChatMessageMsg", msg)
	}
	if cm.Message.Sender != 2 || cm.Message.Content != "yo" {
		t.Errorf("chat message = %+v", cm.Message)
	}

	if _, ok := c.dispatch(FrameForceLogout, []byte(`{"type":"force_logout"}`)).(ForceLogoutMsg); !ok {
		t.Error("force_logout should dispatch ForceLogoutMsg")
	}
	if _, ok := c.dispatch(FrameEstablished, []byte(`{"type":"connection_established"}`)).(ReadyMsg); !ok {
		t.Error("connection_established should dispatch ReadyMsg")
	}

	msg = c.dispatch(FrameTypingStop, []byte(`{"type":"typing_stop","sender":3}`))
	typ, ok := msg.(TypingMsg)
	if !ok || !typ.Stop || typ.From != 3 {
		t.Errorf("dispatch = %#v, want stopped TypingMsg from 3", msg)
	}

	if msg := c.dispatch("unknown_frame", []byte(`{"type":"unknown_frame"}`)); msg != nil {
		t.Errorf("unknown frame dispatched %T, want nil", msg)
	}
}

func TestFanOutOrderAndUnsubscribe(t *testing.T) {
	c := NewChatSocket("ws://127.0.0.1:1", "alice", "tok")

	var got []string
	unsubA := c.Subscribe(func(frameType string, raw []byte) {
		got = append(got, "a:"+frameType)
	})
	c.Subscribe(func(frameType string, raw []byte) {
		got = append(got, "b:"+frameType)
	})

	c.fanOut(FrameEstablished, []byte(`{"type":"connection_established"}`))
	if len(got) != 2 || got[0] != "a:connection_established" || got[1] != "b:connection_established" {
		t.Fatalf("fan-out order = %v", got)
	}

	unsubA()
	got = nil
	c.fanOut(FrameEstablished, []byte(`{}`))
	if len(got) != 1 || got[0] != "b:connection_established" {
		t.Errorf("after unsubscribe = %v", got)
	}
}

func TestFanOutIsolatesPanickingSubscriber(t *testing.T) {
	c := NewChatSocket("ws://127.0.0.1:1", "alice", "tok")

	delivered := false
	c.Subscribe(func(frameType string, raw []byte) {
		panic("subscriber bug")
	})
	c.Subscribe(func(frameType string, raw []byte) {
		delivered = true
	})

	c.fanOut(FrameEstablished, []byte(`{"type":"connection_established"}`))
	if !delivered {
		t.Error("panic in one subscriber blocked delivery to the next")
	}
}

func TestChatSubscriberReceivesNormalizedMessage(t *testing.T) {
	c := NewChatSocket("ws://127.0.0.1:1", "alice", "tok")

	var got Message
	c.SubscribeChat(func(msg Message) { got = msg })

	c.fanOut(FrameChatMessage, []byte(`{"type":"chat_message","id":4,"from_user":"2","to_user":1,"content":"hi"}`))
	if got.Sender != 2 || got.Receiver != 1 || got.ID != "4" {
		t.Errorf("chat subscriber got %+v", got)
	}
}

func TestURLAndTokenSwap(t *testing.T) {
	c := NewChatSocket("ws://example.test:8002", "alice", "tok1")
	want := "ws://example.test:8002/ws/chat/alice/?token=tok1"
	if got := c.URL(); got != want {
		t.Errorf("URL = %q, want %q", got, want)
	}
	c.SetToken("tok2")
	if got := c.URL(); got != "ws://example.test:8002/ws/chat/alice/?token=tok2" {
		t.Errorf("URL after SetToken = %q", got)
	}
}
