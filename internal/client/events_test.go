package client

import (
	"encoding/json"
	"testing"
)

func TestPresenceEventIdentifiers(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want []string
	}{
		{
			"id and username",
			`{"type": "user_connected", "user_id": 42, "username": "alice"}`,
			[]string{"42", "alice"},
		},
		{
			"user_username alias preferred",
			`{"type": "user_online", "user_id": "42", "user_username": "alice", "username": "ignored"}`,
			[]string{"42", "alice"},
		},
		{
			"username only",
			`{"type": "user_disconnected", "user": "alice"}`,
			[]string{"alice"},
		},
		{
			"nothing usable",
			`{"type": "user_offline"}`,
			nil,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var ev PresenceEvent
			if err := json.Unmarshal([]byte(tt.raw), &ev); err != nil {
				t.Fatalf("unmarshal: %v", err)
			}
			got := ev.Identifiers()
			if len(got) != len(tt.want) {
				t.Fatalf("Identifiers = %v, want %v", got, tt.want)
			}
			for i := range tt.want {
				if got[i] != tt.want[i] {
					t.Errorf("Identifiers[%d] = %q, want %q", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestRosterEventGroups(t *testing.T) {
	raw := `{"type": "online_users", "users": [
		{"id": 1, "username": "alice"},
		{"id": 2},
		"just-a-string-entry"
	]}`
	var ev RosterEvent
	if err := json.Unmarshal([]byte(raw), &ev); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	groups := ev.Groups()
	if len(groups) < 2 {
		t.Fatalf("Groups = %v, want at least the two object entries", groups)
	}
	if groups[0][0] != "1" || groups[0][1] != "alice" {
		t.Errorf("first group = %v", groups[0])
	}
	if groups[1][0] != "2" {
		t.Errorf("second group = %v", groups[1])
	}
}

func TestChatMessageEventAliases(t *testing.T) {
	tests := []struct {
		name         string
		raw          string
		wantSender   UserID
		wantReceiver UserID
	}{
		{
			"canonical fields",
			`{"type": "chat_message", "id": 1, "sender": 2, "receiver": 3, "content": "hi"}`,
			2, 3,
		},
		{
			"from_user and to_user",
			`{"type": "chat_message", "id": 1, "from_user": 2, "to_user": 3}`,
			2, 3,
		},
		{
			"user_id and to_user_id",
			`{"type": "chat_message", "id": 1, "user_id": "2", "to_user_id": 3}`,
			2, 3,
		},
		{
			"to alias",
			`{"type": "chat_message", "id": 1, "sender": {"id": 2}, "to": 3}`,
			2, 3,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var ev ChatMessageEvent
			if err := json.Unmarshal([]byte(tt.raw), &ev); err != nil {
				t.Fatalf("unmarshal: %v", err)
			}
			msg := ev.Message()
			if msg.Sender != tt.wantSender || msg.Receiver != tt.wantReceiver {
				t.Errorf("sender/receiver = %d/%d, want %d/%d",
					msg.Sender, msg.Receiver, tt.wantSender, tt.wantReceiver)
			}
		})
	}
}

func TestTypingEventFrom(t *testing.T) {
	var ev TypingEvent
	if err := json.Unmarshal([]byte(`{"sender": 7}`), &ev); err != nil {
		t.Fatal(err)
	}
	if ev.From() != 7 {
		t.Errorf("From = %d, want 7", ev.From())
	}
	ev = TypingEvent{}
	if err := json.Unmarshal([]byte(`{"from_user": "8"}`), &ev); err != nil {
		t.Fatal(err)
	}
	if ev.From() != 8 {
		t.Errorf("From = %d, want 8", ev.From())
	}
}
