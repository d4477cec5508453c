package client

import (
	"encoding/json"
	"testing"
	"time"
)

func TestUserRefShapes(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want UserID
	}{
		{"number", `42`, 42},
		{"numeric string", `"42"`, 42},
		{"padded string", `" 42 "`, 42},
		{"object", `{"id": 42}`, 42},
		{"object with string id", `{"id": "42"}`, 42},
		{"null", `null`, 0},
		{"non-numeric string", `"alice"`, 0},
		{"object without id", `{"username": "alice"}`, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var r UserRef
			if err := json.Unmarshal([]byte(tt.raw), &r); err != nil {
				t.Fatalf("unmarshal: %v", err)
			}
			if r.ID != tt.want {
				t.Errorf("UserRef = %d, want %d", r.ID, tt.want)
			}
		})
	}
}

func TestMessageIDShapes(t *testing.T) {
	var m MessageID
	if err := json.Unmarshal([]byte(`17`), &m); err != nil || m != "17" {
		t.Errorf("numeric id = %q (err %v), want \"17\"", m, err)
	}
	if err := json.Unmarshal([]byte(`"tmp-abc"`), &m); err != nil || m != "tmp-abc" {
		t.Errorf("string id = %q (err %v), want \"tmp-abc\"", m, err)
	}
}

func TestWireTimeFormats(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		zero bool
	}{
		{"rfc3339 nano", `"2026-03-01T12:30:45.123456Z"`, false},
		{"rfc3339", `"2026-03-01T12:30:45Z"`, false},
		{"no zone", `"2026-03-01T12:30:45"`, false},
		{"space separated", `"2026-03-01 12:30:45"`, false},
		{"garbage", `"next tuesday"`, true},
		{"number", `12345`, true},
		{"empty", `""`, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var wt WireTime
			if err := json.Unmarshal([]byte(tt.raw), &wt); err != nil {
				t.Fatalf("unmarshal must not fail: %v", err)
			}
			if wt.IsZero() != tt.zero {
				t.Errorf("IsZero = %v, want %v", wt.IsZero(), tt.zero)
			}
		})
	}
}

func TestWireTimeRoundTrip(t *testing.T) {
	ts := time.Date(2026, 3, 1, 12, 30, 45, 0, time.UTC)
	data, err := json.Marshal(WireTime{Time: ts})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var back WireTime
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !back.Equal(ts) {
		t.Errorf("round trip = %v, want %v", back.Time, ts)
	}
}

func TestOnlineFlagShapes(t *testing.T) {
	tests := []struct {
		raw    string
		known  bool
		online bool
	}{
		{`true`, true, true},
		{`false`, true, false},
		{`1`, true, true},
		{`0`, true, false},
		{`"true"`, true, true},
		{`"online"`, true, true},
		{`"offline"`, true, false},
		{`"maybe"`, false, false},
		{`null`, false, false},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			var f OnlineFlag
			if err := json.Unmarshal([]byte(tt.raw), &f); err != nil {
				t.Fatalf("unmarshal must not fail: %v", err)
			}
			if f.Known != tt.known || f.Online != tt.online {
				t.Errorf("flag = %+v, want known=%v online=%v", f, tt.known, tt.online)
			}
		})
	}
}

func TestUserIdentifiers(t *testing.T) {
	u := User{ID: 42, Username: "alice", Name: "Alice A"}
	ids := u.Identifiers()
	want := []string{"42", "alice", "Alice A"}
	if len(ids) != len(want) {
		t.Fatalf("Identifiers = %v, want %v", ids, want)
	}
	for i := range want {
		if ids[i] != want[i] {
			t.Errorf("Identifiers[%d] = %q, want %q", i, ids[i], want[i])
		}
	}

	if got := (User{Username: "bob"}).Identifiers(); len(got) != 1 || got[0] != "bob" {
		t.Errorf("sparse user Identifiers = %v, want [bob]", got)
	}
}
