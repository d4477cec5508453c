package client

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"
)

// UserID is the canonical numeric identity for a user. Zero means unknown.
type UserID int64

func (id UserID) String() string {
	return strconv.FormatInt(int64(id), 10)
}

// UserRef is the single normalization boundary for the duck-typed user
// references the backend emits: a bare number, a numeric string, or an
// object carrying an "id" field all decode to the same canonical UserID.
// Nothing downstream ever inspects the wire shape again.
type UserRef struct {
	ID UserID
}

func (r *UserRef) UnmarshalJSON(data []byte) error {
	r.ID = normalizeUserID(data)
	return nil
}

func (r UserRef) MarshalJSON() ([]byte, error) {
	return json.Marshal(int64(r.ID))
}

// normalizeUserID converts any observed wire representation to a UserID.
// Unrecognized shapes normalize to zero rather than failing the decode.
func normalizeUserID(data []byte) UserID {
	data = []byte(strings.TrimSpace(string(data)))
	if len(data) == 0 || string(data) == "null" {
		return 0
	}

	var n int64
	if err := json.Unmarshal(data, &n); err == nil {
		return UserID(n)
	}

	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		if v, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64); err == nil {
			return UserID(v)
		}
		return 0
	}

	var obj struct {
		ID json.RawMessage `json:"id"`
	}
	if err := json.Unmarshal(data, &obj); err == nil && len(obj.ID) > 0 {
		return normalizeUserID(obj.ID)
	}
	return 0
}

// MessageID holds either a server-assigned numeric id or a client-side
// temporary id for an optimistic message.
type MessageID string

func (m *MessageID) UnmarshalJSON(data []byte) error {
	var n json.Number
	if err := json.Unmarshal(data, &n); err == nil {
		*m = MessageID(n.String())
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*m = MessageID(s)
		return nil
	}
	*m = ""
	return nil
}

func (m MessageID) MarshalJSON() ([]byte, error) {
	return json.Marshal(string(m))
}

// wireTimeFormats are tried in order when parsing backend timestamps.
var wireTimeFormats = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
}

// WireTime is a timestamp decoded defensively: an unparsable value yields
// the zero time instead of a decode error, and callers must treat zero as
// "unknown" (it is excluded from unread comparisons).
type WireTime struct {
	time.Time
}

func (t *WireTime) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		t.Time = time.Time{}
		return nil
	}
	t.Time = ParseWireTime(s)
	return nil
}

func (t WireTime) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return json.Marshal("")
	}
	return json.Marshal(t.Format(time.RFC3339Nano))
}

// ParseWireTime parses a backend timestamp, returning the zero time when
// no known layout matches.
func ParseWireTime(s string) time.Time {
	s = strings.TrimSpace(s)
	for _, layout := range wireTimeFormats {
		if ts, err := time.Parse(layout, s); err == nil {
			return ts
		}
	}
	return time.Time{}
}

// OnlineFlag normalizes the assorted truthy representations the backend
// uses for is_online: bool, 0/1, and strings like "true" or "online".
// Known reports whether the field carried a recognizable value at all.
type OnlineFlag struct {
	Known  bool
	Online bool
}

func (f *OnlineFlag) UnmarshalJSON(data []byte) error {
	// null unmarshals into bool with a nil error, so it needs its own
	// check to stay unknown.
	if string(data) == "null" {
		return nil
	}
	var b bool
	if err := json.Unmarshal(data, &b); err == nil {
		f.Known, f.Online = true, b
		return nil
	}
	var n float64
	if err := json.Unmarshal(data, &n); err == nil {
		f.Known, f.Online = true, n != 0
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		switch strings.ToLower(strings.TrimSpace(s)) {
		case "true", "yes", "online", "1":
			f.Known, f.Online = true, true
		case "false", "no", "offline", "0":
			f.Known, f.Online = true, false
		}
		return nil
	}
	return nil
}

// Identifiers returns every string alias under which a user may appear in
// a presence roster: numeric id, username, and display name.
func (u User) Identifiers() []string {
	ids := make([]string, 0, 3)
	if u.ID != 0 {
		ids = append(ids, u.ID.String())
	}
	if u.Username != "" {
		ids = append(ids, u.Username)
	}
	if u.Name != "" {
		ids = append(ids, u.Name)
	}
	return ids
}
