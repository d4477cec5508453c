// Package client provides the REST and WebSocket clients for the FinSim
// backend. Types mirror the backend wire protocol; every duck-typed field
// is normalized at decode time so the rest of the app sees one shape.
package client

import (
	"encoding/json"
	"strconv"
	"strings"
)

// User is a backend account as returned by the users endpoints.
type User struct {
	ID       UserID     `json:"id"`
	Username string     `json:"username"`
	Name     string     `json:"name"`
	Email    string     `json:"email"`
	IsOnline OnlineFlag `json:"is_online"`
	LastSeen WireTime   `json:"last_seen"`
	IsAdmin  bool       `json:"is_admin"`
}

// Message is one direct message between two users. The Seen flag is
// monotonic: once true it never reverses.
type Message struct {
	ID        MessageID `json:"id"`
	Sender    UserID    `json:"-"`
	Receiver  UserID    `json:"-"`
	Content   string    `json:"content"`
	Timestamp WireTime  `json:"timestamp"`
	Seen      bool      `json:"-"`
}

// messageWire is the raw shape: sender/receiver may be numbers, strings,
// or objects, and the seen flag travels under two different names.
type messageWire struct {
	ID        MessageID `json:"id"`
	Sender    UserRef   `json:"sender"`
	Receiver  UserRef   `json:"receiver"`
	Content   string    `json:"content"`
	Timestamp WireTime  `json:"timestamp"`
	Seen      *bool     `json:"seen"`
	IsSeen    *bool     `json:"is_seen"`
}

func (m *Message) UnmarshalJSON(data []byte) error {
	var w messageWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	m.ID = w.ID
	m.Sender = w.Sender.ID
	m.Receiver = w.Receiver.ID
	m.Content = w.Content
	m.Timestamp = w.Timestamp
	switch {
	case w.Seen != nil:
		m.Seen = *w.Seen
	case w.IsSeen != nil:
		m.Seen = *w.IsSeen
	}
	return nil
}

// FriendRequest is a pending or resolved friend request.
type FriendRequest struct {
	ID       int64    `json:"id"`
	Sender   UserRef  `json:"sender"`
	Receiver UserRef  `json:"receiver"`
	Status   string   `json:"status"` // pending, approved, rejected
	Created  WireTime `json:"created_at"`
	From     User     `json:"from_user"`
}

// Notification is a friend-request notification for the current user.
type Notification struct {
	ID         int64    `json:"id"`
	Type       string   `json:"type"`
	Status     string   `json:"status"`
	ReceiverID UserID   `json:"receiver_id"`
	Message    string   `json:"message"`
	Read       bool     `json:"read"`
	Created    WireTime `json:"created_at"`
}

// notificationList tolerates the three roster shapes the backend returns:
// a bare array, {results: [...]}, or {notifications: [...], pending_count}.
type notificationList struct {
	Results       []Notification
	PendingCount  int
	HasCountField bool
}

func (l *notificationList) UnmarshalJSON(data []byte) error {
	var arr []Notification
	if err := json.Unmarshal(data, &arr); err == nil {
		l.Results = arr
		return nil
	}
	var obj struct {
		Results       []Notification `json:"results"`
		Notifications []Notification `json:"notifications"`
		PendingCount  *int           `json:"pending_count"`
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		return err
	}
	l.Results = obj.Results
	if l.Results == nil {
		l.Results = obj.Notifications
	}
	if obj.PendingCount != nil {
		l.PendingCount = *obj.PendingCount
		l.HasCountField = true
	}
	return nil
}

// friendEntry tolerates my_friends returning either direct user objects or
// wrappers like {friend: {...}} / {user: {...}}.
type friendEntry struct {
	User User
}

func (e *friendEntry) UnmarshalJSON(data []byte) error {
	var wrapper struct {
		Friend *User `json:"friend"`
		User   *User `json:"user"`
	}
	if err := json.Unmarshal(data, &wrapper); err == nil {
		if wrapper.Friend != nil && wrapper.Friend.ID != 0 {
			e.User = *wrapper.Friend
			return nil
		}
		if wrapper.User != nil && wrapper.User.ID != 0 {
			e.User = *wrapper.User
			return nil
		}
	}
	return json.Unmarshal(data, &e.User)
}

// Simulation is a stored price simulation run.
type Simulation struct {
	ID        int64    `json:"id"`
	Symbol    string   `json:"symbol"`
	Days      int      `json:"days"`
	StartCash float64  `json:"start_cash"`
	FinalCash float64  `json:"final_cash"`
	Created   WireTime `json:"created_at"`
}

// ChartPoint is one point of a simulation chart series.
type ChartPoint struct {
	T     WireTime `json:"t"`
	Value float64  `json:"value"`
}

// Wallet is the coin-game wallet. The backend has shipped the balance
// under several field names and occasionally as a string.
type Wallet struct {
	Balance float64
}

func (w *Wallet) UnmarshalJSON(data []byte) error {
	var obj struct {
		Balance       flexFloat `json:"balance"`
		Amount        flexFloat `json:"amount"`
		WalletBalance flexFloat `json:"wallet_balance"`
		Total         flexFloat `json:"total"`
		Value         flexFloat `json:"value"`
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		return err
	}
	for _, v := range []flexFloat{obj.Balance, obj.Amount, obj.WalletBalance, obj.Total, obj.Value} {
		if v.Known {
			w.Balance = v.Value
			return nil
		}
	}
	w.Balance = 0
	return nil
}

// flexFloat accepts a JSON number or a numeric string; anything else is
// treated as absent rather than an error.
type flexFloat struct {
	Known bool
	Value float64
}

func (f *flexFloat) UnmarshalJSON(data []byte) error {
	// null unmarshals into float64 with a nil error; it means absent.
	if string(data) == "null" {
		return nil
	}
	var n float64
	if err := json.Unmarshal(data, &n); err == nil {
		f.Known, f.Value = true, n
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		if v, err := strconv.ParseFloat(strings.TrimSpace(s), 64); err == nil {
			f.Known, f.Value = true, v
		}
	}
	return nil
}

// Position is an open coin-game position.
type Position struct {
	ID           int64    `json:"id"`
	Symbol       string   `json:"symbol"`
	Amount       float64  `json:"amount"`
	EntryPrice   float64  `json:"entry_price"`
	CurrentPrice float64  `json:"current_price"`
	PnL          float64  `json:"pnl"`
	OpenedAt     WireTime `json:"opened_at"`
}

// Candle is one OHLC bar from the ML history endpoint.
type Candle struct {
	Time   WireTime `json:"time"`
	Open   float64  `json:"open"`
	High   float64  `json:"high"`
	Low    float64  `json:"low"`
	Close  float64  `json:"close"`
	Volume float64  `json:"volume"`
}

// Prediction is the ML prediction result.
type Prediction struct {
	Symbol     string   `json:"symbol"`
	Horizon    int      `json:"horizon"`
	Predicted  float64  `json:"predicted_price"`
	Confidence float64  `json:"confidence"`
	Model      string   `json:"model"`
	AsOf       WireTime `json:"as_of"`
}

// Requirements describes how much history a prediction needs.
type Requirements struct {
	Symbol        string `json:"symbol"`
	Horizon       int    `json:"horizon"`
	RequiredDays  int    `json:"required_days"`
	AvailableDays int    `json:"available_days"`
	Satisfied     bool   `json:"satisfied"`
}

// NewsItem is one scored headline from the news-sentiment endpoint.
type NewsItem struct {
	Title     string   `json:"title"`
	Source    string   `json:"source"`
	URL       string   `json:"url"`
	Sentiment float64  `json:"sentiment"`
	Summary   string   `json:"summary"`
	Published WireTime `json:"published_at"`
}

// LoginResponse is returned by login, signup and refresh-token.
type LoginResponse struct {
	ID             UserID   `json:"id"`
	Username       string   `json:"username"`
	Name           string   `json:"name"`
	Email          string   `json:"email"`
	IsAdmin        bool     `json:"is_admin"`
	Token          string   `json:"token"`
	Access         string   `json:"access"`
	TokenExpiresAt WireTime `json:"token_expires_at"`
}

// BearerToken returns whichever token field the backend populated.
func (r LoginResponse) BearerToken() string {
	if r.Token != "" {
		return r.Token
	}
	return r.Access
}

// SendMessageResponse is the server's confirmation of a sent message.
type SendMessageResponse struct {
	ID        MessageID `json:"id"`
	Timestamp WireTime  `json:"timestamp"`
	Seen      bool      `json:"seen"`
}
