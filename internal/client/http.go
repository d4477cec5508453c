package client

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"
)

// HTTPClient makes REST calls to the FinSim backend.
type HTTPClient struct {
	baseURL string
	client  *http.Client

	mu    sync.RWMutex
	token string
}

// NewHTTPClient creates a client targeting the given base URL
// (e.g. "http://127.0.0.1:8002").
func NewHTTPClient(baseURL, token string) *HTTPClient {
	return &HTTPClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		client:  &http.Client{Timeout: 10 * time.Second},
	}
}

// SetToken swaps the bearer token after a login or refresh.
func (c *HTTPClient) SetToken(token string) {
	c.mu.Lock()
	c.token = token
	c.mu.Unlock()
}

// --- auth ---

// Login exchanges credentials for a token.
func (c *HTTPClient) Login(username, password string) (*LoginResponse, error) {
	var out LoginResponse
	body := map[string]string{"username": username, "password": password}
	if err := c.post("/api/login/", body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Signup registers a new account. Name is optional.
func (c *HTTPClient) Signup(username, email, password, name string) (*LoginResponse, error) {
	var out LoginResponse
	body := map[string]string{"username": username, "email": email, "password": password}
	if name != "" {
		body["name"] = name
	}
	if err := c.post("/api/signup/", body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Logout tells the server to flip is_online off and invalidate the token.
func (c *HTTPClient) Logout() error {
	return c.post("/api/logout/", nil, nil)
}

// RefreshToken trades the current token for a fresh one.
func (c *HTTPClient) RefreshToken() (*LoginResponse, error) {
	var out LoginResponse
	if err := c.post("/api/refresh-token/", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// --- users ---

// Users fetches the full user list.
func (c *HTTPClient) Users() ([]User, error) {
	var out []User
	if err := c.get("/api/users/", &out); err != nil {
		return nil, err
	}
	return out, nil
}

// UserDetail fetches a single user, including is_online and last_seen.
func (c *HTTPClient) UserDetail(id UserID) (*User, error) {
	var out User
	if err := c.get(fmt.Sprintf("/api/users/%d/", id), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// OnlineUsers fetches the presence roster snapshot. Entries may be user
// objects or bare identifiers; each is returned as its own alias group.
func (c *HTTPClient) OnlineUsers() ([][]string, error) {
	var raw []json.RawMessage
	if err := c.get("/api/users/online/", &raw); err != nil {
		return nil, err
	}
	groups := make([][]string, 0, len(raw))
	for _, entry := range raw {
		if ids := identifiersFromRaw(entry); len(ids) > 0 {
			groups = append(groups, ids)
		}
	}
	return groups, nil
}

// --- friends ---

// MyFriends fetches the accepted friends of the given user.
func (c *HTTPClient) MyFriends(userID UserID) ([]User, error) {
	var entries []friendEntry
	path := fmt.Sprintf("/api/friend-requests/my_friends/?user_id=%d", userID)
	if err := c.get(path, &entries); err != nil {
		return nil, err
	}
	friends := make([]User, 0, len(entries))
	for _, e := range entries {
		if e.User.ID != 0 {
			friends = append(friends, e.User)
		}
	}
	return friends, nil
}

// SendFriendRequest creates a friend request to the given user.
func (c *HTTPClient) SendFriendRequest(toUser UserID) error {
	return c.post("/api/friend-requests/", map[string]UserID{"receiver": toUser}, nil)
}

// IncomingRequests lists pending requests addressed to the user.
func (c *HTTPClient) IncomingRequests(userID UserID) ([]FriendRequest, error) {
	var out []FriendRequest
	path := fmt.Sprintf("/api/friend-requests/incoming/?user_id=%d", userID)
	if err := c.get(path, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ApproveRequest accepts a friend request.
func (c *HTTPClient) ApproveRequest(id int64) error {
	return c.post(fmt.Sprintf("/api/friend-requests/%d/approve/", id), nil, nil)
}

// RejectRequest declines a friend request.
func (c *HTTPClient) RejectRequest(id int64) error {
	return c.post(fmt.Sprintf("/api/friend-requests/%d/reject/", id), nil, nil)
}

// Notifications fetches friend-request notifications plus the pending
// count. When the backend returns only a count, the incoming list is
// fetched as a fallback so the overlay still has rows to show.
func (c *HTTPClient) Notifications(userID UserID) ([]Notification, int, error) {
	var list notificationList
	path := fmt.Sprintf("/api/friend-requests/notifications/?user_id=%d", userID)
	if err := c.get(path, &list); err != nil {
		return nil, 0, err
	}
	pending := list.PendingCount
	if !list.HasCountField {
		for _, n := range list.Results {
			if n.Type == "friend_request" && n.Status == "pending" && n.ReceiverID == userID {
				pending++
			}
		}
	}
	return list.Results, pending, nil
}

// MarkNotificationRead marks one notification read.
func (c *HTTPClient) MarkNotificationRead(id int64, userID UserID) error {
	path := fmt.Sprintf("/api/friend-requests/notifications/%d/mark-read/?user_id=%d", id, userID)
	return c.post(path, nil, nil)
}

// MarkAllNotificationsRead marks every notification read.
func (c *HTTPClient) MarkAllNotificationsRead(userID UserID) error {
	path := fmt.Sprintf("/api/friend-requests/notifications/mark-all-read/?user_id=%d", userID)
	return c.post(path, nil, nil)
}

// DeleteNotification removes a notification.
func (c *HTTPClient) DeleteNotification(id int64, userID UserID) error {
	path := fmt.Sprintf("/api/friend-requests/notifications/%d/delete/?user_id=%d", id, userID)
	return c.del(path)
}

// --- messages ---

// Messages fetches the conversation with one friend.
func (c *HTTPClient) Messages(friendID UserID) ([]Message, error) {
	var out []Message
	if err := c.get(fmt.Sprintf("/api/messages/?friend_id=%d", friendID), &out); err != nil {
		return nil, err
	}
	return out, nil
}

// UnreadMessages fetches every unseen message addressed to the caller.
func (c *HTTPClient) UnreadMessages() ([]Message, error) {
	var out []Message
	if err := c.get("/api/messages/?unread=true", &out); err != nil {
		return nil, err
	}
	return out, nil
}

// SendMessage posts a new message. The receiver id is repeated under the
// aliases different backend versions have expected.
func (c *HTTPClient) SendMessage(friendID UserID, content string) (*SendMessageResponse, error) {
	body := map[string]interface{}{
		"to_user":    friendID,
		"to_user_id": friendID,
		"receiver":   friendID,
		"content":    content,
	}
	var out SendMessageResponse
	if err := c.post("/api/messages/", body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// MarkConversationSeen flags all messages from the friend as seen.
func (c *HTTPClient) MarkConversationSeen(friendID UserID) error {
	body := map[string]UserID{"friend_id": friendID}
	return c.post("/api/messages/mark_conversation_as_seen/", body, nil)
}

// --- simulations ---

// Simulations lists the user's stored simulation runs.
func (c *HTTPClient) Simulations() ([]Simulation, error) {
	var out []Simulation
	if err := c.get("/api/simulations/", &out); err != nil {
		return nil, err
	}
	return out, nil
}

// CreateSimulation starts a new simulation run.
func (c *HTTPClient) CreateSimulation(symbol string, days int, startCash float64) (*Simulation, error) {
	body := map[string]interface{}{"symbol": symbol, "days": days, "start_cash": startCash}
	var out Simulation
	if err := c.post("/api/simulations/", body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// DeleteSimulation removes a simulation run.
func (c *HTTPClient) DeleteSimulation(id int64) error {
	return c.del(fmt.Sprintf("/api/simulations/%d/", id))
}

// SimulationChart fetches the chart series for a simulation.
func (c *HTTPClient) SimulationChart(id int64) ([]ChartPoint, error) {
	var out []ChartPoint
	if err := c.get(fmt.Sprintf("/api/simulations/%d/chart", id), &out); err != nil {
		return nil, err
	}
	return out, nil
}

// --- coin game ---

// Wallet fetches the coin wallet balance.
func (c *HTTPClient) Wallet() (*Wallet, error) {
	var out Wallet
	if err := c.get("/api/coin/wallet/", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Invest places a coin investment.
func (c *HTTPClient) Invest(symbol string, amount float64) (*Position, error) {
	body := map[string]interface{}{"symbol": symbol, "amount": amount}
	var out Position
	if err := c.post("/api/coin/invest/", body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Positions lists open positions.
func (c *HTTPClient) Positions() ([]Position, error) {
	var out []Position
	if err := c.get("/api/coin/positions/", &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ClosePosition closes one position and settles it into the wallet.
func (c *HTTPClient) ClosePosition(id int64) (*Position, error) {
	var out Position
	if err := c.post(fmt.Sprintf("/api/coin/positions/%d/close/", id), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// --- ML ---

// MLHistory fetches ingested OHLC history for a symbol.
func (c *HTTPClient) MLHistory(symbol string, limit int) ([]Candle, error) {
	var out []Candle
	path := fmt.Sprintf("/api/ml/history/?symbol=%s&limit=%d", url.QueryEscape(symbol), limit)
	if err := c.get(path, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// MLIngest asks the backend to pull historical data for a symbol.
func (c *HTTPClient) MLIngest(symbol string, days int) error {
	body := map[string]interface{}{"symbol": symbol, "days": days}
	return c.post("/api/ml/ingest/", body, nil)
}

// MLPredict requests a prediction. A NOT_ENOUGH_HISTORY rejection comes
// back as ErrNotEnoughHistory so views can render it specifically.
func (c *HTTPClient) MLPredict(symbol string, horizon int) (*Prediction, error) {
	body := map[string]interface{}{"symbol": symbol, "horizon": horizon}
	var out Prediction
	if err := c.post("/api/ml/predict/", body, &out); err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) && strings.Contains(apiErr.Body, "NOT_ENOUGH_HISTORY") {
			return nil, ErrNotEnoughHistory
		}
		return nil, err
	}
	return &out, nil
}

// MLRequirements reports how much history a prediction would need.
func (c *HTTPClient) MLRequirements(symbol string, horizon int) (*Requirements, error) {
	var out Requirements
	path := fmt.Sprintf("/api/ml/predict/requirements?symbol=%s&horizon=%d", url.QueryEscape(symbol), horizon)
	if err := c.get(path, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// --- news ---

// NewsSentiment fetches scored headlines.
func (c *HTTPClient) NewsSentiment() ([]NewsItem, error) {
	var out []NewsItem
	if err := c.get("/api/news/sentiment/", &out); err != nil {
		return nil, err
	}
	return out, nil
}

// --- plumbing ---

func (c *HTTPClient) get(path string, out interface{}) error {
	return c.do(http.MethodGet, path, nil, out)
}

func (c *HTTPClient) post(path string, body, out interface{}) error {
	return c.do(http.MethodPost, path, body, out)
}

func (c *HTTPClient) del(path string) error {
	return c.do(http.MethodDelete, path, nil, nil)
}

func (c *HTTPClient) do(method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	c.setAuth(req)

	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		return ErrUnauthorized
	}
	if resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(resp.Body)
		return &APIError{Method: method, Path: path, Status: resp.StatusCode, Body: string(respBody)}
	}
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil && err != io.EOF {
			return err
		}
	}
	return nil
}

func (c *HTTPClient) setAuth(req *http.Request) {
	c.mu.RLock()
	token := c.token
	c.mu.RUnlock()
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
}

// identifiersFromRaw extracts every alias carried by one roster entry.
func identifiersFromRaw(data []byte) []string {
	var obj struct {
		ID       json.RawMessage `json:"id"`
		UserID   json.RawMessage `json:"userId"`
		Username string          `json:"username"`
		User     string          `json:"user"`
		Name     string          `json:"name"`
	}
	if err := json.Unmarshal(data, &obj); err == nil {
		var ids []string
		if uid := normalizeUserID(obj.ID); uid != 0 {
			ids = append(ids, uid.String())
		}
		if uid := normalizeUserID(obj.UserID); uid != 0 {
			ids = append(ids, uid.String())
		}
		for _, s := range []string{obj.Username, obj.User, obj.Name} {
			if s != "" {
				ids = append(ids, s)
			}
		}
		if len(ids) > 0 {
			return ids
		}
	}

	// Scalar entry: a bare id or username.
	var n json.Number
	if err := json.Unmarshal(data, &n); err == nil {
		return []string{n.String()}
	}
	var s string
	if err := json.Unmarshal(data, &s); err == nil && s != "" {
		return []string{s}
	}
	return nil
}
