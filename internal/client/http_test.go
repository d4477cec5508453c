package client

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/pkg/errors"
)

func TestDoMapsUnauthorized(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	c := NewHTTPClient(srv.URL, "stale")
	_, err := c.Wallet()
	if !errors.Is(err, ErrUnauthorized) {
		t.Errorf("err = %v, want ErrUnauthorized", err)
	}
}

func TestDoWrapsAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error": "bad symbol"}`))
	}))
	defer srv.Close()

	c := NewHTTPClient(srv.URL, "tok")
	_, err := c.Wallet()
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("err = %v, want *APIError", err)
	}
	if apiErr.Status != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", apiErr.Status)
	}
}

func TestPredictNotEnoughHistory(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		w.Write([]byte(`{"code": "NOT_ENOUGH_HISTORY", "detail": "need 90 days"}`))
	}))
	defer srv.Close()

	c := NewHTTPClient(srv.URL, "tok")
	_, err := c.MLPredict("BTC", 7)
	if !errors.Is(err, ErrNotEnoughHistory) {
		t.Errorf("err = %v, want ErrNotEnoughHistory", err)
	}
}

func TestAuthHeader(t *testing.T) {
	var got string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Get("Authorization")
		w.Write([]byte(`{"balance": 1}`))
	}))
	defer srv.Close()

	c := NewHTTPClient(srv.URL, "")
	if _, err := c.Wallet(); err != nil {
		t.Fatalf("Wallet: %v", err)
	}
	if got != "" {
		t.Errorf("unauthenticated request carried %q", got)
	}

	c.SetToken("tok")
	if _, err := c.Wallet(); err != nil {
		t.Fatalf("Wallet: %v", err)
	}
	if got != "Bearer tok" {
		t.Errorf("Authorization = %q, want Bearer tok", got)
	}
}

func TestOnlineUsersAliasGroups(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[{"id": 1, "username": "alice"}, 2, "bob"]`))
	}))
	defer srv.Close()

	c := NewHTTPClient(srv.URL, "tok")
	groups, err := c.OnlineUsers()
	if err != nil {
		t.Fatalf("OnlineUsers: %v", err)
	}
	if len(groups) != 3 {
		t.Fatalf("groups = %v, want 3 entries", groups)
	}
	if len(groups[0]) != 2 || groups[0][0] != "1" || groups[0][1] != "alice" {
		t.Errorf("object entry = %v", groups[0])
	}
	if groups[1][0] != "2" || groups[2][0] != "bob" {
		t.Errorf("scalar entries = %v %v", groups[1], groups[2])
	}
}

func TestNotificationsShapes(t *testing.T) {
	payload := `{"notifications": [{"id": 1, "message": "hi"}], "pending_count": 3}`
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(payload))
	}))
	defer srv.Close()

	c := NewHTTPClient(srv.URL, "tok")
	items, pending, err := c.Notifications(9)
	if err != nil {
		t.Fatalf("Notifications: %v", err)
	}
	if len(items) != 1 || items[0].ID != 1 {
		t.Errorf("items = %+v", items)
	}
	if pending != 3 {
		t.Errorf("pending = %d, want 3", pending)
	}
}

func TestMyFriendsUnwraps(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[{"friend": {"id": 2, "username": "bob"}}, {"id": 3, "username": "carol"}]`))
	}))
	defer srv.Close()

	c := NewHTTPClient(srv.URL, "tok")
	friends, err := c.MyFriends(1)
	if err != nil {
		t.Fatalf("MyFriends: %v", err)
	}
	if len(friends) != 2 || friends[0].ID != 2 || friends[1].ID != 3 {
		t.Errorf("friends = %+v", friends)
	}
}

func TestEmptyBodyTolerated(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := NewHTTPClient(srv.URL, "tok")
	if _, err := c.Wallet(); err != nil {
		t.Errorf("empty 200 body should decode to zero value, got %v", err)
	}
}
