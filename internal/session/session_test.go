package session

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/investerm/investerm/internal/client"
)

func signedToken(t *testing.T, exp time.Time) string {
	t.Helper()
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": 1,
		"exp":     exp.Unix(),
	})
	s, err := tok.SignedString([]byte("test-secret"))
	if err != nil {
		t.Fatalf("signing token: %v", err)
	}
	return s
}

func TestFromLoginExpiryFromClaim(t *testing.T) {
	exp := time.Now().Add(time.Hour).Truncate(time.Second)
	s := FromLogin(&client.LoginResponse{
		ID:       1,
		Username: "alice",
		Token:    signedToken(t, exp),
	})
	if !s.ExpiresAt.Equal(exp) {
		t.Errorf("ExpiresAt = %v, want %v", s.ExpiresAt, exp)
	}
}

func TestFromLoginServerExpiryWins(t *testing.T) {
	claimExp := time.Now().Add(time.Hour)
	serverExp := time.Now().Add(2 * time.Hour).Truncate(time.Second)
	s := FromLogin(&client.LoginResponse{
		ID:             1,
		Token:          signedToken(t, claimExp),
		TokenExpiresAt: client.WireTime{Time: serverExp},
	})
	if !s.ExpiresAt.Equal(serverExp) {
		t.Errorf("ExpiresAt = %v, want server value %v", s.ExpiresAt, serverExp)
	}
}

func TestFromLoginOpaqueTokenGetsDefaultTTL(t *testing.T) {
	s := FromLogin(&client.LoginResponse{ID: 1, Token: "not-a-jwt"})
	if s.ExpiresAt.IsZero() {
		t.Error("opaque token should still get an expiry")
	}
	if time.Until(s.ExpiresAt) > defaultTokenTTL+time.Minute {
		t.Errorf("default TTL too long: %v", time.Until(s.ExpiresAt))
	}
}

func TestExpiredAndRefreshIn(t *testing.T) {
	now := time.Now()
	s := &Session{Token: "x", ExpiresAt: now.Add(10 * time.Minute)}

	if s.Expired(now) {
		t.Error("session expired ahead of its expiry")
	}
	if !s.Expired(now.Add(11 * time.Minute)) {
		t.Error("session not expired past its expiry")
	}
	if got := s.RefreshIn(now); got != 5*time.Minute {
		t.Errorf("RefreshIn = %v, want 5m", got)
	}
	if got := s.RefreshIn(now.Add(8 * time.Minute)); got > 0 {
		t.Errorf("RefreshIn inside the lead window should be due, got %v", got)
	}
}

func TestStoreRoundTrip(t *testing.T) {
	st := NewStore(t.TempDir())
	want := &Session{
		User:      client.User{ID: 7, Username: "alice"},
		Token:     "tok",
		ExpiresAt: time.Now().Add(time.Hour).UTC().Truncate(time.Second),
	}
	if err := st.Save(want); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, err := st.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got == nil {
		t.Fatal("Load returned nil for a valid saved session")
	}
	if got.User.ID != want.User.ID || got.Token != want.Token {
		t.Errorf("Load = %+v, want %+v", got, want)
	}
}

func TestStoreLoadMissing(t *testing.T) {
	st := NewStore(t.TempDir())
	got, err := st.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got != nil {
		t.Errorf("Load = %+v, want nil for missing file", got)
	}
}

func TestStoreLoadExpiredClears(t *testing.T) {
	dir := t.TempDir()
	st := NewStore(dir)
	stale := &Session{
		User:      client.User{ID: 7},
		Token:     "tok",
		ExpiresAt: time.Now().Add(-time.Hour),
	}
	if err := st.Save(stale); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, err := st.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got != nil {
		t.Error("expired session should not be restored")
	}
	// The stale file is gone, so the next load is a clean miss.
	if again, _ := st.Load(); again != nil {
		t.Error("stale session file should have been cleared")
	}
}

func TestStoreClear(t *testing.T) {
	st := NewStore(t.TempDir())
	s := &Session{User: client.User{ID: 7}, Token: "tok", ExpiresAt: time.Now().Add(time.Hour)}
	if err := st.Save(s); err != nil {
		t.Fatalf("Save: %v", err)
	}
	st.Clear()
	if got, _ := st.Load(); got != nil {
		t.Error("session survived Clear")
	}
}
