// Package session holds the authenticated user and bearer token, durable
// across restarts. A restored session is only honored while its token is
// still valid; refresh happens proactively ahead of expiry.
package session

import (
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/investerm/investerm/internal/client"
	"github.com/investerm/investerm/internal/statefile"
)

const (
	sessionFileName = "session.json"

	// refreshLead is how long before expiry the token is refreshed.
	refreshLead = 5 * time.Minute

	// defaultTokenTTL applies when neither the server response nor the
	// token itself carries an expiry.
	defaultTokenTTL = 24 * time.Hour
)

// Session is an authenticated user plus their bearer token.
type Session struct {
	User      client.User `json:"user"`
	Token     string      `json:"token"`
	ExpiresAt time.Time   `json:"token_expires_at"`
}

// FromLogin builds a session from a login, signup or refresh response.
// Expiry preference: server-provided timestamp, then the token's own exp
// claim, then a default TTL.
func FromLogin(resp *client.LoginResponse) *Session {
	s := &Session{
		User: client.User{
			ID:       resp.ID,
			Username: resp.Username,
			Name:     resp.Name,
			Email:    resp.Email,
			IsAdmin:  resp.IsAdmin,
		},
		Token: resp.BearerToken(),
	}
	switch {
	case !resp.TokenExpiresAt.IsZero():
		s.ExpiresAt = resp.TokenExpiresAt.Time
	default:
		if exp, ok := tokenExpiry(s.Token); ok {
			s.ExpiresAt = exp
		} else {
			s.ExpiresAt = time.Now().Add(defaultTokenTTL)
		}
	}
	return s
}

// Expired reports whether the token has passed its expiry.
func (s *Session) Expired(now time.Time) bool {
	return !s.ExpiresAt.IsZero() && !now.Before(s.ExpiresAt)
}

// RefreshIn returns how long until the proactive refresh is due. Zero or
// negative means refresh immediately.
func (s *Session) RefreshIn(now time.Time) time.Duration {
	return s.ExpiresAt.Add(-refreshLead).Sub(now)
}

// tokenExpiry reads the exp claim without verifying the signature; the
// server remains the authority, this only schedules the refresh.
func tokenExpiry(token string) (time.Time, bool) {
	if token == "" {
		return time.Time{}, false
	}
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return time.Time{}, false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}, false
	}
	return exp.Time, true
}

// Store persists the session to disk.
type Store struct {
	path string
}

// NewStore creates a store rooted in the given state directory.
func NewStore(dir string) *Store {
	return &Store{path: filepath.Join(dir, sessionFileName)}
}

// Load restores the saved session. A missing file, a corrupt file, or an
// expired token all yield (nil, nil) with the stale file cleared.
func (st *Store) Load() (*Session, error) {
	var s Session
	if err := statefile.Load(st.path, &s); err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		log.Printf("session: discarding unreadable session: %v", err)
		st.Clear()
		return nil, nil
	}
	if s.Token == "" || s.User.ID == 0 {
		st.Clear()
		return nil, nil
	}
	if s.Expired(time.Now()) {
		st.Clear()
		return nil, nil
	}
	return &s, nil
}

// Save writes the session to disk.
func (st *Store) Save(s *Session) error {
	return statefile.Save(st.path, s)
}

// Clear removes the saved session, if any.
func (st *Store) Clear() {
	if err := statefile.Remove(st.path); err != nil {
		log.Printf("session: clearing session: %v", err)
	}
}
