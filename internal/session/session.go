// Package session owns the single session token slot.
package session

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/nhle/todo-client/internal/credential"
)

// DefaultKey is the storage key the token lives under.
const DefaultKey = "token"

// Session reads and writes the session token through a credential.Store.
// The token is never cached: every Token call reads the store, so a token
// rotated by another writer takes effect on the next request.
type Session struct {
	store credential.Store
	key   string
	now   func() time.Time
}

// New creates a Session over store. An empty key selects DefaultKey.
func New(store credential.Store, key string) *Session {
	if key == "" {
		key = DefaultKey
	}
	return &Session{store: store, key: key, now: time.Now}
}

// Token returns the stored token, or "" when none is stored or the store
// cannot be read.
func (s *Session) Token() string {
	token, err := s.store.Get(s.key)
	if err != nil {
		if !errors.Is(err, credential.ErrNotFound) {
			slog.Warn("reading session token", "error", err)
		}
		return ""
	}
	return token
}

// SetToken stores token, replacing any previous one.
func (s *Session) SetToken(token string) error {
	token = stripBearer(strings.TrimSpace(token))
	if token == "" {
		return fmt.Errorf("empty session token")
	}
	if err := s.store.Set(s.key, token); err != nil {
		return fmt.Errorf("storing session token: %w", err)
	}
	return nil
}

// ClearToken removes the stored token.
func (s *Session) ClearToken() error {
	if err := s.store.Remove(s.key); err != nil {
		return fmt.Errorf("clearing session token: %w", err)
	}
	return nil
}

// Expired reports whether token is a JWT whose exp claim has passed.
// Opaque tokens never expire client-side.
func (s *Session) Expired(token string) bool {
	if token == "" {
		return false
	}

	claims := jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		return false
	}
	if claims.ExpiresAt == nil {
		return false
	}
	return !s.now().Before(claims.ExpiresAt.Time)
}

// Active reports whether a non-expired token is stored.
func (s *Session) Active() bool {
	token := s.Token()
	return token != "" && !s.Expired(token)
}

func stripBearer(s string) string {
	if strings.HasPrefix(strings.ToLower(s), "bearer ") {
		return strings.TrimSpace(s[7:])
	}
	return s
}
