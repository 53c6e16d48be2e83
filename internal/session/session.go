// Package session 保存当前登录用户的 bearer token。
package session

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrInvalidToken = errors.New("session: invalid token")
	ErrUserMismatch = errors.New("session: user id does not match token")
)

// Session is the explicit replacement for a token kept in global storage.
// Set on login, Clear on logout or on a 401 from the backend.
type Session struct {
	mu        sync.RWMutex
	token     string
	userID    string
	role      string
	expiresAt time.Time
}

func New(token, userID string, expiresAt time.Time) *Session {
	s := &Session{}
	s.Set(token, userID, expiresAt)
	return s
}

func (s *Session) Set(token, userID string, expiresAt time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = token
	s.userID = userID
	s.expiresAt = expiresAt
}

func (s *Session) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = ""
	s.expiresAt = time.Time{}
}

func (s *Session) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

func (s *Session) UserID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.userID
}

// Role is the role claim of the token, empty when it carried none.
func (s *Session) Role() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.role
}

func (s *Session) SetRole(role string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.role = role
}

func (s *Session) ExpiresAt() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.expiresAt
}

// Active reports whether a token is present.
func (s *Session) Active() bool {
	return s.Token() != ""
}

// Expired 没有 exp claim 的 token 视为永不过期
func (s *Session) Expired(now time.Time) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.token == "" {
		return true
	}
	return !s.expiresAt.IsZero() && !now.Before(s.expiresAt)
}

// Claims holds what we read from the token. The signature is not checked
// here; the backend verifies it on every call.
type Claims struct {
	UserID    string
	Role      string
	ExpiresAt time.Time
}

// ParseClaims reads userId, user_id or sub from an unverified JWT.
func ParseClaims(token string) (Claims, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return Claims{}, ErrInvalidToken
	}

	parsed, _, err := jwt.NewParser().ParseUnverified(token, jwt.MapClaims{})
	if err != nil {
		return Claims{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	mc, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return Claims{}, ErrInvalidToken
	}

	var c Claims
	for _, key := range []string{"userId", "user_id", "sub"} {
		if id := claimString(mc[key]); id != "" {
			c.UserID = id
			break
		}
	}
	c.Role = claimString(mc["role"])
	if exp, err := mc.GetExpirationTime(); err == nil && exp != nil {
		c.ExpiresAt = exp.Time
	}
	return c, nil
}

func claimString(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case float64:
		return fmt.Sprintf("%.0f", x)
	case nil:
		return ""
	}
	return fmt.Sprint(v)
}

// FromToken builds a session from a bearer token. When the token carries a
// user id claim that id wins, and a different userID is rejected with
// ErrUserMismatch. userID is only used for tokens without one (opaque tokens
// or JWTs lacking the claim).
func FromToken(token, userID string) (*Session, error) {
	claims, err := ParseClaims(token)
	if err != nil {
		if userID == "" || strings.TrimSpace(token) == "" {
			return nil, err
		}
		return New(token, userID, time.Time{}), nil
	}
	switch {
	case claims.UserID == "" && userID == "":
		return nil, fmt.Errorf("%w: no user id claim", ErrInvalidToken)
	case claims.UserID == "":
	case userID != "" && userID != claims.UserID:
		return nil, ErrUserMismatch
	default:
		userID = claims.UserID
	}
	s := New(token, userID, claims.ExpiresAt)
	s.SetRole(claims.Role)
	return s, nil
}
