package session

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sign(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("backend-secret"))
	require.NoError(t, err)
	return tok
}

func TestFromTokenReadsClaims(t *testing.T) {
	exp := time.Date(2026, 10, 20, 0, 0, 0, 0, time.UTC)
	tok := sign(t, jwt.MapClaims{"userId": "u-42", "role": "VIEWER", "exp": exp.Unix()})

	s, err := FromToken(tok, "")
	require.NoError(t, err)
	assert.Equal(t, "u-42", s.UserID())
	assert.Equal(t, tok, s.Token())
	assert.Equal(t, "VIEWER", s.Role())
	assert.False(t, s.Expired(exp.Add(-time.Minute)))
	assert.True(t, s.Expired(exp))
}

func TestFromTokenClaimFallbacks(t *testing.T) {
	s, err := FromToken(sign(t, jwt.MapClaims{"user_id": float64(7)}), "")
	require.NoError(t, err)
	assert.Equal(t, "7", s.UserID())

	s, err = FromToken(sign(t, jwt.MapClaims{"sub": "abc"}), "")
	require.NoError(t, err)
	assert.Equal(t, "abc", s.UserID())
	assert.False(t, s.Expired(time.Now().Add(100*365*24*time.Hour)))
}

func TestFromTokenRejectsGarbage(t *testing.T) {
	_, err := FromToken("not-a-jwt", "")
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = FromToken("", "u1")
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = FromToken(sign(t, jwt.MapClaims{"role": "admin"}), "")
	assert.ErrorIs(t, err, ErrInvalidToken)

	// an opaque token is fine when the caller knows the user
	s, err := FromToken("opaque", "u1")
	require.NoError(t, err)
	assert.Equal(t, "u1", s.UserID())
}

func TestFromTokenClaimBeatsHeader(t *testing.T) {
	tok := sign(t, jwt.MapClaims{"userId": "u1"})

	s, err := FromToken(tok, "u1")
	require.NoError(t, err)
	assert.Equal(t, "u1", s.UserID())

	_, err = FromToken(tok, "u2")
	assert.ErrorIs(t, err, ErrUserMismatch)

	// no claim to check against, the header is all we have
	s, err = FromToken(sign(t, jwt.MapClaims{"role": "admin"}), "u2")
	require.NoError(t, err)
	assert.Equal(t, "u2", s.UserID())
}

func TestClear(t *testing.T) {
	s := New("tok", "u1", time.Time{})
	assert.True(t, s.Active())
	s.Clear()
	assert.False(t, s.Active())
	assert.Equal(t, "u1", s.UserID())
	assert.True(t, s.Expired(time.Now()))
}
