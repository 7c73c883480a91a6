package utils

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

func TestSessionTokenRoundTrip(t *testing.T) {
	st, err := NewSessionToken(testSecret, 42, 90)
	require.NoError(t, err)
	require.NotEmpty(t, st.Token)

	userID, issuedAt, err := ParseSessionToken(testSecret, st.Token)
	require.NoError(t, err)
	assert.Equal(t, uint64(42), userID)
	assert.WithinDuration(t, time.Now().UTC(), issuedAt, 5*time.Second)
	assert.WithinDuration(t, time.Now().UTC().Add(90*24*time.Hour), st.Exp, 5*time.Second)
}

func TestSessionTokenWrongSecret(t *testing.T) {
	st, err := NewSessionToken(testSecret, 1, 1)
	require.NoError(t, err)

	_, _, err = ParseSessionToken("another-secret", st.Token)
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestSessionTokenExpired(t *testing.T) {
	// Sign a token whose exp is already in the past.
	now := time.Now().UTC().Add(-2 * time.Hour)
	claims := jwt.MapClaims{
		"sub": uint64(7),
		"iat": now.Unix(),
		"exp": now.Add(time.Hour).Unix(),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)

	_, _, err = ParseSessionToken(testSecret, signed)
	assert.ErrorIs(t, err, ErrTokenExpired)
}

func TestSessionTokenGarbage(t *testing.T) {
	_, _, err := ParseSessionToken(testSecret, "not-a-jwt")
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestResetToken(t *testing.T) {
	rt, err := NewResetToken()
	require.NoError(t, err)
	assert.Len(t, rt.Raw, 64)
	assert.WithinDuration(t, time.Now().UTC().Add(ResetTokenTTL), rt.Exp, 5*time.Second)

	// Hash is deterministic and never equal to the raw token.
	assert.Equal(t, HashResetRaw(rt.Raw), HashResetRaw(rt.Raw))
	assert.NotEqual(t, rt.Raw, HashResetRaw(rt.Raw))

	other, err := NewResetToken()
	require.NoError(t, err)
	assert.NotEqual(t, rt.Raw, other.Raw)
}
