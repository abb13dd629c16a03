package auth

import (
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret-at-least-16-chars!!"

func newTestTokenService(t *testing.T) *TokenService {
	t.Helper()
	ts, err := NewTokenService(testSecret)
	require.NoError(t, err)
	return ts
}

func TestNewTokenServiceRejectsShortSecret(t *testing.T) {
	_, err := NewTokenService("short")
	require.Error(t, err)
}

func TestTokenRoundTrip(t *testing.T) {
	ts := newTestTokenService(t)

	token, err := ts.Generate("ana@example.com")
	require.NoError(t, err)
	assert.Equal(t, 2, strings.Count(token, "."))

	email, err := ts.Validate(token)
	require.NoError(t, err)
	assert.Equal(t, "ana@example.com", email)
}

func TestTokenExpiresAfterThirtyMinutes(t *testing.T) {
	ts := newTestTokenService(t)

	token, err := ts.Generate("ana@example.com")
	require.NoError(t, err)

	claims := &jwt.RegisteredClaims{}
	_, _, err = jwt.NewParser().ParseUnverified(token, claims)
	require.NoError(t, err)
	assert.Equal(t, TokenIssuer, claims.Issuer)
	assert.WithinDuration(t, time.Now().Add(30*time.Minute), claims.ExpiresAt.Time, 5*time.Second)
}

func TestValidateRejectsBadTokens(t *testing.T) {
	ts := newTestTokenService(t)

	expired, err := ts.GenerateWithDuration("ana@example.com", -time.Second)
	require.NoError(t, err)
	_, err = ts.Validate(expired)
	require.Error(t, err)

	other, err := NewTokenService("another-secret-of-16-chars")
	require.NoError(t, err)
	foreign, err := other.Generate("ana@example.com")
	require.NoError(t, err)
	_, err = ts.Validate(foreign)
	require.Error(t, err)

	noSubject, err := ts.Generate("")
	require.NoError(t, err)
	_, err = ts.Validate(noSubject)
	require.Error(t, err)

	_, err = ts.Validate("not.a.token")
	require.Error(t, err)
}
