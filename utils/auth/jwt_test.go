package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestManager() *JWTManager {
	return NewJWTManager(JWTConfig{
		Secret:        "test-secret",
		Expiry:        time.Hour,
		RefreshExpiry: 24 * time.Hour,
		Issuer:        "codelearn-test",
	})
}

func TestMFATokenIsNotAnAccessToken(t *testing.T) {
	m := newTestManager()

	mfa, err := m.GenerateMFAToken(7, "a@b.c", "student", 0)
	require.NoError(t, err)

	claims, err := m.ValidateMFAToken(mfa)
	require.NoError(t, err)
	assert.Equal(t, uint(7), claims.UserID)
	assert.Equal(t, TokenTypeMFAPending, claims.TokenType)

	access, _, err := m.GenerateAccessToken(7, "a@b.c", "student", 0)
	require.NoError(t, err)
	_, err = m.ValidateMFAToken(access)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestRefreshRejectsStaleTokenVersion(t *testing.T) {
	m := newTestManager()

	refresh, _, err := m.GenerateRefreshToken(1, "a@b.c", "student", 2)
	require.NoError(t, err)

	_, _, err = m.RefreshAccessToken(refresh, 3)
	assert.ErrorIs(t, err, ErrInvalidToken)

	token, _, err := m.RefreshAccessToken(refresh, 2)
	require.NoError(t, err)
	assert.NotEmpty(t, token)
}

func TestValidateTokenWrongSecret(t *testing.T) {
	m := newTestManager()
	token, _, err := m.GenerateAccessToken(1, "a@b.c", "student", 0)
	require.NoError(t, err)

	other := NewJWTManager(JWTConfig{Secret: "different", Expiry: time.Hour})
	_, err = other.ValidateToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}
