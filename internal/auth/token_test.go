package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenManager_GenerateAndValidate(t *testing.T) {
	tm := NewTokenManager("unit-test-secret-32-characters!!", 15*time.Minute, 7*24*time.Hour)

	tokenString, err := tm.GenerateAccessToken("user-1", "user")
	require.NoError(t, err)

	claims, err := tm.ValidateToken(tokenString)
	require.NoError(t, err)
	assert.Equal(t, "access", claims.Type)
	assert.Equal(t, "user-1", claims.UserID)
	assert.Equal(t, "user", claims.Role)
	assert.NotEmpty(t, claims.ID)
}

func TestTokenManager_RefreshTokenType(t *testing.T) {
	tm := NewTokenManager("unit-test-secret-32-characters!!", 15*time.Minute, 7*24*time.Hour)

	tokenString, err := tm.GenerateRefreshToken("user-1", "user")
	require.NoError(t, err)

	claims, err := tm.ValidateToken(tokenString)
	require.NoError(t, err)
	assert.Equal(t, "refresh", claims.Type)
}

func TestTokenManager_RejectsWrongSecret(t *testing.T) {
	tm := NewTokenManager("unit-test-secret-32-characters!!", 15*time.Minute, time.Hour)
	other := NewTokenManager("a-different-secret-32-characters", 15*time.Minute, time.Hour)

	tokenString, err := tm.GenerateAccessToken("user-1", "user")
	require.NoError(t, err)

	_, err = other.ValidateToken(tokenString)
	assert.Error(t, err)
}

func TestTokenManager_RejectsExpired(t *testing.T) {
	tm := NewTokenManager("unit-test-secret-32-characters!!", -time.Minute, time.Hour)

	tokenString, err := tm.GenerateAccessToken("user-1", "user")
	require.NoError(t, err)

	_, err = tm.ValidateToken(tokenString)
	assert.Error(t, err)
}

func TestTokenManager_RejectsGarbage(t *testing.T) {
	tm := NewTokenManager("unit-test-secret-32-characters!!", 15*time.Minute, time.Hour)

	_, err := tm.ValidateToken("not-a-jwt")
	assert.Error(t, err)
}
