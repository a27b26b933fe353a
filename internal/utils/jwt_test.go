package utils

import (
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

func TestAccessTokenRoundTrip(t *testing.T) {
	access, err := NewAccessToken("secret", 7, "ana@example.com", "Ana", true, 15)
	require.NoError(t, err)
	require.NotEmpty(t, access.Token)

	tok, err := jwt.Parse(access.Token, func(tk *jwt.Token) (interface{}, error) {
		return []byte("secret"), nil
	})
	require.NoError(t, err)
	require.True(t, tok.Valid)

	claims := tok.Claims.(jwt.MapClaims)
	require.EqualValues(t, 7, claims["sub"])
	require.Equal(t, "ana@example.com", claims["email"])
	require.Equal(t, "Ana", claims["name"])
	require.Equal(t, true, claims["verified"])
}

func TestAccessTokenRejectsWrongSecret(t *testing.T) {
	access, err := NewAccessToken("secret", 7, "ana@example.com", "Ana", true, 15)
	require.NoError(t, err)

	_, err = jwt.Parse(access.Token, func(tk *jwt.Token) (interface{}, error) {
		return []byte("other"), nil
	})
	require.Error(t, err)
}

func TestRefreshTokenHashing(t *testing.T) {
	r1, err := NewRefreshToken(7)
	require.NoError(t, err)
	r2, err := NewRefreshToken(7)
	require.NoError(t, err)

	require.Len(t, r1.Raw, 96)
	require.NotEqual(t, r1.Raw, r2.Raw)

	// Hashing is deterministic and never echoes the raw token.
	require.Equal(t, HashRefreshRaw(r1.Raw), HashRefreshRaw(r1.Raw))
	require.NotEqual(t, r1.Raw, HashRefreshRaw(r1.Raw))
	require.Len(t, HashRefreshRaw(r1.Raw), 64)
}
