package middleware

import (
	"testing"

	"lms/config"

	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateJWTRoundTrip(t *testing.T) {
	config.AppConfig = &config.Config{JWTKey: "test-secret"}

	tokenString, err := GenerateJWT(42, "Ada", "USER", "ada@example.com")
	require.NoError(t, err)
	require.NotEmpty(t, tokenString)

	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		return []byte(config.AppConfig.JWTKey), nil
	})
	require.NoError(t, err)
	require.True(t, token.Valid)

	claims, ok := token.Claims.(jwt.MapClaims)
	require.True(t, ok)
	assert.EqualValues(t, 42, claims["userId"])
	assert.Equal(t, "USER", claims["role"])
	assert.Equal(t, "ada@example.com", claims["email"])
}

func TestJWTRejectsWrongSecret(t *testing.T) {
	config.AppConfig = &config.Config{JWTKey: "test-secret"}
	tokenString, err := GenerateJWT(42, "Ada", "USER", "ada@example.com")
	require.NoError(t, err)

	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		return []byte("other-secret"), nil
	})
	assert.Error(t, err)
	if token != nil {
		assert.False(t, token.Valid)
	}
}
