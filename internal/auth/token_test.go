package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nikhil/teamtasks/internal/models"
)

func TestTokenManager(t *testing.T) {
	user := &models.User{ID: 42, Username: "ana", Email: "ana@example.com", Role: models.RoleManager}

	t.Run("round trip", func(t *testing.T) {
		m := NewTokenManager("secret", time.Hour)
		token, err := m.Generate(user)
		require.NoError(t, err)

		claims, err := m.Parse(token)
		require.NoError(t, err)
		assert.Equal(t, int64(42), claims.ID)
		assert.Equal(t, "ana", claims.Username)
		assert.Equal(t, models.RoleManager, claims.Role)
	})

	t.Run("expired", func(t *testing.T) {
		m := NewTokenManager("secret", -time.Minute)
		token, err := m.Generate(user)
		require.NoError(t, err)

		_, err = m.Parse(token)
		assert.ErrorIs(t, err, ErrExpiredToken)
	})

	t.Run("wrong secret", func(t *testing.T) {
		token, err := NewTokenManager("one", time.Hour).Generate(user)
		require.NoError(t, err)

		_, err = NewTokenManager("two", time.Hour).Parse(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("unexpected algorithm", func(t *testing.T) {
		token, err := jwt.NewWithClaims(jwt.SigningMethodNone, &Claims{ID: 1}).SignedString(jwt.UnsafeAllowNoneSignatureType)
		require.NoError(t, err)

		_, err = NewTokenManager("secret", time.Hour).Parse(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := NewTokenManager("secret", time.Hour).Parse("not-a-token")
		assert.ErrorIs(t, err, ErrInvalidToken)
	})
}
