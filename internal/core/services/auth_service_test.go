package services_test

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wekesadev/pos_payments_backend/internal/core/services"
	"github.com/wekesadev/pos_payments_backend/internal/utils"
)

func TestAuthService_LoginTerminal(t *testing.T) {
	hash, err := utils.HashSecret("till-secret")
	require.NoError(t, err)

	jwtSecret := "test-secret-key-that-is-long-enough"
	service := services.NewAuthService(map[string]string{"till-001": hash}, jwtSecret, time.Hour, "pos-test")

	t.Run("valid credentials issue a token for the terminal", func(t *testing.T) {
		token, err := service.LoginTerminal(context.Background(), "till-001", "till-secret")
		require.NoError(t, err)

		parsed, err := jwt.ParseWithClaims(token, &jwt.RegisteredClaims{}, func(*jwt.Token) (interface{}, error) {
			return []byte(jwtSecret), nil
		})
		require.NoError(t, err)
		claims := parsed.Claims.(*jwt.RegisteredClaims)
		assert.Equal(t, "till-001", claims.Subject)
		assert.Equal(t, "pos-test", claims.Issuer)
	})

	t.Run("wrong secret is rejected", func(t *testing.T) {
		_, err := service.LoginTerminal(context.Background(), "till-001", "wrong")
		assert.ErrorIs(t, err, services.ErrInvalidCredentials)
	})

	t.Run("unknown terminal is rejected", func(t *testing.T) {
		_, err := service.LoginTerminal(context.Background(), "till-999", "till-secret")
		assert.ErrorIs(t, err, services.ErrInvalidCredentials)
	})
}
