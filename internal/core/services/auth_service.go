package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	portssvc "github.com/wekesadev/pos_payments_backend/internal/core/ports/services"
	"github.com/wekesadev/pos_payments_backend/internal/middleware"
	"github.com/wekesadev/pos_payments_backend/internal/utils"
)

var ErrInvalidCredentials = errors.New("invalid terminal credentials")

// authService authenticates POS terminals against their provisioned bcrypt
// secret hashes and issues session JWTs.
type authService struct {
	terminalSecrets map[string]string // terminal id -> bcrypt hash
	jwtSecret       string
	jwtDuration     time.Duration
	jwtIssuer       string
}

// NewAuthService creates a new AuthService.
func NewAuthService(terminalSecrets map[string]string, jwtSecret string, jwtDuration time.Duration, jwtIssuer string) portssvc.AuthSvcFacade {
	return &authService{
		terminalSecrets: terminalSecrets,
		jwtSecret:       jwtSecret,
		jwtDuration:     jwtDuration,
		jwtIssuer:       jwtIssuer,
	}
}

var _ portssvc.AuthSvcFacade = (*authService)(nil)

// LoginTerminal verifies the terminal's secret and returns a signed JWT whose
// subject is the terminal id.
func (s *authService) LoginTerminal(ctx context.Context, terminalID, secret string) (string, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	hash, ok := s.terminalSecrets[terminalID]
	if !ok || !utils.CheckSecretHash(secret, hash) {
		logger.Warn("Terminal login rejected", "terminal_id", terminalID)
		return "", ErrInvalidCredentials
	}

	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   terminalID,
		Issuer:    s.jwtIssuer,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.jwtDuration)),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.jwtSecret))
	if err != nil {
		return "", fmt.Errorf("failed to sign terminal token: %w", err)
	}
	return signed, nil
}
