package utils

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"math/big"
)

// GenerateSecureRandomString generates a cryptographically secure random string of the specified byte length,
// then hex encodes it. For example, lengthInBytes=32 will result in a 64-character hex string.
func GenerateSecureRandomString(lengthInBytes int) (string, error) {
	if lengthInBytes <= 0 {
		return "", fmt.Errorf("lengthInBytes must be positive")
	}
	b := make([]byte, lengthInBytes)
	_, err := rand.Read(b)
	if err != nil {
		return "", fmt.Errorf("failed to read random bytes: %w", err)
	}
	return hex.EncodeToString(b), nil
}

// GenerateAuthorizationCode produces an authorization code of the form
// <prefix><6 digits>, e.g. MP736492. The digits come from crypto/rand.
func GenerateAuthorizationCode(prefix string) (string, error) {
	// 100000..999999 keeps the code at exactly six digits
	n, err := rand.Int(rand.Reader, big.NewInt(900000))
	if err != nil {
		return "", fmt.Errorf("failed to generate authorization code: %w", err)
	}
	return fmt.Sprintf("%s%d", prefix, n.Int64()+100000), nil
}
