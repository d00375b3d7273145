package auth

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"
)

const (
	// SessionTokenBytes is the entropy of a session token. 32 bytes encode
	// to 64 hex characters.
	SessionTokenBytes = 32

	// DefaultSessionDays is the default session lifetime.
	DefaultSessionDays = 7
)

// GenerateToken returns a new opaque session token: 256 bits from the
// system CSPRNG, hex encoded. Uniqueness is probabilistic; the store's
// unique index on the token column is the backstop.
func GenerateToken() (string, error) {
	buf := make([]byte, SessionTokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate session token: %w", err)
	}
	return hex.EncodeToString(buf), nil
}

// Expiration returns the session expiry for a session issued at now,
// at calendar-day granularity (same time of day, days later).
func Expiration(now time.Time, days int) time.Time {
	return now.AddDate(0, 0, days)
}
