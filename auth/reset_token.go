package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"time"

	"github.com/goliatone/go-errors"
)

const (
	// DefaultResetTokenTTL is how long a reset link stays valid
	DefaultResetTokenTTL = 10 * time.Minute
	resetTokenBytes      = 20
)

// ResetToken is the result of ResetTokenManager.Issue. Plain is only ever
// placed in the delivered link.
type ResetToken struct {
	Plain     string
	Hash      string
	ExpiresAt time.Time
}

// ResetTokenManager issues and redeems single use password reset tokens
type ResetTokenManager struct {
	ttl time.Duration
	now func() time.Time
}

func NewResetTokenManager(ttl time.Duration) *ResetTokenManager {
	if ttl <= 0 {
		ttl = DefaultResetTokenTTL
	}
	return &ResetTokenManager{
		ttl: ttl,
		now: time.Now,
	}
}

// WithClock overrides the time source
func (m *ResetTokenManager) WithClock(now func() time.Time) *ResetTokenManager {
	if now != nil {
		m.now = now
	}
	return m
}

func (m *ResetTokenManager) TTL() time.Duration {
	return m.ttl
}

// Now returns the manager's current time
func (m *ResetTokenManager) Now() time.Time {
	return m.now()
}

// Issue generates a random token, its digest and the expiry instant
func (m *ResetTokenManager) Issue() (ResetToken, error) {
	buf := make([]byte, resetTokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return ResetToken{}, errors.Wrap(err, errors.CategoryInternal, "failed to generate reset token")
	}

	plain := hex.EncodeToString(buf)
	return ResetToken{
		Plain:     plain,
		Hash:      HashResetToken(plain),
		ExpiresAt: m.now().Add(m.ttl),
	}, nil
}

// Redeem reports whether presented matches storedHash and has not expired at now.
func (m *ResetTokenManager) Redeem(presented, storedHash string, storedExpiry, now time.Time) bool {
	if presented == "" || storedHash == "" {
		return false
	}

	digest := HashResetToken(presented)
	if subtle.ConstantTimeCompare([]byte(digest), []byte(storedHash)) != 1 {
		return false
	}

	return now.Before(storedExpiry)
}

// HashResetToken is the deterministic digest stored for a reset token
func HashResetToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
