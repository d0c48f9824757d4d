package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// JWTClaims is the session token payload
type JWTClaims struct {
	jwt.RegisteredClaims
	UID      string `json:"id"`
	UserRole string `json:"role"`
}

// UserID returns the user ID
func (c *JWTClaims) UserID() string {
	if c.UID != "" {
		return c.UID
	}
	return c.RegisteredClaims.Subject
}

// Role returns the role carried by the token
func (c *JWTClaims) Role() Role {
	return Role(c.UserRole)
}

// Expires returns the expiry claim or the zero time
func (c *JWTClaims) Expires() time.Time {
	if c.ExpiresAt == nil {
		return time.Time{}
	}
	return c.ExpiresAt.Time
}
