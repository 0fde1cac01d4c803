package users

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claims is the decoded payload of an access token: subject, role,
// issued-at, and expires-at.
type Claims struct {
	jwt.RegisteredClaims
	UserRole string `json:"role,omitempty"`
}

// Subject returns the subject claim (the account id)
func (c *Claims) Subject() string {
	return c.RegisteredClaims.Subject
}

// Role returns the canonicalized role carried by the token
func (c *Claims) Role() (Role, bool) {
	return ParseRole(c.UserRole)
}

// IssuedAt returns the issuance instant
func (c *Claims) IssuedAt() time.Time {
	if c.RegisteredClaims.IssuedAt == nil {
		return time.Time{}
	}
	return c.RegisteredClaims.IssuedAt.Time
}

// Expires returns the absolute expiry instant
func (c *Claims) Expires() time.Time {
	if c.RegisteredClaims.ExpiresAt == nil {
		return time.Time{}
	}
	return c.RegisteredClaims.ExpiresAt.Time
}

// Identity resolves the claims into the (subject, role) pair the
// authorization guard operates on.
func (c *Claims) Identity() (Identity, bool) {
	role, ok := c.Role()
	if !ok {
		return Identity{}, false
	}

	return Identity{
		Subject: c.Subject(),
		Role:    role,
	}, true
}
