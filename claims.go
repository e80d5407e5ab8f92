package authflow

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claims is the read-side view of a verified session token.
type Claims interface {
	Identifier() string
	EmailAddress() string
	DisplayName() string
	Expires() time.Time
	IssuedTime() time.Time
}

// SessionClaims is the concrete JWT payload for self-issued session tokens.
type SessionClaims struct {
	jwt.RegisteredClaims
	UID   string `json:"uid,omitempty"`
	Email string `json:"email,omitempty"`
	Name  string `json:"name,omitempty"`
}

var _ Claims = (*SessionClaims)(nil)

// Identifier returns the identity ID, falling back to the subject claim.
func (c *SessionClaims) Identifier() string {
	if c.UID != "" {
		return c.UID
	}
	return c.RegisteredClaims.Subject
}

// EmailAddress returns the email claim.
func (c *SessionClaims) EmailAddress() string {
	return c.Email
}

// DisplayName returns the display-name claim.
func (c *SessionClaims) DisplayName() string {
	return c.Name
}

// Expires returns the expiry timestamp, zero when absent.
func (c *SessionClaims) Expires() time.Time {
	if c.RegisteredClaims.ExpiresAt != nil {
		return c.RegisteredClaims.ExpiresAt.Time
	}
	return time.Time{}
}

// IssuedTime returns the issue timestamp, zero when absent.
func (c *SessionClaims) IssuedTime() time.Time {
	if c.RegisteredClaims.IssuedAt != nil {
		return c.RegisteredClaims.IssuedAt.Time
	}
	return time.Time{}
}
