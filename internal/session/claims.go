package session

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claims is what can be read from a JWT bearer token without verifying it.
// It is informational only: the backend is the authority on validity, and
// nothing here influences routing decisions.
type Claims struct {
	Subject   string    `json:"subject,omitempty" yaml:"subject,omitempty"`
	Role      string    `json:"role,omitempty" yaml:"role,omitempty"`
	Email     string    `json:"email,omitempty" yaml:"email,omitempty"`
	IssuedAt  time.Time `json:"issued_at,omitempty" yaml:"issued_at,omitempty"`
	ExpiresAt time.Time `json:"expires_at,omitempty" yaml:"expires_at,omitempty"`
}

// Expired reports whether the exp claim lies before now. Tokens without exp
// never expire from the client's point of view.
func (c Claims) Expired(now time.Time) bool {
	return !c.ExpiresAt.IsZero() && c.ExpiresAt.Before(now)
}

// TokenClaims decodes token as an unverified JWT. Opaque tokens return an
// error, which callers treat as "no claims available".
func TokenClaims(token string) (Claims, error) {
	if token == "" {
		return Claims{}, fmt.Errorf("empty token")
	}

	mc := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, mc); err != nil {
		return Claims{}, fmt.Errorf("token is not a JWT: %w", err)
	}

	var c Claims
	if sub, err := mc.GetSubject(); err == nil {
		c.Subject = sub
	}
	if c.Subject == "" {
		c.Subject = stringClaim(mc, "id", "user_id", "userId")
	}
	c.Role = stringClaim(mc, "role")
	c.Email = stringClaim(mc, "email")
	if iat, err := mc.GetIssuedAt(); err == nil && iat != nil {
		c.IssuedAt = iat.Time
	}
	if exp, err := mc.GetExpirationTime(); err == nil && exp != nil {
		c.ExpiresAt = exp.Time
	}
	return c, nil
}

func stringClaim(mc jwt.MapClaims, names ...string) string {
	for _, name := range names {
		if v, ok := mc[name].(string); ok && v != "" {
			return v
		}
	}
	return ""
}
