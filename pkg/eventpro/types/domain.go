package types

import (
	"fmt"
	"strings"
)

// Role is the authorization role carried by a user record.
type Role string

const (
	// RoleUser can browse events and manage their own reservations
	RoleUser Role = "USER"
	// RoleAdmin can additionally create, update and delete events
	RoleAdmin Role = "ADMIN"
)

// ParseRole parses a role name case-insensitively.
// An empty string yields an empty role (no role requirement).
func ParseRole(s string) (Role, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "":
		return "", nil
	case string(RoleUser):
		return RoleUser, nil
	case string(RoleAdmin):
		return RoleAdmin, nil
	default:
		return "", fmt.Errorf("unknown role %q (expected USER or ADMIN)", s)
	}
}

// String returns the wire representation of the role
func (r Role) String() string {
	return string(r)
}

// User is the profile stored next to the bearer token.
// The zero value is the "empty user" used when stored data is missing or corrupt.
type User struct {
	ID    string `json:"id,omitempty" yaml:"id,omitempty"`
	Name  string `json:"name,omitempty" yaml:"name,omitempty"`
	Email string `json:"email,omitempty" yaml:"email,omitempty"`
	Role  Role   `json:"role,omitempty" yaml:"role,omitempty"`
}

// IsZero reports whether the user record is empty
func (u User) IsZero() bool {
	return u == User{}
}

// IsAdmin reports whether the user carries the ADMIN role
func (u User) IsAdmin() bool {
	return u.Role == RoleAdmin
}
