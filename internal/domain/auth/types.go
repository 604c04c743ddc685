// Package auth contains domain-level types for authentication and authorization.
// It is pure and free of framework/adapter concerns.
package auth

import (
	"fmt"
	"strings"
	"time"
)

// Role represents an application's authorization role.
// Keep string form for easy persistence and token claims.
// Valid values are defined as constants below.
type Role string

const (
	RoleAdmin      Role = "ADMIN"
	RoleHR         Role = "HR"
	RoleAccountant Role = "ACCOUNTANT"
	RoleUser       Role = "USER"
)

// AllRoles lists every valid role, in display order.
func AllRoles() []Role {
	return []Role{RoleAdmin, RoleHR, RoleAccountant, RoleUser}
}

// ParseRole converts a string into a Role, case-insensitively.
func ParseRole(s string) (Role, error) {
	switch Role(strings.ToUpper(strings.TrimSpace(s))) {
	case RoleAdmin:
		return RoleAdmin, nil
	case RoleHR:
		return RoleHR, nil
	case RoleAccountant:
		return RoleAccountant, nil
	case RoleUser:
		return RoleUser, nil
	default:
		return "", fmt.Errorf("invalid role: %q", s)
	}
}

// Valid reports whether r is one of the closed role set.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleHR, RoleAccountant, RoleUser:
		return true
	default:
		return false
	}
}

// HasAny reports whether roles and allowed intersect.
func HasAny(roles []Role, allowed ...Role) bool {
	for _, have := range roles {
		for _, want := range allowed {
			if have == want {
				return true
			}
		}
	}
	return false
}

// WithRole returns a new role set containing role. The input slice is never
// mutated; role sets are exchanged as immutable snapshots.
func WithRole(roles []Role, role Role) []Role {
	for _, r := range roles {
		if r == role {
			return cloneRoles(roles)
		}
	}
	out := make([]Role, 0, len(roles)+1)
	out = append(out, roles...)
	return append(out, role)
}

// WithoutRole returns a new role set with role removed. Removing a user's
// only role demotes them to RoleUser rather than leaving the set empty.
func WithoutRole(roles []Role, role Role) []Role {
	out := make([]Role, 0, len(roles))
	for _, r := range roles {
		if r != role {
			out = append(out, r)
		}
	}
	if len(out) == 0 {
		out = append(out, RoleUser)
	}
	return out
}

func cloneRoles(roles []Role) []Role {
	out := make([]Role, len(roles))
	copy(out, roles)
	return out
}

// NormalizeEmail returns the canonical form of an email used for identity:
// trimmed and lowercased. Storage and lookup both go through it, so emails
// differing only in case or padding name the same principal.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Profile is the public view of a user returned to authenticated callers.
// It never carries credential material.
type Profile struct {
	ID        string `json:"id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
	Roles     []Role `json:"roles"`
}

// TokenPair carries the artifacts produced by a successful authentication:
// a stateless signed access token and a server-tracked opaque refresh token.
// Zero values are used by logout to signal the transport layer to clear both.
type TokenPair struct {
	AccessToken      string    `json:"access_token"`
	RefreshToken     string    `json:"refresh_token"`
	AccessExpiresAt  time.Time `json:"access_expires_at"`
	RefreshExpiresAt time.Time `json:"refresh_expires_at"`
}
