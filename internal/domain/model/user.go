// Package model contains persistence-shaped domain records.
package model

import (
	"time"

	domainauth "github.com/syberry/bakery-api/internal/domain/auth"
)

// User is the identity record backing authentication and authorization.
// Email is unique case-insensitively; a user always holds at least one role.
type User struct {
	ID               string            `db:"id"                 json:"id"`
	FirstName        string            `db:"first_name"         json:"first_name"`
	LastName         string            `db:"last_name"          json:"last_name"`
	Email            string            `db:"email"              json:"email"`
	PasswordHash     string            `db:"password_hash"      json:"-"`
	Blocked          bool              `db:"blocked"            json:"blocked"`
	TwoFactorEnabled bool              `db:"two_factor_enabled" json:"two_factor_enabled"`
	Roles            []domainauth.Role `db:"-"                  json:"roles"`
	CreatedAt        time.Time         `db:"created_at"         json:"created_at"`
	UpdatedAt        time.Time         `db:"updated_at"         json:"updated_at"`
}

// Profile returns the public view of the user.
func (u *User) Profile() domainauth.Profile {
	roles := make([]domainauth.Role, len(u.Roles))
	copy(roles, u.Roles)
	return domainauth.Profile{
		ID:        u.ID,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Email:     u.Email,
		Roles:     roles,
	}
}

// HasRole reports whether the user holds the given role.
func (u *User) HasRole(role domainauth.Role) bool {
	return domainauth.HasAny(u.Roles, role)
}
