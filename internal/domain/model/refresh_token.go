package model

import "time"

// RefreshToken is the single live refresh session for a user.
// UserID is unique: issuing a new token replaces the previous row.
type RefreshToken struct {
	UserID    string    `db:"user_id"`
	Token     string    `db:"token"`
	ExpiresAt time.Time `db:"expires_at"`
	CreatedAt time.Time `db:"created_at"`
}

// Expired reports whether the session is past its expiry at the given instant.
func (r *RefreshToken) Expired(now time.Time) bool {
	return !r.ExpiresAt.After(now)
}
