// Package ports defines interfaces (hexagonal ports) for auth-related behavior.
// Implementations live in internal/adapters and internal/data; orchestration
// in internal/service.
package ports

import (
	"context"
	"errors"
	"time"

	domainauth "github.com/syberry/bakery-api/internal/domain/auth"
	"github.com/syberry/bakery-api/internal/domain/model"
)

// Sentinel errors shared by all port implementations. The service layer maps
// these onto the application error taxonomy.
var (
	// ErrSecretNotFound is returned by SecretCache.Get for keys that are
	// absent or expired; callers must not be able to tell which.
	ErrSecretNotFound = errors.New("secret not found")
	// ErrTokenNotFound is returned by RefreshTokenStore.Verify when no
	// session matches the presented token.
	ErrTokenNotFound = errors.New("refresh token not found")
	// ErrTokenExpired is returned by RefreshTokenStore.Verify for a matching
	// but expired session. The stale record has already been deleted.
	ErrTokenExpired = errors.New("refresh token expired")
	// ErrInvalidToken is returned by TokenIssuer.Validate for any signature
	// mismatch, malformed structure, or expired timestamp.
	ErrInvalidToken = errors.New("invalid access token")
	// ErrUserNotFound is returned by UserStore lookups that match no user.
	ErrUserNotFound = errors.New("user not found")
	// ErrLastAdminProtected is returned by UserStore.RemoveRole when the
	// removal would strip ADMIN from the only unblocked admin.
	ErrLastAdminProtected = errors.New("last admin cannot lose the admin role")
	// ErrPasswordMismatch is returned by PasswordHasher.Verify on mismatch.
	ErrPasswordMismatch = errors.New("password does not match")
)

// SecretCache stores one short-lived opaque secret per key with a fixed
// expiry-after-write duration. A new Put for the same key supersedes the old
// value and resets the expiry clock. Implementations must be safe for
// concurrent use and linearizable per key.
type SecretCache interface {
	Put(ctx context.Context, key, value string) error
	// Get returns the live value for key or ErrSecretNotFound.
	Get(ctx context.Context, key string) (string, error)
	// Invalidate removes the entry immediately. Absence is not an error.
	Invalidate(ctx context.Context, key string) error
}

// RefreshTokenStore tracks the single live refresh session per user.
type RefreshTokenStore interface {
	// IssueOrRotate atomically replaces any existing session for the user
	// with a fresh opaque token. Concurrent calls for the same user must
	// leave exactly one surviving valid session.
	IssueOrRotate(ctx context.Context, userID string) (model.RefreshToken, error)
	// Verify resolves a presented token to its user. Expired sessions are
	// deleted eagerly and reported as ErrTokenExpired.
	Verify(ctx context.Context, token string) (string, error)
	// Revoke deletes the user's session unconditionally; idempotent.
	Revoke(ctx context.Context, userID string) error
}

// TokenIssuer mints and validates stateless signed access tokens.
type TokenIssuer interface {
	// Issue signs a token for the subject email with the configured lifetime.
	Issue(subject string) (token string, expiresAt time.Time, err error)
	// Validate returns the subject email or ErrInvalidToken.
	Validate(token string) (string, error)
}

// PasswordHasher is an opaque one-way hash + verify capability.
type PasswordHasher interface {
	Hash(password string) (string, error)
	// Verify returns ErrPasswordMismatch when password does not match hash.
	Verify(hash, password string) error
}

// UserStore is the external user-store collaborator. Lookups with
// onlyUnblocked=true ignore blocked users entirely.
type UserStore interface {
	FindByEmail(ctx context.Context, email string, onlyUnblocked bool) (*model.User, error)
	FindByID(ctx context.Context, id string, onlyUnblocked bool) (*model.User, error)
	// Save persists mutations to the password hash, blocked flag, and
	// two-factor flag. Role mutations go through AddRole/RemoveRole.
	Save(ctx context.Context, user *model.User) error
	CountUnblockedWithRole(ctx context.Context, role domainauth.Role) (int, error)
	// AddRole grants a role and returns the user's new state.
	AddRole(ctx context.Context, userID string, role domainauth.Role) (*model.User, error)
	// RemoveRole revokes a role and returns the user's new state. The
	// last-admin invariant is enforced atomically with the mutation:
	// removing ADMIN from the only unblocked admin fails with
	// ErrLastAdminProtected and leaves the role set unchanged. Removing a
	// user's only role reverts them to USER.
	RemoveRole(ctx context.Context, userID string, role domainauth.Role) (*model.User, error)
}

// EmailSender delivers templated notification emails. Fire-and-forget:
// failures surface as errors but are never retried by the caller.
type EmailSender interface {
	SendTwoFactorCode(ctx context.Context, recipient, code string) error
	SendPasswordReset(ctx context.Context, recipient, token string) error
}
