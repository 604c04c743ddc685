package data

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/syberry/bakery-api/internal/domain/model"
	apperrors "github.com/syberry/bakery-api/internal/errors"
	"github.com/syberry/bakery-api/internal/ports"
)

// RefreshTokenRepoOptions configures RefreshTokenRepo.
type RefreshTokenRepoOptions struct {
	DB  *sql.DB
	TTL time.Duration
	// Now is overridable for tests; defaults to time.Now.
	Now func() time.Time
}

// RefreshTokenRepo implements ports.RefreshTokenStore on Postgres. The table
// keys sessions by user_id, so a user can never hold more than one live
// refresh token.
type RefreshTokenRepo struct {
	db  *sql.DB
	ttl time.Duration
	now func() time.Time
}

var _ ports.RefreshTokenStore = (*RefreshTokenRepo)(nil)

func NewRefreshTokenRepo(opts RefreshTokenRepoOptions) (*RefreshTokenRepo, error) {
	if opts.DB == nil {
		return nil, errors.New("db is required")
	}
	if opts.TTL <= 0 {
		return nil, errors.New("ttl must be positive")
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &RefreshTokenRepo{db: opts.DB, ttl: opts.TTL, now: now}, nil
}

// IssueOrRotate replaces the user's session with a fresh opaque token. The
// upsert keyed on user_id makes rotation a single atomic statement, so
// concurrent logins leave exactly one surviving session.
func (r *RefreshTokenRepo) IssueOrRotate(ctx context.Context, userID string) (model.RefreshToken, error) {
	token := model.RefreshToken{
		UserID:    userID,
		Token:     uuid.NewString(),
		ExpiresAt: r.now().Add(r.ttl),
	}

	err := r.db.QueryRowContext(ctx, `
		INSERT INTO refresh_tokens (user_id, token, expires_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id) DO UPDATE
		SET token = EXCLUDED.token,
		    expires_at = EXCLUDED.expires_at,
		    created_at = now()
		RETURNING created_at`,
		token.UserID, token.Token, token.ExpiresAt,
	).Scan(&token.CreatedAt)
	if err != nil {
		return model.RefreshToken{}, apperrors.MapDBError(err)
	}
	return token, nil
}

// Verify resolves a presented token to its user id. Expired sessions are
// deleted eagerly so a later presentation of the same token reports not-found
// rather than expired.
func (r *RefreshTokenRepo) Verify(ctx context.Context, token string) (string, error) {
	var (
		userID    string
		expiresAt time.Time
	)
	err := r.db.QueryRowContext(ctx,
		`SELECT user_id, expires_at FROM refresh_tokens WHERE token = $1`, token,
	).Scan(&userID, &expiresAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", ports.ErrTokenNotFound
		}
		return "", apperrors.MapDBError(err)
	}

	if !r.now().Before(expiresAt) {
		// Delete only if the row still holds this exact token; a concurrent
		// rotation must not lose the fresh session.
		if _, delErr := r.db.ExecContext(ctx,
			`DELETE FROM refresh_tokens WHERE user_id = $1 AND token = $2`,
			userID, token,
		); delErr != nil {
			return "", fmt.Errorf("prune expired session: %w", delErr)
		}
		return "", ports.ErrTokenExpired
	}
	return userID, nil
}

// Revoke deletes the user's session; revoking an absent session is a no-op.
func (r *RefreshTokenRepo) Revoke(ctx context.Context, userID string) error {
	if _, err := r.db.ExecContext(ctx,
		`DELETE FROM refresh_tokens WHERE user_id = $1`, userID,
	); err != nil {
		return apperrors.MapDBError(err)
	}
	return nil
}
