package data

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/syberry/bakery-api/internal/data/pgxutil"
	domainauth "github.com/syberry/bakery-api/internal/domain/auth"
	"github.com/syberry/bakery-api/internal/domain/model"
	apperrors "github.com/syberry/bakery-api/internal/errors"
	"github.com/syberry/bakery-api/internal/ports"
)

// UserRepo implements ports.UserStore on Postgres. Users live in the users
// table; their roles in user_roles, one row per grant.
type UserRepo struct {
	db *sql.DB
}

var _ ports.UserStore = (*UserRepo)(nil)

func NewUserRepo(db *sql.DB) *UserRepo {
	return &UserRepo{db: db}
}

const userColumns = `id, first_name, last_name, email, password_hash, blocked, two_factor_enabled, created_at, updated_at`

// FindByEmail resolves a user by canonical email. Email identity is
// case-insensitive, enforced here and by the unique index on lower(email).
func (r *UserRepo) FindByEmail(ctx context.Context, email string, onlyUnblocked bool) (*model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE lower(email) = $1`
	if onlyUnblocked {
		query += ` AND NOT blocked`
	}
	return r.findOne(ctx, query, domainauth.NormalizeEmail(email))
}

func (r *UserRepo) FindByID(ctx context.Context, id string, onlyUnblocked bool) (*model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	if onlyUnblocked {
		query += ` AND NOT blocked`
	}
	return r.findOne(ctx, query, id)
}

func (r *UserRepo) findOne(ctx context.Context, query string, arg any) (*model.User, error) {
	var u model.User
	err := r.db.QueryRowContext(ctx, query, arg).Scan(
		&u.ID, &u.FirstName, &u.LastName, &u.Email, &u.PasswordHash,
		&u.Blocked, &u.TwoFactorEnabled, &u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ports.ErrUserNotFound
		}
		return nil, apperrors.MapDBError(err)
	}

	roles, err := r.loadRoles(ctx, u.ID)
	if err != nil {
		return nil, err
	}
	u.Roles = roles
	return &u, nil
}

func (r *UserRepo) loadRoles(ctx context.Context, userID string) ([]domainauth.Role, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT role FROM user_roles WHERE user_id = $1 ORDER BY role`, userID)
	if err != nil {
		return nil, apperrors.MapDBError(err)
	}
	defer rows.Close()

	var roles []domainauth.Role
	for rows.Next() {
		var role string
		if err := rows.Scan(&role); err != nil {
			return nil, apperrors.MapDBError(err)
		}
		roles = append(roles, domainauth.Role(role))
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.MapDBError(err)
	}
	return roles, nil
}

// Save persists the mutable scalar fields. Role changes go through
// AddRole/RemoveRole so the last-admin invariant cannot be bypassed.
func (r *UserRepo) Save(ctx context.Context, user *model.User) error {
	user.Email = domainauth.NormalizeEmail(user.Email)
	res, err := r.db.ExecContext(ctx, `
		UPDATE users
		SET first_name = $2,
		    last_name = $3,
		    email = $4,
		    password_hash = $5,
		    blocked = $6,
		    two_factor_enabled = $7,
		    updated_at = now()
		WHERE id = $1`,
		user.ID, user.FirstName, user.LastName, user.Email,
		user.PasswordHash, user.Blocked, user.TwoFactorEnabled,
	)
	if err != nil {
		return apperrors.MapDBError(err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return apperrors.MapDBError(err)
	}
	if affected == 0 {
		return ports.ErrUserNotFound
	}
	return nil
}

func (r *UserRepo) CountUnblockedWithRole(ctx context.Context, role domainauth.Role) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, `
		SELECT count(*)
		FROM users u
		JOIN user_roles ur ON ur.user_id = u.id
		WHERE ur.role = $1 AND NOT u.blocked`,
		string(role),
	).Scan(&count)
	if err != nil {
		return 0, apperrors.MapDBError(err)
	}
	return count, nil
}

// AddRole grants role to the user; granting an already-held role is a no-op.
func (r *UserRepo) AddRole(ctx context.Context, userID string, role domainauth.Role) (*model.User, error) {
	if _, err := r.FindByID(ctx, userID, false); err != nil {
		return nil, err
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO user_roles (user_id, role)
		VALUES ($1, $2)
		ON CONFLICT (user_id, role) DO NOTHING`,
		userID, string(role),
	)
	if err != nil {
		return nil, apperrors.MapDBError(err)
	}
	return r.FindByID(ctx, userID, false)
}

// RemoveRole revokes role from the user inside one transaction. Removing
// ADMIN from the only unblocked admin fails with ErrLastAdminProtected; the
// admin rows are locked first so two concurrent removals cannot both pass the
// count check. A user whose last role is removed reverts to USER.
func (r *UserRepo) RemoveRole(ctx context.Context, userID string, role domainauth.Role) (*model.User, error) {
	if _, err := r.FindByID(ctx, userID, false); err != nil {
		return nil, err
	}

	err := pgxutil.WithPgxTx(ctx, r.db, func(tx pgx.Tx) error {
		if role == domainauth.RoleAdmin {
			admins, err := lockUnblockedAdmins(ctx, tx)
			if err != nil {
				return err
			}
			if len(admins) == 1 && admins[0] == userID {
				return ports.ErrLastAdminProtected
			}
		}

		if _, err := tx.Exec(ctx,
			`DELETE FROM user_roles WHERE user_id = $1 AND role = $2`,
			userID, string(role),
		); err != nil {
			return fmt.Errorf("delete role: %w", err)
		}

		var remaining int
		if err := tx.QueryRow(ctx,
			`SELECT count(*) FROM user_roles WHERE user_id = $1`, userID,
		).Scan(&remaining); err != nil {
			return fmt.Errorf("count remaining roles: %w", err)
		}
		if remaining == 0 {
			if _, err := tx.Exec(ctx,
				`INSERT INTO user_roles (user_id, role) VALUES ($1, $2)`,
				userID, string(domainauth.RoleUser),
			); err != nil {
				return fmt.Errorf("restore default role: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, ports.ErrLastAdminProtected) {
			return nil, err
		}
		return nil, apperrors.MapDBError(err)
	}

	return r.FindByID(ctx, userID, false)
}

// lockUnblockedAdmins takes row locks on every unblocked admin's user row and
// returns their ids. The locks serialize concurrent admin-role removals.
func lockUnblockedAdmins(ctx context.Context, tx pgx.Tx) ([]string, error) {
	rows, err := tx.Query(ctx, `
		SELECT u.id
		FROM users u
		JOIN user_roles ur ON ur.user_id = u.id
		WHERE ur.role = $1 AND NOT u.blocked
		ORDER BY u.id
		FOR UPDATE OF u`,
		string(domainauth.RoleAdmin),
	)
	if err != nil {
		return nil, fmt.Errorf("lock admins: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan admin id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read admins: %w", err)
	}
	return ids, nil
}

// Create inserts a new user together with their role grants. Used by the dev
// seeder and account provisioning.
func (r *UserRepo) Create(ctx context.Context, user *model.User) error {
	user.Email = domainauth.NormalizeEmail(user.Email)
	return pgxutil.WithTx(ctx, r.db, func(tx *sql.Tx) error {
		err := tx.QueryRowContext(ctx, `
			INSERT INTO users (first_name, last_name, email, password_hash, blocked, two_factor_enabled)
			VALUES ($1, $2, $3, $4, $5, $6)
			RETURNING id, created_at, updated_at`,
			user.FirstName, user.LastName, user.Email,
			user.PasswordHash, user.Blocked, user.TwoFactorEnabled,
		).Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt)
		if err != nil {
			return apperrors.MapDBError(err)
		}

		roles := user.Roles
		if len(roles) == 0 {
			roles = []domainauth.Role{domainauth.RoleUser}
		}
		for _, role := range roles {
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO user_roles (user_id, role)
				VALUES ($1, $2)
				ON CONFLICT (user_id, role) DO NOTHING`,
				user.ID, string(role),
			); err != nil {
				return apperrors.MapDBError(err)
			}
		}
		user.Roles = roles
		return nil
	})
}
