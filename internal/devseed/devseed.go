// Package devseed provisions a development environment with known accounts.
// Never runs in production mode.
package devseed

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/syberry/bakery-api/internal/data"
	domainauth "github.com/syberry/bakery-api/internal/domain/auth"
	"github.com/syberry/bakery-api/internal/domain/model"
	apperrors "github.com/syberry/bakery-api/internal/errors"
	"github.com/syberry/bakery-api/internal/ports"
)

// Services bundles the dependencies needed for development seeding.
type Services struct {
	DB     *sql.DB
	Users  *data.UserRepo
	Hasher ports.PasswordHasher
}

// NewServices constructs the seeding dependencies from the shared DB pool.
func NewServices(db *sql.DB, hasher ports.PasswordHasher) Services {
	return Services{DB: db, Users: data.NewUserRepo(db), Hasher: hasher}
}

type seedAccount struct {
	firstName string
	lastName  string
	email     string
	password  string
	roles     []domainauth.Role
	twoFactor bool
}

func defaultAccounts() []seedAccount {
	return []seedAccount{
		{
			firstName: "Default",
			lastName:  "Admin",
			email:     "admin@bakery.local",
			password:  "admin123",
			roles:     []domainauth.Role{domainauth.RoleAdmin},
		},
		{
			firstName: "Helen",
			lastName:  "Rivera",
			email:     "hr@bakery.local",
			password:  "hr123456",
			roles:     []domainauth.Role{domainauth.RoleHR},
		},
		{
			firstName: "Alex",
			lastName:  "Chen",
			email:     "accountant@bakery.local",
			password:  "acc123456",
			roles:     []domainauth.Role{domainauth.RoleAccountant},
		},
		{
			firstName: "Uma",
			lastName:  "Novak",
			email:     "user@bakery.local",
			password:  "user123456",
			roles:     []domainauth.Role{domainauth.RoleUser},
			twoFactor: false,
		},
	}
}

// Run inserts the default dev accounts, skipping any that already exist.
// Accounts are independent, so they seed concurrently; bcrypt hashing
// dominates the cost.
func Run(ctx context.Context, svcs Services, logger *slog.Logger) error {
	var (
		g        errgroup.Group
		failures atomic.Int32
	)
	g.SetLimit(4)

	for _, account := range defaultAccounts() {
		g.Go(func() error {
			created, err := seedAccountOnce(ctx, svcs, account)
			if err != nil {
				if logger != nil {
					logger.ErrorContext(ctx, "failed to seed account", "email", account.email, "error", err)
				}
				failures.Add(1)
				return nil
			}
			if logger != nil {
				msg := "account already exists"
				if created {
					msg = "created account"
				}
				logger.InfoContext(ctx, msg, "email", account.email, "roles", account.roles)
			}
			return nil
		})
	}
	_ = g.Wait()

	if n := failures.Load(); n > 0 {
		return fmt.Errorf("%d seed errors; check logs", n)
	}
	return nil
}

func seedAccountOnce(ctx context.Context, svcs Services, account seedAccount) (bool, error) {
	hash, err := svcs.Hasher.Hash(account.password)
	if err != nil {
		return false, fmt.Errorf("hash password: %w", err)
	}

	user := &model.User{
		FirstName:        account.firstName,
		LastName:         account.lastName,
		Email:            account.email,
		PasswordHash:     hash,
		TwoFactorEnabled: account.twoFactor,
		Roles:            account.roles,
	}
	if err := svcs.Users.Create(ctx, user); err != nil {
		if apperrors.IsConflict(err) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}
