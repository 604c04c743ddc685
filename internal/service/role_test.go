package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainauth "github.com/syberry/bakery-api/internal/domain/auth"
	"github.com/syberry/bakery-api/internal/domain/model"
	apperrors "github.com/syberry/bakery-api/internal/errors"
	mocksauth "github.com/syberry/bakery-api/internal/mocks/auth"
)

func newRoleFixture(t *testing.T) (*RoleService, *mocksauth.MemoryUserStore) {
	t.Helper()
	users := mocksauth.NewMemoryUserStore()
	svc, err := NewRoleService(users, nil)
	require.NoError(t, err)
	return svc, users
}

func seedRoleUser(users *mocksauth.MemoryUserStore, email string, roles ...domainauth.Role) string {
	return users.Add(model.User{
		Email:        email,
		PasswordHash: mocksauth.MustHash("x"),
		Roles:        roles,
	})
}

func TestRoleService_Grant(t *testing.T) {
	svc, users := newRoleFixture(t)
	id := seedRoleUser(users, "jane@x.com", domainauth.RoleUser)

	profile, err := svc.Grant(context.Background(), id, domainauth.RoleHR)
	require.NoError(t, err)
	assert.ElementsMatch(t, []domainauth.Role{domainauth.RoleUser, domainauth.RoleHR}, profile.Roles)

	// Granting again is a no-op.
	profile, err = svc.Grant(context.Background(), id, domainauth.RoleHR)
	require.NoError(t, err)
	assert.ElementsMatch(t, []domainauth.Role{domainauth.RoleUser, domainauth.RoleHR}, profile.Roles)
}

func TestRoleService_GrantUnknownRole(t *testing.T) {
	svc, users := newRoleFixture(t)
	id := seedRoleUser(users, "jane@x.com", domainauth.RoleUser)

	_, err := svc.Grant(context.Background(), id, domainauth.Role("SUPERUSER"))
	assert.True(t, apperrors.IsValidation(err))
	assert.Equal(t, "role", apperrors.GetField(err))
}

func TestRoleService_GrantUnknownUser(t *testing.T) {
	svc, _ := newRoleFixture(t)

	_, err := svc.Grant(context.Background(), "missing", domainauth.RoleHR)
	assert.True(t, apperrors.IsNotFound(err))
}

func TestRoleService_Revoke(t *testing.T) {
	svc, users := newRoleFixture(t)
	id := seedRoleUser(users, "jane@x.com", domainauth.RoleUser, domainauth.RoleHR)

	profile, err := svc.Revoke(context.Background(), id, domainauth.RoleHR)
	require.NoError(t, err)
	assert.ElementsMatch(t, []domainauth.Role{domainauth.RoleUser}, profile.Roles)
}

func TestRoleService_RevokeLastRoleFallsBackToUser(t *testing.T) {
	svc, users := newRoleFixture(t)
	id := seedRoleUser(users, "jane@x.com", domainauth.RoleHR)

	profile, err := svc.Revoke(context.Background(), id, domainauth.RoleHR)
	require.NoError(t, err)
	assert.Equal(t, []domainauth.Role{domainauth.RoleUser}, profile.Roles)
}

func TestRoleService_RevokeLastAdminProtected(t *testing.T) {
	svc, users := newRoleFixture(t)
	admin := seedRoleUser(users, "admin@x.com", domainauth.RoleAdmin)

	_, err := svc.Revoke(context.Background(), admin, domainauth.RoleAdmin)
	assert.True(t, apperrors.IsLastAdmin(err))

	// With a second unblocked admin the removal goes through.
	seedRoleUser(users, "other@x.com", domainauth.RoleAdmin)
	profile, err := svc.Revoke(context.Background(), admin, domainauth.RoleAdmin)
	require.NoError(t, err)
	assert.Equal(t, []domainauth.Role{domainauth.RoleUser}, profile.Roles)
}

func TestRequireAnyRole(t *testing.T) {
	roles := []domainauth.Role{domainauth.RoleHR}

	assert.NoError(t, RequireAnyRole(roles, domainauth.RoleAdmin, domainauth.RoleHR))

	err := RequireAnyRole(roles, domainauth.RoleAdmin)
	assert.True(t, apperrors.IsAuthorization(err))

	assert.Error(t, RequireAnyRole(nil, domainauth.RoleAdmin))
}
