package httpx

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainauth "github.com/syberry/bakery-api/internal/domain/auth"
	"github.com/syberry/bakery-api/internal/domain/model"
)

func (f *routerFixture) loginCookie(t *testing.T, email, password string) *http.Cookie {
	t.Helper()
	rec := f.do(jsonRequest(http.MethodPost, "/auth/login",
		`{"email":"`+email+`","password":"`+password+`"}`))
	require.Equal(t, http.StatusOK, rec.Code)
	access := responseCookie(t, rec, "bakery_jwt")
	require.NotNil(t, access)
	return &http.Cookie{Name: access.Name, Value: access.Value}
}

func TestGrantRoleEndpoint(t *testing.T) {
	f := newRouterFixture(t)
	f.seedUser("admin@x.com", "s3cret", func(u *model.User) {
		u.Roles = []domainauth.Role{domainauth.RoleAdmin}
	})
	target := f.seedUser("jane@x.com", "s3cret")
	admin := f.loginCookie(t, "admin@x.com", "s3cret")

	req := jsonRequest(http.MethodPost, "/users/"+target+"/roles", `{"role":"HR"}`)
	req.AddCookie(admin)
	rec := f.do(req)

	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.ElementsMatch(t, []any{"USER", "HR"}, body["roles"])
}

func TestGrantRoleEndpoint_ForbiddenForNonAdmin(t *testing.T) {
	f := newRouterFixture(t)
	target := f.seedUser("jane@x.com", "s3cret")
	user := f.loginCookie(t, "jane@x.com", "s3cret")

	req := jsonRequest(http.MethodPost, "/users/"+target+"/roles", `{"role":"HR"}`)
	req.AddCookie(user)
	rec := f.do(req)

	require.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "authorization_denied", decodeBody(t, rec)["error"])
}

func TestGrantRoleEndpoint_RequiresAuth(t *testing.T) {
	f := newRouterFixture(t)

	rec := f.do(jsonRequest(http.MethodPost, "/users/some-id/roles", `{"role":"HR"}`))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestGrantRoleEndpoint_UnknownRole(t *testing.T) {
	f := newRouterFixture(t)
	f.seedUser("admin@x.com", "s3cret", func(u *model.User) {
		u.Roles = []domainauth.Role{domainauth.RoleAdmin}
	})
	target := f.seedUser("jane@x.com", "s3cret")
	admin := f.loginCookie(t, "admin@x.com", "s3cret")

	req := jsonRequest(http.MethodPost, "/users/"+target+"/roles", `{"role":"SUPERUSER"}`)
	req.AddCookie(admin)
	rec := f.do(req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "role", decodeBody(t, rec)["field"])
}

func TestRevokeRoleEndpoint_LastAdminProtected(t *testing.T) {
	f := newRouterFixture(t)
	adminID := f.seedUser("admin@x.com", "s3cret", func(u *model.User) {
		u.Roles = []domainauth.Role{domainauth.RoleAdmin}
	})
	admin := f.loginCookie(t, "admin@x.com", "s3cret")

	req := httptest.NewRequest(http.MethodDelete, "/users/"+adminID+"/roles/ADMIN", nil)
	req.AddCookie(admin)
	rec := f.do(req)

	require.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "last_admin_protected", decodeBody(t, rec)["error"])
}

func TestRevokeRoleEndpoint(t *testing.T) {
	f := newRouterFixture(t)
	f.seedUser("admin@x.com", "s3cret", func(u *model.User) {
		u.Roles = []domainauth.Role{domainauth.RoleAdmin}
	})
	target := f.seedUser("jane@x.com", "s3cret", func(u *model.User) {
		u.Roles = []domainauth.Role{domainauth.RoleUser, domainauth.RoleHR}
	})
	admin := f.loginCookie(t, "admin@x.com", "s3cret")

	req := httptest.NewRequest(http.MethodDelete, "/users/"+target+"/roles/HR", nil)
	req.AddCookie(admin)
	rec := f.do(req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.ElementsMatch(t, []any{"USER"}, decodeBody(t, rec)["roles"])
}

func TestTriggerPasswordResetEndpoint(t *testing.T) {
	f := newRouterFixture(t)
	f.seedUser("hr@x.com", "s3cret", func(u *model.User) {
		u.Roles = []domainauth.Role{domainauth.RoleHR}
	})
	target := f.seedUser("jane@x.com", "s3cret")
	hr := f.loginCookie(t, "hr@x.com", "s3cret")

	req := httptest.NewRequest(http.MethodPost, "/users/"+target+"/password-reset", nil)
	req.AddCookie(hr)
	rec := f.do(req)

	require.Equal(t, http.StatusNoContent, rec.Code)
	sent := f.mailer.Sent()
	require.Len(t, sent, 1)
	assert.Equal(t, "jane@x.com", sent[0].Recipient)
	assert.Equal(t, "password_reset", sent[0].Kind)
}

func TestTriggerPasswordResetEndpoint_ForbiddenForPlainUser(t *testing.T) {
	f := newRouterFixture(t)
	target := f.seedUser("jane@x.com", "s3cret")
	user := f.loginCookie(t, "jane@x.com", "s3cret")

	req := httptest.NewRequest(http.MethodPost, "/users/"+target+"/password-reset", nil)
	req.AddCookie(user)
	rec := f.do(req)

	assert.Equal(t, http.StatusForbidden, rec.Code)
}
