package service

import (
	domainauth "github.com/syberry/bakery-api/internal/domain/auth"
	apperrors "github.com/syberry/bakery-api/internal/errors"
)

// RequireAnyRole allows the call when roles holds at least one of allowed.
// Everything else is an authorization failure, deliberately free of detail
// about which roles would have sufficed.
func RequireAnyRole(roles []domainauth.Role, allowed ...domainauth.Role) error {
	if domainauth.HasAny(roles, allowed...) {
		return nil
	}
	return apperrors.Authorization("insufficient permissions")
}
