package httpx

import (
	"context"

	domainauth "github.com/syberry/bakery-api/internal/domain/auth"
)

// principalKey is an unexported context key type to avoid collisions across
// packages. Centralized here so all handlers and middleware share it.
type principalKey struct{}

// SetPrincipalInContext returns a child context carrying the authenticated
// principal. A nil profile leaves ctx unchanged.
func SetPrincipalInContext(ctx context.Context, profile *domainauth.Profile) context.Context {
	if profile == nil {
		return ctx
	}
	return context.WithValue(ctx, principalKey{}, profile)
}

// GetPrincipalFromContext returns the authenticated principal and whether one
// is present.
func GetPrincipalFromContext(ctx context.Context) (*domainauth.Profile, bool) {
	if profile, ok := ctx.Value(principalKey{}).(*domainauth.Profile); ok && profile != nil {
		return profile, true
	}
	return nil, false
}
