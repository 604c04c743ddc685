package service

import (
	"context"
	"errors"
	"fmt"

	domainauth "github.com/syberry/bakery-api/internal/domain/auth"
	apperrors "github.com/syberry/bakery-api/internal/errors"
	"github.com/syberry/bakery-api/internal/observability/statsd"
	"github.com/syberry/bakery-api/internal/ports"
)

// RoleService manages role grants. The last-admin invariant is enforced by
// the store; this layer translates its sentinels into application errors.
type RoleService struct {
	users   ports.UserStore
	metrics statsd.Sink
}

// NewRoleService constructs a RoleService.
func NewRoleService(users ports.UserStore, metrics statsd.Sink) (*RoleService, error) {
	if users == nil {
		return nil, errors.New("UserStore is required")
	}
	return &RoleService{users: users, metrics: metrics}, nil
}

// Grant adds a role to the user and returns their updated profile.
func (s *RoleService) Grant(ctx context.Context, userID string, role domainauth.Role) (*domainauth.Profile, error) {
	if !role.Valid() {
		return nil, apperrors.ValidationField("role", fmt.Sprintf("unknown role %q", role))
	}

	user, err := s.users.AddRole(ctx, userID, role)
	if err != nil {
		if errors.Is(err, ports.ErrUserNotFound) {
			return nil, apperrors.NotFound("user is not found")
		}
		return nil, fmt.Errorf("add role: %w", err)
	}

	if s.metrics != nil {
		s.metrics.Count("roles.granted", 1, map[string]string{"role": string(role)})
	}
	profile := user.Profile()
	return &profile, nil
}

// Revoke removes a role from the user and returns their updated profile.
// Stripping ADMIN from the only unblocked admin is rejected.
func (s *RoleService) Revoke(ctx context.Context, userID string, role domainauth.Role) (*domainauth.Profile, error) {
	if !role.Valid() {
		return nil, apperrors.ValidationField("role", fmt.Sprintf("unknown role %q", role))
	}

	user, err := s.users.RemoveRole(ctx, userID, role)
	if err != nil {
		switch {
		case errors.Is(err, ports.ErrUserNotFound):
			return nil, apperrors.NotFound("user is not found")
		case errors.Is(err, ports.ErrLastAdminProtected):
			return nil, apperrors.LastAdmin("cannot remove the last administrator")
		default:
			return nil, fmt.Errorf("remove role: %w", err)
		}
	}

	if s.metrics != nil {
		s.metrics.Count("roles.revoked", 1, map[string]string{"role": string(role)})
	}
	profile := user.Profile()
	return &profile, nil
}
