package httpx

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	domainauth "github.com/syberry/bakery-api/internal/domain/auth"
	apperrors "github.com/syberry/bakery-api/internal/errors"
	"github.com/syberry/bakery-api/internal/service"
)

// UserAdminHandlers serves the administrative user-management endpoints:
// role grants and revocations plus admin-triggered password resets.
type UserAdminHandlers struct {
	Roles  *service.RoleService
	Auth   *service.AuthService
	Logger *slog.Logger
}

type grantRoleRequest struct {
	Role string `json:"role"`
}

// GrantRole handles POST /users/{id}/roles. ADMIN only.
func (h *UserAdminHandlers) GrantRole(w http.ResponseWriter, r *http.Request) {
	var req grantRoleRequest
	if !DecodeJSON(w, r, &req) {
		return
	}

	role, err := domainauth.ParseRole(req.Role)
	if err != nil {
		WriteAppError(w, apperrors.ValidationField("role", err.Error()))
		return
	}

	profile, err := h.Roles.Grant(r.Context(), r.PathValue("id"), role)
	if err != nil {
		h.logError(r, "role grant failed", err)
		WriteAppError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, toProfilePayload(profile))
}

// RevokeRole handles DELETE /users/{id}/roles/{role}. ADMIN only.
func (h *UserAdminHandlers) RevokeRole(w http.ResponseWriter, r *http.Request) {
	role, err := domainauth.ParseRole(strings.TrimSpace(r.PathValue("role")))
	if err != nil {
		WriteAppError(w, apperrors.ValidationField("role", err.Error()))
		return
	}

	profile, err := h.Roles.Revoke(r.Context(), r.PathValue("id"), role)
	if err != nil {
		h.logError(r, "role revoke failed", err)
		WriteAppError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, toProfilePayload(profile))
}

// TriggerPasswordReset handles POST /users/{id}/password-reset. ADMIN or HR.
func (h *UserAdminHandlers) TriggerPasswordReset(w http.ResponseWriter, r *http.Request) {
	if h.Auth == nil {
		WriteError(w, ErrorParams{
			Code:    http.StatusInternalServerError,
			ErrCode: "internal",
			Err:     errors.New("auth service unavailable"),
		})
		return
	}

	if err := h.Auth.RequestPasswordResetByID(r.Context(), r.PathValue("id")); err != nil {
		h.logError(r, "admin-triggered password reset failed", err)
		WriteAppError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *UserAdminHandlers) logError(r *http.Request, msg string, err error) {
	if h.Logger == nil {
		return
	}
	h.Logger.Warn(msg,
		slog.String("path", r.URL.Path),
		slog.Any("error", err),
	)
}
