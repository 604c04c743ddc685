package httpx

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	domainauth "github.com/syberry/bakery-api/internal/domain/auth"
	"github.com/syberry/bakery-api/internal/service"
)

// AuthHandlers serves the authentication endpoints.
type AuthHandlers struct {
	Svc     *service.AuthService
	Cookies CookieSettings
	Logger  *slog.Logger
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type verifyRequest struct {
	Email string `json:"email"`
	Code  string `json:"code"`
}

type forgotPasswordRequest struct {
	Email string `json:"email"`
}

type resetPasswordRequest struct {
	Email       string `json:"email"`
	Token       string `json:"token"`
	NewPassword string `json:"newPassword"`
}

type updatePasswordRequest struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

type loginResponse struct {
	TwoFactorRequired bool            `json:"twoFactorRequired"`
	Profile           *profilePayload `json:"profile,omitempty"`
}

type profilePayload struct {
	ID        string   `json:"id"`
	FirstName string   `json:"firstName"`
	LastName  string   `json:"lastName"`
	Email     string   `json:"email"`
	Roles     []string `json:"roles"`
}

func toProfilePayload(p *domainauth.Profile) *profilePayload {
	if p == nil {
		return nil
	}
	roles := make([]string, len(p.Roles))
	for i, role := range p.Roles {
		roles[i] = string(role)
	}
	return &profilePayload{
		ID:        p.ID,
		FirstName: p.FirstName,
		LastName:  p.LastName,
		Email:     p.Email,
		Roles:     roles,
	}
}

// Login handles POST /auth/login.
func (h *AuthHandlers) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !DecodeJSON(w, r, &req) {
		return
	}
	if req.Email == "" || req.Password == "" {
		WriteError(w, ErrorParams{
			Code:    http.StatusBadRequest,
			ErrCode: "validation",
			Err:     errors.New("email and password are required"),
		})
		return
	}

	result, err := h.Svc.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		h.logError(r, "login failed", err)
		WriteAppError(w, err)
		return
	}

	if result.SecondFactorRequired {
		WriteJSON(w, http.StatusOK, loginResponse{TwoFactorRequired: true})
		return
	}

	setTokenCookies(w, h.Cookies, result.Tokens)
	WriteJSON(w, http.StatusOK, loginResponse{Profile: toProfilePayload(result.Profile)})
}

// VerifySecondFactor handles POST /auth/email-verification.
func (h *AuthHandlers) VerifySecondFactor(w http.ResponseWriter, r *http.Request) {
	var req verifyRequest
	if !DecodeJSON(w, r, &req) {
		return
	}

	result, err := h.Svc.VerifySecondFactor(r.Context(), req.Email, strings.TrimSpace(req.Code))
	if err != nil {
		h.logError(r, "second factor verification failed", err)
		WriteAppError(w, err)
		return
	}

	setTokenCookies(w, h.Cookies, result.Tokens)
	WriteJSON(w, http.StatusOK, loginResponse{Profile: toProfilePayload(result.Profile)})
}

// Refresh handles POST /auth/refresh-token. The refresh token travels only in
// its path-scoped cookie.
func (h *AuthHandlers) Refresh(w http.ResponseWriter, r *http.Request) {
	var presented string
	if cookie, err := r.Cookie(h.Cookies.RefreshName); err == nil {
		presented = cookie.Value
	}

	result, err := h.Svc.Refresh(r.Context(), presented)
	if err != nil {
		h.logError(r, "refresh failed", err)
		clearTokenCookies(w, h.Cookies)
		WriteAppError(w, err)
		return
	}

	setTokenCookies(w, h.Cookies, result.Tokens)
	w.WriteHeader(http.StatusNoContent)
}

// Logout handles POST /auth/logout. Requires authentication.
func (h *AuthHandlers) Logout(w http.ResponseWriter, r *http.Request) {
	principal, ok := GetPrincipalFromContext(r.Context())
	if !ok {
		WriteError(w, ErrorParams{
			Code:    http.StatusUnauthorized,
			ErrCode: "invalid_token",
			Err:     errors.New("authentication required"),
		})
		return
	}

	if _, err := h.Svc.Logout(r.Context(), principal.ID); err != nil {
		h.logError(r, "logout failed", err)
		WriteAppError(w, err)
		return
	}

	clearTokenCookies(w, h.Cookies)
	w.WriteHeader(http.StatusNoContent)
}

// ForgotPassword handles POST /auth/forgot-password.
func (h *AuthHandlers) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req forgotPasswordRequest
	if !DecodeJSON(w, r, &req) {
		return
	}

	if err := h.Svc.RequestPasswordReset(r.Context(), req.Email); err != nil {
		h.logError(r, "password reset request failed", err)
		WriteAppError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ResetPassword handles POST /auth/reset-password.
func (h *AuthHandlers) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req resetPasswordRequest
	if !DecodeJSON(w, r, &req) {
		return
	}
	if req.NewPassword == "" {
		WriteError(w, ErrorParams{
			Code:    http.StatusBadRequest,
			ErrCode: "validation",
			Err:     errors.New("newPassword is required"),
			Field:   "newPassword",
		})
		return
	}

	err := h.Svc.ResetPassword(r.Context(), req.Email, strings.TrimSpace(req.Token), req.NewPassword)
	if err != nil {
		h.logError(r, "password reset failed", err)
		WriteAppError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// UpdatePassword handles PUT /auth/update-password. Requires authentication.
func (h *AuthHandlers) UpdatePassword(w http.ResponseWriter, r *http.Request) {
	principal, ok := GetPrincipalFromContext(r.Context())
	if !ok {
		WriteError(w, ErrorParams{
			Code:    http.StatusUnauthorized,
			ErrCode: "invalid_token",
			Err:     errors.New("authentication required"),
		})
		return
	}

	var req updatePasswordRequest
	if !DecodeJSON(w, r, &req) {
		return
	}
	if req.NewPassword == "" {
		WriteError(w, ErrorParams{
			Code:    http.StatusBadRequest,
			ErrCode: "validation",
			Err:     errors.New("newPassword is required"),
			Field:   "newPassword",
		})
		return
	}

	err := h.Svc.UpdatePassword(r.Context(), principal.ID, req.CurrentPassword, req.NewPassword)
	if err != nil {
		h.logError(r, "password update failed", err)
		WriteAppError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// SetSecondFactor handles PUT /auth/2fa/{status} where status is "enable" or
// "disable". Requires authentication.
func (h *AuthHandlers) SetSecondFactor(w http.ResponseWriter, r *http.Request) {
	principal, ok := GetPrincipalFromContext(r.Context())
	if !ok {
		WriteError(w, ErrorParams{
			Code:    http.StatusUnauthorized,
			ErrCode: "invalid_token",
			Err:     errors.New("authentication required"),
		})
		return
	}

	var enabled bool
	switch r.PathValue("status") {
	case "enable":
		enabled = true
	case "disable":
		enabled = false
	default:
		WriteError(w, ErrorParams{
			Code:    http.StatusBadRequest,
			ErrCode: "validation",
			Err:     errors.New("status must be enable or disable"),
			Field:   "status",
		})
		return
	}

	if err := h.Svc.SetSecondFactorEnabled(r.Context(), principal.ID, enabled); err != nil {
		h.logError(r, "two-factor toggle failed", err)
		WriteAppError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *AuthHandlers) logError(r *http.Request, msg string, err error) {
	if h.Logger == nil {
		return
	}
	h.Logger.Warn(msg,
		slog.String("path", r.URL.Path),
		slog.Any("error", err),
	)
}
