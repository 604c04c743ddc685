package httpx

import (
	"log/slog"
	"net/http"

	domainauth "github.com/syberry/bakery-api/internal/domain/auth"
	"github.com/syberry/bakery-api/internal/observability/statsd"
	"github.com/syberry/bakery-api/internal/ports"
	"github.com/syberry/bakery-api/internal/service"
)

// RouterServices holds everything the HTTP router needs.
type RouterServices struct {
	Auth    *service.AuthService
	Roles   *service.RoleService
	Tokens  ports.TokenIssuer
	Users   ports.UserStore
	Cookies CookieSettings
	Logger  *slog.Logger
	Metrics statsd.Sink
}

// NewRouter wires the handlers, per-route guards, and outer middleware.
func NewRouter(services RouterServices) http.Handler {
	logger := services.Logger
	if logger == nil {
		logger = slog.Default()
	}

	mux := http.NewServeMux()

	authenticator := &Authenticator{
		Tokens:     services.Tokens,
		Users:      services.Users,
		CookieName: services.Cookies.AccessName,
	}
	requireAuth := RequireAuth(authenticator)
	adminOnly := RequireAnyRole(domainauth.RoleAdmin)
	adminOrHR := RequireAnyRole(domainauth.RoleAdmin, domainauth.RoleHR)

	authHandlers := &AuthHandlers{Svc: services.Auth, Cookies: services.Cookies, Logger: logger}
	mux.HandleFunc("POST /auth/login", authHandlers.Login)
	mux.HandleFunc("POST /auth/email-verification", authHandlers.VerifySecondFactor)
	mux.HandleFunc("POST /auth/refresh-token", authHandlers.Refresh)
	mux.HandleFunc("POST /auth/forgot-password", authHandlers.ForgotPassword)
	mux.HandleFunc("POST /auth/reset-password", authHandlers.ResetPassword)
	mux.Handle("POST /auth/logout", requireAuth(http.HandlerFunc(authHandlers.Logout)))
	mux.Handle("PUT /auth/update-password", requireAuth(http.HandlerFunc(authHandlers.UpdatePassword)))
	mux.Handle("PUT /auth/2fa/{status}", requireAuth(http.HandlerFunc(authHandlers.SetSecondFactor)))

	if services.Roles != nil {
		adminHandlers := &UserAdminHandlers{Roles: services.Roles, Auth: services.Auth, Logger: logger}
		mux.Handle("POST /users/{id}/roles",
			Chain(http.HandlerFunc(adminHandlers.GrantRole), requireAuth, adminOnly))
		mux.Handle("DELETE /users/{id}/roles/{role}",
			Chain(http.HandlerFunc(adminHandlers.RevokeRole), requireAuth, adminOnly))
		mux.Handle("POST /users/{id}/password-reset",
			Chain(http.HandlerFunc(adminHandlers.TriggerPasswordReset), requireAuth, adminOrHR))
	}

	mux.HandleFunc("GET /healthz", healthHandler)
	mux.HandleFunc("HEAD /healthz", healthHandler)

	return Chain(mux,
		Recover(logger),
		Logging(logger),
		Metrics(services.Metrics),
	)
}
