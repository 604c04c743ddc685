package config

import "time"

// AuthConfig groups token signing, session, and one-time-secret configuration.
// All durations are read once at startup; there is no runtime reloading.
type AuthConfig struct {
	// JWTSecret is the HMAC secret used to sign access tokens.
	// Required for production; a non-empty value must be supplied.
	JWTSecret string `env:"JWT_SECRET,required"`

	// AccessTokenTTL is the lifetime of a signed access token.
	AccessTokenTTL time.Duration `env:"ACCESS_TOKEN_TTL" envDefault:"15m"`

	// RefreshTokenTTL is the lifetime of a server-tracked refresh token.
	RefreshTokenTTL time.Duration `env:"REFRESH_TOKEN_TTL" envDefault:"24h"`

	// TwoFactorCodeTTL is the expiry-after-write duration for emailed 2FA codes.
	TwoFactorCodeTTL time.Duration `env:"TWO_FACTOR_CODE_TTL" envDefault:"5m"`

	// ResetTokenTTL is the expiry-after-write duration for password-reset tokens.
	ResetTokenTTL time.Duration `env:"RESET_TOKEN_TTL" envDefault:"30m"`

	// AccessCookieName is the cookie carrying the signed access token.
	AccessCookieName string `env:"ACCESS_COOKIE_NAME" envDefault:"bakery_jwt"`

	// RefreshCookieName is the cookie carrying the opaque refresh token.
	RefreshCookieName string `env:"REFRESH_COOKIE_NAME" envDefault:"bakery_jwt_refresh"`

	// RefreshCookiePath scopes the refresh cookie to the refresh endpoint only.
	RefreshCookiePath string `env:"REFRESH_COOKIE_PATH" envDefault:"/auth/refresh-token"`
}

// Minimum sane durations; values below these are clamped by Sanitize.
const (
	minTokenTTL  = time.Minute
	minSecretTTL = 30 * time.Second
)

// Sanitize applies guardrails to auth configuration values.
func (a *AuthConfig) Sanitize() {
	if a.AccessTokenTTL < minTokenTTL {
		a.AccessTokenTTL = minTokenTTL
	}
	if a.RefreshTokenTTL < a.AccessTokenTTL {
		a.RefreshTokenTTL = a.AccessTokenTTL
	}
	if a.TwoFactorCodeTTL < minSecretTTL {
		a.TwoFactorCodeTTL = minSecretTTL
	}
	if a.ResetTokenTTL < minSecretTTL {
		a.ResetTokenTTL = minSecretTTL
	}
	if a.RefreshCookiePath == "" {
		a.RefreshCookiePath = "/auth/refresh-token"
	}
}
