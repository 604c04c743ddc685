package httpx

import (
	"net/http"
	"time"

	domainauth "github.com/syberry/bakery-api/internal/domain/auth"
)

// CookieSettings describes how the token cookies are issued. The refresh
// cookie is scoped to the refresh endpoint so browsers never send the
// long-lived credential anywhere else.
type CookieSettings struct {
	AccessName  string
	RefreshName string
	RefreshPath string
	Domain      string
	Secure      bool
}

// setTokenCookies attaches both token cookies to the response.
func setTokenCookies(w http.ResponseWriter, cs CookieSettings, tokens domainauth.TokenPair) {
	http.SetCookie(w, &http.Cookie{
		Name:     cs.AccessName,
		Value:    tokens.AccessToken,
		Path:     "/",
		Domain:   cs.Domain,
		Expires:  tokens.AccessExpiresAt,
		HttpOnly: true,
		Secure:   cs.Secure,
		SameSite: http.SameSiteStrictMode,
	})
	http.SetCookie(w, &http.Cookie{
		Name:     cs.RefreshName,
		Value:    tokens.RefreshToken,
		Path:     cs.RefreshPath,
		Domain:   cs.Domain,
		Expires:  tokens.RefreshExpiresAt,
		HttpOnly: true,
		Secure:   cs.Secure,
		SameSite: http.SameSiteStrictMode,
	})
}

// clearTokenCookies expires both token cookies.
func clearTokenCookies(w http.ResponseWriter, cs CookieSettings) {
	expired := time.Unix(0, 0)
	http.SetCookie(w, &http.Cookie{
		Name:     cs.AccessName,
		Value:    "",
		Path:     "/",
		Domain:   cs.Domain,
		Expires:  expired,
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   cs.Secure,
		SameSite: http.SameSiteStrictMode,
	})
	http.SetCookie(w, &http.Cookie{
		Name:     cs.RefreshName,
		Value:    "",
		Path:     cs.RefreshPath,
		Domain:   cs.Domain,
		Expires:  expired,
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   cs.Secure,
		SameSite: http.SameSiteStrictMode,
	})
}
