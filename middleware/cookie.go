package middleware

import (
	"net/http"
	"time"

	goShop "github.com/MrEthical07/goShop"
)

const (
	AccessCookieName  = "accessToken"
	RefreshCookieName = "refreshToken"
)

// CookiePolicy supplies cookie lifetimes and the Secure switch.
// *goShop.Engine satisfies it.
type CookiePolicy interface {
	ProductionMode() bool
	AccessTTL() time.Duration
	RefreshTTL() time.Duration
}

// SetAuthCookies writes both token cookies. They are HttpOnly and
// SameSite=Strict, and Secure in production.
func SetAuthCookies(w http.ResponseWriter, tokens goShop.TokenPair, policy CookiePolicy) {
	secure := policy.ProductionMode()
	http.SetCookie(w, authCookie(AccessCookieName, tokens.AccessToken, policy.AccessTTL(), secure))
	http.SetCookie(w, authCookie(RefreshCookieName, tokens.RefreshToken, policy.RefreshTTL(), secure))
}

// ClearAuthCookies expires both token cookies.
func ClearAuthCookies(w http.ResponseWriter, policy CookiePolicy) {
	secure := policy != nil && policy.ProductionMode()
	for _, name := range []string{AccessCookieName, RefreshCookieName} {
		http.SetCookie(w, &http.Cookie{
			Name:     name,
			Value:    "",
			Path:     "/",
			MaxAge:   -1,
			Expires:  time.Unix(0, 0),
			HttpOnly: true,
			Secure:   secure,
			SameSite: http.SameSiteStrictMode,
		})
	}
}

// RefreshToken returns the refresh cookie value, or "".
func RefreshToken(r *http.Request) string {
	c, err := r.Cookie(RefreshCookieName)
	if err != nil {
		return ""
	}
	return c.Value
}

func authCookie(name, value string, ttl time.Duration, secure bool) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		MaxAge:   int(ttl / time.Second),
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteStrictMode,
	}
}
