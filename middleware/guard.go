package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	goShop "github.com/MrEthical07/goShop"
)

// Client-visible gate messages.
const (
	MsgNoToken      = "Unauthorized - No token provided"
	MsgTokenExpired = "Unauthorized - Token expired"
	MsgInvalidToken = "Unauthorized - Invalid token"
	MsgAdminOnly    = "Access denied - Admin Only"
	MsgServerError  = "Server error"
)

// Authenticator resolves an access token to an identity.
type Authenticator interface {
	Authenticate(ctx context.Context, accessToken string) (*goShop.Identity, error)
}

// Authorizer checks an identity against a required role.
type Authorizer interface {
	Authorize(ctx context.Context, identity *goShop.Identity, role goShop.Role) error
}

type identityContextKey struct{}

// IdentityFromContext returns the identity attached by [ProtectRoute].
func IdentityFromContext(ctx context.Context) (*goShop.Identity, bool) {
	id, ok := ctx.Value(identityContextKey{}).(*goShop.Identity)
	return id, ok && id != nil
}

// WithIdentity attaches identity to ctx.
func WithIdentity(ctx context.Context, identity *goShop.Identity) context.Context {
	return context.WithValue(ctx, identityContextKey{}, identity)
}

// ProtectRoute reads the access token from the accessToken cookie (or a
// Bearer Authorization header), authenticates it and attaches the identity to
// the request context. Every failure ends the chain.
func ProtectRoute(auth Authenticator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if auth == nil {
				writeMessage(w, http.StatusUnauthorized, MsgInvalidToken)
				return
			}

			identity, err := auth.Authenticate(r.Context(), AccessToken(r))
			if err != nil {
				status, msg := gateFailure(err)
				if status == http.StatusInternalServerError {
					writeJSON(w, status, map[string]string{"message": msg, "error": err.Error()})
					return
				}
				writeMessage(w, status, msg)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), identity)))
		})
	}
}

// RequireRole lets the request through only when the identity attached by
// [ProtectRoute] holds role. It must be composed after ProtectRoute.
func RequireRole(authz Authorizer, role goShop.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity, _ := IdentityFromContext(r.Context())

			var err error
			switch {
			case authz != nil:
				err = authz.Authorize(r.Context(), identity, role)
			case identity == nil || identity.Role != role:
				err = goShop.ErrForbidden
			}
			if err != nil {
				writeMessage(w, http.StatusForbidden, MsgAdminOnly)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// AdminRoute is RequireRole for [goShop.RoleAdmin].
func AdminRoute(authz Authorizer) func(http.Handler) http.Handler {
	return RequireRole(authz, goShop.RoleAdmin)
}

// AccessToken returns the token presented by r, preferring the cookie.
func AccessToken(r *http.Request) string {
	if c, err := r.Cookie(AccessCookieName); err == nil && c.Value != "" {
		return c.Value
	}
	if token, ok := bearerToken(r.Header.Get("Authorization")); ok {
		return token
	}
	return ""
}

func gateFailure(err error) (int, string) {
	switch {
	case errors.Is(err, goShop.ErrNoToken):
		return http.StatusUnauthorized, MsgNoToken
	case errors.Is(err, goShop.ErrTokenExpired):
		return http.StatusUnauthorized, MsgTokenExpired
	case errors.Is(err, goShop.ErrTokenInvalid):
		return http.StatusUnauthorized, MsgInvalidToken
	case errors.Is(err, goShop.ErrUpstream):
		return http.StatusInternalServerError, MsgServerError
	default:
		return http.StatusUnauthorized, MsgInvalidToken
	}
}

func bearerToken(value string) (string, bool) {
	const bearer = "Bearer "
	if !strings.HasPrefix(value, bearer) {
		return "", false
	}

	token := value[len(bearer):]
	if token == "" {
		return "", false
	}

	return token, true
}

func writeMessage(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"message": msg})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
