package flows

import (
	"context"
	"errors"

	"github.com/MrEthical07/goShop/jwt"
	"github.com/MrEthical07/goShop/session"
)

// LogoutDeps captures logout flow dependencies.
type LogoutDeps struct {
	ParseRefresh    func(string) (*jwt.Claims, error)
	Fingerprint     func(string) string
	DeleteIfCurrent func(ctx context.Context, userID, fingerprint string) error
}

// LogoutResult reports what logout did. Err is set only for registry backend
// failures; an unreadable or superseded token is not an error.
type LogoutResult struct {
	UserID  string
	Revoked bool
	Err     error
}

// RunLogout revokes the registry entry when refreshToken is the current one
// for its user. A superseded token leaves the newer session untouched.
func RunLogout(ctx context.Context, refreshToken string, deps LogoutDeps) LogoutResult {
	if refreshToken == "" {
		return LogoutResult{}
	}
	claims, err := deps.ParseRefresh(refreshToken)
	if err != nil {
		return LogoutResult{}
	}

	err = deps.DeleteIfCurrent(ctx, claims.UserID, deps.Fingerprint(refreshToken))
	switch {
	case err == nil:
		return LogoutResult{UserID: claims.UserID, Revoked: true}
	case errors.Is(err, session.ErrNotFound), errors.Is(err, session.ErrFingerprintMismatch):
		return LogoutResult{UserID: claims.UserID}
	default:
		return LogoutResult{UserID: claims.UserID, Err: err}
	}
}
