package flows

import (
	"context"
	"errors"

	"github.com/MrEthical07/goShop/jwt"
)

// AuthenticateFailureKind classifies gate failures. Each kind maps to exactly
// one client-visible outcome.
type AuthenticateFailureKind int

const (
	AuthenticateFailureNone AuthenticateFailureKind = iota
	AuthenticateFailureNoToken
	AuthenticateFailureExpired
	AuthenticateFailureInvalid
	AuthenticateFailureUserMissing
	AuthenticateFailureUpstream
)

// AuthenticateResult carries the resolved user or failure metadata.
type AuthenticateResult struct {
	Failure AuthenticateFailureKind
	Err     error
	User    UserRecord
}

// AuthenticateDeps captures gate dependencies.
type AuthenticateDeps struct {
	ParseAccess  func(string) (*jwt.Claims, error)
	FindUserByID func(context.Context, string) (UserRecord, error)
	UserNotFound error
}

// RunAuthenticate verifies an access token and resolves its user. The user
// lookup runs only after the signature and expiry checks pass.
func RunAuthenticate(ctx context.Context, accessToken string, deps AuthenticateDeps) AuthenticateResult {
	if accessToken == "" {
		return AuthenticateResult{Failure: AuthenticateFailureNoToken}
	}

	claims, err := deps.ParseAccess(accessToken)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return AuthenticateResult{Failure: AuthenticateFailureExpired, Err: err}
		}
		return AuthenticateResult{Failure: AuthenticateFailureInvalid, Err: err}
	}

	user, err := deps.FindUserByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, deps.UserNotFound) {
			return AuthenticateResult{Failure: AuthenticateFailureUserMissing, Err: err}
		}
		return AuthenticateResult{Failure: AuthenticateFailureUpstream, Err: err}
	}

	user.PasswordHash = ""
	return AuthenticateResult{User: user}
}
