package flows

import (
	"context"
	"errors"

	"github.com/MrEthical07/goShop/jwt"
	"github.com/MrEthical07/goShop/session"
)

// RefreshFailureKind classifies refresh flow failures for root-level mapping.
type RefreshFailureKind int

const (
	RefreshFailureNone RefreshFailureKind = iota
	RefreshFailureExpired
	RefreshFailureInvalid
	RefreshFailureUserMissing
	RefreshFailureRevoked
	RefreshFailureIssue
	RefreshFailureUpstream
)

// RefreshResult carries either the issued token pair or failure metadata.
type RefreshResult struct {
	Failure RefreshFailureKind
	Err     error
	UserID  string
	User    UserRecord
	Tokens  jwt.TokenPair
}

// RefreshDeps captures refresh flow dependencies.
type RefreshDeps struct {
	ParseRefresh      func(string) (*jwt.Claims, error)
	FindUserByID      func(context.Context, string) (UserRecord, error)
	Issue             func(userID string) (jwt.TokenPair, error)
	Fingerprint       func(string) string
	RotateFingerprint func(ctx context.Context, userID, presented, next string) error
	UserNotFound      error
}

// RunRefresh exchanges a current refresh token for a new pair. The registry
// swap is a compare-and-swap, so the presented token is single-use even under
// concurrent calls.
func RunRefresh(ctx context.Context, refreshToken string, deps RefreshDeps) RefreshResult {
	claims, err := deps.ParseRefresh(refreshToken)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return RefreshResult{Failure: RefreshFailureExpired, Err: err}
		}
		return RefreshResult{Failure: RefreshFailureInvalid, Err: err}
	}
	userID := claims.UserID

	user, err := deps.FindUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, deps.UserNotFound) {
			return RefreshResult{Failure: RefreshFailureUserMissing, Err: err, UserID: userID}
		}
		return RefreshResult{Failure: RefreshFailureUpstream, Err: err, UserID: userID}
	}

	pair, err := deps.Issue(userID)
	if err != nil {
		return RefreshResult{Failure: RefreshFailureIssue, Err: err, UserID: userID}
	}

	err = deps.RotateFingerprint(ctx, userID, deps.Fingerprint(refreshToken), deps.Fingerprint(pair.RefreshToken))
	if err != nil {
		if errors.Is(err, session.ErrNotFound) || errors.Is(err, session.ErrFingerprintMismatch) {
			return RefreshResult{Failure: RefreshFailureRevoked, Err: err, UserID: userID}
		}
		return RefreshResult{Failure: RefreshFailureUpstream, Err: err, UserID: userID}
	}

	return RefreshResult{UserID: userID, User: user, Tokens: pair}
}
