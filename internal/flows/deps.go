package flows

import (
	"context"

	"github.com/MrEthical07/goShop/jwt"
)

// Deps groups flow dependency sets. The root engine builds this once and
// delegates request methods to the matching flow implementation.
type Deps struct {
	Signup       SignupDeps
	Login        LoginDeps
	Refresh      RefreshDeps
	Logout       LogoutDeps
	Authenticate AuthenticateDeps
}

// UserRecord is the flow-local user model.
type UserRecord struct {
	ID           string
	Name         string
	Email        string
	PasswordHash string
	Role         string
}

// SessionDeps mints a token pair and records its refresh fingerprint.
type SessionDeps struct {
	Issue          func(userID string) (jwt.TokenPair, error)
	Fingerprint    func(token string) string
	PutFingerprint func(ctx context.Context, userID, fingerprint string) error
}

func (d SessionDeps) ready() bool {
	return d.Issue != nil && d.Fingerprint != nil && d.PutFingerprint != nil
}

// issueSession mints a pair for userID and overwrites the registry entry,
// revoking any earlier refresh token for that user.
func issueSession(ctx context.Context, userID string, d SessionDeps) (jwt.TokenPair, error) {
	pair, err := d.Issue(userID)
	if err != nil {
		return jwt.TokenPair{}, err
	}
	if err := d.PutFingerprint(ctx, userID, d.Fingerprint(pair.RefreshToken)); err != nil {
		return jwt.TokenPair{}, err
	}
	return pair, nil
}

// AuditFunc emits one audit event.
type AuditFunc func(ctx context.Context, event string, success bool, userID string, err error, metadata func() map[string]string)

func noopAudit(context.Context, string, bool, string, error, func() map[string]string) {}

func noopMetric(int) {}

func noopWarn(string, ...any) {}
