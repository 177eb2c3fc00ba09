package goShop

import "errors"

var (
	// ErrNoToken is returned by Authenticate when no access token was presented.
	ErrNoToken = errors.New("no token provided")
	// ErrTokenExpired is returned for a correctly signed token past its expiry.
	ErrTokenExpired = errors.New("token expired")
	// ErrTokenInvalid covers bad signatures, malformed tokens and tokens whose
	// user no longer exists.
	ErrTokenInvalid = errors.New("invalid token")
	// ErrForbidden is returned by Authorize when the role does not match.
	ErrForbidden = errors.New("access denied")

	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrLoginRateLimited   = errors.New("login rate limited")
	ErrInvalidSignup      = errors.New("invalid signup request")
	ErrPasswordPolicy     = errors.New("password policy violation")

	// ErrUserExists is returned by Signup, and by UserStore.CreateUser
	// implementations, when the email is already registered.
	ErrUserExists = errors.New("user already exists")
	// ErrUserNotFound is returned by UserStore lookups that match nothing.
	ErrUserNotFound = errors.New("user not found")

	// ErrSessionCreationFailed is returned when tokens could not be issued or
	// the registry could not record the refresh fingerprint.
	ErrSessionCreationFailed = errors.New("session creation failed")
	// ErrRefreshRevoked is returned when a well-formed refresh token is no
	// longer the current one for its user.
	ErrRefreshRevoked = errors.New("refresh token revoked")

	// ErrUpstream wraps document-store and cache failures.
	ErrUpstream = errors.New("upstream failure")
	// ErrEngineNotReady is returned when an Engine was not built by a Builder.
	ErrEngineNotReady = errors.New("engine not initialized")
)
