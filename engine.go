package goShop

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/MrEthical07/goShop/internal/audit"
	"github.com/MrEthical07/goShop/internal/flows"
	"github.com/MrEthical07/goShop/internal/rate"
	"github.com/MrEthical07/goShop/jwt"
	"github.com/MrEthical07/goShop/password"
	"github.com/MrEthical07/goShop/session"
)

// Engine runs the account flows and the request gate. Build one with
// [Builder]; an Engine is immutable afterwards and safe for concurrent use.
type Engine struct {
	config     Config
	flows      flows.Service
	jwtManager *jwt.Manager
	registry   *session.Registry
	limiter    *rate.Limiter
	hasher     *password.Hasher
	audit      *audit.Dispatcher
	metrics    *Metrics
	users      UserStore
	logger     *slog.Logger
}

// Close stops the audit dispatcher after draining queued events.
func (e *Engine) Close() {
	if e == nil {
		return
	}
	if e.audit != nil {
		e.audit.Close()
	}
}

// AuditDropped returns how many audit events were dropped on a full buffer.
func (e *Engine) AuditDropped() uint64 {
	if e == nil || e.audit == nil {
		return 0
	}
	return e.audit.Dropped()
}

// Metrics returns the engine's counter set. Components outside the engine
// (the catalog cache hooks) record into it.
func (e *Engine) Metrics() *Metrics {
	if e == nil {
		return nil
	}
	return e.metrics
}

// MetricsSnapshot returns a point-in-time copy of all counters.
func (e *Engine) MetricsSnapshot() MetricsSnapshot {
	if e == nil || e.metrics == nil {
		return MetricsSnapshot{
			Counters:   map[MetricID]uint64{},
			Histograms: map[MetricID][]uint64{},
		}
	}
	return e.metrics.Snapshot()
}

// ProductionMode reports whether cookies should be marked Secure.
func (e *Engine) ProductionMode() bool {
	return e != nil && e.config.Security.ProductionMode
}

// AccessTTL is the access token lifetime, used for the cookie max-age.
func (e *Engine) AccessTTL() time.Duration {
	if e == nil {
		return 0
	}
	return e.config.JWT.AccessTTL
}

// RefreshTTL is the refresh token lifetime, used for the cookie max-age.
func (e *Engine) RefreshTTL() time.Duration {
	if e == nil {
		return 0
	}
	return e.config.JWT.RefreshTTL
}

func (e *Engine) metricInc(id MetricID) {
	if e == nil || e.metrics == nil {
		return
	}
	e.metrics.Inc(id)
}

func (e *Engine) ready() bool {
	return e != nil && e.flows.Initialized()
}

// Signup creates a customer account and opens its first session.
//
// It returns ErrInvalidSignup for a missing name or malformed email,
// ErrPasswordPolicy for a short password and ErrUserExists when the email is
// already registered. ErrSessionCreationFailed means the user was created but
// the session could not be recorded.
func (e *Engine) Signup(ctx context.Context, req SignupRequest) (*SessionResult, error) {
	if !e.ready() {
		return nil, ErrEngineNotReady
	}
	res, err := e.flows.Signup(ctx, flows.SignupRequest{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		return nil, err
	}
	return sessionResult(res.User, res.Tokens), nil
}

// Login verifies credentials and opens a session, revoking any earlier
// refresh token for the user. An unknown email and a wrong password both
// return ErrInvalidCredentials.
func (e *Engine) Login(ctx context.Context, email, password string) (*SessionResult, error) {
	if !e.ready() {
		return nil, ErrEngineNotReady
	}
	res, err := e.flows.Login(ctx, email, password)
	if err != nil {
		return nil, err
	}
	return sessionResult(res.User, res.Tokens), nil
}

// Refresh exchanges the current refresh token for a new pair. The presented
// token is single-use: a second exchange, or one after a newer login, returns
// ErrRefreshRevoked.
func (e *Engine) Refresh(ctx context.Context, refreshToken string) (*SessionResult, error) {
	if !e.ready() {
		return nil, ErrEngineNotReady
	}
	if refreshToken == "" {
		e.metricInc(MetricRefreshFailure)
		return nil, ErrNoToken
	}

	res := e.flows.Refresh(ctx, refreshToken)
	if res.Failure == flows.RefreshFailureNone {
		e.metricInc(MetricRefreshSuccess)
		e.emitAudit(ctx, auditEventRefreshSuccess, true, res.UserID, nil, nil)
		return sessionResult(res.User, res.Tokens), nil
	}

	e.metricInc(MetricRefreshFailure)
	var err error
	switch res.Failure {
	case flows.RefreshFailureExpired:
		err = ErrTokenExpired
	case flows.RefreshFailureInvalid, flows.RefreshFailureUserMissing:
		err = ErrTokenInvalid
	case flows.RefreshFailureRevoked:
		e.metricInc(MetricRefreshRevoked)
		e.emitAudit(ctx, auditEventRefreshRevoked, false, res.UserID, ErrRefreshRevoked, nil)
		return nil, ErrRefreshRevoked
	case flows.RefreshFailureIssue:
		err = fmt.Errorf("%w: %v", ErrSessionCreationFailed, res.Err)
	default:
		err = fmt.Errorf("%w: %v", ErrUpstream, res.Err)
	}
	e.emitAudit(ctx, auditEventRefreshInvalid, false, res.UserID, err, nil)
	return nil, err
}

// Logout revokes refreshToken when it is the current one for its user. An
// empty, unreadable or superseded token is not an error. The returned error
// only reports a registry failure; callers clear cookies regardless.
func (e *Engine) Logout(ctx context.Context, refreshToken string) error {
	if !e.ready() {
		return ErrEngineNotReady
	}
	res := e.flows.Logout(ctx, refreshToken)
	if res.Err != nil {
		return fmt.Errorf("%w: %v", ErrUpstream, res.Err)
	}
	if res.Revoked {
		e.metricInc(MetricLogout)
		e.emitAudit(ctx, auditEventLogout, true, res.UserID, nil, nil)
	}
	return nil
}

// Authenticate verifies an access token and resolves the user it names.
//
// The error is ErrNoToken, ErrTokenExpired or ErrTokenInvalid for token
// problems (a deleted user is ErrTokenInvalid), and wraps ErrUpstream when the
// user store could not be read.
func (e *Engine) Authenticate(ctx context.Context, accessToken string) (*Identity, error) {
	if !e.ready() {
		return nil, ErrEngineNotReady
	}
	if e.metrics != nil && e.metrics.Enabled() {
		start := time.Now()
		defer func() { e.metrics.Observe(MetricAuthenticateLatency, time.Since(start)) }()
	}

	res := e.flows.Authenticate(ctx, accessToken)
	switch res.Failure {
	case flows.AuthenticateFailureNone:
		e.metricInc(MetricAuthSuccess)
		return identityFromFlow(res.User), nil
	case flows.AuthenticateFailureNoToken:
		e.metricInc(MetricAuthNoToken)
		return nil, ErrNoToken
	case flows.AuthenticateFailureExpired:
		e.metricInc(MetricAuthExpired)
		return nil, ErrTokenExpired
	case flows.AuthenticateFailureInvalid, flows.AuthenticateFailureUserMissing:
		e.metricInc(MetricAuthInvalid)
		return nil, ErrTokenInvalid
	default:
		e.metricInc(MetricAuthUpstreamFailure)
		e.logger.ErrorContext(ctx, "goShop: user lookup failed during authentication", "error", res.Err)
		return nil, fmt.Errorf("%w: %v", ErrUpstream, res.Err)
	}
}

// Authorize returns ErrForbidden unless identity holds role.
func (e *Engine) Authorize(ctx context.Context, identity *Identity, role Role) error {
	if identity != nil && identity.Role == role {
		return nil
	}
	userID := ""
	if identity != nil {
		userID = identity.ID
	}
	e.metricInc(MetricForbidden)
	e.emitAudit(ctx, auditEventAuthorizeDenied, false, userID, ErrForbidden, func() map[string]string {
		return map[string]string{"required_role": string(role)}
	})
	return ErrForbidden
}

/*
====================================
RECORD CONVERSION
====================================
*/

func toFlowUser(u UserRecord) flows.UserRecord {
	return flows.UserRecord{
		ID:           u.ID,
		Name:         u.Name,
		Email:        u.Email,
		PasswordHash: u.PasswordHash,
		Role:         string(u.Role),
	}
}

func fromFlowUser(u flows.UserRecord) UserRecord {
	return UserRecord{
		ID:           u.ID,
		Name:         u.Name,
		Email:        u.Email,
		PasswordHash: u.PasswordHash,
		Role:         Role(u.Role),
	}
}

func identityFromFlow(u flows.UserRecord) *Identity {
	return fromFlowUser(u).Identity()
}

func sessionResult(u flows.UserRecord, pair jwt.TokenPair) *SessionResult {
	return &SessionResult{
		User: identityFromFlow(u),
		Tokens: TokenPair{
			AccessToken:      pair.AccessToken,
			RefreshToken:     pair.RefreshToken,
			AccessExpiresAt:  pair.AccessExpiresAt,
			RefreshExpiresAt: pair.RefreshExpiresAt,
		},
	}
}

// mapLimiterErr converts limiter errors into root sentinels.
func mapLimiterErr(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, rate.ErrRateLimited):
		return ErrLoginRateLimited
	default:
		return fmt.Errorf("%w: %v", ErrUpstream, err)
	}
}
