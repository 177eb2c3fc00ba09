package flows

import (
	"context"
	"errors"
	"fmt"

	"github.com/MrEthical07/goShop/jwt"
)

// LoginResult is the flow-local login response shape.
type LoginResult struct {
	User   UserRecord
	Tokens jwt.TokenPair
}

// LoginMetrics carries metric IDs needed by the login flow.
type LoginMetrics struct {
	Success          int
	Failure          int
	RateLimited      int
	SessionCreated   int
	PasswordUpgraded int
}

// LoginEvents carries audit event names used by the login flow.
type LoginEvents struct {
	Success          string
	Failure          string
	RateLimited      string
	PasswordUpgraded string
}

// LoginErrors carries host-level sentinel errors used by the login flow.
type LoginErrors struct {
	EngineNotReady        error
	InvalidCredentials    error
	LoginRateLimited      error
	UserNotFound          error
	SessionCreationFailed error
	Upstream              error
}

// LoginDeps captures login dependencies. The rate funcs are optional; when
// CheckLoginRate returns Errors.LoginRateLimited the attempt is refused before
// any credential lookup.
type LoginDeps struct {
	UpgradeOnLogin bool

	ClientIPFromContext func(context.Context) string

	CheckLoginRate     func(ctx context.Context, email, ip string) error
	RecordLoginFailure func(ctx context.Context, email, ip string) error
	ResetLoginRate     func(ctx context.Context, email string) error

	FindUserByEmail    func(context.Context, string) (UserRecord, error)
	UpdatePasswordHash func(ctx context.Context, userID, hash string) error
	VerifyPassword     func(password, hash string) (bool, error)
	NeedsRehash        func(hash string) bool
	HashPassword       func(string) (string, error)
	Session            SessionDeps

	MetricInc     func(int)
	EmitAudit     AuditFunc
	EmitRateLimit func(ctx context.Context, scope string, metadata func() map[string]string)
	Warn          func(string, ...any)

	Metrics LoginMetrics
	Events  LoginEvents
	Errors  LoginErrors
}

// RunLogin verifies credentials and opens a session. Unknown email and wrong
// password produce the same error.
func RunLogin(ctx context.Context, email, password string, deps LoginDeps) (*LoginResult, error) {
	if deps.MetricInc == nil {
		deps.MetricInc = noopMetric
	}
	if deps.EmitAudit == nil {
		deps.EmitAudit = noopAudit
	}
	if deps.EmitRateLimit == nil {
		deps.EmitRateLimit = func(context.Context, string, func() map[string]string) {}
	}
	if deps.Warn == nil {
		deps.Warn = noopWarn
	}
	if deps.ClientIPFromContext == nil {
		deps.ClientIPFromContext = func(context.Context) string { return "" }
	}
	if deps.FindUserByEmail == nil || deps.VerifyPassword == nil || !deps.Session.ready() {
		return nil, deps.Errors.EngineNotReady
	}

	email = NormalizeEmail(email)
	ip := deps.ClientIPFromContext(ctx)
	meta := func() map[string]string {
		return map[string]string{"email": email}
	}

	if deps.CheckLoginRate != nil {
		if err := deps.CheckLoginRate(ctx, email, ip); err != nil {
			if !errors.Is(err, deps.Errors.LoginRateLimited) {
				return nil, err
			}
			deps.MetricInc(deps.Metrics.RateLimited)
			deps.EmitAudit(ctx, deps.Events.RateLimited, false, "", err, meta)
			deps.EmitRateLimit(ctx, "login", meta)
			return nil, deps.Errors.LoginRateLimited
		}
	}

	reject := func(userID string) (*LoginResult, error) {
		if deps.RecordLoginFailure != nil {
			if err := deps.RecordLoginFailure(ctx, email, ip); err != nil && !errors.Is(err, deps.Errors.LoginRateLimited) {
				deps.Warn("goShop: login failure not recorded", "error", err)
			}
		}
		deps.MetricInc(deps.Metrics.Failure)
		deps.EmitAudit(ctx, deps.Events.Failure, false, userID, deps.Errors.InvalidCredentials, meta)
		return nil, deps.Errors.InvalidCredentials
	}

	if email == "" || password == "" {
		return reject("")
	}

	user, err := deps.FindUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, deps.Errors.UserNotFound) {
			return reject("")
		}
		return nil, fmt.Errorf("%w: %v", deps.Errors.Upstream, err)
	}

	ok, err := deps.VerifyPassword(password, user.PasswordHash)
	if err != nil {
		deps.Warn("goShop: stored password hash unreadable", "user_id", user.ID, "error", err)
		return reject(user.ID)
	}
	if !ok {
		return reject(user.ID)
	}

	tokens, err := issueSession(ctx, user.ID, deps.Session)
	if err != nil {
		deps.MetricInc(deps.Metrics.Failure)
		wrapped := fmt.Errorf("%w: %v", deps.Errors.SessionCreationFailed, err)
		deps.EmitAudit(ctx, deps.Events.Failure, false, user.ID, wrapped, nil)
		return nil, wrapped
	}

	if deps.ResetLoginRate != nil {
		if err := deps.ResetLoginRate(ctx, email); err != nil {
			deps.Warn("goShop: login limiter reset failed", "error", err)
		}
	}

	if deps.UpgradeOnLogin && deps.NeedsRehash != nil && deps.HashPassword != nil &&
		deps.UpdatePasswordHash != nil && deps.NeedsRehash(user.PasswordHash) {
		if upgraded, err := deps.HashPassword(password); err != nil {
			deps.Warn("goShop: password rehash failed", "user_id", user.ID, "error", err)
		} else if err := deps.UpdatePasswordHash(ctx, user.ID, upgraded); err != nil {
			deps.Warn("goShop: password hash upgrade not stored", "user_id", user.ID, "error", err)
		} else {
			deps.MetricInc(deps.Metrics.PasswordUpgraded)
			deps.EmitAudit(ctx, deps.Events.PasswordUpgraded, true, user.ID, nil, nil)
		}
	}

	deps.MetricInc(deps.Metrics.Success)
	deps.MetricInc(deps.Metrics.SessionCreated)
	deps.EmitAudit(ctx, deps.Events.Success, true, user.ID, nil, nil)

	user.PasswordHash = ""
	return &LoginResult{User: user, Tokens: tokens}, nil
}
