package flows

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/MrEthical07/goShop/jwt"
)

// SignupRequest is the flow-local signup input.
type SignupRequest struct {
	Name     string
	Email    string
	Password string
}

// SignupResult carries the created user and the first token pair.
type SignupResult struct {
	User   UserRecord
	Tokens jwt.TokenPair
}

// SignupMetrics carries metric IDs needed by the signup flow.
type SignupMetrics struct {
	Success        int
	Duplicate      int
	Failure        int
	SessionCreated int
}

// SignupEvents carries audit event names used by the signup flow.
type SignupEvents struct {
	Success   string
	Failure   string
	Duplicate string
}

// SignupErrors carries host-level sentinel errors used by the signup flow.
type SignupErrors struct {
	EngineNotReady        error
	InvalidRequest        error
	PasswordPolicy        error
	UserExists            error
	UserNotFound          error
	SessionCreationFailed error
	Upstream              error
}

// SignupDeps captures signup dependencies.
type SignupDeps struct {
	DefaultRole string

	CheckPasswordPolicy func(string) error
	HashPassword        func(string) (string, error)
	FindUserByEmail     func(context.Context, string) (UserRecord, error)
	CreateUser          func(context.Context, UserRecord) (UserRecord, error)
	Session             SessionDeps

	MetricInc func(int)
	EmitAudit AuditFunc

	Metrics SignupMetrics
	Events  SignupEvents
	Errors  SignupErrors
}

// NormalizeEmail trims and lower-cases an email address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// RunSignup creates a customer account and opens its first session.
func RunSignup(ctx context.Context, req SignupRequest, deps SignupDeps) (*SignupResult, error) {
	if deps.MetricInc == nil {
		deps.MetricInc = noopMetric
	}
	if deps.EmitAudit == nil {
		deps.EmitAudit = noopAudit
	}
	if deps.CheckPasswordPolicy == nil ||
		deps.HashPassword == nil ||
		deps.FindUserByEmail == nil ||
		deps.CreateUser == nil ||
		!deps.Session.ready() {
		return nil, deps.Errors.EngineNotReady
	}

	name := strings.TrimSpace(req.Name)
	email := NormalizeEmail(req.Email)
	fail := func(err error) (*SignupResult, error) {
		deps.MetricInc(deps.Metrics.Failure)
		deps.EmitAudit(ctx, deps.Events.Failure, false, "", err, func() map[string]string {
			return map[string]string{"email": email}
		})
		return nil, err
	}
	duplicate := func() (*SignupResult, error) {
		deps.MetricInc(deps.Metrics.Duplicate)
		deps.EmitAudit(ctx, deps.Events.Duplicate, false, "", deps.Errors.UserExists, func() map[string]string {
			return map[string]string{"email": email}
		})
		return nil, deps.Errors.UserExists
	}

	if name == "" || email == "" || !strings.Contains(email, "@") {
		return fail(deps.Errors.InvalidRequest)
	}
	if err := deps.CheckPasswordPolicy(req.Password); err != nil {
		return fail(fmt.Errorf("%w: %v", deps.Errors.PasswordPolicy, err))
	}

	_, err := deps.FindUserByEmail(ctx, email)
	switch {
	case err == nil:
		return duplicate()
	case !errors.Is(err, deps.Errors.UserNotFound):
		return fail(fmt.Errorf("%w: %v", deps.Errors.Upstream, err))
	}

	hash, err := deps.HashPassword(req.Password)
	if err != nil {
		return fail(err)
	}

	user, err := deps.CreateUser(ctx, UserRecord{
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		Role:         deps.DefaultRole,
	})
	if err != nil {
		// a concurrent signup can pass the lookup and lose on the unique index
		if errors.Is(err, deps.Errors.UserExists) {
			return duplicate()
		}
		return fail(fmt.Errorf("%w: %v", deps.Errors.Upstream, err))
	}

	tokens, err := issueSession(ctx, user.ID, deps.Session)
	if err != nil {
		return fail(fmt.Errorf("%w: %v", deps.Errors.SessionCreationFailed, err))
	}

	deps.MetricInc(deps.Metrics.Success)
	deps.MetricInc(deps.Metrics.SessionCreated)
	deps.EmitAudit(ctx, deps.Events.Success, true, user.ID, nil, nil)

	user.PasswordHash = ""
	return &SignupResult{User: user, Tokens: tokens}, nil
}
