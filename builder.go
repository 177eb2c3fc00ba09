package goShop

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/MrEthical07/goShop/internal/audit"
	"github.com/MrEthical07/goShop/internal/flows"
	"github.com/MrEthical07/goShop/internal/rate"
	"github.com/MrEthical07/goShop/jwt"
	"github.com/MrEthical07/goShop/password"
	"github.com/MrEthical07/goShop/session"
	"github.com/redis/go-redis/v9"
)

// Builder assembles an [Engine]. A Builder can be used for one Build only.
type Builder struct {
	config Config
	redis  redis.UniversalClient

	users     UserStore
	auditSink AuditSink
	logger    *slog.Logger

	built bool
}

// New returns a Builder seeded with DefaultConfig.
func New() *Builder {
	return &Builder{
		config: DefaultConfig(),
	}
}

// WithConfig replaces the whole configuration.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cloneConfig(cfg)
	return b
}

// WithRedis sets the client used by the refresh-token registry and the
// login limiter.
func (b *Builder) WithRedis(client redis.UniversalClient) *Builder {
	b.redis = client
	return b
}

// WithUserStore sets the credential store.
func (b *Builder) WithUserStore(store UserStore) *Builder {
	b.users = store
	return b
}

// WithLogger sets the logger for warnings the flows cannot return.
func (b *Builder) WithLogger(logger *slog.Logger) *Builder {
	b.logger = logger
	return b
}

// WithAuditSink sets where audit events go. Without one they are discarded.
func (b *Builder) WithAuditSink(sink AuditSink) *Builder {
	b.auditSink = sink
	return b
}

func (b *Builder) WithMetricsEnabled(enabled bool) *Builder {
	b.config.Metrics.Enabled = enabled
	return b
}

func (b *Builder) WithLatencyHistograms(enabled bool) *Builder {
	b.config.Metrics.EnableLatencyHistograms = enabled
	return b
}

// Build validates the configuration and wires the Engine.
func (b *Builder) Build() (*Engine, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}

	cfg := cloneConfig(b.config)

	if b.redis == nil {
		return nil, errors.New("redis client required")
	}
	if b.users == nil {
		return nil, errors.New("user store required")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logger := b.logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	// -------- TOKENS --------
	jm, err := jwt.NewManager(jwt.Config{
		AccessTTL:     cfg.JWT.AccessTTL,
		RefreshTTL:    cfg.JWT.RefreshTTL,
		SigningMethod: jwt.SigningMethod(strings.ToLower(cfg.JWT.SigningMethod)),
		AccessKeys:    cfg.JWT.AccessKeys,
		RefreshKeys:   cfg.JWT.RefreshKeys,
		Issuer:        cfg.JWT.Issuer,
		Audience:      cfg.JWT.Audience,
		Leeway:        cfg.JWT.Leeway,
		Now:           cfg.JWT.Now,
	})
	if err != nil {
		return nil, err
	}

	// -------- PASSWORDS --------
	hasher, err := password.New(password.Config{
		Memory:      cfg.Password.Memory,
		Time:        cfg.Password.Time,
		Parallelism: cfg.Password.Parallelism,
		SaltLength:  cfg.Password.SaltLength,
		KeyLength:   cfg.Password.KeyLength,
		MinLength:   cfg.Password.MinLength,
	})
	if err != nil {
		return nil, err
	}

	engine := &Engine{
		config:     cfg,
		jwtManager: jm,
		registry:   session.NewRegistry(b.redis, cfg.Session.RedisPrefix),
		hasher:     hasher,
		audit: audit.NewDispatcher(audit.Config{
			Enabled:    cfg.Audit.Enabled,
			BufferSize: cfg.Audit.BufferSize,
			Now:        cfg.JWT.Now,
			Logger:     logger,
		}, b.auditSink),
		metrics: NewMetrics(cfg.Metrics),
		users:   b.users,
		logger:  logger,
	}
	if cfg.RateLimit.Enabled {
		engine.limiter = rate.New(b.redis, rate.Config{
			Prefix:           cfg.RateLimit.RedisPrefix,
			EnableIPThrottle: cfg.RateLimit.EnableIPThrottle,
			MaxAttempts:      cfg.RateLimit.MaxLoginAttempts,
			Window:           cfg.RateLimit.LoginWindow,
		})
	}

	engine.flows = flows.New(engine.flowDeps())

	b.built = true

	return engine, nil
}

// flowDeps binds the flow dependency sets to this engine's components.
func (e *Engine) flowDeps() flows.Deps {
	refreshTTL := e.jwtManager.RefreshTTL()

	findByID := func(ctx context.Context, id string) (flows.UserRecord, error) {
		u, err := e.users.FindUserByID(ctx, id)
		if err != nil {
			return flows.UserRecord{}, err
		}
		return toFlowUser(u), nil
	}
	findByEmail := func(ctx context.Context, email string) (flows.UserRecord, error) {
		u, err := e.users.FindUserByEmail(ctx, email)
		if err != nil {
			return flows.UserRecord{}, err
		}
		return toFlowUser(u), nil
	}
	parseAccess := func(token string) (*jwt.Claims, error) {
		return e.jwtManager.Parse(token, jwt.KindAccess)
	}
	parseRefresh := func(token string) (*jwt.Claims, error) {
		return e.jwtManager.Parse(token, jwt.KindRefresh)
	}
	metricInc := func(id int) { e.metricInc(MetricID(id)) }

	sess := flows.SessionDeps{
		Issue:       e.jwtManager.Issue,
		Fingerprint: session.Fingerprint,
		PutFingerprint: func(ctx context.Context, userID, fp string) error {
			return e.registry.Put(ctx, userID, fp, refreshTTL)
		},
	}

	login := flows.LoginDeps{
		UpgradeOnLogin:      e.config.Password.UpgradeOnLogin,
		ClientIPFromContext: clientIPFromContext,
		FindUserByEmail:     findByEmail,
		UpdatePasswordHash:  e.users.UpdatePasswordHash,
		VerifyPassword:      e.hasher.Verify,
		NeedsRehash:         e.hasher.NeedsRehash,
		HashPassword:        e.hasher.Hash,
		Session:             sess,
		MetricInc:           metricInc,
		EmitAudit:           e.emitAudit,
		EmitRateLimit:       e.emitRateLimit,
		Warn:                e.logger.Warn,
		Metrics: flows.LoginMetrics{
			Success:          int(MetricLoginSuccess),
			Failure:          int(MetricLoginFailure),
			RateLimited:      int(MetricLoginRateLimited),
			SessionCreated:   int(MetricSessionCreated),
			PasswordUpgraded: int(MetricPasswordUpgraded),
		},
		Events: flows.LoginEvents{
			Success:          auditEventLoginSuccess,
			Failure:          auditEventLoginFailure,
			RateLimited:      auditEventLoginRateLimited,
			PasswordUpgraded: auditEventPasswordUpgraded,
		},
		Errors: flows.LoginErrors{
			EngineNotReady:        ErrEngineNotReady,
			InvalidCredentials:    ErrInvalidCredentials,
			LoginRateLimited:      ErrLoginRateLimited,
			UserNotFound:          ErrUserNotFound,
			SessionCreationFailed: ErrSessionCreationFailed,
			Upstream:              ErrUpstream,
		},
	}
	if e.limiter != nil {
		login.CheckLoginRate = func(ctx context.Context, email, ip string) error {
			return mapLimiterErr(e.limiter.Check(ctx, email, ip))
		}
		login.RecordLoginFailure = func(ctx context.Context, email, ip string) error {
			return mapLimiterErr(e.limiter.RecordFailure(ctx, email, ip))
		}
		login.ResetLoginRate = e.limiter.Reset
	}

	return flows.Deps{
		Signup: flows.SignupDeps{
			DefaultRole:         string(RoleCustomer),
			CheckPasswordPolicy: e.hasher.CheckPolicy,
			HashPassword:        e.hasher.Hash,
			FindUserByEmail:     findByEmail,
			CreateUser: func(ctx context.Context, u flows.UserRecord) (flows.UserRecord, error) {
				rec := fromFlowUser(u)
				rec.CreatedAt = time.Now().UTC()
				created, err := e.users.CreateUser(ctx, rec)
				if err != nil {
					return flows.UserRecord{}, err
				}
				return toFlowUser(created), nil
			},
			Session:   sess,
			MetricInc: metricInc,
			EmitAudit: e.emitAudit,
			Metrics: flows.SignupMetrics{
				Success:        int(MetricSignupSuccess),
				Duplicate:      int(MetricSignupDuplicate),
				Failure:        int(MetricSignupFailure),
				SessionCreated: int(MetricSessionCreated),
			},
			Events: flows.SignupEvents{
				Success:   auditEventSignupSuccess,
				Failure:   auditEventSignupFailure,
				Duplicate: auditEventSignupDuplicate,
			},
			Errors: flows.SignupErrors{
				EngineNotReady:        ErrEngineNotReady,
				InvalidRequest:        ErrInvalidSignup,
				PasswordPolicy:        ErrPasswordPolicy,
				UserExists:            ErrUserExists,
				UserNotFound:          ErrUserNotFound,
				SessionCreationFailed: ErrSessionCreationFailed,
				Upstream:              ErrUpstream,
			},
		},
		Login: login,
		Refresh: flows.RefreshDeps{
			ParseRefresh: parseRefresh,
			FindUserByID: findByID,
			Issue:        e.jwtManager.Issue,
			Fingerprint:  session.Fingerprint,
			RotateFingerprint: func(ctx context.Context, userID, presented, next string) error {
				return e.registry.Rotate(ctx, userID, presented, next, refreshTTL)
			},
			UserNotFound: ErrUserNotFound,
		},
		Logout: flows.LogoutDeps{
			ParseRefresh:    parseRefresh,
			Fingerprint:     session.Fingerprint,
			DeleteIfCurrent: e.registry.DeleteIfCurrent,
		},
		Authenticate: flows.AuthenticateDeps{
			ParseAccess:  parseAccess,
			FindUserByID: findByID,
			UserNotFound: ErrUserNotFound,
		},
	}
}
