package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	goShop "github.com/MrEthical07/goShop"
	"github.com/MrEthical07/goShop/catalog"
	"github.com/MrEthical07/goShop/internal/stores"
	"github.com/MrEthical07/goShop/middleware"
	"golang.org/x/time/rate"
)

// AuthEngine is the slice of *goShop.Engine the handlers use.
type AuthEngine interface {
	middleware.Authenticator
	middleware.Authorizer
	middleware.CookiePolicy

	Signup(ctx context.Context, req goShop.SignupRequest) (*goShop.SessionResult, error)
	Login(ctx context.Context, email, password string) (*goShop.SessionResult, error)
	Refresh(ctx context.Context, refreshToken string) (*goShop.SessionResult, error)
	Logout(ctx context.Context, refreshToken string) error
}

// Catalog is the slice of *catalog.Service the handlers use.
type Catalog interface {
	ListFeaturedJSON(ctx context.Context) ([]byte, error)
	ToggleFeatured(ctx context.Context, id string) (catalog.Product, error)
	ListProducts(ctx context.Context) ([]catalog.Product, error)
	ListByCategory(ctx context.Context, category string) ([]catalog.Product, error)
	Recommendations(ctx context.Context) ([]catalog.Product, error)
	CreateProduct(ctx context.Context, p catalog.Product) (catalog.Product, error)
	DeleteProduct(ctx context.Context, id string) error
}

// Analytics produces the admin dashboard summary.
type Analytics interface {
	Summary(ctx context.Context) (stores.AnalyticsData, error)
}

// Config tunes the HTTP layer.
type Config struct {
	// SignupPerMinute and SignupBurst bound signups per client IP.
	SignupPerMinute int
	SignupBurst     int
	// TrustProxy takes the client IP from X-Forwarded-For.
	TrustProxy   bool
	MaxBodyBytes int64
}

func (c *Config) setDefaults() {
	if c.SignupPerMinute <= 0 {
		c.SignupPerMinute = 10
	}
	if c.SignupBurst <= 0 {
		c.SignupBurst = c.SignupPerMinute
	}
	if c.MaxBodyBytes <= 0 {
		c.MaxBodyBytes = 1 << 20
	}
}

// Deps are the collaborators of a Server. Auth and Catalog are required.
type Deps struct {
	Auth      AuthEngine
	Catalog   Catalog
	Analytics Analytics
	// Metrics serves GET /metrics when set.
	Metrics http.Handler
	Logger  *slog.Logger
}

// Server routes the shop API onto an http.ServeMux.
type Server struct {
	cfg       Config
	mux       *http.ServeMux
	handler   http.Handler
	auth      AuthEngine
	catalog   Catalog
	analytics Analytics
	metrics   http.Handler
	logger    *slog.Logger

	rlSignupIP *multiLimiter
}

var errMissingDeps = errors.New("server: auth engine and catalog are required")

// New builds a Server and registers its routes.
func New(cfg Config, deps Deps) (*Server, error) {
	if deps.Auth == nil || deps.Catalog == nil {
		return nil, errMissingDeps
	}
	cfg.setDefaults()

	logger := deps.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	s := &Server{
		cfg:       cfg,
		mux:       http.NewServeMux(),
		auth:      deps.Auth,
		catalog:   deps.Catalog,
		analytics: deps.Analytics,
		metrics:   deps.Metrics,
		logger:    logger,
		rlSignupIP: newMultiLimiter(
			rate.Limit(float64(cfg.SignupPerMinute)/time.Minute.Seconds()),
			cfg.SignupBurst,
			time.Hour,
		),
	}
	s.routes()
	s.handler = rescueing(logging(s.clientIP(s.mux), logger), logger)
	return s, nil
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}
