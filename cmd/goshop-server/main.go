// Command goshop-server runs the shop API over MongoDB and Redis.
//
// Configuration comes from the environment (and a .env file when present):
// PORT, MONGO_URI, MONGO_DB, REDIS_URL, ACCESS_TOKEN_SECRET,
// REFRESH_TOKEN_SECRET, APP_ENV or NODE_ENV, LOG_LEVEL, LOG_FORMAT,
// LOG_OUTPUT, CATALOG_RECONCILE_INTERVAL, METRICS_ENABLED, TRUST_PROXY and
// SIGNUP_PER_MINUTE.
package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	goShop "github.com/MrEthical07/goShop"
	"github.com/MrEthical07/goShop/catalog"
	"github.com/MrEthical07/goShop/internal/logging"
	"github.com/MrEthical07/goShop/internal/server"
	"github.com/MrEthical07/goShop/internal/stores"
	"github.com/MrEthical07/goShop/metrics/export/prometheus"
	"github.com/redis/go-redis/v9"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "goshop-server:", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	logger, closeLog, err := logging.New(logging.Config{
		AppName: "goshop",
		Output:  cfg.LogOutput,
		Level:   cfg.LogLevel,
		JSON:    cfg.LogFormat == "json",
	})
	if err != nil {
		return err
	}
	defer closeLog()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// ---------- infrastructure ----------
	mongoClient, err := stores.Connect(ctx, cfg.MongoURI)
	if err != nil {
		return err
	}
	defer func() {
		dctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = mongoClient.Disconnect(dctx)
	}()
	db := mongoClient.Database(cfg.MongoDB)
	if err := stores.EnsureIndexes(ctx, db); err != nil {
		return err
	}

	redisOpts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return fmt.Errorf("parse REDIS_URL: %w", err)
	}
	rdb := redis.NewClient(redisOpts)
	defer rdb.Close()
	if err := rdb.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping: %w", err)
	}

	// ---------- engine ----------
	engineCfg := goShop.DefaultConfig()
	engineCfg.JWT.AccessKeys.PrivateKey = []byte(cfg.AccessKey)
	engineCfg.JWT.RefreshKeys.PrivateKey = []byte(cfg.RefreshKey)
	engineCfg.Security.ProductionMode = cfg.Production
	engineCfg.Metrics.Enabled = cfg.Metrics

	engine, err := goShop.New().
		WithConfig(engineCfg).
		WithRedis(rdb).
		WithUserStore(stores.NewMongoUserStore(db.Collection(stores.UsersCollection))).
		WithLogger(logger).
		WithAuditSink(goShop.NewSlogSink(logger.With("component", "audit"))).
		Build()
	if err != nil {
		return fmt.Errorf("build engine: %w", err)
	}
	defer engine.Close()

	// ---------- catalog ----------
	metrics := engine.Metrics()
	shop := catalog.NewService(
		stores.NewMongoProductStore(db.Collection(stores.ProductsCollection)),
		catalog.NewRedisCache(rdb),
		catalog.Config{
			Logger:                logger.With("component", "catalog"),
			OnCacheHit:            func() { metrics.Inc(goShop.MetricFeaturedCacheHit) },
			OnCacheMiss:           func() { metrics.Inc(goShop.MetricFeaturedCacheMiss) },
			OnCacheRefreshFailure: func() { metrics.Inc(goShop.MetricFeaturedCacheRefreshFailure) },
			OnReconciled:          func() { metrics.Inc(goShop.MetricFeaturedCacheReconciled) },
		},
	)
	reconciler := catalog.StartReconciler(ctx, shop, cfg.Reconcile)
	defer reconciler.Close()

	// ---------- http ----------
	deps := server.Deps{
		Auth:      engine,
		Catalog:   shop,
		Analytics: stores.NewMongoAnalytics(db),
		Logger:    logger,
	}
	if cfg.Metrics {
		deps.Metrics = prometheus.NewExporter(engine).Handler()
	}
	srv, err := server.New(server.Config{
		SignupPerMinute: cfg.SignupPerIP,
		TrustProxy:      cfg.TrustProxy,
	}, deps)
	if err != nil {
		return err
	}

	httpServer := &http.Server{
		Addr:              net.JoinHostPort("", cfg.Port),
		Handler:           srv,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", "addr", httpServer.Addr, "production", cfg.Production)
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen: %w", err)
		}
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown", "error", err)
	}
	return nil
}
