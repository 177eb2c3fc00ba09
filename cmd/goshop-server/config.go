package main

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type config struct {
	Port        string
	MongoURI    string
	MongoDB     string
	RedisURL    string
	AccessKey   string
	RefreshKey  string
	Production  bool
	LogLevel    string
	LogFormat   string
	LogOutput   string
	Reconcile   time.Duration
	Metrics     bool
	TrustProxy  bool
	SignupPerIP int
}

// loadConfig reads .env when present, then the process environment.
func loadConfig() (config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return config{}, fmt.Errorf("load .env: %w", err)
	}

	env := firstNonEmpty(os.Getenv("APP_ENV"), os.Getenv("NODE_ENV"))
	cfg := config{
		Port:       envOr("PORT", "5000"),
		MongoURI:   os.Getenv("MONGO_URI"),
		MongoDB:    envOr("MONGO_DB", "goshop"),
		RedisURL:   envOr("REDIS_URL", "redis://localhost:6379/0"),
		AccessKey:  os.Getenv("ACCESS_TOKEN_SECRET"),
		RefreshKey: os.Getenv("REFRESH_TOKEN_SECRET"),
		Production: strings.EqualFold(env, "production"),
		LogLevel:   envOr("LOG_LEVEL", "info"),
		LogFormat:  envOr("LOG_FORMAT", "json"),
		LogOutput:  envOr("LOG_OUTPUT", "stderr"),
	}

	var err error
	if cfg.Reconcile, err = envDuration("CATALOG_RECONCILE_INTERVAL", 0); err != nil {
		return config{}, err
	}
	if cfg.Metrics, err = envBool("METRICS_ENABLED", true); err != nil {
		return config{}, err
	}
	if cfg.TrustProxy, err = envBool("TRUST_PROXY", false); err != nil {
		return config{}, err
	}
	if cfg.SignupPerIP, err = envInt("SIGNUP_PER_MINUTE", 10); err != nil {
		return config{}, err
	}

	if cfg.MongoURI == "" {
		return config{}, errors.New("MONGO_URI is required")
	}
	if cfg.AccessKey == "" || cfg.RefreshKey == "" {
		return config{}, errors.New("ACCESS_TOKEN_SECRET and REFRESH_TOKEN_SECRET are required")
	}
	return cfg, nil
}

func envOr(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return d, nil
}

func envBool(key string, fallback bool) (bool, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("%s: %w", key, err)
	}
	return b, nil
}

func envInt(key string, fallback int) (int, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return n, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
