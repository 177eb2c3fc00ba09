package goShop

import (
	"bytes"
	"errors"
	"strings"
	"time"

	"github.com/MrEthical07/goShop/jwt"
)

// Config is the full engine configuration. Start from DefaultConfig and set
// the JWT secrets; Build calls Validate.
type Config struct {
	JWT       JWTConfig
	Session   SessionConfig
	Password  PasswordConfig
	RateLimit RateLimitConfig
	Audit     AuditConfig
	Metrics   MetricsConfig
	Security  SecurityConfig
}

/*
====================================
JWT CONFIG
====================================
*/

// JWTConfig configures the access/refresh token pair.
type JWTConfig struct {
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
	SigningMethod string // "hs256" (default) or "ed25519"

	// For hs256 only PrivateKey is read and holds the secret.
	AccessKeys  jwt.Keys
	RefreshKeys jwt.Keys

	Issuer   string
	Audience string
	Leeway   time.Duration

	// Now overrides the token and audit clock. Tests only.
	Now func() time.Time
}

/*
====================================
SESSION CONFIG
====================================
*/

// SessionConfig configures the refresh-token registry. Entries live for
// JWT.RefreshTTL.
type SessionConfig struct {
	RedisPrefix string
}

/*
====================================
PASSWORD CONFIG
====================================
*/

// PasswordConfig holds argon2id parameters and the signup length policy.
type PasswordConfig struct {
	Memory      uint32
	Time        uint32
	Parallelism uint8
	SaltLength  uint32
	KeyLength   uint32
	MinLength   int

	// UpgradeOnLogin re-hashes legacy or weaker hashes after a successful login.
	UpgradeOnLogin bool
}

/*
====================================
RATE LIMIT CONFIG
====================================
*/

// RateLimitConfig configures the failed-login limiter.
type RateLimitConfig struct {
	Enabled          bool
	RedisPrefix      string
	MaxLoginAttempts int
	LoginWindow      time.Duration
	EnableIPThrottle bool
}

/*
====================================
AUDIT / METRICS CONFIG
====================================
*/

type AuditConfig struct {
	Enabled    bool
	BufferSize int
}

type MetricsConfig struct {
	Enabled                 bool
	EnableLatencyHistograms bool
}

/*
====================================
SECURITY CONFIG
====================================
*/

// SecurityConfig holds deployment-level switches.
type SecurityConfig struct {
	// ProductionMode marks cookies Secure.
	ProductionMode bool
}

// DefaultConfig returns a configuration with every field except the JWT key
// material filled in.
func DefaultConfig() Config {
	return Config{
		JWT: JWTConfig{
			AccessTTL:     15 * time.Minute,
			RefreshTTL:    7 * 24 * time.Hour,
			SigningMethod: string(jwt.MethodHS256),
		},
		Session: SessionConfig{
			RedisPrefix: "refresh_token",
		},
		Password: PasswordConfig{
			Memory:         64 * 1024,
			Time:           3,
			Parallelism:    2,
			SaltLength:     16,
			KeyLength:      32,
			MinLength:      6,
			UpgradeOnLogin: true,
		},
		RateLimit: RateLimitConfig{
			Enabled:          true,
			RedisPrefix:      "login_attempts",
			MaxLoginAttempts: 5,
			LoginWindow:      15 * time.Minute,
			EnableIPThrottle: true,
		},
		Audit: AuditConfig{
			Enabled:    true,
			BufferSize: 1024,
		},
		Metrics: MetricsConfig{
			Enabled:                 true,
			EnableLatencyHistograms: true,
		},
	}
}

// Validate reports the first configuration problem found.
func (c *Config) Validate() error {
	// JWT
	if c.JWT.AccessTTL <= 0 {
		return errors.New("JWT AccessTTL must be > 0")
	}
	if c.JWT.RefreshTTL <= c.JWT.AccessTTL {
		return errors.New("JWT RefreshTTL must be greater than AccessTTL")
	}
	switch jwt.SigningMethod(strings.ToLower(c.JWT.SigningMethod)) {
	case jwt.MethodHS256:
		if len(c.JWT.AccessKeys.PrivateKey) == 0 || len(c.JWT.RefreshKeys.PrivateKey) == 0 {
			return errors.New("hs256 requires access and refresh secrets")
		}
		if bytes.Equal(c.JWT.AccessKeys.PrivateKey, c.JWT.RefreshKeys.PrivateKey) {
			return errors.New("access and refresh secrets must differ")
		}
	case jwt.MethodEd25519:
		if len(c.JWT.AccessKeys.PrivateKey) == 0 || len(c.JWT.AccessKeys.PublicKey) == 0 ||
			len(c.JWT.RefreshKeys.PrivateKey) == 0 || len(c.JWT.RefreshKeys.PublicKey) == 0 {
			return errors.New("ed25519 requires access and refresh key pairs")
		}
	default:
		return errors.New("unsupported JWT signing method")
	}
	if c.JWT.Leeway < 0 || c.JWT.Leeway > 2*time.Minute {
		return errors.New("JWT Leeway must be between 0 and 2m")
	}

	// Session
	if strings.TrimSpace(c.Session.RedisPrefix) == "" {
		return errors.New("Session RedisPrefix must not be empty")
	}

	// Password
	if c.Password.Memory < 8*1024 {
		return errors.New("Password Memory must be >= 8192 KB")
	}
	if c.Password.Time < 1 {
		return errors.New("Password Time must be >= 1")
	}
	if c.Password.Parallelism < 1 {
		return errors.New("Password Parallelism must be >= 1")
	}
	if c.Password.SaltLength < 16 {
		return errors.New("Password SaltLength must be >= 16")
	}
	if c.Password.KeyLength < 16 {
		return errors.New("Password KeyLength must be >= 16")
	}
	if c.Password.MinLength < 1 {
		return errors.New("Password MinLength must be >= 1")
	}

	// Rate limit
	if c.RateLimit.Enabled {
		if c.RateLimit.MaxLoginAttempts <= 0 {
			return errors.New("RateLimit MaxLoginAttempts must be > 0")
		}
		if c.RateLimit.LoginWindow <= 0 {
			return errors.New("RateLimit LoginWindow must be > 0")
		}
	}

	// Audit
	if c.Audit.Enabled && c.Audit.BufferSize <= 0 {
		return errors.New("Audit BufferSize must be > 0")
	}

	return nil
}

func cloneConfig(cfg Config) Config {
	out := cfg
	out.JWT.AccessKeys = jwt.Keys{
		PrivateKey: cloneBytes(cfg.JWT.AccessKeys.PrivateKey),
		PublicKey:  cloneBytes(cfg.JWT.AccessKeys.PublicKey),
	}
	out.JWT.RefreshKeys = jwt.Keys{
		PrivateKey: cloneBytes(cfg.JWT.RefreshKeys.PrivateKey),
		PublicKey:  cloneBytes(cfg.JWT.RefreshKeys.PublicKey),
	}
	return out
}

func cloneBytes(b []byte) []byte {
	if b == nil {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}
