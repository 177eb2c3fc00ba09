package jwt

import (
	"bytes"
	"crypto/ed25519"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// SigningMethod selects the algorithm used for both token kinds.
type SigningMethod string

const (
	// MethodHS256 signs with two independent HMAC-SHA256 secrets.
	MethodHS256 SigningMethod = "hs256"
	// MethodEd25519 signs with two independent Ed25519 key pairs.
	MethodEd25519 SigningMethod = "ed25519"
)

// TokenKind distinguishes access tokens from refresh tokens. Each kind is
// signed and verified with its own key material.
type TokenKind uint8

const (
	// KindAccess is the short-lived bearer credential.
	KindAccess TokenKind = iota + 1
	// KindRefresh is the long-lived credential exchanged for a new pair.
	KindRefresh
)

func (k TokenKind) String() string {
	switch k {
	case KindAccess:
		return "access"
	case KindRefresh:
		return "refresh"
	default:
		return "unknown"
	}
}

var (
	// ErrTokenExpired is returned when the signature verified but the token is past exp.
	ErrTokenExpired = errors.New("token expired")
	// ErrTokenInvalid is returned for every other verification failure.
	ErrTokenInvalid = errors.New("invalid token")
)

// Keys holds the key material for one token kind. For hs256 only PrivateKey
// is used and holds the shared secret.
type Keys struct {
	PrivateKey []byte
	PublicKey  []byte
}

// Config configures a [Manager].
type Config struct {
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
	SigningMethod SigningMethod
	AccessKeys    Keys
	RefreshKeys   Keys
	Issuer        string
	Audience      string
	Leeway        time.Duration

	// Now overrides the clock used for iat/exp and for verification.
	Now func() time.Time
}

// Claims is the payload carried by both token kinds.
type Claims struct {
	UserID string `json:"userId"`
	Kind   string `json:"typ"`
	jwt.RegisteredClaims
}

// TokenPair is the result of [Manager.Issue].
type TokenPair struct {
	AccessToken      string
	RefreshToken     string
	AccessExpiresAt  time.Time
	RefreshExpiresAt time.Time
}

// Manager mints and verifies access and refresh tokens. It holds no mutable
// state and is safe for concurrent use.
type Manager struct {
	config Config
	now    func() time.Time
}

// NewManager validates cfg and returns a ready [Manager].
func NewManager(cfg Config) (*Manager, error) {
	if cfg.AccessTTL <= 0 || cfg.RefreshTTL <= 0 {
		return nil, errors.New("invalid TTL configuration")
	}
	if cfg.AccessTTL >= cfg.RefreshTTL {
		return nil, errors.New("access TTL must be shorter than refresh TTL")
	}
	if cfg.Leeway < 0 || cfg.Leeway > 2*time.Minute {
		return nil, errors.New("invalid leeway configuration")
	}
	cfg.Issuer = strings.TrimSpace(cfg.Issuer)

	switch cfg.SigningMethod {
	case MethodHS256:
		if len(cfg.AccessKeys.PrivateKey) == 0 || len(cfg.RefreshKeys.PrivateKey) == 0 {
			return nil, errors.New("hs256 requires access and refresh secrets")
		}
		if bytes.Equal(cfg.AccessKeys.PrivateKey, cfg.RefreshKeys.PrivateKey) {
			return nil, errors.New("access and refresh secrets must differ")
		}
	case MethodEd25519:
		for name, keys := range map[string]Keys{"access": cfg.AccessKeys, "refresh": cfg.RefreshKeys} {
			if _, err := parseEdPrivateKey(keys.PrivateKey); err != nil {
				return nil, fmt.Errorf("%s: %w", name, err)
			}
			if _, err := parseEdPublicKey(keys.PublicKey); err != nil {
				return nil, fmt.Errorf("%s: %w", name, err)
			}
		}
		if bytes.Equal(cfg.AccessKeys.PublicKey, cfg.RefreshKeys.PublicKey) {
			return nil, errors.New("access and refresh key pairs must differ")
		}
	default:
		return nil, errors.New("unsupported signing method")
	}

	now := cfg.Now
	if now == nil {
		now = time.Now
	}

	return &Manager{config: cfg, now: now}, nil
}

// AccessTTL returns the configured access-token lifetime.
func (m *Manager) AccessTTL() time.Duration { return m.config.AccessTTL }

// RefreshTTL returns the configured refresh-token lifetime.
func (m *Manager) RefreshTTL() time.Duration { return m.config.RefreshTTL }

// Issue mints an access token and a refresh token for userID.
func (m *Manager) Issue(userID string) (TokenPair, error) {
	access, accessExp, err := m.create(userID, KindAccess)
	if err != nil {
		return TokenPair{}, err
	}
	refresh, refreshExp, err := m.create(userID, KindRefresh)
	if err != nil {
		return TokenPair{}, err
	}

	return TokenPair{
		AccessToken:      access,
		RefreshToken:     refresh,
		AccessExpiresAt:  accessExp,
		RefreshExpiresAt: refreshExp,
	}, nil
}

func (m *Manager) create(userID string, kind TokenKind) (string, time.Time, error) {
	if userID == "" {
		return "", time.Time{}, errors.New("empty user id")
	}

	ttl := m.config.AccessTTL
	if kind == KindRefresh {
		ttl = m.config.RefreshTTL
	}

	now := m.now()
	claims := Claims{
		UserID: userID,
		Kind:   kind.String(),
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    m.config.Issuer,
		},
	}
	if m.config.Audience != "" {
		claims.Audience = jwt.ClaimStrings{m.config.Audience}
	}
	if kind == KindRefresh {
		claims.ID = uuid.NewString()
	}

	signKey, err := m.signKey(kind)
	if err != nil {
		return "", time.Time{}, err
	}

	signed, err := jwt.NewWithClaims(m.method(), claims).SignedString(signKey)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, claims.ExpiresAt.Time, nil
}

// Parse verifies tokenStr against the key material for kind. A token whose
// signature verifies but whose exp has passed yields [ErrTokenExpired]; any
// other failure yields [ErrTokenInvalid].
func (m *Manager) Parse(tokenStr string, kind TokenKind) (*Claims, error) {
	if tokenStr == "" {
		return nil, ErrTokenInvalid
	}

	options := []jwt.ParserOption{
		jwt.WithValidMethods([]string{m.method().Alg()}),
		jwt.WithTimeFunc(m.now),
		jwt.WithExpirationRequired(),
	}
	if m.config.Leeway > 0 {
		options = append(options, jwt.WithLeeway(m.config.Leeway))
	}
	if m.config.Issuer != "" {
		options = append(options, jwt.WithIssuer(m.config.Issuer))
	}
	if m.config.Audience != "" {
		options = append(options, jwt.WithAudience(m.config.Audience))
	}

	claims := &Claims{}
	token, err := jwt.NewParser(options...).ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
		if t.Method.Alg() != m.method().Alg() {
			return nil, fmt.Errorf("unexpected signing algorithm: %s", t.Method.Alg())
		}
		return m.verifyKey(kind)
	})
	if err != nil {
		if expiredOnly(err) && claims.Kind == kind.String() {
			return nil, ErrTokenExpired
		}
		return nil, fmt.Errorf("%w: %v", ErrTokenInvalid, err)
	}
	if !token.Valid {
		return nil, ErrTokenInvalid
	}
	if claims.Kind != kind.String() || claims.UserID == "" {
		return nil, ErrTokenInvalid
	}

	return claims, nil
}

// expiredOnly reports whether err is an expiry failure on an otherwise
// verified token. The parser checks the signature before any claim, so a
// signature failure never carries ErrTokenExpired.
func expiredOnly(err error) bool {
	if !errors.Is(err, jwt.ErrTokenExpired) {
		return false
	}
	for _, other := range []error{
		jwt.ErrTokenSignatureInvalid,
		jwt.ErrTokenMalformed,
		jwt.ErrTokenUnverifiable,
		jwt.ErrTokenInvalidIssuer,
		jwt.ErrTokenInvalidAudience,
	} {
		if errors.Is(err, other) {
			return false
		}
	}
	return true
}

func (m *Manager) method() jwt.SigningMethod {
	switch m.config.SigningMethod {
	case MethodHS256:
		return jwt.SigningMethodHS256
	default:
		return jwt.SigningMethodEdDSA
	}
}

func (m *Manager) keys(kind TokenKind) Keys {
	if kind == KindRefresh {
		return m.config.RefreshKeys
	}
	return m.config.AccessKeys
}

func (m *Manager) signKey(kind TokenKind) (interface{}, error) {
	keys := m.keys(kind)
	switch m.config.SigningMethod {
	case MethodHS256:
		return keys.PrivateKey, nil
	default:
		return parseEdPrivateKey(keys.PrivateKey)
	}
}

func (m *Manager) verifyKey(kind TokenKind) (interface{}, error) {
	if kind != KindAccess && kind != KindRefresh {
		return nil, errors.New("unknown token kind")
	}
	keys := m.keys(kind)
	switch m.config.SigningMethod {
	case MethodHS256:
		return keys.PrivateKey, nil
	default:
		return parseEdPublicKey(keys.PublicKey)
	}
}

func parseEdPrivateKey(key []byte) (ed25519.PrivateKey, error) {
	if len(key) == ed25519.PrivateKeySize {
		return ed25519.PrivateKey(key), nil
	}
	parsed, err := jwt.ParseEdPrivateKeyFromPEM(key)
	if err != nil {
		return nil, errors.New("invalid ed25519 private key")
	}
	edKey, ok := parsed.(ed25519.PrivateKey)
	if !ok {
		return nil, errors.New("invalid ed25519 private key type")
	}
	return edKey, nil
}

func parseEdPublicKey(key []byte) (ed25519.PublicKey, error) {
	if len(key) == ed25519.PublicKeySize {
		return ed25519.PublicKey(key), nil
	}
	parsed, err := jwt.ParseEdPublicKeyFromPEM(key)
	if err != nil {
		return nil, errors.New("invalid ed25519 public key")
	}
	edKey, ok := parsed.(ed25519.PublicKey)
	if !ok {
		return nil, errors.New("invalid ed25519 public key type")
	}
	return edKey, nil
}
