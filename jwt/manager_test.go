package jwt

import (
	"crypto/ed25519"
	"crypto/rand"
	"errors"
	"strings"
	"testing"
	"time"

	gjwt "github.com/golang-jwt/jwt/v5"
)

type testClock struct{ now time.Time }

func (c *testClock) Now() time.Time { return c.now }

func newHSManager(t *testing.T, clock *testClock) *Manager {
	t.Helper()
	m, err := NewManager(Config{
		AccessTTL:     15 * time.Minute,
		RefreshTTL:    7 * 24 * time.Hour,
		SigningMethod: MethodHS256,
		AccessKeys:    Keys{PrivateKey: []byte("access-secret-for-tests")},
		RefreshKeys:   Keys{PrivateKey: []byte("refresh-secret-for-tests")},
		Now:           clock.Now,
	})
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}
	return m
}

func TestIssueRoundTrip(t *testing.T) {
	clock := &testClock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	m := newHSManager(t, clock)

	pair, err := m.Issue("user-1")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if !pair.AccessExpiresAt.Equal(clock.now.Add(15 * time.Minute)) {
		t.Fatalf("unexpected access expiry %v", pair.AccessExpiresAt)
	}
	if !pair.RefreshExpiresAt.Equal(clock.now.Add(7 * 24 * time.Hour)) {
		t.Fatalf("unexpected refresh expiry %v", pair.RefreshExpiresAt)
	}

	access, err := m.Parse(pair.AccessToken, KindAccess)
	if err != nil {
		t.Fatalf("parse access: %v", err)
	}
	if access.UserID != "user-1" || access.Kind != "access" {
		t.Fatalf("unexpected access claims %+v", access)
	}

	refresh, err := m.Parse(pair.RefreshToken, KindRefresh)
	if err != nil {
		t.Fatalf("parse refresh: %v", err)
	}
	if refresh.UserID != "user-1" || refresh.ID == "" {
		t.Fatalf("unexpected refresh claims %+v", refresh)
	}
}

func TestRefreshTokensAreUniquePerIssue(t *testing.T) {
	clock := &testClock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	m := newHSManager(t, clock)

	first, err := m.Issue("user-1")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	second, err := m.Issue("user-1")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if first.RefreshToken == second.RefreshToken {
		t.Fatal("expected distinct refresh tokens within the same second")
	}
}

func TestAccessTokenExpiryBoundary(t *testing.T) {
	start := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	clock := &testClock{now: start}
	m := newHSManager(t, clock)

	pair, err := m.Issue("user-1")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	clock.now = start.Add(15*time.Minute - time.Second)
	if _, err := m.Parse(pair.AccessToken, KindAccess); err != nil {
		t.Fatalf("expected valid token just before expiry, got %v", err)
	}

	clock.now = start.Add(15 * time.Minute)
	if _, err := m.Parse(pair.AccessToken, KindAccess); !errors.Is(err, ErrTokenExpired) {
		t.Fatalf("expected ErrTokenExpired at expiry, got %v", err)
	}

	clock.now = start.Add(time.Hour)
	if _, err := m.Parse(pair.AccessToken, KindAccess); !errors.Is(err, ErrTokenExpired) {
		t.Fatalf("expected ErrTokenExpired after expiry, got %v", err)
	}
}

func TestRefreshTokenExpiryBoundary(t *testing.T) {
	start := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	clock := &testClock{now: start}
	m := newHSManager(t, clock)

	pair, err := m.Issue("user-1")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	clock.now = start.Add(7*24*time.Hour - time.Second)
	if _, err := m.Parse(pair.RefreshToken, KindRefresh); err != nil {
		t.Fatalf("expected valid refresh token, got %v", err)
	}

	clock.now = start.Add(7 * 24 * time.Hour)
	if _, err := m.Parse(pair.RefreshToken, KindRefresh); !errors.Is(err, ErrTokenExpired) {
		t.Fatalf("expected ErrTokenExpired, got %v", err)
	}
}

func TestParseRejectsTampering(t *testing.T) {
	clock := &testClock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	m := newHSManager(t, clock)

	pair, err := m.Issue("user-1")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	parts := strings.Split(pair.AccessToken, ".")
	if len(parts) != 3 {
		t.Fatalf("unexpected token shape %q", pair.AccessToken)
	}

	for i := range parts {
		tampered := make([]string, 3)
		copy(tampered, parts)
		tampered[i] = flipChar(parts[i], len(parts[i])/2)

		_, err := m.Parse(strings.Join(tampered, "."), KindAccess)
		if !errors.Is(err, ErrTokenInvalid) {
			t.Fatalf("segment %d: expected ErrTokenInvalid, got %v", i, err)
		}
	}
}

func TestExpiredTamperedTokenIsInvalidNotExpired(t *testing.T) {
	start := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	clock := &testClock{now: start}
	m := newHSManager(t, clock)

	pair, err := m.Issue("user-1")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	parts := strings.Split(pair.AccessToken, ".")
	parts[2] = flipChar(parts[2], 5)

	clock.now = start.Add(time.Hour)
	if _, err := m.Parse(strings.Join(parts, "."), KindAccess); !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("expected ErrTokenInvalid, got %v", err)
	}
}

func TestParseRejectsCrossKind(t *testing.T) {
	clock := &testClock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	m := newHSManager(t, clock)

	pair, err := m.Issue("user-1")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	if _, err := m.Parse(pair.RefreshToken, KindAccess); !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("refresh token accepted as access: %v", err)
	}
	if _, err := m.Parse(pair.AccessToken, KindRefresh); !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("access token accepted as refresh: %v", err)
	}
}

func TestParseRejectsWrongAlgorithm(t *testing.T) {
	clock := &testClock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	m := newHSManager(t, clock)

	claims := Claims{
		UserID: "user-1",
		Kind:   "access",
		RegisteredClaims: gjwt.RegisteredClaims{
			ExpiresAt: gjwt.NewNumericDate(clock.now.Add(time.Minute)),
		},
	}
	token, err := gjwt.NewWithClaims(gjwt.SigningMethodHS512, claims).SignedString([]byte("access-secret-for-tests"))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}

	if _, err := m.Parse(token, KindAccess); !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("expected wrong algorithm to be rejected, got %v", err)
	}
}

func TestParseRejectsMissingExpiry(t *testing.T) {
	clock := &testClock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	m := newHSManager(t, clock)

	token, err := gjwt.NewWithClaims(gjwt.SigningMethodHS256, Claims{UserID: "user-1", Kind: "access"}).
		SignedString([]byte("access-secret-for-tests"))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}

	if _, err := m.Parse(token, KindAccess); !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("expected token without exp to be rejected, got %v", err)
	}
}

func TestParseIssuerAndAudience(t *testing.T) {
	clock := &testClock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	base := Config{
		AccessTTL:     time.Minute,
		RefreshTTL:    time.Hour,
		SigningMethod: MethodHS256,
		AccessKeys:    Keys{PrivateKey: []byte("a-secret")},
		RefreshKeys:   Keys{PrivateKey: []byte("r-secret")},
		Issuer:        "goshop",
		Audience:      "api",
		Now:           clock.Now,
	}
	issuer, err := NewManager(base)
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}
	pair, err := issuer.Issue("user-1")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if _, err := issuer.Parse(pair.AccessToken, KindAccess); err != nil {
		t.Fatalf("expected valid token: %v", err)
	}

	other := base
	other.Audience = "admin"
	verifier, err := NewManager(other)
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}
	if _, err := verifier.Parse(pair.AccessToken, KindAccess); !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("expected audience mismatch to be rejected, got %v", err)
	}
}

func TestEd25519Pair(t *testing.T) {
	accessPub, accessPriv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	refreshPub, refreshPriv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}

	m, err := NewManager(Config{
		AccessTTL:     15 * time.Minute,
		RefreshTTL:    7 * 24 * time.Hour,
		SigningMethod: MethodEd25519,
		AccessKeys:    Keys{PrivateKey: accessPriv, PublicKey: accessPub},
		RefreshKeys:   Keys{PrivateKey: refreshPriv, PublicKey: refreshPub},
	})
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}

	pair, err := m.Issue("user-1")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if _, err := m.Parse(pair.AccessToken, KindAccess); err != nil {
		t.Fatalf("parse access: %v", err)
	}
	if _, err := m.Parse(pair.RefreshToken, KindAccess); !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("refresh token verified with access key: %v", err)
	}
}

func TestNewManagerRejectsBadConfig(t *testing.T) {
	cases := map[string]Config{
		"zero ttl": {
			SigningMethod: MethodHS256,
			AccessKeys:    Keys{PrivateKey: []byte("a")},
			RefreshKeys:   Keys{PrivateKey: []byte("b")},
		},
		"access not shorter": {
			AccessTTL:     time.Hour,
			RefreshTTL:    time.Hour,
			SigningMethod: MethodHS256,
			AccessKeys:    Keys{PrivateKey: []byte("a")},
			RefreshKeys:   Keys{PrivateKey: []byte("b")},
		},
		"identical secrets": {
			AccessTTL:     time.Minute,
			RefreshTTL:    time.Hour,
			SigningMethod: MethodHS256,
			AccessKeys:    Keys{PrivateKey: []byte("same")},
			RefreshKeys:   Keys{PrivateKey: []byte("same")},
		},
		"missing secret": {
			AccessTTL:     time.Minute,
			RefreshTTL:    time.Hour,
			SigningMethod: MethodHS256,
			AccessKeys:    Keys{PrivateKey: []byte("a")},
		},
		"unknown method": {
			AccessTTL:     time.Minute,
			RefreshTTL:    time.Hour,
			SigningMethod: "rs256",
		},
	}

	for name, cfg := range cases {
		if _, err := NewManager(cfg); err == nil {
			t.Fatalf("%s: expected config to be rejected", name)
		}
	}
}

func flipChar(s string, i int) string {
	b := []byte(s)
	if b[i] == 'A' {
		b[i] = 'B'
	} else {
		b[i] = 'A'
	}
	return string(b)
}
