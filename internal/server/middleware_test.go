package server

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"golang.org/x/time/rate"
)

func TestRescueingRecoversPanic(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	h := rescueing(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}), logger)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/x", nil))
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
	if !strings.Contains(buf.String(), "request panic") {
		t.Fatalf("expected panic logged, got %q", buf.String())
	}
}

func TestLoggingLevelFollowsStatus(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	h := logging(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte("nope"))
	}), logger)

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/missing", nil))
	out := buf.String()
	if !strings.Contains(out, `"level":"WARN"`) || !strings.Contains(out, `"status":404`) || !strings.Contains(out, `"bytes_sent":4`) {
		t.Fatalf("unexpected log %q", out)
	}
}

func TestRemoteIP(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "198.51.100.4:5000"
	req.Header.Set("X-Forwarded-For", "203.0.113.9, 10.0.0.1")

	if got := remoteIP(req, false); got != "198.51.100.4" {
		t.Fatalf("expected remote addr, got %q", got)
	}
	if got := remoteIP(req, true); got != "203.0.113.9" {
		t.Fatalf("expected forwarded addr, got %q", got)
	}
}

func TestMultiLimiterPerKeyAndEviction(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	m := newMultiLimiter(rate.Every(time.Minute), 1, 10*time.Minute)
	m.now = func() time.Time { return now }

	if !m.allow("a") || m.allow("a") {
		t.Fatal("expected one token for a")
	}
	if !m.allow("b") {
		t.Fatal("keys must not share buckets")
	}

	now = now.Add(11 * time.Minute)
	if !m.allow("c") {
		t.Fatal("expected c allowed")
	}
	m.mu.Lock()
	n := len(m.entries)
	m.mu.Unlock()
	if n != 1 {
		t.Fatalf("expected idle keys evicted, have %d", n)
	}
}
