package server

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"runtime/debug"
	"strings"

	goShop "github.com/MrEthical07/goShop"
)

type statusRecorder struct {
	http.ResponseWriter
	status    int
	bytesSent int
}

func (w *statusRecorder) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

func (w *statusRecorder) Write(b []byte) (int, error) {
	n, err := w.ResponseWriter.Write(b)
	w.bytesSent += n
	return n, err
}

// logging logs each response at a level chosen by its status: 5xx at Error,
// 4xx at Warn, the rest at Info.
func logging(next http.Handler, logger *slog.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		level := slog.LevelInfo
		switch {
		case rec.status >= http.StatusInternalServerError:
			level = slog.LevelError
		case rec.status >= http.StatusBadRequest:
			level = slog.LevelWarn
		}

		logger.Log(r.Context(), level, "response", slog.Group("http",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"bytes_sent", rec.bytesSent,
			"client_ip", clientIPFromRequest(r),
		))
	})
}

// rescueing turns a handler panic into a logged 500.
func rescueing(next http.Handler, logger *slog.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if p := recover(); p != nil {
				if p == http.ErrAbortHandler {
					panic(p)
				}
				logger.ErrorContext(r.Context(), "request panic", slog.Group("http",
					"method", r.Method,
					"path", r.URL.Path,
				), slog.Group("error",
					"panic", p,
					"stack", string(debug.Stack()),
				))
				writeMessage(w, http.StatusInternalServerError, msgServerError)
			}
		}()
		next.ServeHTTP(w, r)
	})
}

type clientIPKey struct{}

// clientIP resolves the caller address once and hands it to the engine for
// rate limiting and audit.
func (s *Server) clientIP(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := remoteIP(r, s.cfg.TrustProxy)
		ctx := goShop.WithClientIP(r.Context(), ip)
		ctx = context.WithValue(ctx, clientIPKey{}, ip)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func clientIPFromRequest(r *http.Request) string {
	if ip, ok := r.Context().Value(clientIPKey{}).(string); ok {
		return ip
	}
	return remoteIP(r, false)
}

func remoteIP(r *http.Request, trustProxy bool) string {
	if trustProxy {
		if xff := strings.TrimSpace(r.Header.Get("X-Forwarded-For")); xff != "" {
			first, _, _ := strings.Cut(xff, ",")
			if ip := strings.TrimSpace(first); ip != "" {
				return ip
			}
		}
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err == nil && host != "" {
		return host
	}
	return r.RemoteAddr
}
