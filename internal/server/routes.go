package server

import (
	"net/http"

	"github.com/MrEthical07/goShop/middleware"
)

func (s *Server) routes() {
	protect := middleware.ProtectRoute(s.auth)
	admin := func(h http.HandlerFunc) http.Handler {
		return protect(middleware.AdminRoute(s.auth)(h))
	}

	s.mux.HandleFunc("GET /healthz", s.handleHealth)

	s.mux.HandleFunc("POST /api/auth/signup", s.handleSignup)
	s.mux.HandleFunc("POST /api/auth/login", s.handleLogin)
	s.mux.HandleFunc("POST /api/auth/refresh-token", s.handleRefresh)
	s.mux.HandleFunc("POST /api/auth/logout", s.handleLogout)
	s.mux.Handle("GET /api/auth/profile", protect(http.HandlerFunc(s.handleProfile)))

	s.mux.Handle("GET /api/products", admin(s.handleListProducts))
	s.mux.HandleFunc("GET /api/products/featured", s.handleFeatured)
	s.mux.HandleFunc("GET /api/products/recommendations", s.handleRecommendations)
	s.mux.HandleFunc("GET /api/products/category/{category}", s.handleCategory)
	s.mux.Handle("POST /api/products", admin(s.handleCreateProduct))
	s.mux.Handle("PATCH /api/products/{id}", admin(s.handleToggleFeatured))
	s.mux.Handle("DELETE /api/products/{id}", admin(s.handleDeleteProduct))

	if s.analytics != nil {
		s.mux.Handle("GET /api/analytics", admin(s.handleAnalytics))
	}
	if s.metrics != nil {
		s.mux.Handle("GET /metrics", s.metrics)
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
