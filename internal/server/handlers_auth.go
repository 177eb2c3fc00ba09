package server

import (
	"errors"
	"net/http"

	goShop "github.com/MrEthical07/goShop"
	"github.com/MrEthical07/goShop/middleware"
)

const (
	msgUserCreated     = "User created successfully"
	msgUserExists      = "User already exists"
	msgInvalidLogin    = "Invalid email or password"
	msgLoginLimited    = "Too many login attempts, try again later"
	msgTooManyRequests = "Too many requests"
	msgNoRefreshToken  = "No refresh token provided"
	msgInvalidRefresh  = "Invalid refresh token"
	msgTokenRefreshed  = "Token refreshed successfully"
	msgLoggedOut       = "Logged out successfully"
	msgInvalidBody     = "Invalid request body"
	msgServerError     = "Server error"
	msgRefreshExpired  = "Refresh token expired"
)

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (s *Server) handleSignup(w http.ResponseWriter, r *http.Request) {
	if !s.rlSignupIP.allow(clientIPFromRequest(r)) {
		writeMessage(w, http.StatusTooManyRequests, msgTooManyRequests)
		return
	}

	var req goShop.SignupRequest
	if err := s.decodeJSON(w, r, &req); err != nil {
		writeMessage(w, http.StatusBadRequest, msgInvalidBody)
		return
	}

	res, err := s.auth.Signup(r.Context(), req)
	if err != nil {
		switch {
		case errors.Is(err, goShop.ErrUserExists):
			writeMessage(w, http.StatusBadRequest, msgUserExists)
		case errors.Is(err, goShop.ErrInvalidSignup), errors.Is(err, goShop.ErrPasswordPolicy):
			writeMessage(w, http.StatusBadRequest, err.Error())
		default:
			s.serverError(w, r, "signup failed", err)
		}
		return
	}

	middleware.SetAuthCookies(w, res.Tokens, s.auth)
	writeJSON(w, http.StatusCreated, map[string]any{
		"user":    res.User,
		"message": msgUserCreated,
	})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := s.decodeJSON(w, r, &req); err != nil {
		writeMessage(w, http.StatusBadRequest, msgInvalidBody)
		return
	}

	res, err := s.auth.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, goShop.ErrInvalidCredentials):
			writeMessage(w, http.StatusUnauthorized, msgInvalidLogin)
		case errors.Is(err, goShop.ErrLoginRateLimited):
			writeMessage(w, http.StatusTooManyRequests, msgLoginLimited)
		default:
			s.serverError(w, r, "login failed", err)
		}
		return
	}

	middleware.SetAuthCookies(w, res.Tokens, s.auth)
	writeJSON(w, http.StatusOK, map[string]any{"user": res.User})
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	res, err := s.auth.Refresh(r.Context(), middleware.RefreshToken(r))
	if err != nil {
		switch {
		case errors.Is(err, goShop.ErrNoToken):
			writeMessage(w, http.StatusUnauthorized, msgNoRefreshToken)
		case errors.Is(err, goShop.ErrTokenExpired):
			writeMessage(w, http.StatusUnauthorized, msgRefreshExpired)
		case errors.Is(err, goShop.ErrTokenInvalid), errors.Is(err, goShop.ErrRefreshRevoked):
			writeMessage(w, http.StatusUnauthorized, msgInvalidRefresh)
		default:
			s.serverError(w, r, "refresh failed", err)
		}
		return
	}

	middleware.SetAuthCookies(w, res.Tokens, s.auth)
	writeMessage(w, http.StatusOK, msgTokenRefreshed)
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if err := s.auth.Logout(r.Context(), middleware.RefreshToken(r)); err != nil {
		s.logger.WarnContext(r.Context(), "logout revoke failed", "error", err)
	}
	middleware.ClearAuthCookies(w, s.auth)
	writeMessage(w, http.StatusOK, msgLoggedOut)
}

func (s *Server) handleProfile(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		writeMessage(w, http.StatusUnauthorized, middleware.MsgInvalidToken)
		return
	}
	writeJSON(w, http.StatusOK, identity)
}
