package httpapi

import (
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/PeakMade/Credit-Boost-Portal/internal/service"
)

type AuthHandler struct {
	auth   service.AuthService
	logger *zap.Logger
}

func NewAuthHandler(auth service.AuthService, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{auth: auth, logger: logger}
}

// Login: POST /api/v1/login {"email": "...", "password": "..."}
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req service.LoginRequest
	if err := readBodyJSON(r, maxBodyBytes, &req); err != nil {
		writeJSON(w, http.StatusOK, Fail("invalid body"))
		return
	}
	if req.Email == "" || req.Password == "" {
		writeJSON(w, http.StatusOK, Fail("email and password are required"))
		return
	}
	req.IPAddress = clientIP(r)

	sess, err := h.auth.Login(r.Context(), req)
	if err != nil {
		if !errors.Is(err, service.ErrInvalidCredentials) && !errors.Is(err, service.ErrResidentNotFound) {
			h.logger.Error("Login error", zap.Error(err))
		}
		writeJSON(w, http.StatusOK, Fail(err.Error()))
		return
	}
	writeJSON(w, http.StatusOK, Ok(sess))
}

// Logout: POST /api/v1/logout. Always succeeds.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if token := bearerToken(r); token != "" {
		if err := h.auth.Logout(r.Context(), token); err != nil {
			h.logger.Warn("Logout failed", zap.Error(err))
		}
	}
	writeJSON(w, http.StatusOK, Ok[any](nil))
}
