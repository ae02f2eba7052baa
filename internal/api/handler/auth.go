// Package handler implements the API's HTTP endpoints.
package handler

import (
	"encoding/json"
	"net/http"

	"github.com/goldenknight/chessclub/internal/api/apierr"
	"github.com/goldenknight/chessclub/internal/api/middleware"
	"github.com/goldenknight/chessclub/internal/api/request"
	"github.com/goldenknight/chessclub/internal/api/response"
	"github.com/goldenknight/chessclub/internal/services/auth"
)

// AuthHandler handles authentication endpoints
type AuthHandler struct {
	authService *auth.Service
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(authService *auth.Service) *AuthHandler {
	return &AuthHandler{
		authService: authService,
	}
}

// Login handles POST /api/v1/auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req request.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apierr.WriteError(w, apierr.NewInvalidRequestError("invalid request body"))
		return
	}
	if req.Name == "" {
		apierr.WriteError(w, apierr.NewInvalidRequestError("name is required"))
		return
	}
	if req.PIN == "" {
		apierr.WriteError(w, apierr.NewInvalidRequestError("pin is required"))
		return
	}

	session, err := h.authService.Login(r.Context(), req.Name, req.PIN)
	if err != nil {
		apierr.WriteError(w, err)
		return
	}

	player, err := h.authService.ValidateSession(r.Context(), session.Token)
	if err != nil {
		apierr.WriteError(w, err)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     "session",
		Value:    session.Token,
		Path:     "/",
		Expires:  session.ExpiresAt,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	response.JSON(w, http.StatusOK, response.AuthResponseFromSession(session, player))
}

// Logout handles POST /api/v1/auth/logout
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if token := middleware.GetToken(r.Context()); token != "" {
		if err := h.authService.Logout(r.Context(), token); err != nil {
			apierr.WriteError(w, err)
			return
		}
	}

	http.SetCookie(w, &http.Cookie{
		Name:     "session",
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
	})
	response.NoContent(w)
}
