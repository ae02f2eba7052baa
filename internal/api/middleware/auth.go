// Package middleware provides request authentication for the API router.
package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/goldenknight/chessclub/internal/api/apierr"
	"github.com/goldenknight/chessclub/internal/model"
	"github.com/goldenknight/chessclub/internal/services/auth"
)

type contextKey string

const (
	playerContextKey contextKey = "player"
	tokenContextKey  contextKey = "token"
)

// Auth creates authentication middleware. It resolves the session token to a
// fresh player record and rejects the request if there is none.
func Auth(authService *auth.Service) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := extractToken(r)
			if token == "" {
				apierr.WriteError(w, apierr.NewUnauthorizedError())
				return
			}

			player, err := authService.ValidateSession(r.Context(), token)
			if err != nil {
				apierr.WriteError(w, err)
				return
			}

			next.ServeHTTP(w, r.WithContext(withIdentity(r.Context(), player, token)))
		})
	}
}

// OptionalAuth resolves the session if one is presented but lets anonymous
// requests through. Handlers use the identity to decide field visibility.
func OptionalAuth(authService *auth.Service) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if token := extractToken(r); token != "" {
				if player, err := authService.ValidateSession(r.Context(), token); err == nil {
					r = r.WithContext(withIdentity(r.Context(), player, token))
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireAdmin rejects non-admin callers. Must run after Auth.
func RequireAdmin() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			player := GetPlayer(r.Context())
			if player == nil {
				apierr.WriteError(w, apierr.NewUnauthorizedError())
				return
			}
			if !player.IsAdmin {
				apierr.WriteError(w, auth.ErrNotAdmin)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func withIdentity(ctx context.Context, player *model.Player, token string) context.Context {
	ctx = context.WithValue(ctx, playerContextKey, player)
	return context.WithValue(ctx, tokenContextKey, token)
}

// extractToken extracts the session token from the request
func extractToken(r *http.Request) string {
	authHeader := r.Header.Get("Authorization")
	if strings.HasPrefix(authHeader, "Bearer ") {
		return strings.TrimPrefix(authHeader, "Bearer ")
	}

	if cookie, err := r.Cookie("session"); err == nil {
		return cookie.Value
	}
	return ""
}

// GetPlayer returns the authenticated player from the request context, or
// nil for anonymous requests
func GetPlayer(ctx context.Context) *model.Player {
	player, _ := ctx.Value(playerContextKey).(*model.Player)
	return player
}

// GetToken returns the session token from the request context
func GetToken(ctx context.Context) string {
	token, _ := ctx.Value(tokenContextKey).(string)
	return token
}

// MustGetPlayer returns the authenticated player or panics
func MustGetPlayer(ctx context.Context) *model.Player {
	player := GetPlayer(ctx)
	if player == nil {
		panic("no player in context - auth middleware not applied?")
	}
	return player
}
