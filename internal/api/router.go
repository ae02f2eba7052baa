// Package api wires the HTTP surface: routing, middleware, and the server
// lifecycle.
package api

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/goldenknight/chessclub/internal/api/handler"
	apimw "github.com/goldenknight/chessclub/internal/api/middleware"
	"github.com/goldenknight/chessclub/internal/middleware"
	"github.com/goldenknight/chessclub/internal/push"
	"github.com/goldenknight/chessclub/internal/services/auth"
	"github.com/goldenknight/chessclub/internal/services/ledger"
	"github.com/goldenknight/chessclub/internal/services/roster"
)

// RouterConfig holds configuration for the API router
type RouterConfig struct {
	Logger        *slog.Logger
	AuthService   *auth.Service
	LedgerService *ledger.Service
	RosterService *roster.Service
	Hub           *push.Hub
}

// NewRouter creates a new API router with all routes configured
func NewRouter(cfg RouterConfig) http.Handler {
	r := mux.NewRouter()

	// Create handlers
	authHandler := handler.NewAuthHandler(cfg.AuthService)
	playerHandler := handler.NewPlayerHandler(cfg.RosterService)
	gameHandler := handler.NewGameHandler(cfg.LedgerService)
	wsHandler := handler.NewWSHandler(cfg.Hub, cfg.Logger)

	// Create middleware
	authMiddleware := apimw.Auth(cfg.AuthService)
	optionalAuthMiddleware := apimw.OptionalAuth(cfg.AuthService)
	adminMiddleware := apimw.RequireAdmin()
	loggingMiddleware := middleware.Logging(cfg.Logger)
	recoveryMiddleware := middleware.Recovery(cfg.Logger, middleware.DefaultPanicHandler)

	// API subrouter with common middleware
	api := r.PathPrefix("/api/v1").Subrouter()
	api.Use(recoveryMiddleware)
	api.Use(loggingMiddleware)

	// Auth routes
	api.HandleFunc("/auth/login", authHandler.Login).Methods(http.MethodPost)
	logout := api.PathPrefix("/auth/logout").Subrouter()
	logout.Use(authMiddleware)
	logout.HandleFunc("", authHandler.Logout).Methods(http.MethodPost)

	// Public reads carry optional identity so admins see the extra fields
	reads := api.NewRoute().Subrouter()
	reads.Use(optionalAuthMiddleware)
	reads.HandleFunc("/players", playerHandler.List).Methods(http.MethodGet)
	reads.HandleFunc("/games", gameHandler.List).Methods(http.MethodGet)
	reads.HandleFunc("/games/{id:[0-9]+}", gameHandler.Get).Methods(http.MethodGet)

	// The /players/me route must win over /players/{id}
	me := api.PathPrefix("/players/me").Subrouter()
	me.Use(authMiddleware)
	me.HandleFunc("", playerHandler.GetMe).Methods(http.MethodGet)
	reads.HandleFunc("/players/{id:[0-9]+}", playerHandler.Get).Methods(http.MethodGet)

	// Authenticated member routes
	member := api.NewRoute().Subrouter()
	member.Use(authMiddleware)
	member.HandleFunc("/games", gameHandler.Create).Methods(http.MethodPost)
	member.HandleFunc("/players/{id:[0-9]+}", playerHandler.Update).Methods(http.MethodPatch)

	// Admin routes
	admin := api.NewRoute().Subrouter()
	admin.Use(authMiddleware)
	admin.Use(adminMiddleware)
	admin.HandleFunc("/players", playerHandler.Create).Methods(http.MethodPost)
	admin.HandleFunc("/players/{id:[0-9]+}/rating", playerHandler.SetRating).Methods(http.MethodPut)
	admin.HandleFunc("/players/{id:[0-9]+}", playerHandler.Delete).Methods(http.MethodDelete)
	admin.HandleFunc("/games/{id:[0-9]+}", gameHandler.Update).Methods(http.MethodPatch)
	admin.HandleFunc("/games/{id:[0-9]+}/verify", gameHandler.Verify).Methods(http.MethodPut)
	admin.HandleFunc("/games/{id:[0-9]+}", gameHandler.Delete).Methods(http.MethodDelete)

	// Event stream
	api.HandleFunc("/ws", wsHandler.Serve).Methods(http.MethodGet)

	// Health check endpoint (no auth)
	api.HandleFunc("/health", healthHandler).Methods(http.MethodGet)

	return r
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}
