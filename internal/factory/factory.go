// Package factory wires the application's components together exactly once.
package factory

import (
	"context"
	"io"
	"log/slog"

	"github.com/goldenknight/chessclub/internal/config"
	"github.com/goldenknight/chessclub/internal/dependencies/clock"
	"github.com/goldenknight/chessclub/internal/push"
	"github.com/goldenknight/chessclub/internal/services/auth"
	"github.com/goldenknight/chessclub/internal/services/ledger"
	"github.com/goldenknight/chessclub/internal/services/roster"
	"github.com/goldenknight/chessclub/internal/storage"
	"github.com/goldenknight/chessclub/internal/storage/memory"
	"github.com/goldenknight/chessclub/internal/storage/postgres"
)

// App contains all wired application components
type App struct {
	Storage  storage.Storage
	Sessions auth.SessionStore
	Clock    clock.Clock

	AuthService   *auth.Service
	LedgerService *ledger.Service
	RosterService *roster.Service
	Hub           *push.Hub
}

// New creates an application from configuration. The hub's event loop is
// already running when this returns.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}

	var store storage.Storage
	switch cfg.StorageType {
	case config.StoragePostgres:
		pg, err := postgres.New(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		store = pg
	default:
		store = memory.New()
	}

	var sessions auth.SessionStore
	switch cfg.SessionBackend {
	case config.SessionRedis:
		redisSessions, err := auth.NewRedisSessionStore(cfg.RedisURL)
		if err != nil {
			_ = store.Close()
			return nil, err
		}
		sessions = redisSessions
	default:
		sessions = auth.NewMemorySessionStore()
	}

	clk := clock.New()
	hub := push.NewHub(logger)
	go hub.Run()

	authService := auth.New(store, sessions, clk, auth.Config{SessionDuration: cfg.SessionTTL})
	ledgerService := ledger.New(store, hub, clk, logger)
	rosterService := roster.New(store, hub, clk, logger)

	if err := bootstrapAdmin(ctx, cfg, store, rosterService, logger); err != nil {
		hub.Close()
		_ = store.Close()
		return nil, err
	}

	return &App{
		Storage:       store,
		Sessions:      sessions,
		Clock:         clk,
		AuthService:   authService,
		LedgerService: ledgerService,
		RosterService: rosterService,
		Hub:           hub,
	}, nil
}

// bootstrapAdmin creates the initial admin account when the roster is empty,
// so a fresh deployment is reachable without manual database surgery
func bootstrapAdmin(ctx context.Context, cfg *config.Config, store storage.Storage, rosterService *roster.Service, logger *slog.Logger) error {
	if cfg.AdminPIN == "" {
		return nil
	}

	players, err := store.ListPlayers(ctx)
	if err != nil {
		return err
	}
	if len(players) > 0 {
		return nil
	}

	if _, err := rosterService.Create(ctx, roster.CreateParams{
		Name:    cfg.AdminName,
		PIN:     cfg.AdminPIN,
		IsAdmin: true,
	}); err != nil {
		return err
	}
	logger.Info("bootstrap admin created", slog.String("name", cfg.AdminName))
	return nil
}

// Close releases the application's resources
func (a *App) Close() error {
	a.Hub.Close()
	if closer, ok := a.Sessions.(io.Closer); ok {
		_ = closer.Close()
	}
	return a.Storage.Close()
}
