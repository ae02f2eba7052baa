package factory

import (
	"time"

	"github.com/goldenknight/chessclub/internal/dependencies/mocks"
	"github.com/goldenknight/chessclub/internal/push"
	"github.com/goldenknight/chessclub/internal/services/auth"
	"github.com/goldenknight/chessclub/internal/services/ledger"
	"github.com/goldenknight/chessclub/internal/services/roster"
	"github.com/goldenknight/chessclub/internal/storage/memory"
	"github.com/goldenknight/chessclub/internal/testutil"
)

// TestApp extends App with test-specific helpers
type TestApp struct {
	*App

	MockClock *mocks.MockClock
}

// NewTestApp creates a fully in-memory App with a mocked clock
func NewTestApp() *TestApp {
	store := memory.New()
	sessions := auth.NewMemorySessionStore()
	mockClock := mocks.NewMockClock(time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC))
	logger := testutil.NopLogger()

	hub := push.NewHub(logger)
	go hub.Run()

	app := &App{
		Storage:       store,
		Sessions:      sessions,
		Clock:         mockClock,
		AuthService:   auth.New(store, sessions, mockClock, auth.DefaultConfig()),
		LedgerService: ledger.New(store, hub, mockClock, logger),
		RosterService: roster.New(store, hub, mockClock, logger),
		Hub:           hub,
	}

	return &TestApp{
		App:       app,
		MockClock: mockClock,
	}
}
