package factory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/goldenknight/chessclub/internal/config"
	"github.com/goldenknight/chessclub/internal/model"
	"github.com/goldenknight/chessclub/internal/services/ledger"
	"github.com/goldenknight/chessclub/internal/services/roster"
	"github.com/goldenknight/chessclub/internal/testutil"
)

type IntegrationSuite struct {
	suite.Suite
	app *TestApp
	ctx context.Context
}

func TestIntegrationSuite(t *testing.T) {
	suite.Run(t, new(IntegrationSuite))
}

func (s *IntegrationSuite) SetupTest() {
	s.app = NewTestApp()
	s.ctx = context.Background()
}

func (s *IntegrationSuite) TearDownTest() {
	_ = s.app.Close()
}

func (s *IntegrationSuite) TestBootstrapAdmin() {
	cfg := &config.Config{
		StorageType:    config.StorageMemory,
		SessionBackend: config.SessionMemory,
		SessionTTL:     24 * time.Hour,
		AdminName:      "Admin",
		AdminPIN:       "1234",
	}
	app, err := New(context.Background(), cfg, testutil.NopLogger())
	s.Require().NoError(err)
	defer func() { _ = app.Close() }()

	me, err := app.AuthService.Login(s.ctx, "Admin", "1234")
	s.Require().NoError(err)
	player, err := app.AuthService.ValidateSession(s.ctx, me.Token)
	s.Require().NoError(err)
	s.True(player.IsAdmin)

	// A second startup against the same store does not duplicate the account
	s.Require().NoError(bootstrapAdmin(s.ctx, cfg, app.Storage, app.RosterService, testutil.NopLogger()))
	players, err := app.Storage.ListPlayers(s.ctx)
	s.Require().NoError(err)
	s.Len(players, 1)
}

// Test: the full club lifecycle from registration to standings
func (s *IntegrationSuite) TestClubLifecycle() {
	// Step 1: register two members
	alice, err := s.app.RosterService.Create(s.ctx, roster.CreateParams{Name: "alice", PIN: "1111"})
	s.Require().NoError(err)
	bob, err := s.app.RosterService.Create(s.ctx, roster.CreateParams{Name: "bob", PIN: "2222"})
	s.Require().NoError(err)

	// Step 2: alice logs in
	session, err := s.app.AuthService.Login(s.ctx, "alice", "1111")
	s.Require().NoError(err)
	me, err := s.app.AuthService.ValidateSession(s.ctx, session.Token)
	s.Require().NoError(err)
	s.Equal(alice.ID, me.ID)

	// Step 3: a game is submitted and later verified
	game, err := s.app.LedgerService.Create(s.ctx, ledger.CreateParams{
		WhiteID: alice.ID,
		BlackID: bob.ID,
		Result:  model.ResultWhiteWin,
	})
	s.Require().NoError(err)

	_, err = s.app.LedgerService.Verify(s.ctx, game.ID)
	s.Require().NoError(err)

	// Step 4: standings reflect the verified game
	players, err := s.app.RosterService.List(s.ctx, roster.ListQuery{})
	s.Require().NoError(err)
	s.Require().Len(players, 2)
	s.Equal("alice", players[0].Player.Name)
	s.Equal(1210, players[0].Player.CurrentRating)
	s.Equal(1, players[0].Stats.Wins)
	s.Equal(1190, players[1].Player.CurrentRating)

	// Step 5: deleting bob reverts alice's rating with him
	s.Require().NoError(s.app.RosterService.Delete(s.ctx, bob.ID))

	row, err := s.app.RosterService.Get(s.ctx, alice.ID)
	s.Require().NoError(err)
	s.Equal(1200, row.Player.CurrentRating)
	s.Equal(0, row.Stats.GamesPlayed)
}
