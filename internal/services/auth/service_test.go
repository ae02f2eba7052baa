package auth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/goldenknight/chessclub/internal/dependencies/mocks"
	"github.com/goldenknight/chessclub/internal/model"
	"github.com/goldenknight/chessclub/internal/storage/memory"
)

type AuthServiceSuite struct {
	suite.Suite
	ctx     context.Context
	storage *memory.Storage
	clock   *mocks.MockClock
	service *Service

	alice *model.Player
}

func TestAuthServiceSuite(t *testing.T) {
	suite.Run(t, new(AuthServiceSuite))
}

func (s *AuthServiceSuite) SetupTest() {
	s.ctx = context.Background()
	s.storage = memory.New()
	s.clock = mocks.NewMockClock(time.Date(2026, 6, 1, 10, 0, 0, 0, time.UTC))
	s.service = New(s.storage, NewMemorySessionStore(), s.clock, DefaultConfig())

	hash, err := HashPIN("1234")
	s.Require().NoError(err)
	s.alice = &model.Player{
		Name:          "alice",
		PINHash:       hash,
		CurrentRating: 1200,
		CreatedAt:     s.clock.Now(),
	}
	s.Require().NoError(s.storage.CreatePlayer(s.ctx, s.alice))
}

func (s *AuthServiceSuite) TestLoginSuccess() {
	session, err := s.service.Login(s.ctx, "alice", "1234")
	s.Require().NoError(err)

	s.NotEmpty(session.Token)
	s.Equal(s.alice.ID, session.PlayerID)
	s.Equal(s.clock.Now().Add(24*time.Hour), session.ExpiresAt)
}

func (s *AuthServiceSuite) TestLoginWrongPIN() {
	_, err := s.service.Login(s.ctx, "alice", "9999")
	s.ErrorIs(err, ErrInvalidCredentials)
}

func (s *AuthServiceSuite) TestLoginUnknownName() {
	_, err := s.service.Login(s.ctx, "mallory", "1234")
	s.ErrorIs(err, ErrInvalidCredentials)
}

func (s *AuthServiceSuite) TestValidateSession() {
	session, err := s.service.Login(s.ctx, "alice", "1234")
	s.Require().NoError(err)

	player, err := s.service.ValidateSession(s.ctx, session.Token)
	s.Require().NoError(err)
	s.Equal(s.alice.ID, player.ID)
	s.Equal("alice", player.Name)
}

func (s *AuthServiceSuite) TestValidateSessionUnknownToken() {
	_, err := s.service.ValidateSession(s.ctx, "nope")
	s.ErrorIs(err, ErrInvalidSession)
}

func (s *AuthServiceSuite) TestValidateSessionExpired() {
	session, err := s.service.Login(s.ctx, "alice", "1234")
	s.Require().NoError(err)

	s.clock.Advance(25 * time.Hour)

	_, err = s.service.ValidateSession(s.ctx, session.Token)
	s.ErrorIs(err, ErrInvalidSession)
}

func (s *AuthServiceSuite) TestValidateSessionDeletedPlayer() {
	session, err := s.service.Login(s.ctx, "alice", "1234")
	s.Require().NoError(err)

	s.Require().NoError(s.storage.DeletePlayer(s.ctx, s.alice.ID))

	_, err = s.service.ValidateSession(s.ctx, session.Token)
	s.ErrorIs(err, ErrInvalidSession)
}

func (s *AuthServiceSuite) TestValidateSessionSeesFreshAdminFlag() {
	session, err := s.service.Login(s.ctx, "alice", "1234")
	s.Require().NoError(err)

	s.alice.IsAdmin = true
	s.Require().NoError(s.storage.UpdatePlayer(s.ctx, s.alice))

	player, err := s.service.RequireAdmin(s.ctx, session.Token)
	s.Require().NoError(err)
	s.True(player.IsAdmin)
}

func (s *AuthServiceSuite) TestRequireAdminRejectsRegularPlayer() {
	session, err := s.service.Login(s.ctx, "alice", "1234")
	s.Require().NoError(err)

	_, err = s.service.RequireAdmin(s.ctx, session.Token)
	s.ErrorIs(err, ErrNotAdmin)
}

func (s *AuthServiceSuite) TestLogout() {
	session, err := s.service.Login(s.ctx, "alice", "1234")
	s.Require().NoError(err)

	s.Require().NoError(s.service.Logout(s.ctx, session.Token))

	_, err = s.service.ValidateSession(s.ctx, session.Token)
	s.ErrorIs(err, ErrInvalidSession)
}

func (s *AuthServiceSuite) TestLogoutUnknownTokenIsNoop() {
	s.NoError(s.service.Logout(s.ctx, "nope"))
}
