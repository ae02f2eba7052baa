package auth

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/goldenknight/chessclub/internal/dependencies/clock"
	"github.com/goldenknight/chessclub/internal/model"
	"github.com/goldenknight/chessclub/internal/storage"
)

// Errors
var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidSession     = errors.New("invalid or expired session")
	ErrNotAdmin           = errors.New("admin privileges required")
)

// Session represents an authenticated session
type Session struct {
	Token     string         `json:"token"`
	PlayerID  model.PlayerID `json:"playerId"`
	CreatedAt time.Time      `json:"createdAt"`
	ExpiresAt time.Time      `json:"expiresAt"`
}

// Service handles name/PIN authentication and session management.
// Sessions live in a SessionStore; player records are always fetched fresh
// so renames and admin grants take effect immediately.
type Service struct {
	storage  storage.Storage
	sessions SessionStore
	clock    clock.Clock

	sessionDuration time.Duration
}

// Config holds configuration for the auth service
type Config struct {
	SessionDuration time.Duration
}

// DefaultConfig returns default auth configuration
func DefaultConfig() Config {
	return Config{
		SessionDuration: 24 * time.Hour,
	}
}

// New creates a new auth service
func New(storage storage.Storage, sessions SessionStore, clock clock.Clock, cfg Config) *Service {
	if cfg.SessionDuration == 0 {
		cfg.SessionDuration = DefaultConfig().SessionDuration
	}
	return &Service{
		storage:         storage,
		sessions:        sessions,
		clock:           clock,
		sessionDuration: cfg.SessionDuration,
	}
}

// HashPIN hashes a plaintext PIN for storage
func HashPIN(pin string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(pin), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// Login authenticates a player by name and PIN and creates a session.
// Unknown names and wrong PINs are indistinguishable to the caller.
func (s *Service) Login(ctx context.Context, name, pin string) (*Session, error) {
	player, err := s.storage.GetPlayerByName(ctx, name)
	if err != nil {
		if errors.Is(err, model.ErrPlayerNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(player.PINHash), []byte(pin)); err != nil {
		return nil, ErrInvalidCredentials
	}

	now := s.clock.Now()
	session := &Session{
		Token:     uuid.NewString(),
		PlayerID:  player.ID,
		CreatedAt: now,
		ExpiresAt: now.Add(s.sessionDuration),
	}
	if err := s.sessions.Put(ctx, session); err != nil {
		return nil, err
	}
	return session, nil
}

// Logout removes a session. Unknown tokens are not an error.
func (s *Service) Logout(ctx context.Context, token string) error {
	return s.sessions.Delete(ctx, token)
}

// ValidateSession resolves a token to the player behind it
func (s *Service) ValidateSession(ctx context.Context, token string) (*model.Player, error) {
	session, err := s.sessions.Get(ctx, token)
	if err != nil {
		return nil, err
	}

	if s.clock.Now().After(session.ExpiresAt) {
		_ = s.sessions.Delete(ctx, token)
		return nil, ErrInvalidSession
	}

	player, err := s.storage.GetPlayer(ctx, session.PlayerID)
	if err != nil {
		if errors.Is(err, model.ErrPlayerNotFound) {
			// Player was deleted out from under the session
			_ = s.sessions.Delete(ctx, token)
			return nil, ErrInvalidSession
		}
		return nil, err
	}
	return player, nil
}

// RequireAdmin resolves a token and checks the player is an admin
func (s *Service) RequireAdmin(ctx context.Context, token string) (*model.Player, error) {
	player, err := s.ValidateSession(ctx, token)
	if err != nil {
		return nil, err
	}
	if !player.IsAdmin {
		return nil, ErrNotAdmin
	}
	return player, nil
}
