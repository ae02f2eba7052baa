package storage

import (
	"context"

	"github.com/goldenknight/chessclub/internal/model"
)

// Store defines the data operations available both inside and outside a
// transaction.
type Store interface {
	// Player operations
	CreatePlayer(ctx context.Context, player *model.Player) error
	GetPlayer(ctx context.Context, id model.PlayerID) (*model.Player, error)
	GetPlayerByName(ctx context.Context, name string) (*model.Player, error)
	ListPlayers(ctx context.Context) ([]*model.Player, error)
	UpdatePlayer(ctx context.Context, player *model.Player) error
	DeletePlayer(ctx context.Context, id model.PlayerID) error

	// Game operations
	CreateGame(ctx context.Context, game *model.Game) error
	GetGame(ctx context.Context, id model.GameID) (*model.Game, error)
	UpdateGame(ctx context.Context, game *model.Game) error
	DeleteGame(ctx context.Context, id model.GameID) error

	// ListGames returns games matching the filter, enriched with both
	// participants' current name and rating, sorted by date.
	ListGames(ctx context.Context, filter model.GameFilter) ([]*model.GameRecord, error)

	// ListGamesForPlayer returns every raw game the player appears in
	ListGamesForPlayer(ctx context.Context, id model.PlayerID) ([]*model.Game, error)
}

// Storage is the interface for data persistence. WithTx runs fn against a
// transactional view of the store: if fn returns an error, every write made
// through it is discarded. The ledger relies on this for its all-or-nothing
// apply/revert protocol.
type Storage interface {
	Store

	WithTx(ctx context.Context, fn func(Store) error) error
	Close() error
}
