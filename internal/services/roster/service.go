// Package roster manages the club's player records and the statistics derived
// from their verified games.
package roster

import (
	"context"
	"log/slog"
	"sort"
	"strings"

	"github.com/goldenknight/chessclub/internal/dependencies/clock"
	"github.com/goldenknight/chessclub/internal/elo"
	"github.com/goldenknight/chessclub/internal/model"
	"github.com/goldenknight/chessclub/internal/notify"
	"github.com/goldenknight/chessclub/internal/services/auth"
	"github.com/goldenknight/chessclub/internal/storage"
)

// Service manages player records
type Service struct {
	storage  storage.Storage
	notifier notify.Notifier
	clock    clock.Clock
	logger   *slog.Logger
}

// New creates a new roster service
func New(storage storage.Storage, notifier notify.Notifier, clock clock.Clock, logger *slog.Logger) *Service {
	return &Service{
		storage:  storage,
		notifier: notifier,
		clock:    clock,
		logger:   logger,
	}
}

// CreateParams are the inputs for registering a player
type CreateParams struct {
	Name    string
	PIN     string
	IsAdmin bool

	// InitialRating defaults to model.DefaultInitialRating when nil
	InitialRating *int
}

// PlayerWithStats pairs a player with statistics derived from their verified
// games
type PlayerWithStats struct {
	Player model.Player
	Stats  model.PlayerStats
}

// Create registers a new player. The current rating starts equal to the
// initial rating; from then on only the ledger (or AdminSetRating) moves it.
func (s *Service) Create(ctx context.Context, params CreateParams) (*model.Player, error) {
	hash, err := auth.HashPIN(params.PIN)
	if err != nil {
		return nil, err
	}

	rating := model.DefaultInitialRating
	if params.InitialRating != nil {
		rating = *params.InitialRating
	}

	player := &model.Player{
		Name:          params.Name,
		PINHash:       hash,
		IsAdmin:       params.IsAdmin,
		InitialRating: rating,
		CurrentRating: rating,
		CreatedAt:     s.clock.Now(),
	}
	if err := s.storage.CreatePlayer(ctx, player); err != nil {
		return nil, err
	}

	s.notifier.Broadcast(model.PlayerEvent(model.ActionCreate, player))
	s.logger.Info("player created",
		slog.Int64("player_id", int64(player.ID)),
		slog.String("name", player.Name),
		slog.Int("initial_rating", rating),
	)
	return player, nil
}

// Update applies a partial update to a player. The PIN is re-hashed when
// present. Rating changes go through AdminSetRating, not here.
func (s *Service) Update(ctx context.Context, id model.PlayerID, patch model.PlayerPatch) (*model.Player, error) {
	var player *model.Player
	err := s.storage.WithTx(ctx, func(tx storage.Store) error {
		p, err := tx.GetPlayer(ctx, id)
		if err != nil {
			return err
		}

		if patch.Name != nil {
			p.Name = *patch.Name
		}
		if patch.PIN != nil {
			hash, err := auth.HashPIN(*patch.PIN)
			if err != nil {
				return err
			}
			p.PINHash = hash
		}
		if patch.IsAdmin != nil {
			p.IsAdmin = *patch.IsAdmin
		}

		if err := tx.UpdatePlayer(ctx, p); err != nil {
			return err
		}
		player = p
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.notifier.Broadcast(model.PlayerEvent(model.ActionUpdate, player))
	s.logger.Info("player updated", slog.Int64("player_id", int64(id)))
	return player, nil
}

// AdminSetRating overwrites a player's current rating directly, bypassing the
// ledger. This deliberately breaks the initial-plus-verified-deltas invariant
// and exists only as an admin correction tool.
func (s *Service) AdminSetRating(ctx context.Context, id model.PlayerID, rating int) (*model.Player, error) {
	var player *model.Player
	err := s.storage.WithTx(ctx, func(tx storage.Store) error {
		p, err := tx.GetPlayer(ctx, id)
		if err != nil {
			return err
		}
		p.CurrentRating = rating
		if err := tx.UpdatePlayer(ctx, p); err != nil {
			return err
		}
		player = p
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.notifier.Broadcast(model.PlayerEvent(model.ActionUpdate, player))
	s.logger.Warn("player rating overridden",
		slog.Int64("player_id", int64(id)),
		slog.Int("rating", rating),
	)
	return player, nil
}

// Delete removes a player. Every game they appear in is reverted (when
// verified) and deleted inside the same transaction, so the opponents'
// ratings end up as if those games had never been recorded. The database
// cascade never fires on its own.
func (s *Service) Delete(ctx context.Context, id model.PlayerID) error {
	var events []model.Event
	err := s.storage.WithTx(ctx, func(tx storage.Store) error {
		if _, err := tx.GetPlayer(ctx, id); err != nil {
			return err
		}

		games, err := tx.ListGamesForPlayer(ctx, id)
		if err != nil {
			return err
		}
		for _, g := range games {
			if g.Verified {
				if err := revertDeltas(ctx, tx, g); err != nil {
					return err
				}
			}
			if err := tx.DeleteGame(ctx, g.ID); err != nil {
				return err
			}
			events = append(events, model.DeletedGameEvent(g.ID))
		}

		if err := tx.DeletePlayer(ctx, id); err != nil {
			return err
		}
		events = append(events, model.DeletedPlayerEvent(id))
		return nil
	})
	if err != nil {
		return err
	}

	for _, e := range events {
		s.notifier.Broadcast(e)
	}
	s.logger.Info("player deleted",
		slog.Int64("player_id", int64(id)),
		slog.Int("games_removed", len(events)-1),
	)
	return nil
}

func revertDeltas(ctx context.Context, tx storage.Store, g *model.Game) error {
	white, err := tx.GetPlayer(ctx, g.WhiteID)
	if err != nil {
		return err
	}
	black, err := tx.GetPlayer(ctx, g.BlackID)
	if err != nil {
		return err
	}
	white.CurrentRating -= g.WhiteChange
	black.CurrentRating -= g.BlackChange
	if err := tx.UpdatePlayer(ctx, white); err != nil {
		return err
	}
	return tx.UpdatePlayer(ctx, black)
}

// ListQuery selects ordering and the stats window for a player listing. The
// window restricts which verified games feed the statistics, never which
// players appear.
type ListQuery struct {
	SortBy model.PlayerSort
	Order  model.SortOrder
	Window model.StatsWindow
}

// List returns every player with stats derived from their verified games in
// the window. Default ordering is by current rating, best first.
func (s *Service) List(ctx context.Context, query ListQuery) ([]*PlayerWithStats, error) {
	players, err := s.storage.ListPlayers(ctx)
	if err != nil {
		return nil, err
	}

	games, err := s.verifiedGames(ctx, query.Window)
	if err != nil {
		return nil, err
	}

	result := make([]*PlayerWithStats, 0, len(players))
	for _, p := range players {
		result = append(result, &PlayerWithStats{
			Player: *p,
			Stats:  computeStats(p.ID, games),
		})
	}

	sortPlayers(result, query.SortBy, query.Order)
	return result, nil
}

// Get returns one player with all-time stats
func (s *Service) Get(ctx context.Context, id model.PlayerID) (*PlayerWithStats, error) {
	player, err := s.storage.GetPlayer(ctx, id)
	if err != nil {
		return nil, err
	}
	games, err := s.verifiedGames(ctx, model.WindowAll)
	if err != nil {
		return nil, err
	}
	return &PlayerWithStats{
		Player: *player,
		Stats:  computeStats(id, games),
	}, nil
}

// verifiedGames fetches the verified games inside the window, enriched with
// both sides' current ratings for performance computation
func (s *Service) verifiedGames(ctx context.Context, window model.StatsWindow) ([]*model.GameRecord, error) {
	verified := true
	filter := model.GameFilter{Verified: &verified}

	now := s.clock.Now()
	switch window {
	case model.WindowWeek:
		from := now.AddDate(0, 0, -7)
		filter.From = &from
	case model.WindowMonth:
		from := now.AddDate(0, -1, 0)
		filter.From = &from
	case model.WindowYear:
		from := now.AddDate(0, 0, -365)
		filter.From = &from
	}

	return s.storage.ListGames(ctx, filter)
}

func computeStats(id model.PlayerID, games []*model.GameRecord) model.PlayerStats {
	var stats model.PlayerStats
	var points float64
	var opponents []int

	for _, g := range games {
		var opponent model.PlayerRef
		var won, lost bool
		switch id {
		case g.WhiteID:
			opponent = g.Black
			won = g.Result == model.ResultWhiteWin
			lost = g.Result == model.ResultBlackWin
		case g.BlackID:
			opponent = g.White
			won = g.Result == model.ResultBlackWin
			lost = g.Result == model.ResultWhiteWin
		default:
			continue
		}

		stats.GamesPlayed++
		opponents = append(opponents, opponent.Rating)
		switch {
		case won:
			stats.Wins++
			points++
		case lost:
			stats.Losses++
		default:
			stats.Draws++
			points += 0.5
		}
	}

	if stats.GamesPlayed > 0 {
		stats.WinRate = float64(stats.Wins) / float64(stats.GamesPlayed)
		perf := elo.Performance(opponents, points)
		stats.Performance = &perf
	}
	return stats
}

func sortPlayers(players []*PlayerWithStats, by model.PlayerSort, order model.SortOrder) {
	if by == "" {
		by = model.PlayerSortRating
	}
	if order == "" {
		// Ranked views read best-first, name and id listings read naturally
		if by == model.PlayerSortRating || by == model.PlayerSortPerformance {
			order = model.OrderDesc
		} else {
			order = model.OrderAsc
		}
	}

	desc := order == model.OrderDesc
	sort.SliceStable(players, func(i, j int) bool {
		a, b := players[i], players[j]
		switch by {
		case model.PlayerSortName:
			an, bn := strings.ToLower(a.Player.Name), strings.ToLower(b.Player.Name)
			if desc {
				return an > bn
			}
			return an < bn
		case model.PlayerSortID:
			if desc {
				return a.Player.ID > b.Player.ID
			}
			return a.Player.ID < b.Player.ID
		case model.PlayerSortPerformance:
			// Players with no games in the window always sort last
			ap, bp := a.Stats.Performance, b.Stats.Performance
			if ap == nil || bp == nil {
				return ap != nil && bp == nil
			}
			if desc {
				return *ap > *bp
			}
			return *ap < *bp
		default:
			if desc {
				return a.Player.CurrentRating > b.Player.CurrentRating
			}
			return a.Player.CurrentRating < b.Player.CurrentRating
		}
	})
}
