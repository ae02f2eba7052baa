// Package ledger implements the game lifecycle: recording results, the
// verification state machine, and the transactional apply/revert of rating
// deltas that keeps every player's current rating equal to their initial
// rating plus the sum of their verified games.
package ledger

import (
	"context"
	"log/slog"
	"time"

	"github.com/goldenknight/chessclub/internal/dependencies/clock"
	"github.com/goldenknight/chessclub/internal/elo"
	"github.com/goldenknight/chessclub/internal/model"
	"github.com/goldenknight/chessclub/internal/notify"
	"github.com/goldenknight/chessclub/internal/storage"
)

// Service manages the game ledger
type Service struct {
	storage  storage.Storage
	notifier notify.Notifier
	clock    clock.Clock
	logger   *slog.Logger
}

// New creates a new ledger service
func New(storage storage.Storage, notifier notify.Notifier, clock clock.Clock, logger *slog.Logger) *Service {
	return &Service{
		storage:  storage,
		notifier: notifier,
		clock:    clock,
		logger:   logger,
	}
}

// CreateParams are the inputs for recording a game
type CreateParams struct {
	WhiteID model.PlayerID
	BlackID model.PlayerID
	Result  model.Result

	// Date is when the game was played. Zero means now.
	Date time.Time

	// AutoVerify records the game as already verified, applying its deltas
	// immediately. Reserved for admin submissions.
	AutoVerify bool
}

// Create records a new game. Deltas are computed against both players'
// current ratings at submission time and stored on the game; they only touch
// the ratings themselves if AutoVerify is set.
func (s *Service) Create(ctx context.Context, params CreateParams) (*model.Game, error) {
	if params.WhiteID == params.BlackID {
		return nil, model.ErrSamePlayer
	}
	if _, err := model.ParseResult(string(params.Result)); err != nil {
		return nil, err
	}

	now := s.clock.Now()
	date := params.Date
	if date.IsZero() {
		date = now
	}

	var (
		game   *model.Game
		events []model.Event
	)
	err := s.storage.WithTx(ctx, func(tx storage.Store) error {
		white, err := tx.GetPlayer(ctx, params.WhiteID)
		if err != nil {
			return err
		}
		black, err := tx.GetPlayer(ctx, params.BlackID)
		if err != nil {
			return err
		}

		r := elo.Compute(white.CurrentRating, black.CurrentRating, params.Result)

		game = &model.Game{
			WhiteID:     params.WhiteID,
			BlackID:     params.BlackID,
			Result:      params.Result,
			Date:        date,
			WhiteChange: r.WhiteChange,
			BlackChange: r.BlackChange,
			Verified:    params.AutoVerify,
			CreatedAt:   now,
		}
		if err := tx.CreateGame(ctx, game); err != nil {
			return err
		}

		events = append(events, model.GameEvent(model.ActionCreate, game))

		if params.AutoVerify {
			updated, err := s.applyDeltas(ctx, tx, game, 1)
			if err != nil {
				return err
			}
			events = append(events, updated...)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.broadcast(events)
	s.logger.Info("game recorded",
		slog.Int64("game_id", int64(game.ID)),
		slog.Int64("white_id", int64(game.WhiteID)),
		slog.Int64("black_id", int64(game.BlackID)),
		slog.String("result", string(game.Result)),
		slog.Bool("verified", game.Verified),
	)
	return game, nil
}

// Verify marks a game as verified and applies its recorded deltas. Verifying
// an already-verified game is a no-op.
func (s *Service) Verify(ctx context.Context, id model.GameID) (*model.Game, error) {
	var (
		game   *model.Game
		events []model.Event
	)
	err := s.storage.WithTx(ctx, func(tx storage.Store) error {
		g, err := tx.GetGame(ctx, id)
		if err != nil {
			return err
		}
		game = g
		if g.Verified {
			return nil
		}

		g.Verified = true
		if err := tx.UpdateGame(ctx, g); err != nil {
			return err
		}

		updated, err := s.applyDeltas(ctx, tx, g, 1)
		if err != nil {
			return err
		}
		events = append(events, model.GameEvent(model.ActionUpdate, g))
		events = append(events, updated...)
		return nil
	})
	if err != nil {
		return nil, err
	}

	if len(events) > 0 {
		s.broadcast(events)
		s.logger.Info("game verified", slog.Int64("game_id", int64(id)))
	}
	return game, nil
}

// Update applies a partial update to a game. When the verified state or the
// result changes, the recorded deltas are reverted, recomputed, and reapplied
// as needed so ratings always reflect exactly the set of verified games.
func (s *Service) Update(ctx context.Context, id model.GameID, patch model.GamePatch) (*model.Game, error) {
	if patch.Result != nil {
		if _, err := model.ParseResult(string(*patch.Result)); err != nil {
			return nil, err
		}
	}

	var (
		game   *model.Game
		events []model.Event
	)
	err := s.storage.WithTx(ctx, func(tx storage.Store) error {
		g, err := tx.GetGame(ctx, id)
		if err != nil {
			return err
		}

		wasVerified := g.Verified
		newVerified := wasVerified
		if patch.Verified != nil {
			newVerified = *patch.Verified
		}
		resultChanged := patch.Result != nil && *patch.Result != g.Result

		// Step 1: take the old deltas off the board if they are live and
		// about to become stale
		if wasVerified && (resultChanged || !newVerified) {
			updated, err := s.applyDeltas(ctx, tx, g, -1)
			if err != nil {
				return err
			}
			events = append(events, updated...)
		}

		if patch.Result != nil {
			g.Result = *patch.Result
		}
		if patch.Date != nil {
			g.Date = *patch.Date
		}
		g.Verified = newVerified

		// Step 2: refresh the recorded deltas if the result changed. They
		// must always correspond to the stored result, since a later Verify
		// applies them as recorded.
		if resultChanged {
			white, err := tx.GetPlayer(ctx, g.WhiteID)
			if err != nil {
				return err
			}
			black, err := tx.GetPlayer(ctx, g.BlackID)
			if err != nil {
				return err
			}
			r := elo.Compute(white.CurrentRating, black.CurrentRating, g.Result)
			g.WhiteChange = r.WhiteChange
			g.BlackChange = r.BlackChange
		}

		// Step 3: put deltas back on the board if the game ends up verified
		// and they are not already live
		if newVerified && (resultChanged || !wasVerified) {
			updated, err := s.applyDeltas(ctx, tx, g, 1)
			if err != nil {
				return err
			}
			events = append(events, updated...)
		}

		if err := tx.UpdateGame(ctx, g); err != nil {
			return err
		}
		game = g
		events = append(events, model.GameEvent(model.ActionUpdate, g))
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.broadcast(events)
	s.logger.Info("game updated",
		slog.Int64("game_id", int64(id)),
		slog.Bool("verified", game.Verified),
	)
	return game, nil
}

// Delete removes a game, reverting its deltas first if they are live
func (s *Service) Delete(ctx context.Context, id model.GameID) error {
	var events []model.Event
	err := s.storage.WithTx(ctx, func(tx storage.Store) error {
		g, err := tx.GetGame(ctx, id)
		if err != nil {
			return err
		}

		if g.Verified {
			updated, err := s.applyDeltas(ctx, tx, g, -1)
			if err != nil {
				return err
			}
			events = append(events, updated...)
		}

		if err := tx.DeleteGame(ctx, id); err != nil {
			return err
		}
		events = append(events, model.DeletedGameEvent(id))
		return nil
	})
	if err != nil {
		return err
	}

	s.broadcast(events)
	s.logger.Info("game deleted", slog.Int64("game_id", int64(id)))
	return nil
}

// Get returns a single game enriched with both participants
func (s *Service) Get(ctx context.Context, id model.GameID) (*model.GameRecord, error) {
	g, err := s.storage.GetGame(ctx, id)
	if err != nil {
		return nil, err
	}

	record := &model.GameRecord{Game: *g}
	if white, err := s.storage.GetPlayer(ctx, g.WhiteID); err == nil {
		record.White = model.PlayerRef{ID: white.ID, Name: white.Name, Rating: white.CurrentRating}
	} else {
		record.White = model.PlayerRef{ID: g.WhiteID}
	}
	if black, err := s.storage.GetPlayer(ctx, g.BlackID); err == nil {
		record.Black = model.PlayerRef{ID: black.ID, Name: black.Name, Rating: black.CurrentRating}
	} else {
		record.Black = model.PlayerRef{ID: g.BlackID}
	}
	return record, nil
}

// ListQuery restricts a game listing. Range, Day, and From/To are mutually
// exclusive ways of bounding the date; Range wins over Day wins over From/To.
type ListQuery struct {
	Verified *bool
	PlayerID *model.PlayerID

	// Range is a named relative range ending now
	Range *model.DateRange

	// Day restricts to one calendar day in the day's own location
	Day *time.Time

	From *time.Time
	To   *time.Time

	Order model.SortOrder
}

// List returns games matching the query, enriched and sorted by date
// (descending unless asked otherwise)
func (s *Service) List(ctx context.Context, query ListQuery) ([]*model.GameRecord, error) {
	filter, err := s.resolveFilter(query)
	if err != nil {
		return nil, err
	}
	return s.storage.ListGames(ctx, filter)
}

func (s *Service) resolveFilter(query ListQuery) (model.GameFilter, error) {
	filter := model.GameFilter{
		Verified: query.Verified,
		PlayerID: query.PlayerID,
		From:     query.From,
		To:       query.To,
		Order:    query.Order,
	}

	switch {
	case query.Range != nil:
		now := s.clock.Now()
		var days int
		switch *query.Range {
		case model.RangeLastWeek:
			days = 7
		case model.RangeLastMonth:
			days = 30
		case model.RangeLastYear:
			days = 365
		default:
			return model.GameFilter{}, model.ErrInvalidDateRange
		}
		from := now.AddDate(0, 0, -days)
		filter.From = &from
		filter.To = nil
	case query.Day != nil:
		start := time.Date(query.Day.Year(), query.Day.Month(), query.Day.Day(), 0, 0, 0, 0, query.Day.Location())
		end := start.AddDate(0, 0, 1).Add(-time.Nanosecond)
		filter.From = &start
		filter.To = &end
	}
	return filter, nil
}

// applyDeltas shifts both players' ratings by sign times the game's recorded
// deltas and returns the player_update events describing the change
func (s *Service) applyDeltas(ctx context.Context, tx storage.Store, g *model.Game, sign int) ([]model.Event, error) {
	white, err := tx.GetPlayer(ctx, g.WhiteID)
	if err != nil {
		return nil, err
	}
	black, err := tx.GetPlayer(ctx, g.BlackID)
	if err != nil {
		return nil, err
	}

	white.CurrentRating += sign * g.WhiteChange
	black.CurrentRating += sign * g.BlackChange

	if err := tx.UpdatePlayer(ctx, white); err != nil {
		return nil, err
	}
	if err := tx.UpdatePlayer(ctx, black); err != nil {
		return nil, err
	}

	return []model.Event{
		model.PlayerEvent(model.ActionUpdate, white),
		model.PlayerEvent(model.ActionUpdate, black),
	}, nil
}

func (s *Service) broadcast(events []model.Event) {
	for _, e := range events {
		s.notifier.Broadcast(e)
	}
}
