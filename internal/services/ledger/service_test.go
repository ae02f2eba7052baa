package ledger

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/goldenknight/chessclub/internal/dependencies/mocks"
	"github.com/goldenknight/chessclub/internal/model"
	"github.com/goldenknight/chessclub/internal/notify"
	"github.com/goldenknight/chessclub/internal/storage/memory"
	"github.com/goldenknight/chessclub/internal/testutil"
)

type LedgerServiceSuite struct {
	suite.Suite
	ctx      context.Context
	storage  *memory.Storage
	clock    *mocks.MockClock
	notifier *notify.Capture
	service  *Service

	white *model.Player
	black *model.Player
}

func TestLedgerServiceSuite(t *testing.T) {
	suite.Run(t, new(LedgerServiceSuite))
}

func (s *LedgerServiceSuite) SetupTest() {
	s.ctx = context.Background()
	s.storage = memory.New()
	s.clock = mocks.NewMockClock(time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC))
	s.notifier = &notify.Capture{}
	s.service = New(s.storage, s.notifier, s.clock, testutil.NopLogger())

	s.white = s.addPlayer("alice", 1200)
	s.black = s.addPlayer("bob", 1200)
}

func (s *LedgerServiceSuite) addPlayer(name string, rating int) *model.Player {
	p := &model.Player{
		Name:          name,
		InitialRating: rating,
		CurrentRating: rating,
		CreatedAt:     s.clock.Now(),
	}
	s.Require().NoError(s.storage.CreatePlayer(s.ctx, p))
	return p
}

func (s *LedgerServiceSuite) rating(id model.PlayerID) int {
	p, err := s.storage.GetPlayer(s.ctx, id)
	s.Require().NoError(err)
	return p.CurrentRating
}

func (s *LedgerServiceSuite) create(result model.Result, autoVerify bool) *model.Game {
	g, err := s.service.Create(s.ctx, CreateParams{
		WhiteID:    s.white.ID,
		BlackID:    s.black.ID,
		Result:     result,
		AutoVerify: autoVerify,
	})
	s.Require().NoError(err)
	return g
}

func (s *LedgerServiceSuite) TestCreateRecordsDeltasWithoutApplying() {
	g := s.create(model.ResultWhiteWin, false)

	s.Equal(10, g.WhiteChange)
	s.Equal(-10, g.BlackChange)
	s.False(g.Verified)
	s.Equal(s.clock.Now(), g.Date, "zero date falls back to now")

	s.Equal(1200, s.rating(s.white.ID))
	s.Equal(1200, s.rating(s.black.ID))
}

func (s *LedgerServiceSuite) TestCreateAutoVerifyAppliesImmediately() {
	g := s.create(model.ResultWhiteWin, true)

	s.True(g.Verified)
	s.Equal(1210, s.rating(s.white.ID))
	s.Equal(1190, s.rating(s.black.ID))
}

func (s *LedgerServiceSuite) TestCreateSamePlayer() {
	_, err := s.service.Create(s.ctx, CreateParams{
		WhiteID: s.white.ID,
		BlackID: s.white.ID,
		Result:  model.ResultDraw,
	})
	s.ErrorIs(err, model.ErrSamePlayer)
}

func (s *LedgerServiceSuite) TestCreateInvalidResult() {
	_, err := s.service.Create(s.ctx, CreateParams{
		WhiteID: s.white.ID,
		BlackID: s.black.ID,
		Result:  "2-0",
	})
	s.ErrorIs(err, model.ErrInvalidResult)
}

func (s *LedgerServiceSuite) TestCreateUnknownPlayerLeavesNothingBehind() {
	_, err := s.service.Create(s.ctx, CreateParams{
		WhiteID: s.white.ID,
		BlackID: 999,
		Result:  model.ResultWhiteWin,
	})
	s.ErrorIs(err, model.ErrPlayerNotFound)

	games, err := s.storage.ListGames(s.ctx, model.GameFilter{})
	s.Require().NoError(err)
	s.Empty(games)
	s.Empty(s.notifier.Events())
}

func (s *LedgerServiceSuite) TestVerifyAppliesRecordedDeltas() {
	g := s.create(model.ResultWhiteWin, false)

	verified, err := s.service.Verify(s.ctx, g.ID)
	s.Require().NoError(err)
	s.True(verified.Verified)

	s.Equal(1210, s.rating(s.white.ID))
	s.Equal(1190, s.rating(s.black.ID))
}

func (s *LedgerServiceSuite) TestVerifyTwiceIsIdempotent() {
	g := s.create(model.ResultWhiteWin, false)

	_, err := s.service.Verify(s.ctx, g.ID)
	s.Require().NoError(err)
	_, err = s.service.Verify(s.ctx, g.ID)
	s.Require().NoError(err)

	s.Equal(1210, s.rating(s.white.ID))
	s.Equal(1190, s.rating(s.black.ID))
}

func (s *LedgerServiceSuite) TestVerifyAppliesRecordedNotRecomputed() {
	// Record at 1200 vs 1200, then move white's rating before verifying. The
	// deltas applied must be the ones recorded at creation.
	g := s.create(model.ResultWhiteWin, false)

	s.white.CurrentRating = 1500
	s.Require().NoError(s.storage.UpdatePlayer(s.ctx, s.white))

	_, err := s.service.Verify(s.ctx, g.ID)
	s.Require().NoError(err)

	s.Equal(1510, s.rating(s.white.ID))
	s.Equal(1190, s.rating(s.black.ID))
}

func (s *LedgerServiceSuite) TestVerifyUnknownGame() {
	_, err := s.service.Verify(s.ctx, 42)
	s.ErrorIs(err, model.ErrGameNotFound)
}

func (s *LedgerServiceSuite) TestDeleteVerifiedRevertsRatings() {
	g := s.create(model.ResultWhiteWin, true)

	s.Require().NoError(s.service.Delete(s.ctx, g.ID))

	s.Equal(1200, s.rating(s.white.ID))
	s.Equal(1200, s.rating(s.black.ID))
}

func (s *LedgerServiceSuite) TestDeleteRevertsExactRecordedDeltas() {
	// 1400 vs 1300 white win is +7/-7 under K=20; after applying, deleting
	// must subtract exactly what was recorded.
	carol := s.addPlayer("carol", 1400)
	dave := s.addPlayer("dave", 1300)

	g, err := s.service.Create(s.ctx, CreateParams{
		WhiteID:    carol.ID,
		BlackID:    dave.ID,
		Result:     model.ResultWhiteWin,
		AutoVerify: true,
	})
	s.Require().NoError(err)
	s.Equal(1407, s.rating(carol.ID))
	s.Equal(1293, s.rating(dave.ID))

	s.Require().NoError(s.service.Delete(s.ctx, g.ID))
	s.Equal(1400, s.rating(carol.ID))
	s.Equal(1300, s.rating(dave.ID))
}

func (s *LedgerServiceSuite) TestDeleteRevertsRecordedNotRecomputedDeltas() {
	// Seed a verified game whose recorded deltas do not match what the
	// calculator would produce today. Delete must trust the record.
	carol := s.addPlayer("carol", 1400)
	dave := s.addPlayer("dave", 1300)

	g := &model.Game{
		WhiteID:     carol.ID,
		BlackID:     dave.ID,
		Result:      model.ResultWhiteWin,
		Date:        s.clock.Now(),
		WhiteChange: 8,
		BlackChange: -8,
		Verified:    true,
		CreatedAt:   s.clock.Now(),
	}
	s.Require().NoError(s.storage.CreateGame(s.ctx, g))

	s.Require().NoError(s.service.Delete(s.ctx, g.ID))
	s.Equal(1392, s.rating(carol.ID))
	s.Equal(1308, s.rating(dave.ID))
}

func (s *LedgerServiceSuite) TestDeleteUnverifiedLeavesRatingsAlone() {
	g := s.create(model.ResultWhiteWin, false)

	s.Require().NoError(s.service.Delete(s.ctx, g.ID))

	s.Equal(1200, s.rating(s.white.ID))
	s.Equal(1200, s.rating(s.black.ID))
}

func (s *LedgerServiceSuite) TestUpdateResultOnVerifiedGame() {
	g := s.create(model.ResultWhiteWin, true)
	s.Equal(1210, s.rating(s.white.ID))

	result := model.ResultBlackWin
	updated, err := s.service.Update(s.ctx, g.ID, model.GamePatch{Result: &result})
	s.Require().NoError(err)

	// Equivalent to never having recorded the white win: revert to 1200/1200,
	// recompute 0-1 at equal ratings.
	s.Equal(model.ResultBlackWin, updated.Result)
	s.Equal(-10, updated.WhiteChange)
	s.Equal(10, updated.BlackChange)
	s.Equal(1190, s.rating(s.white.ID))
	s.Equal(1210, s.rating(s.black.ID))
}

func (s *LedgerServiceSuite) TestUpdateResultThereAndBackAgain() {
	g := s.create(model.ResultWhiteWin, true)

	blackWin := model.ResultBlackWin
	_, err := s.service.Update(s.ctx, g.ID, model.GamePatch{Result: &blackWin})
	s.Require().NoError(err)

	whiteWin := model.ResultWhiteWin
	_, err = s.service.Update(s.ctx, g.ID, model.GamePatch{Result: &whiteWin})
	s.Require().NoError(err)

	s.Equal(1210, s.rating(s.white.ID))
	s.Equal(1190, s.rating(s.black.ID))
}

func (s *LedgerServiceSuite) TestUpdateUnverifyReverts() {
	g := s.create(model.ResultWhiteWin, true)

	unverified := false
	updated, err := s.service.Update(s.ctx, g.ID, model.GamePatch{Verified: &unverified})
	s.Require().NoError(err)

	s.False(updated.Verified)
	s.Equal(10, updated.WhiteChange, "recorded deltas survive unverification")
	s.Equal(1200, s.rating(s.white.ID))
	s.Equal(1200, s.rating(s.black.ID))
}

func (s *LedgerServiceSuite) TestUpdateVerifyViaPatchAppliesDeltas() {
	g := s.create(model.ResultWhiteWin, false)

	verified := true
	_, err := s.service.Update(s.ctx, g.ID, model.GamePatch{Verified: &verified})
	s.Require().NoError(err)

	s.Equal(1210, s.rating(s.white.ID))
	s.Equal(1190, s.rating(s.black.ID))
}

func (s *LedgerServiceSuite) TestUpdateResultOnUnverifiedRefreshesRecordedDeltas() {
	g := s.create(model.ResultWhiteWin, false)

	draw := model.ResultDraw
	updated, err := s.service.Update(s.ctx, g.ID, model.GamePatch{Result: &draw})
	s.Require().NoError(err)

	s.Equal(0, updated.WhiteChange)
	s.Equal(0, updated.BlackChange)
	s.Equal(1200, s.rating(s.white.ID), "still unverified")

	// A later verify applies the refreshed deltas
	_, err = s.service.Verify(s.ctx, g.ID)
	s.Require().NoError(err)
	s.Equal(1200, s.rating(s.white.ID))
	s.Equal(1200, s.rating(s.black.ID))
}

func (s *LedgerServiceSuite) TestUpdateDateOnlyLeavesRatingsAlone() {
	g := s.create(model.ResultWhiteWin, true)

	newDate := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	updated, err := s.service.Update(s.ctx, g.ID, model.GamePatch{Date: &newDate})
	s.Require().NoError(err)

	s.Equal(newDate, updated.Date)
	s.True(updated.Verified)
	s.Equal(1210, s.rating(s.white.ID))
}

func (s *LedgerServiceSuite) TestGetEnrichesParticipants() {
	g := s.create(model.ResultWhiteWin, true)

	record, err := s.service.Get(s.ctx, g.ID)
	s.Require().NoError(err)
	s.Equal("alice", record.White.Name)
	s.Equal(1210, record.White.Rating)
	s.Equal("bob", record.Black.Name)
	s.Equal(1190, record.Black.Rating)
}

func (s *LedgerServiceSuite) TestListNamedRangeInclusiveBoundary() {
	now := s.clock.Now()
	inside := now.AddDate(0, 0, -7) // exactly on the boundary
	outside := now.AddDate(0, 0, -8)

	_, err := s.service.Create(s.ctx, CreateParams{
		WhiteID: s.white.ID, BlackID: s.black.ID,
		Result: model.ResultDraw, Date: inside,
	})
	s.Require().NoError(err)
	_, err = s.service.Create(s.ctx, CreateParams{
		WhiteID: s.white.ID, BlackID: s.black.ID,
		Result: model.ResultDraw, Date: outside,
	})
	s.Require().NoError(err)

	week := model.RangeLastWeek
	records, err := s.service.List(s.ctx, ListQuery{Range: &week})
	s.Require().NoError(err)
	s.Require().Len(records, 1)
	s.Equal(inside, records[0].Date)
}

func (s *LedgerServiceSuite) TestListInvalidRange() {
	bad := model.DateRange("fortnight")
	_, err := s.service.List(s.ctx, ListQuery{Range: &bad})
	s.ErrorIs(err, model.ErrInvalidDateRange)
}

func (s *LedgerServiceSuite) TestListSingleDay() {
	day := time.Date(2026, 5, 15, 0, 0, 0, 0, time.UTC)

	_, err := s.service.Create(s.ctx, CreateParams{
		WhiteID: s.white.ID, BlackID: s.black.ID,
		Result: model.ResultDraw, Date: day.Add(23*time.Hour + 59*time.Minute),
	})
	s.Require().NoError(err)
	_, err = s.service.Create(s.ctx, CreateParams{
		WhiteID: s.white.ID, BlackID: s.black.ID,
		Result: model.ResultDraw, Date: day.AddDate(0, 0, 1),
	})
	s.Require().NoError(err)

	records, err := s.service.List(s.ctx, ListQuery{Day: &day})
	s.Require().NoError(err)
	s.Len(records, 1)
}

func (s *LedgerServiceSuite) TestListDefaultOrderIsNewestFirst() {
	now := s.clock.Now()
	for _, d := range []time.Time{now.AddDate(0, 0, -2), now, now.AddDate(0, 0, -1)} {
		_, err := s.service.Create(s.ctx, CreateParams{
			WhiteID: s.white.ID, BlackID: s.black.ID,
			Result: model.ResultDraw, Date: d,
		})
		s.Require().NoError(err)
	}

	records, err := s.service.List(s.ctx, ListQuery{})
	s.Require().NoError(err)
	s.Require().Len(records, 3)
	s.True(records[0].Date.After(records[1].Date))
	s.True(records[1].Date.After(records[2].Date))
}

func (s *LedgerServiceSuite) TestEventsCarryNoVerifiedFlagAndFollowActions() {
	g := s.create(model.ResultWhiteWin, false)

	events := s.notifier.Events()
	s.Require().Len(events, 1)
	s.Equal(model.EventGameUpdate, events[0].Type)
	s.Equal(model.ActionCreate, events[0].Data.Action)
	s.Require().NotNil(events[0].Data.Game)
	s.Equal(g.ID, events[0].Data.Game.ID)

	s.notifier.Reset()
	_, err := s.service.Verify(s.ctx, g.ID)
	s.Require().NoError(err)

	events = s.notifier.Events()
	s.Require().Len(events, 3, "game update plus both players")
	s.Equal(model.EventGameUpdate, events[0].Type)
	s.Equal(model.EventPlayerUpdate, events[1].Type)
	s.Equal(model.EventPlayerUpdate, events[2].Type)

	s.notifier.Reset()
	s.Require().NoError(s.service.Delete(s.ctx, g.ID))
	events = s.notifier.Events()
	s.Require().Len(events, 3)
	last := events[2]
	s.Equal(model.ActionDelete, last.Data.Action)
	s.Equal(g.ID, last.Data.GameID)
	s.Nil(last.Data.Game)
}

func (s *LedgerServiceSuite) TestVerifyTwiceEmitsNoSecondEvent() {
	g := s.create(model.ResultWhiteWin, false)
	_, err := s.service.Verify(s.ctx, g.ID)
	s.Require().NoError(err)

	s.notifier.Reset()
	_, err = s.service.Verify(s.ctx, g.ID)
	s.Require().NoError(err)
	s.Empty(s.notifier.Events())
}
