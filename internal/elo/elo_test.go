package elo

import (
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/goldenknight/chessclub/internal/model"
)

type EloSuite struct {
	suite.Suite
}

func TestEloSuite(t *testing.T) {
	suite.Run(t, new(EloSuite))
}

func (s *EloSuite) TestEqualRatingsWhiteWin() {
	r := Compute(1200, 1200, model.ResultWhiteWin)

	s.Equal(10, r.WhiteChange)
	s.Equal(-10, r.BlackChange)
	s.Equal(1210, r.WhiteNew)
	s.Equal(1190, r.BlackNew)
}

func (s *EloSuite) TestEqualRatingsBlackWin() {
	r := Compute(1200, 1200, model.ResultBlackWin)

	s.Equal(-10, r.WhiteChange)
	s.Equal(10, r.BlackChange)
}

func (s *EloSuite) TestEqualRatingsDraw() {
	r := Compute(1200, 1200, model.ResultDraw)

	s.Equal(0, r.WhiteChange)
	s.Equal(0, r.BlackChange)
	s.Equal(1200, r.WhiteNew)
	s.Equal(1200, r.BlackNew)
}

func (s *EloSuite) TestFavoriteWins() {
	// 100-point favorite gains less than an even matchup would
	r := Compute(1400, 1300, model.ResultWhiteWin)

	s.Equal(7, r.WhiteChange)
	s.Equal(-7, r.BlackChange)
	s.Equal(1407, r.WhiteNew)
	s.Equal(1293, r.BlackNew)
}

func (s *EloSuite) TestUpsetWin() {
	r := Compute(1400, 1300, model.ResultBlackWin)

	s.Equal(-13, r.WhiteChange)
	s.Equal(13, r.BlackChange)
}

func (s *EloSuite) TestUnderdogDrawGains() {
	r := Compute(1400, 1200, model.ResultDraw)

	s.Negative(r.WhiteChange)
	s.Positive(r.BlackChange)
}

func (s *EloSuite) TestChangeSumNearZero() {
	cases := []struct {
		white, black int
		result       model.Result
	}{
		{1200, 1200, model.ResultWhiteWin},
		{1500, 900, model.ResultBlackWin},
		{0, 4000, model.ResultWhiteWin},
		{4000, 0, model.ResultDraw},
		{1234, 1567, model.ResultDraw},
		{2100, 2099, model.ResultBlackWin},
	}

	for _, tc := range cases {
		r := Compute(tc.white, tc.black, tc.result)
		sum := r.WhiteChange + r.BlackChange
		s.LessOrEqual(sum, 1, "white=%d black=%d result=%s", tc.white, tc.black, tc.result)
		s.GreaterOrEqual(sum, -1, "white=%d black=%d result=%s", tc.white, tc.black, tc.result)
		s.Equal(tc.white+r.WhiteChange, r.WhiteNew)
		s.Equal(tc.black+r.BlackChange, r.BlackNew)
	}
}

func (s *EloSuite) TestChangeBoundedByK() {
	r := Compute(0, 4000, model.ResultWhiteWin)

	s.Equal(K, r.WhiteChange)
	s.Equal(-K, r.BlackChange)
}

func (s *EloSuite) TestDeterministic() {
	a := Compute(1350, 1420, model.ResultDraw)
	b := Compute(1350, 1420, model.ResultDraw)
	s.Equal(a, b)
}

// Performance rating tests

func (s *EloSuite) TestPerformancePerfectScore() {
	got := Performance([]int{1400, 1200}, 2)
	s.Equal(1300+800, got)
}

func (s *EloSuite) TestPerformanceZeroScore() {
	got := Performance([]int{1400, 1200}, 0)
	s.Equal(1300-800, got)
}

func (s *EloSuite) TestPerformanceEvenScore() {
	got := Performance([]int{1400, 1200}, 1)
	s.Equal(1300, got)
}

func (s *EloSuite) TestPerformanceThreeQuarters() {
	// P = 0.75: D = -400*log10(1/3) ~ 190.85
	got := Performance([]int{1400, 1200}, 1.5)
	s.Equal(1491, got)
}

func (s *EloSuite) TestPerformanceNoGames() {
	s.Equal(0, Performance(nil, 0))
}
