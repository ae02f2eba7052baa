// Package elo implements the club's rating arithmetic: the standard ELO
// update for a single game and the performance rating over a set of games.
// Everything here is pure math with no I/O.
package elo

import (
	"math"

	"github.com/goldenknight/chessclub/internal/model"
)

// K is the fixed K-factor used for all rating updates
const K = 20

// Ratings is the outcome of a single rating computation
type Ratings struct {
	WhiteNew    int
	BlackNew    int
	WhiteChange int
	BlackChange int
}

// Compute maps two current ratings and a game result to new ratings and the
// per-side deltas. Each side's change is rounded independently, so the two
// deltas can differ from exact symmetry by 1.
func Compute(whiteRating, blackRating int, result model.Result) Ratings {
	expectedWhite := expectedScore(whiteRating, blackRating)
	expectedBlack := expectedScore(blackRating, whiteRating)

	actualWhite, actualBlack := result.Points()

	whiteChange := int(math.Round(K * (actualWhite - expectedWhite)))
	blackChange := int(math.Round(K * (actualBlack - expectedBlack)))

	return Ratings{
		WhiteNew:    whiteRating + whiteChange,
		BlackNew:    blackRating + blackChange,
		WhiteChange: whiteChange,
		BlackChange: blackChange,
	}
}

// expectedScore is the probability of the first player scoring against the
// second under the ELO model
func expectedScore(rating, opponent int) float64 {
	return 1 / (1 + math.Pow(10, float64(opponent-rating)/400))
}

// Performance computes a performance rating from the opponents faced and the
// fraction of points scored. The difference term is clamped to +/-800 for a
// perfect or zero score. Returns the average opponent rating plus the
// difference, rounded to the nearest integer.
func Performance(opponentRatings []int, points float64) int {
	if len(opponentRatings) == 0 {
		return 0
	}

	sum := 0
	for _, r := range opponentRatings {
		sum += r
	}
	avg := float64(sum) / float64(len(opponentRatings))

	p := points / float64(len(opponentRatings))

	var diff float64
	switch {
	case p <= 0:
		diff = -800
	case p >= 1:
		diff = 800
	default:
		diff = -400 * math.Log10((1-p)/p)
		if diff > 800 {
			diff = 800
		} else if diff < -800 {
			diff = -800
		}
	}

	return int(math.Round(avg + diff))
}
