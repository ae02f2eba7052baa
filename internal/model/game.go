package model

import "time"

// GameID uniquely identifies a recorded game
type GameID int64

// Result is the outcome of a game, using standard chess notation
type Result string

const (
	ResultWhiteWin Result = "1-0"
	ResultBlackWin Result = "0-1"
	ResultDraw     Result = "1/2-1/2"
)

// ParseResult validates a wire-format result string
func ParseResult(s string) (Result, error) {
	switch Result(s) {
	case ResultWhiteWin, ResultBlackWin, ResultDraw:
		return Result(s), nil
	default:
		return "", ErrInvalidResult
	}
}

// Points returns the score each side earned: 1 for a win, 0.5 for a draw
func (r Result) Points() (white, black float64) {
	switch r {
	case ResultWhiteWin:
		return 1, 0
	case ResultBlackWin:
		return 0, 1
	default:
		return 0.5, 0.5
	}
}

// Game is a single recorded game between two club members.
//
// WhiteChange and BlackChange are the rating deltas attributed to this game
// when they were last computed. They are recorded at creation but only become
// live, affecting CurrentRating, once Verified is true.
type Game struct {
	ID      GameID
	WhiteID PlayerID
	BlackID PlayerID
	Result  Result

	// Date is when the game was played (client-supplied, defaults to
	// submission time).
	Date time.Time

	WhiteChange int
	BlackChange int
	Verified    bool

	CreatedAt time.Time
}

// PlayerRef is a snapshot of a game participant for enriched listings.
// Rating is the player's current rating, not the rating at game time.
type PlayerRef struct {
	ID     PlayerID
	Name   string
	Rating int
}

// GameRecord is a game enriched with both participants
type GameRecord struct {
	Game
	White PlayerRef
	Black PlayerRef
}

// GamePatch is a partial update to a game. Only non-nil slots are applied.
type GamePatch struct {
	Result   *Result
	Date     *time.Time
	Verified *bool
}

// SortOrder selects ascending or descending ordering
type SortOrder string

const (
	OrderAsc  SortOrder = "asc"
	OrderDesc SortOrder = "desc"
)

// DateRange is a named relative date range for game filtering
type DateRange string

const (
	RangeLastWeek  DateRange = "last-week"
	RangeLastMonth DateRange = "last-month"
	RangeLastYear  DateRange = "last-year"
)

// GameFilter restricts a game listing. All set fields combine with AND.
// From/To are concrete bounds resolved by the ledger from any named range
// or calendar day the caller supplied.
type GameFilter struct {
	Verified *bool
	PlayerID *PlayerID // game involves this player as either color
	From     *time.Time
	To       *time.Time
	Order    SortOrder // by date; empty defaults to descending
}
