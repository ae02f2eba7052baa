package model

import "time"

// PlayerID uniquely identifies a player across the system
type PlayerID int64

// DefaultInitialRating is assigned to new players unless overridden
const DefaultInitialRating = 1200

// Player represents a club member
type Player struct {
	ID   PlayerID
	Name string // login name, unique within the club

	// PINHash is the bcrypt hash of the player's PIN.
	// It never leaves the authentication boundary.
	PINHash string `json:"-"`

	IsAdmin bool

	// InitialRating is set once at creation. CurrentRating is mutated only
	// by the ledger's verified-game apply/revert protocol, or by the
	// explicit admin rating override.
	InitialRating int
	CurrentRating int

	CreatedAt time.Time
}

// PlayerStats holds statistics derived from a player's verified games.
// Never persisted; computed on read.
type PlayerStats struct {
	GamesPlayed int
	Wins        int
	Losses      int
	Draws       int
	WinRate     float64

	// Performance is the performance rating over the filtered window.
	// Nil when the player has no verified games in the window.
	Performance *int
}

// PlayerPatch is a partial update to a player. Only non-nil slots are applied.
type PlayerPatch struct {
	Name          *string
	PIN           *string // plaintext; re-hashed before storage
	IsAdmin       *bool
	CurrentRating *int
}

// PlayerSort selects the ordering for player listings
type PlayerSort string

const (
	PlayerSortName        PlayerSort = "name"
	PlayerSortID          PlayerSort = "id"
	PlayerSortRating      PlayerSort = "rating"
	PlayerSortPerformance PlayerSort = "performance"
)

// StatsWindow restricts which verified games feed derived statistics.
// It never restricts which players are listed.
type StatsWindow string

const (
	WindowWeek  StatsWindow = "week"
	WindowMonth StatsWindow = "month"
	WindowYear  StatsWindow = "year"
	WindowAll   StatsWindow = "all"
)
