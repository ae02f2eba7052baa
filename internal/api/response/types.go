// Package response defines the JSON shapes the API returns and the
// visibility rules applied when building them.
package response

import (
	"time"

	"github.com/goldenknight/chessclub/internal/model"
	"github.com/goldenknight/chessclub/internal/services/auth"
	"github.com/goldenknight/chessclub/internal/services/roster"
)

// Player represents a player in API responses. The admin flag only appears
// for admin callers or the player themself; the PIN hash never appears.
type Player struct {
	ID            int64     `json:"id"`
	Name          string    `json:"name"`
	InitialRating int       `json:"initialElo"`
	CurrentRating int       `json:"currentElo"`
	CreatedAt     time.Time `json:"createdAt"`
	IsAdmin       *bool     `json:"isAdmin,omitempty"`
}

// PlayerFromModel converts a model.Player, revealing the admin flag only
// when the caller is allowed to see it
func PlayerFromModel(p *model.Player, viewer *model.Player) Player {
	out := Player{
		ID:            int64(p.ID),
		Name:          p.Name,
		InitialRating: p.InitialRating,
		CurrentRating: p.CurrentRating,
		CreatedAt:     p.CreatedAt,
	}
	if viewer != nil && (viewer.IsAdmin || viewer.ID == p.ID) {
		isAdmin := p.IsAdmin
		out.IsAdmin = &isAdmin
	}
	return out
}

// PlayerStats represents derived statistics in API responses
type PlayerStats struct {
	GamesPlayed int     `json:"gamesPlayed"`
	Wins        int     `json:"wins"`
	Losses      int     `json:"losses"`
	Draws       int     `json:"draws"`
	WinRate     float64 `json:"winRate"`
	Performance *int    `json:"performance,omitempty"`
}

// PlayerWithStats pairs a player with their statistics
type PlayerWithStats struct {
	Player
	Stats PlayerStats `json:"stats"`
}

// PlayerWithStatsFromModel converts a roster row
func PlayerWithStatsFromModel(row *roster.PlayerWithStats, viewer *model.Player) PlayerWithStats {
	return PlayerWithStats{
		Player: PlayerFromModel(&row.Player, viewer),
		Stats: PlayerStats{
			GamesPlayed: row.Stats.GamesPlayed,
			Wins:        row.Stats.Wins,
			Losses:      row.Stats.Losses,
			Draws:       row.Stats.Draws,
			WinRate:     row.Stats.WinRate,
			Performance: row.Stats.Performance,
		},
	}
}

// GameParticipant is one side of a game in API responses
type GameParticipant struct {
	ID     int64  `json:"id"`
	Name   string `json:"name,omitempty"`
	Rating int    `json:"currentElo,omitempty"`
}

// Game represents a game in API responses. Verified is only populated for
// admin callers.
type Game struct {
	ID             int64           `json:"id"`
	White          GameParticipant `json:"white"`
	Black          GameParticipant `json:"black"`
	Result         string          `json:"result"`
	Date           time.Time       `json:"date"`
	WhiteEloChange int             `json:"whiteEloChange"`
	BlackEloChange int             `json:"blackEloChange"`
	Verified       *bool           `json:"verified,omitempty"`
	CreatedAt      time.Time       `json:"createdAt"`
}

// GameFromRecord converts an enriched game record
func GameFromRecord(r *model.GameRecord, viewer *model.Player) Game {
	out := Game{
		ID:             int64(r.ID),
		White:          GameParticipant{ID: int64(r.White.ID), Name: r.White.Name, Rating: r.White.Rating},
		Black:          GameParticipant{ID: int64(r.Black.ID), Name: r.Black.Name, Rating: r.Black.Rating},
		Result:         string(r.Result),
		Date:           r.Date,
		WhiteEloChange: r.WhiteChange,
		BlackEloChange: r.BlackChange,
		CreatedAt:      r.CreatedAt,
	}
	if viewer != nil && viewer.IsAdmin {
		verified := r.Verified
		out.Verified = &verified
	}
	return out
}

// GameFromModel converts a bare game without participant enrichment
func GameFromModel(g *model.Game, viewer *model.Player) Game {
	return GameFromRecord(&model.GameRecord{
		Game:  *g,
		White: model.PlayerRef{ID: g.WhiteID},
		Black: model.PlayerRef{ID: g.BlackID},
	}, viewer)
}

// AuthResponse is the response for the login endpoint
type AuthResponse struct {
	Player       Player    `json:"player"`
	SessionToken string    `json:"session_token"`
	ExpiresAt    time.Time `json:"expires_at"`
}

// AuthResponseFromSession creates an AuthResponse
func AuthResponseFromSession(s *auth.Session, p *model.Player) AuthResponse {
	return AuthResponse{
		Player:       PlayerFromModel(p, p),
		SessionToken: s.Token,
		ExpiresAt:    s.ExpiresAt,
	}
}
