// Package request defines the JSON request bodies accepted by the API.
package request

import "time"

// LoginRequest is the request body for logging in
type LoginRequest struct {
	Name string `json:"name"`
	PIN  string `json:"pin"`
}

// CreatePlayerRequest is the request body for registering a player
type CreatePlayerRequest struct {
	Name          string `json:"name"`
	PIN           string `json:"pin"`
	IsAdmin       bool   `json:"is_admin,omitempty"`
	InitialRating *int   `json:"initial_rating,omitempty"`
}

// UpdatePlayerRequest is the request body for a partial player update
type UpdatePlayerRequest struct {
	Name    *string `json:"name,omitempty"`
	PIN     *string `json:"pin,omitempty"`
	IsAdmin *bool   `json:"is_admin,omitempty"`
}

// SetRatingRequest is the request body for the admin rating override
type SetRatingRequest struct {
	Rating *int `json:"rating"`
}

// CreateGameRequest is the request body for submitting a game
type CreateGameRequest struct {
	WhitePlayerID int64  `json:"whitePlayerId"`
	BlackPlayerID int64  `json:"blackPlayerId"`
	Result        string `json:"result"`
	Date          string `json:"date,omitempty"`
	Verified      bool   `json:"verified,omitempty"`
}

// UpdateGameRequest is the request body for a partial game update
type UpdateGameRequest struct {
	Result   *string `json:"result,omitempty"`
	Date     *string `json:"date,omitempty"`
	Verified *bool   `json:"verified,omitempty"`
}

// ParseDate parses a client-supplied game date leniently. Accepts RFC 3339
// timestamps or plain YYYY-MM-DD days; anything else yields the zero time,
// which downstream treats as "now".
func ParseDate(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t
	}
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t
	}
	return time.Time{}
}
