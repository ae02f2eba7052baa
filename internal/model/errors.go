package model

import "errors"

// Common errors used across the application
var (
	// Player errors
	ErrPlayerNotFound = errors.New("player not found")
	ErrNameTaken      = errors.New("player name already taken")

	// Game errors
	ErrGameNotFound  = errors.New("game not found")
	ErrSamePlayer    = errors.New("white and black must be different players")
	ErrInvalidResult = errors.New("invalid game result")

	// Listing errors
	ErrInvalidDateRange = errors.New("invalid date range")
)
