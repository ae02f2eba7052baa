package model

import "time"

// EventType identifies the type of a broadcast event
type EventType string

const (
	EventGameUpdate   EventType = "game_update"
	EventPlayerUpdate EventType = "player_update"
)

// EventAction describes the mutation that triggered an event
type EventAction string

const (
	ActionCreate EventAction = "create"
	ActionUpdate EventAction = "update"
	ActionDelete EventAction = "delete"
)

// Event is broadcast to all connected observers whenever a game or player
// record is mutated. Payloads are sanitized before broadcast: game payloads
// never carry the verified flag, player payloads carry only public fields.
type Event struct {
	Type EventType `json:"type"`
	Data EventData `json:"data"`
}

// EventData is the payload of an Event
type EventData struct {
	Action   EventAction    `json:"action"`
	GameID   GameID         `json:"gameId,omitempty"`
	PlayerID PlayerID       `json:"playerId,omitempty"`
	Game     *GamePayload   `json:"game,omitempty"`
	Player   *PlayerPayload `json:"player,omitempty"`
}

// GamePayload is the client-facing view of a game. The verified flag is
// deliberately absent.
type GamePayload struct {
	ID          GameID    `json:"id"`
	WhiteID     PlayerID  `json:"whitePlayerId"`
	BlackID     PlayerID  `json:"blackPlayerId"`
	Result      Result    `json:"result"`
	Date        time.Time `json:"date"`
	WhiteChange int       `json:"whiteEloChange"`
	BlackChange int       `json:"blackEloChange"`
}

// PlayerPayload is the client-facing view of a player. No PIN hash, no
// admin flag.
type PlayerPayload struct {
	ID            PlayerID `json:"id"`
	Name          string   `json:"name"`
	CurrentRating int      `json:"currentElo"`
}

// SanitizeGame strips the non-public fields from a game
func SanitizeGame(g *Game) *GamePayload {
	if g == nil {
		return nil
	}
	return &GamePayload{
		ID:          g.ID,
		WhiteID:     g.WhiteID,
		BlackID:     g.BlackID,
		Result:      g.Result,
		Date:        g.Date,
		WhiteChange: g.WhiteChange,
		BlackChange: g.BlackChange,
	}
}

// SanitizePlayer strips the non-public fields from a player
func SanitizePlayer(p *Player) *PlayerPayload {
	if p == nil {
		return nil
	}
	return &PlayerPayload{
		ID:            p.ID,
		Name:          p.Name,
		CurrentRating: p.CurrentRating,
	}
}

// GameEvent builds a game_update event
func GameEvent(action EventAction, g *Game) Event {
	data := EventData{Action: action, Game: SanitizeGame(g)}
	if g != nil {
		data.GameID = g.ID
	}
	return Event{Type: EventGameUpdate, Data: data}
}

// DeletedGameEvent builds a game_update delete event carrying only the id
func DeletedGameEvent(id GameID) Event {
	return Event{Type: EventGameUpdate, Data: EventData{Action: ActionDelete, GameID: id}}
}

// PlayerEvent builds a player_update event
func PlayerEvent(action EventAction, p *Player) Event {
	data := EventData{Action: action, Player: SanitizePlayer(p)}
	if p != nil {
		data.PlayerID = p.ID
	}
	return Event{Type: EventPlayerUpdate, Data: data}
}

// DeletedPlayerEvent builds a player_update delete event carrying only the id
func DeletedPlayerEvent(id PlayerID) Event {
	return Event{Type: EventPlayerUpdate, Data: EventData{Action: ActionDelete, PlayerID: id}}
}
