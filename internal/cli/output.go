package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"time"
)

// Output handles formatting output based on the configured format
type Output struct {
	format string
}

// NewOutput creates a new Output formatter
func NewOutput(format string) *Output {
	return &Output{format: format}
}

// Print outputs data in the configured format
func (o *Output) Print(data any) {
	if o.format == "json" {
		o.printJSON(data)
	} else {
		o.printText(data)
	}
}

// PrintError outputs an error
func (o *Output) PrintError(err error) {
	if o.format == "json" {
		errData := map[string]any{
			"error": map[string]string{
				"message": err.Error(),
			},
		}
		data, _ := json.Marshal(errData)
		fmt.Fprintln(os.Stderr, string(data))
	} else {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
	}
}

// PrintMessage outputs a simple message
func (o *Output) PrintMessage(msg string) {
	if o.format == "json" {
		data, _ := json.Marshal(map[string]string{"message": msg})
		fmt.Println(string(data))
	} else {
		fmt.Println(msg)
	}
}

func (o *Output) printJSON(data any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(data)
}

func (o *Output) printText(data any) {
	switch v := data.(type) {
	case Player:
		o.printPlayer(v)
	case PlayerWithStats:
		o.printPlayerWithStats(v)
	case []PlayerWithStats:
		o.printStandings(v)
	case AuthResult:
		o.printAuthResult(v)
	case Game:
		o.printGame(v)
	case []Game:
		o.printGames(v)
	case HealthResult:
		o.printHealthResult(v)
	default:
		// Fallback to JSON for unknown types
		o.printJSON(data)
	}
}

// Player response type (matches API)
type Player struct {
	ID            int64     `json:"id"`
	Name          string    `json:"name"`
	InitialRating int       `json:"initialElo"`
	CurrentRating int       `json:"currentElo"`
	CreatedAt     time.Time `json:"createdAt"`
	IsAdmin       *bool     `json:"isAdmin,omitempty"`
}

// PlayerStats response type
type PlayerStats struct {
	GamesPlayed int     `json:"gamesPlayed"`
	Wins        int     `json:"wins"`
	Losses      int     `json:"losses"`
	Draws       int     `json:"draws"`
	WinRate     float64 `json:"winRate"`
	Performance *int    `json:"performance,omitempty"`
}

// PlayerWithStats response type
type PlayerWithStats struct {
	Player
	Stats PlayerStats `json:"stats"`
}

// AuthResult combines player and token
type AuthResult struct {
	Player       Player    `json:"player"`
	SessionToken string    `json:"session_token"`
	ExpiresAt    time.Time `json:"expires_at"`
}

// GameParticipant response type
type GameParticipant struct {
	ID     int64  `json:"id"`
	Name   string `json:"name,omitempty"`
	Rating int    `json:"currentElo,omitempty"`
}

// Game response type
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

// HealthResult response type
type HealthResult struct {
	Status string `json:"status"`
}

func (o *Output) printPlayer(p Player) {
	fmt.Printf("Player: %s (#%d)\n", p.Name, p.ID)
	fmt.Printf("Rating: %d (started at %d)\n", p.CurrentRating, p.InitialRating)
	if p.IsAdmin != nil && *p.IsAdmin {
		fmt.Println("Role: admin")
	}
	if !p.CreatedAt.IsZero() {
		fmt.Printf("Member since: %s\n", p.CreatedAt.Format("2006-01-02"))
	}
}

func (o *Output) printPlayerWithStats(p PlayerWithStats) {
	o.printPlayer(p.Player)
	s := p.Stats
	fmt.Printf("Games: %d (W%d / L%d / D%d)\n", s.GamesPlayed, s.Wins, s.Losses, s.Draws)
	if s.GamesPlayed > 0 {
		fmt.Printf("Win rate: %.0f%%\n", s.WinRate*100)
	}
	if s.Performance != nil {
		fmt.Printf("Performance: %d\n", *s.Performance)
	}
}

func (o *Output) printStandings(rows []PlayerWithStats) {
	if len(rows) == 0 {
		fmt.Println("No players")
		return
	}
	fmt.Printf("%-4s %-20s %6s %6s %5s %5s %5s\n", "#", "NAME", "ELO", "PERF", "W", "L", "D")
	for i, row := range rows {
		perf := "-"
		if row.Stats.Performance != nil {
			perf = fmt.Sprintf("%d", *row.Stats.Performance)
		}
		fmt.Printf("%-4d %-20s %6d %6s %5d %5d %5d\n",
			i+1, row.Name, row.CurrentRating, perf,
			row.Stats.Wins, row.Stats.Losses, row.Stats.Draws)
	}
}

func (o *Output) printAuthResult(a AuthResult) {
	o.printPlayer(a.Player)
	fmt.Printf("Token: %s\n", a.SessionToken)
}

func (o *Output) printGame(g Game) {
	fmt.Printf("Game #%d: %s vs %s\n", g.ID, participantLabel(g.White), participantLabel(g.Black))
	fmt.Printf("Result: %s\n", g.Result)
	fmt.Printf("Played: %s\n", g.Date.Format("2006-01-02"))
	fmt.Printf("Elo: white %+d, black %+d\n", g.WhiteEloChange, g.BlackEloChange)
	if g.Verified != nil {
		fmt.Printf("Verified: %t\n", *g.Verified)
	}
}

func (o *Output) printGames(games []Game) {
	if len(games) == 0 {
		fmt.Println("No games")
		return
	}
	for _, g := range games {
		verified := ""
		if g.Verified != nil && !*g.Verified {
			verified = " [unverified]"
		}
		fmt.Printf("#%-5d %s  %-20s %-7s %-20s %+d/%+d%s\n",
			g.ID, g.Date.Format("2006-01-02"),
			participantLabel(g.White), g.Result, participantLabel(g.Black),
			g.WhiteEloChange, g.BlackEloChange, verified)
	}
}

func participantLabel(p GameParticipant) string {
	if p.Name == "" {
		return fmt.Sprintf("#%d", p.ID)
	}
	return p.Name
}

func (o *Output) printHealthResult(h HealthResult) {
	fmt.Printf("Status: %s\n", h.Status)
}
