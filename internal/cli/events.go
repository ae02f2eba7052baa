package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"
)

func newEventsCmd() *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "events",
		Short: "Stream live events over WebSocket",
		Long: `Connect to the server's WebSocket endpoint and stream events in real-time.

Events include:
  - game_update: A game was submitted, changed, or deleted
  - player_update: A player was created, changed, or deleted

Press Ctrl+C to disconnect.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return streamEvents(jsonOutput)
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output events as JSON lines")

	return cmd
}

// ClubEvent is a broadcast event as received over the wire
type ClubEvent struct {
	Type string          `json:"type"`
	Data ClubEventData   `json:"data"`
	Raw  json.RawMessage `json:"-"`
}

// ClubEventData is the payload of a ClubEvent
type ClubEventData struct {
	Action   string       `json:"action"`
	GameID   int64        `json:"gameId,omitempty"`
	PlayerID int64        `json:"playerId,omitempty"`
	Game     *EventGame   `json:"game,omitempty"`
	Player   *EventPlayer `json:"player,omitempty"`
}

// EventGame is the sanitized game payload carried by game_update events
type EventGame struct {
	ID             int64     `json:"id"`
	WhiteID        int64     `json:"whitePlayerId"`
	BlackID        int64     `json:"blackPlayerId"`
	Result         string    `json:"result"`
	Date           time.Time `json:"date"`
	WhiteEloChange int       `json:"whiteEloChange"`
	BlackEloChange int       `json:"blackEloChange"`
}

// EventPlayer is the sanitized player payload carried by player_update events
type EventPlayer struct {
	ID            int64  `json:"id"`
	Name          string `json:"name"`
	CurrentRating int    `json:"currentElo"`
}

func streamEvents(jsonOutput bool) error {
	wsURL := websocketURL(cfg.ServerURL) + "/api/v1/ws"

	// Handle interrupt
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	dialCtx, dialCancel := context.WithTimeout(ctx, 10*time.Second)
	defer dialCancel()

	opts := &websocket.DialOptions{}
	if cfg.Token != "" {
		opts.HTTPHeader = http.Header{"Authorization": []string{"Bearer " + cfg.Token}}
	}

	conn, _, err := websocket.Dial(dialCtx, wsURL, opts)
	if err != nil {
		return fmt.Errorf("connection failed: %w", err)
	}
	defer func() { _ = conn.Close(websocket.StatusNormalClosure, "") }()

	if !jsonOutput {
		fmt.Printf("Connected to %s\n", wsURL)
	}

	for {
		var raw json.RawMessage
		if err := wsjson.Read(ctx, conn, &raw); err != nil {
			// Context cancellation is expected
			if ctx.Err() != nil {
				if !jsonOutput {
					fmt.Println("\nDisconnected")
				}
				return nil
			}
			return fmt.Errorf("stream error: %w", err)
		}

		var evt ClubEvent
		if err := json.Unmarshal(raw, &evt); err != nil {
			continue
		}
		evt.Raw = raw

		printEvent(evt, jsonOutput)
	}
}

func printEvent(evt ClubEvent, jsonOutput bool) {
	if jsonOutput {
		fmt.Println(string(evt.Raw))
		return
	}

	timestamp := time.Now().Format("2006-01-02 15:04:05")
	detail := eventDetail(evt)
	fmt.Printf("[%s] %s %s%s\n", timestamp, evt.Type, evt.Data.Action, detail)
}

func eventDetail(evt ClubEvent) string {
	switch {
	case evt.Data.Game != nil:
		g := evt.Data.Game
		return fmt.Sprintf(": game #%d %d vs %d %s (%+d/%+d)",
			g.ID, g.WhiteID, g.BlackID, g.Result, g.WhiteEloChange, g.BlackEloChange)
	case evt.Data.Player != nil:
		p := evt.Data.Player
		return fmt.Sprintf(": %s now at %d", p.Name, p.CurrentRating)
	case evt.Data.GameID != 0:
		return fmt.Sprintf(": game #%d", evt.Data.GameID)
	case evt.Data.PlayerID != 0:
		return fmt.Sprintf(": player #%d", evt.Data.PlayerID)
	default:
		return ""
	}
}

func websocketURL(serverURL string) string {
	u := strings.TrimSuffix(serverURL, "/")
	switch {
	case strings.HasPrefix(u, "https://"):
		return "wss://" + strings.TrimPrefix(u, "https://")
	case strings.HasPrefix(u, "http://"):
		return "ws://" + strings.TrimPrefix(u, "http://")
	default:
		return u
	}
}
