package push

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"nhooyr.io/websocket"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time between keepalive pings
	pingPeriod = 30 * time.Second

	// Buffer size for outgoing messages
	sendBufferSize = 64
)

// Client represents one connected observer
type Client struct {
	send        chan []byte
	connectedAt time.Time
}

// NewClient creates an unconnected client. Exposed for hub tests; handlers
// should use ServeWS.
func NewClient() *Client {
	return &Client{
		send:        make(chan []byte, sendBufferSize),
		connectedAt: time.Now(),
	}
}

// Send is the client's outgoing message channel
func (c *Client) Send() <-chan []byte {
	return c.send
}

// ServeWS upgrades the request to a WebSocket and pumps hub messages to the
// peer until either side goes away
func ServeWS(w http.ResponseWriter, r *http.Request, hub *Hub, logger *slog.Logger) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		CompressionMode: websocket.CompressionNoContextTakeover,
	})
	if err != nil {
		logger.Warn("websocket accept failed", slog.String("error", err.Error()))
		return
	}
	defer conn.Close(websocket.StatusNormalClosure, "")

	client := NewClient()
	hub.Register(client)
	defer hub.Unregister(client)

	// Observers never send application messages; CloseRead keeps control
	// frames flowing and cancels the context when the peer disconnects
	ctx := conn.CloseRead(r.Context())

	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case message, ok := <-client.send:
			if !ok {
				// Hub shut down
				return
			}
			if err := writeWithTimeout(ctx, conn, message); err != nil {
				return
			}

		case <-ticker.C:
			pingCtx, cancel := context.WithTimeout(ctx, writeWait)
			err := conn.Ping(pingCtx)
			cancel()
			if err != nil {
				return
			}

		case <-ctx.Done():
			return
		}
	}
}

func writeWithTimeout(ctx context.Context, conn *websocket.Conn, message []byte) error {
	writeCtx, cancel := context.WithTimeout(ctx, writeWait)
	defer cancel()
	return conn.Write(writeCtx, websocket.MessageText, message)
}
