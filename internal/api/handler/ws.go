package handler

import (
	"log/slog"
	"net/http"

	"github.com/goldenknight/chessclub/internal/push"
)

// WSHandler upgrades observers onto the push hub
type WSHandler struct {
	hub    *push.Hub
	logger *slog.Logger
}

// NewWSHandler creates a new WebSocket handler
func NewWSHandler(hub *push.Hub, logger *slog.Logger) *WSHandler {
	return &WSHandler{
		hub:    hub,
		logger: logger,
	}
}

// Serve handles GET /api/v1/ws
func (h *WSHandler) Serve(w http.ResponseWriter, r *http.Request) {
	push.ServeWS(w, r, h.hub, h.logger)
}
