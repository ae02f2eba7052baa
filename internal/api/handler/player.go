package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/goldenknight/chessclub/internal/api/apierr"
	"github.com/goldenknight/chessclub/internal/api/middleware"
	"github.com/goldenknight/chessclub/internal/api/request"
	"github.com/goldenknight/chessclub/internal/api/response"
	"github.com/goldenknight/chessclub/internal/model"
	"github.com/goldenknight/chessclub/internal/services/roster"
)

// PlayerHandler handles player endpoints
type PlayerHandler struct {
	roster *roster.Service
}

// NewPlayerHandler creates a new player handler
func NewPlayerHandler(rosterService *roster.Service) *PlayerHandler {
	return &PlayerHandler{
		roster: rosterService,
	}
}

// List handles GET /api/v1/players
func (h *PlayerHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	query := roster.ListQuery{
		SortBy: model.PlayerSort(q.Get("sort")),
		Order:  model.SortOrder(q.Get("order")),
		Window: model.StatsWindow(q.Get("window")),
	}

	rows, err := h.roster.List(r.Context(), query)
	if err != nil {
		apierr.WriteError(w, err)
		return
	}

	viewer := middleware.GetPlayer(r.Context())
	out := make([]response.PlayerWithStats, 0, len(rows))
	for _, row := range rows {
		out = append(out, response.PlayerWithStatsFromModel(row, viewer))
	}
	response.JSON(w, http.StatusOK, out)
}

// Get handles GET /api/v1/players/{id}
func (h *PlayerHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := playerID(r)
	if err != nil {
		apierr.WriteError(w, err)
		return
	}

	row, err := h.roster.Get(r.Context(), id)
	if err != nil {
		apierr.WriteError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, response.PlayerWithStatsFromModel(row, middleware.GetPlayer(r.Context())))
}

// GetMe handles GET /api/v1/players/me
func (h *PlayerHandler) GetMe(w http.ResponseWriter, r *http.Request) {
	me := middleware.MustGetPlayer(r.Context())

	row, err := h.roster.Get(r.Context(), me.ID)
	if err != nil {
		apierr.WriteError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, response.PlayerWithStatsFromModel(row, me))
}

// Create handles POST /api/v1/players (admin)
func (h *PlayerHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req request.CreatePlayerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apierr.WriteError(w, apierr.NewInvalidRequestError("invalid request body"))
		return
	}
	if req.Name == "" {
		apierr.WriteError(w, apierr.NewInvalidRequestError("name is required"))
		return
	}
	if req.PIN == "" {
		apierr.WriteError(w, apierr.NewInvalidRequestError("pin is required"))
		return
	}

	player, err := h.roster.Create(r.Context(), roster.CreateParams{
		Name:          req.Name,
		PIN:           req.PIN,
		IsAdmin:       req.IsAdmin,
		InitialRating: req.InitialRating,
	})
	if err != nil {
		apierr.WriteError(w, err)
		return
	}
	response.JSON(w, http.StatusCreated, response.PlayerFromModel(player, middleware.GetPlayer(r.Context())))
}

// Update handles PATCH /api/v1/players/{id} (admin, or self for name/pin)
func (h *PlayerHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := playerID(r)
	if err != nil {
		apierr.WriteError(w, err)
		return
	}

	caller := middleware.MustGetPlayer(r.Context())
	if !caller.IsAdmin && caller.ID != id {
		apierr.WriteError(w, apierr.NewForbiddenError("You can only update your own profile"))
		return
	}

	var req request.UpdatePlayerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apierr.WriteError(w, apierr.NewInvalidRequestError("invalid request body"))
		return
	}
	if req.IsAdmin != nil && !caller.IsAdmin {
		apierr.WriteError(w, apierr.NewForbiddenError("Only admins can change the admin flag"))
		return
	}

	player, err := h.roster.Update(r.Context(), id, model.PlayerPatch{
		Name:    req.Name,
		PIN:     req.PIN,
		IsAdmin: req.IsAdmin,
	})
	if err != nil {
		apierr.WriteError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, response.PlayerFromModel(player, caller))
}

// SetRating handles PUT /api/v1/players/{id}/rating (admin)
func (h *PlayerHandler) SetRating(w http.ResponseWriter, r *http.Request) {
	id, err := playerID(r)
	if err != nil {
		apierr.WriteError(w, err)
		return
	}

	var req request.SetRatingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apierr.WriteError(w, apierr.NewInvalidRequestError("invalid request body"))
		return
	}
	if req.Rating == nil {
		apierr.WriteError(w, apierr.NewInvalidRequestError("rating is required"))
		return
	}

	player, err := h.roster.AdminSetRating(r.Context(), id, *req.Rating)
	if err != nil {
		apierr.WriteError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, response.PlayerFromModel(player, middleware.GetPlayer(r.Context())))
}

// Delete handles DELETE /api/v1/players/{id} (admin)
func (h *PlayerHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := playerID(r)
	if err != nil {
		apierr.WriteError(w, err)
		return
	}

	if err := h.roster.Delete(r.Context(), id); err != nil {
		apierr.WriteError(w, err)
		return
	}
	response.NoContent(w)
}

func playerID(r *http.Request) (model.PlayerID, error) {
	raw := mux.Vars(r)["id"]
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, apierr.NewInvalidRequestError("invalid player id")
	}
	return model.PlayerID(id), nil
}
