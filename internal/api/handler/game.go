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
	"github.com/goldenknight/chessclub/internal/services/ledger"
)

// GameHandler handles game endpoints
type GameHandler struct {
	ledger *ledger.Service
}

// NewGameHandler creates a new game handler
func NewGameHandler(ledgerService *ledger.Service) *GameHandler {
	return &GameHandler{
		ledger: ledgerService,
	}
}

// List handles GET /api/v1/games
func (h *GameHandler) List(w http.ResponseWriter, r *http.Request) {
	query, err := parseListQuery(r)
	if err != nil {
		apierr.WriteError(w, err)
		return
	}

	records, err := h.ledger.List(r.Context(), query)
	if err != nil {
		apierr.WriteError(w, err)
		return
	}

	viewer := middleware.GetPlayer(r.Context())
	out := make([]response.Game, 0, len(records))
	for _, rec := range records {
		out = append(out, response.GameFromRecord(rec, viewer))
	}
	response.JSON(w, http.StatusOK, out)
}

// Get handles GET /api/v1/games/{id}
func (h *GameHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := gameID(r)
	if err != nil {
		apierr.WriteError(w, err)
		return
	}

	record, err := h.ledger.Get(r.Context(), id)
	if err != nil {
		apierr.WriteError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, response.GameFromRecord(record, middleware.GetPlayer(r.Context())))
}

// Create handles POST /api/v1/games. Any authenticated member can submit a
// game; only admins can submit one pre-verified.
func (h *GameHandler) Create(w http.ResponseWriter, r *http.Request) {
	caller := middleware.MustGetPlayer(r.Context())

	var req request.CreateGameRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apierr.WriteError(w, apierr.NewInvalidRequestError("invalid request body"))
		return
	}

	game, err := h.ledger.Create(r.Context(), ledger.CreateParams{
		WhiteID:    model.PlayerID(req.WhitePlayerID),
		BlackID:    model.PlayerID(req.BlackPlayerID),
		Result:     model.Result(req.Result),
		Date:       request.ParseDate(req.Date),
		AutoVerify: req.Verified && caller.IsAdmin,
	})
	if err != nil {
		apierr.WriteError(w, err)
		return
	}
	response.JSON(w, http.StatusCreated, response.GameFromModel(game, caller))
}

// Update handles PATCH /api/v1/games/{id} (admin)
func (h *GameHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := gameID(r)
	if err != nil {
		apierr.WriteError(w, err)
		return
	}

	var req request.UpdateGameRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apierr.WriteError(w, apierr.NewInvalidRequestError("invalid request body"))
		return
	}

	patch := model.GamePatch{Verified: req.Verified}
	if req.Result != nil {
		result := model.Result(*req.Result)
		patch.Result = &result
	}
	if req.Date != nil {
		date := request.ParseDate(*req.Date)
		patch.Date = &date
	}

	game, err := h.ledger.Update(r.Context(), id, patch)
	if err != nil {
		apierr.WriteError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, response.GameFromModel(game, middleware.GetPlayer(r.Context())))
}

// Verify handles PUT /api/v1/games/{id}/verify (admin)
func (h *GameHandler) Verify(w http.ResponseWriter, r *http.Request) {
	id, err := gameID(r)
	if err != nil {
		apierr.WriteError(w, err)
		return
	}

	game, err := h.ledger.Verify(r.Context(), id)
	if err != nil {
		apierr.WriteError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, response.GameFromModel(game, middleware.GetPlayer(r.Context())))
}

// Delete handles DELETE /api/v1/games/{id} (admin)
func (h *GameHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := gameID(r)
	if err != nil {
		apierr.WriteError(w, err)
		return
	}

	if err := h.ledger.Delete(r.Context(), id); err != nil {
		apierr.WriteError(w, err)
		return
	}
	response.NoContent(w)
}

func parseListQuery(r *http.Request) (ledger.ListQuery, error) {
	q := r.URL.Query()
	query := ledger.ListQuery{
		Order: model.SortOrder(q.Get("order")),
	}

	if v := q.Get("verified"); v != "" {
		verified, err := strconv.ParseBool(v)
		if err != nil {
			return ledger.ListQuery{}, apierr.NewInvalidRequestError("verified must be true or false")
		}
		query.Verified = &verified
	}
	if v := q.Get("player"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return ledger.ListQuery{}, apierr.NewInvalidRequestError("invalid player id")
		}
		pid := model.PlayerID(id)
		query.PlayerID = &pid
	}
	if v := q.Get("range"); v != "" {
		rng := model.DateRange(v)
		query.Range = &rng
	}
	if v := q.Get("date"); v != "" {
		day := request.ParseDate(v)
		if day.IsZero() {
			return ledger.ListQuery{}, apierr.NewInvalidRequestError("invalid date")
		}
		query.Day = &day
	}
	if v := q.Get("from"); v != "" {
		from := request.ParseDate(v)
		if from.IsZero() {
			return ledger.ListQuery{}, apierr.NewInvalidRequestError("invalid from date")
		}
		query.From = &from
	}
	if v := q.Get("to"); v != "" {
		to := request.ParseDate(v)
		if to.IsZero() {
			return ledger.ListQuery{}, apierr.NewInvalidRequestError("invalid to date")
		}
		query.To = &to
	}
	return query, nil
}

func gameID(r *http.Request) (model.GameID, error) {
	raw := mux.Vars(r)["id"]
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, apierr.NewInvalidRequestError("invalid game id")
	}
	return model.GameID(id), nil
}
