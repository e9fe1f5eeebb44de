package api

import (
	"net/http"
	"strconv"

	"github.com/okian/tourney/internal/export"
)

// StandingsHandler handles championship requests.
type StandingsHandler struct {
	deps     Dependencies
	maxLimit int
}

// NewStandingsHandler creates a new standings handler.
func NewStandingsHandler(deps Dependencies, maxLimit int) *StandingsHandler {
	if maxLimit < 1 {
		maxLimit = defaultMaxLimit
	}
	return &StandingsHandler{deps: deps, maxLimit: maxLimit}
}

// HandleGetStandings handles GET /standings/{category}?limit=N. The limit
// defaults to 10 and may not exceed the configured maximum.
func (h *StandingsHandler) HandleGetStandings(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_standings"

	n := defaultStandingsLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v < 1 {
			writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrBadRequest))
			return
		}
		n = v
	}
	if n > h.maxLimit {
		writeError(w, http.StatusBadRequest, "limit_exceeded", NewKind(op, ErrBadRequest))
		return
	}

	rows, err := h.deps.Standings(r.Context(), r.PathValue("category"), n)
	if err != nil {
		writeServiceError(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, rows)
}

// HandleGetPlayer handles GET /standings/{category}/{player}.
func (h *StandingsHandler) HandleGetPlayer(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_standing"
	row, err := h.deps.PlayerStanding(r.Context(), r.PathValue("category"), r.PathValue("player"))
	if err != nil {
		writeServiceError(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, row)
}

// HandleExport handles GET /standings/export?format=csv|xlsx.
func (h *StandingsHandler) HandleExport(w http.ResponseWriter, r *http.Request) {
	const op = "api.export_standings"

	format, err := export.ParseFormat(r.URL.Query().Get("format"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	byCategory, events, err := h.deps.Championship(r.Context())
	if err != nil {
		writeServiceError(w, op, err)
		return
	}
	writeDocument(w, op, format, export.FileName("championship", "", format),
		export.ChampionshipSheets(byCategory, events))
}
