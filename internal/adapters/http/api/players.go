package api

import (
	"net/http"

	"github.com/okian/tourney/internal/domain/handicap"
)

// PlayersHandler handles handicap requests.
type PlayersHandler struct {
	deps Dependencies
}

// NewPlayersHandler creates a new players handler.
func NewPlayersHandler(deps Dependencies) *PlayersHandler {
	return &PlayersHandler{deps: deps}
}

// HandlePostRound handles POST /players/{id}/rounds with {"strokes":N,"par":N}.
func (h *PlayersHandler) HandlePostRound(w http.ResponseWriter, r *http.Request) {
	const op = "api.post_round"

	var round handicap.Round
	if err := decodeJSON(w, r, &round); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	updated, err := h.deps.RecordRound(r.Context(), r.PathValue("id"), round)
	if err != nil {
		writeServiceError(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

// HandleGetHandicap handles GET /players/{id}/handicap. Unknown players get
// the newcomer rating.
func (h *PlayersHandler) HandleGetHandicap(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.deps.Handicap(r.Context(), r.PathValue("id")))
}
