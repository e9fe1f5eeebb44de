package api

import (
	"net/http"

	"github.com/okian/tourney/internal/domain/tiebreak"
)

// TiebreakHandler orders captured cards.
type TiebreakHandler struct {
	deps Dependencies
}

// NewTiebreakHandler creates a new tiebreak handler.
func NewTiebreakHandler(deps Dependencies) *TiebreakHandler {
	return &TiebreakHandler{deps: deps}
}

type classifyRequest struct {
	Cards []tiebreak.Entry `json:"cards"`
}

// HandleClassify handles POST /tiebreak/classify.
func (h *TiebreakHandler) HandleClassify(w http.ResponseWriter, r *http.Request) {
	const op = "api.classify"

	var req classifyRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	writeJSON(w, http.StatusOK, h.deps.Classify(r.Context(), req.Cards))
}
