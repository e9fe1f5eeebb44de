package api

import (
	"bytes"
	"fmt"
	"net/http"
	"strings"

	service "github.com/okian/tourney/internal/app"
	"github.com/okian/tourney/internal/domain/model"
	"github.com/okian/tourney/internal/export"
)

// EventsHandler handles per-event requests.
type EventsHandler struct {
	deps Dependencies
}

// NewEventsHandler creates a new events handler.
func NewEventsHandler(deps Dependencies) *EventsHandler {
	return &EventsHandler{deps: deps}
}

type classificationResponse struct {
	Status string `json:"status"`
	service.Receipt
}

// HandlePostClassification handles POST /events/{id}/classification.
func (h *EventsHandler) HandlePostClassification(w http.ResponseWriter, r *http.Request) {
	const op = "api.post_classification"

	var req service.Classification
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	if body := strings.TrimSpace(req.EventID); body != "" && body != r.PathValue("id") {
		writeError(w, http.StatusBadRequest, "bad_request",
			WrapKind(op, ErrBadRequest, fmt.Errorf("event_id %q does not match path", body)))
		return
	}
	req.EventID = r.PathValue("id")

	receipt, err := h.deps.Submit(r.Context(), req)
	if err != nil {
		writeServiceError(w, op, err)
		return
	}
	if receipt.Duplicate {
		writeJSON(w, http.StatusOK, classificationResponse{Status: "duplicate", Receipt: receipt})
		return
	}
	writeJSON(w, http.StatusAccepted, classificationResponse{Status: "accepted", Receipt: receipt})
}

// HandleGetPoints handles GET /events/{id}/points.
func (h *EventsHandler) HandleGetPoints(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_points"
	res, err := h.deps.EventResult(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// HandleDeleteEvent handles DELETE /events/{id}.
func (h *EventsHandler) HandleDeleteEvent(w http.ResponseWriter, r *http.Request) {
	const op = "api.delete_event"
	if err := h.deps.RemoveEvent(r.Context(), r.PathValue("id")); err != nil {
		writeServiceError(w, op, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleExportPoints handles GET /events/{id}/points/export?format=csv|xlsx&scope=.
// Without a scope every category is exported.
func (h *EventsHandler) HandleExportPoints(w http.ResponseWriter, r *http.Request) {
	const op = "api.export_points"

	format, err := export.ParseFormat(r.URL.Query().Get("format"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	eventID := r.PathValue("id")
	res, err := h.deps.EventResult(r.Context(), eventID)
	if err != nil {
		writeServiceError(w, op, err)
		return
	}

	byCategory := res.ByCategory
	scope := strings.TrimSpace(r.URL.Query().Get("scope"))
	if scope != "" {
		rows, ok := res.ByCategory[scope]
		if !ok {
			writeError(w, http.StatusNotFound, "not_found",
				WrapKind(op, ErrNotFound, fmt.Errorf("scope %q", scope)))
			return
		}
		byCategory = map[string][]model.ScoredRow{scope: rows}
	}

	sheets := export.PointsSheets(byCategory, h.deps.GeneralLabel())
	writeDocument(w, op, format, export.FileName(eventID+"-points", scope, format), sheets)
}

// HandlePostGroups handles POST /events/{id}/groups.
func (h *EventsHandler) HandlePostGroups(w http.ResponseWriter, r *http.Request) {
	const op = "api.post_groups"

	var req service.GroupRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	built, err := h.deps.BuildGroups(r.Context(), r.PathValue("id"), req)
	if err != nil {
		writeServiceError(w, op, err)
		return
	}
	writeJSON(w, http.StatusCreated, built)
}

// HandleGetGroups handles GET /events/{id}/groups.
func (h *EventsHandler) HandleGetGroups(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_groups"
	built, err := h.deps.Groups(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, built)
}

func writeDocument(w http.ResponseWriter, op string, format export.Format, name string, sheets []export.Sheet) {
	var buf bytes.Buffer
	if err := export.Write(&buf, format, sheets); err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error", Wrap(op, err))
		return
	}
	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}
