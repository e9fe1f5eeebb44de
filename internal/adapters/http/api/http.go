// Package api exposes the scoring service over HTTP.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/okian/tourney/internal/adapters/mq/queue"
	"github.com/okian/tourney/internal/adapters/repository"
	service "github.com/okian/tourney/internal/app"
	"github.com/okian/tourney/internal/domain/handicap"
	"github.com/okian/tourney/internal/domain/model"
	"github.com/okian/tourney/internal/domain/tiebreak"
	"github.com/okian/tourney/internal/domain/types"
)

const (
	defaultStandingsLimit = 10
	defaultMaxLimit       = 200
	maxBodyBytes          = 1 << 20
)

// Dependencies required by HTTP handlers. *service.Service satisfies it.
type Dependencies interface {
	GeneralLabel() string
	Submit(ctx context.Context, c service.Classification) (service.Receipt, error)
	EventResult(ctx context.Context, eventID string) (types.EventResult, error)
	RemoveEvent(ctx context.Context, eventID string) error
	Championship(ctx context.Context) (map[string][]types.Standing, []string, error)
	Standings(ctx context.Context, category string, limit int) ([]types.Standing, error)
	PlayerStanding(ctx context.Context, category, playerID string) (types.Standing, error)
	RecordRound(ctx context.Context, playerID string, r handicap.Round) (types.Handicap, error)
	Handicap(ctx context.Context, playerID string) types.Handicap
	BuildGroups(ctx context.Context, eventID string, req service.GroupRequest) ([]model.Group, error)
	Groups(ctx context.Context, eventID string) ([]model.Group, error)
	Classify(ctx context.Context, entries []tiebreak.Entry) []model.FinishingRow
}

// Server wires HTTP routes for the business API.
type Server struct {
	limiter *IPRateLimiter

	healthHandler    *HealthHandler
	statsHandler     *StatsHandler
	eventsHandler    *EventsHandler
	standingsHandler *StandingsHandler
	playersHandler   *PlayersHandler
	tiebreakHandler  *TiebreakHandler
}

// ServerOption configures a Server.
type ServerOption func(*serverConfig)

type serverConfig struct {
	maxLimit int
	limiter  *IPRateLimiter
}

// WithMaxStandingsLimit caps the limit accepted by GET /standings/{category}.
func WithMaxStandingsLimit(n int) ServerOption {
	return func(c *serverConfig) {
		if n > 0 {
			c.maxLimit = n
		}
	}
}

// WithRateLimiter applies a per-IP limiter to every route except /healthz.
func WithRateLimiter(l *IPRateLimiter) ServerOption {
	return func(c *serverConfig) { c.limiter = l }
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider, opts ...ServerOption) *Server {
	cfg := serverConfig{maxLimit: defaultMaxLimit}
	for _, opt := range opts {
		opt(&cfg)
	}
	return &Server{
		limiter:          cfg.limiter,
		healthHandler:    NewHealthHandler(),
		statsHandler:     NewStatsHandler(statsProvider),
		eventsHandler:    NewEventsHandler(deps),
		standingsHandler: NewStandingsHandler(deps, cfg.maxLimit),
		playersHandler:   NewPlayersHandler(deps),
		tiebreakHandler:  NewTiebreakHandler(deps),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(mux *http.ServeMux) {
	handle := func(pattern, endpoint string, h http.HandlerFunc) {
		h = MetricsMiddleware(h, endpoint)
		if s.limiter != nil {
			h = RateLimitMiddleware(s.limiter, h)
		}
		mux.HandleFunc(pattern, h)
	}

	mux.HandleFunc("GET /healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	handle("GET /stats", "stats", s.statsHandler.HandleStats)

	handle("POST /events/{id}/classification", "classification", s.eventsHandler.HandlePostClassification)
	handle("DELETE /events/{id}", "event_delete", s.eventsHandler.HandleDeleteEvent)
	handle("GET /events/{id}/points", "points", s.eventsHandler.HandleGetPoints)
	handle("GET /events/{id}/points/export", "points_export", s.eventsHandler.HandleExportPoints)
	handle("POST /events/{id}/groups", "groups", s.eventsHandler.HandlePostGroups)
	handle("GET /events/{id}/groups", "groups", s.eventsHandler.HandleGetGroups)

	handle("GET /standings/export", "standings_export", s.standingsHandler.HandleExport)
	handle("GET /standings/{category}", "standings", s.standingsHandler.HandleGetStandings)
	handle("GET /standings/{category}/{player}", "standing", s.standingsHandler.HandleGetPlayer)

	handle("POST /players/{id}/rounds", "rounds", s.playersHandler.HandlePostRound)
	handle("GET /players/{id}/handicap", "handicap", s.playersHandler.HandleGetHandicap)

	handle("POST /tiebreak/classify", "tiebreak", s.tiebreakHandler.HandleClassify)
}

// Handler returns a mux with every route registered.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	s.Register(mux)
	return mux
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// writeServiceError maps service and store errors onto status codes.
func writeServiceError(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		writeError(w, http.StatusNotFound, "not_found", WrapKind(op, ErrNotFound, err))
	case errors.Is(err, service.ErrInvalidInput), errors.Is(err, repository.ErrInvalidLimit):
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
	case errors.Is(err, service.ErrBackpressure):
		writeError(w, http.StatusTooManyRequests, "backpressure", WrapKind(op, ErrBackpressure, err))
	case errors.Is(err, service.ErrNotStarted), errors.Is(err, queue.ErrClosed):
		writeError(w, http.StatusServiceUnavailable, "unavailable", WrapKind(op, ErrUnavailable, err))
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", Wrap(op, err))
	}
}

// decodeJSON reads a bounded JSON body into v.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return err
	}
	return nil
}
