// Package service wires the scoring engine to its stores, queue and workers
// and exposes the operations the HTTP API and CLIs need.
package service

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/okian/tourney/internal/adapters/mq/queue"
	"github.com/okian/tourney/internal/adapters/mq/worker"
	"github.com/okian/tourney/internal/adapters/repository"
	"github.com/okian/tourney/internal/domain/dedupe"
	"github.com/okian/tourney/internal/domain/groups"
	"github.com/okian/tourney/internal/domain/handicap"
	"github.com/okian/tourney/internal/domain/model"
	"github.com/okian/tourney/internal/domain/points"
	"github.com/okian/tourney/internal/domain/scoring"
	"github.com/okian/tourney/internal/domain/tiebreak"
	"github.com/okian/tourney/internal/domain/types"
	"github.com/okian/tourney/pkg/logger"
	"github.com/okian/tourney/pkg/metrics"
)

const (
	defaultQueueSize  = 10_000
	defaultDedupeSize = 50_000
	defaultGroupSize  = 4
	shutdownTimeout   = 30 * time.Second
)

// Classification is a finishing order submitted for scoring.
type Classification struct {
	SubmissionID string               `json:"submission_id"`
	EventID      string               `json:"event_id"`
	Finishing    []model.FinishingRow `json:"finishing"`
	Roster       []model.RosterEntry  `json:"roster"`
	Points       *points.RawConfig    `json:"points,omitempty"`
}

// Receipt acknowledges a submission.
type Receipt struct {
	SubmissionID string `json:"submission_id"`
	EventID      string `json:"event_id"`
	Sequence     uint64 `json:"sequence,omitempty"`
	Duplicate    bool   `json:"duplicate"`
}

// GroupRequest describes a starting-group build.
type GroupRequest struct {
	Players     []model.Player    `json:"players"`
	GroupSize   int               `json:"group_size"`
	PreAssigned map[string]string `json:"pre_assigned"`
	Config      groups.Config     `json:"config"`
}

// Service implements the API dependencies for the scoring system.
type Service struct {
	mu sync.RWMutex

	results   repository.Results
	standings repository.Standings
	handicaps repository.Handicaps
	groups    repository.Groups
	deduper   dedupe.Deduper
	queue     queue.Queue
	pool      *worker.Pool
	engine    *scoring.Engine
	scheduler *groups.Scheduler

	workerCount      int
	queueSize        int
	dedupeSize       int
	defaultPoints    points.Config
	defaultGroupSize int
	now              func() time.Time

	seq     atomic.Uint64
	pending sync.Map // submission id -> chan struct{} closed on release
	applyMu sync.Mutex
	started bool
	cancel  context.CancelFunc

	logger logger.Logger
}

// New constructs a Service. Stores are usable immediately; submissions need
// Start.
func New(opts ...Option) *Service {
	s := &Service{
		results:          repository.NewResultStore(),
		standings:        repository.NewTreapStore(),
		handicaps:        repository.NewHandicapStore(),
		groups:           repository.NewGroupStore(),
		engine:           scoring.NewEngine(scoring.WithTableCache(points.NewCache(0))),
		scheduler:        groups.NewScheduler(),
		workerCount:      runtime.NumCPU(),
		queueSize:        defaultQueueSize,
		dedupeSize:       defaultDedupeSize,
		defaultPoints:    points.DefaultConfig(),
		defaultGroupSize: defaultGroupSize,
		now:              time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = logger.Get().Named("service")
	}
	s.deduper = dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(s.dedupeSize))
	return s
}

// Start creates the queue and starts the worker pool.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	s.queue = queue.NewInMemoryQueue(queue.WithCapacity(s.queueSize))
	s.pool = worker.NewPool(s.workerCount, s.queue, s.engine, s, worker.WithClock(s.now))

	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	s.cancel = cancel
	s.pool.Start(runCtx)

	s.started = true
	s.logger.Info(ctx, "scoring service started",
		logger.Int("workers", s.workerCount),
		logger.Int("queue_size", s.queueSize),
		logger.Int("dedupe_size", s.dedupeSize),
	)
	return nil
}

// Stop drains queued submissions and stops the workers.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := s.pool.Shutdown(ctx); err != nil {
		s.logger.Warn(ctx, "worker pool did not drain", logger.Error(err))
	}
	s.cancel()
	s.started = false
	s.logger.Info(ctx, "scoring service stopped")
}

// Submit deduplicates a classification by submission id and queues it for
// scoring. A missing submission id is generated.
func (s *Service) Submit(ctx context.Context, c Classification) (Receipt, error) {
	const op = "service.Submit"

	eventID := strings.TrimSpace(c.EventID)
	if eventID == "" {
		return Receipt{}, fmt.Errorf("%s: %w: event id is required", op, ErrInvalidInput)
	}
	subID := strings.TrimSpace(c.SubmissionID)
	if subID == "" {
		subID = uuid.NewString()
	}
	receipt := Receipt{SubmissionID: subID, EventID: eventID}

	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.started {
		return Receipt{}, fmt.Errorf("%s: %w", op, ErrNotStarted)
	}

	release, err := s.claim(ctx, subID)
	if err != nil {
		return Receipt{}, fmt.Errorf("%s: %w", op, err)
	}
	defer release()

	if s.deduper.SeenAndRecord(ctx, subID) {
		metrics.RecordSubmissionDuplicate()
		receipt.Duplicate = true
		return receipt, nil
	}

	cfg := s.defaultPoints
	if c.Points != nil {
		cfg = points.Normalize(*c.Points)
	}
	receipt.Sequence = s.seq.Add(1)

	job := types.Submission{
		SubmissionID: subID,
		EventID:      eventID,
		Sequence:     receipt.Sequence,
		Finishing:    c.Finishing,
		Roster:       c.Roster,
		Points:       cfg,
		SubmittedAt:  s.now().UTC(),
	}
	if !s.queue.Enqueue(ctx, job) {
		s.deduper.Unrecord(ctx, subID)
		if s.queue.IsClosed() {
			return Receipt{}, fmt.Errorf("%s: %w", op, queue.ErrClosed)
		}
		return Receipt{}, fmt.Errorf("%s: %w", op, ErrBackpressure)
	}
	metrics.RecordSubmissionAccepted()
	s.logger.Debug(ctx, "submission queued",
		logger.String("event_id", eventID),
		logger.String("submission_id", subID),
		logger.Int("rows", len(c.Finishing)),
	)
	return receipt, nil
}

// claim blocks until no other Submit holds id, so recording, enqueueing and
// rolling back a submission id happen as one step.
func (s *Service) claim(ctx context.Context, id string) (func(), error) {
	for {
		ch := make(chan struct{})
		prev, loaded := s.pending.LoadOrStore(id, ch)
		if !loaded {
			return func() {
				s.pending.Delete(id)
				close(ch)
			}, nil
		}
		select {
		case <-prev.(chan struct{}):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}

// Apply stores a computed result and folds it into the championship
// standings. Results older than the stored one are dropped.
func (s *Service) Apply(ctx context.Context, res types.EventResult) error {
	s.applyMu.Lock()
	defer s.applyMu.Unlock()

	stored, err := s.results.Save(ctx, res)
	if err != nil {
		return fmt.Errorf("save result: %w", err)
	}
	if !stored {
		metrics.RecordResultStale()
		return nil
	}
	metrics.RecordResultStored()

	if _, err := s.standings.ReplaceEvent(ctx, res.EventID, res.Sequence, res.ByCategory); err != nil {
		return fmt.Errorf("update standings: %w", err)
	}
	return nil
}

// RemoveEvent withdraws an event: its stored result and its championship
// contribution are dropped. Submissions for the event accepted before the
// call are discarded when they are computed.
func (s *Service) RemoveEvent(ctx context.Context, eventID string) error {
	const op = "service.RemoveEvent"

	eventID = strings.TrimSpace(eventID)
	if eventID == "" {
		return fmt.Errorf("%s: %w: event id is required", op, ErrInvalidInput)
	}

	s.applyMu.Lock()
	defer s.applyMu.Unlock()

	resErr := s.results.Delete(ctx, eventID, s.seq.Load())
	if resErr != nil && !errors.Is(resErr, repository.ErrNotFound) {
		return fmt.Errorf("%s: %w", op, resErr)
	}
	stErr := s.standings.RemoveEvent(ctx, eventID)
	if stErr != nil && !errors.Is(stErr, repository.ErrNotFound) {
		return fmt.Errorf("%s: %w", op, stErr)
	}
	if resErr != nil && stErr != nil {
		return fmt.Errorf("%s: %w", op, repository.ErrNotFound)
	}
	s.logger.Info(ctx, "event removed", logger.String("event_id", eventID))
	return nil
}

// Compute scores a classification synchronously without storing it.
func (s *Service) Compute(c Classification) scoring.Standings {
	cfg := s.defaultPoints
	if c.Points != nil {
		cfg = points.Normalize(*c.Points)
	}
	return s.engine.RankByCategory(c.Finishing, c.Roster, cfg)
}

// GeneralLabel is the scope that lists every scored player.
func (s *Service) GeneralLabel() string { return s.engine.GeneralLabel() }

// EventResult returns the latest computed points of an event.
func (s *Service) EventResult(ctx context.Context, eventID string) (types.EventResult, error) {
	return s.results.Get(ctx, eventID)
}

// Events lists events with a computed result.
func (s *Service) Events(ctx context.Context) []string {
	return s.results.Events(ctx)
}

// Standings returns the top limit rows of a championship category.
func (s *Service) Standings(ctx context.Context, category string, limit int) ([]types.Standing, error) {
	return s.standings.TopN(ctx, category, limit)
}

// PlayerStanding returns one player's championship row.
func (s *Service) PlayerStanding(ctx context.Context, category, playerID string) (types.Standing, error) {
	return s.standings.Rank(ctx, category, playerID)
}

// Championship returns the full standings of every category together with
// the events that contributed to them.
func (s *Service) Championship(ctx context.Context) (map[string][]types.Standing, []string, error) {
	out := make(map[string][]types.Standing)
	for _, cat := range s.standings.Categories(ctx) {
		n := s.standings.Count(ctx, cat)
		if n == 0 {
			continue
		}
		rows, err := s.standings.TopN(ctx, cat, n)
		if err != nil {
			return nil, nil, fmt.Errorf("service.Championship: %w", err)
		}
		out[cat] = rows
	}
	return out, s.results.Events(ctx), nil
}

// Categories lists championship categories.
func (s *Service) Categories(ctx context.Context) []string {
	return s.standings.Categories(ctx)
}

// RecordRound applies a scored round to a player's handicap. Players with no
// rating start from handicap.Newcomer.
func (s *Service) RecordRound(ctx context.Context, playerID string, r handicap.Round) (types.Handicap, error) {
	const op = "service.RecordRound"

	playerID = strings.TrimSpace(playerID)
	if playerID == "" {
		return types.Handicap{}, fmt.Errorf("%s: %w: player id is required", op, ErrInvalidInput)
	}
	if r.Strokes <= 0 || r.Par <= 0 {
		return types.Handicap{}, fmt.Errorf("%s: %w: strokes and par must be positive", op, ErrInvalidInput)
	}

	now := s.now().UTC()
	h := s.handicaps.Update(ctx, playerID, func(prev types.Handicap, found bool) types.Handicap {
		current := handicap.Newcomer
		if found {
			current = prev.Value
		}
		return types.Handicap{
			Value:   handicap.Update(current, r.Strokes, r.Par),
			Rounds:  prev.Rounds + 1,
			Updated: now,
		}
	})
	metrics.RecordHandicapUpdate()
	return h, nil
}

// Handicap returns a player's rating, or the newcomer rating for a player
// with no rounds.
func (s *Service) Handicap(ctx context.Context, playerID string) types.Handicap {
	h, err := s.handicaps.Get(ctx, playerID)
	if err != nil {
		return types.Handicap{PlayerID: playerID, Value: handicap.Newcomer}
	}
	return h
}

// BuildGroups seats players for an event and stores the result.
func (s *Service) BuildGroups(ctx context.Context, eventID string, req GroupRequest) ([]model.Group, error) {
	const op = "service.BuildGroups"

	eventID = strings.TrimSpace(eventID)
	if eventID == "" {
		return nil, fmt.Errorf("%s: %w: event id is required", op, ErrInvalidInput)
	}
	size := req.GroupSize
	if size == 0 {
		size = s.defaultGroupSize
	}

	built, err := s.scheduler.Build(req.Players, size, req.PreAssigned, req.Config)
	if err != nil {
		return nil, fmt.Errorf("%s: %w: %w", op, ErrInvalidInput, err)
	}
	if err := s.groups.Put(ctx, eventID, built); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	metrics.RecordGroupsBuilt(string(groups.ParseType(string(req.Config.Type))), len(built))
	return built, nil
}

// Groups returns the stored starting groups of an event.
func (s *Service) Groups(ctx context.Context, eventID string) ([]model.Group, error) {
	return s.groups.Get(ctx, eventID)
}

// Classify orders captured cards into a finishing order.
func (s *Service) Classify(_ context.Context, entries []tiebreak.Entry) []model.FinishingRow {
	rows := tiebreak.Classify(entries)
	metrics.RecordCardsClassified(len(rows))
	return rows
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx := context.Background()
	stats := map[string]any{
		"started":      s.started,
		"worker_count": s.workerCount,
		"queue_size":   s.queueSize,
		"dedupe_size":  s.dedupeSize,
		"dedupe_len":   s.deduper.Size(),
		"events":       len(s.results.Events(ctx)),
		"categories":   len(s.standings.Categories(ctx)),
	}
	if s.started {
		stats["queue_length"] = s.queue.Len(ctx)
	}
	return stats
}
