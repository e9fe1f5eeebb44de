package repository

import (
	"context"
	"maps"
	"slices"
	"sync"

	"github.com/okian/tourney/internal/domain/model"
	"github.com/okian/tourney/internal/domain/types"
)

// ResultStore keeps the newest points table per event in memory.
type ResultStore struct {
	mu      sync.RWMutex
	results map[string]types.EventResult
	removed map[string]uint64
}

var _ Results = (*ResultStore)(nil)

// NewResultStore creates an empty ResultStore.
func NewResultStore() *ResultStore {
	return &ResultStore{
		results: make(map[string]types.EventResult),
		removed: make(map[string]uint64),
	}
}

// Save stores res unless a newer sequence is already stored.
func (s *ResultStore) Save(_ context.Context, res types.EventResult) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if cur, ok := s.results[res.EventID]; ok && cur.Sequence > res.Sequence {
		return false, nil
	}
	if upTo, ok := s.removed[res.EventID]; ok {
		if res.Sequence <= upTo {
			return false, nil
		}
		delete(s.removed, res.EventID)
	}
	s.results[res.EventID] = cloneResult(res)
	return true, nil
}

// Get returns the stored result for an event.
func (s *ResultStore) Get(_ context.Context, eventID string) (types.EventResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	res, ok := s.results[eventID]
	if !ok {
		return types.EventResult{}, ErrNotFound
	}
	return cloneResult(res), nil
}

// Delete removes an event's result. Saves with a sequence up to upTo are
// ignored afterwards.
func (s *ResultStore) Delete(_ context.Context, eventID string, upTo uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if prev, ok := s.removed[eventID]; !ok || upTo > prev {
		s.removed[eventID] = upTo
	}
	if _, ok := s.results[eventID]; !ok {
		return ErrNotFound
	}
	delete(s.results, eventID)
	return nil
}

// Events lists event ids with a stored result, sorted.
func (s *ResultStore) Events(_ context.Context) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Sorted(maps.Keys(s.results))
}

func cloneResult(res types.EventResult) types.EventResult {
	out := res
	out.ByCategory = make(map[string][]model.ScoredRow, len(res.ByCategory))
	for k, rows := range res.ByCategory {
		out.ByCategory[k] = slices.Clone(rows)
	}
	return out
}
