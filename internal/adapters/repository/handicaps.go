package repository

import (
	"context"
	"sync"

	"github.com/okian/tourney/internal/domain/types"
)

// HandicapStore keeps player ratings in memory.
type HandicapStore struct {
	mu      sync.Mutex
	ratings map[string]types.Handicap
}

var _ Handicaps = (*HandicapStore)(nil)

// NewHandicapStore creates an empty HandicapStore.
func NewHandicapStore() *HandicapStore {
	return &HandicapStore{ratings: make(map[string]types.Handicap)}
}

// Get returns a player's rating or ErrNotFound.
func (s *HandicapStore) Get(_ context.Context, playerID string) (types.Handicap, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	h, ok := s.ratings[playerID]
	if !ok {
		return types.Handicap{}, ErrNotFound
	}
	return h, nil
}

// Update runs fn against the current rating and stores what it returns.
func (s *HandicapStore) Update(_ context.Context, playerID string, fn func(prev types.Handicap, found bool) types.Handicap) types.Handicap {
	s.mu.Lock()
	defer s.mu.Unlock()
	prev, ok := s.ratings[playerID]
	next := fn(prev, ok)
	next.PlayerID = playerID
	s.ratings[playerID] = next
	return next
}
