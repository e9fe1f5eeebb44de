package repository

import (
	"context"
	"slices"
	"sync"

	"github.com/okian/tourney/internal/domain/model"
)

// GroupStore keeps the starting groups of each event in memory.
type GroupStore struct {
	mu     sync.RWMutex
	groups map[string][]model.Group
}

var _ Groups = (*GroupStore)(nil)

// NewGroupStore creates an empty GroupStore.
func NewGroupStore() *GroupStore {
	return &GroupStore{groups: make(map[string][]model.Group)}
}

// Put replaces an event's groups.
func (s *GroupStore) Put(_ context.Context, eventID string, groups []model.Group) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.groups[eventID] = cloneGroups(groups)
	return nil
}

// Get returns an event's groups or ErrNotFound.
func (s *GroupStore) Get(_ context.Context, eventID string) ([]model.Group, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	g, ok := s.groups[eventID]
	if !ok {
		return nil, ErrNotFound
	}
	return cloneGroups(g), nil
}

func cloneGroups(in []model.Group) []model.Group {
	out := make([]model.Group, len(in))
	for i, g := range in {
		out[i] = g
		out[i].Players = slices.Clone(g.Players)
	}
	return out
}
