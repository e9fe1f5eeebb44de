// Package repository holds the in-memory stores behind the scoring service.
package repository

import (
	"context"

	"github.com/okian/tourney/internal/domain/model"
	"github.com/okian/tourney/internal/domain/scoring"
	"github.com/okian/tourney/internal/domain/types"
)

// Standings provides read/write access to championship totals.
type Standings interface {
	// ReplaceEvent swaps an event's previous contribution for a new one.
	// A sequence lower than the last applied one is ignored and reported
	// as false.
	ReplaceEvent(ctx context.Context, eventID string, seq uint64, standings scoring.Standings) (bool, error)

	// RemoveEvent drops an event's contribution.
	RemoveEvent(ctx context.Context, eventID string) error

	// Rank returns a player's row in a category.
	// Returns ErrNotFound if the category or player is unknown.
	Rank(ctx context.Context, category, playerID string) (types.Standing, error)

	// TopN returns the first n rows of a category ordered by total desc.
	TopN(ctx context.Context, category string, n int) ([]types.Standing, error)

	// Categories lists categories with at least one player, sorted.
	Categories(ctx context.Context) []string

	// Count returns the number of players in a category.
	Count(ctx context.Context, category string) int
}

// Results keeps the latest computed points table per event.
type Results interface {
	// Save stores res unless a result with a higher sequence is already
	// stored. It reports whether res was stored.
	Save(ctx context.Context, res types.EventResult) (bool, error)
	Get(ctx context.Context, eventID string) (types.EventResult, error)
	Events(ctx context.Context) []string

	// Delete drops an event's result and rejects later saves with a
	// sequence up to upTo. Returns ErrNotFound if nothing was stored.
	Delete(ctx context.Context, eventID string, upTo uint64) error
}

// Handicaps keeps one rating per player.
type Handicaps interface {
	Get(ctx context.Context, playerID string) (types.Handicap, error)
	// Update applies fn to the stored rating under the store lock. found is
	// false for a player without a rating.
	Update(ctx context.Context, playerID string, fn func(prev types.Handicap, found bool) types.Handicap) types.Handicap
}

// Groups keeps the starting groups built for each event.
type Groups interface {
	Put(ctx context.Context, eventID string, groups []model.Group) error
	Get(ctx context.Context, eventID string) ([]model.Group, error)
}
