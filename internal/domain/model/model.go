// Package model contains domain models passed between layers.
package model

// FinishingRow is one player's raw, possibly tied, finishing position.
type FinishingRow struct {
	PlayerID string `json:"player_id" yaml:"player_id"`
	Position int    `json:"position" yaml:"position"`
}

// Valid reports whether the row can be scored.
func (r FinishingRow) Valid() bool {
	return r.PlayerID != "" && r.Position >= 1
}

// RosterEntry describes a player as known to the profile store.
type RosterEntry struct {
	PlayerID    string `json:"player_id" yaml:"player_id"`
	DisplayName string `json:"display_name" yaml:"display_name"`
	Category    string `json:"category,omitempty" yaml:"category"`
}

// ScoredRow is the output unit: one per player per scope.
type ScoredRow struct {
	PlayerID    string `json:"player_id"`
	DisplayName string `json:"display_name"`
	Position    int    `json:"position"`
	Points      int    `json:"points"`
}

// Player is a participant handed to the group scheduler.
type Player struct {
	ID   string `json:"id" yaml:"id"`
	Name string `json:"name,omitempty" yaml:"name"`
}

// Group is a starting group built before play.
type Group struct {
	ID        string   `json:"id"`
	Label     string   `json:"label"`
	StartHole int      `json:"start_hole"`
	StartTime string   `json:"start_time"`
	Players   []Player `json:"players"`
}
