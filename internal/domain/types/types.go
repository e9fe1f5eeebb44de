// Package types contains the shapes shared by the service, its stores and the
// HTTP API.
package types

import (
	"time"

	"github.com/okian/tourney/internal/domain/model"
	"github.com/okian/tourney/internal/domain/points"
)

// EventResult is the computed points table of one event.
type EventResult struct {
	EventID      string                       `json:"event_id"`
	SubmissionID string                       `json:"submission_id"`
	Sequence     uint64                       `json:"sequence"`
	ComputedAt   time.Time                    `json:"computed_at"`
	ByCategory   map[string][]model.ScoredRow `json:"by_category"`
}

// Standing is one championship row for a category.
type Standing struct {
	Rank     int            `json:"rank"`
	Category string         `json:"category"`
	PlayerID string         `json:"player_id"`
	Name     string         `json:"name"`
	Total    int            `json:"total"`
	Events   map[string]int `json:"events"`
}

// Handicap is a player's stored rating.
type Handicap struct {
	PlayerID string    `json:"player_id"`
	Value    float64   `json:"handicap"`
	Rounds   int       `json:"rounds"`
	Updated  time.Time `json:"updated_at"`
}

// Submission is a classification to be scored. Sequence orders submissions
// of the same event; a higher value is newer.
type Submission struct {
	SubmissionID string               `json:"submission_id"`
	EventID      string               `json:"event_id"`
	Sequence     uint64               `json:"sequence"`
	Finishing    []model.FinishingRow `json:"finishing"`
	Roster       []model.RosterEntry  `json:"roster"`
	Points       points.Config        `json:"points"`
	SubmittedAt  time.Time            `json:"submitted_at"`
}
