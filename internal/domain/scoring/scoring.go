// Package scoring turns a finishing order into point awards, globally and per
// category.
package scoring

import (
	"sort"
	"strings"

	"github.com/okian/tourney/internal/domain/model"
	"github.com/okian/tourney/internal/domain/points"
)

// Scope labels used when no Engine options override them.
const (
	GeneralScope  = "General"
	Uncategorized = "Uncategorized"
)

// Award is a player's resolved position and points within one scope.
type Award struct {
	Position int `json:"position"`
	Points   int `json:"points"`
}

// Standings maps a scope (General or a category) to its scored rows.
type Standings map[string][]model.ScoredRow

// TableBuilder produces points tables. points.Build and (*points.Cache).Build
// both satisfy it.
type TableBuilder func(cfg points.Config, count int) points.Table

// Resolve distributes points across rows, sharing points inside ties that sit
// below the podium. Positions are kept as given.
func Resolve(rows []model.FinishingRow, cfg points.Config) map[string]Award {
	return resolve(rows, cfg, points.Build)
}

func resolve(rows []model.FinishingRow, cfg points.Config, build TableBuilder) map[string]Award {
	out := make(map[string]Award, len(rows))
	if len(rows) == 0 {
		return out
	}
	table := build(cfg, len(rows))

	groups := make(map[int][]string)
	positions := make([]int, 0)
	for _, r := range rows {
		if _, ok := groups[r.Position]; !ok {
			positions = append(positions, r.Position)
		}
		groups[r.Position] = append(groups[r.Position], r.PlayerID)
	}
	sort.Ints(positions)

	for _, pos := range positions {
		ids := groups[pos]
		start := pos - 1

		// Podium ties are expected to be settled by playoff before scoring,
		// so they are never averaged.
		if pos <= cfg.PodiumCount || len(ids) == 1 {
			for _, id := range ids {
				out[id] = Award{Position: pos, Points: table.At(start)}
			}
			continue
		}

		sum := 0
		for i := start; i < start+len(ids); i++ {
			sum += table.At(i)
		}
		shared := points.RoundHalfUp(float64(sum) / float64(len(ids)))
		for _, id := range ids {
			out[id] = Award{Position: pos, Points: shared}
		}
	}
	return out
}

// RankByCategory scores the General scope over the full finishing order and
// every roster category over a re-ranked partition.
func RankByCategory(finishing []model.FinishingRow, roster []model.RosterEntry, cfg points.Config) Standings {
	return NewEngine().RankByCategory(finishing, roster, cfg)
}

// CompetitionRanks re-ranks rows 1..n by their existing positions. Rows that
// shared a position share a rank and the next rank resumes after the group.
// The input is not modified.
func CompetitionRanks(rows []model.FinishingRow) []model.FinishingRow {
	sorted := make([]model.FinishingRow, len(rows))
	copy(sorted, rows)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Position < sorted[j].Position })

	out := make([]model.FinishingRow, len(sorted))
	current, next := 0, 1
	for i, r := range sorted {
		if i == 0 || r.Position != sorted[i-1].Position {
			current = next
		}
		out[i] = model.FinishingRow{PlayerID: r.PlayerID, Position: current}
		next++
	}
	return out
}

// Clean drops rows that cannot be scored, orders the rest by position and
// keeps only the best row of a player listed more than once.
func Clean(rows []model.FinishingRow) []model.FinishingRow {
	valid := make([]model.FinishingRow, 0, len(rows))
	for _, r := range rows {
		r.PlayerID = strings.TrimSpace(r.PlayerID)
		if r.Valid() {
			valid = append(valid, r)
		}
	}
	sort.SliceStable(valid, func(i, j int) bool { return valid[i].Position < valid[j].Position })

	seen := make(map[string]struct{}, len(valid))
	out := valid[:0]
	for _, r := range valid {
		if _, dup := seen[r.PlayerID]; dup {
			continue
		}
		seen[r.PlayerID] = struct{}{}
		out = append(out, r)
	}
	return out
}

func sortByPointsDesc(rows []model.ScoredRow) {
	sort.SliceStable(rows, func(i, j int) bool { return rows[i].Points > rows[j].Points })
}
