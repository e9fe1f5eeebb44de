package loadgen

import (
	"fmt"
	"sort"

	"github.com/okian/tourney/internal/domain/points"
	"github.com/okian/tourney/internal/domain/scoring"
	"github.com/okian/tourney/internal/domain/types"
)

// ExpectedStandings recomputes the championship of a season locally. Rows
// are ordered by total descending then player id, with competition ranks.
func ExpectedStandings(season Season) map[string][]types.Standing {
	totals := make(map[string]map[string]*types.Standing)
	for _, c := range season.Events {
		cfg := points.DefaultConfig()
		if c.Points != nil {
			cfg = points.Normalize(*c.Points)
		}
		for category, rows := range scoring.RankByCategory(c.Finishing, c.Roster, cfg) {
			board, ok := totals[category]
			if !ok {
				board = make(map[string]*types.Standing)
				totals[category] = board
			}
			for _, r := range rows {
				s, ok := board[r.PlayerID]
				if !ok {
					s = &types.Standing{Category: category, PlayerID: r.PlayerID, Name: r.DisplayName, Events: map[string]int{}}
					board[r.PlayerID] = s
				}
				s.Total += r.Points
				s.Events[c.EventID] = r.Points
			}
		}
	}

	out := make(map[string][]types.Standing, len(totals))
	for category, board := range totals {
		rows := make([]types.Standing, 0, len(board))
		for _, s := range board {
			rows = append(rows, *s)
		}
		sort.Slice(rows, func(i, j int) bool {
			if rows[i].Total != rows[j].Total {
				return rows[i].Total > rows[j].Total
			}
			return rows[i].PlayerID < rows[j].PlayerID
		})
		for i := range rows {
			if i > 0 && rows[i].Total == rows[i-1].Total {
				rows[i].Rank = rows[i-1].Rank
			} else {
				rows[i].Rank = i + 1
			}
		}
		out[category] = rows
	}
	return out
}

// CompareStandings checks that got matches want row by row on player, total
// and rank.
func CompareStandings(want, got []types.Standing) error {
	if len(want) != len(got) {
		return fmt.Errorf("got %d rows, want %d", len(got), len(want))
	}
	for i := range want {
		w, g := want[i], got[i]
		if w.PlayerID != g.PlayerID || w.Total != g.Total || w.Rank != g.Rank {
			return fmt.Errorf("row %d: got %s total=%d rank=%d, want %s total=%d rank=%d",
				i, g.PlayerID, g.Total, g.Rank, w.PlayerID, w.Total, w.Rank)
		}
	}
	return nil
}
