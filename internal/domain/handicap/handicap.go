// Package handicap maintains a player's running handicap from scored rounds.
package handicap

import (
	"github.com/shopspring/decimal"
)

const (
	// Max is the ceiling a handicap never exceeds.
	Max = 18.0
	// Min is the floor a handicap never drops below.
	Min = 0.0
	// Newcomer is the starting handicap of a player with no rounds.
	Newcomer = 18.0
)

const (
	improvementRate = 0.1
	regressionStep  = 0.1
	precision       = 2
)

// Round is one scored round.
type Round struct {
	Strokes int `json:"strokes" yaml:"strokes"`
	Par     int `json:"par" yaml:"par"`
}

// Differential is strokes over par.
func (r Round) Differential() int { return r.Strokes - r.Par }

// Update returns the handicap after one round. A differential below the
// current handicap lowers it by a tenth of the gap; one above raises it by a
// fixed step. Equal leaves it untouched.
func Update(current float64, strokes, par int) float64 {
	diff := float64(strokes - par)
	switch {
	case diff < current:
		next := round2(current - (current-diff)*improvementRate)
		if next < Min {
			return Min
		}
		return next
	case diff > current:
		next := round2(current + regressionStep)
		if next > Max {
			return Max
		}
		return next
	default:
		return current
	}
}

// Replay applies rounds in order starting from start.
func Replay(start float64, rounds []Round) float64 {
	hc := start
	for _, r := range rounds {
		hc = Update(hc, r.Strokes, r.Par)
	}
	return hc
}

func round2(v float64) float64 {
	return decimal.NewFromFloat(v).Round(precision).InexactFloat64()
}
