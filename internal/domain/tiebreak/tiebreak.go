// Package tiebreak orders scorecards and breaks ties on the back nine.
package tiebreak

import (
	"sort"
	"strconv"
	"strings"

	"github.com/okian/tourney/internal/domain/model"
)

// Holes is the length of a full card.
const Holes = 18

// Card holds strokes per hole; index 0 is hole 1.
type Card [Holes]int

// Compare breaks a tie between two complete cards. It compares the sums of
// holes 10-18, then 13-18, then 16-18, then hole 18 alone. The result is
// negative when a wins, positive when b wins and zero when they stay tied.
func Compare(a, b Card) int {
	for _, from := range []int{9, 12, 15, 17} {
		if d := sum(a[from:]) - sum(b[from:]); d != 0 {
			return d
		}
	}
	return 0
}

func sum(holes []int) int {
	total := 0
	for _, h := range holes {
		total += h
	}
	return total
}

// Entry is one player's card as captured. A zero or negative hole was not
// played. Holes past the eighteenth are ignored.
type Entry struct {
	PlayerID string `json:"player_id" yaml:"player_id"`
	Holes    []int  `json:"holes" yaml:"holes"`
}

type summary struct {
	id     string
	card   Card
	played int
	total  int
}

func (s summary) complete() bool { return s.played == Holes }

func summarize(e Entry) summary {
	s := summary{id: strings.TrimSpace(e.PlayerID)}
	for i := 0; i < Holes && i < len(e.Holes); i++ {
		if v := e.Holes[i]; v > 0 {
			s.card[i] = v
			s.played++
			s.total += v
		}
	}
	return s
}

func order(a, b summary) int {
	if a.complete() != b.complete() {
		if a.complete() {
			return -1
		}
		return 1
	}
	if a.played != b.played {
		return b.played - a.played
	}
	if a.total != b.total {
		return a.total - b.total
	}
	if a.complete() {
		return Compare(a.card, b.card)
	}
	return 0
}

// Classify orders cards and assigns competition positions. Complete cards
// come first, then cards with more holes played, then lower totals; two
// complete cards still level are split by Compare. Cards that remain level
// share a position. Entries with no id or no holes played are left out.
func Classify(entries []Entry) []model.FinishingRow {
	cards := make([]summary, 0, len(entries))
	for _, e := range entries {
		s := summarize(e)
		if s.id == "" || s.played == 0 {
			continue
		}
		cards = append(cards, s)
	}
	sort.SliceStable(cards, func(i, j int) bool { return order(cards[i], cards[j]) < 0 })

	out := make([]model.FinishingRow, len(cards))
	pos := 0
	for i, c := range cards {
		if i == 0 || order(cards[i-1], c) != 0 {
			pos = i + 1
		}
		out[i] = model.FinishingRow{PlayerID: c.id, Position: pos}
	}
	return out
}

// DiffLabel renders a total relative to par: "E", "+N" or "-N".
func DiffLabel(total, parTotal int) string {
	d := total - parTotal
	switch {
	case d == 0:
		return "E"
	case d > 0:
		return "+" + strconv.Itoa(d)
	default:
		return strconv.Itoa(d)
	}
}
