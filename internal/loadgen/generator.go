package loadgen

import (
	"fmt"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/google/uuid"

	service "github.com/okian/tourney/internal/app"
	"github.com/okian/tourney/internal/domain/model"
	"github.com/okian/tourney/internal/domain/points"
	"github.com/okian/tourney/internal/domain/tiebreak"
)

// Generation odds, expressed as one chance in N.
const (
	uncategorizedOdds = 10
	absenceOdds       = 5
	tieOdds           = 8
	minHoleStrokes    = 2
	maxHoleStrokes    = 6
)

const (
	seasonFirst  = 100.0
	seasonDecay  = 8.0
	seasonPodium = 3.0
)

// SeasonPoints is the points config attached to every generated event.
func SeasonPoints() points.RawConfig {
	return points.RawConfig{Mode: string(points.ModePercent), First: points.Num(seasonFirst), DecayPercent: points.Num(seasonDecay), PodiumCount: points.Num(seasonPodium)}
}

// Generator builds fake seasons. It is not safe for concurrent use.
type Generator struct {
	faker *gofakeit.Faker
	seed  uint64
}

// NewGenerator returns a generator. The same non-zero seed produces the same
// rosters, finishing orders and cards.
func NewGenerator(seed uint64) *Generator {
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	return &Generator{faker: gofakeit.New(seed), seed: seed}
}

// Seed returns the seed in use.
func (g *Generator) Seed() uint64 { return g.seed }

// Season generates a roster of players and the given number of events.
func (g *Generator) Season(players, events int, categories []string) Season {
	roster := g.Roster(players, categories)
	s := Season{
		Roster: roster,
		Events: make([]service.Classification, 0, events),
		Cards:  make(map[string][]tiebreak.Entry, events),
	}
	for i := 0; i < events; i++ {
		c := g.Event(i, roster)
		s.Events = append(s.Events, c)
		s.Cards[c.EventID] = g.Cards(c.Finishing)
	}
	return s
}

// Roster creates n players. Roughly one in ten has no category.
func (g *Generator) Roster(n int, categories []string) []model.RosterEntry {
	roster := make([]model.RosterEntry, n)
	for i := range roster {
		roster[i] = model.RosterEntry{
			PlayerID:    fmt.Sprintf("player-%04d", i+1),
			DisplayName: g.faker.Name(),
		}
		if len(categories) > 0 && g.faker.Number(1, uncategorizedOdds) != 1 {
			roster[i].Category = categories[g.faker.Number(0, len(categories)-1)]
		}
	}
	return roster
}

// Event draws who played, shuffles them and hands out competition positions
// with occasional ties.
func (g *Generator) Event(index int, roster []model.RosterEntry) service.Classification {
	ids := make([]string, 0, len(roster))
	for _, p := range roster {
		if g.faker.Number(1, absenceOdds) != 1 {
			ids = append(ids, p.PlayerID)
		}
	}
	if len(ids) == 0 && len(roster) > 0 {
		ids = append(ids, roster[0].PlayerID)
	}
	g.faker.ShuffleAnySlice(ids)

	finishing := make([]model.FinishingRow, len(ids))
	for i, id := range ids {
		pos := i + 1
		if i > 0 && g.faker.Number(1, tieOdds) == 1 {
			pos = finishing[i-1].Position
		}
		finishing[i] = model.FinishingRow{PlayerID: id, Position: pos}
	}

	cfg := SeasonPoints()
	return service.Classification{
		SubmissionID: uuid.NewString(),
		EventID:      fmt.Sprintf("event-%03d", index+1),
		Finishing:    finishing,
		Roster:       roster,
		Points:       &cfg,
	}
}

// Cards fakes an eighteen-hole card for every finisher.
func (g *Generator) Cards(finishing []model.FinishingRow) []tiebreak.Entry {
	cards := make([]tiebreak.Entry, len(finishing))
	for i, r := range finishing {
		holes := make([]int, tiebreak.Holes)
		for h := range holes {
			holes[h] = g.faker.Number(minHoleStrokes, maxHoleStrokes)
		}
		cards[i] = tiebreak.Entry{PlayerID: r.PlayerID, Holes: holes}
	}
	return cards
}
