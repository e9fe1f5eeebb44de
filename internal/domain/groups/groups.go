// Package groups seats players into starting groups before play.
package groups

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"strconv"
	"strings"
	"time"

	"github.com/okian/tourney/internal/domain/model"
)

// ErrInvalidStartTime is returned when a start time is not a valid HH:MM.
var ErrInvalidStartTime = errors.New("invalid start time")

// Type selects how groups start.
type Type string

const (
	// Shotgun starts every group at the same time from a different hole.
	Shotgun Type = "shotgun"
	// Intervals starts every group from hole 1 at staggered times.
	Intervals Type = "intervals"
)

// ParseType maps a user value to a Type. Anything but "intervals" is Shotgun.
func ParseType(s string) Type {
	if Type(strings.ToLower(strings.TrimSpace(s))) == Intervals {
		return Intervals
	}
	return Shotgun
}

// Config controls start holes and times.
type Config struct {
	Type            Type   `json:"type" yaml:"type"`
	StartTime       string `json:"start_time" yaml:"start_time"`
	IntervalMinutes int    `json:"interval_minutes" yaml:"interval_minutes"`
}

// Shuffler permutes n elements through swap. *rand.Rand satisfies it.
type Shuffler interface {
	Shuffle(n int, swap func(i, j int))
}

// ShufflerFunc adapts a function to Shuffler.
type ShufflerFunc func(n int, swap func(i, j int))

// Shuffle calls f.
func (f ShufflerFunc) Shuffle(n int, swap func(i, j int)) { f(n, swap) }

// Option applies a configuration option to the Scheduler.
type Option func(*Scheduler)

// WithShuffler replaces the random source used for unassigned players.
func WithShuffler(s Shuffler) Option {
	return func(sc *Scheduler) {
		if s != nil {
			sc.shuffler = s
		}
	}
}

// Scheduler builds starting groups.
type Scheduler struct {
	shuffler Shuffler
}

// NewScheduler creates a Scheduler with configuration options.
func NewScheduler(opts ...Option) *Scheduler {
	s := &Scheduler{shuffler: ShufflerFunc(rand.Shuffle)}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Build seats players with a random scheduler.
func Build(players []model.Player, groupSize int, pre map[string]string, cfg Config) ([]model.Group, error) {
	return NewScheduler().Build(players, groupSize, pre, cfg)
}

// Build creates ceil(len(players)/groupSize) groups named group-1..group-N.
// Players pre-assigned to one of those ids are seated first in input order.
// Everyone else is shuffled and fills the remaining seats group by group.
// A pre-assignment to an id outside that range is ignored. Players left over
// when pre-assigned groups overflow are seated in the last group.
func (s *Scheduler) Build(players []model.Player, groupSize int, pre map[string]string, cfg Config) ([]model.Group, error) {
	if groupSize < 1 || len(players) == 0 {
		return []model.Group{}, nil
	}

	start, err := parseStart(cfg)
	if err != nil {
		return nil, err
	}

	total := (len(players) + groupSize - 1) / groupSize
	out := make([]model.Group, total)
	index := make(map[string]int, total)
	for i := range out {
		id := "group-" + strconv.Itoa(i+1)
		index[id] = i
		out[i] = model.Group{ID: id, Players: make([]model.Player, 0, groupSize)}
	}

	free := make([]model.Player, 0, len(players))
	for _, p := range players {
		if i, ok := index[strings.TrimSpace(pre[p.ID])]; ok {
			out[i].Players = append(out[i].Players, p)
			continue
		}
		free = append(free, p)
	}
	s.shuffler.Shuffle(len(free), func(i, j int) { free[i], free[j] = free[j], free[i] })

	for i := range out {
		spots := groupSize - len(out[i].Players)
		if spots <= 0 {
			continue
		}
		if spots > len(free) {
			spots = len(free)
		}
		out[i].Players = append(out[i].Players, free[:spots]...)
		free = free[spots:]
	}
	if len(free) > 0 {
		out[total-1].Players = append(out[total-1].Players, free...)
	}

	interval := max(cfg.IntervalMinutes, 0)
	for i := range out {
		if ParseType(string(cfg.Type)) == Intervals {
			at := clock(start + interval*i)
			out[i].StartHole = 1
			out[i].StartTime = at
			out[i].Label = "Tee " + at
			continue
		}
		out[i].StartHole = i + 1
		if start >= 0 {
			out[i].StartTime = clock(start)
		}
		out[i].Label = "Hole " + strconv.Itoa(i+1)
	}
	return out, nil
}

// parseStart returns minutes after midnight, or -1 for a shotgun start
// without a time.
func parseStart(cfg Config) (int, error) {
	raw := strings.TrimSpace(cfg.StartTime)
	if raw == "" && ParseType(string(cfg.Type)) == Shotgun {
		return -1, nil
	}
	t, err := time.Parse("15:04", raw)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidStartTime, cfg.StartTime)
	}
	return t.Hour()*60 + t.Minute(), nil
}

// clock formats minutes as HH:MM. Hours are not wrapped at midnight.
func clock(minutes int) string {
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}
