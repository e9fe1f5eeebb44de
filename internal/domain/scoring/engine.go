package scoring

import (
	"strings"

	"github.com/okian/tourney/internal/domain/model"
	"github.com/okian/tourney/internal/domain/points"
)

// Option applies a configuration option to the Engine.
type Option func(*Engine)

// WithGeneralLabel renames the unfiltered scope.
func WithGeneralLabel(label string) Option {
	return func(e *Engine) {
		if label = strings.TrimSpace(label); label != "" {
			e.general = label
		}
	}
}

// WithUncategorizedLabel renames the bucket for players without a category.
func WithUncategorizedLabel(label string) Option {
	return func(e *Engine) {
		if label = strings.TrimSpace(label); label != "" {
			e.uncategorized = label
		}
	}
}

// WithTableCache memoizes points tables across calls.
func WithTableCache(cache *points.Cache) Option {
	return func(e *Engine) {
		if cache != nil {
			e.build = cache.Build
		}
	}
}

// Engine ranks finishing orders per category. It holds no per-call state and
// is safe for concurrent use.
type Engine struct {
	general       string
	uncategorized string
	build         TableBuilder
}

// NewEngine creates an Engine with configuration options.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{
		general:       GeneralScope,
		uncategorized: Uncategorized,
		build:         points.Build,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// GeneralLabel returns the name of the unfiltered scope.
func (e *Engine) GeneralLabel() string { return e.general }

// Resolve is Resolve using the engine's table builder.
func (e *Engine) Resolve(rows []model.FinishingRow, cfg points.Config) map[string]Award {
	return resolve(rows, cfg.Sanitize(), e.build)
}

// RankByCategory computes the General scope and one scope per category.
// A roster category spelled like the General label is folded into General's
// key, where General wins.
func (e *Engine) RankByCategory(finishing []model.FinishingRow, roster []model.RosterEntry, cfg points.Config) Standings {
	cfg = cfg.Sanitize()
	rows := Clean(finishing)

	profiles := make(map[string]model.RosterEntry, len(roster))
	for _, r := range roster {
		profiles[strings.TrimSpace(r.PlayerID)] = r
	}

	out := Standings{e.general: e.score(rows, profiles, cfg)}

	order := make([]string, 0)
	partitions := make(map[string][]model.FinishingRow)
	for _, r := range rows {
		cat := e.categoryOf(profiles[r.PlayerID])
		if _, ok := partitions[cat]; !ok {
			order = append(order, cat)
		}
		partitions[cat] = append(partitions[cat], r)
	}

	for _, cat := range order {
		if cat == e.general {
			continue
		}
		out[cat] = e.score(CompetitionRanks(partitions[cat]), profiles, cfg)
	}
	return out
}

func (e *Engine) score(rows []model.FinishingRow, profiles map[string]model.RosterEntry, cfg points.Config) []model.ScoredRow {
	awards := resolve(rows, cfg, e.build)
	list := make([]model.ScoredRow, 0, len(rows))
	for _, r := range rows {
		a, ok := awards[r.PlayerID]
		if !ok {
			continue
		}
		name := strings.TrimSpace(profiles[r.PlayerID].DisplayName)
		if name == "" {
			name = r.PlayerID
		}
		list = append(list, model.ScoredRow{
			PlayerID:    r.PlayerID,
			DisplayName: name,
			Position:    a.Position,
			Points:      a.Points,
		})
	}
	sortByPointsDesc(list)
	return list
}

func (e *Engine) categoryOf(p model.RosterEntry) string {
	if c := strings.TrimSpace(p.Category); c != "" {
		return c
	}
	return e.uncategorized
}
