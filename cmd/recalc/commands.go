package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/rand/v2"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/urfave/cli/v2"
	"gopkg.in/yaml.v3"

	"github.com/okian/tourney/internal/adapters/repository"
	"github.com/okian/tourney/internal/domain/groups"
	"github.com/okian/tourney/internal/domain/handicap"
	"github.com/okian/tourney/internal/domain/model"
	"github.com/okian/tourney/internal/domain/points"
	"github.com/okian/tourney/internal/domain/scoring"
	"github.com/okian/tourney/internal/domain/tiebreak"
	"github.com/okian/tourney/internal/domain/types"
	"github.com/okian/tourney/internal/export"
)

var errUsage = errors.New("usage")

// eventFile is the on-disk form of one event. When finishing is empty the
// order is classified from cards.
type eventFile struct {
	EventID   string               `yaml:"event_id"`
	Name      string               `yaml:"name"`
	Points    *points.RawConfig    `yaml:"points"`
	Roster    []model.RosterEntry  `yaml:"roster"`
	Finishing []model.FinishingRow `yaml:"finishing"`
	Cards     []tiebreak.Entry     `yaml:"cards"`
}

// groupsFile is the on-disk form of a group build.
type groupsFile struct {
	Players     []model.Player    `yaml:"players"`
	GroupSize   int               `yaml:"group_size"`
	PreAssigned map[string]string `yaml:"pre_assigned"`
	Config      groups.Config     `yaml:"config"`
}

type handicapStep struct {
	Round    handicap.Round `json:"round"`
	Handicap float64        `json:"handicap"`
}

type handicapReport struct {
	Start    float64        `json:"start"`
	Handicap float64        `json:"handicap"`
	Steps    []handicapStep `json:"steps"`
}

func loadYAML(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, v); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	return nil
}

func loadEvent(path string) (eventFile, error) {
	var ev eventFile
	if err := loadYAML(path, &ev); err != nil {
		return eventFile{}, err
	}
	if strings.TrimSpace(ev.EventID) == "" {
		ev.EventID = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	if len(ev.Finishing) == 0 && len(ev.Cards) > 0 {
		ev.Finishing = tiebreak.Classify(ev.Cards)
	}
	return ev, nil
}

func (ev eventFile) score() scoring.Standings {
	cfg := points.DefaultConfig()
	if ev.Points != nil {
		cfg = points.Normalize(*ev.Points)
	}
	return scoring.RankByCategory(ev.Finishing, ev.Roster, cfg)
}

func pointsAction(c *cli.Context) error {
	if c.NArg() != 1 {
		return fmt.Errorf("%w: recalc points EVENT_FILE", errUsage)
	}
	ev, err := loadEvent(c.Args().First())
	if err != nil {
		return err
	}
	byCategory := ev.score()
	return emit(c, map[string]any{"event_id": ev.EventID, "by_category": byCategory},
		func() []export.Sheet { return export.PointsSheets(byCategory, scoring.GeneralScope) })
}

func championshipAction(c *cli.Context) error {
	if c.NArg() == 0 {
		return fmt.Errorf("%w: recalc championship EVENT_FILE...", errUsage)
	}
	ctx := context.Background()
	store := repository.NewTreapStore()
	events := make([]string, 0, c.NArg())
	for i, path := range c.Args().Slice() {
		ev, err := loadEvent(path)
		if err != nil {
			return err
		}
		if _, err := store.ReplaceEvent(ctx, ev.EventID, uint64(i+1), ev.score()); err != nil {
			return fmt.Errorf("add %s: %w", ev.EventID, err)
		}
		events = append(events, ev.EventID)
	}

	byCategory := make(map[string][]types.Standing)
	for _, cat := range store.Categories(ctx) {
		rows, err := store.TopN(ctx, cat, store.Count(ctx, cat))
		if err != nil {
			return fmt.Errorf("read %s: %w", cat, err)
		}
		byCategory[cat] = rows
	}
	return emit(c, byCategory, func() []export.Sheet { return export.ChampionshipSheets(byCategory, events) })
}

func handicapAction(c *cli.Context) error {
	if c.NArg() == 0 {
		return fmt.Errorf("%w: recalc handicap STROKES/PAR...", errUsage)
	}
	rounds := make([]handicap.Round, 0, c.NArg())
	for _, arg := range c.Args().Slice() {
		r, err := parseRound(arg)
		if err != nil {
			return err
		}
		rounds = append(rounds, r)
	}

	start := c.Float64("start")
	if start < 0 {
		start = handicap.Newcomer
	}
	report := handicapReport{Start: start, Steps: make([]handicapStep, 0, len(rounds))}
	current := start
	for _, r := range rounds {
		current = handicap.Update(current, r.Strokes, r.Par)
		report.Steps = append(report.Steps, handicapStep{Round: r, Handicap: current})
	}
	report.Handicap = current

	return emit(c, report, func() []export.Sheet {
		rows := make([][]any, len(report.Steps))
		for i, s := range report.Steps {
			rows[i] = []any{i + 1, s.Round.Strokes, s.Round.Par, s.Handicap}
		}
		return []export.Sheet{{Name: "Handicap", Headers: []string{"Round", "Strokes", "Par", "Handicap"}, Rows: rows}}
	})
}

func parseRound(s string) (handicap.Round, error) {
	strokes, par, ok := strings.Cut(s, "/")
	if !ok {
		return handicap.Round{}, fmt.Errorf("%w: round %q is not STROKES/PAR", errUsage, s)
	}
	st, err1 := strconv.Atoi(strings.TrimSpace(strokes))
	pa, err2 := strconv.Atoi(strings.TrimSpace(par))
	if err := errors.Join(err1, err2); err != nil || st <= 0 || pa <= 0 {
		return handicap.Round{}, fmt.Errorf("%w: round %q needs positive integers", errUsage, s)
	}
	return handicap.Round{Strokes: st, Par: pa}, nil
}

func groupsAction(c *cli.Context) error {
	if c.NArg() != 1 {
		return fmt.Errorf("%w: recalc groups GROUPS_FILE", errUsage)
	}
	var req groupsFile
	if err := loadYAML(c.Args().First(), &req); err != nil {
		return err
	}

	var opts []groups.Option
	if seed := c.Uint64("seed"); seed != 0 {
		opts = append(opts, groups.WithShuffler(rand.New(rand.NewPCG(seed, seed))))
	}
	built, err := groups.NewScheduler(opts...).Build(req.Players, req.GroupSize, req.PreAssigned, req.Config)
	if err != nil {
		return err
	}
	return emit(c, built, func() []export.Sheet {
		rows := make([][]any, 0, len(req.Players))
		for _, g := range built {
			for _, p := range g.Players {
				rows = append(rows, []any{g.Label, g.StartHole, g.StartTime, p.ID, p.Name})
			}
		}
		return []export.Sheet{{Name: "Groups", Headers: []string{"Group", "Start hole", "Start time", "Player", "Name"}, Rows: rows}}
	})
}

// emit writes v as indented JSON, or the sheets as CSV or XLSX, to --output
// or stdout.
func emit(c *cli.Context, v any, sheets func() []export.Sheet) (err error) {
	var w io.Writer = c.App.Writer
	if path := c.String("output"); path != "" {
		f, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("create %s: %w", path, err)
		}
		defer func() {
			if cerr := f.Close(); err == nil {
				err = cerr
			}
		}()
		w = f
	}

	if strings.EqualFold(strings.TrimSpace(c.String("format")), "json") {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	}
	format, err := export.ParseFormat(c.String("format"))
	if err != nil {
		return err
	}
	return export.Write(w, format, sheets())
}
