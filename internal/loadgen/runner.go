package loadgen

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/okian/tourney/internal/domain/handicap"
	"github.com/okian/tourney/internal/domain/tiebreak"
	"github.com/okian/tourney/internal/domain/types"
	"github.com/okian/tourney/pkg/logger"
)

const (
	directoryPermission = 0o750
	pollInterval        = 100 * time.Millisecond
	maxStandingsLimit   = 200
	handicapSample      = 10
	percentMultiplier   = 100
)

// ErrNotComputed is returned when events are still missing results after
// the configured wait.
var ErrNotComputed = errors.New("events not computed in time")

// Run generates a season, drives it through the API and checks the
// championship tables the service builds.
func Run(ctx context.Context, cfg *Config) (*Stats, error) {
	log := logger.Get().Named("loadgen")
	stats := &Stats{StartTime: time.Now()}

	gen := NewGenerator(cfg.Seed)
	log.Info(ctx, "starting load run",
		logger.String("baseURL", cfg.BaseURL),
		logger.Int("events", cfg.Events),
		logger.Int("players", cfg.Players),
		logger.Int("workers", cfg.Workers),
		logger.Any("seed", gen.Seed()),
	)

	client := newHTTPClient(cfg.BaseURL, cfg.Timeout)

	if err := checkServiceHealth(ctx, client); err != nil {
		return stats, fmt.Errorf("service health check failed: %w", err)
	}

	season := gen.Season(cfg.Players, cfg.Events, cfg.Categories)
	stats.EventsGenerated = len(season.Events)

	submitEvents(ctx, cfg, client, season, stats)

	if err := waitForResults(ctx, cfg, client, season, stats); err != nil {
		return stats, err
	}

	if err := verifyStandings(ctx, client, season, stats); err != nil {
		return stats, fmt.Errorf("standings verification failed: %w", err)
	}

	if err := recordRounds(ctx, client, season, stats); err != nil {
		return stats, fmt.Errorf("recording rounds failed: %w", err)
	}

	if cfg.OutputFile != "" {
		if err := saveSeason(cfg.OutputFile, season); err != nil {
			log.Warn(ctx, "failed to save season", logger.Error(err))
		}
	}

	stats.EndTime = time.Now()
	stats.Duration = stats.EndTime.Sub(stats.StartTime)
	displayFinalStats(ctx, stats)
	return stats, nil
}

// checkServiceHealth verifies the service is running.
func checkServiceHealth(ctx context.Context, client *HTTPClient) error {
	status, _, err := client.Get(ctx, "/healthz")
	if err != nil {
		return fmt.Errorf("failed to connect to service: %w", err)
	}
	if status != http.StatusOK {
		return fmt.Errorf("service health check failed with status: %d", status)
	}
	return nil
}

// submitEvents posts every classification through a pool of workers.
func submitEvents(ctx context.Context, cfg *Config, client *HTTPClient, season Season, stats *Stats) {
	log := logger.Get().Named("loadgen")

	var submitted, successful, duplicate, failed int64
	workers := max(1, cfg.Workers)
	jobs := make(chan int, workers*2)
	var wg sync.WaitGroup

	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				c := season.Events[i]
				status, body, err := client.Post(ctx, "/events/"+url.PathEscape(c.EventID)+"/classification", c)
				atomic.AddInt64(&submitted, 1)

				var ack ackResponse
				_ = json.Unmarshal(body, &ack)
				switch {
				case err == nil && status == http.StatusAccepted:
					atomic.AddInt64(&successful, 1)
				case err == nil && status == http.StatusOK && ack.Duplicate:
					atomic.AddInt64(&duplicate, 1)
				default:
					atomic.AddInt64(&failed, 1)
					if cfg.Verbose {
						log.Warn(ctx, "submission failed",
							logger.String("event_id", c.EventID),
							logger.Int("status", status),
							logger.Error(err))
					}
				}
			}
		}()
	}

	go func() {
		defer close(jobs)
		for i := range season.Events {
			select {
			case <-ctx.Done():
				return
			case jobs <- i:
			}
		}
	}()
	wg.Wait()

	stats.EventsSubmitted = int(submitted)
	stats.EventsSuccessful = int(successful)
	stats.EventsDuplicate = int(duplicate)
	stats.EventsFailed = int(failed)
	log.Info(ctx, "submission completed",
		logger.Int("successful", stats.EventsSuccessful),
		logger.Int("duplicate", stats.EventsDuplicate),
		logger.Int("failed", stats.EventsFailed))
}

// waitForResults polls until every event has a stored result.
func waitForResults(ctx context.Context, cfg *Config, client *HTTPClient, season Season, stats *Stats) error {
	pending := make(map[string]struct{}, len(season.Events))
	for _, c := range season.Events {
		pending[c.EventID] = struct{}{}
	}

	deadline := time.Now().Add(cfg.Wait)
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for {
		for id := range pending {
			var res types.EventResult
			if err := client.GetJSON(ctx, "/events/"+url.PathEscape(id)+"/points", &res); err == nil {
				delete(pending, id)
			}
		}
		stats.EventsComputed = len(season.Events) - len(pending)
		if len(pending) == 0 {
			return nil
		}
		if time.Now().After(deadline) {
			return fmt.Errorf("%w: %d of %d pending", ErrNotComputed, len(pending), len(season.Events))
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// verifyStandings compares every category table with a local recompute.
func verifyStandings(ctx context.Context, client *HTTPClient, season Season, stats *Stats) error {
	expected := ExpectedStandings(season)
	for category, want := range expected {
		limit := min(len(want), maxStandingsLimit)
		var got []types.Standing
		path := fmt.Sprintf("/standings/%s?limit=%d", url.PathEscape(category), limit)
		if err := client.GetJSON(ctx, path, &got); err != nil {
			return err
		}
		if err := CompareStandings(want[:limit], got); err != nil {
			return fmt.Errorf("category %q: %w", category, err)
		}
		stats.CategoriesVerified++
	}
	logger.Get().Named("loadgen").Info(ctx, "standings verified", logger.Int("categories", stats.CategoriesVerified))
	return nil
}

// recordRounds posts each sampled player's first card as a handicap round
// and checks the rating the service returns.
func recordRounds(ctx context.Context, client *HTTPClient, season Season, stats *Stats) error {
	if len(season.Events) == 0 {
		return nil
	}
	cards := season.Cards[season.Events[0].EventID]
	for _, card := range cards[:min(len(cards), handicapSample)] {
		round := handicap.Round{Strokes: sum(card.Holes), Par: tiebreak.Holes * 3}

		var before types.Handicap
		if err := client.GetJSON(ctx, "/players/"+url.PathEscape(card.PlayerID)+"/handicap", &before); err != nil {
			return err
		}
		status, body, err := client.Post(ctx, "/players/"+url.PathEscape(card.PlayerID)+"/rounds", round)
		if err != nil {
			return err
		}
		if status != http.StatusOK {
			return fmt.Errorf("POST rounds for %s: HTTP %d", card.PlayerID, status)
		}
		var after types.Handicap
		if err := json.Unmarshal(body, &after); err != nil {
			return fmt.Errorf("failed to parse handicap: %w", err)
		}
		if want := handicap.Update(before.Value, round.Strokes, round.Par); after.Value != want {
			return fmt.Errorf("handicap for %s: got %.2f, want %.2f", card.PlayerID, after.Value, want)
		}
		stats.RoundsRecorded++
	}
	return nil
}

func sum(xs []int) int {
	total := 0
	for _, x := range xs {
		total += x
	}
	return total
}

// saveSeason writes the generated season as JSON.
func saveSeason(filename string, season Season) error {
	if dir := filepath.Dir(filename); dir != "." {
		if err := os.MkdirAll(dir, directoryPermission); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}
	data, err := json.MarshalIndent(season, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal season: %w", err)
	}
	if err := os.WriteFile(filename, data, 0o600); err != nil {
		return fmt.Errorf("failed to write season: %w", err)
	}
	return nil
}

// displayFinalStats logs the final run statistics.
func displayFinalStats(ctx context.Context, stats *Stats) {
	var successRate, eventsPerSecond float64
	if stats.EventsSubmitted > 0 {
		successRate = float64(stats.EventsSuccessful) / float64(stats.EventsSubmitted) * percentMultiplier
	}
	if stats.Duration > 0 {
		eventsPerSecond = float64(stats.EventsSubmitted) / stats.Duration.Seconds()
	}

	logger.Get().Named("loadgen").Info(ctx, "final statistics",
		logger.Int("eventsGenerated", stats.EventsGenerated),
		logger.Int("eventsSubmitted", stats.EventsSubmitted),
		logger.Int("eventsSuccessful", stats.EventsSuccessful),
		logger.Int("eventsDuplicate", stats.EventsDuplicate),
		logger.Int("eventsFailed", stats.EventsFailed),
		logger.Int("eventsComputed", stats.EventsComputed),
		logger.Int("categoriesVerified", stats.CategoriesVerified),
		logger.Int("roundsRecorded", stats.RoundsRecorded),
		logger.Duration("duration", stats.Duration),
		logger.Float64("successRate", successRate),
		logger.Float64("eventsPerSecond", eventsPerSecond))
}
