package service_test

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/okian/tourney/internal/adapters/repository"
	service "github.com/okian/tourney/internal/app"
	"github.com/okian/tourney/internal/domain/groups"
	"github.com/okian/tourney/internal/domain/handicap"
	"github.com/okian/tourney/internal/domain/model"
	"github.com/okian/tourney/internal/domain/points"
	"github.com/okian/tourney/internal/domain/scoring"
	"github.com/okian/tourney/internal/domain/tiebreak"
	"github.com/okian/tourney/internal/domain/types"
	"github.com/okian/tourney/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	if err := logger.Init(logger.WithOutput(io.Discard)); err != nil {
		panic(err)
	}
}

var fixedNow = time.Date(2026, 5, 10, 9, 0, 0, 0, time.UTC)

func newService(opts ...service.Option) *service.Service {
	base := []service.Option{
		service.WithWorkerCount(2),
		service.WithQueueSize(100),
		service.WithClock(func() time.Time { return fixedNow }),
	}
	return service.New(append(base, opts...)...)
}

func eventually(cond func() bool) bool {
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(5 * time.Millisecond)
	}
	return false
}

func classification(subID, eventID string) service.Classification {
	first, decay := 100.0, 10.0
	return service.Classification{
		SubmissionID: subID,
		EventID:      eventID,
		Finishing: []model.FinishingRow{
			{PlayerID: "ana", Position: 1},
			{PlayerID: "bo", Position: 2},
			{PlayerID: "cy", Position: 3},
		},
		Roster: []model.RosterEntry{
			{PlayerID: "ana", DisplayName: "Ana", Category: "Senior"},
			{PlayerID: "cy", DisplayName: "Cy", Category: "Senior"},
		},
		Points: &points.RawConfig{Mode: "percent", First: points.Num(first), DecayPercent: points.Num(decay)},
	}
}

func TestService_Lifecycle(t *testing.T) {
	Convey("Given a new service", t, func() {
		svc := newService()
		ctx := context.Background()

		Convey("When submitting before start", func() {
			_, err := svc.Submit(ctx, classification("s1", "e1"))

			Convey("Then ErrNotStarted is returned", func() {
				So(errors.Is(err, service.ErrNotStarted), ShouldBeTrue)
			})
		})

		Convey("When started and stopped", func() {
			So(svc.Start(ctx), ShouldBeNil)
			So(svc.Start(ctx), ShouldBeNil)
			So(svc.GetStats()["started"], ShouldEqual, true)
			svc.Stop()
			svc.Stop()

			Convey("Then it reports stopped", func() {
				So(svc.GetStats()["started"], ShouldEqual, false)
			})
		})
	})
}

func TestService_Submit(t *testing.T) {
	Convey("Given a started service", t, func() {
		svc := newService()
		ctx := context.Background()
		So(svc.Start(ctx), ShouldBeNil)
		defer svc.Stop()

		Convey("When a classification is submitted", func() {
			receipt, err := svc.Submit(ctx, classification("s1", "e1"))
			So(err, ShouldBeNil)
			So(receipt.Duplicate, ShouldBeFalse)
			So(receipt.Sequence, ShouldBeGreaterThan, 0)

			Convey("Then the result is computed and stored", func() {
				var res types.EventResult
				So(eventually(func() bool {
					res, err = svc.EventResult(ctx, "e1")
					return err == nil
				}), ShouldBeTrue)
				So(res.SubmissionID, ShouldEqual, "s1")
				So(res.ComputedAt.Equal(fixedNow), ShouldBeTrue)
				So(res.ByCategory[scoring.GeneralScope][0].Points, ShouldEqual, 100)
				So(res.ByCategory["Senior"][1].PlayerID, ShouldEqual, "cy")
				So(res.ByCategory["Senior"][1].Position, ShouldEqual, 2)
				So(svc.Events(ctx), ShouldResemble, []string{"e1"})
			})

			Convey("Then the championship standings include it", func() {
				So(eventually(func() bool {
					_, err := svc.PlayerStanding(ctx, "Senior", "cy")
					return err == nil
				}), ShouldBeTrue)
				row, _ := svc.PlayerStanding(ctx, "Senior", "cy")
				So(row.Total, ShouldEqual, 90)
				So(row.Rank, ShouldEqual, 2)
				So(svc.Categories(ctx), ShouldContain, "Senior")
			})

			Convey("And the same submission id is sent again", func() {
				again, err := svc.Submit(ctx, classification("s1", "e1"))

				Convey("Then it is acknowledged as a duplicate", func() {
					So(err, ShouldBeNil)
					So(again.Duplicate, ShouldBeTrue)
				})
			})
		})

		Convey("When the submission id is missing", func() {
			receipt, err := svc.Submit(ctx, classification("", "e2"))

			Convey("Then one is generated", func() {
				So(err, ShouldBeNil)
				So(receipt.SubmissionID, ShouldNotBeBlank)
			})
		})

		Convey("When the event id is missing", func() {
			_, err := svc.Submit(ctx, classification("s9", " "))

			Convey("Then ErrInvalidInput is returned", func() {
				So(errors.Is(err, service.ErrInvalidInput), ShouldBeTrue)
			})
		})

		Convey("When an event is recomputed", func() {
			_, err := svc.Submit(ctx, classification("s1", "e1"))
			So(err, ShouldBeNil)
			second := classification("s2", "e1")
			second.Finishing = []model.FinishingRow{{PlayerID: "cy", Position: 1}, {PlayerID: "ana", Position: 2}}
			_, err = svc.Submit(ctx, second)
			So(err, ShouldBeNil)

			Convey("Then standings reflect only the newest result", func() {
				So(eventually(func() bool {
					res, err := svc.EventResult(ctx, "e1")
					return err == nil && res.SubmissionID == "s2"
				}), ShouldBeTrue)
				So(eventually(func() bool {
					row, err := svc.PlayerStanding(ctx, "Senior", "cy")
					return err == nil && row.Total == 100
				}), ShouldBeTrue)
				_, err := svc.PlayerStanding(ctx, scoring.GeneralScope, "bo")
				So(errors.Is(err, repository.ErrNotFound), ShouldBeTrue)
			})
		})
	})
}

func TestService_SubmitAfterStop(t *testing.T) {
	Convey("Given a service that has been stopped", t, func() {
		svc := newService(service.WithQueueSize(1))
		ctx := context.Background()
		So(svc.Start(ctx), ShouldBeNil)
		svc.Stop()

		Convey("When submitting", func() {
			_, err := svc.Submit(ctx, classification("s1", "e1"))

			Convey("Then it is rejected as not started", func() {
				So(errors.Is(err, service.ErrNotStarted), ShouldBeTrue)
			})
		})
	})
}

func TestService_Apply(t *testing.T) {
	Convey("Given results applied out of order", t, func() {
		svc := newService()
		ctx := context.Background()
		newer := types.EventResult{EventID: "e1", Sequence: 5, ByCategory: map[string][]model.ScoredRow{
			scoring.GeneralScope: {{PlayerID: "ana", Points: 100}},
		}}
		older := types.EventResult{EventID: "e1", Sequence: 3, ByCategory: map[string][]model.ScoredRow{
			scoring.GeneralScope: {{PlayerID: "bo", Points: 100}},
		}}
		So(svc.Apply(ctx, newer), ShouldBeNil)
		So(svc.Apply(ctx, older), ShouldBeNil)

		Convey("Then the older one never overwrites", func() {
			res, err := svc.EventResult(ctx, "e1")
			So(err, ShouldBeNil)
			So(res.Sequence, ShouldEqual, 5)
			top, err := svc.Standings(ctx, scoring.GeneralScope, 10)
			So(err, ShouldBeNil)
			So(len(top), ShouldEqual, 1)
			So(top[0].PlayerID, ShouldEqual, "ana")
		})
	})
}

func TestService_RemoveEvent(t *testing.T) {
	Convey("Given an applied result", t, func() {
		svc := newService()
		ctx := context.Background()
		So(svc.Apply(ctx, types.EventResult{EventID: "e1", Sequence: 1, ByCategory: map[string][]model.ScoredRow{
			scoring.GeneralScope: {{PlayerID: "ana", Points: 100}},
		}}), ShouldBeNil)

		Convey("When the event is removed", func() {
			So(svc.RemoveEvent(ctx, " e1 "), ShouldBeNil)

			Convey("Then its result and championship points are gone", func() {
				_, err := svc.EventResult(ctx, "e1")
				So(errors.Is(err, repository.ErrNotFound), ShouldBeTrue)
				_, err = svc.PlayerStanding(ctx, scoring.GeneralScope, "ana")
				So(errors.Is(err, repository.ErrNotFound), ShouldBeTrue)
			})

			Convey("And removing it again reports ErrNotFound", func() {
				So(errors.Is(svc.RemoveEvent(ctx, "e1"), repository.ErrNotFound), ShouldBeTrue)
			})
		})

		Convey("When the event id is blank", func() {
			So(errors.Is(svc.RemoveEvent(ctx, " "), service.ErrInvalidInput), ShouldBeTrue)
		})
	})

	Convey("Given a started service with a scored event", t, func() {
		svc := newService()
		ctx := context.Background()
		So(svc.Start(ctx), ShouldBeNil)
		defer svc.Stop()
		_, err := svc.Submit(ctx, classification("s1", "e1"))
		So(err, ShouldBeNil)
		So(eventually(func() bool {
			_, err := svc.EventResult(ctx, "e1")
			return err == nil
		}), ShouldBeTrue)

		Convey("When it is removed and submitted again", func() {
			So(svc.RemoveEvent(ctx, "e1"), ShouldBeNil)
			_, err := svc.Submit(ctx, classification("s2", "e1"))
			So(err, ShouldBeNil)

			Convey("Then the new submission is scored", func() {
				So(eventually(func() bool {
					res, err := svc.EventResult(ctx, "e1")
					return err == nil && res.SubmissionID == "s2"
				}), ShouldBeTrue)
				So(eventually(func() bool {
					row, err := svc.PlayerStanding(ctx, "Senior", "ana")
					return err == nil && row.Total == 100
				}), ShouldBeTrue)
			})
		})
	})
}

func TestService_Handicap(t *testing.T) {
	Convey("Given a service", t, func() {
		svc := newService()
		ctx := context.Background()

		Convey("When a player has no rounds", func() {
			h := svc.Handicap(ctx, "ana")

			Convey("Then the newcomer rating is returned", func() {
				So(h.Value, ShouldEqual, handicap.Newcomer)
				So(h.Rounds, ShouldEqual, 0)
			})
		})

		Convey("When rounds are recorded", func() {
			_, err := svc.RecordRound(ctx, "ana", handicap.Round{Strokes: 72, Par: 72})
			So(err, ShouldBeNil)
			h, err := svc.RecordRound(ctx, "ana", handicap.Round{Strokes: 100, Par: 72})
			So(err, ShouldBeNil)

			Convey("Then each round updates the stored rating", func() {
				So(h.Value, ShouldEqual, 16.3)
				So(h.Rounds, ShouldEqual, 2)
				So(h.Updated.Equal(fixedNow), ShouldBeTrue)
				So(svc.Handicap(ctx, "ana"), ShouldResemble, h)
			})
		})

		Convey("When the round is invalid", func() {
			_, err := svc.RecordRound(ctx, "ana", handicap.Round{Strokes: 0, Par: 72})
			_, err2 := svc.RecordRound(ctx, "", handicap.Round{Strokes: 70, Par: 72})

			Convey("Then ErrInvalidInput is returned", func() {
				So(errors.Is(err, service.ErrInvalidInput), ShouldBeTrue)
				So(errors.Is(err2, service.ErrInvalidInput), ShouldBeTrue)
			})
		})
	})
}

func TestService_Groups(t *testing.T) {
	Convey("Given a service with a fixed shuffler", t, func() {
		keep := groups.ShufflerFunc(func(int, func(i, j int)) {})
		svc := newService(service.WithShuffler(keep), service.WithDefaultGroupSize(2))
		ctx := context.Background()
		players := []model.Player{{ID: "a"}, {ID: "b"}, {ID: "c"}}

		Convey("When groups are built without a size", func() {
			built, err := svc.BuildGroups(ctx, "e1", service.GroupRequest{
				Players: players,
				Config:  groups.Config{Type: groups.Intervals, StartTime: "08:00", IntervalMinutes: 10},
			})

			Convey("Then the default size applies and the groups are stored", func() {
				So(err, ShouldBeNil)
				So(len(built), ShouldEqual, 2)
				So(built[1].StartTime, ShouldEqual, "08:10")
				stored, err := svc.Groups(ctx, "e1")
				So(err, ShouldBeNil)
				So(stored, ShouldResemble, built)
			})
		})

		Convey("When the start time is invalid", func() {
			_, err := svc.BuildGroups(ctx, "e1", service.GroupRequest{
				Players: players,
				Config:  groups.Config{Type: groups.Intervals, StartTime: "late"},
			})

			Convey("Then the error carries both kinds", func() {
				So(errors.Is(err, service.ErrInvalidInput), ShouldBeTrue)
				So(errors.Is(err, groups.ErrInvalidStartTime), ShouldBeTrue)
			})
		})

		Convey("When no groups were built for an event", func() {
			_, err := svc.Groups(ctx, "missing")

			Convey("Then ErrNotFound is returned", func() {
				So(errors.Is(err, repository.ErrNotFound), ShouldBeTrue)
			})
		})
	})
}

func TestService_ClassifyAndCompute(t *testing.T) {
	Convey("Given captured cards", t, func() {
		svc := newService()
		full := make([]int, tiebreak.Holes)
		for i := range full {
			full[i] = 4
		}
		better := append([]int(nil), full...)
		better[17] = 3

		Convey("When classifying", func() {
			rows := svc.Classify(context.Background(), []tiebreak.Entry{
				{PlayerID: "ana", Holes: full},
				{PlayerID: "bo", Holes: better},
			})

			Convey("Then the finishing order can be scored directly", func() {
				So(rows[0].PlayerID, ShouldEqual, "bo")
				standings := svc.Compute(service.Classification{EventID: "e1", Finishing: rows})
				So(standings[scoring.GeneralScope][0].PlayerID, ShouldEqual, "bo")
			})
		})
	})
}
