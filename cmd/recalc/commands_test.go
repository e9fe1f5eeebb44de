package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/xuri/excelize/v2"

	"github.com/okian/tourney/internal/domain/model"
	"github.com/okian/tourney/internal/domain/types"
	. "github.com/smartystreets/goconvey/convey"
)

const springEvent = `
event_id: spring
name: Spring Open
points:
  mode: percent
  first: 100
  decay_percent: 10
roster:
  - {player_id: ana, display_name: Ana, category: Senior}
  - {player_id: bo, display_name: Bo, category: Senior}
  - {player_id: cy, display_name: Cy}
finishing:
  - {player_id: ana, position: 1}
  - {player_id: bo, position: 2}
  - {player_id: cy, position: 3}
`

const autumnEvent = `
points: {mode: percent, first: 100, decay_percent: 10}
roster:
  - {player_id: ana, display_name: Ana, category: Senior}
  - {player_id: bo, display_name: Bo, category: Senior}
cards:
  - {player_id: ana, holes: [4,4,4,4,4,4,4,4,4,4,4,4,4,4,4,4,4,4]}
  - {player_id: bo, holes: [3,3,3,3,3,3,3,3,3,3,3,3,3,3,3,3,3,3]}
`

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func runApp(args ...string) (string, error) {
	var out bytes.Buffer
	app := newApp()
	app.Writer = &out
	app.ErrWriter = &out
	err := app.Run(append([]string{"recalc"}, args...))
	return out.String(), err
}

func TestPointsCommand(t *testing.T) {
	Convey("Given an event file", t, func() {
		path := writeFile(t, "spring.yaml", springEvent)

		Convey("When scored as JSON", func() {
			out, err := runApp("points", path)

			Convey("Then every scope is listed", func() {
				So(err, ShouldBeNil)
				var got struct {
					EventID    string                       `json:"event_id"`
					ByCategory map[string][]model.ScoredRow `json:"by_category"`
				}
				So(json.Unmarshal([]byte(out), &got), ShouldBeNil)
				So(got.EventID, ShouldEqual, "spring")
				So(got.ByCategory["General"][2].Points, ShouldEqual, 81)
				So(got.ByCategory["Senior"][1].Points, ShouldEqual, 90)
				So(got.ByCategory["Uncategorized"][0].Points, ShouldEqual, 100)
			})
		})

		Convey("When scored as CSV", func() {
			out, err := runApp("points", "--format", "csv", path)

			Convey("Then General comes first", func() {
				So(err, ShouldBeNil)
				So(out, ShouldStartWith, "Points-General\nPosition,Player,Points\n1,Ana,100\n")
			})
		})

		Convey("When scored as XLSX into a file", func() {
			target := filepath.Join(t.TempDir(), "spring.xlsx")
			_, err := runApp("points", "-f", "xlsx", "-o", target, path)

			Convey("Then a workbook with one sheet per scope is written", func() {
				So(err, ShouldBeNil)
				f, err := excelize.OpenFile(target)
				So(err, ShouldBeNil)
				defer f.Close()
				So(f.GetSheetList(), ShouldResemble, []string{"Points-General", "Points-Senior", "Points-Uncategorized"})
			})
		})

		Convey("When the points settings are quoted strings", func() {
			quoted := writeFile(t, "quoted.yaml", `
points: {mode: percent, first: "100", decay_percent: "10", podium_count: "n/a"}
finishing:
  - {player_id: ana, position: 1}
  - {player_id: bo, position: 2}
`)
			out, err := runApp("points", "--format", "csv", quoted)

			Convey("Then they are read as numbers", func() {
				So(err, ShouldBeNil)
				So(out, ShouldContainSubstring, "1,ana,100\n2,bo,90\n")
			})
		})

		Convey("When no file is given", func() {
			_, err := runApp("points")
			So(errors.Is(err, errUsage), ShouldBeTrue)
		})
	})
}

func TestChampionshipCommand(t *testing.T) {
	Convey("Given two event files, one classified from cards", t, func() {
		spring := writeFile(t, "spring.yaml", springEvent)
		autumn := writeFile(t, "autumn.yaml", autumnEvent)

		Convey("When the championship is summed", func() {
			out, err := runApp("championship", spring, autumn)

			Convey("Then totals cover both events", func() {
				So(err, ShouldBeNil)
				var got map[string][]types.Standing
				So(json.Unmarshal([]byte(out), &got), ShouldBeNil)
				senior := got["Senior"]
				So(len(senior), ShouldEqual, 2)
				So(senior[0].PlayerID, ShouldEqual, "ana")
				So(senior[0].Total, ShouldEqual, 190)
				So(senior[1].Total, ShouldEqual, 190)
				So(senior[1].Rank, ShouldEqual, 1)
				So(senior[0].Events, ShouldResemble, map[string]int{"spring": 100, "autumn": 90})
			})
		})

		Convey("When exported as CSV", func() {
			out, err := runApp("championship", "--format", "csv", spring, autumn)

			Convey("Then events become columns in file order", func() {
				So(err, ShouldBeNil)
				So(out, ShouldContainSubstring, "Championship-Senior\nPosition,Player,Total,spring,autumn\n1,Ana,190,100,90\n")
			})
		})
	})
}

func TestHandicapCommand(t *testing.T) {
	Convey("Given rounds on the command line", t, func() {
		Convey("When replayed from the newcomer rating", func() {
			out, err := runApp("handicap", "72/72", "80/72")

			Convey("Then each step is reported", func() {
				So(err, ShouldBeNil)
				var got handicapReport
				So(json.Unmarshal([]byte(out), &got), ShouldBeNil)
				So(got.Start, ShouldEqual, 18.0)
				So(len(got.Steps), ShouldEqual, 2)
				So(got.Steps[0].Handicap, ShouldEqual, 16.2)
				So(got.Handicap, ShouldEqual, 15.38)
			})
		})

		Convey("When a start is given", func() {
			out, err := runApp("handicap", "--start", "10", "8/10")
			So(err, ShouldBeNil)
			So(out, ShouldContainSubstring, `"handicap": 8.8`)
		})

		Convey("When a round is malformed", func() {
			_, err := runApp("handicap", "80-72")
			So(errors.Is(err, errUsage), ShouldBeTrue)
			_, err = runApp("handicap", "0/72")
			So(errors.Is(err, errUsage), ShouldBeTrue)
		})
	})
}

func TestGroupsCommand(t *testing.T) {
	Convey("Given a groups file", t, func() {
		path := writeFile(t, "groups.yaml", `
players: [{id: a}, {id: b}, {id: c}, {id: d}, {id: e}]
group_size: 2
pre_assigned: {e: group-1}
config: {type: intervals, start_time: "07:30", interval_minutes: 12}
`)

		Convey("When built with a seed", func() {
			first, err := runApp("groups", "--seed", "9", path)
			So(err, ShouldBeNil)
			second, err := runApp("groups", "--seed", "9", path)
			So(err, ShouldBeNil)

			Convey("Then the build is reproducible and honours pre-assignments", func() {
				So(first, ShouldEqual, second)
				var built []model.Group
				So(json.Unmarshal([]byte(first), &built), ShouldBeNil)
				So(len(built), ShouldEqual, 3)
				So(built[0].Players[0].ID, ShouldEqual, "e")
				So(built[1].StartTime, ShouldEqual, "07:42")
			})
		})

		Convey("When the start time is invalid", func() {
			bad := writeFile(t, "bad.yaml", `
players: [{id: a}]
group_size: 2
config: {type: intervals, start_time: "7.30"}
`)
			_, err := runApp("groups", bad)
			So(err, ShouldNotBeNil)
		})
	})
}
