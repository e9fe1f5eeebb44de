package export_test

import (
	"bytes"
	"encoding/csv"
	"errors"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"

	"github.com/okian/tourney/internal/domain/model"
	"github.com/okian/tourney/internal/domain/types"
	"github.com/okian/tourney/internal/export"
	. "github.com/smartystreets/goconvey/convey"
)

func pointsFixture() map[string][]model.ScoredRow {
	return map[string][]model.ScoredRow{
		"Senior": {{PlayerID: "ana", DisplayName: "Ana, Jr.", Position: 1, Points: 100}},
		"General": {
			{PlayerID: "ana", DisplayName: "Ana, Jr.", Position: 1, Points: 100},
			{PlayerID: "bo", DisplayName: "Bo", Position: 2, Points: 90},
		},
		"Junior": {{PlayerID: "bo", DisplayName: "Bo", Position: 1, Points: 100}},
	}
}

func TestPointsSheets(t *testing.T) {
	Convey("Given points by category", t, func() {
		sheets := export.PointsSheets(pointsFixture(), "General")

		Convey("Then the general scope comes first and the rest are sorted", func() {
			So(len(sheets), ShouldEqual, 3)
			So(sheets[0].Name, ShouldEqual, "Points-General")
			So(sheets[1].Name, ShouldEqual, "Points-Junior")
			So(sheets[2].Name, ShouldEqual, "Points-Senior")
			So(sheets[0].Headers, ShouldResemble, []string{"Position", "Player", "Points"})
			So(sheets[0].Rows[1], ShouldResemble, []any{2, "Bo", 90})
		})
	})
}

func TestChampionshipSheets(t *testing.T) {
	Convey("Given championship rows", t, func() {
		rows := map[string][]types.Standing{
			"Senior": {
				{Rank: 1, Name: "Ana", Total: 190, Events: map[string]int{"e1": 100, "e2": 90}},
				{Rank: 2, Name: "Cy", Total: 81, Events: map[string]int{"e2": 81}},
			},
		}
		sheets := export.ChampionshipSheets(rows, []string{"e1", "e2"})

		Convey("Then each event has a column and missing events are zero", func() {
			So(len(sheets), ShouldEqual, 1)
			So(sheets[0].Name, ShouldEqual, "Championship-Senior")
			So(sheets[0].Headers, ShouldResemble, []string{"Position", "Player", "Total", "e1", "e2"})
			So(sheets[0].Rows[1], ShouldResemble, []any{2, "Cy", 81, 0, 81})
		})
	})
}

func TestWriteCSV(t *testing.T) {
	Convey("Given several sheets", t, func() {
		sheets := export.PointsSheets(pointsFixture(), "General")

		Convey("When written as CSV", func() {
			var buf bytes.Buffer
			So(export.Write(&buf, export.CSV, sheets), ShouldBeNil)

			Convey("Then each block has a title and quoted values survive", func() {
				r := csv.NewReader(strings.NewReader(buf.String()))
				r.FieldsPerRecord = -1
				recs, err := r.ReadAll()
				So(err, ShouldBeNil)
				So(recs[0], ShouldResemble, []string{"Points-General"})
				So(recs[1], ShouldResemble, []string{"Position", "Player", "Points"})
				So(recs[2], ShouldResemble, []string{"1", "Ana, Jr.", "100"})
				So(buf.String(), ShouldContainSubstring, "\n\nPoints-Junior\n")
			})
		})

		Convey("When a single sheet is written", func() {
			var buf bytes.Buffer
			So(export.WriteCSV(&buf, sheets[1:2]), ShouldBeNil)

			Convey("Then there is no title row", func() {
				So(buf.String(), ShouldEqual, "Position,Player,Points\n1,Bo,100\n")
			})
		})
	})
}

func TestWriteXLSX(t *testing.T) {
	Convey("Given sheets with long names", t, func() {
		sheets := []export.Sheet{
			{Name: "Championship-Veterans over sixty", Headers: []string{"Position", "Player"}, Rows: [][]any{{1, "Ana"}}},
			{Name: "Championship-Veterans over sixty five", Headers: []string{"Position", "Player"}, Rows: [][]any{{1, "Bo"}}},
		}

		Convey("When written as XLSX", func() {
			var buf bytes.Buffer
			So(export.Write(&buf, export.XLSX, sheets), ShouldBeNil)

			Convey("Then names are cut to 31 characters and stay unique", func() {
				f, err := excelize.OpenReader(bytes.NewReader(buf.Bytes()))
				So(err, ShouldBeNil)
				defer f.Close()
				list := f.GetSheetList()
				So(len(list), ShouldEqual, 2)
				So(list[0], ShouldEqual, "Championship-Veterans over sixt")
				So(len(list[1]), ShouldBeLessThanOrEqualTo, 31)
				So(list[1], ShouldNotEqual, list[0])

				rows, err := f.GetRows(list[0])
				So(err, ShouldBeNil)
				So(rows, ShouldResemble, [][]string{{"Position", "Player"}, {"1", "Ana"}})
			})
		})
	})
}

func TestSheetNameApostrophes(t *testing.T) {
	Convey("Given categories with apostrophes at the edges", t, func() {
		used := map[string]bool{}

		Convey("Then the apostrophes are dropped", func() {
			So(export.SheetName("Points-Vets'", used), ShouldEqual, "Points-Vets")
			So(export.SheetName("'Old Boys'", used), ShouldEqual, "Old Boys")
			So(export.SheetName("'", used), ShouldEqual, "Sheet")
			So(export.SheetName("Championship-Veterans over si'xty", used), ShouldEqual, "Championship-Veterans over si'x")
			So(export.SheetName("Championship-Veterans over six'ty", used), ShouldEqual, "Championship-Veterans over six")
		})

		Convey("When such a category is exported as XLSX", func() {
			rows := map[string][]model.ScoredRow{
				"General": {{PlayerID: "ana", DisplayName: "Ana", Position: 1, Points: 100}},
				"Vets'":   {{PlayerID: "ana", DisplayName: "Ana", Position: 1, Points: 100}},
			}
			var buf bytes.Buffer
			err := export.Write(&buf, export.XLSX, export.PointsSheets(rows, "General"))

			Convey("Then the workbook is written", func() {
				So(err, ShouldBeNil)
				f, err := excelize.OpenReader(bytes.NewReader(buf.Bytes()))
				So(err, ShouldBeNil)
				defer f.Close()
				So(f.GetSheetList(), ShouldResemble, []string{"Points-General", "Points-Vets"})
			})
		})
	})
}

func TestParseFormat(t *testing.T) {
	Convey("Given format names", t, func() {
		f, err := export.ParseFormat(" XLSX ")
		So(err, ShouldBeNil)
		So(f, ShouldEqual, export.XLSX)
		So(f.ContentType(), ShouldContainSubstring, "spreadsheetml")

		f, err = export.ParseFormat("")
		So(err, ShouldBeNil)
		So(f, ShouldEqual, export.CSV)

		_, err = export.ParseFormat("pdf")
		So(errors.Is(err, export.ErrUnknownFormat), ShouldBeTrue)
	})
}

func TestNormalizeFileName(t *testing.T) {
	cases := map[string]string{
		"Liga Primavera 2026":    "liga-primavera-2026",
		"  Copa   del  Rey - ":   "copa-del-rey",
		"Ñandú Open!!":           "and-open",
		"---":                    "results",
		"":                       "results",
		"Points-Senior (Women)":  "points-senior-women",
		"Finals --- round   two": "finals-round-two",
	}
	for in, want := range cases {
		if got := export.NormalizeFileName(in); got != want {
			t.Errorf("NormalizeFileName(%q) = %q, want %q", in, got, want)
		}
	}
	if got := export.FileName("Liga 2026", "Points-General", export.CSV); got != "liga-2026-points-general.csv" {
		t.Errorf("FileName = %q", got)
	}
}
