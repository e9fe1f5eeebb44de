// Package export renders event points and championship tables as CSV or
// XLSX documents.
package export

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/xuri/excelize/v2"

	"github.com/okian/tourney/internal/domain/model"
	"github.com/okian/tourney/internal/domain/types"
)

// ErrUnknownFormat is returned for formats other than csv and xlsx.
var ErrUnknownFormat = errors.New("unknown export format")

// Format is a document format.
type Format string

const (
	CSV  Format = "csv"
	XLSX Format = "xlsx"
)

const (
	maxSheetName    = 31
	defaultBaseName = "results"
)

// ParseFormat maps a user value to a Format. Empty means CSV.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case "", CSV:
		return CSV, nil
	case XLSX:
		return XLSX, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownFormat, s)
	}
}

// ContentType returns the MIME type of f.
func (f Format) ContentType() string {
	if f == XLSX {
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	}
	return "text/csv; charset=utf-8"
}

// Sheet is one table of a document.
type Sheet struct {
	Name    string
	Headers []string
	Rows    [][]any
}

// PointsSheets builds one sheet per scope. The general scope comes first and
// the rest follow in name order.
func PointsSheets(byCategory map[string][]model.ScoredRow, general string) []Sheet {
	sheets := make([]Sheet, 0, len(byCategory))
	for _, scope := range orderedScopes(byCategory, general) {
		rows := byCategory[scope]
		data := make([][]any, len(rows))
		for i, r := range rows {
			data[i] = []any{r.Position, r.DisplayName, r.Points}
		}
		sheets = append(sheets, Sheet{
			Name:    "Points-" + scope,
			Headers: []string{"Position", "Player", "Points"},
			Rows:    data,
		})
	}
	return sheets
}

// ChampionshipSheets builds one sheet per category with a column per event.
// A player who skipped an event gets 0 in that column.
func ChampionshipSheets(byCategory map[string][]types.Standing, events []string) []Sheet {
	categories := make([]string, 0, len(byCategory))
	for c := range byCategory {
		categories = append(categories, c)
	}
	sort.Strings(categories)

	sheets := make([]Sheet, 0, len(categories))
	for _, c := range categories {
		headers := append([]string{"Position", "Player", "Total"}, events...)
		rows := byCategory[c]
		data := make([][]any, len(rows))
		for i, r := range rows {
			row := []any{r.Rank, r.Name, r.Total}
			for _, e := range events {
				row = append(row, r.Events[e])
			}
			data[i] = row
		}
		sheets = append(sheets, Sheet{Name: "Championship-" + c, Headers: headers, Rows: data})
	}
	return sheets
}

func orderedScopes[T any](m map[string]T, first string) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		if k != first {
			out = append(out, k)
		}
	}
	sort.Strings(out)
	if _, ok := m[first]; ok {
		out = append([]string{first}, out...)
	}
	return out
}

// Write renders sheets to w in format f.
func Write(w io.Writer, f Format, sheets []Sheet) error {
	switch f {
	case CSV:
		return WriteCSV(w, sheets)
	case XLSX:
		return WriteXLSX(w, sheets)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownFormat, f)
	}
}

// WriteCSV writes every sheet as a block: a title row, the header row and
// the data rows. Blocks are separated by an empty line. A single sheet is
// written without its title row.
func WriteCSV(w io.Writer, sheets []Sheet) error {
	cw := csv.NewWriter(w)
	for i, s := range sheets {
		if len(sheets) > 1 {
			if i > 0 {
				if err := cw.Write([]string{}); err != nil {
					return fmt.Errorf("write csv: %w", err)
				}
			}
			if err := cw.Write([]string{s.Name}); err != nil {
				return fmt.Errorf("write csv: %w", err)
			}
		}
		if err := writeCSVSheet(cw, s); err != nil {
			return err
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("write csv: %w", err)
	}
	return nil
}

func writeCSVSheet(cw *csv.Writer, s Sheet) error {
	if err := cw.Write(s.Headers); err != nil {
		return fmt.Errorf("write csv: %w", err)
	}
	for _, row := range s.Rows {
		rec := make([]string, len(row))
		for i, v := range row {
			rec[i] = cell(v)
		}
		if err := cw.Write(rec); err != nil {
			return fmt.Errorf("write csv: %w", err)
		}
	}
	return nil
}

func cell(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case int:
		return strconv.Itoa(x)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	default:
		return fmt.Sprint(x)
	}
}

// WriteXLSX writes one worksheet per sheet.
func WriteXLSX(w io.Writer, sheets []Sheet) error {
	f := excelize.NewFile()
	defer f.Close()

	first := f.GetSheetName(f.GetActiveSheetIndex())
	used := make(map[string]bool, len(sheets))
	for i, s := range sheets {
		name := SheetName(s.Name, used)
		if i == 0 {
			if err := f.SetSheetName(first, name); err != nil {
				return fmt.Errorf("rename sheet %q: %w", name, err)
			}
		} else if _, err := f.NewSheet(name); err != nil {
			return fmt.Errorf("create sheet %q: %w", name, err)
		}

		header := make([]any, len(s.Headers))
		for j, h := range s.Headers {
			header[j] = h
		}
		if err := f.SetSheetRow(name, "A1", &header); err != nil {
			return fmt.Errorf("write sheet %q: %w", name, err)
		}
		for j, row := range s.Rows {
			axis, err := excelize.CoordinatesToCellName(1, j+2)
			if err != nil {
				return fmt.Errorf("write sheet %q: %w", name, err)
			}
			values := row
			if err := f.SetSheetRow(name, axis, &values); err != nil {
				return fmt.Errorf("write sheet %q: %w", name, err)
			}
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write xlsx: %w", err)
	}
	return nil
}

var sheetNameReplacer = strings.NewReplacer(":", "-", "\\", "-", "/", "-", "?", "", "*", "", "[", "(", "]", ")")

// SheetName makes name valid as a worksheet name: forbidden characters are
// replaced, edge apostrophes dropped, the result is cut to 31 characters and
// made unique against used.
func SheetName(name string, used map[string]bool) string {
	base := trimSheetEdges(sheetNameReplacer.Replace(name))
	base = trimSheetEdges(truncate(base, maxSheetName))
	if base == "" {
		base = "Sheet"
	}
	candidate := base
	for n := 2; used[strings.ToLower(candidate)]; n++ {
		suffix := "~" + strconv.Itoa(n)
		candidate = truncate(base, maxSheetName-len(suffix)) + suffix
	}
	if used != nil {
		used[strings.ToLower(candidate)] = true
	}
	return candidate
}

func trimSheetEdges(s string) string {
	return strings.Trim(strings.TrimSpace(s), "' ")
}

func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}

var (
	spaceRun   = regexp.MustCompile(`\s+`)
	disallowed = regexp.MustCompile(`[^a-z0-9-]+`)
	dashRun    = regexp.MustCompile(`-+`)
)

// NormalizeFileName turns a title into a file base name: lower case, spaces
// to dashes, anything outside [a-z0-9-] dropped, dash runs collapsed and
// edge dashes removed. An empty result becomes "results".
func NormalizeFileName(value string) string {
	s := strings.ToLower(value)
	s = spaceRun.ReplaceAllString(s, "-")
	s = disallowed.ReplaceAllString(s, "")
	s = dashRun.ReplaceAllString(s, "-")
	s = strings.Trim(s, "-")
	if s == "" {
		return defaultBaseName
	}
	return s
}

// FileName joins a base and a sheet name into a file name with the
// extension of f.
func FileName(base, sheet string, f Format) string {
	name := NormalizeFileName(base)
	if sheet != "" {
		name += "-" + NormalizeFileName(sheet)
	}
	return name + "." + string(f)
}
