// Package render formats lookup results for people: gender labels, country
// names, a text table and the M/F column copied into spreadsheets.
package render

import (
	"fmt"
	"math"
	"strings"

	"github.com/Sternrassler/firstnames/pkg/client"
	"github.com/Sternrassler/firstnames/pkg/remote"
	"github.com/Sternrassler/firstnames/pkg/store"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"golang.org/x/text/language"
	"golang.org/x/text/language/display"
)

// Percent thresholds for gender labels.
const (
	CertainThreshold  = 85
	ProbableThreshold = 75
)

// Cell texts for unsettled slots.
const (
	LoadingCell = "…"
	ErrorCell   = "⚠ Error"
	UnknownMF   = "?"
)

// Percent returns p in [0,1] as a rounded percentage.
func Percent(p float64) int {
	return int(math.Round(p * 100))
}

// GenderLabel summarises g as F or M, with one question mark below
// CertainThreshold and two below ProbableThreshold. Unknown gender is "?".
func GenderLabel(g client.GenderResult) string {
	var letter string
	switch g.Gender {
	case client.GenderFemale:
		letter = "F"
	case client.GenderMale:
		letter = "M"
	default:
		return UnknownMF
	}

	switch pct := Percent(g.Probability); {
	case pct >= CertainThreshold:
		return letter
	case pct >= ProbableThreshold:
		return letter + "?"
	default:
		return letter + "??"
	}
}

var regionNames = display.English.Regions()

// CountryName returns the English name of an ISO 3166 alpha-2 code, or the
// code itself if it is unknown.
func CountryName(code string) string {
	region, err := language.ParseRegion(code)
	if err != nil {
		return code
	}
	name := regionNames.Name(region)
	if name == "" || strings.EqualFold(name, "Unknown Region") {
		return code
	}
	return name
}

// Row is the display state of one name.
type Row struct {
	Name    string                                `json:"name"`
	Gender  remote.Remote[client.GenderResult]    `json:"gender"`
	Country remote.Remote[[]client.CountryResult] `json:"country"`
	Label   string                                `json:"label"`
}

// MF returns the gender label, or "?" unless the gender slot succeeded.
func (r Row) MF() string {
	g, ok := r.Gender.Value()
	if !ok {
		return UnknownMF
	}
	return GenderLabel(g)
}

// Rows reads names from db in order. Untracked names are skipped.
func Rows(db *store.Store, names []string) []Row {
	rows := make([]Row, 0, len(names))
	for _, name := range names {
		rec, ok := db.Get(name)
		if !ok {
			continue
		}
		row := Row{Name: name, Gender: rec.Gender, Country: rec.Country}
		row.Label = row.MF()
		rows = append(rows, row)
	}
	return rows
}

// MFColumn returns the M/F label of every row, one per line.
func MFColumn(rows []Row) string {
	labels := make([]string, len(rows))
	for i, r := range rows {
		labels[i] = r.MF()
	}
	return strings.Join(labels, "\n")
}

// Table renders rows as a text table.
func Table(rows []Row) string {
	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)
	t.Style().Format.Header = text.FormatDefault
	t.AppendHeader(table.Row{"Name", "Gender", "Countries"})

	for _, r := range rows {
		t.AppendRow(table.Row{r.Name, genderCell(r.Gender), countryCell(r.Country)})
	}

	return t.Render()
}

func genderCell(g remote.Remote[client.GenderResult]) string {
	return cell(g, func(v client.GenderResult) string {
		return withPercent(GenderLabel(v), v.Probability)
	})
}

func countryCell(c remote.Remote[[]client.CountryResult]) string {
	return cell(c, func(v []client.CountryResult) string {
		lines := make([]string, len(v))
		for i, country := range v {
			lines[i] = withPercent(CountryName(country.CountryID), country.Probability)
		}
		return strings.Join(lines, "\n")
	})
}

func cell[T any](r remote.Remote[T], success func(T) string) string {
	switch r.State() {
	case remote.StateLoading:
		return LoadingCell
	case remote.StateError:
		return ErrorCell
	}
	v, _ := r.Value()
	return success(v)
}

// withPercent appends the rounded probability, omitted when it rounds to 0.
func withPercent(label string, p float64) string {
	pct := Percent(p)
	if pct <= 0 {
		return label
	}
	return fmt.Sprintf("%s %d%%", label, pct)
}
