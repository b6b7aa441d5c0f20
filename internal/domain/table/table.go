// Package table prepares competition records for display: it filters rank and
// total lines that slipped through extraction, formats cells, and groups
// competitions into seasons.
package table

import (
	"regexp"
	"strconv"
	"unicode/utf8"

	"github.com/okian/bandboard/internal/domain/model"
)

var (
	plainName  = regexp.MustCompile(`^[-.\w\s]+$`)
	hasDigit   = regexp.MustCompile(`\d`)
	asciiAlpha = regexp.MustCompile(`[a-zA-Z]`)
)

// Row is a display-ready result row.
type Row struct {
	School string
	Cells  []string
}

// Table is one competition's display table.
type Table struct {
	Heading string
	Rows    []Row
}

// Season groups the tables of competitions held in one year.
type Season struct {
	Year   string
	Title  string
	Tables []Table
}

// IsSpuriousSchool reports whether a school name looks like a rank or total
// line rather than a band: plain characters only, at least one digit, longer
// than three characters, and no more than half of it alphabetic.
func IsSpuriousSchool(name string) bool {
	n := utf8.RuneCountInString(name)
	if n <= 3 || !plainName.MatchString(name) || !hasDigit.MatchString(name) {
		return false
	}
	alpha := len(asciiAlpha.FindAllStringIndex(name, -1))
	return float64(alpha)/float64(n) <= 0.5
}

// FormatCell renders integral values as-is and everything else with three decimals.
func FormatCell(v float64) string {
	if v == float64(int64(v)) {
		return strconv.FormatInt(int64(v), 10)
	}
	return strconv.FormatFloat(v, 'f', 3, 64)
}

// Heading is the title shown above a competition table.
func Heading(rec model.CompetitionRecord) string {
	return rec.CompName + " – " + rec.DateStr
}

// Build renders one competition, dropping spurious rows.
func Build(rec model.CompetitionRecord) Table {
	t := Table{Heading: Heading(rec)}
	for _, r := range rec.Rows {
		if IsSpuriousSchool(r.School) {
			continue
		}
		cells := make([]string, len(r.Cells))
		for i, v := range r.Cells {
			cells[i] = FormatCell(v)
		}
		t.Rows = append(t.Rows, Row{School: r.School, Cells: cells})
	}
	return t
}

// BuildSeasons groups competitions by the year prefix of their date. Seasons
// appear in the order their first competition does.
func BuildSeasons(records []model.CompetitionRecord) []Season {
	var seasons []Season
	index := map[string]int{}
	for _, rec := range records {
		year := rec.DateStr
		if len(year) > 4 {
			year = year[:4]
		}
		i, ok := index[year]
		if !ok {
			i = len(seasons)
			index[year] = i
			seasons = append(seasons, Season{Year: year, Title: "Season " + year})
		}
		seasons[i].Tables = append(seasons[i].Tables, Build(rec))
	}
	return seasons
}
