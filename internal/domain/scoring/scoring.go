// Package scoring flattens competition results into per-band rows and
// computes caption trends across competition dates.
package scoring

import (
	"sort"
	"strings"

	"github.com/okian/bandboard/internal/domain/model"
)

// Caption names a scored column of a band row.
type Caption string

// Captions tracked for every band row.
const (
	Overall    Caption = "Overall"
	Music      Caption = "Music"
	Visual     Caption = "Visual"
	Percussion Caption = "Percussion"
	Guard      Caption = "Guard"
)

// Cell positions of each caption in a 24-cell result row.
const (
	overallCell    = 22
	musicCell      = 6
	visualCell     = 13
	percussionCell = 16
	guardCell      = 20
)

// schoolSeparator splits a school name from trailing detail columns.
const schoolSeparator = "   "

// DefaultBandNames are matched when no names are configured.
var DefaultBandNames = []string{"Orem City", "Orem High", "Orem High School", "Orem"}

// Option applies a configuration option to the Aggregator.
type Option func(*Aggregator)

// WithBandNames sets the school names the aggregator follows. Empty input keeps the defaults.
func WithBandNames(names []string) Option {
	return func(a *Aggregator) {
		if len(names) == 0 {
			return
		}
		a.bandNames = make(map[string]struct{}, len(names))
		for _, n := range names {
			a.bandNames[strings.ToLower(strings.TrimSpace(n))] = struct{}{}
		}
	}
}

// WithBandLabel sets the name stamped on every flattened row.
func WithBandLabel(label string) Option {
	return func(a *Aggregator) {
		if label != "" {
			a.label = label
		}
	}
}

// BandRow is one band's captions at one competition.
type BandRow struct {
	CompetitionDate string
	CompetitionName string
	BandName        string
	Overall         float64
	Music           float64
	Visual          float64
	Percussion      float64
	Guard           float64
}

// Value returns the row's score for caption c.
func (r BandRow) Value(c Caption) (float64, bool) {
	switch c {
	case Overall:
		return r.Overall, true
	case Music:
		return r.Music, true
	case Visual:
		return r.Visual, true
	case Percussion:
		return r.Percussion, true
	case Guard:
		return r.Guard, true
	}
	return 0, false
}

// Trend is the per-date average of one caption, dates ascending.
type Trend struct {
	Caption Caption
	Labels  []string
	Data    []float64
}

// Aggregator derives band rows and trends from competition records.
type Aggregator struct {
	bandNames map[string]struct{}
	label     string
}

// NewAggregator creates an Aggregator following DefaultBandNames unless overridden.
func NewAggregator(opts ...Option) *Aggregator {
	a := &Aggregator{label: "Orem"}
	WithBandNames(DefaultBandNames)(a)
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Matches reports whether a result row's school is one of the followed bands.
// Only the part before a triple space counts, compared case-insensitively.
func (a *Aggregator) Matches(school string) bool {
	name, _, _ := strings.Cut(school, schoolSeparator)
	_, ok := a.bandNames[strings.ToLower(strings.TrimSpace(name))]
	return ok
}

// Flatten returns a BandRow for every followed school row holding exactly 24 cells.
func (a *Aggregator) Flatten(records []model.CompetitionRecord) []BandRow {
	var out []BandRow
	for _, comp := range records {
		for _, r := range comp.Rows {
			if !a.Matches(r.School) || len(r.Cells) != model.CellCount {
				continue
			}
			out = append(out, BandRow{
				CompetitionDate: comp.DateStr,
				CompetitionName: comp.CompName,
				BandName:        a.label,
				Overall:         r.Cells[overallCell],
				Music:           r.Cells[musicCell],
				Visual:          r.Cells[visualCell],
				Percussion:      r.Cells[percussionCell],
				Guard:           r.Cells[guardCell],
			})
		}
	}
	return out
}

// ComputeTrend averages caption c per competition date. Rows without a date are skipped.
func ComputeTrend(rows []BandRow, c Caption) Trend {
	sums := map[string]float64{}
	counts := map[string]int{}
	for _, r := range rows {
		v, ok := r.Value(c)
		if !ok || r.CompetitionDate == "" {
			continue
		}
		sums[r.CompetitionDate] += v
		counts[r.CompetitionDate]++
	}
	t := Trend{Caption: c, Labels: make([]string, 0, len(sums)), Data: make([]float64, 0, len(sums))}
	for d := range sums {
		t.Labels = append(t.Labels, d)
	}
	sort.Strings(t.Labels)
	for _, d := range t.Labels {
		t.Data = append(t.Data, sums[d]/float64(counts[d]))
	}
	return t
}
