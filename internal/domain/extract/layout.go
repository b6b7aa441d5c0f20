// Package extract rebuilds page text from positioned fragments and pulls
// school result rows out of it.
//
// Extraction is deliberately permissive: every line that looks like a name
// followed by 24 numbers becomes a row. Filtering of rank or total lines that
// slip through happens later, when tables are built.
package extract

import (
	"fmt"
	"math"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/okian/bandboard/internal/domain/model"
)

const (
	// lineTolerance is the vertical bucket size used to group fragments into lines.
	lineTolerance = 2.0
	// heightEpsilon is how close a fragment height must be to the rank height to be dropped.
	heightEpsilon = 0.01
)

var numericFragment = regexp.MustCompile(`^\d+(\.\d+)?$`)

// PageSource yields positioned text fragments for each page of a document.
type PageSource interface {
	NumPages() int
	// PageFragments returns the fragments of page i, counted from 1.
	PageFragments(i int) ([]model.TextFragment, error)
}

// IsNumeric reports whether a fragment's text is a bare integer or decimal.
func IsNumeric(text string) bool {
	return numericFragment.MatchString(text)
}

// RankHeight guesses the font height used for rank numbers on a page.
//
// Numeric fragments are grouped by height rounded to two decimals. Scores and
// ranks are assumed to be the two most common numeric heights, with ranks in
// the smaller font. ok is false when fewer than two heights are present.
func RankHeight(frags []model.TextFragment) (height float64, ok bool) {
	type bucket struct {
		key   string
		count int
	}
	var buckets []bucket
	index := map[string]int{}
	for _, f := range frags {
		if !IsNumeric(f.Text) {
			continue
		}
		key := strconv.FormatFloat(f.Height, 'f', 2, 64)
		if i, seen := index[key]; seen {
			buckets[i].count++
			continue
		}
		index[key] = len(buckets)
		buckets = append(buckets, bucket{key: key, count: 1})
	}
	if len(buckets) < 2 {
		return 0, false
	}
	// Stable so equal counts keep first-seen order.
	sort.SliceStable(buckets, func(i, j int) bool { return buckets[i].count > buckets[j].count })

	h1, _ := strconv.ParseFloat(buckets[0].key, 64)
	h2, _ := strconv.ParseFloat(buckets[1].key, 64)
	height = math.Min(h1, h2)
	if height <= 0 {
		return 0, false
	}
	return height, true
}

// lineKey buckets a y coordinate, rounding half up like the PDF viewer does.
func lineKey(y float64) float64 {
	return math.Floor(y/lineTolerance+0.5) * lineTolerance
}

// ReconstructPage turns a page's fragments into newline-terminated lines, top
// to bottom, with rank-height numbers removed.
func ReconstructPage(frags []model.TextFragment) string {
	rank, hasRank := RankHeight(frags)

	lines := map[float64][]model.TextFragment{}
	var keys []float64
	for _, f := range frags {
		if hasRank && IsNumeric(f.Text) && math.Abs(f.Height-rank) < heightEpsilon {
			continue
		}
		k := lineKey(f.Y)
		if _, ok := lines[k]; !ok {
			keys = append(keys, k)
		}
		lines[k] = append(lines[k], f)
	}
	sort.Sort(sort.Reverse(sort.Float64Slice(keys)))

	var b strings.Builder
	for _, k := range keys {
		line := lines[k]
		sort.SliceStable(line, func(i, j int) bool { return line[i].X < line[j].X })
		for i, f := range line {
			if i > 0 {
				b.WriteByte(' ')
			}
			b.WriteString(f.Text)
		}
		b.WriteByte('\n')
	}
	return b.String()
}

// DocumentText reconstructs and concatenates every page of src in order.
// The first page that cannot be read aborts the document.
func DocumentText(src PageSource) (string, error) {
	var b strings.Builder
	for i := 1; i <= src.NumPages(); i++ {
		frags, err := src.PageFragments(i)
		if err != nil {
			return "", fmt.Errorf("page %d: %w", i, err)
		}
		b.WriteString(ReconstructPage(frags))
	}
	return b.String(), nil
}
