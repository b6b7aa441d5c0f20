package extract

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/okian/bandboard/internal/domain/model"
)

// Method names how rows were found in a document.
type Method string

const (
	MethodPattern  Method = "pattern"
	MethodFallback Method = "fallback"
	MethodNone     Method = "none"
)

// FallbackSchool is the row name emitted by the fallback scan.
const FallbackSchool = "Orem"

var (
	rowPattern = regexp.MustCompile(`([^\d\n][^\n]*?)\s+((?:\d+(?:\.\d{1,4})?\s+){23}\d+(?:\.\d{1,4})?)`)
	// A match is only a row when its last number is complete and nothing numeric follows on the line.
	rowTrailer      = regexp.MustCompile(`^(?:[0-9.]|[ \t]+[0-9])`)
	rowCells        = regexp.MustCompile(`^\s+((?:\d+(?:\.\d{1,4})?\s+){23}\d+(?:\.\d{1,4})?)`)
	wholeNumber     = regexp.MustCompile(`^\d+$`)
	fallbackPattern = regexp.MustCompile(`(?is)Orem(?:\s+(?:High|City|High\s+School))?.{0,400}`)
	numberPattern   = regexp.MustCompile(`\d+(?:\.\d{1,4})?`)
)

// ExtractRows finds every "name followed by exactly 24 numbers" row in text.
// When none are found it falls back to the first 24 numbers after an Orem
// mention.
func ExtractRows(text string) ([]model.RowRecord, Method, error) {
	var rows []model.RowRecord
	pos := 0
	for pos < len(text) {
		loc := rowPattern.FindStringSubmatchIndex(text[pos:])
		if loc == nil {
			break
		}
		start, nameEnd := pos+loc[2], pos+loc[3]
		cellsStart, end := pos+loc[4], pos+loc[5]
		for rowTrailer.MatchString(text[end:]) {
			// The run is too long for this name. A trailing whole number such as
			// "Team 2" may belong to the name, so move it over and try again.
			next, ok := nextNameToken(text, nameEnd)
			if !ok {
				break
			}
			m := rowCells.FindStringSubmatchIndex(text[next:])
			if m == nil {
				break
			}
			nameEnd, cellsStart, end = next, next+m[2], next+m[3]
		}
		if !rowTrailer.MatchString(text[end:]) {
			school := strings.TrimSpace(text[start:nameEnd])
			cells, err := parseNumbers(strings.Fields(text[cellsStart:end]))
			if err != nil {
				return nil, MethodNone, err
			}
			if len(cells) == model.CellCount {
				rows = append(rows, model.RowRecord{School: school, Cells: cells})
			}
		}
		pos = end
	}
	if len(rows) > 0 {
		return rows, MethodPattern, nil
	}

	window := fallbackPattern.FindString(text)
	if window == "" {
		return nil, MethodNone, nil
	}
	nums := numberPattern.FindAllString(window, -1)
	if len(nums) < model.CellCount {
		return nil, MethodNone, nil
	}
	cells, err := parseNumbers(nums[:model.CellCount])
	if err != nil {
		return nil, MethodNone, err
	}
	return []model.RowRecord{{School: FallbackSchool, Cells: cells}}, MethodFallback, nil
}

// Extract reconstructs the text of src and extracts its rows.
func Extract(src PageSource) ([]model.RowRecord, Method, error) {
	text, err := DocumentText(src)
	if err != nil {
		return nil, MethodNone, err
	}
	return ExtractRows(text)
}

// nextNameToken returns the end of the token after i on the same line when
// that token is a whole number.
func nextNameToken(text string, i int) (int, bool) {
	for i < len(text) && (text[i] == ' ' || text[i] == '\t') {
		i++
	}
	j := i
	for j < len(text) && !strings.ContainsRune(" \t\r\n\f\v", rune(text[j])) {
		j++
	}
	if j == i || !wholeNumber.MatchString(text[i:j]) {
		return 0, false
	}
	return j, true
}

func parseNumbers(tokens []string) ([]float64, error) {
	out := make([]float64, 0, len(tokens))
	for _, tok := range tokens {
		v, err := strconv.ParseFloat(tok, 64)
		if err != nil {
			return nil, fmt.Errorf("parse cell %q: %w", tok, err)
		}
		out = append(out, v)
	}
	return out, nil
}
