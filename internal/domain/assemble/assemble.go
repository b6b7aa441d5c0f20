// Package assemble turns a PDF file name and its extracted rows into a competition record.
package assemble

import (
	"regexp"
	"strings"

	"github.com/okian/bandboard/internal/domain/model"
)

// UnknownName stands in for a missing file name.
const UnknownName = "Unknown.pdf"

// unknownComp names a competition whose file name leaves nothing to use.
const unknownComp = "Unknown"

var (
	datedName  = regexp.MustCompile(`(?i)(\d{4}-\d{2}-\d{2})\s+(.+)\.pdf$`)
	strictName = regexp.MustCompile(`(?i)^\d{4}-\d{2}-\d{2}\s+.+\.pdf$`)
	pdfSuffix  = regexp.MustCompile(`(?i)\.pdf$`)
)

// ParseFileName derives the competition date and name from a score sheet file name.
// Names without a date keep an empty date and use the name minus its extension.
// A name that leaves a blank competition, such as ".pdf", becomes "Unknown".
func ParseFileName(name string) (dateStr, compName string) {
	if name == "" {
		name = UnknownName
	}
	if m := datedName.FindStringSubmatch(name); m != nil {
		dateStr, compName = m[1], strings.ReplaceAll(m[2], "_", " ")
	} else {
		compName = pdfSuffix.ReplaceAllString(name, "")
	}
	if strings.TrimSpace(compName) == "" {
		compName = unknownComp
	}
	return dateStr, compName
}

// MatchesNamingPattern reports whether name follows "YYYY-MM-DD <Competition>.pdf".
func MatchesNamingPattern(name string) bool {
	return strictName.MatchString(name)
}

// Assemble builds the record for one PDF. It returns ErrNoRows when rows is empty.
func Assemble(name string, rows []model.RowRecord) (*model.CompetitionRecord, error) {
	if len(rows) == 0 {
		return nil, ErrNoRows
	}
	dateStr, compName := ParseFileName(name)
	return &model.CompetitionRecord{
		DateStr:  dateStr,
		CompName: compName,
		Rows:     rows,
	}, nil
}
