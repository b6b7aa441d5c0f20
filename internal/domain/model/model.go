// Package model contains domain models passed between layers.
package model

import (
	"encoding/json"
	"fmt"

	"github.com/go-playground/validator/v10"

	"github.com/okian/bandboard/internal/domain/types"
)

// CellCount is the number of numeric score cells in every result row.
const CellCount = 24

// Payload is one wire message: {"type": <kind>, "data": <raw JSON>}.
type Payload struct {
	Kind types.Kind      `json:"type"`
	Data json.RawMessage `json:"data"`
}

// CompetitionRecord is one competition's results as produced by the PDF pipeline.
type CompetitionRecord struct {
	DateStr  string      `json:"dateStr" yaml:"dateStr"`
	CompName string      `json:"compName" yaml:"compName" validate:"required"`
	Rows     []RowRecord `json:"rows" yaml:"rows" validate:"required,min=1,dive"`
}

// RowRecord is one school's line of results.
type RowRecord struct {
	School string    `json:"school" yaml:"school"`
	Cells  []float64 `json:"cells" yaml:"cells,flow" validate:"len=24"`
}

// Comment is a single judge remark.
type Comment struct {
	Comment string `json:"comment"`
	Judge   string `json:"judge"`
	Caption string `json:"caption"`
}

// TextFragment is a positioned piece of page text.
type TextFragment struct {
	Text   string
	X      float64
	Y      float64
	Height float64
}

var validate = validator.New()

// Validate checks the row has exactly CellCount cells.
func (r *RowRecord) Validate() error {
	if err := validate.Struct(r); err != nil {
		return fmt.Errorf("row %q: %w", r.School, err)
	}
	return nil
}

// Validate checks the record and every row it holds.
func (c *CompetitionRecord) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("competition %q: %w", c.CompName, err)
	}
	return nil
}
