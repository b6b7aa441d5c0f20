// Package export writes consolidated competitions to disk as JSON or YAML.
package export

import (
	"encoding/json"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/okian/bandboard/internal/domain/model"
)

// Exporter encodes a list of competitions in one format.
type Exporter interface {
	Export(records []model.CompetitionRecord, w io.Writer) error
	Extension() string
}

// NewExporter creates an exporter for format: json or yaml.
func NewExporter(format string) (Exporter, error) {
	switch format {
	case "", "json":
		return &JSONExporter{}, nil
	case "yaml", "yml":
		return &YAMLExporter{}, nil
	default:
		return nil, fmt.Errorf("%w: %s (supported: json, yaml)", ErrUnsupportedFormat, format)
	}
}

// JSONExporter writes a JSON array indented by two spaces.
type JSONExporter struct{}

func (e *JSONExporter) Export(records []model.CompetitionRecord, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(records)
}

func (e *JSONExporter) Extension() string { return "json" }

// YAMLExporter writes a YAML sequence.
type YAMLExporter struct{}

func (e *YAMLExporter) Export(records []model.CompetitionRecord, w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	defer func() { _ = enc.Close() }()
	return enc.Encode(records)
}

func (e *YAMLExporter) Extension() string { return "yaml" }
