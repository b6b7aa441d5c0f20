package export

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	"github.com/okian/bandboard/internal/domain/model"
)

//go:embed bundle.schema.json
var bundleSchema string

var schemaLoader = gojsonschema.NewStringLoader(bundleSchema)

// Validate checks records against the bundle schema and each record's own
// field rules. Violations are reported together, wrapped in ErrInvalidBundle.
func Validate(records []model.CompetitionRecord) error {
	doc, err := json.Marshal(records)
	if err != nil {
		return fmt.Errorf("%w: encode: %w", ErrInvalidBundle, err)
	}
	result, err := gojsonschema.Validate(schemaLoader, gojsonschema.NewBytesLoader(doc))
	if err != nil {
		return fmt.Errorf("%w: schema: %w", ErrInvalidBundle, err)
	}

	var problems []string
	for _, desc := range result.Errors() {
		field := desc.Field()
		if field == "" {
			field = "(root)"
		}
		problems = append(problems, field+": "+desc.Description())
	}
	for i := range records {
		if err := records[i].Validate(); err != nil {
			problems = append(problems, err.Error())
		}
	}
	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidBundle, strings.Join(problems, "; "))
	}
	return nil
}
