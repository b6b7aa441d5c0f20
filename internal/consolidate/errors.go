package consolidate

import "errors"

var (
	// ErrNoInputs is returned when no PDF matches the given inputs.
	ErrNoInputs = errors.New("no input PDFs")
	// ErrInputs is returned when an input path cannot be inspected.
	ErrInputs = errors.New("cannot read inputs")
)
