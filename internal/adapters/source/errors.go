package source

import "errors"

// Sentinel error kinds for source reads. Callers classify with errors.Is.
var (
	ErrSourceNotFound = errors.New("source not found")
	ErrSourceRead     = errors.New("source read failed")
	ErrSourceParse    = errors.New("source is not valid json")
)
