package export

import "errors"

// Sentinel error kinds for this package.
var (
	ErrNothingToExport   = errors.New("nothing to export")
	ErrInvalidBundle     = errors.New("export bundle is invalid")
	ErrUnsupportedFormat = errors.New("unsupported export format")
)
