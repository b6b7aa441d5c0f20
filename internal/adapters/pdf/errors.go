package pdf

import "errors"

// Sentinel error kinds for this package.
var (
	ErrPdfOpen = errors.New("pdf open failed")
	ErrPdfPage = errors.New("pdf page unreadable")
)
