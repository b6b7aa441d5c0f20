package assemble

import "errors"

// ErrNoRows means a document produced no result rows and yields no record.
var ErrNoRows = errors.New("no rows extracted")
