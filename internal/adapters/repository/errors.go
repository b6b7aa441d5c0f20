package repository

import "errors"

// Sentinel kinds for store errors.
var (
	ErrUnknownKind = errors.New("unknown payload kind")
	ErrDecode      = errors.New("payload data does not match its kind")
)
