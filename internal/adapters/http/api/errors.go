package api

import "errors"

// Sentinel kinds for API errors.
var (
	ErrNotUpgrade = errors.New("not a websocket upgrade request")
	ErrUpgrade    = errors.New("websocket upgrade failed")
)
