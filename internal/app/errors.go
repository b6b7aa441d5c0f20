package service

import "errors"

// ErrNotStarted is returned when a session is served before Start.
var ErrNotStarted = errors.New("service not started")
