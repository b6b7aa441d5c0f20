package stream

import "errors"

// Sentinel error kinds for this package. These allow errors.Is/As from callers.
var (
	// ErrTransport wraps socket failures. A transport error ends the session.
	ErrTransport = errors.New("transport error")
	// ErrConnClosed is returned when writing to a connection that is no longer open.
	ErrConnClosed = errors.New("connection closed")
	// ErrClientGone marks a session that ended because the peer disconnected.
	ErrClientGone = errors.New("client disconnected")
)
