package stream

import (
	"time"

	"github.com/okian/bandboard/internal/domain/types"
	"github.com/okian/bandboard/pkg/logger"
)

const (
	defaultOutboxSize     = 64
	defaultReconnectDelay = 3 * time.Second
)

// SessionOption configures a Session.
type SessionOption func(*Session)

// WithOutboxSize bounds the session's outbound queue.
func WithOutboxSize(n int) SessionOption {
	return func(s *Session) {
		if n > 0 {
			s.outboxSize = n
		}
	}
}

// WithSources overrides the sources loaded on connect.
func WithSources(srcs []types.SourceFile) SessionOption {
	return func(s *Session) {
		s.sources = srcs
	}
}

// WithSessionLogger sets the session's base logger.
func WithSessionLogger(l logger.Logger) SessionOption {
	return func(s *Session) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithSessionID fixes the session identifier instead of generating one.
func WithSessionID(id string) SessionOption {
	return func(s *Session) {
		if id != "" {
			s.id = id
		}
	}
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithReconnectDelay sets the pause before redialing. Zero disables reconnects.
func WithReconnectDelay(d time.Duration) ClientOption {
	return func(c *Client) {
		if d >= 0 {
			c.reconnect = d
		}
	}
}

// WithClientLogger sets the client's logger.
func WithClientLogger(l logger.Logger) ClientOption {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}
