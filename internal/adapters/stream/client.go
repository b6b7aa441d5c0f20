package stream

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/gobwas/ws"
	"github.com/gobwas/ws/wsutil"

	"github.com/okian/bandboard/internal/domain/model"
	"github.com/okian/bandboard/pkg/logger"
)

// Handler consumes payloads received from the feed.
type Handler interface {
	Apply(ctx context.Context, p model.Payload) error
}

// Client subscribes to a bandboard feed and hands every payload to a Handler.
type Client struct {
	url       string
	handler   Handler
	reconnect time.Duration
	logger    logger.Logger
	dialer    ws.Dialer
}

// NewClient creates a client for the feed at url, e.g. ws://localhost:3000/ws.
func NewClient(url string, h Handler, opts ...ClientOption) *Client {
	c := &Client{
		url:       url,
		handler:   h,
		reconnect: defaultReconnectDelay,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = logger.Named("stream.client")
	}
	return c
}

// Run consumes the feed until ctx ends. A lost connection is redialed after
// the reconnect delay; with reconnects disabled Run returns the first failure.
func (c *Client) Run(ctx context.Context) error {
	for {
		err := c.consume(ctx)
		if ctx.Err() != nil {
			return nil
		}
		if c.reconnect == 0 {
			return err
		}
		if err != nil {
			c.logger.Warn(ctx, "feed connection lost", logger.Error(err), logger.Duration("retry_in", c.reconnect))
		} else {
			c.logger.Info(ctx, "feed closed by server", logger.Duration("retry_in", c.reconnect))
		}
		select {
		case <-ctx.Done():
			return nil
		case <-time.After(c.reconnect):
		}
	}
}

// consume runs one connection. A close frame from the server ends it cleanly.
func (c *Client) consume(ctx context.Context) error {
	conn, br, _, err := c.dialer.Dial(ctx, c.url)
	if err != nil {
		return fmt.Errorf("%w: dial %s: %w", ErrTransport, c.url, err)
	}
	defer conn.Close()

	var r io.Reader = conn
	if br != nil {
		r = io.MultiReader(br, conn)
		defer ws.PutReader(br)
	}
	stop := context.AfterFunc(ctx, func() {
		_ = wsutil.WriteClientMessage(conn, ws.OpClose, ws.NewCloseFrameBody(ws.StatusNormalClosure, ""))
		_ = conn.Close()
	})
	defer stop()

	c.logger.Info(ctx, "connected to feed", logger.String("url", c.url))
	rw := struct {
		io.Reader
		io.Writer
	}{r, conn}

	for {
		data, op, err := wsutil.ReadServerData(rw)
		if err != nil {
			var closed wsutil.ClosedError
			if errors.As(err, &closed) {
				return nil
			}
			return fmt.Errorf("%w: read: %w", ErrTransport, err)
		}
		if op != ws.OpText {
			continue
		}
		var p model.Payload
		if err := json.Unmarshal(data, &p); err != nil {
			c.logger.Warn(ctx, "undecodable message", logger.Error(err))
			continue
		}
		if err := c.handler.Apply(ctx, p); err != nil {
			c.logger.Warn(ctx, "payload rejected", logger.String("kind", p.Kind.String()), logger.Error(err))
		}
	}
}
