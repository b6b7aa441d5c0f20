// Package stream pushes source payloads to connected dashboards over
// WebSocket and consumes that feed on the client side.
package stream

import (
	"fmt"
	"net"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gobwas/ws"
	"github.com/gobwas/ws/wsutil"
)

// Conn is the server side of one client connection.
type Conn interface {
	// IsOpen reports whether the connection can still be written to.
	IsOpen() bool
	// WriteText sends one text frame.
	WriteText(p []byte) error
	// ReadFrame blocks until the peer sends a data frame. Any error means the
	// connection is finished.
	ReadFrame() error
	// Close closes the connection. It is safe to call more than once.
	Close() error
	// RemoteAddr identifies the peer for logging.
	RemoteAddr() string
}

// WSConn is a Conn over a hijacked WebSocket connection.
type WSConn struct {
	nc      net.Conn
	rd      wsutil.Reader
	control wsutil.FrameHandlerFunc
	wmu     sync.Mutex
	open    atomic.Bool
	once    sync.Once
}

// Upgrade performs the WebSocket handshake on an HTTP request.
func Upgrade(w http.ResponseWriter, r *http.Request) (*WSConn, error) {
	nc, _, _, err := ws.UpgradeHTTP(r, w)
	if err != nil {
		return nil, fmt.Errorf("%w: upgrade: %w", ErrTransport, err)
	}
	// Hijacked connections keep the server's request deadlines; sessions outlive them.
	if err := nc.SetDeadline(time.Time{}); err != nil {
		_ = nc.Close()
		return nil, fmt.Errorf("%w: clear deadline: %w", ErrTransport, err)
	}
	return NewWSConn(nc), nil
}

// NewWSConn wraps an already upgraded connection.
func NewWSConn(nc net.Conn) *WSConn {
	c := &WSConn{nc: nc}
	c.control = wsutil.ControlFrameHandler(lockedWriter{c: c}, ws.StateServerSide)
	c.rd = wsutil.Reader{
		Source:         nc,
		State:          ws.StateServerSide,
		CheckUTF8:      true,
		OnIntermediate: c.control,
	}
	c.open.Store(true)
	return c
}

func (c *WSConn) IsOpen() bool { return c.open.Load() }

func (c *WSConn) RemoteAddr() string { return c.nc.RemoteAddr().String() }

func (c *WSConn) WriteText(p []byte) error {
	if !c.IsOpen() {
		return ErrConnClosed
	}
	c.wmu.Lock()
	defer c.wmu.Unlock()
	if err := wsutil.WriteServerMessage(c.nc, ws.OpText, p); err != nil {
		c.open.Store(false)
		return fmt.Errorf("%w: write: %w", ErrTransport, err)
	}
	return nil
}

// ReadFrame reads and discards one client data frame. Control frames are
// answered through the write lock so replies never interleave with payloads.
func (c *WSConn) ReadFrame() error {
	for {
		hdr, err := c.rd.NextFrame()
		if err != nil {
			c.open.Store(false)
			return err
		}
		if hdr.OpCode.IsControl() {
			if err := c.control(hdr, &c.rd); err != nil {
				c.open.Store(false)
				return err
			}
			continue
		}
		if err := c.rd.Discard(); err != nil {
			c.open.Store(false)
			return err
		}
		return nil
	}
}

// lockedWriter serializes control replies with WriteText.
type lockedWriter struct{ c *WSConn }

func (w lockedWriter) Write(p []byte) (int, error) {
	w.c.wmu.Lock()
	defer w.c.wmu.Unlock()
	return w.c.nc.Write(p)
}

func (c *WSConn) Close() error {
	var err error
	c.once.Do(func() {
		c.open.Store(false)
		err = c.nc.Close()
	})
	return err
}
