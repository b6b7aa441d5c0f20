package service_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	service "github.com/okian/bandboard/internal/app"
	"github.com/okian/bandboard/internal/domain/model"
	"github.com/okian/bandboard/internal/domain/types"
	"github.com/okian/bandboard/pkg/logger"
)

func init() {
	// Initialize logging for tests
	err := logger.Init()
	if err != nil {
		panic(err)
	}
}

// pipeConn records written payloads and blocks reads until closed.
type pipeConn struct {
	mu     sync.Mutex
	kinds  []types.Kind
	open   atomic.Bool
	closed chan struct{}
	once   sync.Once
}

func newPipeConn() *pipeConn {
	c := &pipeConn{closed: make(chan struct{})}
	c.open.Store(true)
	return c
}

func (c *pipeConn) IsOpen() bool       { return c.open.Load() }
func (c *pipeConn) RemoteAddr() string { return "pipe" }

func (c *pipeConn) WriteText(p []byte) error {
	var pl model.Payload
	if err := json.Unmarshal(p, &pl); err != nil {
		return err
	}
	c.mu.Lock()
	c.kinds = append(c.kinds, pl.Kind)
	c.mu.Unlock()
	return nil
}

func (c *pipeConn) ReadFrame() error {
	<-c.closed
	return io.ErrClosedPipe
}

func (c *pipeConn) Close() error {
	c.once.Do(func() {
		c.open.Store(false)
		close(c.closed)
	})
	return nil
}

func (c *pipeConn) written() []types.Kind {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]types.Kind(nil), c.kinds...)
}

func waitUntil(cond func() bool) bool {
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(10 * time.Millisecond)
	}
	return false
}

func TestService_New(t *testing.T) {
	Convey("Given a new service with default options", t, func() {
		svc := service.New()

		Convey("Then it should report defaults before starting", func() {
			So(svc, ShouldNotBeNil)
			stats := svc.GetStats()
			So(stats["started"], ShouldEqual, false)
			So(stats["dataDir"], ShouldEqual, "JSON Files")
			So(stats["outboxSize"], ShouldEqual, 64)
			So(stats["activeSessions"], ShouldEqual, 0)
		})
	})

	Convey("Given a new service with custom options", t, func() {
		svc := service.New(
			service.WithDataDir("/tmp/scores"),
			service.WithOutboxSize(8),
			service.WithOutboxSize(-1),
		)

		Convey("Then valid options are applied and invalid ones ignored", func() {
			stats := svc.GetStats()
			So(stats["dataDir"], ShouldEqual, "/tmp/scores")
			So(stats["outboxSize"], ShouldEqual, 8)
		})
	})
}

func TestService_StartStop(t *testing.T) {
	Convey("Given a service over a data directory with one source present", t, func() {
		dir := t.TempDir()
		So(os.WriteFile(filepath.Join(dir, "Data Collection.json"), []byte(`[]`), 0o600), ShouldBeNil)
		svc := service.New(service.WithDataDir(dir))
		defer svc.Stop()

		Convey("When starting the service twice", func() {
			So(svc.Start(context.Background()), ShouldBeNil)
			So(svc.Start(context.Background()), ShouldBeNil)

			Convey("Then stats report source presence", func() {
				stats := svc.GetStats()
				So(stats["started"], ShouldEqual, true)
				present := stats["sources"].(map[string]bool)
				So(present["Data Collection.json"], ShouldBeTrue)
				So(present["AdjudicationSheets.json"], ShouldBeFalse)
			})
		})

		Convey("When stopping the service", func() {
			So(svc.Start(context.Background()), ShouldBeNil)
			svc.Stop()
			svc.Stop()

			Convey("Then it should be marked as stopped", func() {
				So(svc.GetStats()["started"], ShouldEqual, false)
			})
		})
	})
}

func TestService_ServeSession(t *testing.T) {
	Convey("Given a service that has not been started", t, func() {
		svc := service.New(service.WithDataDir(t.TempDir()))
		conn := newPipeConn()

		Convey("When serving a session", func() {
			err := svc.ServeSession(context.Background(), conn)

			Convey("Then it is refused and the connection closed", func() {
				So(errors.Is(err, service.ErrNotStarted), ShouldBeTrue)
				So(conn.IsOpen(), ShouldBeFalse)
			})
		})
	})

	Convey("Given a started service with a scores file", t, func() {
		dir := t.TempDir()
		So(os.WriteFile(filepath.Join(dir, "Data Collection.json"), []byte(`[]`), 0o600), ShouldBeNil)
		svc := service.New(service.WithDataDir(dir))
		So(svc.Start(context.Background()), ShouldBeNil)
		defer svc.Stop()

		Convey("When a session is served and the service stops", func() {
			conn := newPipeConn()
			done := make(chan error, 1)
			go func() { done <- svc.ServeSession(context.Background(), conn) }()

			sent := waitUntil(func() bool { return len(conn.written()) >= 2 })
			active := svc.ActiveSessions()
			svc.Stop()

			var err error
			select {
			case err = <-done:
			case <-time.After(3 * time.Second):
				err = errors.New("session did not end")
			}

			Convey("Then the initial load is delivered and the session ends cleanly", func() {
				So(sent, ShouldBeTrue)
				So(conn.written(), ShouldResemble, []types.Kind{types.KindScores, types.KindComments})
				So(active, ShouldEqual, 1)
				So(err, ShouldBeNil)
				So(conn.IsOpen(), ShouldBeFalse)
				So(svc.ActiveSessions(), ShouldEqual, 0)
				So(svc.GetStats()["totalSessions"], ShouldEqual, 1)
			})
		})

		Convey("When the caller's context ends", func() {
			conn := newPipeConn()
			ctx, cancel := context.WithCancel(context.Background())
			done := make(chan error, 1)
			go func() { done <- svc.ServeSession(ctx, conn) }()
			waitUntil(func() bool { return svc.ActiveSessions() == 1 })
			cancel()

			var err error
			select {
			case err = <-done:
			case <-time.After(3 * time.Second):
				err = errors.New("session did not end")
			}

			Convey("Then only that session ends", func() {
				So(err, ShouldBeNil)
				So(svc.GetStats()["started"], ShouldEqual, true)
			})
		})
	})
}
