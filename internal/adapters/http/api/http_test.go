package api_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gobwas/ws"
	"github.com/gobwas/ws/wsutil"
	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/bandboard/internal/adapters/http/api"
	"github.com/okian/bandboard/internal/adapters/stream"
	"github.com/okian/bandboard/pkg/logger"
	"github.com/okian/bandboard/pkg/metrics"
)

func init() {
	_ = logger.Init()
}

// mockSessions greets every connection with one payload and closes it.
type mockSessions struct {
	served atomic.Int32
}

func (m *mockSessions) ServeSession(_ context.Context, conn stream.Conn) error {
	m.served.Add(1)
	defer conn.Close()
	return conn.WriteText([]byte(`{"type":"comments","data":[]}`))
}

type mockStatsProvider struct {
	stats map[string]any
}

func (m *mockStatsProvider) GetStats() map[string]any {
	return m.stats
}

func newMux(sessions api.SessionServer) *http.ServeMux {
	site := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, "webapp")
	})
	stats := &mockStatsProvider{stats: map[string]any{"activeSessions": 2, "started": true}}
	mux := http.NewServeMux()
	api.NewServer(sessions, stats, site).Register(context.Background(), mux)
	return mux
}

// readFirstText dials url and returns the first text message from the server.
func readFirstText(url string) (string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	conn, br, _, err := ws.Dial(ctx, url)
	if err != nil {
		return "", err
	}
	defer conn.Close()
	var r io.Reader = conn
	if br != nil {
		r = io.MultiReader(br, conn)
	}
	msg, err := wsutil.ReadServerText(struct {
		io.Reader
		io.Writer
	}{r, conn})
	return string(msg), err
}

func TestServer_Register(t *testing.T) {
	Convey("Given a registered API server", t, func() {
		sessions := &mockSessions{}
		mux := newMux(sessions)

		Convey("When requesting /healthz", func() {
			metrics.RecordWatchEvent("change")
			w := httptest.NewRecorder()
			mux.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))

			Convey("Then Prometheus metrics are served", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(w.Body.String(), ShouldContainSubstring, "bandboard_watch_events_total")
			})
		})

		Convey("When requesting /stats", func() {
			w := httptest.NewRecorder()
			mux.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/stats", nil))

			Convey("Then the provider's stats are returned as JSON", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(w.Header().Get("Content-Type"), ShouldContainSubstring, "application/json")
				var body map[string]any
				So(json.Unmarshal(w.Body.Bytes(), &body), ShouldBeNil)
				So(body["activeSessions"], ShouldEqual, float64(2))
				So(body["started"], ShouldEqual, true)
			})
		})

		Convey("When posting to /stats", func() {
			w := httptest.NewRecorder()
			mux.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/stats", nil))

			Convey("Then the method is not allowed", func() {
				So(w.Code, ShouldEqual, http.StatusMethodNotAllowed)
			})
		})

		Convey("When requesting /ws without an upgrade", func() {
			w := httptest.NewRecorder()
			mux.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ws", nil))

			Convey("Then it is a bad request and no session starts", func() {
				So(w.Code, ShouldEqual, http.StatusBadRequest)
				So(w.Body.String(), ShouldContainSubstring, "not_upgrade")
				So(sessions.served.Load(), ShouldEqual, 0)
			})
		})

		Convey("When requesting / without an upgrade", func() {
			w := httptest.NewRecorder()
			mux.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

			Convey("Then the webapp is served", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(w.Body.String(), ShouldEqual, "webapp")
			})
		})
	})
}

func TestServer_WebSocketEndpoints(t *testing.T) {
	Convey("Given the API behind a real HTTP server", t, func() {
		sessions := &mockSessions{}
		srv := httptest.NewServer(newMux(sessions))
		defer srv.Close()
		base := "ws" + strings.TrimPrefix(srv.URL, "http")

		paths := []string{"/ws", "/"}
		for _, path := range paths {
			Convey("When a client connects to "+path, func() {
				msg, err := readFirstText(base + path)

				Convey("Then a session is served on the upgraded connection", func() {
					So(err, ShouldBeNil)
					So(msg, ShouldEqual, `{"type":"comments","data":[]}`)
					So(sessions.served.Load(), ShouldEqual, 1)
				})
			})
		}
	})
}
