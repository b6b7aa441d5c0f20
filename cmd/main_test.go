package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/smartystreets/goconvey/convey"

	app "github.com/okian/bandboard/internal/app"
	"github.com/okian/bandboard/internal/config"
	"github.com/okian/bandboard/pkg/logger"
	"github.com/okian/bandboard/pkg/metrics"
)

func init() {
	if err := logger.Init(); err != nil {
		panic(err)
	}
}

func TestMainFunction(t *testing.T) {
	convey.Convey("Given the main application", t, func() {
		convey.Convey("When loading configuration from the environment", func() {
			t.Setenv("BANDBOARD_ADDR", ":8080")
			t.Setenv("BANDBOARD_OUTBOX_SIZE", "16")

			convey.Convey("Then the overrides should apply", func() {
				cfg, err := config.Load(context.Background())
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
				convey.So(cfg.OutboxSize, convey.ShouldEqual, 16)
			})
		})

		convey.Convey("When a .env file is present", func() {
			path := filepath.Join(t.TempDir(), ".env")
			convey.So(os.WriteFile(path, []byte("BANDBOARD_DATA_DIR=/srv/scores\n"), 0o600), convey.ShouldBeNil)
			defer func() { _ = os.Unsetenv("BANDBOARD_DATA_DIR") }()

			convey.Convey("Then its variables feed the configuration", func() {
				convey.So(loadDotEnv(path), convey.ShouldBeNil)
				cfg, err := config.Load(context.Background())
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.DataDir, convey.ShouldEqual, "/srv/scores")
			})
		})

		convey.Convey("When the .env file is missing", func() {
			convey.Convey("Then loading is a no-op", func() {
				convey.So(loadDotEnv(filepath.Join(t.TempDir(), ".env")), convey.ShouldBeNil)
			})
		})

		convey.Convey("When the configuration is invalid", func() {
			t.Setenv("BANDBOARD_OUTBOX_SIZE", "0")

			convey.Convey("Then loading should fail", func() {
				cfg, err := config.Load(context.Background())
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})
	})
}

func TestNewMux(t *testing.T) {
	convey.Convey("Given a started service and its routes", t, func() {
		ctx := context.Background()
		webapp := t.TempDir()
		convey.So(os.WriteFile(filepath.Join(webapp, "index.html"), []byte("<html>dashboard</html>"), 0o600), convey.ShouldBeNil)

		cfg := config.New()
		cfg.DataDir = t.TempDir()
		cfg.WebappDir = webapp
		svc := app.New(app.WithDataDir(cfg.DataDir))
		convey.So(svc.Start(ctx), convey.ShouldBeNil)
		defer svc.Stop()

		mux, err := newMux(ctx, cfg, svc)
		convey.So(err, convey.ShouldBeNil)

		routes := []struct {
			path     string
			contains string
		}{
			{"/", "dashboard"},
			{"/stats", `"started":true`},
			{"/healthz", "bandboard_"},
			{"/openapi.yaml", "openapi: 3.0.3"},
			{"/api-docs", "bandboard API"},
		}
		for _, route := range routes {
			convey.Convey("When requesting "+route.path, func() {
				w := httptest.NewRecorder()
				mux.ServeHTTP(w, httptest.NewRequest(http.MethodGet, route.path, nil))

				convey.Convey("Then it should be served", func() {
					convey.So(w.Code, convey.ShouldEqual, http.StatusOK)
					convey.So(w.Body.String(), convey.ShouldContainSubstring, route.contains)
				})
			})
		}
	})
}

func TestMainApplicationComponents(t *testing.T) {
	convey.Convey("Given main application components", t, func() {
		convey.Convey("When building the HTTP server", func() {
			srv := newHTTPServer(":0", http.NewServeMux())

			convey.Convey("Then the timeouts should be set", func() {
				convey.So(srv.Addr, convey.ShouldEqual, ":0")
				convey.So(srv.ReadHeaderTimeout, convey.ShouldEqual, readHeaderTimeout)
				convey.So(srv.IdleTimeout, convey.ShouldEqual, idleTimeout)
			})
		})

		convey.Convey("When running the system metrics updater", func() {
			ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
			defer cancel()

			convey.Convey("Then it should return when the context ends", func() {
				convey.So(func() { startSystemMetricsUpdater(ctx) }, convey.ShouldNotPanic)
			})
		})

		convey.Convey("When metrics are disabled", func() {
			metrics.Configure(metrics.WithMetricsEnabled(false))
			defer metrics.Configure(metrics.WithMetricsEnabled(true))
			done := make(chan struct{})
			go func() {
				startSystemMetricsUpdater(context.Background())
				close(done)
			}()

			convey.Convey("Then the system updater should return without waiting", func() {
				select {
				case <-done:
				case <-time.After(time.Second):
					t.Fatal("updater kept running with metrics disabled")
				}
			})
		})

		convey.Convey("When running the service metrics updater", func() {
			ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
			defer cancel()
			svc := app.New()

			convey.Convey("Then it should return when the context ends", func() {
				convey.So(func() { startServiceMetricsUpdater(ctx, svc) }, convey.ShouldNotPanic)
			})
		})

		convey.Convey("When updating system metrics", func() {
			convey.Convey("Then it should not panic", func() {
				convey.So(updateSystemMetrics, convey.ShouldNotPanic)
			})
		})
	})
}
