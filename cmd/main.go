package main

import (
	"context"
	"errors"
	"io/fs"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/okian/bandboard/internal/adapters/http/api"
	"github.com/okian/bandboard/internal/adapters/http/site"
	"github.com/okian/bandboard/internal/adapters/http/swagger"
	app "github.com/okian/bandboard/internal/app"
	"github.com/okian/bandboard/internal/config"
	"github.com/okian/bandboard/pkg/logger"
	"github.com/okian/bandboard/pkg/metrics"
)

// HTTP server timeout constants. Read and write timeouts only bound plain
// requests; upgraded feed connections clear them.
const (
	readTimeout               = 10 * time.Second
	writeTimeout              = 10 * time.Second
	idleTimeout               = 60 * time.Second
	readHeaderTimeout         = 5 * time.Second
	shutdownTimeout           = 30 * time.Second
	serviceMetricsInterval    = 5 * time.Second
	nanosecondsPerMillisecond = 1e6
)

func main() {
	// Disable default Go metrics collection to avoid duplicate metrics
	// We collect our own custom system metrics instead
	prometheus.Unregister(collectors.NewGoCollector())
	prometheus.Unregister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	if err := loadDotEnv(".env"); err != nil {
		os.Stderr.WriteString("failed to load .env: " + err.Error() + "\n")
		return
	}

	// Initialize logging
	if err := logger.Init(); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		return
	}

	// Root context with cancel on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Load configuration (defaults -> optional file -> env)
	cfg, err := config.Load(ctx)
	if err != nil {
		os.Stderr.WriteString("failed to load config: " + err.Error() + "\n")
		return
	}

	if err := logger.Setup(os.Stdout, cfg.LogLevel, cfg.LogFormat); err != nil {
		logger.Get().Warn(ctx, "invalid log_level; falling back to info",
			logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}
	loggerInstance := logger.Get()

	metrics.Configure(
		metrics.WithMetricsEnabled(cfg.MetricsEnabled),
		metrics.WithRefreshInterval(cfg.MetricsInterval),
	)

	svc := app.New(
		app.WithLogger(logger.Named("service")),
		app.WithDataDir(cfg.DataDir),
		app.WithOutboxSize(cfg.OutboxSize),
	)
	if err := svc.Start(ctx); err != nil {
		loggerInstance.Error(ctx, "failed to start service", logger.Error(err))
		return
	}
	defer svc.Stop()

	go startSystemMetricsUpdater(ctx)
	go startServiceMetricsUpdater(ctx, svc)

	mux, err := newMux(ctx, cfg, svc)
	if err != nil {
		loggerInstance.Error(ctx, "failed to register routes", logger.Error(err))
		return
	}
	srv := newHTTPServer(cfg.Addr, mux)

	go func() {
		loggerInstance.Info(ctx, "starting HTTP server",
			logger.String("addr", cfg.Addr),
			logger.String("dataDir", cfg.DataDir),
			logger.String("webappDir", cfg.WebappDir))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			loggerInstance.Error(ctx, "HTTP server failed", logger.Error(err))
			stop()
		}
	}()

	// Wait for shutdown signal
	<-ctx.Done()
	loggerInstance.Info(context.Background(), "shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	// Shutdown stops new connections; feed sessions end with the service.
	if err := srv.Shutdown(shutdownCtx); err != nil {
		loggerInstance.Error(context.Background(), "server shutdown failed", logger.Error(err))
	}
	svc.Stop()

	loggerInstance.Info(context.Background(), "server stopped")
}

// loadDotEnv loads path into the environment. A missing file is not an error.
func loadDotEnv(path string) error {
	if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

// newMux registers the docs, API, feed and webapp routes.
func newMux(ctx context.Context, cfg *config.Config, svc *app.Service) (*http.ServeMux, error) {
	mux := http.NewServeMux()
	if err := swagger.Register(ctx, mux); err != nil {
		return nil, err
	}
	api.NewServer(svc, svc, site.New(ctx, cfg.WebappDir)).Register(ctx, mux)
	return mux, nil
}

func newHTTPServer(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}
}

// startSystemMetricsUpdater samples system metrics every metrics.RefreshInterval
// until ctx ends. It returns at once when recording is disabled.
func startSystemMetricsUpdater(ctx context.Context) {
	if !metrics.Enabled() {
		return
	}
	ticker := time.NewTicker(metrics.RefreshInterval())
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			updateSystemMetrics()
		}
	}
}

// startServiceMetricsUpdater refreshes the session gauge from the service.
func startServiceMetricsUpdater(ctx context.Context, svc *app.Service) {
	ticker := time.NewTicker(serviceMetricsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			_ = svc.GetStats()
		}
	}
}

// updateSystemMetrics updates system-level metrics.
func updateSystemMetrics() {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	metrics.UpdateSystemMemoryUsage(m.Alloc)
	metrics.UpdateSystemGoroutineCount(runtime.NumGoroutine())

	if m.NumGC > 0 {
		avgPauseMs := float64(m.PauseTotalNs) / float64(m.NumGC) / nanosecondsPerMillisecond
		metrics.RecordSystemGCPauseTime(avgPauseMs)
	}
}
