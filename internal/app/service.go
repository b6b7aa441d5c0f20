// Package service owns the broadcast sessions and exposes the dependencies
// required by the HTTP API.
package service

import (
	"context"
	"os"
	"sync"
	"sync/atomic"

	"github.com/okian/bandboard/internal/adapters/source"
	"github.com/okian/bandboard/internal/adapters/stream"
	"github.com/okian/bandboard/internal/domain/types"
	"github.com/okian/bandboard/pkg/logger"
	"github.com/okian/bandboard/pkg/metrics"
)

// Service serves one broadcast session per connection over a shared data directory.
type Service struct {
	mu sync.RWMutex

	// Configuration
	dataDir    string
	outboxSize int
	sources    []types.SourceFile

	// Components
	reader *source.Reader

	// State
	started  bool
	ctx      context.Context
	cancel   context.CancelFunc
	sessions sync.WaitGroup
	active   atomic.Int64
	total    atomic.Int64

	// Logging
	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithDataDir sets the directory holding the source files.
func WithDataDir(dir string) Option {
	return func(s *Service) {
		if dir != "" {
			s.dataDir = dir
		}
	}
}

// WithOutboxSize bounds each session's outbound queue.
func WithOutboxSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.outboxSize = size
		}
	}
}

// WithSources overrides the source files served to sessions.
func WithSources(srcs []types.SourceFile) Option {
	return func(s *Service) {
		if len(srcs) > 0 {
			s.sources = srcs
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		dataDir:    "JSON Files",
		outboxSize: 64,
		sources:    types.Sources(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start prepares the service. Sessions served afterwards end when ctx ends or Stop is called.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	if s.logger == nil {
		s.logger = logger.Named("service")
	}

	if info, err := os.Stat(s.dataDir); err != nil || !info.IsDir() {
		s.logger.Warn(ctx, "data directory not available yet", logger.String("dataDir", s.dataDir))
	}

	s.reader = source.NewReader(s.dataDir)
	s.ctx, s.cancel = context.WithCancel(ctx)
	metrics.UpdateQueueCapacity(s.outboxSize)

	s.started = true
	s.logger.Info(ctx, "broadcast service started",
		logger.String("dataDir", s.dataDir),
		logger.Int("outboxSize", s.outboxSize),
		logger.Int("sources", len(s.sources)),
	)
	return nil
}

// Stop ends every session and waits for their teardown.
func (s *Service) Stop() {
	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return
	}
	s.logger.Info(context.Background(), "stopping broadcast service...")
	s.cancel()
	s.started = false
	s.mu.Unlock()

	s.sessions.Wait()
	s.logger.Info(context.Background(), "broadcast service stopped")
}

// ServeSession runs a broadcast session on conn until the client leaves,
// the transport fails, ctx ends or the service stops.
func (s *Service) ServeSession(ctx context.Context, conn stream.Conn) error {
	s.mu.RLock()
	if !s.started {
		s.mu.RUnlock()
		_ = conn.Close()
		return ErrNotStarted
	}
	root := s.ctx
	s.sessions.Add(1)
	s.mu.RUnlock()
	defer s.sessions.Done()

	sctx, cancel := context.WithCancel(ctx)
	defer cancel()
	stop := context.AfterFunc(root, cancel)
	defer stop()

	s.active.Add(1)
	s.total.Add(1)
	defer s.active.Add(-1)

	session := stream.NewSession(conn, s.reader, s.watcherFactory,
		stream.WithOutboxSize(s.outboxSize),
		stream.WithSources(s.sources),
	)
	return session.Run(sctx)
}

func (s *Service) watcherFactory() (source.Watcher, error) {
	w, err := source.NewWatcher(s.dataDir, s.sources)
	if err != nil {
		return nil, err
	}
	return w, nil
}

// ActiveSessions returns the number of sessions currently served.
func (s *Service) ActiveSessions() int {
	return int(s.active.Load())
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()

	active := s.ActiveSessions()
	stats := map[string]any{
		"started":        s.started,
		"dataDir":        s.dataDir,
		"outboxSize":     s.outboxSize,
		"activeSessions": active,
		"totalSessions":  int(s.total.Load()),
	}

	if s.reader != nil {
		present := make(map[string]bool, len(s.sources))
		for _, src := range s.sources {
			present[src.Name] = s.reader.Exists(src)
		}
		stats["sources"] = present
	}

	metrics.UpdateActiveSessions(active)
	return stats
}
