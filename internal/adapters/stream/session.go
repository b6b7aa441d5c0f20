package stream

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/okian/bandboard/internal/adapters/mq/queue"
	"github.com/okian/bandboard/internal/adapters/source"
	"github.com/okian/bandboard/internal/domain/model"
	"github.com/okian/bandboard/internal/domain/types"
	"github.com/okian/bandboard/pkg/logger"
	"github.com/okian/bandboard/pkg/metrics"
)

// emptyComments is sent in place of a missing comments source.
var emptyComments = json.RawMessage(`[]`)

// SourceReader loads the current content of a source.
type SourceReader interface {
	Read(ctx context.Context, src types.SourceFile) (json.RawMessage, error)
}

// WatcherFactory creates the watcher owned by one session.
type WatcherFactory func() (source.Watcher, error)

// Session streams every source to one client: the full set on connect, then
// each source again whenever it is added or changed.
type Session struct {
	id         string
	conn       Conn
	reader     SourceReader
	newWatcher WatcherFactory
	sources    []types.SourceFile
	outboxSize int
	logger     logger.Logger

	outbox  *queue.InMemoryQueue
	watcher source.Watcher
	opened  time.Time

	closeOnce   sync.Once
	closeReason string
}

// NewSession creates a session for conn. Run starts it.
func NewSession(conn Conn, reader SourceReader, newWatcher WatcherFactory, opts ...SessionOption) *Session {
	s := &Session{
		id:         uuid.NewString(),
		conn:       conn,
		reader:     reader,
		newWatcher: newWatcher,
		sources:    types.Sources(),
		outboxSize: defaultOutboxSize,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = logger.Named("stream")
	}
	s.logger = s.logger.With(logger.String("session", s.id))
	s.outbox = queue.NewInMemoryQueue(queue.WithCapacity(s.outboxSize))
	return s
}

// ID returns the session identifier.
func (s *Session) ID() string { return s.id }

// Run serves the session until the client leaves, the transport fails or ctx
// ends. Teardown always runs before Run returns. Only transport failures are
// reported as errors.
func (s *Session) Run(ctx context.Context) error {
	s.opened = time.Now()
	metrics.RecordSessionOpened()
	s.logger.Info(ctx, "session opened", logger.String("remote", s.conn.RemoteAddr()))

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error { return s.writePump(gctx) })

	// The watcher is created before the initial load so writes that land
	// during the load are not missed.
	if s.newWatcher != nil {
		w, err := s.newWatcher()
		if err != nil {
			s.logger.Warn(ctx, "watching disabled for session", logger.Error(err))
			metrics.RecordErrorByComponent("stream", "watch_start")
		} else {
			s.watcher = w
		}
	}

	for _, src := range s.sources {
		s.publish(gctx, src)
	}

	if s.watcher != nil {
		g.Go(func() error { return s.watchPump(gctx) })
	}
	g.Go(s.readPump)
	g.Go(func() error {
		<-gctx.Done()
		s.Close()
		return nil
	})

	err := g.Wait()
	switch {
	case errors.Is(err, ErrTransport):
		s.setReason("transport_error")
	case ctx.Err() != nil:
		s.setReason("shutdown")
		err = nil
	default:
		s.setReason("client_closed")
		err = nil
	}
	s.Close()
	metrics.RecordSessionClosed(s.closeReason, time.Since(s.opened))
	s.logger.Info(context.Background(), "session closed",
		logger.String("reason", s.closeReason),
		logger.Duration("lifetime", time.Since(s.opened)),
	)
	return err
}

// Close tears the session down: watcher, outbox, then connection. It is
// idempotent and safe to call from any goroutine.
func (s *Session) Close() {
	s.closeOnce.Do(func() {
		if s.watcher != nil {
			if err := s.watcher.Close(); err != nil {
				s.logger.Warn(context.Background(), "closing watcher", logger.Error(err))
			}
		}
		_ = s.outbox.Close()
		_ = s.conn.Close()
	})
}

func (s *Session) setReason(reason string) {
	if s.closeReason == "" {
		s.closeReason = reason
	}
}

// publish reads src and queues its payload. Failures are logged and never
// retried; a missing comments source is sent as an empty list.
func (s *Session) publish(ctx context.Context, src types.SourceFile) {
	data, err := s.reader.Read(ctx, src)
	switch {
	case err == nil:
	case errors.Is(err, source.ErrSourceNotFound) && src.Kind == types.KindComments:
		s.logger.Info(ctx, "comments source missing, sending empty list", logger.String("file", src.Name))
		data = emptyComments
	case errors.Is(err, source.ErrSourceNotFound):
		s.logger.Warn(ctx, "source missing", logger.String("file", src.Name))
		return
	case errors.Is(err, source.ErrSourceParse):
		s.logger.Error(ctx, "source is not valid json", logger.String("file", src.Name), logger.Error(err))
		return
	default:
		s.logger.Error(ctx, "reading source", logger.String("file", src.Name), logger.Error(err))
		return
	}
	s.send(ctx, model.Payload{Kind: src.Kind, Data: data})
}

// send queues p for the writer unless the connection is already closed.
func (s *Session) send(ctx context.Context, p model.Payload) {
	if !s.conn.IsOpen() {
		metrics.RecordPayloadDropped(p.Kind.String(), "closed")
		return
	}
	if err := s.outbox.Enqueue(ctx, p); err != nil {
		reason := "full"
		if errors.Is(err, queue.ErrQueueClosed) {
			reason = "closed"
		}
		metrics.RecordPayloadDropped(p.Kind.String(), reason)
		s.logger.Debug(ctx, "payload dropped", logger.String("kind", p.Kind.String()), logger.String("reason", reason))
	}
}

func (s *Session) writePump(ctx context.Context) error {
	for p := range s.outbox.Dequeue(ctx) {
		if !s.conn.IsOpen() {
			metrics.RecordPayloadDropped(p.Kind.String(), "closed")
			continue
		}
		b, err := json.Marshal(p)
		if err != nil {
			s.logger.Error(ctx, "encoding payload", logger.String("kind", p.Kind.String()), logger.Error(err))
			continue
		}
		if err := s.conn.WriteText(b); err != nil {
			if errors.Is(err, ErrConnClosed) {
				metrics.RecordPayloadDropped(p.Kind.String(), "closed")
				continue
			}
			metrics.RecordErrorByComponent("stream", "write")
			return fmt.Errorf("session %s: %w", s.id, err)
		}
		metrics.RecordPayloadSent(p.Kind.String(), len(b))
		s.logger.Debug(ctx, "payload sent", logger.String("kind", p.Kind.String()), logger.Int("bytes", len(b)))
	}
	return nil
}

func (s *Session) watchPump(ctx context.Context) error {
	events, errs := s.watcher.Events(), s.watcher.Errors()
	for {
		select {
		case <-ctx.Done():
			return nil
		case ch, ok := <-events:
			if !ok {
				return nil
			}
			s.logger.Info(ctx, "source updated", logger.String("file", ch.Source.Name), logger.String("op", string(ch.Op)))
			s.publish(ctx, ch.Source)
		case err, ok := <-errs:
			if !ok {
				errs = nil
				continue
			}
			s.logger.Warn(ctx, "watcher error", logger.Error(err))
		}
	}
}

// readPump only watches for the client going away; frame content is ignored.
func (s *Session) readPump() error {
	for {
		if err := s.conn.ReadFrame(); err != nil {
			return fmt.Errorf("%w: %w", ErrClientGone, err)
		}
	}
}
