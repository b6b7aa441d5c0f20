// Package queue provides the bounded outbound payload queue that sits between
// a session's producers and its single socket writer.
package queue

import (
	"context"
	"sync"

	"github.com/okian/bandboard/internal/domain/model"
	"github.com/okian/bandboard/pkg/metrics"
)

// Default queue configuration constants.
const (
	defaultQueueCapacity = 64
)

// Payload is the item type flowing through the queue.
type Payload = model.Payload

// Queue provides non-blocking enqueue and channel-based dequeue semantics.
type Queue interface {
	// Enqueue adds a payload without blocking. It returns ErrQueueFull or
	// ErrQueueClosed when the payload was not accepted.
	Enqueue(ctx context.Context, p Payload) error

	// Dequeue returns a channel that receives payloads in enqueue order.
	// The channel is closed when the queue is closed and drained, or ctx ends.
	Dequeue(ctx context.Context) <-chan Payload

	// Len returns the current number of queued payloads.
	Len() int

	// Close stops accepting payloads. It is safe to call more than once.
	Close() error

	IsClosed() bool
}

// InMemoryQueue implements Queue using a buffered channel.
type InMemoryQueue struct {
	payloads chan Payload
	capacity int

	mu     sync.RWMutex
	closed bool
}

// NewInMemoryQueue creates a new in-memory queue with configuration options.
func NewInMemoryQueue(opts ...Option) *InMemoryQueue {
	q := &InMemoryQueue{
		capacity: defaultQueueCapacity,
	}
	for _, opt := range opts {
		opt(q)
	}
	q.payloads = make(chan Payload, q.capacity)

	metrics.UpdateQueueCapacity(q.capacity)
	return q
}

// Enqueue adds a payload to the queue.
func (q *InMemoryQueue) Enqueue(ctx context.Context, p Payload) error {
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed {
		metrics.RecordQueueRejected("closed")
		return ErrQueueClosed
	}

	select {
	case <-ctx.Done():
		metrics.RecordQueueRejected("context_cancelled")
		return ctx.Err()
	default:
	}

	select {
	case q.payloads <- p:
		metrics.RecordQueueEnqueue()
		return nil
	default:
		metrics.RecordQueueRejected("full")
		metrics.RecordErrorByComponent("queue", "queue_full")
		return ErrQueueFull
	}
}

// Dequeue returns a channel of queued payloads.
func (q *InMemoryQueue) Dequeue(ctx context.Context) <-chan Payload {
	out := make(chan Payload)
	go func() {
		defer close(out)
		for {
			select {
			case <-ctx.Done():
				return
			case p, ok := <-q.payloads:
				if !ok {
					return
				}
				select {
				case out <- p:
					metrics.RecordQueueDequeue()
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out
}

// Len returns the current number of queued payloads.
func (q *InMemoryQueue) Len() int {
	return len(q.payloads)
}

// Capacity returns the maximum number of queued payloads.
func (q *InMemoryQueue) Capacity() int {
	return q.capacity
}

// Close gracefully shuts down the queue. Payloads already queued can still be drained.
func (q *InMemoryQueue) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return nil
	}
	close(q.payloads)
	q.closed = true
	return nil
}

// IsClosed returns true if the queue has been closed.
func (q *InMemoryQueue) IsClosed() bool {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.closed
}
