package broadcast

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// Message wraps data of type T for type-safe broadcasting.
type Message[T any] struct {
	Data T
}

// Subscriber receives messages from a Broadcaster.
// Implementations must be safe for concurrent use.
type Subscriber[T any] interface {
	// ID identifies the subscriber for logging.
	ID() string

	// Receive returns the channel delivering broadcast messages.
	// The channel is closed after Close or when the broadcaster shuts down.
	Receive(ctx context.Context) <-chan Message[T]

	// Close releases the subscriber. It is idempotent.
	Close() error
}

// Broadcaster distributes state snapshots to subscribers.
// A new subscriber first receives the latest broadcast message, if any,
// and slow subscribers are conflated to the newest messages instead of blocking.
type Broadcaster[T any] interface {
	// Subscribe registers a subscriber whose lifetime is bound to ctx.
	Subscribe(ctx context.Context) Subscriber[T]

	// Broadcast delivers msg to every active subscriber and remembers it as latest.
	Broadcast(ctx context.Context, msg Message[T]) error

	// Close shuts down the broadcaster and closes all subscribers.
	Close() error
}

type subscriber[T any] struct {
	id     string
	ch     chan Message[T]
	closed bool
	mu     sync.Mutex
}

func newSubscriber[T any](bufferSize int) *subscriber[T] {
	return &subscriber[T]{
		id: uuid.NewString(),
		ch: make(chan Message[T], bufferSize),
	}
}

func (s *subscriber[T]) ID() string {
	return s.id
}

func (s *subscriber[T]) Receive(ctx context.Context) <-chan Message[T] {
	return s.ch
}

func (s *subscriber[T]) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.closed {
		close(s.ch)
		s.closed = true
	}
	return nil
}

// send never blocks: when the buffer is full the oldest queued message is
// dropped, so the newest state always reaches the subscriber.
func (s *subscriber[T]) send(msg Message[T]) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return false
	}

	for {
		select {
		case s.ch <- msg:
			return true
		default:
		}

		select {
		case <-s.ch:
		default:
		}
	}
}
