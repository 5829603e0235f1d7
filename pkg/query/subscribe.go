package query

import (
	"context"

	"github.com/dmitrymomot/contestkit/pkg/broadcast"
)

// Subscribe observes the entry for key. The subscriber first receives the
// current state, then every change; slow readers only miss intermediate
// states. The subscription ends when ctx is done or Close is called, and
// never cancels a load.
func Subscribe(ctx context.Context, c *Cache, key Key) broadcast.Subscriber[Snapshot] {
	c.mu.Lock()
	defer c.mu.Unlock()

	t, ok := c.topics[key]
	if !ok {
		t = broadcast.NewMemoryBroadcaster[Snapshot](c.bufferSize)
		if c.closed {
			_ = t.Close()
			return t.Subscribe(ctx)
		}
		c.topics[key] = t

		seed := Snapshot{Key: key}
		if e, ok := c.entries.Peek(key); ok {
			seed = e.snapshot()
		}
		_ = t.Broadcast(ctx, broadcast.Message[Snapshot]{Data: seed})
	}
	return t.Subscribe(ctx)
}

// SubscribeResult is Subscribe with typed results. The channel is closed
// when ctx is done or the cache is closed.
func SubscribeResult[V any](ctx context.Context, c *Cache, key Key) <-chan Result[V] {
	sub := Subscribe(ctx, c, key)
	out := make(chan Result[V], 1)

	go func() {
		defer close(out)
		defer sub.Close()

		msgs := sub.Receive(ctx)
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-msgs:
				if !ok {
					return
				}
				r := resultOf[V](msg.Data)
				// Keep only the newest result when the reader lags behind.
				select {
				case out <- r:
				default:
					select {
					case <-out:
					default:
					}
					out <- r
				}
			}
		}
	}()

	return out
}
