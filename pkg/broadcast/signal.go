package broadcast

import "context"

// Signal turns a broadcaster into a coalescing change notification.
// The returned channel receives one value per burst of messages (including
// the replayed latest value) and is closed when ctx is done or b shuts down.
func Signal[T any](ctx context.Context, b Broadcaster[T]) <-chan struct{} {
	sub := b.Subscribe(ctx)
	out := make(chan struct{}, 1)

	go func() {
		defer close(out)
		defer sub.Close()

		msgs := sub.Receive(ctx)
		for {
			select {
			case <-ctx.Done():
				return
			case _, ok := <-msgs:
				if !ok {
					return
				}
				select {
				case out <- struct{}{}:
				default:
				}
			}
		}
	}()

	return out
}
