// Package broadcast distributes state snapshots from one producer to many
// subscribers.
//
// It is tuned for state, not event streams: a new subscriber immediately
// receives the latest broadcast value, and a subscriber that falls behind
// loses intermediate values rather than blocking the producer. The newest
// value is always delivered.
//
//	b := broadcast.NewMemoryBroadcaster[State](4)
//	defer b.Close()
//
//	sub := b.Subscribe(ctx) // unsubscribed when ctx is cancelled
//	defer sub.Close()
//
//	_ = b.Broadcast(ctx, broadcast.Message[State]{Data: st})
//
//	for msg := range sub.Receive(ctx) {
//		render(msg.Data)
//	}
package broadcast
