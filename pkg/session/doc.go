// Package session holds the client's authentication token and keeps it in
// sync with durable storage.
//
// A Store starts empty and not hydrated. Token reads and writes are
// synchronous and in-memory; a background writer persists the latest value
// under the configured namespace as {"state":{"token":"..."},"version":1}.
// Restore reads that envelope once and flips Hydrated to true, which is what
// the hydration gate and token-gated queries wait for. Storage failures are
// logged and never surfaced: the store degrades to an unauthenticated,
// hydrated state.
//
//	store := session.New(storage.Fallback(ctx, fs, log), session.WithLogger(log))
//	defer store.Close()
//
//	initializer := session.NewInitializer(store)
//	state, _ := initializer.Mount(ctx).Await(ctx)
//
// Initializer runs the restore on its own goroutine, once per mounted
// lifetime, and never on the server (see WithRuntime).
//
// Subscribe and Changes expose state changes; Changes makes the Store usable
// as a query.Watchable, and Token makes it a query.TokenSource.
package session
