// Package cache provides a generic, thread-safe LRU index.
//
// It backs the entry table of the query cache: Get promotes, Peek does not,
// Put applies the capacity bound. Entries can be pinned through a predicate
// so that values still in use (for example entries with an in-flight load)
// survive eviction; Trim re-applies the bound once they are released.
//
//	idx := cache.NewLRU[string, *entry](128,
//		cache.WithPinned[string, *entry](func(e *entry) bool { return e.busy() }),
//		cache.WithEvictCallback[string, *entry](func(k string, _ *entry) {
//			log.Debug("evicted", "key", k)
//		}),
//	)
//
// A capacity of zero or less disables eviction.
package cache
