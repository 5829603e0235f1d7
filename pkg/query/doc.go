// Package query is a keyed fetch cache with per-key request deduplication,
// plus a conditional gate that only fetches while its preconditions hold.
//
// # Cache
//
// Entries are identified by a Key built from a resource name and params.
// Params are encoded canonically, so maps with the same contents in any
// order, or a struct and its JSON-equivalent map, yield the same Key.
//
//	key := query.MustKey("achievements", map[string]any{"userId": id})
//	res := query.Fetch(ctx, c, key, func(ctx context.Context) ([]Achievement, error) {
//		return api.Achievements(ctx, id)
//	})
//
// At most one loader runs per key; concurrent callers share its outcome.
// Loads run on a context that keeps the first caller's values but not its
// cancellation. A failed refetch keeps the previous value and records the
// error. Entries stay fresh until invalidated unless a stale time is set.
//
// Each entry moves through Idle, Loading, Success and Error along a fixed
// transition table; an undefined transition is logged as an error.
//
// # Gate
//
// A Gate binds a Resolver (the current key and loader) to a set of
// conditions. It is enabled when the explicit flag, every condition and a
// defined key all hold. Enabling it, or changing its key, starts a fetch.
//
//	userID := query.NewParam("")
//	g := query.NewGate(c, func() (query.Request[[]Achievement], bool) {
//		id, ok := userID.Lookup()
//		if !ok {
//			return query.Request[[]Achievement]{}, false
//		}
//		return query.Request[[]Achievement]{Key: achievementsKey(id), Loader: load(id)}, true
//	}, query.WithWatch(userID), query.WithTokenRequired(store))
//	go g.Start(ctx)
package query
