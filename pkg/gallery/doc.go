// Package gallery wires the contest/gallery API into the query cache.
//
// API turns transport requests into query loaders; the *Key functions build
// the matching cache keys. The gate constructors bind each resource to its
// preconditions: an identifier Param for per-user and per-contest data, the
// session token for the profile.
//
//	api := gallery.New(client)
//	userID := query.NewParam("")
//	g := gallery.AchievementsGate(cache, api, userID)
//	go g.Start(ctx)
//	userID.Set("user-42") // starts the fetch
package gallery
