// Package hydration gates rendering of state-dependent markup.
//
// Server rendering never sees durable client state, so anything derived from
// it (the signed-in user menu, for example) would render differently on the
// first client pass. A Gate renders a fallback until two things hold: the
// client environment is attached and the session source is hydrated. From
// then on it always renders the children.
//
//	gate := hydration.New(store, hydration.WithMaxWait(5*time.Second))
//	page := gate.Render(userMenu(), skeleton())
//	r.Get("/attach", gate.AttachHandler(userMenu()).ServeHTTP)
//
// The attach handler streams the opened content back as a datastar element
// patch targeting the wrapper id, so the page swaps the fallback in place.
package hydration
