package session

import "context"

type (
	storeContextKey   struct{}
	runtimeContextKey struct{}
)

// Runtime tells the initializer where it runs.
type Runtime uint8

const (
	// RuntimeClient is the default: durable storage is available.
	RuntimeClient Runtime = iota
	// RuntimeServer marks server-side rendering, where storage must not be touched.
	RuntimeServer
)

func (r Runtime) String() string {
	if r == RuntimeServer {
		return "server"
	}
	return "client"
}

// WithStore adds a store to the context
func WithStore(ctx context.Context, s *Store) context.Context {
	return context.WithValue(ctx, storeContextKey{}, s)
}

// FromContext retrieves a store from the context
func FromContext(ctx context.Context) (*Store, bool) {
	s, ok := ctx.Value(storeContextKey{}).(*Store)
	return s, ok
}

// MustFromContext retrieves a store from the context or panics
func MustFromContext(ctx context.Context) *Store {
	s, ok := FromContext(ctx)
	if !ok {
		panic("session: store not found in context")
	}
	return s
}

// WithRuntime marks the context as running on the server or the client
func WithRuntime(ctx context.Context, r Runtime) context.Context {
	return context.WithValue(ctx, runtimeContextKey{}, r)
}

// RuntimeFromContext returns the runtime, RuntimeClient when unset
func RuntimeFromContext(ctx context.Context) Runtime {
	r, _ := ctx.Value(runtimeContextKey{}).(Runtime)
	return r
}
