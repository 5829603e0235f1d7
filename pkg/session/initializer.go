package session

import (
	"context"
	"log/slog"
	"sync"

	"github.com/dmitrymomot/contestkit/pkg/async"
	"github.com/dmitrymomot/contestkit/pkg/logger"
)

// Initializer triggers Restore once per mounted lifetime.
type Initializer struct {
	store *Store
	log   *slog.Logger

	mu      sync.Mutex
	mounted bool
	future  *async.Future[State]
}

// InitializerOption configures an Initializer.
type InitializerOption func(*Initializer)

// WithInitializerLogger sets the logger; by default the store's logger is used.
func WithInitializerLogger(log *slog.Logger) InitializerOption {
	return func(i *Initializer) {
		if log != nil {
			i.log = log
		}
	}
}

// NewInitializer creates an unmounted Initializer for store.
func NewInitializer(store *Store, opts ...InitializerOption) *Initializer {
	i := &Initializer{store: store, log: store.log}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// Mount starts the restore without blocking and returns its future.
// Mounting again before Unmount returns the same future. On the server
// (RuntimeServer in ctx) storage is not touched and the current state is
// returned as a completed future. Cancelling ctx does not stop the restore.
func (i *Initializer) Mount(ctx context.Context) *async.Future[State] {
	if RuntimeFromContext(ctx) == RuntimeServer {
		return async.Resolved(i.store.State(), nil)
	}

	i.mu.Lock()
	defer i.mu.Unlock()

	if i.mounted {
		return i.future
	}
	i.mounted = true
	i.future = async.Go(context.WithoutCancel(ctx), func(ctx context.Context) (State, error) {
		return i.store.Restore(ctx), nil
	})
	i.log.DebugContext(ctx, "session initializer mounted", logger.Event("mount"))
	return i.future
}

// Unmount ends the current lifetime. A later Mount starts a new one; the
// store itself ignores repeated restores.
func (i *Initializer) Unmount() {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.mounted = false
	i.future = nil
}
