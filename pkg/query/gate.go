package query

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/dmitrymomot/contestkit/pkg/broadcast"
	"github.com/dmitrymomot/contestkit/pkg/logger"
)

// Request is what a Gate fetches: a key and the loader producing its value.
type Request[V any] struct {
	Key    Key
	Loader Loader[V]
}

// Resolver builds the current Request. It returns false while the key is
// undefined, for example when the identifier it depends on is empty.
type Resolver[V any] func() (Request[V], bool)

// TokenSource exposes the session token to gates that require authentication.
type TokenSource interface {
	Token() (string, bool)
}

type condition struct {
	name string
	fn   func() bool
}

// GateOption configures a Gate.
type GateOption func(*gateOptions)

type gateOptions struct {
	conditions []condition
	watch      []Watchable
	enabled    bool
	staleTime  *time.Duration
	log        *slog.Logger
}

// WithCondition adds a named precondition. All conditions must hold.
func WithCondition(name string, fn func() bool) GateOption {
	return func(o *gateOptions) {
		o.conditions = append(o.conditions, condition{name: name, fn: fn})
	}
}

// WithEnabled sets the initial explicit flag. Default true.
func WithEnabled(enabled bool) GateOption {
	return func(o *gateOptions) { o.enabled = enabled }
}

// WithGateStaleTime overrides the cache freshness window for this gate.
func WithGateStaleTime(d time.Duration) GateOption {
	return func(o *gateOptions) { o.staleTime = &d }
}

// WithWatch registers sources whose changes trigger Recompute while Start runs.
func WithWatch(sources ...Watchable) GateOption {
	return func(o *gateOptions) {
		for _, s := range sources {
			if s != nil {
				o.watch = append(o.watch, s)
			}
		}
	}
}

// WithTokenRequired enables the gate only while ts holds a token.
// If ts is also Watchable it is watched as well.
func WithTokenRequired(ts TokenSource) GateOption {
	return func(o *gateOptions) {
		o.conditions = append(o.conditions, condition{name: "token", fn: func() bool {
			_, ok := ts.Token()
			return ok
		}})
		if w, ok := ts.(Watchable); ok {
			o.watch = append(o.watch, w)
		}
	}
}

// WithGateLogger sets the gate logger; by default the cache logger is used.
func WithGateLogger(log *slog.Logger) GateOption {
	return func(o *gateOptions) {
		if log != nil {
			o.log = log
		}
	}
}

// Gate fetches a resource only while its preconditions hold:
// enabled = explicit flag AND every condition AND key defined.
// A false-to-true transition or a key change starts a fetch unless the
// entry is fresh; an undefined key reports Idle without error.
type Gate[V any] struct {
	cache     *Cache
	resolve   Resolver[V]
	opts      gateOptions
	fetchOpts []FetchOption
	log       *slog.Logger

	mu       sync.Mutex
	explicit bool
	enabled  bool
	req      Request[V]
	hasKey   bool

	results *broadcast.MemoryBroadcaster[Result[V]]
	rebind  chan struct{}
}

// NewGate creates a gate and evaluates its preconditions once. It does not
// fetch; call Fetch, Recompute or Start for that.
func NewGate[V any](c *Cache, resolve Resolver[V], opts ...GateOption) *Gate[V] {
	o := gateOptions{enabled: true, log: c.log}
	for _, opt := range opts {
		opt(&o)
	}

	g := &Gate[V]{
		cache:    c,
		resolve:  resolve,
		opts:     o,
		log:      o.log,
		explicit: o.enabled,
		results:  broadcast.NewMemoryBroadcaster[Result[V]](c.bufferSize),
		rebind:   make(chan struct{}, 1),
	}
	if o.staleTime != nil {
		g.fetchOpts = append(g.fetchOpts, StaleTime(*o.staleTime))
	}

	g.evaluate()
	g.publish(g.Result())
	return g
}

// Enabled reports the last computed enabled state.
func (g *Gate[V]) Enabled() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.enabled
}

// Key returns the current key, if defined.
func (g *Gate[V]) Key() (Key, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.req.Key, g.hasKey
}

// SetEnabled changes the explicit flag and recomputes.
func (g *Gate[V]) SetEnabled(enabled bool) {
	g.mu.Lock()
	g.explicit = enabled
	g.mu.Unlock()
	g.Recompute()
}

// Recompute re-evaluates the preconditions. It is called automatically for
// watched sources while Start runs; call it directly after other changes.
func (g *Gate[V]) Recompute() {
	changed, trigger := g.evaluate()
	if !changed {
		return
	}

	if trigger {
		g.prefetch()
	}
	select {
	case g.rebind <- struct{}{}:
	default:
	}
	g.publish(g.Result())
}

// Result returns the gate's current view. With an undefined key it is Idle;
// while disabled it is the entry's current state.
func (g *Gate[V]) Result() Result[V] {
	key, ok := g.Key()
	if !ok {
		return idleResult[V](Key{})
	}
	return Peek[V](g.cache, key)
}

// Fetch recomputes, then loads through the cache if enabled.
func (g *Gate[V]) Fetch(ctx context.Context) Result[V] {
	g.Recompute()

	g.mu.Lock()
	enabled, req, hasKey := g.enabled, g.req, g.hasKey
	g.mu.Unlock()

	if !hasKey {
		return idleResult[V](Key{})
	}
	if !enabled {
		return Peek[V](g.cache, req.Key)
	}
	return Fetch(ctx, g.cache, req.Key, req.Loader, g.fetchOpts...)
}

// Subscribe observes the gate's results, following key changes.
// Results are only republished while Start runs.
func (g *Gate[V]) Subscribe(ctx context.Context) broadcast.Subscriber[Result[V]] {
	return g.results.Subscribe(ctx)
}

// Start watches the registered sources and the current entry until ctx is
// done. It blocks; run it on its own goroutine.
func (g *Gate[V]) Start(ctx context.Context) {
	signals := make(chan struct{}, 1)
	var wg sync.WaitGroup
	for _, w := range g.opts.watch {
		ch := w.Changes(ctx)
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range ch {
				select {
				case signals <- struct{}{}:
				default:
				}
			}
		}()
	}
	defer wg.Wait()

	g.Recompute()
	g.prefetch()

	var (
		sub    broadcast.Subscriber[Snapshot]
		cancel context.CancelFunc = func() {}
		bound  Key
	)
	defer func() { cancel() }()

	bind := func() {
		key, ok := g.Key()
		if ok && sub != nil && key == bound {
			return
		}
		cancel()
		sub, bound = nil, Key{}
		if !ok {
			g.publish(idleResult[V](Key{}))
			return
		}
		var subCtx context.Context
		subCtx, cancel = context.WithCancel(ctx)
		sub, bound = Subscribe(subCtx, g.cache, key), key
	}
	bind()

	for {
		var entries <-chan broadcast.Message[Snapshot]
		if sub != nil {
			entries = sub.Receive(ctx)
		}

		select {
		case <-ctx.Done():
			return
		case <-signals:
			g.Recompute()
			bind()
		case <-g.rebind:
			bind()
		case msg, ok := <-entries:
			if !ok {
				sub = nil
				continue
			}
			g.observe(msg.Data)
		}
	}
}

// Close ends all result subscriptions.
func (g *Gate[V]) Close() error {
	return g.results.Close()
}

func (g *Gate[V]) observe(s Snapshot) {
	g.mu.Lock()
	current := g.hasKey && g.req.Key == s.Key
	enabled := g.enabled
	g.mu.Unlock()

	if !current {
		return
	}
	g.publish(resultOf[V](s))

	if !enabled {
		return
	}
	if s.Status == StatusIdle || (s.Invalidated && s.Status != StatusLoading) {
		g.prefetch()
	}
}

func (g *Gate[V]) prefetch() {
	g.mu.Lock()
	req, ok := g.req, g.hasKey && g.enabled
	g.mu.Unlock()

	if ok {
		Prefetch(context.Background(), g.cache, req.Key, req.Loader, g.fetchOpts...)
	}
}

func (g *Gate[V]) publish(r Result[V]) {
	_ = g.results.Broadcast(context.Background(), broadcast.Message[Result[V]]{Data: r})
}

// evaluate recomputes enabled and the key. It reports whether either changed
// and whether a fetch should start.
func (g *Gate[V]) evaluate() (changed, trigger bool) {
	req, hasKey := g.resolve()

	var failed []string
	for _, c := range g.opts.conditions {
		if !c.fn() {
			failed = append(failed, c.name)
		}
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	enabled := g.explicit && hasKey && len(failed) == 0
	keyChanged := hasKey != g.hasKey || (hasKey && req.Key != g.req.Key)

	trigger = enabled && (!g.enabled || keyChanged)
	changed = keyChanged || enabled != g.enabled

	if changed {
		g.log.Debug("gate recomputed",
			slog.Bool("enabled", enabled),
			logger.CacheKey(req.Key),
			slog.Any("unmet", failed),
		)
	}

	g.enabled, g.hasKey = enabled, hasKey
	if hasKey {
		g.req = req
	} else {
		g.req = Request[V]{}
	}
	return changed, trigger
}
