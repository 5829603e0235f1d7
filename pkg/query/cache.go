package query

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/dmitrymomot/contestkit/pkg/async"
	"github.com/dmitrymomot/contestkit/pkg/broadcast"
	"github.com/dmitrymomot/contestkit/pkg/cache"
	"github.com/dmitrymomot/contestkit/pkg/logger"
)

// Loader produces the value for one key.
type Loader[V any] func(ctx context.Context) (V, error)

type loadFunc func(ctx context.Context) (any, error)

type entry struct {
	key         Key
	status      Status
	value       any
	hasValue    bool
	err         error
	fetchedAt   time.Time
	invalidated bool
	generation  uint64
	inflight    *async.Future[Snapshot]
	detached    bool // evicted or removed from the table
	removed     bool // removed while in flight; new callers join, the result is not stored
}

// Cache is a keyed table of fetch results with per-key request deduplication.
// All methods are safe for concurrent use. Loaders never run under the lock.
type Cache struct {
	mu         sync.Mutex
	entries    *cache.LRU[Key, *entry]
	topics     map[Key]*broadcast.MemoryBroadcaster[Snapshot]
	closed     bool
	log        *slog.Logger
	now        func() time.Time
	maxEntries int
	staleTime  time.Duration
	bufferSize int
}

// NewCache creates an empty cache configured from DefaultConfig and opts.
func NewCache(opts ...Option) *Cache {
	cfg := DefaultConfig()
	c := &Cache{
		topics:     make(map[Key]*broadcast.MemoryBroadcaster[Snapshot]),
		log:        slog.Default(),
		now:        time.Now,
		maxEntries: cfg.MaxEntries,
		staleTime:  cfg.StaleTime,
		bufferSize: cfg.SubscriberBuffer,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.log = c.log.With(logger.Component("query"))

	c.entries = cache.NewLRU[Key, *entry](c.maxEntries,
		// Pinned and evict callbacks run inside LRU calls, which only happen under c.mu.
		cache.WithPinned[Key, *entry](func(e *entry) bool { return e.inflight != nil }),
		cache.WithEvictCallback[Key, *entry](func(k Key, e *entry) {
			e.detached = true
			c.log.Debug("entry evicted", logger.CacheKey(k))
			c.notifyLocked(k, Snapshot{Key: k})
		}),
	)
	return c
}

// Fetch returns the entry for key, loading it when it is missing, stale or
// invalidated. Concurrent callers for one key share a single loader call.
// If ctx ends first, Fetch returns the current state with ctx's error; the
// load itself keeps running for the other waiters.
func Fetch[V any](ctx context.Context, c *Cache, key Key, loader Loader[V], opts ...FetchOption) Result[V] {
	f, snap := c.start(ctx, key, erase(loader), opts)
	if f == nil {
		return resultOf[V](snap)
	}

	settled, err := f.Await(ctx)
	if err != nil {
		r := Peek[V](c, key)
		r.Err = err
		return r
	}
	return resultOf[V](settled)
}

// Prefetch starts a load like Fetch but does not wait for it.
func Prefetch[V any](ctx context.Context, c *Cache, key Key, loader Loader[V], opts ...FetchOption) {
	c.start(ctx, key, erase(loader), opts)
}

// Peek returns the current entry state without loading or touching recency.
func Peek[V any](c *Cache, key Key) Result[V] {
	return resultOf[V](c.Snapshot(key))
}

// Snapshot returns the untyped state of key; Idle when there is no entry.
func (c *Cache) Snapshot(key Key) Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	if e, ok := c.entries.Peek(key); ok {
		return e.snapshot()
	}
	return Snapshot{Key: key}
}

// Invalidate marks key stale so the next fetch reloads it.
// The cached value stays readable. It reports whether the entry existed.
func (c *Cache) Invalidate(key Key) bool {
	return c.InvalidateFunc(func(k Key) bool { return k == key }) > 0
}

// InvalidateResource invalidates every entry of the named resource.
func (c *Cache) InvalidateResource(resource string) int {
	return c.InvalidateFunc(func(k Key) bool { return k.resource == resource })
}

// InvalidateFunc invalidates every entry whose key matches pred.
func (c *Cache) InvalidateFunc(pred func(Key) bool) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	n := 0
	c.entries.Range(func(k Key, e *entry) bool {
		if e.removed || !pred(k) {
			return true
		}
		e.invalidated = true
		e.generation++
		n++
		c.notifyLocked(k, e.snapshot())
		return true
	})
	return n
}

// Remove drops the entry for key and its data. An entry with a load in
// flight stays Loading until the load settles and is dropped then; later
// callers join that load, whose result reaches its waiters but is not stored.
func (c *Cache) Remove(key Key) bool {
	return c.RemoveFunc(func(k Key) bool { return k == key }) > 0
}

// RemoveFunc drops every entry whose key matches pred.
func (c *Cache) RemoveFunc(pred func(Key) bool) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	n := 0
	c.entries.Range(func(k Key, e *entry) bool {
		if e.removed || !pred(k) {
			return true
		}
		n++
		if e.inflight != nil {
			e.removed = true
			e.value, e.hasValue, e.err = nil, false, nil
			e.fetchedAt, e.invalidated = time.Time{}, false
			c.notifyLocked(k, e.snapshot())
			return true
		}
		c.entries.Remove(k)
		e.detached = true
		c.notifyLocked(k, Snapshot{Key: k})
		return true
	})
	return n
}

// Len returns the number of entries.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.entries.Len()
}

// Close closes all subscriptions. Later fetches fail with ErrCacheClosed.
// In-flight loads finish and resolve their waiters.
func (c *Cache) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	topics := c.topics
	c.topics = make(map[Key]*broadcast.MemoryBroadcaster[Snapshot])
	c.mu.Unlock()

	for _, t := range topics {
		_ = t.Close()
	}
	return nil
}

func (c *Cache) start(ctx context.Context, key Key, load loadFunc, opts []FetchOption) (*async.Future[Snapshot], Snapshot) {
	o := fetchOptions{enabled: true, staleTime: c.staleTime}
	for _, opt := range opts {
		opt(&o)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil, Snapshot{Key: key, Err: ErrCacheClosed}
	}

	e, ok := c.entries.Get(key)
	if !o.enabled {
		if ok {
			return nil, e.snapshot()
		}
		return nil, Snapshot{Key: key}
	}

	if ok && e.inflight != nil {
		return e.inflight, Snapshot{}
	}
	if ok && e.fresh(c.now(), o.staleTime) {
		return nil, e.snapshot()
	}
	if !ok {
		e = &entry{key: key}
	}

	c.transitionLocked(e, StatusLoading)
	gen := e.generation
	started := c.now()

	// The loader keeps ctx values but not its cancellation: other callers may share it.
	e.inflight = async.Go(context.WithoutCancel(ctx), func(lctx context.Context) (Snapshot, error) {
		v, err := runLoader(lctx, load)
		return c.settle(e, gen, started, v, err), nil
	})
	if !ok {
		// Inserted only once in flight, so the capacity trim cannot evict it.
		c.entries.Put(key, e)
	}
	c.notifyLocked(key, e.snapshot())

	return e.inflight, Snapshot{}
}

func (c *Cache) settle(e *entry, gen uint64, started time.Time, v any, err error) Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	e.inflight = nil
	if e.removed {
		if cur, ok := c.entries.Peek(e.key); ok && cur == e {
			c.entries.Remove(e.key)
			c.notifyLocked(e.key, Snapshot{Key: e.key})
		}
		e.detached = true
	}
	if e.detached {
		s := e.snapshot()
		if err != nil {
			s.Status, s.Err = StatusError, err
		} else {
			s.Status, s.Value, s.HasValue, s.Err = StatusSuccess, v, true, nil
			s.FetchedAt = c.now()
		}
		s.Invalidated = false
		return s
	}

	if err != nil {
		c.transitionLocked(e, StatusError)
		e.err = err
		c.log.Warn("load failed",
			logger.CacheKey(e.key),
			logger.Duration(c.now().Sub(started)),
			logger.Error(err),
		)
	} else {
		c.transitionLocked(e, StatusSuccess)
		e.value, e.hasValue, e.err = v, true, nil
		e.fetchedAt = c.now()
		c.log.Debug("load succeeded",
			logger.CacheKey(e.key),
			logger.Duration(e.fetchedAt.Sub(started)),
		)
	}
	// An Invalidate issued during the load still applies to its result.
	e.invalidated = e.generation != gen

	s := e.snapshot()
	c.notifyLocked(e.key, s)
	c.entries.Trim()
	return s
}

// Must be called with c.mu held.
func (c *Cache) transitionLocked(e *entry, to Status) {
	if !canTransition(e.status, to) {
		c.log.Error("invalid status transition",
			logger.CacheKey(e.key),
			slog.String("from", e.status.String()),
			slog.String("to", to.String()),
		)
	}
	e.status = to
}

// Must be called with c.mu held. Broadcasts never block.
func (c *Cache) notifyLocked(key Key, s Snapshot) {
	t, ok := c.topics[key]
	if !ok {
		return
	}
	if t.Len() == 0 {
		delete(c.topics, key)
		_ = t.Close()
		return
	}
	_ = t.Broadcast(context.Background(), broadcast.Message[Snapshot]{Data: s})
}

func (e *entry) fresh(now time.Time, staleTime time.Duration) bool {
	if e.status != StatusSuccess || e.invalidated {
		return false
	}
	return staleTime <= 0 || now.Sub(e.fetchedAt) <= staleTime
}

func (e *entry) snapshot() Snapshot {
	return Snapshot{
		Key:         e.key,
		Value:       e.value,
		HasValue:    e.hasValue,
		Status:      e.status,
		Err:         e.err,
		FetchedAt:   e.fetchedAt,
		Invalidated: e.invalidated,
	}
}

func runLoader(ctx context.Context, load loadFunc) (v any, err error) {
	defer func() {
		if r := recover(); r != nil {
			v, err = nil, fmt.Errorf("%w: %v", ErrLoaderPanic, r)
		}
	}()
	return load(ctx)
}

func erase[V any](l Loader[V]) loadFunc {
	return func(ctx context.Context) (any, error) {
		return l(ctx)
	}
}
