package query_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/contestkit/pkg/query"
)

var errBoom = errors.New("boom")

// countingLoader returns value and counts calls.
func countingLoader[V any](calls *atomic.Int32, value V) query.Loader[V] {
	return func(context.Context) (V, error) {
		calls.Add(1)
		return value, nil
	}
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func TestFetch_Deduplication(t *testing.T) {
	t.Parallel()

	c := query.NewCache()
	key := query.MustKey("achievements", map[string]string{"userId": "user-42"})

	var calls atomic.Int32
	release := make(chan struct{})
	loader := func(context.Context) ([]string, error) {
		calls.Add(1)
		<-release
		return []string{"first-place"}, nil
	}

	const callers = 20
	results := make([]query.Result[[]string], callers)
	var wg sync.WaitGroup
	for i := range callers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i] = query.Fetch(context.Background(), c, key, loader)
		}()
	}

	require.Eventually(t, func() bool { return calls.Load() == 1 }, time.Second, time.Millisecond)
	assert.Equal(t, query.StatusLoading, query.Peek[[]string](c, key).Status)
	close(release)
	wg.Wait()

	assert.Equal(t, int32(1), calls.Load())
	for _, r := range results {
		assert.Equal(t, query.StatusSuccess, r.Status)
		assert.Equal(t, []string{"first-place"}, r.Value)
		assert.NoError(t, r.Err)
	}
	assert.Equal(t, 1, c.Len())
}

func TestFetch_SharedFailure(t *testing.T) {
	t.Parallel()

	c := query.NewCache()
	key := query.MustKey("contest", map[string]int{"id": 7})

	var calls atomic.Int32
	release := make(chan struct{})
	loader := func(context.Context) (string, error) {
		calls.Add(1)
		<-release
		return "", errBoom
	}

	var wg sync.WaitGroup
	errs := make([]error, 5)
	for i := range errs {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs[i] = query.Fetch(context.Background(), c, key, loader).Err
		}()
	}
	require.Eventually(t, func() bool { return calls.Load() == 1 }, time.Second, time.Millisecond)
	close(release)
	wg.Wait()

	for _, err := range errs {
		assert.ErrorIs(t, err, errBoom)
	}
}

func TestFetch_Enabled(t *testing.T) {
	t.Parallel()

	c := query.NewCache()
	key := query.MustKey("profile", nil)
	var calls atomic.Int32

	r := query.Fetch(context.Background(), c, key, countingLoader(&calls, "me"), query.Enabled(false))
	assert.Equal(t, query.StatusIdle, r.Status)
	assert.NoError(t, r.Err)
	assert.Equal(t, int32(0), calls.Load())
	assert.Equal(t, 0, c.Len())

	r = query.Fetch(context.Background(), c, key, countingLoader(&calls, "me"), query.Enabled(true))
	assert.Equal(t, query.StatusSuccess, r.Status)
	assert.Equal(t, int32(1), calls.Load())

	r = query.Fetch(context.Background(), c, key, countingLoader(&calls, "me"), query.Enabled(false))
	assert.Equal(t, query.StatusSuccess, r.Status, "disabled fetch reports the current entry")
	assert.Equal(t, "me", r.Value)
	assert.Equal(t, int32(1), calls.Load())
}

func TestFetch_FailureRetainsValue(t *testing.T) {
	t.Parallel()

	c := query.NewCache()
	key := query.MustKey("contests", map[string]int{"page": 1})

	r := query.Fetch(context.Background(), c, key, func(context.Context) (string, error) { return "v1", nil })
	require.Equal(t, query.StatusSuccess, r.Status)
	fetchedAt := r.FetchedAt

	require.True(t, c.Invalidate(key))
	r = query.Fetch(context.Background(), c, key, func(context.Context) (string, error) { return "", errBoom })

	assert.Equal(t, query.StatusError, r.Status)
	assert.ErrorIs(t, r.Err, errBoom)
	assert.True(t, r.HasValue)
	assert.Equal(t, "v1", r.Value)
	assert.Equal(t, fetchedAt, r.FetchedAt)

	r = query.Fetch(context.Background(), c, key, func(context.Context) (string, error) { return "v2", nil })
	assert.Equal(t, query.StatusSuccess, r.Status)
	assert.NoError(t, r.Err)
	assert.Equal(t, "v2", r.Value)
}

func TestFetch_StaleTime(t *testing.T) {
	t.Parallel()

	clock := &fakeClock{now: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)}
	c := query.NewCache(query.WithClock(clock.Now))
	key := query.MustKey("contests", nil)
	var calls atomic.Int32

	query.Fetch(context.Background(), c, key, countingLoader(&calls, 1), query.StaleTime(time.Minute))
	clock.Advance(30 * time.Second)
	query.Fetch(context.Background(), c, key, countingLoader(&calls, 1), query.StaleTime(time.Minute))
	assert.Equal(t, int32(1), calls.Load())

	clock.Advance(2 * time.Minute)
	query.Fetch(context.Background(), c, key, countingLoader(&calls, 1), query.StaleTime(time.Minute))
	assert.Equal(t, int32(2), calls.Load())

	// Without a stale time the entry stays fresh until invalidated.
	clock.Advance(24 * time.Hour)
	query.Fetch(context.Background(), c, key, countingLoader(&calls, 1))
	assert.Equal(t, int32(2), calls.Load())
}

func TestFetch_CacheDefaultStaleTime(t *testing.T) {
	t.Parallel()

	clock := &fakeClock{now: time.Now()}
	c := query.NewCache(query.WithClock(clock.Now), query.WithStaleTime(time.Second))
	key := query.MustKey("contests", nil)
	var calls atomic.Int32

	query.Fetch(context.Background(), c, key, countingLoader(&calls, 1))
	clock.Advance(2 * time.Second)
	query.Fetch(context.Background(), c, key, countingLoader(&calls, 1))
	assert.Equal(t, int32(2), calls.Load())
}

func TestCache_Invalidate(t *testing.T) {
	t.Parallel()

	c := query.NewCache()
	var calls atomic.Int32
	k1 := query.MustKey("submissions", map[string]int{"contestId": 1})
	k2 := query.MustKey("submissions", map[string]int{"contestId": 2})
	other := query.MustKey("profile", nil)

	for _, k := range []query.Key{k1, k2, other} {
		query.Fetch(context.Background(), c, k, countingLoader(&calls, "v"))
	}
	require.Equal(t, int32(3), calls.Load())

	assert.Equal(t, 2, c.InvalidateResource("submissions"))
	r := query.Peek[string](c, k1)
	assert.True(t, r.Invalidated)
	assert.Equal(t, "v", r.Value, "invalidated entries stay readable")
	assert.False(t, query.Peek[string](c, other).Invalidated)

	query.Fetch(context.Background(), c, k1, countingLoader(&calls, "v"))
	query.Fetch(context.Background(), c, other, countingLoader(&calls, "v"))
	assert.Equal(t, int32(4), calls.Load())
	assert.False(t, query.Peek[string](c, k1).Invalidated)

	assert.False(t, c.Invalidate(query.MustKey("missing", nil)))
}

func TestCache_InvalidateDuringLoad(t *testing.T) {
	t.Parallel()

	c := query.NewCache()
	key := query.MustKey("contest", map[string]int{"id": 1})
	started := make(chan struct{})
	release := make(chan struct{})

	done := make(chan query.Result[string], 1)
	go func() {
		done <- query.Fetch(context.Background(), c, key, func(context.Context) (string, error) {
			close(started)
			<-release
			return "old", nil
		})
	}()

	<-started
	c.Invalidate(key)
	close(release)

	r := <-done
	assert.Equal(t, query.StatusSuccess, r.Status)
	assert.True(t, r.Invalidated, "result loaded before the invalidation is still stale")

	var calls atomic.Int32
	query.Fetch(context.Background(), c, key, countingLoader(&calls, "new"))
	assert.Equal(t, int32(1), calls.Load())
}

func TestCache_Remove(t *testing.T) {
	t.Parallel()

	c := query.NewCache()
	var calls atomic.Int32
	keys := []query.Key{
		query.MustKey("contest", map[string]int{"id": 1}),
		query.MustKey("contest", map[string]int{"id": 2}),
		query.MustKey("profile", nil),
	}
	for _, k := range keys {
		query.Fetch(context.Background(), c, k, countingLoader(&calls, 1))
	}

	assert.True(t, c.Remove(keys[2]))
	assert.False(t, c.Remove(keys[2]))
	assert.Equal(t, query.StatusIdle, query.Peek[int](c, keys[2]).Status)
	assert.Equal(t, 2, c.Len())

	n := c.RemoveFunc(func(k query.Key) bool { return k.Resource() == "contest" })
	assert.Equal(t, 2, n)
	assert.Equal(t, 0, c.Len())
}

func TestCache_RemoveDuringLoad(t *testing.T) {
	t.Parallel()

	c := query.NewCache()
	key := query.MustKey("profile", nil)
	started := make(chan struct{})
	release := make(chan struct{})

	done := make(chan query.Result[string], 1)
	go func() {
		done <- query.Fetch(context.Background(), c, key, func(context.Context) (string, error) {
			close(started)
			<-release
			return "me", nil
		})
	}()

	<-started
	require.True(t, c.Remove(key))
	close(release)

	r := <-done
	assert.Equal(t, "me", r.Value, "waiters still get the result")
	assert.Equal(t, 0, c.Len(), "detached result is not stored")
}

func TestCache_RemoveDuringLoadJoinsPendingLoad(t *testing.T) {
	t.Parallel()

	c := query.NewCache()
	key := query.MustKey("profile", nil)

	var calls atomic.Int32
	started := make(chan struct{}, 2)
	release := make(chan struct{})
	loader := func(context.Context) (string, error) {
		calls.Add(1)
		started <- struct{}{}
		<-release
		return "me", nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	query.Prefetch(context.Background(), c, key, loader)
	<-started
	results := query.SubscribeResult[string](ctx, c, key)
	require.Equal(t, query.StatusLoading, (<-results).Status)
	require.True(t, c.Remove(key))

	r := query.Peek[string](c, key)
	assert.Equal(t, query.StatusLoading, r.Status)
	assert.False(t, r.HasValue)
	assert.False(t, c.Remove(key), "already removed")

	done := make(chan query.Result[string], 1)
	go func() { done <- query.Fetch(context.Background(), c, key, loader) }()

	require.Never(t, func() bool { return calls.Load() > 1 }, 50*time.Millisecond, 5*time.Millisecond)
	close(release)

	r = <-done
	assert.Equal(t, "me", r.Value)
	assert.Equal(t, int32(1), calls.Load())
	assert.Equal(t, 0, c.Len(), "result of a removed entry is not stored")
	assert.Equal(t, query.StatusIdle, query.Peek[string](c, key).Status)
	require.Eventually(t, func() bool {
		select {
		case r := <-results:
			return r.IsIdle() && !r.HasValue
		default:
			return false
		}
	}, time.Second, time.Millisecond, "subscribers see the entry dropped")

	query.Fetch(context.Background(), c, key, func(context.Context) (string, error) { return "again", nil })
	assert.Equal(t, "again", query.Peek[string](c, key).Value)
}

func TestCache_MaxEntriesWithPinnedLoads(t *testing.T) {
	t.Parallel()

	c := query.NewCache(query.WithMaxEntries(1))
	blocked := query.MustKey("contest", map[string]int{"id": 1})
	key := query.MustKey("contest", map[string]int{"id": 2})

	releaseBlocked := make(chan struct{})
	defer close(releaseBlocked)
	blockedStarted := make(chan struct{})
	query.Prefetch(context.Background(), c, blocked, func(context.Context) (int, error) {
		close(blockedStarted)
		<-releaseBlocked
		return 1, nil
	})
	<-blockedStarted

	var calls atomic.Int32
	release := make(chan struct{})
	loader := func(context.Context) (int, error) {
		calls.Add(1)
		<-release
		return 2, nil
	}

	const callers = 3
	var wg sync.WaitGroup
	results := make([]query.Result[int], callers)
	for i := range callers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i] = query.Fetch(context.Background(), c, key, loader)
		}()
		require.Eventually(t, func() bool {
			return query.Peek[int](c, key).Status == query.StatusLoading
		}, time.Second, time.Millisecond)
	}

	close(release)
	wg.Wait()

	assert.Equal(t, int32(1), calls.Load())
	for _, r := range results {
		assert.Equal(t, 2, r.Value)
	}
}

func TestCache_MaxEntries(t *testing.T) {
	t.Parallel()

	c := query.NewCache(query.WithMaxEntries(2))
	var calls atomic.Int32
	k1 := query.MustKey("contest", map[string]int{"id": 1})
	k2 := query.MustKey("contest", map[string]int{"id": 2})
	k3 := query.MustKey("contest", map[string]int{"id": 3})

	query.Fetch(context.Background(), c, k1, countingLoader(&calls, 1))
	query.Fetch(context.Background(), c, k2, countingLoader(&calls, 2))
	query.Fetch(context.Background(), c, k1, countingLoader(&calls, 1)) // touch k1
	query.Fetch(context.Background(), c, k3, countingLoader(&calls, 3))

	assert.Equal(t, 2, c.Len())
	assert.Equal(t, query.StatusIdle, query.Peek[int](c, k2).Status)
	assert.Equal(t, query.StatusSuccess, query.Peek[int](c, k1).Status)
	assert.Equal(t, int32(3), calls.Load())
}

func TestFetch_LoaderPanic(t *testing.T) {
	t.Parallel()

	c := query.NewCache()
	key := query.MustKey("contest", map[string]int{"id": 9})

	r := query.Fetch(context.Background(), c, key, func(context.Context) (int, error) {
		panic("nil map")
	})
	assert.Equal(t, query.StatusError, r.Status)
	assert.ErrorIs(t, r.Err, query.ErrLoaderPanic)

	r = query.Fetch(context.Background(), c, key, func(context.Context) (int, error) { return 9, nil })
	assert.Equal(t, query.StatusSuccess, r.Status)
	assert.Equal(t, 9, r.Value)
}

func TestFetch_CallerCancellation(t *testing.T) {
	t.Parallel()

	c := query.NewCache()
	key := query.MustKey("achievements", map[string]string{"userId": "u"})

	started := make(chan struct{})
	release := make(chan struct{})
	var loaderCtxLive atomic.Value
	loader := func(ctx context.Context) (string, error) {
		close(started)
		<-release
		loaderCtxLive.Store(ctx.Err() == nil)
		return "done", nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	first := make(chan query.Result[string], 1)
	go func() { first <- query.Fetch(ctx, c, key, loader) }()
	<-started

	second := make(chan query.Result[string], 1)
	go func() { second <- query.Fetch(context.Background(), c, key, loader) }()

	cancel()
	r := <-first
	assert.ErrorIs(t, r.Err, context.Canceled)
	assert.Equal(t, query.StatusLoading, r.Status)

	close(release)
	r = <-second
	assert.Equal(t, "done", r.Value)
	assert.Equal(t, true, loaderCtxLive.Load(), "loader context must not inherit cancellation")
}

func TestPeek_TypeMismatch(t *testing.T) {
	t.Parallel()

	c := query.NewCache()
	key := query.MustKey("profile", nil)
	query.Fetch(context.Background(), c, key, func(context.Context) (string, error) { return "me", nil })

	r := query.Peek[int](c, key)
	assert.ErrorIs(t, r.Err, query.ErrTypeMismatch)
	assert.False(t, r.HasValue)
}

func TestCache_Close(t *testing.T) {
	t.Parallel()

	c := query.NewCache()
	key := query.MustKey("profile", nil)
	sub := query.Subscribe(context.Background(), c, key)

	require.NoError(t, c.Close())
	require.NoError(t, c.Close())

	var calls atomic.Int32
	r := query.Fetch(context.Background(), c, key, countingLoader(&calls, "me"))
	assert.ErrorIs(t, r.Err, query.ErrCacheClosed)
	assert.Equal(t, int32(0), calls.Load())

	assert.Eventually(t, func() bool {
		for {
			select {
			case _, ok := <-sub.Receive(context.Background()):
				if !ok {
					return true
				}
			default:
				return false
			}
		}
	}, time.Second, 5*time.Millisecond)
}
