package query_test

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/contestkit/pkg/query"
)

type achievement struct {
	Title string
}

type tokenSource struct {
	mu    sync.Mutex
	token string
}

func (s *tokenSource) Token() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token, s.token != ""
}

func (s *tokenSource) set(token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = token
}

func achievementsGate(c *query.Cache, userID *query.Param[string], calls *atomic.Int32, opts ...query.GateOption) *query.Gate[[]achievement] {
	return query.NewGate(c, func() (query.Request[[]achievement], bool) {
		id, ok := userID.Lookup()
		if !ok {
			return query.Request[[]achievement]{}, false
		}
		return query.Request[[]achievement]{
			Key: query.MustKey("achievements", map[string]string{"userId": id}),
			Loader: func(context.Context) ([]achievement, error) {
				calls.Add(1)
				return []achievement{{Title: "winner of " + id}}, nil
			},
		}, true
	}, opts...)
}

func TestGate_IdentifierScenario(t *testing.T) {
	t.Parallel()

	c := query.NewCache()
	userID := query.NewParam("")
	var calls atomic.Int32
	g := achievementsGate(c, userID, &calls, query.WithWatch(userID))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go g.Start(ctx)

	assert.False(t, g.Enabled())
	assert.Equal(t, query.StatusIdle, g.Result().Status)
	assert.NoError(t, g.Result().Err)

	userID.Set("user-42")
	require.Eventually(t, func() bool { return g.Result().IsSuccess() }, time.Second, 5*time.Millisecond)
	assert.True(t, g.Enabled())
	assert.Equal(t, []achievement{{Title: "winner of user-42"}}, g.Result().Value)
	assert.Equal(t, int32(1), calls.Load())

	userID.Clear()
	require.Eventually(t, func() bool { return !g.Enabled() }, time.Second, 5*time.Millisecond)
	r := g.Result()
	assert.Equal(t, query.StatusIdle, r.Status)
	assert.NoError(t, r.Err)
	assert.Equal(t, int32(1), calls.Load())
}

func TestGate_ExplicitFlag(t *testing.T) {
	t.Parallel()

	c := query.NewCache()
	userID := query.NewParam("user-1")
	var calls atomic.Int32
	g := achievementsGate(c, userID, &calls, query.WithEnabled(false))

	r := g.Fetch(context.Background())
	assert.Equal(t, query.StatusIdle, r.Status)
	assert.Equal(t, int32(0), calls.Load())

	g.SetEnabled(true)
	require.Eventually(t, func() bool { return g.Result().IsSuccess() }, time.Second, 5*time.Millisecond)

	// Enabling again over a fresh entry does not reload.
	g.Recompute()
	g.SetEnabled(true)
	r = g.Fetch(context.Background())
	assert.Equal(t, query.StatusSuccess, r.Status)
	assert.Equal(t, int32(1), calls.Load())
}

func TestGate_KeyChange(t *testing.T) {
	t.Parallel()

	c := query.NewCache()
	userID := query.NewParam("user-1")
	var calls atomic.Int32
	g := achievementsGate(c, userID, &calls)

	require.Equal(t, query.StatusSuccess, g.Fetch(context.Background()).Status)

	userID.Set("user-2")
	g.Recompute()
	require.Eventually(t, func() bool { return g.Result().IsSuccess() }, time.Second, 5*time.Millisecond)
	assert.Equal(t, "winner of user-2", g.Result().Value[0].Title)
	assert.Equal(t, int32(2), calls.Load())

	// Switching back hits the fresh entry.
	userID.Set("user-1")
	g.Recompute()
	assert.Equal(t, "winner of user-1", g.Fetch(context.Background()).Value[0].Title)
	assert.Equal(t, int32(2), calls.Load())
}

func TestGate_TokenRequired(t *testing.T) {
	t.Parallel()

	c := query.NewCache()
	ts := &tokenSource{}
	var calls atomic.Int32
	g := query.NewGate(c, func() (query.Request[string], bool) {
		return query.Request[string]{
			Key: query.MustKey("profile", nil),
			Loader: func(context.Context) (string, error) {
				calls.Add(1)
				return "me", nil
			},
		}, true
	}, query.WithTokenRequired(ts), query.WithCondition("online", func() bool { return true }))

	assert.False(t, g.Enabled())
	assert.Equal(t, query.StatusIdle, g.Fetch(context.Background()).Status)
	assert.Equal(t, int32(0), calls.Load())

	ts.set("tok-1")
	r := g.Fetch(context.Background())
	assert.True(t, g.Enabled())
	assert.Equal(t, "me", r.Value)
	assert.Equal(t, int32(1), calls.Load())

	ts.set("")
	g.Recompute()
	assert.False(t, g.Enabled())
	assert.Equal(t, "me", g.Result().Value, "disabled gate still reports the entry")
}

func TestGate_RefetchOnInvalidate(t *testing.T) {
	t.Parallel()

	c := query.NewCache()
	userID := query.NewParam("user-7")
	var calls atomic.Int32
	g := achievementsGate(c, userID, &calls, query.WithWatch(userID))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go g.Start(ctx)

	require.Eventually(t, func() bool { return calls.Load() == 1 && g.Result().IsSuccess() }, time.Second, 5*time.Millisecond)

	c.InvalidateResource("achievements")
	require.Eventually(t, func() bool { return calls.Load() == 2 }, time.Second, 5*time.Millisecond)
	require.Eventually(t, func() bool {
		r := g.Result()
		return r.IsSuccess() && !r.Invalidated
	}, time.Second, 5*time.Millisecond)
}

func TestGate_Subscribe(t *testing.T) {
	t.Parallel()

	c := query.NewCache()
	userID := query.NewParam("")
	var calls atomic.Int32
	g := achievementsGate(c, userID, &calls, query.WithWatch(userID))
	defer g.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sub := g.Subscribe(ctx)
	go g.Start(ctx)

	userID.Set("user-42")

	timeout := time.After(2 * time.Second)
	for {
		select {
		case msg := <-sub.Receive(ctx):
			if msg.Data.IsSuccess() {
				assert.Equal(t, "winner of user-42", msg.Data.Value[0].Title)
				return
			}
		case <-timeout:
			t.Fatal("gate never published a successful result")
		}
	}
}
