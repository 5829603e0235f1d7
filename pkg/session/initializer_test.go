package session_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/contestkit/pkg/session"
)

func TestInitializer_Mount(t *testing.T) {
	t.Parallel()

	t.Run("restores once per lifetime", func(t *testing.T) {
		spy := newSpy()
		require.NoError(t, spy.Storage.Write(context.Background(), ns, envelope("tok-1")))
		st := newStore(t, spy)
		initializer := session.NewInitializer(st)

		f1 := initializer.Mount(context.Background())
		f2 := initializer.Mount(context.Background())
		assert.Same(t, f1, f2)

		state, err := f1.Await(context.Background())
		require.NoError(t, err)
		assert.Equal(t, session.State{Token: "tok-1", Authenticated: true, Hydrated: true}, state)

		initializer.Unmount()
		f3 := initializer.Mount(context.Background())
		assert.NotSame(t, f1, f3)
		state, err = f3.Await(context.Background())
		require.NoError(t, err)
		assert.True(t, state.Hydrated)
		assert.Equal(t, int32(1), spy.reads.Load(), "store guard keeps later restores no-ops")
	})

	t.Run("does not block the caller", func(t *testing.T) {
		spy := newSpy()
		spy.readGate = make(chan struct{})
		st := newStore(t, spy)
		initializer := session.NewInitializer(st)

		f := initializer.Mount(context.Background())
		<-spy.readStarted
		assert.False(t, f.IsComplete())
		assert.False(t, st.IsHydrated())

		close(spy.readGate)
		select {
		case <-f.Done():
		case <-time.After(time.Second):
			t.Fatal("restore did not finish")
		}
		assert.True(t, st.IsHydrated())
	})

	t.Run("caller cancellation does not stop restore", func(t *testing.T) {
		spy := newSpy()
		spy.readGate = make(chan struct{})
		st := newStore(t, spy)
		initializer := session.NewInitializer(st)

		ctx, cancel := context.WithCancel(context.Background())
		f := initializer.Mount(ctx)
		<-spy.readStarted
		cancel()
		close(spy.readGate)

		state, err := f.Await(context.Background())
		require.NoError(t, err)
		assert.True(t, state.Hydrated)
	})

	t.Run("never runs on the server", func(t *testing.T) {
		spy := newSpy()
		st := newStore(t, spy)
		initializer := session.NewInitializer(st)

		ctx := session.WithRuntime(context.Background(), session.RuntimeServer)
		f := initializer.Mount(ctx)
		require.True(t, f.IsComplete())

		state, err := f.Await(ctx)
		require.NoError(t, err)
		assert.False(t, state.Hydrated)
		assert.Equal(t, int32(0), spy.reads.Load())
	})
}

func TestContext(t *testing.T) {
	t.Parallel()

	st := newStore(t, nil)
	ctx := session.WithStore(context.Background(), st)

	got, ok := session.FromContext(ctx)
	require.True(t, ok)
	assert.Same(t, st, got)
	assert.Same(t, st, session.MustFromContext(ctx))

	_, ok = session.FromContext(context.Background())
	assert.False(t, ok)
	assert.Panics(t, func() { session.MustFromContext(context.Background()) })

	assert.Equal(t, session.RuntimeClient, session.RuntimeFromContext(context.Background()))
	assert.Equal(t, session.RuntimeServer, session.RuntimeFromContext(session.WithRuntime(ctx, session.RuntimeServer)))
	assert.Equal(t, "server", session.RuntimeServer.String())
}
