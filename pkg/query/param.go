package query

import (
	"context"
	"sync"

	"github.com/dmitrymomot/contestkit/pkg/broadcast"
)

// Watchable reports precondition changes to a Gate.
type Watchable interface {
	// Changes signals after every change. The channel closes when ctx is done.
	Changes(ctx context.Context) <-chan struct{}
}

// Param is an observable value, typically the identifier a Gate's key depends on.
// The zero value of T means "not set".
type Param[T comparable] struct {
	mu      sync.RWMutex
	value   T
	changes *broadcast.MemoryBroadcaster[T]
}

// NewParam creates a Param holding initial.
func NewParam[T comparable](initial T) *Param[T] {
	p := &Param[T]{
		value:   initial,
		changes: broadcast.NewMemoryBroadcaster[T](1),
	}
	_ = p.changes.Broadcast(context.Background(), broadcast.Message[T]{Data: initial})
	return p
}

// Get returns the current value.
func (p *Param[T]) Get() T {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.value
}

// Lookup returns the value and whether it is set.
func (p *Param[T]) Lookup() (T, bool) {
	v := p.Get()
	var zero T
	return v, v != zero
}

// Set stores v and notifies watchers when it differs from the current value.
func (p *Param[T]) Set(v T) {
	p.mu.Lock()
	if p.value == v {
		p.mu.Unlock()
		return
	}
	p.value = v
	p.mu.Unlock()

	_ = p.changes.Broadcast(context.Background(), broadcast.Message[T]{Data: v})
}

// Clear resets the value to the zero value.
func (p *Param[T]) Clear() {
	var zero T
	p.Set(zero)
}

// Changes signals after every Set that changed the value.
func (p *Param[T]) Changes(ctx context.Context) <-chan struct{} {
	return broadcast.Signal(ctx, p.changes)
}

// Close ends all Changes channels.
func (p *Param[T]) Close() error {
	return p.changes.Close()
}
