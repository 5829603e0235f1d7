package hydration

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/a-h/templ"
	"github.com/google/uuid"
	"github.com/starfederation/datastar-go/datastar"

	"github.com/dmitrymomot/contestkit/pkg/logger"
)

// Source reports whether durable state has been read. *session.Store implements it.
type Source interface {
	IsHydrated() bool
	Hydrated() <-chan struct{}
}

// Gate withholds markup that depends on restored state until the client
// environment is attached and the source is hydrated. Once open it stays open.
type Gate struct {
	source  Source
	id      string
	maxWait time.Duration
	log     *slog.Logger

	mu         sync.Mutex
	attached   bool
	open       bool
	attachedCh chan struct{}
	openCh     chan struct{}
}

// New creates a closed gate over source with a unique wrapper id.
func New(source Source, opts ...Option) *Gate {
	g := &Gate{
		source:     source,
		id:         "hydration-" + uuid.NewString(),
		maxWait:    DefaultConfig().MaxWait,
		log:        slog.Default(),
		attachedCh: make(chan struct{}),
		openCh:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(g)
	}
	g.log = g.log.With(logger.Component("hydration"), slog.String("gate_id", g.id))
	return g
}

// ID returns the id of the wrapper element rendered by Render.
func (g *Gate) ID() string {
	return g.id
}

// Attach records that the client environment finished its first pass.
func (g *Gate) Attach() {
	g.mu.Lock()
	defer g.mu.Unlock()
	if !g.attached {
		g.attached = true
		close(g.attachedCh)
	}
}

// IsAttached reports whether Attach has been called.
func (g *Gate) IsAttached() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.attached
}

// IsOpen reports attached && hydrated. The result is latched: once true it
// never reverts, whatever the source reports later.
func (g *Gate) IsOpen() bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	if !g.open && g.attached && g.source.IsHydrated() {
		g.openLocked()
	}
	return g.open
}

// Wait blocks until the gate is open or ctx is done. Once attached it waits
// at most the configured max wait for hydration, then opens anyway.
func (g *Gate) Wait(ctx context.Context) error {
	select {
	case <-g.attachedCh:
	case <-ctx.Done():
		return ctx.Err()
	}
	if g.IsOpen() {
		return nil
	}

	var expired <-chan time.Time
	if g.maxWait > 0 {
		t := time.NewTimer(g.maxWait)
		defer t.Stop()
		expired = t.C
	}

	select {
	case <-g.source.Hydrated():
		g.IsOpen()
		return nil
	case <-g.openCh:
		return nil
	case <-expired:
		g.log.WarnContext(ctx, "hydration timed out, rendering without restored state",
			logger.Duration(g.maxWait),
		)
		g.mu.Lock()
		if !g.open {
			g.openLocked()
		}
		g.mu.Unlock()
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Render wraps children in an element carrying the gate id. Until the gate
// is open it renders fallback instead; a nil fallback renders nothing.
func (g *Gate) Render(children, fallback templ.Component) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		open := g.IsOpen()
		if _, err := io.WriteString(w, `<div id="`+templ.EscapeString(g.id)+`" data-hydrated="`+strconv.FormatBool(open)+`">`); err != nil {
			return err
		}

		content := fallback
		if open {
			content = children
		}
		if content != nil {
			if err := content.Render(ctx, w); err != nil {
				return err
			}
		}

		_, err := io.WriteString(w, "</div>")
		return err
	})
}

// AttachHandler is the client's attach endpoint. It attaches the gate,
// waits until it opens and patches the gated children into the page over
// datastar SSE.
func (g *Gate) AttachHandler(children templ.Component) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		g.Attach()

		sse := datastar.NewSSE(w, r)
		if err := g.Wait(r.Context()); err != nil {
			return
		}

		if err := sse.PatchElementTempl(
			g.Render(children, nil),
			datastar.WithSelector("#"+g.id),
			datastar.WithMode(datastar.ElementPatchModeOuter),
		); err != nil {
			g.log.ErrorContext(r.Context(), "failed to patch hydrated content", logger.Error(err))
		}
	})
}

// Must be called with g.mu held.
func (g *Gate) openLocked() {
	g.open = true
	close(g.openCh)
}
