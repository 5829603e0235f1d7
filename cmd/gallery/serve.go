package main

import (
	"context"
	"io"
	"net/http"

	"github.com/a-h/templ"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/dmitrymomot/contestkit/pkg/cache"
	"github.com/dmitrymomot/contestkit/pkg/httpserver"
	"github.com/dmitrymomot/contestkit/pkg/hydration"
	"github.com/dmitrymomot/contestkit/pkg/logger"
	"github.com/dmitrymomot/contestkit/pkg/requestid"
	"github.com/dmitrymomot/contestkit/pkg/session"
)

const datastarScript = "https://cdn.jsdelivr.net/gh/starfederation/datastar@1.0.0-RC.5/bundles/datastar.js"

// maxPendingGates bounds gates rendered but never attached.
const maxPendingGates = 1024

func (a *app) serve(ctx context.Context) error {
	// The restore runs in the background; gates open once it completes.
	a.initializer.Mount(ctx)

	pending := cache.NewLRU[string, *hydration.Gate](maxPendingGates)

	r := chi.NewRouter()
	r.Use(requestid.Middleware)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		gate := hydration.New(a.store, hydration.WithConfig(a.hydration), hydration.WithLogger(a.log))
		pending.Put(gate.ID(), gate)

		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		rctx := session.WithRuntime(session.WithStore(r.Context(), a.store), session.RuntimeServer)
		if err := shellPage(gate).Render(rctx, w); err != nil {
			a.log.ErrorContext(r.Context(), "failed to render shell page", logger.Error(err))
		}
	})

	r.Get("/attach/{id}", func(w http.ResponseWriter, r *http.Request) {
		gate, ok := pending.Remove(chi.URLParam(r, "id"))
		if !ok {
			http.NotFound(w, r)
			return
		}
		gate.AttachHandler(sessionPanel()).ServeHTTP(w, r.WithContext(session.WithStore(r.Context(), a.store)))
	})

	r.Get("/health/live", httpserver.HealthHandler(a.log))
	r.Get("/health/ready", httpserver.HealthHandler(a.log, a.checks...))

	return httpserver.New(a.http, httpserver.WithLogger(a.log)).Run(ctx, r)
}

// shellPage renders the page around a hydration gate. The gated panel is
// patched in by the attach request once the session store is hydrated.
func shellPage(gate *hydration.Gate) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if _, err := io.WriteString(w, `<!doctype html><html><head><meta charset="utf-8"><title>Gallery</title>`+
			`<script type="module" src="`+datastarScript+`"></script></head>`+
			`<body data-on-load="@get('/attach/`+templ.EscapeString(gate.ID())+`')">`); err != nil {
			return err
		}
		if err := gate.Render(sessionPanel(), loadingPanel()).Render(ctx, w); err != nil {
			return err
		}
		_, err := io.WriteString(w, `</body></html>`)
		return err
	})
}

// sessionPanel shows the session state of the store in ctx.
func sessionPanel() templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		store, ok := session.FromContext(ctx)
		if !ok || !store.State().Authenticated {
			_, err := io.WriteString(w, `<p class="session">Signed out</p>`)
			return err
		}
		_, err := io.WriteString(w, `<p class="session">Signed in</p>`)
		return err
	})
}

func loadingPanel() templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		_, err := io.WriteString(w, `<p class="session" aria-busy="true">Loading…</p>`)
		return err
	})
}
