package main

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"

	"github.com/dmitrymomot/contestkit/pkg/config"
	"github.com/dmitrymomot/contestkit/pkg/gallery"
	"github.com/dmitrymomot/contestkit/pkg/httpserver"
	"github.com/dmitrymomot/contestkit/pkg/hydration"
	"github.com/dmitrymomot/contestkit/pkg/logger"
	"github.com/dmitrymomot/contestkit/pkg/query"
	"github.com/dmitrymomot/contestkit/pkg/requestid"
	"github.com/dmitrymomot/contestkit/pkg/session"
	"github.com/dmitrymomot/contestkit/pkg/storage"
	"github.com/dmitrymomot/contestkit/pkg/transport"
)

// app holds everything a command needs, built from the environment.
type app struct {
	log         *slog.Logger
	out         io.Writer
	store       *session.Store
	initializer *session.Initializer
	cache       *query.Cache
	api         *gallery.API
	hydration   hydration.Config
	http        httpserver.Config
	checks      []httpserver.Check
	closers     []func() error
}

func newApp(ctx context.Context, envFile string, stdout io.Writer) (*app, error) {
	if envFile != "" {
		if err := config.LoadEnv(envFile); err != nil {
			return nil, err
		}
	} else if err := config.LoadEnv(); err != nil {
		return nil, err
	}

	logCfg, err := config.Load[logger.Config]()
	if err != nil {
		return nil, err
	}
	log, err := logger.FromConfig(logCfg,
		logger.WithOutput(os.Stderr),
		logger.WithContextExtractors(requestid.LogAttr),
	)
	if err != nil {
		return nil, err
	}
	logger.SetAsDefault(log)

	a := &app{log: log, out: stdout}

	storageCfg, err := config.Load[storage.Config]()
	if err != nil {
		return nil, err
	}
	backend, err := a.openStorage(ctx, storageCfg)
	if err != nil {
		a.Close()
		return nil, err
	}
	if storageCfg.ProbeOnStart {
		backend = storage.Fallback(ctx, backend, log)
	}

	sessionCfg, err := config.Load[session.Config]()
	if err != nil {
		a.Close()
		return nil, err
	}
	a.store = session.NewFromConfig(backend, sessionCfg, session.WithLogger(log))
	a.closers = append(a.closers, a.store.Close)
	a.initializer = session.NewInitializer(a.store, session.WithInitializerLogger(log))

	queryCfg, err := config.Load[query.Config]()
	if err != nil {
		a.Close()
		return nil, err
	}
	a.cache = query.NewCache(query.WithConfig(queryCfg), query.WithLogger(log))
	a.closers = append(a.closers, a.cache.Close)

	apiCfg, err := config.Load[transport.Config]()
	if err != nil {
		a.Close()
		return nil, err
	}
	client, err := transport.NewFromConfig(apiCfg,
		transport.WithTokenSource(a.store),
		transport.WithLogger(log),
	)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.api = gallery.New(client)

	if a.hydration, err = config.Load[hydration.Config](); err != nil {
		a.Close()
		return nil, err
	}
	if a.http, err = config.Load[httpserver.Config](); err != nil {
		a.Close()
		return nil, err
	}

	return a, nil
}

// mount runs the one-shot session initializer and waits for the restore.
func (a *app) mount(ctx context.Context) (session.State, error) {
	return a.initializer.Mount(ctx).Await(ctx)
}

// Close releases resources in reverse order of acquisition.
// Pending session writes are flushed by the store's Close.
func (a *app) Close() error {
	if a.initializer != nil {
		a.initializer.Unmount()
	}
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
