package main

import (
	"context"
	"fmt"

	"github.com/dmitrymomot/contestkit/pkg/config"
	"github.com/dmitrymomot/contestkit/pkg/storage"
	"github.com/dmitrymomot/contestkit/pkg/storage/mongostore"
	"github.com/dmitrymomot/contestkit/pkg/storage/pgstore"
	"github.com/dmitrymomot/contestkit/pkg/storage/redisstore"
)

// openStorage connects the configured backend and registers its
// healthcheck and closer on the app.
func (a *app) openStorage(ctx context.Context, cfg storage.Config) (storage.Storage, error) {
	switch cfg.Driver {
	case storage.DriverMemory:
		return storage.NewMemoryStorage(), nil

	case storage.DriverFile:
		s, err := storage.NewFileStorage(cfg.FileDir)
		if err != nil {
			return nil, err
		}
		return s, nil

	case storage.DriverRedis:
		rcfg, err := config.Load[redisstore.Config]()
		if err != nil {
			return nil, err
		}
		client, err := redisstore.Connect(ctx, rcfg)
		if err != nil {
			return nil, err
		}
		s := redisstore.NewFromConfig(client, rcfg)
		a.checks = append(a.checks, redisstore.Healthcheck(client))
		a.closers = append(a.closers, s.Close)
		return s, nil

	case storage.DriverMongo:
		mcfg, err := config.Load[mongostore.Config]()
		if err != nil {
			return nil, err
		}
		client, err := mongostore.Connect(ctx, mcfg)
		if err != nil {
			return nil, err
		}
		a.checks = append(a.checks, mongostore.Healthcheck(client))
		a.closers = append(a.closers, func() error {
			return client.Disconnect(context.WithoutCancel(ctx))
		})
		return mongostore.NewFromConfig(client, mcfg), nil

	case storage.DriverPostgres:
		pcfg, err := config.Load[pgstore.Config]()
		if err != nil {
			return nil, err
		}
		pool, err := pgstore.Connect(ctx, pcfg)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, func() error {
			pool.Close()
			return nil
		})
		if err := pgstore.Migrate(ctx, pool, pcfg, a.log); err != nil {
			return nil, err
		}
		a.checks = append(a.checks, pgstore.Healthcheck(pool))
		return pgstore.New(pool), nil

	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
	}
}
