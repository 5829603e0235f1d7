// Package pgstore implements storage.Storage on a PostgreSQL table.
//
//	pool, err := pgstore.Connect(ctx, cfg)
//	if err != nil {
//		return err
//	}
//	if err := pgstore.Migrate(ctx, pool, cfg, log); err != nil {
//		return err
//	}
//	s := pgstore.New(pool)
package pgstore

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dmitrymomot/contestkit/pkg/storage"
)

const (
	readQuery   = `SELECT value FROM client_storage WHERE namespace = $1`
	upsertQuery = `INSERT INTO client_storage (namespace, value, updated_at) VALUES ($1, $2, now())
ON CONFLICT (namespace) DO UPDATE SET value = EXCLUDED.value, updated_at = EXCLUDED.updated_at`
	deleteQuery = `DELETE FROM client_storage WHERE namespace = $1`
)

// Storage keeps namespaces as rows of client_storage.
type Storage struct {
	pool *pgxpool.Pool
}

// New wraps a pgx pool. The schema must be migrated with Migrate first.
func New(pool *pgxpool.Pool) *Storage {
	return &Storage{pool: pool}
}

func (s *Storage) Read(ctx context.Context, namespace string) (string, bool, error) {
	if namespace == "" {
		return "", false, storage.ErrEmptyNamespace
	}

	var value string
	err := s.pool.QueryRow(ctx, readQuery, namespace).Scan(&value)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, errors.Join(storage.ErrUnavailable, err)
	}
	return value, true, nil
}

func (s *Storage) Write(ctx context.Context, namespace, value string) error {
	if namespace == "" {
		return storage.ErrEmptyNamespace
	}
	if _, err := s.pool.Exec(ctx, upsertQuery, namespace, value); err != nil {
		return errors.Join(storage.ErrUnavailable, err)
	}
	return nil
}

func (s *Storage) Remove(ctx context.Context, namespace string) error {
	if namespace == "" {
		return storage.ErrEmptyNamespace
	}
	if _, err := s.pool.Exec(ctx, deleteQuery, namespace); err != nil {
		return errors.Join(storage.ErrUnavailable, err)
	}
	return nil
}
