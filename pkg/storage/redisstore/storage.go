// Package redisstore implements storage.Storage on top of Redis.
//
// Every namespace maps to one string key, prefixed to keep the keyspace apart
// from other data in the same database:
//
//	client, err := redisstore.Connect(ctx, cfg)
//	if err != nil {
//		return err
//	}
//	s := redisstore.New(client, redisstore.WithPrefix(cfg.KeyPrefix))
package redisstore

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/dmitrymomot/contestkit/pkg/storage"
)

// Storage keeps namespaces as Redis string keys.
type Storage struct {
	db     redis.UniversalClient
	prefix string
	ttl    time.Duration
}

// Option configures Storage.
type Option func(*Storage)

// WithPrefix sets the key prefix.
func WithPrefix(prefix string) Option {
	return func(s *Storage) {
		s.prefix = prefix
	}
}

// WithTTL expires values after ttl. Zero disables expiry.
func WithTTL(ttl time.Duration) Option {
	return func(s *Storage) {
		s.ttl = ttl
	}
}

// New wraps a Redis client.
func New(client redis.UniversalClient, opts ...Option) *Storage {
	s := &Storage{
		db:     client,
		prefix: "gallery:storage:",
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// NewFromConfig wraps a Redis client using prefix and TTL from cfg.
func NewFromConfig(client redis.UniversalClient, cfg Config) *Storage {
	return New(client, WithPrefix(cfg.KeyPrefix), WithTTL(cfg.TTL))
}

// Read returns ("", false, nil) for missing keys (redis.Nil).
func (s *Storage) Read(ctx context.Context, namespace string) (string, bool, error) {
	if namespace == "" {
		return "", false, storage.ErrEmptyNamespace
	}
	val, err := s.db.Get(ctx, s.prefix+namespace).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, errors.Join(storage.ErrUnavailable, err)
	}
	return val, true, nil
}

func (s *Storage) Write(ctx context.Context, namespace, value string) error {
	if namespace == "" {
		return storage.ErrEmptyNamespace
	}
	if err := s.db.Set(ctx, s.prefix+namespace, value, s.ttl).Err(); err != nil {
		return errors.Join(storage.ErrUnavailable, err)
	}
	return nil
}

func (s *Storage) Remove(ctx context.Context, namespace string) error {
	if namespace == "" {
		return storage.ErrEmptyNamespace
	}
	if err := s.db.Del(ctx, s.prefix+namespace).Err(); err != nil {
		return errors.Join(storage.ErrUnavailable, err)
	}
	return nil
}

// Close terminates the Redis connection.
func (s *Storage) Close() error {
	return s.db.Close()
}
