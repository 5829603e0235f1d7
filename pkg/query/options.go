package query

import (
	"log/slog"
	"time"
)

// Option configures a Cache.
type Option func(*Cache)

// WithLogger sets the cache logger.
func WithLogger(log *slog.Logger) Option {
	return func(c *Cache) {
		if log != nil {
			c.log = log
		}
	}
}

// WithMaxEntries bounds the number of entries. Least recently used entries
// without an in-flight load are evicted first.
func WithMaxEntries(n int) Option {
	return func(c *Cache) { c.maxEntries = n }
}

// WithStaleTime sets the default freshness window for every fetch.
func WithStaleTime(d time.Duration) Option {
	return func(c *Cache) { c.staleTime = d }
}

// WithSubscriberBuffer sets the per-subscriber channel buffer.
func WithSubscriberBuffer(n int) Option {
	return func(c *Cache) { c.bufferSize = n }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(c *Cache) {
		if now != nil {
			c.now = now
		}
	}
}

// WithConfig applies every field of cfg.
func WithConfig(cfg Config) Option {
	return func(c *Cache) {
		c.maxEntries = cfg.MaxEntries
		c.staleTime = cfg.StaleTime
		c.bufferSize = cfg.SubscriberBuffer
	}
}

// FetchOption configures a single fetch.
type FetchOption func(*fetchOptions)

type fetchOptions struct {
	enabled   bool
	staleTime time.Duration
}

// Enabled gates the fetch. A disabled fetch never calls the loader and
// reports the current entry state, or Idle when there is none.
func Enabled(enabled bool) FetchOption {
	return func(o *fetchOptions) { o.enabled = enabled }
}

// StaleTime overrides the cache freshness window for this fetch.
func StaleTime(d time.Duration) FetchOption {
	return func(o *fetchOptions) { o.staleTime = d }
}
