package session

import (
	"log/slog"
	"time"
)

// Option is a functional option for configuring the Store
type Option func(*Store)

// WithConfig sets custom configuration. Zero fields keep their defaults.
func WithConfig(cfg Config) Option {
	return func(s *Store) {
		if cfg.Namespace != "" {
			s.cfg.Namespace = cfg.Namespace
		}
		if cfg.RestoreTimeout > 0 {
			s.cfg.RestoreTimeout = cfg.RestoreTimeout
		}
		if cfg.WriteTimeout > 0 {
			s.cfg.WriteTimeout = cfg.WriteTimeout
		}
		if cfg.SubscriberBuffer > 0 {
			s.cfg.SubscriberBuffer = cfg.SubscriberBuffer
		}
	}
}

// WithNamespace sets the storage namespace of the auth envelope
func WithNamespace(ns string) Option {
	return func(s *Store) {
		if ns != "" {
			s.cfg.Namespace = ns
		}
	}
}

// WithRestoreTimeout bounds the storage read performed by Restore
func WithRestoreTimeout(d time.Duration) Option {
	return func(s *Store) {
		if d > 0 {
			s.cfg.RestoreTimeout = d
		}
	}
}

// WithLogger sets the store logger.
func WithLogger(log *slog.Logger) Option {
	return func(s *Store) {
		if log != nil {
			s.log = log
		}
	}
}
