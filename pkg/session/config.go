package session

import (
	"time"

	"github.com/dmitrymomot/contestkit/pkg/storage"
)

// Config holds session store configuration
type Config struct {
	// Namespace is the durable storage namespace of the auth envelope.
	Namespace string `env:"SESSION_STORAGE_NAMESPACE" envDefault:"auth-storage"`

	// RestoreTimeout bounds the storage read performed by Restore.
	RestoreTimeout time.Duration `env:"SESSION_RESTORE_TIMEOUT" envDefault:"5s"`

	// WriteTimeout bounds each background write.
	WriteTimeout time.Duration `env:"SESSION_WRITE_TIMEOUT" envDefault:"5s"`

	// SubscriberBuffer is the per-subscriber queue size before conflation.
	SubscriberBuffer int `env:"SESSION_SUBSCRIBER_BUFFER" envDefault:"4"`
}

// DefaultConfig returns default session configuration
func DefaultConfig() Config {
	return Config{
		Namespace:        "auth-storage",
		RestoreTimeout:   5 * time.Second,
		WriteTimeout:     5 * time.Second,
		SubscriberBuffer: 4,
	}
}

// NewFromConfig creates a Store from the provided Config.
func NewFromConfig(s storage.Storage, cfg Config, opts ...Option) *Store {
	return New(s, append([]Option{WithConfig(cfg)}, opts...)...)
}
