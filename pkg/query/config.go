package query

import "time"

// Config holds cache settings loaded from the environment.
type Config struct {
	// MaxEntries bounds the entry table; 0 disables LRU eviction.
	MaxEntries int `env:"QUERY_MAX_ENTRIES" envDefault:"512"`
	// StaleTime is the default freshness window; 0 keeps entries fresh until invalidated.
	StaleTime time.Duration `env:"QUERY_STALE_TIME" envDefault:"0s"`
	// SubscriberBuffer is the per-subscriber queue size before conflation.
	SubscriberBuffer int `env:"QUERY_SUBSCRIBER_BUFFER" envDefault:"4"`
}

// DefaultConfig returns the defaults matching the env tags.
func DefaultConfig() Config {
	return Config{
		MaxEntries:       512,
		SubscriberBuffer: 4,
	}
}
