package hydration

import (
	"log/slog"
	"time"
)

// Option configures a Gate.
type Option func(*Gate)

// WithMaxWait bounds how long Wait waits for hydration after attach. When it
// expires the gate opens with whatever state the source has.
func WithMaxWait(d time.Duration) Option {
	return func(g *Gate) { g.maxWait = d }
}

// WithConfig applies cfg.
func WithConfig(cfg Config) Option {
	return func(g *Gate) { g.maxWait = cfg.MaxWait }
}

// WithID sets the wrapper element id. Defaults to a random one.
func WithID(id string) Option {
	return func(g *Gate) {
		if id != "" {
			g.id = id
		}
	}
}

// WithLogger sets the gate logger.
func WithLogger(log *slog.Logger) Option {
	return func(g *Gate) {
		if log != nil {
			g.log = log
		}
	}
}
