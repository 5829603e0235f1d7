package transport

import (
	"log/slog"
	"net/http"
	"time"
)

// TokenSource provides the bearer token. *session.Store implements it.
type TokenSource interface {
	Token() (string, bool)
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the pooled default client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithTokenSource adds "Authorization: Bearer <token>" while a token is set.
func WithTokenSource(ts TokenSource) Option {
	return func(c *Client) { c.tokens = ts }
}

// WithTimeout bounds every attempt. Zero disables the per-attempt timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.timeout = d }
}

// WithMaxRetries sets how often idempotent requests are retried on
// network errors, 5xx and 429 responses.
func WithMaxRetries(n int) Option {
	return func(c *Client) { c.maxRetries = max(n, 0) }
}

// WithBackoff sets the retry delay policy.
func WithBackoff(b Backoff) Option {
	return func(c *Client) {
		if b != nil {
			c.backoff = b
		}
	}
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(c *Client) { c.userAgent = ua }
}

// WithLogger sets the client logger.
func WithLogger(log *slog.Logger) Option {
	return func(c *Client) {
		if log != nil {
			c.log = log
		}
	}
}

// WithConfig applies timeout, retries and user agent from cfg.
func WithConfig(cfg Config) Option {
	return func(c *Client) {
		c.timeout = cfg.Timeout
		c.maxRetries = max(cfg.MaxRetries, 0)
		if cfg.UserAgent != "" {
			c.userAgent = cfg.UserAgent
		}
	}
}
