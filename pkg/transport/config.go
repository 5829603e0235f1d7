package transport

import "time"

// Config holds API client settings
type Config struct {
	BaseURL    string        `env:"API_BASE_URL" envDefault:"http://localhost:8080/api"`
	Timeout    time.Duration `env:"API_TIMEOUT" envDefault:"15s"`
	MaxRetries int           `env:"API_MAX_RETRIES" envDefault:"2"`
	UserAgent  string        `env:"API_USER_AGENT" envDefault:"contestkit/1.0"`
}

// DefaultConfig returns the defaults matching the env tags.
func DefaultConfig() Config {
	return Config{
		BaseURL:    "http://localhost:8080/api",
		Timeout:    15 * time.Second,
		MaxRetries: 2,
		UserAgent:  "contestkit/1.0",
	}
}

// NewFromConfig creates a Client from the provided Config.
func NewFromConfig(cfg Config, opts ...Option) (*Client, error) {
	return New(cfg.BaseURL, append([]Option{WithConfig(cfg)}, opts...)...)
}
