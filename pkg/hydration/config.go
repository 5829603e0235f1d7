package hydration

import "time"

// Config holds hydration gate settings
type Config struct {
	// MaxWait bounds how long the gate waits for hydration once attached.
	// Zero waits indefinitely.
	MaxWait time.Duration `env:"HYDRATION_MAX_WAIT" envDefault:"10s"`
}

// DefaultConfig returns the defaults matching the env tags.
func DefaultConfig() Config {
	return Config{MaxWait: 10 * time.Second}
}
