package storage

// Driver names accepted by Config.Driver.
const (
	DriverMemory   = "memory"
	DriverFile     = "file"
	DriverRedis    = "redis"
	DriverMongo    = "mongo"
	DriverPostgres = "postgres"
)

// Config selects the durable storage backend.
type Config struct {
	Driver  string `env:"STORAGE_DRIVER" envDefault:"file"`
	FileDir string `env:"STORAGE_FILE_DIR" envDefault:".gallery"`
	// Probe the backend on startup and fall back to memory when it fails.
	ProbeOnStart bool `env:"STORAGE_PROBE_ON_START" envDefault:"true"`
}

// DefaultConfig returns the default storage configuration.
func DefaultConfig() Config {
	return Config{
		Driver:       DriverFile,
		FileDir:      ".gallery",
		ProbeOnStart: true,
	}
}
