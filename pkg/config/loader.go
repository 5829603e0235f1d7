package config

import (
	"errors"
	"fmt"
	"reflect"
	"sync"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

var (
	dotenvOnce sync.Once
	cache      sync.Map // reflect.Type+prefix -> parsed value
)

type cacheKey struct {
	typ    reflect.Type
	prefix string
}

// LoadEnv loads the given .env files into the process environment.
// Variables already present in the environment keep their values.
// Without arguments it loads ./.env and ignores a missing file.
func LoadEnv(paths ...string) error {
	if len(paths) == 0 {
		dotenvOnce.Do(func() { _ = godotenv.Load() })
		return nil
	}
	if err := godotenv.Load(paths...); err != nil {
		return errors.Join(ErrLoadingEnv, err)
	}
	return nil
}

// Load parses the environment into a T. Values are parsed once per type and
// served from cache afterwards; Reset clears the cache.
//
//	type Config struct {
//		Addr string `env:"HTTP_ADDR" envDefault:":8080"`
//	}
//	cfg, err := config.Load[Config]()
func Load[T any]() (T, error) {
	return LoadPrefixed[T]("")
}

// LoadPrefixed is Load with every env tag prefixed, e.g. "GALLERY_".
func LoadPrefixed[T any](prefix string) (T, error) {
	_ = LoadEnv()

	key := cacheKey{typ: reflect.TypeFor[T](), prefix: prefix}
	if v, ok := cache.Load(key); ok {
		return v.(T), nil
	}

	cfg, err := env.ParseAsWithOptions[T](env.Options{Prefix: prefix})
	if err != nil {
		var zero T
		return zero, errors.Join(ErrParsingConfig, err)
	}

	v, _ := cache.LoadOrStore(key, cfg)
	return v.(T), nil
}

// MustLoad is Load that panics on failure. Intended for process startup.
func MustLoad[T any]() T {
	cfg, err := Load[T]()
	if err != nil {
		panic(fmt.Sprintf("config: %v", err))
	}
	return cfg
}

// Reset drops all cached values so the next Load re-reads the environment.
func Reset() {
	cache.Range(func(k, _ any) bool {
		cache.Delete(k)
		return true
	})
}
