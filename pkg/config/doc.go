// Package config loads typed configuration from the environment.
//
// It wraps github.com/joho/godotenv for .env files and
// github.com/caarlos0/env/v11 for struct parsing. Every package in this
// module exposes a Config struct with env tags and a DefaultConfig; binaries
// call Load once per struct at startup:
//
//	sessCfg, err := config.Load[session.Config]()
//	if err != nil {
//		return err
//	}
//
// Parsed values are cached per type (and prefix), so repeated loads are
// cheap. Reset clears the cache, which tests use after t.Setenv.
package config
