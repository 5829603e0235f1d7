package config

import "errors"

var (
	ErrParsingConfig = errors.New("config.parse_failed")
	ErrLoadingEnv    = errors.New("config.env_file_failed")
)
