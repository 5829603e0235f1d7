package query

import "errors"

var (
	ErrInvalidKey   = errors.New("query: invalid key")
	ErrLoaderPanic  = errors.New("query: loader panicked")
	ErrTypeMismatch = errors.New("query: cached value has a different type")
	ErrCacheClosed  = errors.New("query: cache closed")
)
