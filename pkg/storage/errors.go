package storage

import "errors"

var (
	// ErrUnavailable indicates the durable storage cannot be used at all
	// (disabled, sandboxed or not configured). Callers degrade to in-memory state.
	ErrUnavailable = errors.New("storage.unavailable")

	// ErrEmptyNamespace is returned for operations without a namespace.
	ErrEmptyNamespace = errors.New("storage.empty_namespace")

	// ErrUnknownDriver is returned by Open for an unsupported driver name.
	ErrUnknownDriver = errors.New("storage.unknown_driver")
)
