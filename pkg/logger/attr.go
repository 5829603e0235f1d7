package logger

import (
	"fmt"
	"log/slog"
)

// Group creates a slog group attribute from the provided attributes.
func Group(name string, attrs ...slog.Attr) slog.Attr {
	return slog.Attr{Key: name, Value: slog.GroupValue(attrs...)}
}

// Error records err under "error". A nil error yields an empty Attr.
func Error(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.Any("error", err)
}

// Component names the emitting package.
func Component(name string) slog.Attr {
	return slog.String("component", name)
}

// CacheKey records a cache key through its String method.
func CacheKey(key fmt.Stringer) slog.Attr {
	return slog.String("cache_key", key.String())
}

// Resource names a fetched resource.
func Resource(name string) slog.Attr {
	return slog.String("resource", name)
}

// Status records an entry status through its String method.
func Status(s fmt.Stringer) slog.Attr {
	return slog.String("status", s.String())
}

// Namespace records a durable storage namespace.
func Namespace(ns string) slog.Attr {
	return slog.String("namespace", ns)
}

// Duration records an elapsed time.
func Duration(d any) slog.Attr {
	return slog.Any("duration", d)
}

// Event names a lifecycle event.
func Event(name string) slog.Attr {
	return slog.String("event", name)
}
