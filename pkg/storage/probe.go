package storage

import (
	"context"
	"errors"
	"log/slog"
)

const probeNamespace = "__storage_probe__"

// Probe checks that s accepts a write and a remove.
// A nil storage is reported as unavailable.
func Probe(ctx context.Context, s Storage) error {
	if s == nil {
		return ErrUnavailable
	}
	if err := s.Write(ctx, probeNamespace, probeNamespace); err != nil {
		return errors.Join(ErrUnavailable, err)
	}
	if err := s.Remove(ctx, probeNamespace); err != nil {
		return errors.Join(ErrUnavailable, err)
	}
	return nil
}

// Fallback returns s when it passes Probe, otherwise a fresh MemoryStorage.
// The degrade is logged, never returned as an error.
func Fallback(ctx context.Context, s Storage, log *slog.Logger) Storage {
	if err := Probe(ctx, s); err != nil {
		if log == nil {
			log = slog.Default()
		}
		log.WarnContext(ctx, "durable storage unavailable, falling back to memory",
			slog.String("component", "storage"),
			slog.Any("error", err),
		)
		return NewMemoryStorage()
	}
	return s
}
