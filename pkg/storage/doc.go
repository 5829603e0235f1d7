// Package storage defines the durable storage capability used by persisted
// client state, together with the backends that implement it.
//
// A Storage is addressed by namespace: every persisted store (the session
// token store, for example) owns one fixed namespace and reads, writes or
// removes a single string value under it.
//
// # Backends
//
//   - MemoryStorage keeps values in process memory. It is the fallback when no
//     durable backend is reachable.
//   - FileStorage writes one file per namespace with atomic renames. It is the
//     default for CLI and desktop clients.
//   - Unavailable fails every call with ErrUnavailable and models environments
//     without storage, such as server-side rendering.
//   - Subpackages redisstore, mongostore and pgstore provide shared backends.
//
// # Degrading
//
// Storage errors are never fatal for callers of this package. Use Fallback to
// swap an unreachable backend for memory at startup:
//
//	s := storage.Fallback(ctx, backend, log)
//
// Consumers like session.Store additionally swallow and log per-call errors.
package storage
