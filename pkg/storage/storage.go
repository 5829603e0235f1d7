package storage

import "context"

// Storage is a durable key-value capability addressed by namespace.
// Each persisted store owns exactly one namespace.
// Implementations must be safe for concurrent use.
type Storage interface {
	// Read returns the stored value and true, or "" and false when nothing is stored.
	Read(ctx context.Context, namespace string) (string, bool, error)

	// Write replaces the value stored under namespace.
	Write(ctx context.Context, namespace, value string) error

	// Remove deletes the namespace. Removing a missing namespace is not an error.
	Remove(ctx context.Context, namespace string) error
}
