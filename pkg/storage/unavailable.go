package storage

import "context"

// Unavailable is a Storage that fails every call with ErrUnavailable.
// It models environments without durable storage, e.g. server-side rendering.
type Unavailable struct{}

func (Unavailable) Read(context.Context, string) (string, bool, error) {
	return "", false, ErrUnavailable
}

func (Unavailable) Write(context.Context, string, string) error {
	return ErrUnavailable
}

func (Unavailable) Remove(context.Context, string) error {
	return ErrUnavailable
}
