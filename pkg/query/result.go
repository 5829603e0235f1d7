package query

import (
	"errors"
	"time"
)

// Snapshot is an untyped, immutable view of one entry.
type Snapshot struct {
	Key       Key
	Value     any
	HasValue  bool
	Status    Status
	Err       error
	FetchedAt time.Time
	// Invalidated is set between Invalidate and the next successful load.
	Invalidated bool
}

// Result is the typed view of an entry observed by consumers.
// Value is retained across failed refetches; Err describes the last failure.
type Result[V any] struct {
	Key         Key
	Value       V
	HasValue    bool
	Status      Status
	Err         error
	FetchedAt   time.Time
	Invalidated bool
}

func (r Result[V]) IsIdle() bool    { return r.Status == StatusIdle }
func (r Result[V]) IsLoading() bool { return r.Status == StatusLoading }
func (r Result[V]) IsSuccess() bool { return r.Status == StatusSuccess }
func (r Result[V]) IsError() bool   { return r.Status == StatusError }

func resultOf[V any](s Snapshot) Result[V] {
	r := Result[V]{
		Key:         s.Key,
		Status:      s.Status,
		Err:         s.Err,
		FetchedAt:   s.FetchedAt,
		Invalidated: s.Invalidated,
	}
	if !s.HasValue {
		return r
	}

	v, ok := s.Value.(V)
	if !ok {
		r.Err = errors.Join(r.Err, ErrTypeMismatch)
		return r
	}
	r.Value = v
	r.HasValue = true
	return r
}

func idleResult[V any](key Key) Result[V] {
	return Result[V]{Key: key, Status: StatusIdle}
}
