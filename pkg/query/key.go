package query

import (
	"errors"
	"fmt"

	"github.com/bytedance/sonic"
)

// canonical encodes maps with sorted keys and keeps numbers as json.Number,
// so logically equal params always produce the same text.
var canonical = sonic.Config{
	SortMapKeys: true,
	UseNumber:   true,
}.Froze()

// Key identifies one cache entry. Keys are comparable and can be used as map keys.
type Key struct {
	resource string
	params   string
}

// NewKey derives a Key from a resource name and its parameters.
// Params may be nil, a map, a struct or any JSON-encodable value; structs
// are reduced to their JSON form first, so field order never matters.
func NewKey(resource string, params any) (Key, error) {
	if resource == "" {
		return Key{}, fmt.Errorf("%w: empty resource name", ErrInvalidKey)
	}
	if params == nil {
		return Key{resource: resource}, nil
	}

	raw, err := canonical.Marshal(params)
	if err != nil {
		return Key{}, errors.Join(ErrInvalidKey, err)
	}

	var generic any
	if err := canonical.Unmarshal(raw, &generic); err != nil {
		return Key{}, errors.Join(ErrInvalidKey, err)
	}

	encoded, err := canonical.MarshalToString(generic)
	if err != nil {
		return Key{}, errors.Join(ErrInvalidKey, err)
	}
	if encoded == "null" {
		encoded = ""
	}

	return Key{resource: resource, params: encoded}, nil
}

// MustKey is NewKey that panics on error. Use it for static params.
func MustKey(resource string, params any) Key {
	k, err := NewKey(resource, params)
	if err != nil {
		panic(err)
	}
	return k
}

// Resource returns the resource name the key was built from.
func (k Key) Resource() string {
	return k.resource
}

// Params returns the canonical JSON encoding of the params, or "" for none.
func (k Key) Params() string {
	return k.params
}

// IsZero reports whether k is the zero Key.
func (k Key) IsZero() bool {
	return k.resource == ""
}

// String renders k as "resource" or "resource:params" for logs.
func (k Key) String() string {
	if k.params == "" {
		return k.resource
	}
	return k.resource + ":" + k.params
}
