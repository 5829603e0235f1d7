package transport

import (
	"errors"
	"fmt"
)

var (
	ErrRequestFailed = errors.New("transport: request failed")
	ErrInvalidURL    = errors.New("transport: invalid url")
	ErrInvalidBody   = errors.New("transport: invalid request body")
	ErrDecode        = errors.New("transport: failed to decode response")
	ErrTimeout       = errors.New("transport: request timeout")
)

// StatusError is returned for non-2xx responses. It matches ErrRequestFailed
// with errors.Is.
type StatusError struct {
	StatusCode int
	// Body is a sanitized excerpt of the response body.
	Body string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("transport: unexpected status %d", e.StatusCode)
	}
	return fmt.Sprintf("transport: unexpected status %d: %s", e.StatusCode, e.Body)
}

func (e *StatusError) Unwrap() error {
	return ErrRequestFailed
}

// IsStatus reports whether err carries the given HTTP status.
func IsStatus(err error, code int) bool {
	var se *StatusError
	return errors.As(err, &se) && se.StatusCode == code
}
