package session

import "errors"

var (
	// ErrCorruptEnvelope indicates the persisted value is not a valid envelope.
	ErrCorruptEnvelope = errors.New("session.corrupt_envelope")

	// ErrUnsupportedVersion indicates an envelope written by an unknown format version.
	ErrUnsupportedVersion = errors.New("session.unsupported_version")
)
