package session

import (
	"errors"
	"fmt"

	"github.com/bytedance/sonic"
)

// envelopeVersion is the only persisted format this package reads and writes.
const envelopeVersion = 1

// State is a point-in-time view of the session.
type State struct {
	// Token is the bearer token; empty means no token.
	Token string
	// Authenticated reports whether a token is present.
	Authenticated bool
	// Hydrated flips to true once durable storage has been read. It never reverts.
	Hydrated bool
}

type envelope struct {
	State struct {
		Token *string `json:"token"`
	} `json:"state"`
	Version int `json:"version"`
}

func encodeEnvelope(token string) (string, error) {
	var env envelope
	env.State.Token = &token
	env.Version = envelopeVersion

	b, err := sonic.ConfigStd.Marshal(env)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func decodeEnvelope(raw string) (string, error) {
	var env envelope
	if err := sonic.ConfigStd.Unmarshal([]byte(raw), &env); err != nil {
		return "", errors.Join(ErrCorruptEnvelope, err)
	}
	if env.Version != envelopeVersion {
		return "", fmt.Errorf("%w: %d", ErrUnsupportedVersion, env.Version)
	}
	if env.State.Token == nil {
		return "", nil
	}
	return *env.State.Token, nil
}
