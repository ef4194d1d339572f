package session

import (
	"encoding/json"
	"errors"
	"fmt"
)

// CurrentSchemaVersion is written by Encode. Decode rejects other versions.
const CurrentSchemaVersion = 1

var ErrCorrupt = errors.New("session record corrupt")

type envelope struct {
	Version int `json:"v"`
	*Session
}

// Encode serializes sess with a schema version.
func Encode(sess *Session) ([]byte, error) {
	if sess == nil {
		return nil, errors.New("nil session")
	}
	return json.Marshal(envelope{Version: CurrentSchemaVersion, Session: sess})
}

// Decode parses a stored record.
func Decode(data []byte) (*Session, error) {
	sess := &Session{}
	env := envelope{Session: sess}
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	if env.Version != CurrentSchemaVersion {
		return nil, fmt.Errorf("%w: schema version %d", ErrCorrupt, env.Version)
	}
	if sess.Username == "" {
		return nil, fmt.Errorf("%w: missing username", ErrCorrupt)
	}
	return sess, nil
}
