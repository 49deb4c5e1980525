package domain

import "errors"

// ErrSessionNotFound is returned when a session ID cannot be found in the store.
var ErrSessionNotFound = errors.New("session not found")

// ErrMissingSessionID is returned when a trail is requested without a session identifier.
var ErrMissingSessionID = errors.New("missing session id")
