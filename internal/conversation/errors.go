package conversation

import "errors"

// Sentinel errors for repository operations, checked with errors.Is().
var (
	// ErrEmptySessionID indicates a missing session identifier.
	ErrEmptySessionID = errors.New("session id cannot be empty")

	// ErrInvalidRole indicates a role outside the fixed role set.
	ErrInvalidRole = errors.New("invalid message role")

	// ErrEmptyContent indicates an empty message body.
	ErrEmptyContent = errors.New("message content cannot be empty")

	// ErrSessionNotFound indicates the session does not exist.
	ErrSessionNotFound = errors.New("session not found")

	// ErrEmptyName indicates an empty session name on rename.
	ErrEmptyName = errors.New("session name cannot be empty")
)
