package transport

import "errors"

// Sentinel errors for the transport layer, matching spec.md §7's taxonomy.
var (
	// ErrMessageTooLarge is returned when a declared or actual payload
	// exceeds MaxMessageSize, on either the write or read side.
	ErrMessageTooLarge = errors.New("transport: message too large")

	// ErrTruncated is returned when the connection is closed mid-frame.
	ErrTruncated = errors.New("transport: truncated frame")

	// ErrAuthFailed is returned when a peer's credentials do not match the
	// listening process's effective UID.
	ErrAuthFailed = errors.New("transport: peer authentication failed")

	// ErrNotReachable is returned when a client cannot connect to a peer's
	// socket.
	ErrNotReachable = errors.New("transport: peer not reachable")

	// ErrBindFailed is returned when a listener cannot bind its socket.
	ErrBindFailed = errors.New("transport: bind failed")
)
