package engine

import "errors"

var (
	// ErrUnreachable marks transport-level failures: the scoring backend
	// could not be reached at all.
	ErrUnreachable = errors.New("scoring backend unreachable")

	// ErrUnavailable marks a reachable backend that could not produce a
	// score (server error, malformed or invalid response).
	ErrUnavailable = errors.New("scoring backend unavailable")
)
