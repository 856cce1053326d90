package distance

import "errors"

// Sentinel errors for the distance client.
var (
	// ErrNoRoute means the service could not produce a distance for the
	// pair. Callers treat it as "distance unknown", not as a failure.
	ErrNoRoute = errors.New("no route between addresses")

	// ErrBadStatus means the service answered with a non-200 status.
	ErrBadStatus = errors.New("distance service bad status")
)
