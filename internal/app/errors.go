package app

import "errors"

var (
	// ErrNoBackend is returned when the service is started without a
	// volunteer backend client.
	ErrNoBackend = errors.New("no backend configured")

	// ErrNotStarted is returned by operations that need a running service.
	ErrNotStarted = errors.New("service not started")
)
