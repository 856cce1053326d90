package backend

import "errors"

// Sentinel errors for backend API calls.
var (
	ErrNotFound  = errors.New("not found")
	ErrBadStatus = errors.New("backend bad status")
)
