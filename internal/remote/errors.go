package remote

import "errors"

// Connection failures a backend can classify.
var (
	ErrNotLoggedIn       = errors.New("user is not logged in")
	ErrUserNotAuthorized = errors.New("user is not authorized")
	ErrCouldNotFindApp   = errors.New("could not find the playback app")
)

// ErrUnsupported indicates the backend lacks a capability.
var ErrUnsupported = errors.New("unsupported")
