package remotecore

import (
	"context"
	"errors"
	"fmt"

	"github.com/mikey-austin/spotify_remote/internal/remote"
	"github.com/mikey-austin/spotify_remote/pkg/sr"
)

// Precondition failures raised before any remote call.
var (
	ErrNotConnected            = errors.New("Spotify App Remote not connected")
	ErrNotAuthorized           = errors.New("Auth module has not been authorized.")
	ErrInvalidTrackURI         = errors.New("Can only queue Spotify track uri's (i.e. spotify:track:<id>)")
	ErrAuthorizationSuperseded = errors.New("authorization superseded by a newer request")
)

// ConnectError is a classified connection failure.
type ConnectError struct {
	Msg string
	Err error
}

func (e *ConnectError) Error() string {
	return e.Msg
}

func (e *ConnectError) Unwrap() error {
	return e.Err
}

// AuthError is a rejected authorization carrying the login UI's code.
type AuthError struct {
	Code    string
	Message string
}

func (e *AuthError) Error() string {
	if e.Code == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// ValidationError reports an invalid command input.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string {
	return e.Msg
}

func invalidf(format string, args ...any) error {
	return &ValidationError{Msg: fmt.Sprintf(format, args...)}
}

// classifyConnectError maps known connection failures to fixed messages.
// Unknown failures are returned unchanged.
func classifyConnectError(err error) error {
	switch {
	case errors.Is(err, remote.ErrNotLoggedIn):
		return &ConnectError{Msg: "Spotify connection failed: user is not logged in.", Err: err}
	case errors.Is(err, remote.ErrUserNotAuthorized):
		return &ConnectError{Msg: "Spotify connection failed: user is not authorized.", Err: err}
	case errors.Is(err, remote.ErrCouldNotFindApp):
		return &ConnectError{Msg: "Spotify connection failed: could not find the Spotify app, it may need to be installed.", Err: err}
	default:
		return err
	}
}

// ReplyCode maps an error to a protocol error code.
func ReplyCode(err error) string {
	var connectErr *ConnectError
	var authErr *AuthError
	var validationErr *ValidationError
	switch {
	case errors.Is(err, ErrNotConnected):
		return sr.CodeNotConnected
	case errors.Is(err, ErrNotAuthorized):
		return sr.CodeNotAuthorized
	case errors.Is(err, ErrInvalidTrackURI), errors.As(err, &validationErr):
		return sr.CodeInvalid
	case errors.As(err, &connectErr):
		return sr.CodeConnectFailed
	case errors.As(err, &authErr):
		if authErr.Code == "" {
			return sr.CodeNotAuthorized
		}
		return authErr.Code
	case errors.Is(err, context.DeadlineExceeded):
		return sr.CodeTimeout
	case errors.Is(err, remote.ErrUnsupported):
		return sr.CodeUnsupported
	default:
		return sr.CodeRemoteError
	}
}
