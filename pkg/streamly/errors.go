package streamly

import (
	"github.com/eshaffer321/streamly-go/internal/classify"
	"github.com/eshaffer321/streamly-go/internal/types"
	"github.com/pkg/errors"
)

// Error is a classified API error. Every failed call returns one.
type Error = types.Error

// ErrorKind categorises an Error
type ErrorKind = types.ErrorKind

const (
	KindNetwork      = types.KindNetwork
	KindBadRequest   = types.KindBadRequest
	KindUnauthorized = types.KindUnauthorized
	KindForbidden    = types.KindForbidden
	KindNotFound     = types.KindNotFound
	KindValidation   = types.KindValidation
	KindRateLimited  = types.KindRateLimited
	KindServer       = types.KindServer
	KindUnknown      = types.KindUnknown
)

var (
	// ErrNotAuthenticated is returned when authentication is required
	ErrNotAuthenticated = types.ErrNotAuthenticated

	// ErrNoRefreshToken is returned when a refresh is requested without a refresh credential
	ErrNoRefreshToken = types.ErrNoRefreshToken

	// ErrEmptyToken is returned when a login or refresh answers without a token
	ErrEmptyToken = types.ErrEmptyToken

	// ErrUnsuccessful is returned when a 2xx response reports success=false
	ErrUnsuccessful = types.ErrUnsuccessful
)

// KindOf returns the kind of err, or KindUnknown
func KindOf(err error) ErrorKind {
	return types.KindOf(err)
}

// IsRetryable reports whether a failed call may succeed when repeated
func IsRetryable(err error) bool {
	return classify.IsRetryable(classify.Error(err))
}

// IsAuthError checks if error is authentication related
func IsAuthError(err error) bool {
	switch KindOf(err) {
	case KindUnauthorized, KindForbidden:
		return true
	}
	return errors.Is(err, ErrNotAuthenticated) || errors.Is(err, ErrNoRefreshToken)
}

// FriendlyMessage turns any error into text fit to show a user
func FriendlyMessage(err error) string {
	return classify.FriendlyMessage(err)
}
