package types

import (
	"errors"
	"fmt"
)

// ErrorKind is the category a failed API call is classified into
type ErrorKind string

const (
	KindNetwork      ErrorKind = "NETWORK_ERROR"
	KindBadRequest   ErrorKind = "BAD_REQUEST"
	KindUnauthorized ErrorKind = "UNAUTHORIZED"
	KindForbidden    ErrorKind = "FORBIDDEN"
	KindNotFound     ErrorKind = "NOT_FOUND"
	KindValidation   ErrorKind = "VALIDATION_ERROR"
	KindRateLimited  ErrorKind = "RATE_LIMIT"
	KindServer       ErrorKind = "SERVER_ERROR"
	KindUnknown      ErrorKind = "UNKNOWN"
)

// Error represents a classified API error
type Error struct {
	Kind       ErrorKind           `json:"code"`
	Message    string              `json:"message"`
	StatusCode int                 `json:"statusCode,omitempty"`
	Fields     map[string][]string `json:"errors,omitempty"`
	RequestID  string              `json:"requestId,omitempty"`
	Err        error               `json:"-"`
}

func (e *Error) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return fmt.Sprintf("error: %s", e.Kind)
}

// Unwrap returns the underlying transport error, if any
func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches another *Error by kind, so errors.Is(err, &Error{Kind: KindNotFound}) works
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind
}

// KindOf returns the kind of a classified error, or KindUnknown
func KindOf(err error) ErrorKind {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Kind
	}
	return KindUnknown
}
