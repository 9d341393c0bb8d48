package types

import (
	"context"
	"errors"
	"time"
)

const (
	// DefaultBackendHost is used when no host is configured
	DefaultBackendHost = "http://localhost"

	// DefaultTimeout is the overall deadline for a single request
	DefaultTimeout = 30 * time.Second

	// UserAgent is the user agent string
	UserAgent = "streamly-go/1.0.0"

	// DefaultMaxRetries is the retry count used by GetWithRetry
	DefaultMaxRetries = 3

	// DefaultRetryDelay is the first backoff delay used by GetWithRetry
	DefaultRetryDelay = time.Second

	// DefaultExpiryThreshold is the lookahead window for near-expiry checks
	DefaultExpiryThreshold = 5 * time.Minute
)

// Service names one of the backend microservices
type Service string

const (
	ServiceAuth         Service = "auth"
	ServiceUser         Service = "user"
	ServiceMovie        Service = "movie"
	ServiceBook         Service = "book"
	ServiceCollection   Service = "collection"
	ServiceNotification Service = "notification"
)

// Services lists every backend service in a stable order
var Services = []Service{
	ServiceAuth,
	ServiceUser,
	ServiceMovie,
	ServiceBook,
	ServiceCollection,
	ServiceNotification,
}

// Common errors
var (
	// ErrNotAuthenticated is returned when an operation needs a session and there is none
	ErrNotAuthenticated = errors.New("not authenticated")

	// ErrNoRefreshToken is returned when a refresh is requested without a refresh token
	ErrNoRefreshToken = errors.New("no refresh token")

	// ErrEmptyToken is returned when the backend answers a login without a token
	ErrEmptyToken = errors.New("no token in response")

	// ErrUnsuccessful is returned when the envelope reports success=false on a 2xx response
	ErrUnsuccessful = errors.New("request was not successful")
)

type serviceKey struct{}

// WithService tags ctx with the backend service a call is addressed to
func WithService(ctx context.Context, s Service) context.Context {
	return context.WithValue(ctx, serviceKey{}, s)
}

// ServiceFromContext returns the service tagged by WithService
func ServiceFromContext(ctx context.Context) (Service, bool) {
	s, ok := ctx.Value(serviceKey{}).(Service)
	return s, ok
}
