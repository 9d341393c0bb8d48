package interceptor

import (
	"context"
	"fmt"

	"github.com/eshaffer321/streamly-go/internal/classify"
	"github.com/eshaffer321/streamly-go/internal/types"
)

const authHeaderKey = "Authorization"

// TokenSource supplies the current access token ("" when logged out)
type TokenSource interface {
	GetToken(ctx context.Context) (string, error)
}

// AuthClearer drops the stored session
type AuthClearer interface {
	ClearAuth(ctx context.Context) error
}

// Auth attaches "Authorization: Bearer <token>" when a token is stored. An
// Authorization header set by the caller is left alone.
func Auth(source TokenSource, logger types.Logger) RequestFunc {
	return func(ctx context.Context, req *Request) error {
		if req.Header.Get(authHeaderKey) != "" {
			return nil
		}

		token, err := source.GetToken(ctx)
		if err != nil {
			// Public endpoints still work without a token
			if logger != nil {
				logger.Warn("Could not read access token", "error", err)
			}
			return nil
		}
		if token != "" {
			req.Header.Set(authHeaderKey, fmt.Sprintf("Bearer %s", token))
		}
		return nil
	}
}

// Logging writes debug lines for requests and responses. It is a no-op
// unless enabled (development mode) and never logs headers or bodies.
type Logging struct {
	logger  types.Logger
	enabled bool
}

// NewLogging creates the logging interceptor
func NewLogging(logger types.Logger, enabled bool) *Logging {
	return &Logging{logger: logger, enabled: enabled && logger != nil}
}

// Request is the request-side hook
func (l *Logging) Request(_ context.Context, req *Request) error {
	if l.enabled {
		l.logger.Debug("API request", "service", req.Service, "method", req.Method, "url", req.URL, "params", req.Params.Encode())
	}
	return nil
}

func (l *Logging) OnResponse(_ context.Context, resp *Response) (*Response, error) {
	if l.enabled {
		l.logger.Debug("API response",
			"service", resp.Request.Service,
			"method", resp.Request.Method,
			"url", resp.Request.URL,
			"status", resp.StatusCode,
			"duration", resp.Duration,
			"size", len(resp.Body))
	}
	return resp, nil
}

func (l *Logging) OnError(_ context.Context, req *Request, err error) error {
	if l.enabled {
		kv := []interface{}{"error", err}
		if req != nil {
			kv = append(kv, "service", req.Service, "method", req.Method, "url", req.URL)
		}
		l.logger.Debug("API error", kv...)
	}
	return err
}

// Errors classifies failures and drops the session on Unauthorized. It does
// not redirect or prompt; callers decide how to ask for a new login.
type Errors struct {
	clearer AuthClearer
	logger  types.Logger
}

// NewErrors creates the error interceptor
func NewErrors(clearer AuthClearer, logger types.Logger) *Errors {
	return &Errors{clearer: clearer, logger: logger}
}

func (e *Errors) OnResponse(_ context.Context, resp *Response) (*Response, error) {
	return resp, nil
}

func (e *Errors) OnError(ctx context.Context, _ *Request, err error) error {
	classified := classify.Error(err)

	if classified.Kind == types.KindUnauthorized && e.clearer != nil {
		if clearErr := e.clearer.ClearAuth(ctx); clearErr != nil && e.logger != nil {
			e.logger.Error("Failed to clear session after 401", "error", clearErr)
		}
	}

	return classified
}

// Default builds the standard chain: auth then logging on the way out,
// logging then error classification on the way back
func Default(source TokenSource, clearer AuthClearer, logger types.Logger, development bool) *Chain {
	logging := NewLogging(logger, development)
	return NewChain(
		[]RequestFunc{Auth(source, logger), logging.Request},
		[]ResponseHandler{logging, NewErrors(clearer, logger)},
	)
}
