package streamly

import (
	"context"
	"net/http"
	"net/url"
	"time"

	"github.com/eshaffer321/streamly-go/internal/classify"
	"github.com/eshaffer321/streamly-go/internal/interceptor"
	"github.com/eshaffer321/streamly-go/internal/retry"
	"github.com/eshaffer321/streamly-go/internal/types"
	"github.com/getsentry/sentry-go"
)

// RequestConfig carries per-call query parameters and headers
type RequestConfig struct {
	Params url.Values
	Header http.Header
}

// Get performs a GET against a service path
func (c *Client) Get(ctx context.Context, service Service, path string, cfg *RequestConfig, out interface{}) error {
	return c.call(ctx, http.MethodGet, service, path, nil, cfg, out)
}

// Post performs a POST with a JSON body
func (c *Client) Post(ctx context.Context, service Service, path string, body interface{}, cfg *RequestConfig, out interface{}) error {
	return c.call(ctx, http.MethodPost, service, path, body, cfg, out)
}

// Put performs a PUT with a JSON body
func (c *Client) Put(ctx context.Context, service Service, path string, body interface{}, cfg *RequestConfig, out interface{}) error {
	return c.call(ctx, http.MethodPut, service, path, body, cfg, out)
}

// Patch performs a PATCH with a JSON body
func (c *Client) Patch(ctx context.Context, service Service, path string, body interface{}, cfg *RequestConfig, out interface{}) error {
	return c.call(ctx, http.MethodPatch, service, path, body, cfg, out)
}

// Delete performs a DELETE
func (c *Client) Delete(ctx context.Context, service Service, path string, cfg *RequestConfig, out interface{}) error {
	return c.call(ctx, http.MethodDelete, service, path, nil, cfg, out)
}

// GetWithRetry performs a GET, retrying retryable failures with exponential
// backoff: MaxRetries+1 attempts, waiting InitialDelay*2^n after attempt n.
// A nil rc uses the client's RetryConfig, or 3 retries from 1s. The error of
// the final attempt is returned.
func (c *Client) GetWithRetry(ctx context.Context, service Service, path string, cfg *RequestConfig, out interface{}, rc *RetryConfig) error {
	schedule := c.retrySchedule(rc)

	_, err := retry.Run(ctx, retry.Policy{
		Schedule:  schedule,
		Retryable: classify.IsRetryable,
		Clock:     c.clock,
		OnRetry: func(attempt int, err error, delay time.Duration) {
			if c.options.Logger != nil {
				c.options.Logger.Warn("Retrying request",
					"service", service,
					"path", path,
					"attempt", attempt+1,
					"delay", delay,
					"error", err)
			}
		},
	}, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, c.do(ctx, http.MethodGet, service, path, nil, cfg, out)
	})
	if err != nil {
		err = classify.Error(err)
		c.capture(ctx, http.MethodGet, service, path, err)
		return err
	}
	return nil
}

func (c *Client) retrySchedule(rc *RetryConfig) retry.Schedule {
	if rc == nil {
		rc = c.options.RetryConfig
	}
	if rc == nil {
		return retry.Schedule{MaxRetries: types.DefaultMaxRetries, InitialDelay: types.DefaultRetryDelay}
	}
	return retry.Schedule{MaxRetries: rc.MaxRetries, InitialDelay: rc.InitialDelay}
}

func (c *Client) call(ctx context.Context, method string, service Service, path string, body interface{}, cfg *RequestConfig, out interface{}) error {
	err := c.do(ctx, method, service, path, body, cfg, out)
	if err != nil {
		c.capture(ctx, method, service, path, err)
	}
	return err
}

func (c *Client) do(ctx context.Context, method string, service Service, path string, body interface{}, cfg *RequestConfig, out interface{}) error {
	req := &interceptor.Request{
		Service: service,
		Method:  method,
		URL:     path,
		Body:    body,
		Header:  http.Header{},
	}
	if cfg != nil {
		req.Params = cfg.Params
		for k, vs := range cfg.Header {
			req.Header[k] = append([]string(nil), vs...)
		}
	}
	return c.transport.Do(ctx, req, out)
}

// capture reports failures to Sentry. Client-side errors the caller caused
// (validation, not found, auth) are not reported.
func (c *Client) capture(ctx context.Context, method string, service Service, path string, err error) {
	if !c.sentry {
		return
	}
	switch types.KindOf(err) {
	case types.KindValidation, types.KindNotFound, types.KindUnauthorized, types.KindForbidden, types.KindBadRequest:
		return
	}

	hub := sentry.GetHubFromContext(ctx)
	if hub == nil {
		hub = sentry.CurrentHub()
	}
	hub.WithScope(func(scope *sentry.Scope) {
		scope.SetTag("streamly.service", string(service))
		scope.SetTag("http.method", method)
		scope.SetTag("error.kind", string(types.KindOf(err)))
		scope.SetContext("request", map[string]interface{}{
			"path": path,
		})
		hub.CaptureException(err)
	})
}
