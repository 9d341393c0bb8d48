package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"github.com/eshaffer321/streamly-go/internal/classify"
	"github.com/eshaffer321/streamly-go/internal/interceptor"
	"github.com/eshaffer321/streamly-go/internal/types"
	"github.com/google/uuid"
	"github.com/hashicorp/go-retryablehttp"
	"github.com/pkg/errors"
)

const (
	contentType     = "application/json"
	requestIDHeader = "X-Request-ID"
	deviceIDHeader  = "X-Device-ID"
)

// Limiter gates outgoing requests. *rate.Limiter satisfies it.
type Limiter interface {
	Wait(ctx context.Context) error
}

// RESTTransport sends JSON requests to the backend services through the
// interceptor chain
type RESTTransport struct {
	endpoints   map[types.Service]string
	httpClient  *http.Client
	retryClient *retryablehttp.Client
	headers     map[string]string
	deviceID    string
	chain       *interceptor.Chain
	limiter     Limiter
	logger      types.Logger
	hooks       *types.Hooks
}

// envelope is the {success, data} wrapper most endpoints answer with
type envelope struct {
	Success *bool           `json:"success"`
	Data    json.RawMessage `json:"data"`
	Message string          `json:"message"`
}

// NewRESTTransport creates a new REST transport
func NewRESTTransport(opts *Options) *RESTTransport {
	if opts == nil {
		opts = &Options{}
	}

	endpoints := make(map[types.Service]string, len(opts.Endpoints))
	for s, base := range opts.Endpoints {
		endpoints[s] = strings.TrimRight(base, "/")
	}

	// Credentials: the refresh cookie rides along with every request
	httpClient := &http.Client{Timeout: types.DefaultTimeout}
	if opts.HTTPClient != nil {
		copied := *opts.HTTPClient
		httpClient = &copied
	}
	if httpClient.Jar == nil {
		jar, _ := cookiejar.New(nil)
		httpClient.Jar = jar
	}

	// Dispatch goes through retryablehttp with its own retries off; repeat
	// attempts are owned by GetWithRetry
	retryClient := retryablehttp.NewClient()
	retryClient.HTTPClient = httpClient
	retryClient.RetryMax = 0
	retryClient.CheckRetry = func(context.Context, *http.Response, error) (bool, error) {
		return false, nil
	}
	retryClient.ErrorHandler = retryablehttp.PassthroughErrorHandler
	retryClient.Logger = nil
	if opts.Logger != nil {
		retryClient.Logger = &retryLogger{logger: opts.Logger}
	}

	headers := map[string]string{
		"Accept":       contentType,
		"Content-Type": contentType,
		"User-Agent":   types.UserAgent,
	}
	for k, v := range opts.Headers {
		headers[k] = v
	}

	deviceID := opts.DeviceID
	if deviceID == "" {
		deviceID = uuid.NewString()
	}

	chain := opts.Chain
	if chain == nil {
		chain = interceptor.NewChain(nil, nil)
	}

	return &RESTTransport{
		endpoints:   endpoints,
		httpClient:  httpClient,
		retryClient: retryClient,
		headers:     headers,
		deviceID:    deviceID,
		chain:       chain,
		limiter:     opts.Limiter,
		logger:      opts.Logger,
		hooks:       opts.Hooks,
	}
}

// BaseURL returns the configured base URL of a service
func (t *RESTTransport) BaseURL(s types.Service) string {
	return t.endpoints[s]
}

// DeviceID returns the per-client device identifier
func (t *RESTTransport) DeviceID() string {
	return t.deviceID
}

// Jar returns the cookie jar holding server-set credentials
func (t *RESTTransport) Jar() http.CookieJar {
	return t.httpClient.Jar
}

// Do runs req through the chain, sends it and decodes the result into out.
// Paths starting with "/" are resolved against the service's base URL. Every
// failure comes back as a classified *types.Error.
func (t *RESTTransport) Do(ctx context.Context, req *interceptor.Request, out interface{}) error {
	ctx = types.WithService(ctx, req.Service)

	if strings.HasPrefix(req.URL, "/") {
		base, ok := t.endpoints[req.Service]
		if !ok {
			return t.fail(ctx, req, errors.Errorf("no endpoint configured for service %q", req.Service))
		}
		req.URL = base + req.URL
	}

	if err := t.chain.PrepareRequest(ctx, req); err != nil {
		t.reportError(ctx, err)
		return err
	}

	if t.limiter != nil {
		if err := t.limiter.Wait(ctx); err != nil {
			return t.fail(ctx, req, &classify.Raw{Method: req.Method, URL: req.URL, Err: err})
		}
	}

	httpReq, err := t.newHTTPRequest(ctx, req)
	if err != nil {
		return t.fail(ctx, req, err)
	}
	requestID := httpReq.Header.Get(requestIDHeader)

	if t.hooks != nil && t.hooks.OnRequest != nil {
		t.hooks.OnRequest(ctx, httpReq)
	}

	start := time.Now()
	resp, err := t.doRequest(httpReq)
	duration := time.Since(start)

	if err != nil {
		return t.fail(ctx, req, &classify.Raw{
			Method:    req.Method,
			URL:       req.URL,
			Err:       err,
			RequestID: requestID,
		})
	}
	defer resp.Body.Close()

	if t.hooks != nil && t.hooks.OnResponse != nil {
		t.hooks.OnResponse(ctx, resp, duration)
	}

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return t.fail(ctx, req, &classify.Raw{
			Method:    req.Method,
			URL:       req.URL,
			Err:       errors.Wrap(err, "failed to read response"),
			RequestID: requestID,
		})
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return t.fail(ctx, req, &classify.Raw{
			Method:     req.Method,
			URL:        req.URL,
			Responded:  true,
			StatusCode: resp.StatusCode,
			Body:       respBody,
			RequestID:  requestID,
		})
	}

	result, err := t.chain.HandleResponse(ctx, &interceptor.Response{
		Request:    req,
		StatusCode: resp.StatusCode,
		Header:     resp.Header,
		Body:       respBody,
		Duration:   duration,
	})
	if err != nil {
		t.reportError(ctx, err)
		return err
	}

	if err := decode(result.StatusCode, result.Body, out); err != nil {
		return t.fail(ctx, req, err)
	}
	return nil
}

func (t *RESTTransport) newHTTPRequest(ctx context.Context, req *interceptor.Request) (*http.Request, error) {
	target := req.URL
	if len(req.Params) > 0 {
		u, err := url.Parse(target)
		if err != nil {
			return nil, errors.Wrap(err, "invalid request url")
		}
		q := u.Query()
		for k, vs := range req.Params {
			for _, v := range vs {
				q.Add(k, v)
			}
		}
		u.RawQuery = q.Encode()
		target = u.String()
	}

	var body io.Reader
	if req.Body != nil {
		data, err := json.Marshal(req.Body)
		if err != nil {
			return nil, errors.Wrap(err, "failed to marshal request")
		}
		body = bytes.NewReader(data)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, target, body)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create request")
	}

	for k, v := range t.headers {
		httpReq.Header.Set(k, v)
	}
	httpReq.Header.Set(deviceIDHeader, t.deviceID)
	httpReq.Header.Set(requestIDHeader, uuid.NewString())

	// Interceptor headers win over defaults
	for k, vs := range req.Header {
		httpReq.Header.Del(k)
		for _, v := range vs {
			httpReq.Header.Add(k, v)
		}
	}

	return httpReq, nil
}

// doRequest dispatches through the retryablehttp client
func (t *RESTTransport) doRequest(req *http.Request) (*http.Response, error) {
	retryReq, err := retryablehttp.FromRequest(req)
	if err != nil {
		return nil, err
	}
	return t.retryClient.Do(retryReq)
}

// fail sends err through the error chain and reports the classified result
func (t *RESTTransport) fail(ctx context.Context, req *interceptor.Request, err error) error {
	classified := t.chain.HandleError(ctx, req, err)
	t.reportError(ctx, classified)
	return classified
}

func (t *RESTTransport) reportError(ctx context.Context, err error) {
	if t.hooks != nil && t.hooks.OnError != nil {
		t.hooks.OnError(ctx, err)
	}
}

// decode unwraps the {success, data} envelope into out. Bodies without an
// envelope are decoded as-is.
func decode(status int, body []byte, out interface{}) error {
	if len(bytes.TrimSpace(body)) == 0 {
		return nil
	}

	var env envelope
	if err := json.Unmarshal(body, &env); err == nil && (env.Success != nil || env.Data != nil) {
		if env.Success != nil && !*env.Success {
			msg := env.Message
			if msg == "" {
				msg = types.ErrUnsuccessful.Error()
			}
			return &types.Error{
				Kind:       types.KindUnknown,
				Message:    msg,
				StatusCode: status,
				Err:        types.ErrUnsuccessful,
			}
		}
		if out == nil || len(env.Data) == 0 || string(env.Data) == "null" {
			return nil
		}
		return errors.Wrap(json.Unmarshal(env.Data, out), "failed to unmarshal result")
	}

	if out == nil {
		return nil
	}
	return errors.Wrap(json.Unmarshal(body, out), "failed to parse response")
}

// Options for the REST transport
type Options struct {
	Endpoints  map[types.Service]string
	HTTPClient *http.Client
	Headers    map[string]string
	DeviceID   string
	Chain      *interceptor.Chain
	Limiter    Limiter
	Logger     types.Logger
	Hooks      *types.Hooks
}

// retryLogger adapts our logger to retryablehttp
type retryLogger struct {
	logger types.Logger
}

func (l *retryLogger) Error(msg string, keysAndValues ...interface{}) {
	l.logger.Error(msg, keysAndValues...)
}

func (l *retryLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Info(msg, keysAndValues...)
}

func (l *retryLogger) Debug(msg string, keysAndValues ...interface{}) {
	l.logger.Debug(msg, keysAndValues...)
}

func (l *retryLogger) Warn(msg string, keysAndValues ...interface{}) {
	l.logger.Warn(msg, keysAndValues...)
}
