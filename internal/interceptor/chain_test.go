package interceptor

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"testing"

	"github.com/eshaffer321/streamly-go/internal/classify"
	"github.com/eshaffer321/streamly-go/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockSession provides both halves of the session interface
type MockSession struct {
	mock.Mock
}

func (m *MockSession) GetToken(ctx context.Context) (string, error) {
	args := m.Called(ctx)
	return args.String(0), args.Error(1)
}

func (m *MockSession) ClearAuth(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// recordingLogger captures log lines
type recordingLogger struct {
	mu    sync.Mutex
	lines []string
}

func (l *recordingLogger) record(level, msg string, kv []interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.lines = append(l.lines, fmt.Sprintf("%s %s %v", level, msg, kv))
}

func (l *recordingLogger) Debug(msg string, kv ...interface{}) { l.record("DEBUG", msg, kv) }
func (l *recordingLogger) Info(msg string, kv ...interface{})  { l.record("INFO", msg, kv) }
func (l *recordingLogger) Warn(msg string, kv ...interface{})  { l.record("WARN", msg, kv) }
func (l *recordingLogger) Error(msg string, kv ...interface{}) { l.record("ERROR", msg, kv) }

func newRequest() *Request {
	return &Request{
		Service: types.ServiceMovie,
		Method:  http.MethodGet,
		URL:     "http://localhost:8003/api/movies",
		Params:  url.Values{"page": {"1"}},
	}
}

func TestAuth_AttachesBearerToken(t *testing.T) {
	ctx := context.Background()
	session := new(MockSession)
	session.On("GetToken", ctx).Return("tok-123", nil)

	req := newRequest()
	chain := NewChain([]RequestFunc{Auth(session, nil)}, nil)
	require.NoError(t, chain.PrepareRequest(ctx, req))

	assert.Equal(t, "Bearer tok-123", req.Header.Get("Authorization"))
	session.AssertExpectations(t)
}

func TestAuth_NoTokenNoHeader(t *testing.T) {
	ctx := context.Background()
	session := new(MockSession)
	session.On("GetToken", ctx).Return("", nil)

	req := newRequest()
	require.NoError(t, NewChain([]RequestFunc{Auth(session, nil)}, nil).PrepareRequest(ctx, req))

	assert.Empty(t, req.Header.Get("Authorization"))
}

func TestAuth_KeepsExplicitHeader(t *testing.T) {
	ctx := context.Background()
	session := new(MockSession)

	req := newRequest()
	req.Header = http.Header{"Authorization": {"Bearer explicit"}}
	require.NoError(t, NewChain([]RequestFunc{Auth(session, nil)}, nil).PrepareRequest(ctx, req))

	assert.Equal(t, "Bearer explicit", req.Header.Get("Authorization"))
	session.AssertNotCalled(t, "GetToken", mock.Anything)
}

func TestAuth_StorageFailureContinuesWithoutToken(t *testing.T) {
	ctx := context.Background()
	logger := &recordingLogger{}
	session := new(MockSession)
	session.On("GetToken", ctx).Return("", errors.New("disk gone"))

	req := newRequest()
	require.NoError(t, NewChain([]RequestFunc{Auth(session, logger)}, nil).PrepareRequest(ctx, req))

	assert.Empty(t, req.Header.Get("Authorization"))
	require.Len(t, logger.lines, 1)
	assert.Contains(t, logger.lines[0], "WARN")
}

func TestChain_RequestOrderIsFixed(t *testing.T) {
	var order []string
	step := func(name string) RequestFunc {
		return func(_ context.Context, req *Request) error {
			order = append(order, name)
			req.Header.Add("X-Step", name)
			return nil
		}
	}

	funcs := []RequestFunc{step("first"), step("second")}
	chain := NewChain(funcs, nil)
	funcs[0] = step("replaced")

	req := newRequest()
	require.NoError(t, chain.PrepareRequest(context.Background(), req))

	assert.Equal(t, []string{"first", "second"}, order)
	assert.Equal(t, []string{"first", "second"}, req.Header.Values("X-Step"))
}

func TestChain_RequestFailureIsClassified(t *testing.T) {
	boom := errors.New("boom")
	chain := NewChain([]RequestFunc{func(context.Context, *Request) error { return boom }}, nil)

	err := chain.PrepareRequest(context.Background(), newRequest())

	var apiErr *types.Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, types.KindUnknown, apiErr.Kind)
	assert.ErrorIs(t, err, boom)
}

func TestErrors_UnauthorizedClearsAuthOnce(t *testing.T) {
	ctx := context.Background()
	session := new(MockSession)
	session.On("ClearAuth", ctx).Return(nil).Once()

	chain := Default(session, session, nil, false)
	req := newRequest()
	raw := &classify.Raw{
		Method:     req.Method,
		URL:        req.URL,
		Responded:  true,
		StatusCode: http.StatusUnauthorized,
		Body:       []byte(`{"detail":"Token expired"}`),
	}

	err := chain.HandleError(ctx, req, raw)

	var apiErr *types.Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, types.KindUnauthorized, apiErr.Kind)
	assert.Equal(t, "Token expired", apiErr.Message)
	assert.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)
	session.AssertNumberOfCalls(t, "ClearAuth", 1)
}

func TestErrors_OtherKindsKeepSession(t *testing.T) {
	tests := []struct {
		name   string
		status int
		kind   types.ErrorKind
	}{
		{"forbidden", http.StatusForbidden, types.KindForbidden},
		{"not found", http.StatusNotFound, types.KindNotFound},
		{"server", http.StatusBadGateway, types.KindServer},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			session := new(MockSession)
			chain := Default(session, session, nil, false)

			err := chain.HandleError(context.Background(), newRequest(), &classify.Raw{Responded: true, StatusCode: tt.status})

			assert.Equal(t, tt.kind, types.KindOf(err))
			session.AssertNotCalled(t, "ClearAuth", mock.Anything)
		})
	}
}

func TestErrors_ClearFailureStillReturnsUnauthorized(t *testing.T) {
	ctx := context.Background()
	logger := &recordingLogger{}
	session := new(MockSession)
	session.On("ClearAuth", ctx).Return(errors.New("locked"))

	err := NewChain(nil, []ResponseHandler{NewErrors(session, logger)}).
		HandleError(ctx, newRequest(), &classify.Raw{Responded: true, StatusCode: 401})

	assert.Equal(t, types.KindUnauthorized, types.KindOf(err))
	require.Len(t, logger.lines, 1)
	assert.Contains(t, logger.lines[0], "ERROR")
}

func TestChain_HandleErrorWithoutHandlersStillClassifies(t *testing.T) {
	err := NewChain(nil, nil).HandleError(context.Background(), newRequest(), &classify.Raw{Err: errors.New("dial tcp: refused")})

	assert.Equal(t, types.KindNetwork, types.KindOf(err))
}

func TestLogging_OnlyInDevelopment(t *testing.T) {
	ctx := context.Background()

	for _, dev := range []bool{true, false} {
		t.Run(fmt.Sprintf("development=%v", dev), func(t *testing.T) {
			logger := &recordingLogger{}
			session := new(MockSession)
			session.On("GetToken", ctx).Return("secret-token", nil)

			chain := Default(session, session, logger, dev)
			req := newRequest()
			require.NoError(t, chain.PrepareRequest(ctx, req))
			_, err := chain.HandleResponse(ctx, &Response{Request: req, StatusCode: 200, Body: []byte(`{}`)})
			require.NoError(t, err)

			if !dev {
				assert.Empty(t, logger.lines)
				return
			}
			require.Len(t, logger.lines, 2)
			assert.Contains(t, logger.lines[0], "API request")
			assert.Contains(t, logger.lines[1], "API response")
			for _, line := range logger.lines {
				assert.NotContains(t, line, "secret-token")
			}
		})
	}
}

type rewriting struct{ status int }

func (r rewriting) OnResponse(_ context.Context, resp *Response) (*Response, error) {
	out := *resp
	out.StatusCode = r.status
	return &out, nil
}

func (r rewriting) OnError(_ context.Context, _ *Request, err error) error { return err }

type rejecting struct{}

func (rejecting) OnResponse(_ context.Context, resp *Response) (*Response, error) {
	return nil, &classify.Raw{Responded: true, StatusCode: http.StatusUnauthorized, Body: []byte(`{"message":"revoked"}`)}
}

func (rejecting) OnError(_ context.Context, _ *Request, err error) error { return err }

func TestChain_HandleResponsePassesResultAlong(t *testing.T) {
	chain := NewChain(nil, []ResponseHandler{rewriting{status: 201}, rewriting{status: 202}})

	resp, err := chain.HandleResponse(context.Background(), &Response{Request: newRequest(), StatusCode: 200})
	require.NoError(t, err)
	assert.Equal(t, 202, resp.StatusCode)
}

func TestChain_HandleResponseRejectionRunsErrorPath(t *testing.T) {
	ctx := context.Background()
	session := new(MockSession)
	session.On("ClearAuth", ctx).Return(nil).Once()

	chain := NewChain(nil, []ResponseHandler{rejecting{}, NewErrors(session, nil)})

	resp, err := chain.HandleResponse(ctx, &Response{Request: newRequest(), StatusCode: 200})
	assert.Nil(t, resp)
	assert.Equal(t, types.KindUnauthorized, types.KindOf(err))
	assert.Equal(t, "revoked", err.Error())
	session.AssertExpectations(t)
}
