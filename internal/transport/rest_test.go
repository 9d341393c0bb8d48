package transport

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"
	"time"

	"github.com/eshaffer321/streamly-go/internal/interceptor"
	"github.com/eshaffer321/streamly-go/internal/storage"
	"github.com/eshaffer321/streamly-go/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type movie struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

func newTestTransport(t *testing.T, handler http.HandlerFunc, adapter *storage.Adapter) (*RESTTransport, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	if adapter == nil {
		adapter = storage.NewAdapter(nil, nil, storage.PolicySession, nil)
	}

	tr := NewRESTTransport(&Options{
		Endpoints: map[types.Service]string{types.ServiceMovie: server.URL + "/"},
		DeviceID:  "device-1",
		Chain:     interceptor.Default(adapter, adapter, nil, false),
	})
	return tr, server
}

func TestRESTTransport_DecodesEnvelope(t *testing.T) {
	ctx := context.Background()
	adapter := storage.NewAdapter(nil, nil, storage.PolicySession, nil)
	require.NoError(t, adapter.SetToken(ctx, "tok"))

	var seen *http.Request
	tr, _ := newTestTransport(t, func(w http.ResponseWriter, r *http.Request) {
		seen = r
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"success": true,
			"data":    movie{ID: "m1", Title: "Heat"},
		})
	}, adapter)

	var got movie
	err := tr.Do(ctx, &interceptor.Request{
		Service: types.ServiceMovie,
		Method:  http.MethodGet,
		URL:     "/api/movies/m1",
		Params:  url.Values{"lang": {"en"}},
	}, &got)
	require.NoError(t, err)

	assert.Equal(t, movie{ID: "m1", Title: "Heat"}, got)
	require.NotNil(t, seen)
	assert.Equal(t, "/api/movies/m1", seen.URL.Path)
	assert.Equal(t, "en", seen.URL.Query().Get("lang"))
	assert.Equal(t, "Bearer tok", seen.Header.Get("Authorization"))
	assert.Equal(t, "application/json", seen.Header.Get("Content-Type"))
	assert.Equal(t, types.UserAgent, seen.Header.Get("User-Agent"))
	assert.Equal(t, "device-1", seen.Header.Get("X-Device-ID"))
	assert.NotEmpty(t, seen.Header.Get("X-Request-ID"))
}

func TestRESTTransport_DecodesBareBody(t *testing.T) {
	tr, _ := newTestTransport(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[{"id":"a","title":"A"},{"id":"b","title":"B"}]`))
	}, nil)

	var got []movie
	require.NoError(t, tr.Do(context.Background(), &interceptor.Request{
		Service: types.ServiceMovie, Method: http.MethodGet, URL: "/api/movies",
	}, &got))
	assert.Len(t, got, 2)
}

func TestRESTTransport_SendsJSONBody(t *testing.T) {
	var body map[string]interface{}
	tr, _ := newTestTransport(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		data, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(data, &body)
		w.WriteHeader(http.StatusNoContent)
	}, nil)

	err := tr.Do(context.Background(), &interceptor.Request{
		Service: types.ServiceMovie,
		Method:  http.MethodPut,
		URL:     "/api/movies/m1/progress",
		Body:    map[string]interface{}{"progress": 42},
	}, nil)
	require.NoError(t, err)
	assert.Equal(t, float64(42), body["progress"])
}

func TestRESTTransport_UnsuccessfulEnvelope(t *testing.T) {
	tr, _ := newTestTransport(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"success":false,"message":"Nope"}`))
	}, nil)

	err := tr.Do(context.Background(), &interceptor.Request{
		Service: types.ServiceMovie, Method: http.MethodGet, URL: "/api/movies",
	}, &[]movie{})

	assert.ErrorIs(t, err, types.ErrUnsuccessful)
	assert.Equal(t, "Nope", err.Error())
}

func TestRESTTransport_ErrorStatusIsClassified(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		kind    types.ErrorKind
		message string
	}{
		{"not found", 404, `{"detail":"Movie not found"}`, types.KindNotFound, "Movie not found"},
		{"validation", 422, `{"detail":{"message":"Invalid","errors":{"title":["required"]}}}`, types.KindValidation, "Invalid"},
		{"rate limited", 429, `{"detail":"slow down"}`, types.KindRateLimited, "Too many requests. Please wait a moment before trying again."},
		{"server", 503, `<html>down</html>`, types.KindServer, "An error occurred"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr, _ := newTestTransport(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}, nil)

			err := tr.Do(context.Background(), &interceptor.Request{
				Service: types.ServiceMovie, Method: http.MethodGet, URL: "/api/movies",
			}, nil)

			var apiErr *types.Error
			require.ErrorAs(t, err, &apiErr)
			assert.Equal(t, tt.kind, apiErr.Kind)
			assert.Equal(t, tt.message, apiErr.Message)
			assert.Equal(t, tt.status, apiErr.StatusCode)
			assert.NotEmpty(t, apiErr.RequestID)
		})
	}
}

func TestRESTTransport_UnauthorizedClearsStoredSession(t *testing.T) {
	ctx := context.Background()
	adapter := storage.NewAdapter(nil, nil, storage.PolicyPersistent, nil)
	require.NoError(t, adapter.SaveSession(ctx, &types.Session{
		Token: "expired",
		User:  &types.UserProfile{ID: "u1", Username: "sam"},
	}))

	tr, _ := newTestTransport(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"detail":"Token expired"}`))
	}, adapter)

	err := tr.Do(ctx, &interceptor.Request{
		Service: types.ServiceMovie, Method: http.MethodGet, URL: "/api/movies/continue-watching",
	}, nil)
	assert.Equal(t, types.KindUnauthorized, types.KindOf(err))

	tok, err := adapter.GetToken(ctx)
	require.NoError(t, err)
	assert.Empty(t, tok)
	user, err := adapter.GetUser(ctx)
	require.NoError(t, err)
	assert.Nil(t, user)
}

func TestRESTTransport_NoResponseIsNetwork(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	base := server.URL
	server.Close()

	tr := NewRESTTransport(&Options{
		Endpoints: map[types.Service]string{types.ServiceMovie: base},
	})

	err := tr.Do(context.Background(), &interceptor.Request{
		Service: types.ServiceMovie, Method: http.MethodGet, URL: "/api/movies",
	}, nil)
	assert.Equal(t, types.KindNetwork, types.KindOf(err))
}

func TestRESTTransport_TimeoutIsNetwork(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	t.Cleanup(func() {
		close(release)
		server.Close()
	})

	tr := NewRESTTransport(&Options{
		Endpoints:  map[types.Service]string{types.ServiceMovie: server.URL},
		HTTPClient: &http.Client{Timeout: 50 * time.Millisecond},
	})

	err := tr.Do(context.Background(), &interceptor.Request{
		Service: types.ServiceMovie, Method: http.MethodGet, URL: "/api/movies",
	}, nil)
	assert.Equal(t, types.KindNetwork, types.KindOf(err))
}

func TestRESTTransport_UnknownServiceIsAnError(t *testing.T) {
	tr := NewRESTTransport(nil)

	err := tr.Do(context.Background(), &interceptor.Request{
		Service: types.ServiceBook, Method: http.MethodGet, URL: "/api/books",
	}, nil)

	var apiErr *types.Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, types.KindUnknown, apiErr.Kind)
	assert.Contains(t, apiErr.Message, "book")
}

func TestRESTTransport_KeepsServerCookies(t *testing.T) {
	var sawCookie atomic.Bool
	tr, _ := newTestTransport(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api/auth/login" {
			http.SetCookie(w, &http.Cookie{Name: "refresh_token", Value: "r1", Path: "/"})
			return
		}
		if c, err := r.Cookie("refresh_token"); err == nil && c.Value == "r1" {
			sawCookie.Store(true)
		}
	}, nil)

	ctx := context.Background()
	req := func(path string) *interceptor.Request {
		return &interceptor.Request{Service: types.ServiceMovie, Method: http.MethodPost, URL: path}
	}
	require.NoError(t, tr.Do(ctx, req("/api/auth/login"), nil))
	require.NoError(t, tr.Do(ctx, req("/api/auth/refresh"), nil))
	assert.True(t, sawCookie.Load())
}

type stubLimiter struct {
	calls int
	err   error
}

func (l *stubLimiter) Wait(context.Context) error {
	l.calls++
	return l.err
}

func TestRESTTransport_LimiterGatesRequests(t *testing.T) {
	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
	}))
	t.Cleanup(server.Close)

	limiter := &stubLimiter{err: errors.New("limiter closed")}
	tr := NewRESTTransport(&Options{
		Endpoints: map[types.Service]string{types.ServiceMovie: server.URL},
		Limiter:   limiter,
	})

	err := tr.Do(context.Background(), &interceptor.Request{
		Service: types.ServiceMovie, Method: http.MethodGet, URL: "/api/movies",
	}, nil)

	assert.Error(t, err)
	assert.Equal(t, 1, limiter.calls)
	assert.Equal(t, int32(0), hits.Load())
}

func TestRESTTransport_Hooks(t *testing.T) {
	var (
		requests  int
		responses int
		failures  []error
		service   types.Service
	)
	hooks := &types.Hooks{
		OnRequest: func(ctx context.Context, _ *http.Request) {
			requests++
			service, _ = types.ServiceFromContext(ctx)
		},
		OnResponse: func(context.Context, *http.Response, time.Duration) { responses++ },
		OnError:    func(_ context.Context, err error) { failures = append(failures, err) },
	}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	t.Cleanup(server.Close)

	tr := NewRESTTransport(&Options{
		Endpoints: map[types.Service]string{types.ServiceMovie: server.URL},
		Hooks:     hooks,
	})

	_ = tr.Do(context.Background(), &interceptor.Request{
		Service: types.ServiceMovie, Method: http.MethodGet, URL: "/api/movies",
	}, nil)

	assert.Equal(t, 1, requests)
	assert.Equal(t, 1, responses)
	require.Len(t, failures, 1)
	assert.Equal(t, types.KindForbidden, types.KindOf(failures[0]))
	assert.Equal(t, types.ServiceMovie, service)
}
