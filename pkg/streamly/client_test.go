package streamly

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func ok(data interface{}) map[string]interface{} {
	return map[string]interface{}{"success": true, "data": data}
}

func failure(msg string) map[string]interface{} {
	return map[string]interface{}{"detail": map[string]interface{}{"success": false, "error": msg}}
}

func signedToken(t *testing.T, ttl time.Duration) string {
	t.Helper()
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "u1",
		"exp": time.Now().Add(ttl).Unix(),
	}).SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return tok
}

// newTestClient points every service at one test server
func newTestClient(t *testing.T, handler http.Handler, opts *ClientOptions) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	if opts == nil {
		opts = &ClientOptions{}
	}
	opts.Endpoints = map[Service]string{
		ServiceAuth:         server.URL,
		ServiceUser:         server.URL,
		ServiceMovie:        server.URL,
		ServiceBook:         server.URL,
		ServiceCollection:   server.URL,
		ServiceNotification: server.URL,
	}
	if opts.RetryConfig == nil {
		opts.RetryConfig = &RetryConfig{MaxRetries: 3, InitialDelay: time.Millisecond}
	}

	client, err := NewClient(opts)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func TestNewClient_Defaults(t *testing.T) {
	client, err := NewClient(nil)
	require.NoError(t, err)
	defer client.Close()

	assert.NotNil(t, client.Auth)
	assert.NotNil(t, client.Users)
	assert.NotNil(t, client.Movies)
	assert.NotNil(t, client.Books)
	assert.NotNil(t, client.Collections)
	assert.NotNil(t, client.Comments)
	assert.NotNil(t, client.Ratings)
	assert.NotNil(t, client.Notifications)
	assert.False(t, client.Auth.IsAuthenticated(context.Background()))
}

func TestClient_DeviceAndEndpoint(t *testing.T) {
	var device string
	mux := http.NewServeMux()
	mux.HandleFunc("/api/movies/genres", func(w http.ResponseWriter, r *http.Request) {
		device = r.Header.Get("X-Device-ID")
		writeJSON(w, http.StatusOK, ok([]string{"Drama"}))
	})
	client := newTestClient(t, mux, &ClientOptions{DeviceID: "device-7"})

	_, err := client.Movies.Genres(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "device-7", device)
	assert.Equal(t, "device-7", client.DeviceID())
	assert.Equal(t, client.Endpoint(ServiceAuth), client.Endpoint(ServiceMovie))
	assert.True(t, strings.HasPrefix(client.Endpoint(ServiceMovie), "http://127.0.0.1:"))

	generated, err := NewClient(nil)
	require.NoError(t, err)
	defer generated.Close()
	assert.NotEmpty(t, generated.DeviceID())
}

func TestGetWithRetry_RecoversFromServerErrors(t *testing.T) {
	var hits int32
	mux := http.NewServeMux()
	mux.HandleFunc("/api/movies/trending", func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&hits, 1) < 3 {
			writeJSON(w, http.StatusServiceUnavailable, failure("busy"))
			return
		}
		writeJSON(w, http.StatusOK, ok(map[string]interface{}{
			"movies": []map[string]interface{}{{"id": "m1", "title": "Heat"}},
		}))
	})
	client := newTestClient(t, mux, nil)

	movies, err := client.Movies.Trending(context.Background(), 5)
	require.NoError(t, err)
	require.Len(t, movies, 1)
	assert.Equal(t, "Heat", movies[0].Title)
	assert.Equal(t, int32(3), atomic.LoadInt32(&hits))
}

func TestGetWithRetry_ExhaustsWithBackoff(t *testing.T) {
	var hits int32
	mux := http.NewServeMux()
	mux.HandleFunc("/api/movies/genres", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		writeJSON(w, http.StatusServiceUnavailable, failure("down"))
	})

	clock := clockwork.NewFakeClock()
	client := newTestClient(t, mux, &ClientOptions{
		Clock:       clock,
		RetryConfig: &RetryConfig{MaxRetries: 3, InitialDelay: time.Second},
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		var genres []string
		done <- client.GetWithRetry(ctx, ServiceMovie, "/api/movies/genres", nil, &genres, nil)
	}()

	for i := 0; i < 3; i++ {
		require.NoError(t, clock.BlockUntilContext(ctx, 1))
		clock.Advance(time.Second << i)
	}

	err := <-done
	require.Error(t, err)
	assert.Equal(t, KindServer, KindOf(err))
	assert.Equal(t, "down", err.(*Error).Message)
	assert.Equal(t, int32(4), atomic.LoadInt32(&hits))
}

func TestGetWithRetry_DoesNotRetryClientErrors(t *testing.T) {
	var hits int32
	mux := http.NewServeMux()
	mux.HandleFunc("/api/movies/missing", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		writeJSON(w, http.StatusNotFound, failure("Movie not found"))
	})
	client := newTestClient(t, mux, nil)

	_, err := client.Movies.Get(context.Background(), "missing")
	require.Error(t, err)
	assert.Equal(t, KindNotFound, KindOf(err))
	assert.Equal(t, "Movie not found", FriendlyMessage(err))
	assert.False(t, IsRetryable(err))
	assert.Equal(t, int32(1), atomic.LoadInt32(&hits))
}

func TestGetWithRetry_CancelledDuringWait(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/books", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusBadGateway, failure("bad gateway"))
	})

	clock := clockwork.NewFakeClock()
	client := newTestClient(t, mux, &ClientOptions{Clock: clock})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		_, err := client.Books.List(ctx, nil)
		done <- err
	}()

	waitCtx, waitCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer waitCancel()
	require.NoError(t, clock.BlockUntilContext(waitCtx, 1))
	cancel()

	err := <-done
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestServices_Routes(t *testing.T) {
	type hit struct{ method, path, query string }
	var got hit

	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		got = hit{r.Method, r.URL.EscapedPath(), r.URL.RawQuery}
		writeJSON(w, http.StatusOK, ok(nil))
	})
	client := newTestClient(t, mux, nil)
	ctx := context.Background()

	tests := []struct {
		name string
		call func() error
		want hit
	}{
		{"profile", func() error { _, err := client.Users.Profile(ctx); return err },
			hit{"GET", "/api/users/profile", ""}},
		{"change password", func() error { return client.Users.ChangePassword(ctx, "old", "new") },
			hit{"POST", "/api/users/change-password", ""}},
		{"wallet", func() error { _, err := client.Users.Wallet(ctx, &PageQuery{Page: 2, Limit: 10}); return err },
			hit{"GET", "/api/users/wallet", "limit=10&page=2"}},
		{"clear history", func() error { return client.Users.ClearViewHistory(ctx) },
			hit{"DELETE", "/api/users/view-history", ""}},
		{"premium", func() error { _, err := client.Users.UpgradePremium(ctx, 30, 99000); return err },
			hit{"POST", "/api/users/premium/upgrade", ""}},
		{"movie search", func() error { _, err := client.Movies.Search(ctx, "heat", nil); return err },
			hit{"GET", "/api/movies/search", "q=heat"}},
		{"movie list", func() error {
			_, err := client.Movies.List(ctx, &MovieQuery{Genre: "Drama", IsPremium: Bool(false)})
			return err
		}, hit{"GET", "/api/movies", "genre=Drama&isPremium=false"}},
		{"by genre", func() error { _, err := client.Movies.ByGenre(ctx, "Sci Fi", nil); return err },
			hit{"GET", "/api/movies/genre/Sci%20Fi", ""}},
		{"movie of week", func() error { _, err := client.Movies.MovieOfTheWeek(ctx); return err },
			hit{"GET", "/api/movies/special/movie-of-week", ""}},
		{"movie progress", func() error { _, err := client.Movies.SaveProgress(ctx, "m1", 30, 120); return err },
			hit{"PUT", "/api/movies/m1/progress", ""}},
		{"watched", func() error { return client.Movies.MarkWatched(ctx, "m1") },
			hit{"POST", "/api/movies/m1/watched", ""}},
		{"chapter", func() error { _, err := client.Books.Chapter(ctx, "b1", 3); return err },
			hit{"GET", "/api/books/b1/chapters/3", ""}},
		{"book progress", func() error { _, err := client.Books.SaveProgress(ctx, "b1", 2); return err },
			hit{"PUT", "/api/books/b1/progress", ""}},
		{"continue reading", func() error { _, err := client.Books.ContinueReading(ctx); return err },
			hit{"GET", "/api/books/continue-reading", ""}},
		{"collections", func() error { _, err := client.Collections.List(ctx); return err },
			hit{"GET", "/api/collections", ""}},
		{"remove item", func() error { _, err := client.Collections.RemoveItem(ctx, "c1", "m1"); return err },
			hit{"DELETE", "/api/collections/c1/items/m1", ""}},
		{"public collections", func() error { _, err := client.Collections.Public(ctx, &PageQuery{Page: 1}); return err },
			hit{"GET", "/api/collections/public/browse", "page=1"}},
		{"collection search", func() error { _, err := client.Collections.Search(ctx, "noir"); return err },
			hit{"GET", "/api/collections/search/query", "q=noir"}},
		{"comments", func() error { _, err := client.Comments.List(ctx, ContentBook, "b1"); return err },
			hit{"GET", "/api/comments", "contentId=b1&contentType=book"}},
		{"report", func() error { return client.Comments.Report(ctx, "x1", "spam") },
			hit{"POST", "/api/comments/x1/report", ""}},
		{"rate book", func() error { _, err := client.Ratings.Rate(ctx, ContentBook, "b1", 4); return err },
			hit{"POST", "/api/books/b1/rate", ""}},
		{"delete rating", func() error { return client.Ratings.Delete(ctx, ContentMovie, "r1") },
			hit{"DELETE", "/api/ratings/r1", ""}},
		{"unread", func() error { _, err := client.Notifications.UnreadCount(ctx); return err },
			hit{"GET", "/api/notifications/unread/count", ""}},
		{"read all", func() error { return client.Notifications.MarkAllRead(ctx) },
			hit{"PATCH", "/api/notifications/read-all", ""}},
		{"mark read", func() error { return client.Notifications.MarkRead(ctx, "n1") },
			hit{"PATCH", "/api/notifications/n1/read", ""}},
		{"clear all", func() error { return client.Notifications.ClearAll(ctx) },
			hit{"DELETE", "/api/notifications/clear-all", ""}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got = hit{}
			require.NoError(t, tt.call())
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestServices_ValidateBeforeSending(t *testing.T) {
	var hits int32
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		writeJSON(w, http.StatusOK, ok(nil))
	})
	client := newTestClient(t, mux, nil)
	ctx := context.Background()

	_, err := client.Ratings.Rate(ctx, ContentMovie, "m1", 6)
	assert.Equal(t, KindValidation, KindOf(err))
	assert.Equal(t, "Rating must be between 1 and 5", FriendlyMessage(err))

	_, err = client.Ratings.Get(ctx, ContentType("podcast"), "p1")
	assert.Equal(t, KindValidation, KindOf(err))

	_, err = client.Comments.Create(ctx, &CommentInput{ContentType: ContentMovie, ContentID: "m1", Text: "  "})
	assert.Equal(t, KindValidation, KindOf(err))

	_, err = client.Auth.Login(ctx, "", "secret", false)
	assert.Equal(t, KindValidation, KindOf(err))

	assert.Equal(t, int32(0), atomic.LoadInt32(&hits))
}

func TestProgress_NullMeansNotStarted(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/movies/m1/progress", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, ok(nil))
	})
	client := newTestClient(t, mux, nil)

	progress, err := client.Movies.Progress(context.Background(), "m1")
	require.NoError(t, err)
	assert.Nil(t, progress)
}

func TestClient_LoginSurvivesReload(t *testing.T) {
	token := signedToken(t, time.Hour)
	var sawBearer atomic.Value

	mux := http.NewServeMux()
	mux.HandleFunc("/api/auth/login", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, ok(map[string]interface{}{
			"accessToken": token,
			"user":        map[string]interface{}{"id": "u1", "email": "sam@example.com", "role": "user"},
		}))
	})
	mux.HandleFunc("/api/users/profile", func(w http.ResponseWriter, r *http.Request) {
		sawBearer.Store(r.Header.Get("Authorization"))
		writeJSON(w, http.StatusOK, ok(map[string]interface{}{
			"id": "u1", "email": "sam@example.com", "role": "user", "walletBalance": 125.5,
		}))
	})

	persistent := NewMemoryStore()
	first := newTestClient(t, mux, &ClientOptions{PersistentStore: persistent})

	_, err := first.Auth.Login(context.Background(), "sam", "secret", true)
	require.NoError(t, err)

	// a new process with the same persistent store
	second := newTestClient(t, mux, &ClientOptions{PersistentStore: persistent})
	session, err := second.Auth.Rehydrate(context.Background())
	require.NoError(t, err)
	require.NotNil(t, session)
	assert.Equal(t, "u1", session.User.ID)

	profile, err := second.Users.Profile(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Bearer "+token, sawBearer.Load())
	assert.Equal(t, 125.5, profile.Balance())

	current, err := second.Auth.Current(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 125.5, current.User.Balance())
}

func TestClient_UnauthorizedClearsSession(t *testing.T) {
	token := signedToken(t, time.Hour)
	mux := http.NewServeMux()
	mux.HandleFunc("/api/auth/login", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, ok(map[string]interface{}{
			"accessToken": token,
			"user":        map[string]interface{}{"id": "u1", "role": "user"},
		}))
	})
	mux.HandleFunc("/api/notifications/unread/count", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusUnauthorized, failure("Token expired"))
	})
	client := newTestClient(t, mux, nil)
	ctx := context.Background()

	_, err := client.Auth.Login(ctx, "sam", "secret", false)
	require.NoError(t, err)
	require.True(t, client.Auth.IsAuthenticated(ctx))

	_, err = client.Notifications.UnreadCount(ctx)
	require.Error(t, err)
	assert.True(t, IsAuthError(err))
	assert.False(t, client.Auth.IsAuthenticated(ctx))
}

func TestClient_Preferences(t *testing.T) {
	client, err := NewClient(&ClientOptions{})
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, client.SetTheme(ctx, "dark"))
	require.NoError(t, client.SetLanguage(ctx, "vi"))

	theme, err := client.Theme(ctx)
	require.NoError(t, err)
	assert.Equal(t, "dark", theme)

	require.NoError(t, client.ClearAll(ctx))
	lang, err := client.Language(ctx)
	require.NoError(t, err)
	assert.Empty(t, lang)
}

func TestClient_Metrics(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/movies/genres", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, ok([]string{"Drama"}))
	})
	reg := prometheus.NewRegistry()
	client := newTestClient(t, mux, &ClientOptions{MetricsRegisterer: reg})

	genres, err := client.Movies.Genres(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"Drama"}, genres)

	count, err := testutil.GatherAndCount(reg, "streamly_client_http_requests_total")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}
