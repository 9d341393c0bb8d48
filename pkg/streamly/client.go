package streamly

import (
	"context"
	"net/http"
	"time"

	"github.com/eshaffer321/streamly-go/internal/auth"
	"github.com/eshaffer321/streamly-go/internal/config"
	"github.com/eshaffer321/streamly-go/internal/interceptor"
	"github.com/eshaffer321/streamly-go/internal/metrics"
	"github.com/eshaffer321/streamly-go/internal/storage"
	"github.com/eshaffer321/streamly-go/internal/token"
	"github.com/eshaffer321/streamly-go/internal/transport"
	"github.com/eshaffer321/streamly-go/internal/types"
	"github.com/getsentry/sentry-go"
	"github.com/jonboulle/clockwork"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"
)

const (
	// DefaultTimeout is the default HTTP client timeout
	DefaultTimeout = types.DefaultTimeout

	// UserAgent is the user agent string
	UserAgent = types.UserAgent
)

// Client is the main Streamly API client
type Client struct {
	// Service interfaces
	Auth          AuthService
	Users         UserService
	Movies        MovieService
	Books         BookService
	Collections   CollectionService
	Comments      CommentService
	Ratings       RatingService
	Notifications NotificationService

	// Internal fields
	transport Transport
	rest      *transport.RESTTransport
	options   *ClientOptions
	session   *auth.Service
	clock     clockwork.Clock
	sentry    bool
	closers   []func() error
}

// ClientOptions configures the client
type ClientOptions struct {
	// Endpoints overrides per-service base URLs; missing services use the
	// localhost defaults
	Endpoints map[Service]string

	// HTTPClient allows using a custom HTTP client
	HTTPClient *http.Client

	// Timeout sets the overall deadline of a single request
	Timeout time.Duration

	// PersistentStore keeps "remember me" sessions and preferences across
	// restarts. Defaults to memory.
	PersistentStore Store

	// SessionStore keeps sessions for the lifetime of the process. Defaults to memory.
	SessionStore Store

	// Logger for debug logging
	Logger Logger

	// Development turns on request/response debug logging
	Development bool

	// RetryConfig sets the GetWithRetry defaults (3 retries, 1s initial delay)
	RetryConfig *RetryConfig

	// RateLimiter for rate limiting
	RateLimiter RateLimiter

	// RateLimit builds a token bucket limiter of this many requests per
	// second when RateLimiter is nil
	RateLimit float64

	// Hooks for observability
	Hooks *Hooks

	// MetricsRegisterer enables Prometheus request metrics when set
	MetricsRegisterer prometheus.Registerer

	// SentryDSN enables Sentry error tracking when set
	SentryDSN string

	// SentryOptions allows custom Sentry configuration
	SentryOptions *sentry.ClientOptions

	// DeviceID is sent as X-Device-ID; generated when empty
	DeviceID string

	// Clock drives token expiry checks and retry waits
	Clock clockwork.Clock
}

// Logger interface for logging
type Logger = types.Logger

// RateLimiter interface for rate limiting
type RateLimiter interface {
	Wait(ctx context.Context) error
}

// Transport handles HTTP communication
type Transport interface {
	Do(ctx context.Context, req *interceptor.Request, out interface{}) error
}

// NewClient creates a new Streamly client
func NewClient(opts *ClientOptions) (*Client, error) {
	if opts == nil {
		opts = &ClientOptions{}
	}

	sentryEnabled := initSentry(opts)

	endpoints := config.DefaultEndpoints(types.DefaultBackendHost)
	for s, base := range opts.Endpoints {
		endpoints[s] = base
	}

	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: DefaultTimeout}
	}
	if opts.Timeout > 0 {
		copied := *httpClient
		copied.Timeout = opts.Timeout
		httpClient = &copied
	}

	clock := opts.Clock
	if clock == nil {
		clock = clockwork.NewRealClock()
	}

	persistent := opts.PersistentStore
	if persistent == nil {
		persistent = storage.NewMemoryStore()
	}
	sessionStore := opts.SessionStore
	if sessionStore == nil {
		sessionStore = storage.NewMemoryStore()
	}

	// Remember-me is read once at startup and fixes where session writes go
	policy := storage.RecordedPolicy(context.Background(), persistent)
	adapter := storage.NewAdapter(persistent, sessionStore, policy, opts.Logger)

	hooks := opts.Hooks
	if opts.MetricsRegisterer != nil {
		hooks = metrics.NewRequestMetrics(opts.MetricsRegisterer).Hooks(hooks)
	}

	var limiter transport.Limiter
	switch {
	case opts.RateLimiter != nil:
		limiter = opts.RateLimiter
	case opts.RateLimit > 0:
		burst := int(opts.RateLimit)
		if burst < 1 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(opts.RateLimit), burst)
	}

	trans := transport.NewRESTTransport(&transport.Options{
		Endpoints:  endpoints,
		HTTPClient: httpClient,
		DeviceID:   opts.DeviceID,
		Chain:      interceptor.Default(adapter, adapter, opts.Logger, opts.Development),
		Limiter:    limiter,
		Logger:     opts.Logger,
		Hooks:      hooks,
	})

	c := &Client{
		transport: trans,
		rest:      trans,
		options:   opts,
		clock:     clock,
		sentry:    sentryEnabled,
		session: auth.NewService(auth.Options{
			Transport: trans,
			Storage:   adapter,
			Inspector: token.NewInspector(clock, types.DefaultExpiryThreshold),
			Jar:       trans.Jar(),
			AuthURL:   endpoints[ServiceAuth],
			Logger:    opts.Logger,
		}),
	}

	c.initServices()

	return c, nil
}

// NewClientFromEnv creates a client configured from STREAMLY_* environment
// variables and an optional ./.env file. Fields already set in opts win.
func NewClientFromEnv(opts *ClientOptions) (*Client, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, errors.Wrap(err, "failed to load configuration")
	}

	merged := ClientOptions{}
	if opts != nil {
		merged = *opts
	}

	endpoints := make(map[Service]string, len(cfg.Endpoints))
	for s, base := range cfg.Endpoints {
		endpoints[s] = base
	}
	for s, base := range merged.Endpoints {
		endpoints[s] = base
	}
	merged.Endpoints = endpoints

	if cfg.Development {
		merged.Development = true
	}
	if merged.SentryDSN == "" {
		merged.SentryDSN = cfg.SentryDSN
	}
	if merged.RateLimit == 0 {
		merged.RateLimit = cfg.RateLimit
	}

	var redisClient *redis.Client
	if merged.PersistentStore == nil && cfg.RedisURL != "" {
		redisOpts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			return nil, errors.Wrap(err, "invalid redis url")
		}
		redisClient = redis.NewClient(redisOpts)
		merged.PersistentStore = storage.NewRedisStore(redisClient, "")
	}

	c, err := NewClient(&merged)
	if err != nil {
		return nil, err
	}
	if redisClient != nil {
		c.closers = append(c.closers, redisClient.Close)
	}
	return c, nil
}

func initSentry(opts *ClientOptions) bool {
	if opts.SentryDSN == "" && opts.SentryOptions == nil {
		return false
	}

	sentryOpts := sentry.ClientOptions{}
	if opts.SentryOptions != nil {
		sentryOpts = *opts.SentryOptions
	}
	if opts.SentryDSN != "" {
		sentryOpts.Dsn = opts.SentryDSN
	}
	if sentryOpts.Environment == "" {
		sentryOpts.Environment = "production"
		if opts.Development {
			sentryOpts.Environment = "development"
		}
	}

	if err := sentry.Init(sentryOpts); err != nil {
		// Log error but don't fail client creation
		if opts.Logger != nil {
			opts.Logger.Error("Failed to initialize Sentry", "error", err)
		}
		return false
	}
	return true
}

// initServices initializes all service implementations
func (c *Client) initServices() {
	c.Auth = &authService{client: c, session: c.session}
	c.Users = &userService{client: c}
	c.Movies = &movieService{client: c}
	c.Books = &bookService{client: c}
	c.Collections = &collectionService{client: c}
	c.Comments = &commentService{client: c}
	c.Ratings = &ratingService{client: c}
	c.Notifications = &notificationService{client: c}
}

// DeviceID returns the identifier sent as X-Device-ID on every request
func (c *Client) DeviceID() string {
	return c.rest.DeviceID()
}

// Endpoint returns the base URL requests to service are sent to
func (c *Client) Endpoint(service Service) string {
	return c.rest.BaseURL(service)
}

// Storage returns the session storage adapter
func (c *Client) Storage() *storage.Adapter {
	return c.session.Storage()
}

// Theme returns the stored UI theme
func (c *Client) Theme(ctx context.Context) (string, error) {
	return c.Storage().GetTheme(ctx)
}

// SetTheme stores the UI theme
func (c *Client) SetTheme(ctx context.Context, theme string) error {
	return c.Storage().SetTheme(ctx, theme)
}

// Language returns the stored language preference
func (c *Client) Language(ctx context.Context) (string, error) {
	return c.Storage().GetLanguage(ctx)
}

// SetLanguage stores the language preference
func (c *Client) SetLanguage(ctx context.Context, lang string) error {
	return c.Storage().SetLanguage(ctx, lang)
}

// ClearAll removes the session and every stored preference
func (c *Client) ClearAll(ctx context.Context) error {
	if err := c.Storage().ClearAuth(ctx); err != nil {
		return err
	}
	return c.Storage().ClearAll(ctx)
}

// Close flushes any pending Sentry events and releases stores
func (c *Client) Close() error {
	if c.sentry {
		sentry.Flush(2 * time.Second)
	}
	var firstErr error
	for _, closeFn := range c.closers {
		if err := closeFn(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
