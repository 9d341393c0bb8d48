// Package config resolves service endpoints and client settings from the
// environment, with optional .env files.
package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"

	"github.com/eshaffer321/streamly-go/internal/types"
	"github.com/joho/godotenv"
)

// Environment variables
const (
	EnvBackendHost     = "STREAMLY_BACKEND_HOST"
	EnvAuthURL         = "STREAMLY_AUTH_URL"
	EnvUserURL         = "STREAMLY_USER_URL"
	EnvMovieURL        = "STREAMLY_MOVIE_URL"
	EnvBookURL         = "STREAMLY_BOOK_URL"
	EnvCollectionURL   = "STREAMLY_COLLECTION_URL"
	EnvNotificationURL = "STREAMLY_NOTIFICATION_URL"
	EnvEnvironment     = "STREAMLY_ENV"
	EnvSentryDSN       = "STREAMLY_SENTRY_DSN"
	EnvRedisURL        = "STREAMLY_REDIS_URL"
	EnvRateLimit       = "STREAMLY_RATE_LIMIT"
)

var ports = map[types.Service]int{
	types.ServiceAuth:       8001,
	types.ServiceUser:       8002,
	types.ServiceMovie:      8003,
	types.ServiceBook:       8004,
	types.ServiceCollection: 8005,
}

var overrides = map[types.Service]string{
	types.ServiceAuth:         EnvAuthURL,
	types.ServiceUser:         EnvUserURL,
	types.ServiceMovie:        EnvMovieURL,
	types.ServiceBook:         EnvBookURL,
	types.ServiceCollection:   EnvCollectionURL,
	types.ServiceNotification: EnvNotificationURL,
}

// Config is the resolved client configuration
type Config struct {
	BackendHost string
	Endpoints   map[types.Service]string
	Development bool
	SentryDSN   string
	RedisURL    string
	// RateLimit is requests per second; zero means unlimited
	RateLimit float64
}

// Loader reads configuration from the process environment and .env files.
// Process variables win over file values.
type Loader struct {
	files  []string
	lookup func(string) (string, bool)
}

// NewLoader creates a loader that also reads the given .env files. With no
// files it tries ".env" in the working directory.
func NewLoader(files ...string) *Loader {
	return &Loader{files: files, lookup: os.LookupEnv}
}

// WithLookup overrides the environment lookup (useful for tests)
func (l *Loader) WithLookup(fn func(string) (string, bool)) *Loader {
	if fn != nil {
		l.lookup = fn
	}
	return l
}

// Load resolves the configuration
func (l *Loader) Load() (*Config, error) {
	fileVars, err := l.readFiles()
	if err != nil {
		return nil, err
	}

	get := func(key, def string) string {
		if v, ok := l.lookup(key); ok && strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
		if v := strings.TrimSpace(fileVars[key]); v != "" {
			return v
		}
		return def
	}

	cfg := &Config{
		BackendHost: strings.TrimRight(get(EnvBackendHost, types.DefaultBackendHost), "/"),
		Endpoints:   make(map[types.Service]string, len(types.Services)),
		Development: strings.EqualFold(get(EnvEnvironment, "production"), "development"),
		SentryDSN:   get(EnvSentryDSN, ""),
		RedisURL:    get(EnvRedisURL, ""),
	}

	if _, err := url.ParseRequestURI(cfg.BackendHost); err != nil {
		return nil, fmt.Errorf("%s must be an absolute URL: %w", EnvBackendHost, err)
	}

	defaults := DefaultEndpoints(cfg.BackendHost)
	for _, s := range types.Services {
		endpoint := strings.TrimRight(get(overrides[s], defaults[s]), "/")
		if _, err := url.ParseRequestURI(endpoint); err != nil {
			return nil, fmt.Errorf("%s must be an absolute URL: %w", overrides[s], err)
		}
		cfg.Endpoints[s] = endpoint
	}

	if raw := get(EnvRateLimit, ""); raw != "" {
		rps, err := strconv.ParseFloat(raw, 64)
		if err != nil || rps < 0 {
			return nil, fmt.Errorf("%s must be a non-negative number, got %q", EnvRateLimit, raw)
		}
		cfg.RateLimit = rps
	}

	return cfg, nil
}

func (l *Loader) readFiles() (map[string]string, error) {
	files := l.files
	optional := false
	if len(files) == 0 {
		files = []string{".env"}
		optional = true
	}

	vars := map[string]string{}
	for _, f := range files {
		if _, err := os.Stat(f); err != nil && optional {
			continue
		}
		read, err := godotenv.Read(f)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", f, err)
		}
		for k, v := range read {
			if _, seen := vars[k]; !seen {
				vars[k] = v
			}
		}
	}
	return vars, nil
}

// Load reads configuration from the environment and an optional ./.env
func Load() (*Config, error) {
	return NewLoader().Load()
}

// DefaultEndpoints returns the hardcoded per-service URLs for a host.
// Notifications are served by the collection service.
func DefaultEndpoints(host string) map[types.Service]string {
	host = strings.TrimRight(host, "/")
	endpoints := make(map[types.Service]string, len(types.Services))
	for s, port := range ports {
		endpoints[s] = fmt.Sprintf("%s:%d", host, port)
	}
	endpoints[types.ServiceNotification] = endpoints[types.ServiceCollection]
	return endpoints
}
