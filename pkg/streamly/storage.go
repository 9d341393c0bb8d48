package streamly

import (
	"os"
	"path/filepath"

	"github.com/eshaffer321/streamly-go/internal/storage"
	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

// Store is a string key/value backend for sessions and preferences
type Store = storage.Store

// NewMemoryStore creates an in-process store
func NewMemoryStore() Store {
	return storage.NewMemoryStore()
}

// NewFileStore creates a store persisted as JSON at path
func NewFileStore(path string) Store {
	return storage.NewFileStore(path)
}

// NewRedisStore creates a store kept in a redis hash. An empty key uses
// "streamly:session".
func NewRedisStore(client *redis.Client, key string) Store {
	return storage.NewRedisStore(client, key)
}

// DefaultSessionFile returns the session file under the user config directory
func DefaultSessionFile() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", errors.Wrap(err, "failed to locate config directory")
	}
	return filepath.Join(dir, "streamly", "session.json"), nil
}
