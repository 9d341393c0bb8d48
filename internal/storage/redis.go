package storage

import (
	"context"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

// RedisStore keeps all keys in one redis hash, so Clear is a single DEL.
// Useful when several processes (CLI, MCP server) should share one login.
type RedisStore struct {
	client *redis.Client
	key    string
}

// NewRedisStore creates a store using hash key under client
func NewRedisStore(client *redis.Client, key string) *RedisStore {
	if key == "" {
		key = "streamly:session"
	}
	return &RedisStore{client: client, key: key}
}

func (s *RedisStore) Get(ctx context.Context, field string) (string, bool, error) {
	v, err := s.client.HGet(ctx, s.key, field).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, errors.Wrapf(err, "redis hget %s", field)
	}
	return v, true, nil
}

func (s *RedisStore) Set(ctx context.Context, field, value string) error {
	if err := s.client.HSet(ctx, s.key, field, value).Err(); err != nil {
		return errors.Wrapf(err, "redis hset %s", field)
	}
	return nil
}

func (s *RedisStore) Delete(ctx context.Context, fields ...string) error {
	if len(fields) == 0 {
		return nil
	}
	if err := s.client.HDel(ctx, s.key, fields...).Err(); err != nil {
		return errors.Wrap(err, "redis hdel")
	}
	return nil
}

func (s *RedisStore) Clear(ctx context.Context) error {
	if err := s.client.Del(ctx, s.key).Err(); err != nil {
		return errors.Wrap(err, "redis del")
	}
	return nil
}
