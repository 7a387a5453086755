package identity

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/tapstand/kiosk/core"
)

// RedisStore persists identity in Redis, for deployments where a kiosk
// fleet shares a backend rather than local disk.
type RedisStore struct {
	client *redis.Client
	prefix string
	logger core.Logger
}

// NewRedisStore connects to Redis at redisURL and verifies the
// connection with a ping before returning.
func NewRedisStore(redisURL, prefix string, logger core.Logger) (*RedisStore, error) {
	if logger == nil {
		logger = &core.NoOpLogger{}
	}
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", core.ErrInvalidConfiguration)
	}

	client := redis.NewClient(opt)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis ping: %v: %w", err, core.ErrConnectionFailed)
	}

	logger.Info("Connected to Redis identity store", map[string]interface{}{
		"operation": "identity.NewRedisStore",
		"prefix":    prefix,
	})
	return &RedisStore{client: client, prefix: prefix, logger: logger}, nil
}

func (s *RedisStore) key(k string) string {
	if s.prefix == "" {
		return "kiosk:identity:" + k
	}
	return s.prefix + ":identity:" + k
}

func (s *RedisStore) Get(ctx context.Context, key string) (string, error) {
	val, err := s.client.Get(ctx, s.key(key)).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("redis get %s: %w", key, err)
	}
	return val, nil
}

func (s *RedisStore) Set(ctx context.Context, key, value string) error {
	if err := s.client.Set(ctx, s.key(key), value, 0).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

func (s *RedisStore) Delete(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, s.key(key)).Err(); err != nil {
		return fmt.Errorf("redis del %s: %w", key, err)
	}
	return nil
}

func (s *RedisStore) Exists(ctx context.Context, key string) (bool, error) {
	n, err := s.client.Exists(ctx, s.key(key)).Result()
	if err != nil {
		return false, fmt.Errorf("redis exists %s: %w", key, err)
	}
	return n > 0, nil
}

// Close releases the underlying connection pool
func (s *RedisStore) Close() error {
	return s.client.Close()
}
