package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/noah-isme/sma-dash-client/pkg/config"
	apperrors "github.com/noah-isme/sma-dash-client/pkg/errors"
)

const redisOpTimeout = 3 * time.Second

// RedisStore keeps session credentials in Redis, for kiosk or shared-lab
// terminals where the dashboard session must survive process restarts but
// follow the device, not the filesystem.
type RedisStore struct {
	client *redis.Client
	prefix string
}

// NewRedisStore connects to Redis and verifies the connection.
func NewRedisStore(cfg config.RedisConfig, prefix string) (*RedisStore, error) {
	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)

	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("connect redis session store: %w", err)
	}

	if prefix == "" {
		prefix = "smadash"
	}
	return &RedisStore{client: client, prefix: prefix}, nil
}

// Get returns the stored value or ErrKeyNotFound.
func (s *RedisStore) Get(key string) (string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), redisOpTimeout)
	defer cancel()

	value, err := s.client.Get(ctx, s.key(key)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", ErrKeyNotFound
		}
		return "", apperrors.Wrap(err, apperrors.KindStorage, "REDIS_GET", 0, "failed to read session key")
	}
	return value, nil
}

// Set writes the value without expiry; session lifetime is owned by the
// session manager, not the store.
func (s *RedisStore) Set(key, value string) error {
	ctx, cancel := context.WithTimeout(context.Background(), redisOpTimeout)
	defer cancel()

	if err := s.client.Set(ctx, s.key(key), value, 0).Err(); err != nil {
		return apperrors.Wrap(err, apperrors.KindStorage, "REDIS_SET", 0, "failed to write session key")
	}
	return nil
}

// Delete removes the key if present.
func (s *RedisStore) Delete(key string) error {
	ctx, cancel := context.WithTimeout(context.Background(), redisOpTimeout)
	defer cancel()

	if err := s.client.Del(ctx, s.key(key)).Err(); err != nil {
		return apperrors.Wrap(err, apperrors.KindStorage, "REDIS_DEL", 0, "failed to delete session key")
	}
	return nil
}

// Close releases the underlying connection.
func (s *RedisStore) Close() error {
	return s.client.Close()
}

func (s *RedisStore) key(key string) string {
	return s.prefix + ":" + key
}
