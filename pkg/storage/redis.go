package storage

import (
	"context"
	"errors"
	"fmt"

	redis "github.com/redis/go-redis/v9"
)

type redisStore struct {
	client redis.Cmdable
	prefix string
}

// NewRedisStore returns a Store backed by Redis. All keys are
// namespaced under the given prefix so several instances can share one
// database.
func NewRedisStore(client redis.Cmdable, prefix string) Store {
	return &redisStore{
		client: client,
		prefix: prefix,
	}
}

func (r *redisStore) Get(ctx context.Context, key string) (string, error) {
	value, err := r.client.Get(ctx, r.prefix+key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", nil
		}
		return "", fmt.Errorf("redis get '%s': %w", key, err)
	}
	return value, nil
}

func (r *redisStore) Set(ctx context.Context, key, value string) error {
	if err := r.client.Set(ctx, r.prefix+key, value, 0).Err(); err != nil {
		return fmt.Errorf("redis set '%s': %w", key, err)
	}
	return nil
}

func (r *redisStore) Delete(ctx context.Context, key string) error {
	if err := r.client.Del(ctx, r.prefix+key).Err(); err != nil {
		return fmt.Errorf("redis delete '%s': %w", key, err)
	}
	return nil
}
