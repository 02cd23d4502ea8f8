package repository

import (
	"context"
	"errors"

	"github.com/go-redis/redis/v8"

	"github.com/okian/streak/internal/domain/model"
)

const dayLogsKeyPrefix = "daylogs::"

// RedisBackend keeps each collection as a JSON string under daylogs::<user>.
type RedisBackend struct {
	client redis.Cmdable
}

// NewRedisBackend wraps an existing redis client.
func NewRedisBackend(client redis.Cmdable) *RedisBackend {
	return &RedisBackend{client: client}
}

// Name implements Backend.
func (r *RedisBackend) Name() string { return "redis" }

// DayLogsKey returns the redis key holding a user's collection.
func DayLogsKey(userID string) string { return dayLogsKeyPrefix + userID }

// Load implements Backend.
func (r *RedisBackend) Load(ctx context.Context, userID string) ([]model.DayLog, error) {
	b, err := r.client.Get(ctx, DayLogsKey(userID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return decode(b)
}

// Save implements Backend. An empty collection deletes the key.
func (r *RedisBackend) Save(ctx context.Context, userID string, logs []model.DayLog) error {
	if len(logs) == 0 {
		return r.client.Del(ctx, DayLogsKey(userID)).Err()
	}
	b, err := encode(logs)
	if err != nil {
		return err
	}
	return r.client.Set(ctx, DayLogsKey(userID), b, 0).Err()
}
