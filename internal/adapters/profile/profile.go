// Package profile keeps the last known current streak per user, the value the
// member dashboard shows without recomputing.
package profile

import (
	"context"
	"errors"
	"strconv"
	"sync"

	"github.com/go-redis/redis/v8"
)

// Cache is the profile collaborator notified when a user's current streak changes.
type Cache interface {
	// CurrentStreak returns the stored value and whether one is known.
	CurrentStreak(ctx context.Context, userID string) (int, bool, error)
	// UpdateStreak stores a new current streak.
	UpdateStreak(ctx context.Context, userID string, current int) error
}

// Memory is an in-process Cache.
type Memory struct {
	mu      sync.RWMutex
	streaks map[string]int
}

// NewMemory returns an empty Memory cache.
func NewMemory() *Memory {
	return &Memory{streaks: make(map[string]int)}
}

// CurrentStreak implements Cache.
func (m *Memory) CurrentStreak(_ context.Context, userID string) (int, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.streaks[userID]
	return v, ok, nil
}

// UpdateStreak implements Cache.
func (m *Memory) UpdateStreak(_ context.Context, userID string, current int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.streaks[userID] = current
	return nil
}

// Len returns the number of users with a known streak.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.streaks)
}

const (
	profileKeyPrefix   = "profile::"
	currentStreakField = "currentStreak"
)

// Redis keeps the streak in the hash profile::<user>, field currentStreak.
type Redis struct {
	client redis.Cmdable
}

// NewRedis wraps an existing redis client.
func NewRedis(client redis.Cmdable) *Redis {
	return &Redis{client: client}
}

// Key returns the profile hash key for a user.
func Key(userID string) string { return profileKeyPrefix + userID }

// CurrentStreak implements Cache.
func (r *Redis) CurrentStreak(ctx context.Context, userID string) (int, bool, error) {
	s, err := r.client.HGet(ctx, Key(userID), currentStreakField).Result()
	if errors.Is(err, redis.Nil) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0, false, err
	}
	return v, true, nil
}

// UpdateStreak implements Cache.
func (r *Redis) UpdateStreak(ctx context.Context, userID string, current int) error {
	return r.client.HSet(ctx, Key(userID), currentStreakField, current).Err()
}
