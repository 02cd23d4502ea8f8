package repository

import (
	"context"
	"sync"

	"github.com/okian/streak/internal/domain/model"
)

// MemoryBackend keeps collections in process memory.
type MemoryBackend struct {
	mu    sync.RWMutex
	users map[string][]model.DayLog
}

// NewMemoryBackend returns an empty in-memory backend.
func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{users: make(map[string][]model.DayLog)}
}

// Name implements Backend.
func (m *MemoryBackend) Name() string { return "memory" }

// Load implements Backend.
func (m *MemoryBackend) Load(ctx context.Context, userID string) ([]model.DayLog, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]model.DayLog(nil), m.users[userID]...), nil
}

// Save implements Backend.
func (m *MemoryBackend) Save(ctx context.Context, userID string, logs []model.DayLog) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(logs) == 0 {
		delete(m.users, userID)
		return nil
	}
	m.users[userID] = append([]model.DayLog(nil), logs...)
	return nil
}

// Users returns the number of users holding at least one record.
func (m *MemoryBackend) Users() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.users)
}
