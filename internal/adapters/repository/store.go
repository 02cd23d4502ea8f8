// Package repository holds the per-user day log store and the backends it
// persists through.
package repository

import (
	"context"
	"sync"
	"time"

	"github.com/okian/streak/internal/domain/model"
	"github.com/okian/streak/pkg/logger"
	"github.com/okian/streak/pkg/metrics"
)

// Backend persists one user's whole day log collection. Implementations never
// see partial reads or writes: Load returns everything, Save replaces everything.
type Backend interface {
	// Name identifies the backend in logs and metrics.
	Name() string
	// Load returns the user's collection. A user with no data yields an empty slice.
	Load(ctx context.Context, userID string) ([]model.DayLog, error)
	// Save replaces the user's collection.
	Save(ctx context.Context, userID string, logs []model.DayLog) error
}

// Store is the day log store. Every call is a full read of the user's
// collection followed, for mutations, by a single full write.
type Store struct {
	backend Backend
	logger  logger.Logger
	locks   sync.Map // userID -> *sync.Mutex
}

// NewStore creates a Store on top of backend.
func NewStore(backend Backend, opts ...Option) *Store {
	s := &Store{
		backend: backend,
		logger:  logger.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Backend returns the underlying backend.
func (s *Store) Backend() Backend { return s.backend }

// Get returns the record for date, if any.
func (s *Store) Get(ctx context.Context, userID string, date model.Date) (model.DayLog, bool, error) {
	unlock, err := s.lock(userID)
	if err != nil {
		return model.DayLog{}, false, err
	}
	defer unlock()

	c, err := s.load(ctx, "get", userID)
	if err != nil {
		return model.DayLog{}, false, err
	}
	l, ok := c[date]
	return l, ok, nil
}

// Upsert creates or merges the record for date and returns the stored result.
func (s *Store) Upsert(ctx context.Context, userID string, date model.Date, p model.Patch) (model.DayLog, error) {
	unlock, err := s.lock(userID)
	if err != nil {
		return model.DayLog{}, err
	}
	defer unlock()

	c, err := s.load(ctx, "upsert", userID)
	if err != nil {
		return model.DayLog{}, err
	}
	l, ok := c[date]
	if !ok {
		l = model.DayLog{Date: date}
	}
	l = l.Apply(p)
	c[date] = l
	if err := s.save(ctx, "upsert", userID, c); err != nil {
		return model.DayLog{}, err
	}
	return l, nil
}

// Remove deletes the record for date. It reports whether a record existed.
func (s *Store) Remove(ctx context.Context, userID string, date model.Date) (bool, error) {
	unlock, err := s.lock(userID)
	if err != nil {
		return false, err
	}
	defer unlock()

	c, err := s.load(ctx, "remove", userID)
	if err != nil {
		return false, err
	}
	if _, ok := c[date]; !ok {
		return false, nil
	}
	delete(c, date)
	if err := s.save(ctx, "remove", userID, c); err != nil {
		return false, err
	}
	return true, nil
}

// List returns every record, newest first.
func (s *Store) List(ctx context.Context, userID string) ([]model.DayLog, error) {
	unlock, err := s.lock(userID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	c, err := s.load(ctx, "list", userID)
	if err != nil {
		return nil, err
	}
	logs := c.logs()
	model.SortDescending(logs)
	return logs, nil
}

// Count returns the number of stored records.
func (s *Store) Count(ctx context.Context, userID string) (int, error) {
	unlock, err := s.lock(userID)
	if err != nil {
		return 0, err
	}
	defer unlock()

	c, err := s.load(ctx, "count", userID)
	if err != nil {
		return 0, err
	}
	return len(c), nil
}

// Apply commits a batch of mutations with one read and at most one write.
// It returns how many mutations changed the collection. Nothing is written
// when no mutation had an effect.
func (s *Store) Apply(ctx context.Context, userID string, batch []model.Mutation) (int, error) {
	unlock, err := s.lock(userID)
	if err != nil {
		return 0, err
	}
	defer unlock()

	c, err := s.load(ctx, "apply", userID)
	if err != nil {
		return 0, err
	}

	changed := 0
	for _, m := range batch {
		cur, ok := c[m.Date]
		if m.Remove {
			if ok {
				delete(c, m.Date)
				changed++
			}
			continue
		}
		if !ok {
			cur = model.DayLog{Date: m.Date}
		}
		next := cur.Apply(m.Patch)
		if !ok || next != cur {
			changed++
		}
		c[m.Date] = next
	}

	if changed == 0 {
		return 0, nil
	}
	if err := s.save(ctx, "apply", userID, c); err != nil {
		return 0, err
	}
	return changed, nil
}

// lock validates userID before a mutex is allocated for it.
func (s *Store) lock(userID string) (func(), error) {
	if err := model.ValidateUserID(userID); err != nil {
		return nil, err
	}
	v, _ := s.locks.LoadOrStore(userID, &sync.Mutex{})
	mu := v.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock, nil
}

func (s *Store) load(ctx context.Context, op, userID string) (collection, error) {
	start := time.Now()
	logs, err := s.backend.Load(ctx, userID)
	metrics.RecordStoreOperation(s.backend.Name(), "load", metrics.Since(start))
	if err != nil {
		metrics.RecordStoreError(s.backend.Name(), "load")
		s.logger.Debug(ctx, "day log load failed",
			logger.String("op", op),
			logger.String("user", userID),
			logger.String("backend", s.backend.Name()),
			logger.Error(err),
		)
		return nil, wrap("repository."+op, ErrStoreRead, err)
	}
	c := make(collection, len(logs))
	for _, l := range logs {
		c[l.Date] = l
	}
	return c, nil
}

func (s *Store) save(ctx context.Context, op, userID string, c collection) error {
	start := time.Now()
	err := s.backend.Save(ctx, userID, c.logs())
	metrics.RecordStoreOperation(s.backend.Name(), "save", metrics.Since(start))
	if err != nil {
		metrics.RecordStoreError(s.backend.Name(), "save")
		s.logger.Debug(ctx, "day log save failed",
			logger.String("op", op),
			logger.String("user", userID),
			logger.String("backend", s.backend.Name()),
			logger.Error(err),
		)
		return wrap("repository."+op, ErrStoreWrite, err)
	}
	return nil
}

// collection indexes one user's logs by date.
type collection map[model.Date]model.DayLog

// logs returns the collection ordered oldest first.
func (c collection) logs() []model.DayLog {
	out := make([]model.DayLog, 0, len(c))
	for _, l := range c {
		out = append(out, l)
	}
	model.SortAscending(out)
	return out
}
