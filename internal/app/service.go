// Package service wires the streak engine together and implements the
// dependencies required by the HTTP API.
package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/coocood/freecache"
	"github.com/go-redis/redis/v8"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/okian/streak/internal/adapters/profile"
	"github.com/okian/streak/internal/adapters/repository"
	"github.com/okian/streak/internal/domain/dedupe"
	"github.com/okian/streak/internal/domain/edit"
	"github.com/okian/streak/internal/domain/model"
	"github.com/okian/streak/internal/domain/stats"
	"github.com/okian/streak/internal/domain/streak"
	"github.com/okian/streak/internal/domain/types"
	"github.com/okian/streak/pkg/logger"
	"github.com/okian/streak/pkg/metrics"
)

// summaryTTL bounds how long a cached summary may live even if never invalidated.
const summaryTTL = 10 * time.Minute

// Service implements the API dependencies of the streak engine.
type Service struct {
	mu sync.RWMutex

	// Configuration
	storage        string
	dataDir        string
	redisAddr      string
	redisDB        int
	redisPassword  string
	postgresDSN    string
	horizon        int
	window         int
	fallback       int
	strictBulk     bool
	maxBulkDates   int
	dedupeSize     int
	summaryCacheMB int
	loc            *time.Location
	now            func() time.Time

	// Core components
	backend   repository.Backend
	profile   profile.Cache
	store     *repository.Store
	calc      *streak.Calculator
	reporter  *stats.Reporter
	editor    *edit.Controller
	deduper   dedupe.Deduper
	summaries *freecache.Cache

	// Connections owned by the service
	redisClient *redis.Client
	pgPool      *pgxpool.Pool

	// Components built by Start rather than injected; dropped again on Stop.
	ownsBackend bool
	ownsProfile bool

	generations sync.Map // userID -> *atomic.Uint64

	started bool
	logger  logger.Logger
}

// New constructs a Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		storage:        "memory",
		dataDir:        "data",
		redisAddr:      "localhost:6379",
		horizon:        streak.DefaultHorizon,
		window:         stats.DefaultWindow,
		maxBulkDates:   edit.DefaultMaxBulkDates,
		dedupeSize:     dedupe.DefaultMaxSize,
		summaryCacheMB: 16,
		loc:            time.UTC,
		now:            time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start opens the configured backend and builds the engine components.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	if s.logger == nil {
		s.logger = logger.Get()
	}

	s.logger.Info(ctx, "starting streak service...", logger.String("storage", s.storage))

	if err := s.openBackend(ctx); err != nil {
		s.closeConnections()
		return fmt.Errorf("%w: %w", ErrStartup, err)
	}
	if s.profile == nil {
		s.profile = profile.NewMemory()
		s.ownsProfile = true
	}

	s.store = repository.NewStore(s.backend, repository.WithLogger(s.logger.Named("repository")))
	s.calc = streak.NewCalculator(streak.WithHorizon(s.horizon))
	s.reporter = stats.NewReporter(stats.WithWindow(s.window))
	s.editor = edit.NewController(s.store, s.profile, s.calc,
		edit.WithClock(s.now),
		edit.WithLocation(s.loc),
		edit.WithFallbackSeed(s.fallback),
		edit.WithStrictBulk(s.strictBulk),
		edit.WithMaxBulkDates(s.maxBulkDates),
		edit.WithLogger(s.logger.Named("edit")),
		edit.WithChangeHook(s.invalidate),
	)
	s.deduper = dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(s.dedupeSize))
	s.summaries = freecache.NewCache(s.summaryCacheMB * 1024 * 1024)

	s.started = true
	s.logger.Info(ctx, "streak service started",
		logger.String("backend", s.backend.Name()),
		logger.Int("horizonDays", s.horizon),
		logger.Int("statsWindowDays", s.window),
		logger.Int("dedupeSize", s.dedupeSize),
		logger.Bool("strictBulk", s.strictBulk),
	)
	return nil
}

func (s *Service) openBackend(ctx context.Context) error {
	if s.backend != nil {
		return nil
	}
	switch s.storage {
	case "memory":
		s.backend = repository.NewMemoryBackend()
	case "file":
		b, err := repository.NewFileBackend(s.dataDir)
		if err != nil {
			return err
		}
		s.backend = b
	case "redis":
		s.redisClient = redis.NewClient(&redis.Options{
			Addr:     s.redisAddr,
			DB:       s.redisDB,
			Password: s.redisPassword,
		})
		if err := s.redisClient.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("redis ping %s: %w", s.redisAddr, err)
		}
		s.backend = repository.NewRedisBackend(s.redisClient)
		if s.profile == nil {
			s.profile = profile.NewRedis(s.redisClient)
			s.ownsProfile = true
		}
	case "postgres":
		pool, err := repository.NewPostgresPool(ctx, s.postgresDSN)
		if err != nil {
			return err
		}
		s.pgPool = pool
		b := repository.NewPostgresBackend(pool)
		if err := b.EnsureSchema(ctx); err != nil {
			return err
		}
		s.backend = b
	default:
		return fmt.Errorf("unknown storage %q", s.storage)
	}
	s.ownsBackend = true
	return nil
}

// Stop releases the connections the service opened.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}
	s.logger.Info(context.Background(), "stopping streak service...")
	s.closeConnections()
	s.started = false
	s.logger.Info(context.Background(), "streak service stopped")
}

func (s *Service) closeConnections() {
	if s.redisClient != nil {
		if err := s.redisClient.Close(); err != nil && s.logger != nil {
			s.logger.Warn(context.Background(), "closing redis client", logger.Error(err))
		}
		s.redisClient = nil
	}
	if s.pgPool != nil {
		s.pgPool.Close()
		s.pgPool = nil
	}
	if s.ownsBackend {
		s.backend, s.ownsBackend = nil, false
	}
	if s.ownsProfile {
		s.profile, s.ownsProfile = nil, false
	}
}

func (s *Service) ready() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.started {
		return ErrNotStarted
	}
	return nil
}

// Today returns the reference date in the configured time zone.
func (s *Service) Today() model.Date {
	return model.Today(s.now(), s.loc)
}

// Toggle flips one flag of a day and returns the recomputed streak.
func (s *Service) Toggle(ctx context.Context, userID string, date model.Date, field model.Field) (edit.ToggleResult, error) {
	if err := s.ready(); err != nil {
		return edit.ToggleResult{}, err
	}
	return s.editor.Toggle(ctx, userID, date, field)
}

// BulkEdit applies action to every selected date.
func (s *Service) BulkEdit(ctx context.Context, userID string, dates []string, action edit.Action) (edit.BulkResult, error) {
	if err := s.ready(); err != nil {
		return edit.BulkResult{}, err
	}
	if err := model.ValidateUserID(userID); err != nil {
		return edit.BulkResult{}, err
	}
	return s.editor.BulkEdit(ctx, userID, dates, action)
}

// SetNotes replaces the notes of a day.
func (s *Service) SetNotes(ctx context.Context, userID string, date model.Date, notes string) (model.DayLog, error) {
	if err := s.ready(); err != nil {
		return model.DayLog{}, err
	}
	return s.editor.SetNotes(ctx, userID, date, notes)
}

// Streak returns the user's streak as of at. Results are cached until the
// user's collection changes. A result computed while the collection could not
// be read is returned but never cached.
func (s *Service) Streak(ctx context.Context, userID string, at model.Date) (types.Summary, error) {
	if err := s.ready(); err != nil {
		return types.Summary{}, err
	}
	if err := model.ValidateUserID(userID); err != nil {
		return types.Summary{}, err
	}

	key := s.summaryKey(userID, at)
	if b, err := s.summaries.Get(key); err == nil {
		var sum types.Summary
		if json.Unmarshal(b, &sum) == nil {
			metrics.RecordSummaryCacheLookup(true)
			return sum, nil
		}
	} else if !errors.Is(err, freecache.ErrNotFound) {
		s.logger.Warn(ctx, "summary cache read failed", logger.Error(err))
	}
	metrics.RecordSummaryCacheLookup(false)

	st, readErr := s.editor.Recompute(ctx, userID, at)
	if errors.Is(readErr, model.ErrInvalidUser) {
		return types.Summary{}, readErr
	}
	sum := types.Summary{User: userID, Date: at, Current: st.Current, Longest: st.Longest}
	if readErr != nil {
		return sum, nil
	}
	if b, err := json.Marshal(sum); err == nil {
		if err := s.summaries.Set(key, b, int(summaryTTL/time.Second)); err != nil {
			s.logger.Debug(ctx, "summary not cached", logger.String("user", userID), logger.Error(err))
		}
	}
	metrics.UpdateSummaryCacheEntries(s.summaries.EntryCount())
	return sum, nil
}

// Report returns the statistics window ending at at. A collection that cannot
// be read is reported as empty.
func (s *Service) Report(ctx context.Context, userID string, at model.Date) (stats.Report, error) {
	if err := s.ready(); err != nil {
		return stats.Report{}, err
	}
	history, err := s.store.List(ctx, userID)
	if errors.Is(err, model.ErrInvalidUser) {
		return stats.Report{}, err
	}
	if err != nil {
		s.logger.Warn(ctx, "day log read failed, reporting empty history",
			logger.String("user", userID),
			logger.Error(err),
		)
		history = nil
	}
	return s.reporter.Compute(history, at), nil
}

// Day returns the record for date or repository.ErrNotFound.
func (s *Service) Day(ctx context.Context, userID string, date model.Date) (model.DayLog, error) {
	if err := s.ready(); err != nil {
		return model.DayLog{}, err
	}
	l, ok, err := s.store.Get(ctx, userID, date)
	if err != nil {
		return model.DayLog{}, err
	}
	if !ok {
		return model.DayLog{}, fmt.Errorf("%w: %s", repository.ErrNotFound, date)
	}
	return l, nil
}

// Days returns the logged days of the horizon ending at at, newest first.
func (s *Service) Days(ctx context.Context, userID string, at model.Date) ([]streak.Day, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	history, err := s.store.List(ctx, userID)
	if err != nil {
		return nil, err
	}
	all := s.calc.Window(history, at)
	out := make([]streak.Day, 0, len(history))
	for _, d := range all {
		if d.Status != model.StatusMissed {
			out = append(out, d)
		}
	}
	return out, nil
}

// SeenAndRecord reports whether an idempotency key was already used and
// records it if not.
func (s *Service) SeenAndRecord(ctx context.Context, id string) bool {
	if s.deduper == nil {
		return false
	}
	seen := s.deduper.SeenAndRecord(ctx, id)
	if seen {
		metrics.RecordDuplicateRequest()
	}
	return seen
}

// Begin claims an idempotency key for a request about to run. Replays of a
// claimed key are counted as duplicates.
func (s *Service) Begin(ctx context.Context, id string) dedupe.KeyState {
	if s.deduper == nil {
		return dedupe.KeyNew
	}
	st := s.deduper.Begin(ctx, id)
	if st != dedupe.KeyNew {
		metrics.RecordDuplicateRequest()
	}
	return st
}

// Complete marks a claimed idempotency key as finished.
func (s *Service) Complete(ctx context.Context, id string) {
	if s.deduper == nil {
		return
	}
	s.deduper.Complete(ctx, id)
}

// Unrecord releases an idempotency key so the request may be retried.
func (s *Service) Unrecord(ctx context.Context, id string) {
	if s.deduper == nil {
		return
	}
	s.deduper.Unrecord(ctx, id)
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := map[string]interface{}{
		"started":         s.started,
		"storage":         s.storage,
		"horizonDays":     s.horizon,
		"statsWindowDays": s.window,
		"strictBulk":      s.strictBulk,
		"dedupeSize":      s.dedupeSize,
	}
	if s.started {
		users := 0
		s.generations.Range(func(_, _ any) bool {
			users++
			return true
		})
		out["backend"] = s.backend.Name()
		out["activeUsers"] = users
		out["idempotencyKeys"] = s.deduper.Size()
		out["summaryEntries"] = s.summaries.EntryCount()
		out["summaryHits"] = s.summaries.HitCount()
		out["summaryMisses"] = s.summaries.MissCount()

		metrics.UpdateActiveUsers(users)
		metrics.UpdateSummaryCacheEntries(s.summaries.EntryCount())
	}
	return out
}

// Size returns the number of remembered idempotency keys.
func (s *Service) Size() int64 {
	if s.deduper == nil {
		return 0
	}
	return s.deduper.Size()
}

// generation is the user's summary generation. Users that never changed their
// collection are at zero and hold no entry.
func (s *Service) generation(userID string) uint64 {
	if v, ok := s.generations.Load(userID); ok {
		return v.(*atomic.Uint64).Load()
	}
	return 0
}

// invalidate retires every cached summary of the user.
func (s *Service) invalidate(userID string) {
	v, _ := s.generations.LoadOrStore(userID, new(atomic.Uint64))
	v.(*atomic.Uint64).Add(1)
}

func (s *Service) summaryKey(userID string, at model.Date) []byte {
	return []byte(fmt.Sprintf("%s/%d/%d", userID, s.generation(userID), int32(at)))
}
