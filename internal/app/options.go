package service

import (
	"time"

	"github.com/okian/streak/internal/adapters/profile"
	"github.com/okian/streak/internal/adapters/repository"
	"github.com/okian/streak/pkg/logger"
)

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithStorage selects the day log backend by name.
func WithStorage(name string) Option {
	return func(s *Service) {
		if name != "" {
			s.storage = name
		}
	}
}

// WithDataDir sets the root directory of the file backend.
func WithDataDir(dir string) Option {
	return func(s *Service) {
		if dir != "" {
			s.dataDir = dir
		}
	}
}

// WithRedis sets the redis connection used by the redis backend and profile cache.
func WithRedis(addr string, db int, password string) Option {
	return func(s *Service) {
		s.redisAddr = addr
		s.redisDB = db
		s.redisPassword = password
	}
}

// WithPostgresDSN sets the connection string of the postgres backend.
func WithPostgresDSN(dsn string) Option {
	return func(s *Service) {
		s.postgresDSN = dsn
	}
}

// WithBackend injects a ready backend, bypassing storage selection.
func WithBackend(b repository.Backend) Option {
	return func(s *Service) {
		if b != nil {
			s.backend = b
		}
	}
}

// WithProfileCache injects the profile collaborator.
func WithProfileCache(c profile.Cache) Option {
	return func(s *Service) {
		if c != nil {
			s.profile = c
		}
	}
}

// WithHorizon sets the streak lookback in days.
func WithHorizon(days int) Option {
	return func(s *Service) {
		if days > 0 {
			s.horizon = days
		}
	}
}

// WithStatsWindow sets the statistics window in days.
func WithStatsWindow(days int) Option {
	return func(s *Service) {
		if days > 0 {
			s.window = days
		}
	}
}

// WithLocation sets the time zone in which today is evaluated.
func WithLocation(loc *time.Location) Option {
	return func(s *Service) {
		if loc != nil {
			s.loc = loc
		}
	}
}

// WithClock sets the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithFallbackStreak sets the streak reported for users without records.
func WithFallbackStreak(seed int) Option {
	return func(s *Service) {
		if seed >= 0 {
			s.fallback = seed
		}
	}
}

// WithStrictBulk rejects whole bulk edits containing bad dates.
func WithStrictBulk(strict bool) Option {
	return func(s *Service) {
		s.strictBulk = strict
	}
}

// WithMaxBulkDates caps the dates in one bulk edit.
func WithMaxBulkDates(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.maxBulkDates = n
		}
	}
}

// WithDedupeSize sets the size of the idempotency key cache.
func WithDedupeSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.dedupeSize = size
		}
	}
}

// WithSummaryCacheMB sizes the streak summary cache.
func WithSummaryCacheMB(mb int) Option {
	return func(s *Service) {
		if mb > 0 {
			s.summaryCacheMB = mb
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}
