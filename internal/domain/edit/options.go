package edit

import (
	"time"

	"github.com/okian/streak/pkg/logger"
)

// DefaultMaxBulkDates bounds one bulk selection.
const DefaultMaxBulkDates = 366

// Option applies a configuration option to the Controller.
type Option func(*Controller)

// WithClock sets the time source used to derive today.
func WithClock(now func() time.Time) Option {
	return func(c *Controller) {
		if now != nil {
			c.now = now
		}
	}
}

// WithLocation sets the time zone in which today is evaluated.
func WithLocation(loc *time.Location) Option {
	return func(c *Controller) {
		if loc != nil {
			c.loc = loc
		}
	}
}

// WithFallbackSeed sets the streak reported for a user with no records.
func WithFallbackSeed(seed int) Option {
	return func(c *Controller) {
		if seed >= 0 {
			c.fallback = seed
		}
	}
}

// WithStrictBulk makes a bulk edit fail as a whole when any date is malformed
// or in the future. By default such dates are skipped and reported.
func WithStrictBulk(strict bool) Option {
	return func(c *Controller) {
		c.strict = strict
	}
}

// WithMaxBulkDates bounds how many dates one bulk edit may select.
func WithMaxBulkDates(n int) Option {
	return func(c *Controller) {
		if n > 0 {
			c.maxDates = n
		}
	}
}

// WithLogger sets the controller logger.
func WithLogger(l logger.Logger) Option {
	return func(c *Controller) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithChangeHook registers fn to run after every committed change to a user's
// collection, while the user's lock is still held.
func WithChangeHook(fn func(userID string)) Option {
	return func(c *Controller) {
		if fn != nil {
			c.hooks = append(c.hooks, fn)
		}
	}
}
