// Package streak computes activity streaks from a day log collection.
package streak

import (
	"github.com/okian/streak/internal/domain/model"
)

// DefaultHorizon is the number of days scanned backward from the reference date.
const DefaultHorizon = 365

// State is the streak pair derived from a day log collection.
type State struct {
	Current int `json:"current"`
	Longest int `json:"longest"`
}

// Option applies a configuration option to the Calculator.
type Option func(*Calculator)

// WithHorizon sets the lookback horizon in days.
func WithHorizon(days int) Option {
	return func(c *Calculator) {
		if days > 0 {
			c.horizon = days
		}
	}
}

// Calculator scans a bounded window of days ending at a reference date.
// It holds no state between calls and is safe for concurrent use.
type Calculator struct {
	horizon int
}

// NewCalculator creates a Calculator with configuration options.
func NewCalculator(opts ...Option) *Calculator {
	c := &Calculator{horizon: DefaultHorizon}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Horizon returns the configured lookback in days.
func (c *Calculator) Horizon() int { return c.horizon }

// Compute returns the current and longest streak as of today.
//
// The current streak is the run of valid days ending at today; an unlogged or
// invalid today yields 0. The longest streak is the best run anywhere inside
// the horizon, so runs older than the horizon are capped.
func (c *Calculator) Compute(history []model.DayLog, today model.Date) State {
	var (
		st       State
		running  int
		captured bool
	)
	for _, valid := range c.validity(history, today) {
		if valid {
			running++
			continue
		}
		st.Longest = max(st.Longest, running)
		if !captured {
			st.Current = running
			captured = true
		}
		running = 0
	}
	st.Longest = max(st.Longest, running)
	if !captured {
		st.Current = running
	}
	return st
}

// Day is one slot of the horizon window.
type Day struct {
	Date   model.Date   `json:"date"`
	Status model.Status `json:"status"`
	Valid  bool         `json:"valid"`
}

// Window returns the status of every day in the horizon, newest first.
func (c *Calculator) Window(history []model.DayLog, today model.Date) []Day {
	slots := c.slots(history, today)
	out := make([]Day, len(slots))
	for i, l := range slots {
		d := today.AddDays(-i)
		if l == nil {
			out[i] = Day{Date: d, Status: model.StatusMissed}
			continue
		}
		out[i] = Day{Date: d, Status: l.Status(), Valid: l.Valid()}
	}
	return out
}

// validity projects history onto the window; index i holds today-i.
func (c *Calculator) validity(history []model.DayLog, today model.Date) []bool {
	valid := make([]bool, c.horizon)
	for i := range history {
		if off, ok := c.offset(history[i].Date, today); ok {
			valid[off] = history[i].Valid()
		}
	}
	return valid
}

func (c *Calculator) slots(history []model.DayLog, today model.Date) []*model.DayLog {
	slots := make([]*model.DayLog, c.horizon)
	for i := range history {
		if off, ok := c.offset(history[i].Date, today); ok {
			slots[off] = &history[i]
		}
	}
	return slots
}

func (c *Calculator) offset(d, today model.Date) (int, bool) {
	off := int(today - d)
	if off < 0 || off >= c.horizon {
		return 0, false
	}
	return off, true
}
