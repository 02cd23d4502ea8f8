// Package stats derives trailing-window consistency counts from a day log collection.
package stats

import (
	"math"

	"github.com/okian/streak/internal/domain/model"
)

// DefaultWindow is the trailing window length in days.
const DefaultWindow = 30

// Report summarises a user's log over a trailing window.
//
// DaysLogged counts every stored record regardless of the window, while
// MissedInWindow only looks inside it, so CompletionPercent may exceed 100.
type Report struct {
	Window            int        `json:"window"`
	WindowStart       model.Date `json:"windowStart"`
	WindowEnd         model.Date `json:"windowEnd"`
	DaysLogged        int        `json:"daysLogged"`
	MissedInWindow    int        `json:"missedInWindow"`
	CompletionPercent int        `json:"completionPercent"`
	Perfect           int        `json:"perfect"`
	Partial           int        `json:"partial"`
	Rest              int        `json:"rest"`
}

// Option applies a configuration option to the Reporter.
type Option func(*Reporter)

// WithWindow sets the trailing window length in days.
func WithWindow(days int) Option {
	return func(r *Reporter) {
		if days > 0 {
			r.window = days
		}
	}
}

// Reporter computes Reports. It is stateless and safe for concurrent use.
type Reporter struct {
	window int
}

// NewReporter creates a Reporter with configuration options.
func NewReporter(opts ...Option) *Reporter {
	r := &Reporter{window: DefaultWindow}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Window returns the configured window length.
func (r *Reporter) Window() int { return r.window }

// Compute builds the report for the window ending at today.
func (r *Reporter) Compute(history []model.DayLog, today model.Date) Report {
	start := today.AddDays(-(r.window - 1))
	rep := Report{
		Window:      r.window,
		WindowStart: start,
		WindowEnd:   today,
		DaysLogged:  len(history),
	}

	active := 0
	for _, l := range history {
		if l.Date < start || l.Date > today {
			continue
		}
		if l.Logged() {
			active++
		}
		switch l.Status() {
		case model.StatusPerfect:
			rep.Perfect++
		case model.StatusPartial:
			rep.Partial++
		case model.StatusRest:
			rep.Rest++
		}
	}

	rep.MissedInWindow = r.window - active
	rep.CompletionPercent = int(math.Round(float64(rep.DaysLogged) / float64(r.window) * 100))
	return rep
}
