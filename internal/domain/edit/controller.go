// Package edit applies day log edits and keeps the derived streak current.
package edit

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/okian/streak/internal/domain/model"
	"github.com/okian/streak/internal/domain/streak"
	"github.com/okian/streak/pkg/logger"
	"github.com/okian/streak/pkg/metrics"
)

// Store is the day log store the controller mutates.
type Store interface {
	Get(ctx context.Context, userID string, date model.Date) (model.DayLog, bool, error)
	Upsert(ctx context.Context, userID string, date model.Date, p model.Patch) (model.DayLog, error)
	List(ctx context.Context, userID string) ([]model.DayLog, error)
	Apply(ctx context.Context, userID string, batch []model.Mutation) (int, error)
}

// ProfileCache receives the current streak whenever it changes.
type ProfileCache interface {
	CurrentStreak(ctx context.Context, userID string) (int, bool, error)
	UpdateStreak(ctx context.Context, userID string, current int) error
}

// Calculator derives streaks from a collection.
type Calculator interface {
	Compute(history []model.DayLog, today model.Date) streak.State
}

// ToggleResult is the outcome of a single-field toggle.
type ToggleResult struct {
	Day            model.DayLog
	Streak         streak.State
	ProfileUpdated bool
}

// Skipped is a bulk input that was not applied.
type Skipped struct {
	Input  string `json:"input"`
	Reason string `json:"reason"`
}

// BulkResult is the outcome of a bulk edit.
type BulkResult struct {
	Action         Action
	Applied        []model.Date
	Skipped        []Skipped
	Changed        int
	Streak         streak.State
	ProfileUpdated bool
}

// Controller serialises edits per user, commits them to the store and
// recomputes the streak once per edit.
type Controller struct {
	store    Store
	profile  ProfileCache
	calc     Calculator
	logger   logger.Logger
	now      func() time.Time
	loc      *time.Location
	fallback int
	strict   bool
	maxDates int
	hooks    []func(userID string)

	locks sync.Map // userID -> *sync.Mutex
}

// NewController creates a Controller.
func NewController(store Store, profile ProfileCache, calc Calculator, opts ...Option) *Controller {
	c := &Controller{
		store:    store,
		profile:  profile,
		calc:     calc,
		logger:   logger.NewNop(),
		now:      time.Now,
		loc:      time.UTC,
		maxDates: DefaultMaxBulkDates,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Today returns the reference date in the configured time zone.
func (c *Controller) Today() model.Date {
	return model.Today(c.now(), c.loc)
}

// Toggle flips one flag of the record for date, creating the record if needed,
// and recomputes the streak as of today.
func (c *Controller) Toggle(ctx context.Context, userID string, date model.Date, field model.Field) (ToggleResult, error) {
	if err := model.ValidateUserID(userID); err != nil {
		metrics.RecordEdit("toggle", "rejected")
		return ToggleResult{}, err
	}
	unlock := c.lock(userID)
	defer unlock()

	today := c.Today()
	if date > today {
		metrics.RecordEdit("toggle", "rejected")
		return ToggleResult{}, fmt.Errorf("edit.toggle: %w: %s", ErrFutureDate, date)
	}

	cur, ok, err := c.store.Get(ctx, userID, date)
	if err != nil {
		metrics.RecordEdit("toggle", "error")
		return ToggleResult{}, err
	}
	if !ok {
		cur = model.DayLog{Date: date}
	}

	day, err := c.store.Upsert(ctx, userID, date, field.Toggle(cur))
	if err != nil {
		metrics.RecordEdit("toggle", "error")
		return ToggleResult{}, err
	}
	c.changed(userID)

	st, readErr := c.recompute(ctx, userID, today)
	updated := false
	if readErr == nil {
		updated = c.syncProfile(ctx, userID, st.Current)
	}
	metrics.RecordEdit("toggle", "ok")

	c.logger.Debug(ctx, "day toggled",
		logger.String("user", userID),
		logger.String("date", date.String()),
		logger.String("field", field.String()),
		logger.Int("current", st.Current),
		logger.Int("longest", st.Longest),
	)
	return ToggleResult{Day: day, Streak: st, ProfileUpdated: updated}, nil
}

// BulkEdit applies action to every selected date in one store write, then
// recomputes the streak once.
func (c *Controller) BulkEdit(ctx context.Context, userID string, dates []string, action Action) (BulkResult, error) {
	if !action.Valid() {
		metrics.RecordEdit("bulk", "rejected")
		return BulkResult{}, fmt.Errorf("edit.bulk: %w: %s", ErrUnknownAction, action)
	}
	if err := model.ValidateUserID(userID); err != nil {
		metrics.RecordEdit("bulk", "rejected")
		return BulkResult{}, err
	}
	if len(dates) == 0 {
		metrics.RecordEdit("bulk", "rejected")
		return BulkResult{}, fmt.Errorf("edit.bulk: %w", ErrEmptySelection)
	}
	if len(dates) > c.maxDates {
		metrics.RecordEdit("bulk", "rejected")
		return BulkResult{}, fmt.Errorf("edit.bulk: %w: %d > %d", ErrTooManyDates, len(dates), c.maxDates)
	}

	unlock := c.lock(userID)
	defer unlock()

	today := c.Today()
	res := BulkResult{Action: action}
	seen := make(map[model.Date]struct{}, len(dates))
	for _, in := range dates {
		d, err := model.ParseDate(strings.TrimSpace(in))
		switch {
		case err != nil:
			if c.strict {
				metrics.RecordEdit("bulk", "rejected")
				return BulkResult{}, fmt.Errorf("edit.bulk: %w: %w", ErrInvalidBulk, err)
			}
			res.Skipped = append(res.Skipped, Skipped{Input: in, Reason: "invalid date"})
			continue
		case d > today:
			if c.strict {
				metrics.RecordEdit("bulk", "rejected")
				return BulkResult{}, fmt.Errorf("edit.bulk: %w: %w: %s", ErrInvalidBulk, ErrFutureDate, d)
			}
			res.Skipped = append(res.Skipped, Skipped{Input: in, Reason: "future date"})
			continue
		}
		if _, dup := seen[d]; dup {
			continue
		}
		seen[d] = struct{}{}
		res.Applied = append(res.Applied, d)
	}

	batch := make([]model.Mutation, len(res.Applied))
	for i, d := range res.Applied {
		batch[i] = action.Mutation(d)
	}
	if len(batch) > 0 {
		changed, err := c.store.Apply(ctx, userID, batch)
		if err != nil {
			metrics.RecordEdit("bulk", "error")
			return BulkResult{}, err
		}
		res.Changed = changed
		if changed > 0 {
			c.changed(userID)
		}
	}
	metrics.RecordBulkDates(action.String(), len(res.Applied), len(res.Skipped))

	st, readErr := c.recompute(ctx, userID, today)
	res.Streak = st
	if readErr == nil {
		res.ProfileUpdated = c.syncProfile(ctx, userID, st.Current)
	}
	metrics.RecordEdit("bulk", "ok")

	c.logger.Debug(ctx, "bulk edit applied",
		logger.String("user", userID),
		logger.String("action", action.String()),
		logger.Int("applied", len(res.Applied)),
		logger.Int("skipped", len(res.Skipped)),
		logger.Int("changed", res.Changed),
		logger.Int("current", res.Streak.Current),
	)
	return res, nil
}

// SetNotes replaces the notes of the record for date, creating it if needed.
func (c *Controller) SetNotes(ctx context.Context, userID string, date model.Date, notes string) (model.DayLog, error) {
	if err := model.ValidateUserID(userID); err != nil {
		metrics.RecordEdit("notes", "rejected")
		return model.DayLog{}, err
	}
	unlock := c.lock(userID)
	defer unlock()

	if date > c.Today() {
		metrics.RecordEdit("notes", "rejected")
		return model.DayLog{}, fmt.Errorf("edit.notes: %w: %s", ErrFutureDate, date)
	}
	day, err := c.store.Upsert(ctx, userID, date, model.Patch{Notes: model.Text(notes)})
	if err != nil {
		metrics.RecordEdit("notes", "error")
		return model.DayLog{}, err
	}
	c.changed(userID)
	metrics.RecordEdit("notes", "ok")
	return day, nil
}

// Recompute returns the streak as of at. A collection that cannot be read is
// treated as empty: the fallback state is returned together with the read
// error, so callers can tell a degraded result from an authoritative one.
func (c *Controller) Recompute(ctx context.Context, userID string, at model.Date) (streak.State, error) {
	if err := model.ValidateUserID(userID); err != nil {
		return streak.State{}, err
	}
	unlock := c.lock(userID)
	defer unlock()
	return c.recompute(ctx, userID, at)
}

func (c *Controller) recompute(ctx context.Context, userID string, at model.Date) (streak.State, error) {
	start := time.Now()
	history, readErr := c.store.List(ctx, userID)
	if readErr != nil {
		c.logger.Warn(ctx, "day log read failed, recomputing from empty history",
			logger.String("user", userID),
			logger.Error(readErr),
		)
		history = nil
	}

	var st streak.State
	if len(history) == 0 {
		st = streak.State{Current: c.fallback, Longest: c.fallback}
	} else {
		st = c.calc.Compute(history, at)
	}
	metrics.RecordRecompute(metrics.Since(start), st.Current)
	return st, readErr
}

// syncProfile pushes current to the profile cache when it differs from the
// known value. Failures are logged; the edit itself has already been committed.
func (c *Controller) syncProfile(ctx context.Context, userID string, current int) bool {
	if c.profile == nil {
		return false
	}
	known, ok, err := c.profile.CurrentStreak(ctx, userID)
	if err != nil {
		c.logger.Warn(ctx, "profile streak read failed", logger.String("user", userID), logger.Error(err))
		ok = false
	}
	if ok && known == current {
		metrics.RecordProfileUpdate("unchanged")
		return false
	}
	if err := c.profile.UpdateStreak(ctx, userID, current); err != nil {
		metrics.RecordProfileUpdate("error")
		c.logger.Warn(ctx, "profile streak update failed",
			logger.String("user", userID),
			logger.Int("current", current),
			logger.Error(err),
		)
		return false
	}
	metrics.RecordProfileUpdate("updated")
	return true
}

func (c *Controller) changed(userID string) {
	for _, fn := range c.hooks {
		fn(userID)
	}
}

func (c *Controller) lock(userID string) func() {
	v, _ := c.locks.LoadOrStore(userID, &sync.Mutex{})
	mu := v.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}
