package service_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/streak/internal/adapters/profile"
	"github.com/okian/streak/internal/adapters/repository"
	service "github.com/okian/streak/internal/app"
	"github.com/okian/streak/internal/domain/dedupe"
	"github.com/okian/streak/internal/domain/edit"
	"github.com/okian/streak/internal/domain/model"
	"github.com/okian/streak/pkg/logger"
)

var now = time.Date(2024, 6, 15, 9, 0, 0, 0, time.UTC)

func startService(t *testing.T, opts ...service.Option) (*service.Service, *profile.Memory) {
	t.Helper()
	prof := profile.NewMemory()
	opts = append([]service.Option{
		service.WithClock(func() time.Time { return now }),
		service.WithProfileCache(prof),
		service.WithLogger(logger.NewNop()),
	}, opts...)
	svc := service.New(opts...)
	if err := svc.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	t.Cleanup(svc.Stop)
	return svc, prof
}

func bulk(ctx context.Context, svc *service.Service, user string, action edit.Action, offsets ...int) {
	today := svc.Today()
	dates := make([]string, len(offsets))
	for i, o := range offsets {
		dates[i] = today.AddDays(-o).String()
	}
	_, err := svc.BulkEdit(ctx, user, dates, action)
	So(err, ShouldBeNil)
}

func TestService_StreakScenarios(t *testing.T) {
	Convey("Given a running service", t, func() {
		ctx := context.Background()
		svc, _ := startService(t)
		today := svc.Today()

		Convey("Scenario A: a gap three days back", func() {
			bulk(ctx, svc, "a", edit.ActionPerfect, 0, 1, 3)
			sum, err := svc.Streak(ctx, "a", today)
			So(err, ShouldBeNil)
			So(sum.Current, ShouldEqual, 2)
			So(sum.Longest, ShouldEqual, 2)
		})

		Convey("Scenario B: today missed", func() {
			bulk(ctx, svc, "b", edit.ActionPerfect, 1, 2, 3)
			sum, err := svc.Streak(ctx, "b", today)
			So(err, ShouldBeNil)
			So(sum.Current, ShouldEqual, 0)
			So(sum.Longest, ShouldEqual, 3)
		})

		Convey("Scenario C: rest today and a partial day", func() {
			bulk(ctx, svc, "c", edit.ActionRest, 0)
			bulk(ctx, svc, "c", edit.ActionPerfect, 1, 3)
			bulk(ctx, svc, "c", edit.ActionWorkoutOnly, 2)
			sum, err := svc.Streak(ctx, "c", today)
			So(err, ShouldBeNil)
			So(sum.Current, ShouldEqual, 2)
			So(sum.Longest, ShouldEqual, 2)
		})
	})
}

func TestService_SummaryCache(t *testing.T) {
	Convey("Given a cached streak", t, func() {
		ctx := context.Background()
		svc, prof := startService(t)
		today := svc.Today()

		bulk(ctx, svc, "alice", edit.ActionPerfect, 0, 1)
		first, err := svc.Streak(ctx, "alice", today)
		So(err, ShouldBeNil)
		again, err := svc.Streak(ctx, "alice", today)
		So(err, ShouldBeNil)
		So(again, ShouldResemble, first)
		So(svc.GetStats()["summaryHits"], ShouldBeGreaterThanOrEqualTo, int64(1))

		Convey("When a toggle breaks today", func() {
			res, err := svc.Toggle(ctx, "alice", today, model.FieldDiet)
			So(err, ShouldBeNil)

			Convey("Then the next read sees the new streak, not the cached one", func() {
				sum, err := svc.Streak(ctx, "alice", today)
				So(err, ShouldBeNil)
				So(sum.Current, ShouldEqual, 0)
				So(sum.Current, ShouldEqual, res.Streak.Current)
			})

			Convey("Then the profile was told", func() {
				v, ok, _ := prof.CurrentStreak(ctx, "alice")
				So(ok, ShouldBeTrue)
				So(v, ShouldEqual, 0)
			})
		})

		Convey("When notes change", func() {
			_, err := svc.SetNotes(ctx, "alice", today, "pr on squats")
			So(err, ShouldBeNil)
			day, err := svc.Day(ctx, "alice", today)

			Convey("Then the day carries them and remains perfect", func() {
				So(err, ShouldBeNil)
				So(day.Notes, ShouldEqual, "pr on squats")
				So(day.Status(), ShouldEqual, model.StatusPerfect)
			})
		})
	})
}

func TestService_Reads(t *testing.T) {
	Convey("Given a user with a few logged days", t, func() {
		ctx := context.Background()
		svc, _ := startService(t, service.WithStatsWindow(10), service.WithHorizon(30))
		today := svc.Today()
		bulk(ctx, svc, "alice", edit.ActionPerfect, 0, 1)
		bulk(ctx, svc, "alice", edit.ActionDietOnly, 4)
		bulk(ctx, svc, "alice", edit.ActionRest, 40)

		Convey("Then the report counts every record but only the window for misses", func() {
			rep, err := svc.Report(ctx, "alice", today)
			So(err, ShouldBeNil)
			So(rep.DaysLogged, ShouldEqual, 4)
			So(rep.MissedInWindow, ShouldEqual, 7)
			So(rep.CompletionPercent, ShouldEqual, 40)
			So(rep.Perfect, ShouldEqual, 2)
			So(rep.Partial, ShouldEqual, 1)
		})

		Convey("Then the calendar lists logged days inside the horizon", func() {
			days, err := svc.Days(ctx, "alice", today)
			So(err, ShouldBeNil)
			So(days, ShouldHaveLength, 3)
			So(days[0].Date, ShouldEqual, today)
			So(days[2].Status, ShouldEqual, model.StatusPartial)
		})

		Convey("Then a missing day is not found", func() {
			_, err := svc.Day(ctx, "alice", today.AddDays(-2))
			So(errors.Is(err, repository.ErrNotFound), ShouldBeTrue)
		})

		Convey("Then an invalid user is rejected", func() {
			_, err := svc.Streak(ctx, "../x", today)
			So(errors.Is(err, model.ErrInvalidUser), ShouldBeTrue)
		})

		Convey("Then a user without records gets the fallback seed", func() {
			seeded, _ := startService(t, service.WithFallbackStreak(3))
			sum, err := seeded.Streak(ctx, "nobody", today)
			So(err, ShouldBeNil)
			So(sum.Current, ShouldEqual, 3)
			So(sum.Longest, ShouldEqual, 3)
		})
	})
}

func TestService_Idempotency(t *testing.T) {
	Convey("Given a running service", t, func() {
		ctx := context.Background()
		svc, _ := startService(t, service.WithDedupeSize(10))
		key := dedupe.Key("alice", "req-1")

		Convey("When a key is used twice", func() {
			first := svc.SeenAndRecord(ctx, key)
			second := svc.SeenAndRecord(ctx, key)

			Convey("Then only the second is a duplicate", func() {
				So(first, ShouldBeFalse)
				So(second, ShouldBeTrue)
				So(svc.Size(), ShouldEqual, 1)
			})
		})

		Convey("When a key is released after a failure", func() {
			svc.SeenAndRecord(ctx, key)
			svc.Unrecord(ctx, key)
			So(svc.SeenAndRecord(ctx, key), ShouldBeFalse)
		})

		Convey("When a key is claimed and later completed", func() {
			So(svc.Begin(ctx, key), ShouldEqual, dedupe.KeyNew)
			So(svc.Begin(ctx, key), ShouldEqual, dedupe.KeyInFlight)
			svc.Complete(ctx, key)
			So(svc.Begin(ctx, key), ShouldEqual, dedupe.KeyDone)
		})
	})
}

func TestService_ConcurrentEdits(t *testing.T) {
	Convey("Given many concurrent toggles for one user", t, func() {
		ctx := context.Background()
		svc, _ := startService(t)
		today := svc.Today()
		const days = 30

		var wg sync.WaitGroup
		errs := make(chan error, days*2)
		for i := 0; i < days; i++ {
			wg.Add(1)
			go func(d model.Date) {
				defer wg.Done()
				for _, f := range []model.Field{model.FieldWorkout, model.FieldDiet} {
					if _, err := svc.Toggle(ctx, "c", d, f); err != nil {
						errs <- err
					}
				}
			}(today.AddDays(-i))
		}
		wg.Wait()
		close(errs)

		Convey("Then no update is lost", func() {
			So(<-errs, ShouldBeNil)
			logged, err := svc.Days(ctx, "c", today)
			So(err, ShouldBeNil)
			So(len(logged), ShouldEqual, days)

			sum, err := svc.Streak(ctx, "c", today)
			So(err, ShouldBeNil)
			So(sum.Current, ShouldEqual, days)
			So(sum.Longest, ShouldEqual, days)
		})
	})
}

// outageBackend refuses reads while down is set.
type outageBackend struct {
	*repository.MemoryBackend
	down atomic.Bool
}

func (b *outageBackend) Load(ctx context.Context, userID string) ([]model.DayLog, error) {
	if b.down.Load() {
		return nil, errors.New("connection refused")
	}
	return b.MemoryBackend.Load(ctx, userID)
}

func TestService_StreakDuringOutage(t *testing.T) {
	Convey("Given a perfect today after a rest day", t, func() {
		ctx := context.Background()
		backend := &outageBackend{MemoryBackend: repository.NewMemoryBackend()}
		svc, _ := startService(t, service.WithBackend(backend))
		today := svc.Today()
		bulk(ctx, svc, "alice", edit.ActionPerfect, 0)
		bulk(ctx, svc, "alice", edit.ActionRest, 1)

		Convey("When the store is unreadable for one request", func() {
			backend.down.Store(true)
			degraded, err := svc.Streak(ctx, "alice", today)
			So(err, ShouldBeNil)
			So(degraded.Current, ShouldEqual, 0)

			Convey("Then the first read after recovery sees the real streak", func() {
				backend.down.Store(false)
				sum, err := svc.Streak(ctx, "alice", today)
				So(err, ShouldBeNil)
				So(sum.Current, ShouldEqual, 2)
				So(sum.Longest, ShouldEqual, 2)
			})
		})
	})
}

func TestService_ActiveUsers(t *testing.T) {
	Convey("Given a running service", t, func() {
		ctx := context.Background()
		svc, _ := startService(t)
		today := svc.Today()

		Convey("When users only read", func() {
			for _, u := range []string{"r1", "r2", "r3"} {
				_, err := svc.Streak(ctx, u, today)
				So(err, ShouldBeNil)
			}

			Convey("Then none of them counts as active", func() {
				So(svc.GetStats()["activeUsers"], ShouldEqual, 0)
			})

			Convey("Then an edit makes exactly that user active and retires its cached summary", func() {
				bulk(ctx, svc, "r1", edit.ActionPerfect, 0)
				So(svc.GetStats()["activeUsers"], ShouldEqual, 1)
				sum, err := svc.Streak(ctx, "r1", today)
				So(err, ShouldBeNil)
				So(sum.Current, ShouldEqual, 1)
			})
		})
	})
}
