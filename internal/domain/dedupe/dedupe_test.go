package dedupe_test

import (
	"context"
	"fmt"
	"sync"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/streak/internal/domain/dedupe"
)

func TestInMemoryDeduper(t *testing.T) {
	Convey("Given a new in-memory deduper", t, func() {
		ctx := context.Background()

		Convey("When a key is seen for the first time", func() {
			d := dedupe.NewInMemoryDeduper()
			seen := d.SeenAndRecord(ctx, dedupe.Key("alice", "k1"))

			Convey("Then it is recorded", func() {
				So(seen, ShouldBeFalse)
				So(d.Size(), ShouldEqual, 1)
			})

			Convey("Then the same key is reported as seen", func() {
				So(d.SeenAndRecord(ctx, dedupe.Key("alice", "k1")), ShouldBeTrue)
				So(d.Size(), ShouldEqual, 1)
			})

			Convey("Then another user may use the same key", func() {
				So(d.SeenAndRecord(ctx, dedupe.Key("bob", "k1")), ShouldBeFalse)
			})
		})

		Convey("When a key is unrecorded after a failure", func() {
			d := dedupe.NewInMemoryDeduper()
			d.SeenAndRecord(ctx, "k")
			d.Unrecord(ctx, "k")
			d.Unrecord(ctx, "never-seen")

			Convey("Then it can be recorded again", func() {
				So(d.Size(), ShouldEqual, 0)
				So(d.SeenAndRecord(ctx, "k"), ShouldBeFalse)
			})
		})

		Convey("When the bound is reached", func() {
			d := dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(3))
			for i := 0; i < 4; i++ {
				d.SeenAndRecord(ctx, fmt.Sprintf("k%d", i))
			}

			Convey("Then the oldest key is evicted", func() {
				So(d.Size(), ShouldEqual, 3)
				So(d.SeenAndRecord(ctx, "k3"), ShouldBeTrue)
				So(d.SeenAndRecord(ctx, "k1"), ShouldBeTrue)
				So(d.SeenAndRecord(ctx, "k0"), ShouldBeFalse)
			})
		})

		Convey("When unbounded", func() {
			d := dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(0))
			for i := 0; i < 1000; i++ {
				d.SeenAndRecord(ctx, fmt.Sprintf("k%d", i))
			}
			So(d.Size(), ShouldEqual, 1000)
		})

		Convey("When a request begins with a key", func() {
			d := dedupe.NewInMemoryDeduper()
			key := dedupe.Key("alice", "k1")
			first := d.Begin(ctx, key)

			Convey("Then a replay before completion sees it in flight", func() {
				So(first, ShouldEqual, dedupe.KeyNew)
				So(d.Begin(ctx, key), ShouldEqual, dedupe.KeyInFlight)
				So(d.SeenAndRecord(ctx, key), ShouldBeTrue)
				So(d.Size(), ShouldEqual, 1)
			})

			Convey("Then a replay after completion sees it done", func() {
				d.Complete(ctx, key)
				So(d.Begin(ctx, key), ShouldEqual, dedupe.KeyDone)
			})

			Convey("Then a failed request releases it for a retry", func() {
				d.Unrecord(ctx, key)
				So(d.Begin(ctx, key), ShouldEqual, dedupe.KeyNew)
			})

			Convey("Then completing an unknown key records nothing", func() {
				d.Complete(ctx, "other")
				So(d.Size(), ShouldEqual, 1)
				So(d.Begin(ctx, "other"), ShouldEqual, dedupe.KeyNew)
			})
		})

		Convey("When in-flight keys fill the bound", func() {
			d := dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(2))
			d.Begin(ctx, "a")
			d.SeenAndRecord(ctx, "b")
			d.Begin(ctx, "c")

			Convey("Then the oldest is evicted regardless of state", func() {
				So(d.Size(), ShouldEqual, 2)
				So(d.Begin(ctx, "b"), ShouldEqual, dedupe.KeyDone)
				So(d.Begin(ctx, "c"), ShouldEqual, dedupe.KeyInFlight)
			})
		})

		Convey("When many goroutines begin the same key", func() {
			d := dedupe.NewInMemoryDeduper()
			var (
				wg     sync.WaitGroup
				mu     sync.Mutex
				states = map[dedupe.KeyState]int{}
			)
			for i := 0; i < 50; i++ {
				wg.Add(1)
				go func() {
					defer wg.Done()
					st := d.Begin(ctx, "same")
					mu.Lock()
					states[st]++
					mu.Unlock()
				}()
			}
			wg.Wait()

			Convey("Then one owns it and the rest see it in flight", func() {
				So(states[dedupe.KeyNew], ShouldEqual, 1)
				So(states[dedupe.KeyInFlight], ShouldEqual, 49)
			})
		})

		Convey("When many goroutines race on one key", func() {
			d := dedupe.NewInMemoryDeduper()
			var (
				wg    sync.WaitGroup
				mu    sync.Mutex
				fresh int
			)
			for i := 0; i < 50; i++ {
				wg.Add(1)
				go func() {
					defer wg.Done()
					if !d.SeenAndRecord(ctx, "same") {
						mu.Lock()
						fresh++
						mu.Unlock()
					}
				}()
			}
			wg.Wait()

			Convey("Then exactly one wins", func() {
				So(fresh, ShouldEqual, 1)
			})
		})
	})
}
