package streak_test

import (
	"math/rand"
	"testing"

	"github.com/okian/streak/internal/domain/model"
	"github.com/okian/streak/internal/domain/streak"
	. "github.com/smartystreets/goconvey/convey"
)

var today = model.MustParseDate("2024-06-15")

func perfect(offset int) model.DayLog {
	return model.DayLog{Date: today.AddDays(-offset), WorkoutDone: true, DietDone: true}
}

func rest(offset int) model.DayLog {
	return model.DayLog{Date: today.AddDays(-offset), IsRestDay: true}
}

func missed(offset int) model.DayLog {
	return model.DayLog{Date: today.AddDays(-offset)}
}

func TestCalculator_Scenarios(t *testing.T) {
	Convey("Given the default calculator", t, func() {
		calc := streak.NewCalculator()

		Convey("When the history is empty", func() {
			st := calc.Compute(nil, today)

			Convey("Then both streaks should be zero", func() {
				So(st, ShouldResemble, streak.State{})
			})
		})

		Convey("When only today is valid", func() {
			st := calc.Compute([]model.DayLog{perfect(0)}, today)

			Convey("Then both streaks should be one", func() {
				So(st, ShouldResemble, streak.State{Current: 1, Longest: 1})
			})
		})

		Convey("When a miss separates two runs (scenario A)", func() {
			st := calc.Compute([]model.DayLog{perfect(0), perfect(1), missed(2), perfect(3)}, today)

			Convey("Then current and longest should both be two", func() {
				So(st, ShouldResemble, streak.State{Current: 2, Longest: 2})
			})
		})

		Convey("When today is missed after a run of three (scenario B)", func() {
			st := calc.Compute([]model.DayLog{missed(0), perfect(1), perfect(2), perfect(3)}, today)

			Convey("Then current should be zero and longest three", func() {
				So(st, ShouldResemble, streak.State{Current: 0, Longest: 3})
			})
		})

		Convey("When a partial day breaks a run (scenario C)", func() {
			partial := model.DayLog{Date: today.AddDays(-2), WorkoutDone: true}
			st := calc.Compute([]model.DayLog{rest(0), perfect(1), partial, perfect(3)}, today)

			Convey("Then rest should count and partial should break", func() {
				So(st, ShouldResemble, streak.State{Current: 2, Longest: 2})
			})
		})

		Convey("When today is unlogged and yesterday is valid", func() {
			st := calc.Compute([]model.DayLog{perfect(1), perfect(2)}, today)

			Convey("Then current should be zero", func() {
				So(st.Current, ShouldEqual, 0)
				So(st.Longest, ShouldEqual, 2)
			})
		})

		Convey("When the best run is older than the current one", func() {
			history := []model.DayLog{perfect(0)}
			for i := 10; i < 20; i++ {
				history = append(history, perfect(i))
			}
			st := calc.Compute(history, today)

			Convey("Then longest should report the older run", func() {
				So(st, ShouldResemble, streak.State{Current: 1, Longest: 10})
			})
		})

		Convey("When records are dated after the reference date", func() {
			st := calc.Compute([]model.DayLog{perfect(-1), perfect(-2)}, today)

			Convey("Then they should be ignored", func() {
				So(st, ShouldResemble, streak.State{})
			})
		})

		Convey("When the history is given in arbitrary order", func() {
			history := []model.DayLog{perfect(3), perfect(0), missed(2), perfect(1)}
			st := calc.Compute(history, today)

			Convey("Then the result should match the sorted scenario", func() {
				So(st, ShouldResemble, streak.State{Current: 2, Longest: 2})
			})
		})
	})
}

func TestCalculator_Horizon(t *testing.T) {
	Convey("Given a calculator with a seven day horizon", t, func() {
		calc := streak.NewCalculator(streak.WithHorizon(7))
		So(calc.Horizon(), ShouldEqual, 7)

		Convey("When every one of the last thirty days is valid", func() {
			var history []model.DayLog
			for i := 0; i < 30; i++ {
				history = append(history, perfect(i))
			}
			st := calc.Compute(history, today)

			Convey("Then both streaks should be capped at the horizon", func() {
				So(st, ShouldResemble, streak.State{Current: 7, Longest: 7})
			})
		})

		Convey("When the only run sits just outside the horizon", func() {
			st := calc.Compute([]model.DayLog{perfect(7), perfect(8)}, today)

			Convey("Then it should not be examined", func() {
				So(st, ShouldResemble, streak.State{})
			})
		})

		Convey("When a non-positive horizon is requested", func() {
			calc := streak.NewCalculator(streak.WithHorizon(0))

			Convey("Then the default should be kept", func() {
				So(calc.Horizon(), ShouldEqual, streak.DefaultHorizon)
			})
		})
	})
}

func TestCalculator_Properties(t *testing.T) {
	Convey("Given random histories", t, func() {
		calc := streak.NewCalculator(streak.WithHorizon(60))
		rng := rand.New(rand.NewSource(7))

		Convey("Then current should never exceed longest and recomputation should be stable", func() {
			for round := 0; round < 200; round++ {
				var history []model.DayLog
				for i := 0; i < 90; i++ {
					switch rng.Intn(5) {
					case 0:
						continue
					case 1:
						history = append(history, rest(i))
					case 2:
						history = append(history, model.DayLog{Date: today.AddDays(-i), DietDone: true})
					default:
						history = append(history, perfect(i))
					}
				}
				first := calc.Compute(history, today)
				second := calc.Compute(history, today)
				So(first.Current, ShouldBeLessThanOrEqualTo, first.Longest)
				So(first.Longest, ShouldBeLessThanOrEqualTo, calc.Horizon())
				So(second, ShouldResemble, first)
			}
		})
	})
}

func TestCalculator_Window(t *testing.T) {
	Convey("Given a short history", t, func() {
		calc := streak.NewCalculator(streak.WithHorizon(4))
		partial := model.DayLog{Date: today.AddDays(-2), WorkoutDone: true}

		Convey("When building the window", func() {
			days := calc.Window([]model.DayLog{rest(0), partial, perfect(3)}, today)

			Convey("Then every slot should be classified newest first", func() {
				So(days, ShouldHaveLength, 4)
				So(days[0].Date, ShouldEqual, today)
				So(days[0].Status, ShouldEqual, model.StatusRest)
				So(days[0].Valid, ShouldBeTrue)
				So(days[1].Status, ShouldEqual, model.StatusMissed)
				So(days[2].Status, ShouldEqual, model.StatusPartial)
				So(days[2].Valid, ShouldBeFalse)
				So(days[3].Status, ShouldEqual, model.StatusPerfect)
			})
		})
	})
}
