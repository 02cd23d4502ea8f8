package model_test

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	model "github.com/okian/streak/internal/domain/model"
	"github.com/smartystreets/goconvey/convey"
)

func TestDate(t *testing.T) {
	convey.Convey("Given ISO calendar dates", t, func() {
		convey.Convey("When parsing a well-formed date", func() {
			d, err := model.ParseDate("2024-03-01")

			convey.Convey("Then it should round trip through String", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(d.String(), convey.ShouldEqual, "2024-03-01")
			})

			convey.Convey("And day arithmetic should cross month and leap-day boundaries", func() {
				convey.So(d.AddDays(-1).String(), convey.ShouldEqual, "2024-02-29")
				convey.So(d.AddDays(-1)-d.AddDays(-30), convey.ShouldEqual, model.Date(29))
			})
		})

		convey.Convey("When parsing malformed dates", func() {
			for _, s := range []string{"", "2024-13-01", "2024/03/01", "yesterday", "2024-3-1"} {
				_, err := model.ParseDate(s)
				convey.So(errors.Is(err, model.ErrInvalidDateFormat), convey.ShouldBeTrue)
			}
		})

		convey.Convey("When deriving today in a time zone", func() {
			loc := time.FixedZone("UTC+10", 10*60*60)
			now := time.Date(2024, 6, 30, 20, 0, 0, 0, time.UTC)

			convey.Convey("Then the local calendar date should be used", func() {
				convey.So(model.Today(now, loc).String(), convey.ShouldEqual, "2024-07-01")
				convey.So(model.Today(now, nil).String(), convey.ShouldEqual, "2024-06-30")
			})
		})

		convey.Convey("When a date is used as JSON text", func() {
			var d model.Date
			err := json.Unmarshal([]byte(`"2023-12-31"`), &d)

			convey.Convey("Then it should decode and encode as ISO text", func() {
				convey.So(err, convey.ShouldBeNil)
				out, err := json.Marshal(d)
				convey.So(err, convey.ShouldBeNil)
				convey.So(string(out), convey.ShouldEqual, `"2023-12-31"`)
			})
		})
	})
}

func TestDayLog(t *testing.T) {
	convey.Convey("Given day logs in every classification", t, func() {
		d := model.MustParseDate("2024-05-10")

		convey.Convey("Then validity and status should follow the flags", func() {
			cases := []struct {
				log    model.DayLog
				valid  bool
				status model.Status
			}{
				{model.DayLog{Date: d}, false, model.StatusMissed},
				{model.DayLog{Date: d, IsRestDay: true}, true, model.StatusRest},
				{model.DayLog{Date: d, WorkoutDone: true}, false, model.StatusPartial},
				{model.DayLog{Date: d, DietDone: true}, false, model.StatusPartial},
				{model.DayLog{Date: d, WorkoutDone: true, DietDone: true}, true, model.StatusPerfect},
				{model.DayLog{Date: d, WorkoutDone: true, IsRestDay: true}, true, model.StatusRest},
			}
			for _, c := range cases {
				convey.So(c.log.Valid(), convey.ShouldEqual, c.valid)
				convey.So(c.log.Status(), convey.ShouldEqual, c.status)
			}
		})

		convey.Convey("When a patch sets workout on a rest day", func() {
			l := model.DayLog{Date: d, IsRestDay: true}.Apply(model.Patch{WorkoutDone: model.Bool(true)})

			convey.Convey("Then the rest flag should be cleared", func() {
				convey.So(l.WorkoutDone, convey.ShouldBeTrue)
				convey.So(l.IsRestDay, convey.ShouldBeFalse)
			})
		})

		convey.Convey("When a patch sets rest on a perfect day", func() {
			l := model.DayLog{Date: d, WorkoutDone: true, DietDone: true}.Apply(model.Patch{IsRestDay: model.Bool(true)})

			convey.Convey("Then workout and diet should be left alone", func() {
				convey.So(l.IsRestDay, convey.ShouldBeTrue)
				convey.So(l.WorkoutDone, convey.ShouldBeTrue)
				convey.So(l.DietDone, convey.ShouldBeTrue)
			})
		})

		convey.Convey("When a patch sets workout to false", func() {
			l := model.DayLog{Date: d, IsRestDay: true}.Apply(model.Patch{WorkoutDone: model.Bool(false)})

			convey.Convey("Then the rest flag should survive", func() {
				convey.So(l.IsRestDay, convey.ShouldBeTrue)
			})
		})
	})
}

func TestField(t *testing.T) {
	convey.Convey("Given toggle field names", t, func() {
		convey.Convey("When parsing known names", func() {
			for name, want := range map[string]model.Field{"workout": model.FieldWorkout, "Diet": model.FieldDiet, " rest ": model.FieldRest} {
				f, err := model.ParseField(name)
				convey.So(err, convey.ShouldBeNil)
				convey.So(f, convey.ShouldEqual, want)
			}
		})

		convey.Convey("When parsing an unknown name", func() {
			_, err := model.ParseField("sleep")
			convey.So(errors.Is(err, model.ErrUnknownField), convey.ShouldBeTrue)
		})

		convey.Convey("When toggling a field", func() {
			p := model.FieldDiet.Toggle(model.DayLog{DietDone: true})

			convey.Convey("Then only the named flag should be assigned", func() {
				convey.So(p.DietDone, convey.ShouldNotBeNil)
				convey.So(*p.DietDone, convey.ShouldBeFalse)
				convey.So(p.WorkoutDone, convey.ShouldBeNil)
				convey.So(p.IsRestDay, convey.ShouldBeNil)
			})
		})
	})
}

func TestRecords(t *testing.T) {
	convey.Convey("Given stored records", t, func() {
		convey.Convey("When a collection contains the same date twice", func() {
			logs, err := model.FromRecords([]model.Record{
				{Date: "2024-01-02", WorkoutDone: true},
				{Date: "2024-01-01", IsRestDay: true},
				{Date: "2024-01-02", DietDone: true, Notes: "later"},
			})

			convey.Convey("Then the later record should win", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(logs, convey.ShouldHaveLength, 2)
				convey.So(logs[0].DietDone, convey.ShouldBeTrue)
				convey.So(logs[0].WorkoutDone, convey.ShouldBeFalse)
				convey.So(logs[0].Notes, convey.ShouldEqual, "later")
			})

			convey.Convey("And converting back should order by date", func() {
				records := model.ToRecords(logs)
				convey.So(records[0].Date, convey.ShouldEqual, "2024-01-01")
				convey.So(records[1].Date, convey.ShouldEqual, "2024-01-02")
			})
		})

		convey.Convey("When a record carries a malformed date", func() {
			_, err := model.FromRecords([]model.Record{{Date: "01/02/2024"}})
			convey.So(errors.Is(err, model.ErrInvalidDateFormat), convey.ShouldBeTrue)
		})
	})
}
