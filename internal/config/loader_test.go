package config_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/smartystreets/goconvey/convey"

	"github.com/okian/streak/internal/config"
)

func TestConfigLoader(t *testing.T) {
	convey.Convey("Given a config loader", t, func() {
		ctx := context.Background()
		clearConfigEnvVars()
		defer clearConfigEnvVars()

		convey.Convey("When loading config with defaults only", func() {
			cfg, err := config.Load(ctx)

			convey.Convey("Then it should load successfully with defaults", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":9080")
				convey.So(cfg.Storage, convey.ShouldEqual, "memory")
				convey.So(cfg.Timezone, convey.ShouldEqual, "UTC")
			})
		})

		convey.Convey("When loading config with environment variables", func() {
			_ = os.Setenv("STREAK_ADDR", ":8080")
			_ = os.Setenv("STREAK_HORIZON_DAYS", "90")
			_ = os.Setenv("STREAK_STRICT_BULK", "true")
			_ = os.Setenv("STREAK_STORAGE", "FILE")
			_ = os.Setenv("STREAK_DATA_DIR", "/tmp/streak")
			_ = os.Setenv("STREAK_TIMEZONE", "Europe/Berlin")

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should override defaults with env vars", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
				convey.So(cfg.HorizonDays, convey.ShouldEqual, 90)
				convey.So(cfg.StrictBulk, convey.ShouldBeTrue)
				convey.So(cfg.Storage, convey.ShouldEqual, config.StorageFile)
				convey.So(cfg.DataDir, convey.ShouldEqual, "/tmp/streak")
				loc, err := cfg.Location()
				convey.So(err, convey.ShouldBeNil)
				convey.So(loc.String(), convey.ShouldEqual, "Europe/Berlin")
			})
		})

		convey.Convey("When loading config with a YAML file and env on top", func() {
			path := filepath.Join(t.TempDir(), "streak.yaml")
			yaml := "addr: \":7070\"\nstats_window_days: 14\nfallback_streak: 2\nlog_format: json\n"
			convey.So(os.WriteFile(path, []byte(yaml), 0o600), convey.ShouldBeNil)
			_ = os.Setenv("STREAK_CONFIG", path)
			_ = os.Setenv("STREAK_STATS_WINDOW_DAYS", "7")

			cfg, err := config.Load(ctx)

			convey.Convey("Then env wins over the file and the file over defaults", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":7070")
				convey.So(cfg.StatsWindowDays, convey.ShouldEqual, 7)
				convey.So(cfg.FallbackStreak, convey.ShouldEqual, 2)
				convey.So(cfg.LogFormat, convey.ShouldEqual, "json")
			})
		})

		convey.Convey("When the config file does not exist", func() {
			_ = os.Setenv("STREAK_CONFIG", filepath.Join(t.TempDir(), "missing.yaml"))
			_, err := config.Load(ctx)

			convey.Convey("Then a load error is returned", func() {
				convey.So(errors.Is(err, config.ErrLoadConfig), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When the env holds an invalid value", func() {
			_ = os.Setenv("STREAK_STORAGE", "tape")
			_, err := config.Load(ctx)

			convey.Convey("Then validation rejects it", func() {
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
			})
		})
	})
}

func clearConfigEnvVars() {
	for _, key := range []string{
		"STREAK_CONFIG", "STREAK_ADDR", "STREAK_HORIZON_DAYS", "STREAK_STRICT_BULK",
		"STREAK_STORAGE", "STREAK_DATA_DIR", "STREAK_TIMEZONE", "STREAK_STATS_WINDOW_DAYS",
	} {
		_ = os.Unsetenv(key)
	}
}
