package config_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/okian/tourney/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfig_New(t *testing.T) {
	convey.Convey("Given a new config with defaults", t, func() {
		cfg := config.New(context.Background())

		convey.Convey("Then it should have sensible defaults", func() {
			convey.So(cfg.Addr, convey.ShouldEqual, ":9080")
			convey.So(cfg.QueueSize, convey.ShouldEqual, 10_000)
			convey.So(cfg.WorkerCount, convey.ShouldEqual, runtime.NumCPU())
			convey.So(cfg.PointsMode, convey.ShouldEqual, "percent")
			convey.So(cfg.PointsPodiumCount, convey.ShouldEqual, 3)
			convey.So(cfg.DefaultGroupSize, convey.ShouldEqual, 4)
			convey.So(cfg.DocsEnabled, convey.ShouldBeTrue)
			convey.So(cfg.Validate(), convey.ShouldBeNil)
		})
	})
}

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
				convey.So(cfg.MaxStandingsLimit, convey.ShouldEqual, 200)
			})
		})

		convey.Convey("When loading config with environment variables", func() {
			_ = os.Setenv("TOURNEY_ADDR", ":8080")
			_ = os.Setenv("TOURNEY_QUEUE_SIZE", "500")
			_ = os.Setenv("TOURNEY_WORKER_COUNT", "3")
			_ = os.Setenv("TOURNEY_POINTS_FIRST", "120")
			_ = os.Setenv("TOURNEY_POINTS_DECAY_PERCENT", "7.5")
			_ = os.Setenv("TOURNEY_DOCS_ENABLED", "false")

			cfg, err := config.Load(ctx)

			convey.Convey("Then env vars should override defaults", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
				convey.So(cfg.QueueSize, convey.ShouldEqual, 500)
				convey.So(cfg.WorkerCount, convey.ShouldEqual, 3)
				convey.So(cfg.PointsFirst, convey.ShouldEqual, 120)
				convey.So(cfg.PointsDecayPercent, convey.ShouldEqual, 7.5)
				convey.So(cfg.DocsEnabled, convey.ShouldBeFalse)
			})
		})

		convey.Convey("When loading config with a YAML file and env overrides", func() {
			tmpFile := createTempFile(t, "tourney.yaml", `
addr: ":9090"
queue_size: 300
points_mode: manual
points_podium_count: 5
points_manual_table: [25, 18, 15]
`)
			_ = os.Setenv("TOURNEY_CONFIG", tmpFile)
			_ = os.Setenv("TOURNEY_ADDR", ":7070")

			cfg, err := config.Load(ctx)

			convey.Convey("Then env should win over the file and the file over defaults", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":7070")
				convey.So(cfg.QueueSize, convey.ShouldEqual, 300)
				convey.So(cfg.PointsMode, convey.ShouldEqual, "manual")
				convey.So(cfg.PointsPodiumCount, convey.ShouldEqual, 5)
				convey.So(cfg.PointsManualTable, convey.ShouldResemble, []float64{25, 18, 15})
				convey.So(cfg.DedupeSize, convey.ShouldEqual, 50_000)
			})
		})

		convey.Convey("When loading config with a dotenv file", func() {
			envFile := createTempFile(t, "test.env", "TOURNEY_WORKER_COUNT=7\nTOURNEY_LOG_FORMAT=json\n")
			_ = os.Setenv("TOURNEY_ENV_FILE", envFile)

			cfg, err := config.Load(ctx)

			convey.Convey("Then dotenv values should be applied", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.WorkerCount, convey.ShouldEqual, 7)
				convey.So(cfg.LogFormat, convey.ShouldEqual, "json")
			})
		})

		convey.Convey("When the dotenv file named explicitly is missing", func() {
			_ = os.Setenv("TOURNEY_ENV_FILE", "/non/existent/.env")

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return a load error", func() {
				convey.So(errors.Is(err, config.ErrLoadConfig), convey.ShouldBeTrue)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When loading config with invalid YAML", func() {
			tmpFile := createTempFile(t, "bad.yaml", `invalid: yaml: content: [`)
			_ = os.Setenv("TOURNEY_CONFIG", tmpFile)

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return an error", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(errors.Is(err, config.ErrLoadConfig), convey.ShouldBeTrue)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When loading config with a non-existent file", func() {
			_ = os.Setenv("TOURNEY_CONFIG", "/non/existent/file.yaml")

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return an error", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When loading config with empty addr", func() {
			tmpFile := createTempFile(t, "empty.yaml", "addr: \"\"\n")
			_ = os.Setenv("TOURNEY_CONFIG", tmpFile)

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return a validation error", func() {
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
				convey.So(err.Error(), convey.ShouldContainSubstring, "addr must not be empty")
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When loading config with an out of range decay", func() {
			_ = os.Setenv("TOURNEY_POINTS_DECAY_PERCENT", "100")

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return a validation error", func() {
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When loading config with invalid numeric environment variables", func() {
			_ = os.Setenv("TOURNEY_QUEUE_SIZE", "invalid")

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return an error", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})
	})
}

// Helper functions.

func clearConfigEnvVars() {
	for _, envVar := range []string{
		"TOURNEY_CONFIG",
		"TOURNEY_ENV_FILE",
		"TOURNEY_ADDR",
		"TOURNEY_QUEUE_SIZE",
		"TOURNEY_WORKER_COUNT",
		"TOURNEY_LOG_FORMAT",
		"TOURNEY_POINTS_FIRST",
		"TOURNEY_POINTS_DECAY_PERCENT",
		"TOURNEY_DOCS_ENABLED",
	} {
		_ = os.Unsetenv(envVar)
	}
}

func createTempFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	return path
}
