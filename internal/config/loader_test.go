package config_test

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/okian/tasklytics/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfigDefaults(t *testing.T) {
	convey.Convey("Given a new config with defaults", t, func() {
		cfg := config.New(context.Background())

		convey.Convey("Then it should have sensible defaults", func() {
			convey.So(cfg.Addr, convey.ShouldEqual, ":9080")
			convey.So(cfg.EndpointURL, convey.ShouldEqual, config.DefaultEndpointURL)
			convey.So(cfg.FetchTimeout(), convey.ShouldEqual, 10*time.Second)
			convey.So(cfg.BreakerCooldown(), convey.ShouldEqual, 30*time.Second)
			convey.So(cfg.RefreshSchedule, convey.ShouldBeEmpty)
			convey.So(cfg.TimeLayout, convey.ShouldEqual, config.DefaultTimeLayout)
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
				convey.So(cfg, convey.ShouldNotBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":9080")
				convey.So(cfg.FetchTimeoutMS, convey.ShouldEqual, 10_000)
				convey.So(cfg.ReloadBurst, convey.ShouldEqual, 1)
			})
		})

		convey.Convey("When loading config with environment variables", func() {
			_ = os.Setenv("TASKLYTICS_ADDR", ":8080")
			_ = os.Setenv("TASKLYTICS_ENDPOINT_URL", "http://example.test/data")
			_ = os.Setenv("TASKLYTICS_FETCH_TIMEOUT_MS", "2500")
			_ = os.Setenv("TASKLYTICS_REFRESH_SCHEDULE", "*/5 * * * *")
			_ = os.Setenv("TASKLYTICS_RELOAD_RPS", "0.5")

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should override defaults with env vars", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
				convey.So(cfg.EndpointURL, convey.ShouldEqual, "http://example.test/data")
				convey.So(cfg.FetchTimeout(), convey.ShouldEqual, 2500*time.Millisecond)
				convey.So(cfg.RefreshSchedule, convey.ShouldEqual, "*/5 * * * *")
				convey.So(cfg.ReloadRPS, convey.ShouldEqual, 0.5)
			})
		})

		convey.Convey("When loading config with YAML file", func() {
			tmpFile := createTempConfigFile(`
addr: ":9090"
endpoint_url: "https://sheets.example.test/exec"
fetch_timeout_ms: 0
log_format: json
`)
			defer func() { _ = os.Remove(tmpFile) }()
			_ = os.Setenv("TASKLYTICS_CONFIG", tmpFile)

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should load from YAML file", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":9090")
				convey.So(cfg.EndpointURL, convey.ShouldEqual, "https://sheets.example.test/exec")
				convey.So(cfg.FetchTimeoutMS, convey.ShouldEqual, 0)
				convey.So(cfg.LogFormat, convey.ShouldEqual, "json")
				convey.So(cfg.BreakerMaxFailures, convey.ShouldEqual, 5) // default
			})
		})

		convey.Convey("When loading config with both file and environment variables", func() {
			tmpFile := createTempConfigFile(`
addr: ":9090"
breaker_max_failures: 3
`)
			defer func() { _ = os.Remove(tmpFile) }()
			_ = os.Setenv("TASKLYTICS_CONFIG", tmpFile)
			_ = os.Setenv("TASKLYTICS_ADDR", ":8080")

			cfg, err := config.Load(ctx)

			convey.Convey("Then environment variables should override file values", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8080")         // env
				convey.So(cfg.BreakerMaxFailures, convey.ShouldEqual, 3) // file
			})
		})

		convey.Convey("When loading config with invalid YAML file", func() {
			tmpFile := createTempConfigFile(`invalid: yaml: content: [`)
			defer func() { _ = os.Remove(tmpFile) }()
			_ = os.Setenv("TASKLYTICS_CONFIG", tmpFile)

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return a load error", func() {
				convey.So(errors.Is(err, config.ErrLoadConfig), convey.ShouldBeTrue)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When loading config with non-existent file", func() {
			_ = os.Setenv("TASKLYTICS_CONFIG", "/non/existent/file.yaml")

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return an error", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When loading config with empty addr", func() {
			_ = os.Setenv("TASKLYTICS_ADDR", "")

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return a validation error", func() {
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
				convey.So(err.Error(), convey.ShouldContainSubstring, "addr must not be empty")
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When loading config with a relative endpoint", func() {
			_ = os.Setenv("TASKLYTICS_ENDPOINT_URL", "/api/data")

			_, err := config.Load(ctx)

			convey.Convey("Then it should reject it", func() {
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
				convey.So(err.Error(), convey.ShouldContainSubstring, "endpoint_url")
			})
		})

		convey.Convey("When loading config with a bad cron schedule", func() {
			_ = os.Setenv("TASKLYTICS_REFRESH_SCHEDULE", "every five minutes")

			_, err := config.Load(ctx)

			convey.Convey("Then it should reject it", func() {
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
				convey.So(err.Error(), convey.ShouldContainSubstring, "refresh_schedule")
			})
		})

		convey.Convey("When loading config with a negative timeout", func() {
			_ = os.Setenv("TASKLYTICS_FETCH_TIMEOUT_MS", "-1")

			_, err := config.Load(ctx)

			convey.Convey("Then it should reject it", func() {
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When loading config with invalid numeric environment variables", func() {
			_ = os.Setenv("TASKLYTICS_FETCH_TIMEOUT_MS", "soon")

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
	envVars := []string{
		"TASKLYTICS_CONFIG",
		"TASKLYTICS_ADDR",
		"TASKLYTICS_ENDPOINT_URL",
		"TASKLYTICS_FETCH_TIMEOUT_MS",
		"TASKLYTICS_REFRESH_SCHEDULE",
		"TASKLYTICS_RELOAD_RPS",
	}
	for _, envVar := range envVars {
		_ = os.Unsetenv(envVar)
	}
}

func createTempConfigFile(content string) string {
	tmpFile, err := os.CreateTemp("", "tasklytics-config-*.yaml")
	if err != nil {
		panic(err)
	}
	if _, err := tmpFile.WriteString(content); err != nil {
		panic(err)
	}
	if err := tmpFile.Close(); err != nil {
		panic(err)
	}
	return tmpFile.Name()
}
