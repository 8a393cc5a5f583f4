package config_test

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/okian/critic/internal/config"
	"github.com/smartystreets/goconvey/convey"
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
				convey.So(cfg, convey.ShouldNotBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":9080")
				convey.So(cfg.Store, convey.ShouldEqual, config.StoreSQLite)
				convey.So(cfg.CatalogRPS, convey.ShouldEqual, 5.0)
			})
		})

		convey.Convey("When loading config with environment variables", func() {
			_ = os.Setenv("CRITIC_ADDR", ":8080")
			_ = os.Setenv("CRITIC_STORE", "memory")
			_ = os.Setenv("CRITIC_TX_MAX_ATTEMPTS", "7")
			_ = os.Setenv("CRITIC_CATALOG_RPS", "2.5")
			_ = os.Setenv("CRITIC_RANDOM_SEED", "42")

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should override defaults with env vars", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
				convey.So(cfg.Store, convey.ShouldEqual, config.StoreMemory)
				convey.So(cfg.TxMaxAttempts, convey.ShouldEqual, 7)
				convey.So(cfg.CatalogRPS, convey.ShouldEqual, 2.5)
				convey.So(cfg.RandomSeed, convey.ShouldEqual, uint64(42))
			})
		})

		convey.Convey("When loading config with YAML file", func() {
			tmpFile := createTempConfigFile(`
addr: ":9090"
store: sqlite
database_path: /tmp/critic-test.db
catalog_client_id: abc
catalog_client_secret: def
catalog_timeout_ms: 2500
log_format: json
`)
			defer func() { _ = os.Remove(tmpFile) }()
			_ = os.Setenv("CRITIC_CONFIG", tmpFile)

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should load from YAML file", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":9090")
				convey.So(cfg.DatabasePath, convey.ShouldEqual, "/tmp/critic-test.db")
				convey.So(cfg.CatalogClientID, convey.ShouldEqual, "abc")
				convey.So(cfg.CatalogTimeoutMS, convey.ShouldEqual, 2500)
				convey.So(cfg.LogFormat, convey.ShouldEqual, "json")
			})

			convey.Convey("And environment variables override file values", func() {
				_ = os.Setenv("CRITIC_ADDR", ":7070")
				cfg, err := config.Load(ctx)
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":7070")
				convey.So(cfg.CatalogTimeoutMS, convey.ShouldEqual, 2500)
			})
		})

		convey.Convey("When loading config with invalid YAML file", func() {
			tmpFile := createTempConfigFile(`invalid: yaml: content: [`)
			defer func() { _ = os.Remove(tmpFile) }()
			_ = os.Setenv("CRITIC_CONFIG", tmpFile)

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return a load error", func() {
				convey.So(errors.Is(err, config.ErrLoadConfig), convey.ShouldBeTrue)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When loading config with non-existent file", func() {
			_ = os.Setenv("CRITIC_CONFIG", "/non/existent/critic.yaml")

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return a load error", func() {
				convey.So(errors.Is(err, config.ErrLoadConfig), convey.ShouldBeTrue)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When the resulting config is invalid", func() {
			_ = os.Setenv("CRITIC_STORE", "cassandra")

			cfg, err := config.Load(ctx)

			convey.Convey("Then validation rejects it", func() {
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})
	})
}

func clearConfigEnvVars() {
	envVars := []string{
		"CRITIC_CONFIG",
		"CRITIC_ADDR",
		"CRITIC_STORE",
		"CRITIC_TX_MAX_ATTEMPTS",
		"CRITIC_CATALOG_RPS",
		"CRITIC_RANDOM_SEED",
	}
	for _, envVar := range envVars {
		_ = os.Unsetenv(envVar)
	}
}

func createTempConfigFile(content string) string {
	tmpFile, err := os.CreateTemp("", "critic-config-*.yaml")
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
