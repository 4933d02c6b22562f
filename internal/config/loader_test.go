package config_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/okian/heartfuse/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

var configEnvVars = []string{
	"HEARTFUSE_CONFIG", "HEARTFUSE_ADDR", "HEARTFUSE_REPORTS_DIR", "HEARTFUSE_STORE_BACKEND",
	"HEARTFUSE_STORE_DSN", "HEARTFUSE_DEDUPE_SIZE", "HEARTFUSE_MODALITY_WEIGHTS_PPG",
	"HEARTFUSE_MODALITY_WEIGHTS_HEART_CSV", "HEARTFUSE_DEFAULT_MODALITY_WEIGHT",
	"HEARTFUSE_SMTP_HOST", "HEARTFUSE_SMTP_PORT", "HEARTFUSE_SMTP_SENDER", "HEARTFUSE_SMTP_USE_TLS",
	"SMTP_HOST", "SMTP_PORT", "SMTP_USER", "SMTP_PASSWORD", "SMTP_USE_TLS", "SMTP_SENDER",
}

func clearConfigEnvVars(t *testing.T) {
	for _, k := range configEnvVars {
		t.Setenv(k, "")
		_ = os.Unsetenv(k)
	}
}

func TestConfigLoader(t *testing.T) {
	ctx := context.Background()

	convey.Convey("Given a config loader", t, func() {
		clearConfigEnvVars(t)

		convey.Convey("When loading config with defaults only", func() {
			cfg, err := config.Load(ctx)

			convey.Convey("Then it should load successfully with defaults", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":9080")
				convey.So(cfg.DedupeSize, convey.ShouldEqual, 50_000)
				convey.So(cfg.DefaultModalityWeight, convey.ShouldEqual, 0.20)
			})
		})

		convey.Convey("When loading config with environment variables", func() {
			_ = os.Setenv("HEARTFUSE_ADDR", ":8080")
			_ = os.Setenv("HEARTFUSE_REPORTS_DIR", "/var/lib/heartfuse")
			_ = os.Setenv("HEARTFUSE_STORE_BACKEND", "sqlite")
			_ = os.Setenv("HEARTFUSE_DEDUPE_SIZE", "10")
			_ = os.Setenv("HEARTFUSE_MODALITY_WEIGHTS_PPG", "0.5")
			_ = os.Setenv("HEARTFUSE_MODALITY_WEIGHTS_HEART_CSV", "0.1")
			_ = os.Setenv("HEARTFUSE_SMTP_USE_TLS", "no")

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should override defaults with env vars", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
				convey.So(cfg.ReportsDir, convey.ShouldEqual, "/var/lib/heartfuse")
				convey.So(cfg.StoreBackend, convey.ShouldEqual, "sqlite")
				convey.So(cfg.DedupeSize, convey.ShouldEqual, 10)
				convey.So(cfg.ModalityWeights["PPG"], convey.ShouldEqual, 0.5)
				convey.So(cfg.ModalityWeights["HEART_CSV"], convey.ShouldEqual, 0.1)
				convey.So(cfg.UseTLS(), convey.ShouldBeFalse)
			})
		})

		convey.Convey("When only the legacy SMTP variables are set", func() {
			_ = os.Setenv("SMTP_HOST", "smtp.example.com")
			_ = os.Setenv("SMTP_PORT", "2525")
			_ = os.Setenv("SMTP_USER", "bot@example.com")
			_ = os.Setenv("SMTP_USE_TLS", "yes")

			cfg, err := config.Load(ctx)

			convey.Convey("Then they should populate the relay options", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.SMTPHost, convey.ShouldEqual, "smtp.example.com")
				convey.So(cfg.SMTPPort, convey.ShouldEqual, 2525)
				convey.So(cfg.SMTPUsername, convey.ShouldEqual, "bot@example.com")
				convey.So(cfg.UseTLS(), convey.ShouldBeTrue)
			})

			convey.Convey("And prefixed variables should take precedence", func() {
				_ = os.Setenv("HEARTFUSE_SMTP_HOST", "relay.internal")
				cfg, err := config.Load(ctx)
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.SMTPHost, convey.ShouldEqual, "relay.internal")
			})
		})

		convey.Convey("When loading config with YAML file", func() {
			path := filepath.Join(t.TempDir(), "heartfuse.yaml")
			yaml := []byte(`addr: ":7070"
log_format: json
store_backend: postgres
store_dsn: "postgres://localhost/heartfuse"
modality_weights:
  ecg: 0.6
  echo: 0.15
smtp_host: mail.example.com
smtp_use_tls: false
`)
			convey.So(os.WriteFile(path, yaml, 0o600), convey.ShouldBeNil)
			_ = os.Setenv("HEARTFUSE_CONFIG", path)

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should use the file values", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":7070")
				convey.So(cfg.LogFormat, convey.ShouldEqual, "json")
				convey.So(cfg.StoreBackend, convey.ShouldEqual, "postgres")
				convey.So(cfg.ModalityWeights["ECG"], convey.ShouldEqual, 0.6)
				convey.So(cfg.ModalityWeights["ECHO"], convey.ShouldEqual, 0.15)
				convey.So(cfg.SMTPHost, convey.ShouldEqual, "mail.example.com")
				convey.So(cfg.UseTLS(), convey.ShouldBeFalse)
			})

			convey.Convey("And env vars should override the file", func() {
				_ = os.Setenv("HEARTFUSE_ADDR", ":6060")
				cfg, err := config.Load(ctx)
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":6060")
			})
		})

		convey.Convey("When the config file does not exist", func() {
			_ = os.Setenv("HEARTFUSE_CONFIG", filepath.Join(t.TempDir(), "missing.yaml"))
			_, err := config.Load(ctx)
			convey.So(errors.Is(err, config.ErrLoadConfig), convey.ShouldBeTrue)
		})

		convey.Convey("When the store backend is unknown", func() {
			_ = os.Setenv("HEARTFUSE_STORE_BACKEND", "cassandra")
			_, err := config.Load(ctx)
			convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
		})
	})
}
