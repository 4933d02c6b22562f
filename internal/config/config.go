// Package config defines service configuration and its loading.
package config

import (
	"context"
	"strings"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`
	// LogFormat selects text or json output.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":9080".
	Addr string `koanf:"addr"`

	// ReportsDir is where rendered PDF reports are archived.
	ReportsDir string `koanf:"reports_dir"`

	// StoreBackend is one of memory, sqlite, postgres, mysql.
	StoreBackend string `koanf:"store_backend"`
	// StoreDSN is passed to the SQL driver.
	StoreDSN string `koanf:"store_dsn"`

	// DedupeSize bounds remembered client submission IDs (<= 0 is unbounded).
	DedupeSize int `koanf:"dedupe_size"`

	// ModalityWeights overrides fusion weights per modality tag.
	ModalityWeights map[string]float64 `koanf:"modality_weights"`
	// DefaultModalityWeight applies to modalities without their own weight.
	DefaultModalityWeight float64 `koanf:"default_modality_weight"`

	// Outbound mail relay.
	SMTPHost     string `koanf:"smtp_host"`
	SMTPPort     int    `koanf:"smtp_port"`
	SMTPUsername string `koanf:"smtp_username"`
	SMTPPassword string `koanf:"smtp_password"`
	SMTPUseTLS   string `koanf:"smtp_use_tls"` // 1, true or yes enable STARTTLS
	SMTPSender   string `koanf:"smtp_sender"`  // defaults to SMTPUsername
}

// New returns a Config holding the defaults.
func New(_ context.Context) *Config {
	return &Config{
		LogLevel:     "info",
		LogFormat:    "text",
		Addr:         ":9080",
		ReportsDir:   "reports",
		StoreBackend: "memory",
		DedupeSize:   50_000,
		// empty: the aggregator's built-in weights apply
		ModalityWeights:       map[string]float64{},
		DefaultModalityWeight: 0.20,
		SMTPPort:              587,
		SMTPUseTLS:            "true",
	}
}

// UseTLS interprets SMTPUseTLS.
func (c *Config) UseTLS() bool {
	return Truthy(c.SMTPUseTLS)
}

// Truthy accepts 1, true and yes in any case.
func Truthy(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "1", "true", "yes":
		return true
	}
	return false
}
