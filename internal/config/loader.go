package config

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

const (
	envPrefix     = "HEARTFUSE_"
	envConfigFile = envPrefix + "CONFIG"

	// legacySMTPPrefix covers the relay variables older deployments already export.
	legacySMTPPrefix = "SMTP_"

	weightsKey = "modality_weights"
)

// Load builds a Config by layering defaults, optional file, and env vars.
// Order of precedence (low -> high):
//  1. defaults (New(ctx))
//  2. file (YAML) if HEARTFUSE_CONFIG is set
//  3. SMTP_HOST, SMTP_PORT, SMTP_USER, SMTP_PASSWORD, SMTP_USE_TLS, SMTP_SENDER
//  4. env (prefix HEARTFUSE_)
func Load(ctx context.Context) (*Config, error) {
	base := New(ctx)

	k := koanf.New(".")

	if path := os.Getenv(envConfigFile); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrLoadConfig, path, err)
		}
	}

	// SMTP_USER -> smtp_username, SMTP_HOST -> smtp_host
	legacy := env.Provider(legacySMTPPrefix, ".", func(s string) string {
		s = strings.ToLower(s)
		if s == "smtp_user" {
			return "smtp_username"
		}
		return s
	})
	if err := k.Load(legacy, nil); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	// HEARTFUSE_SMTP_HOST -> smtp_host (flat keys); per-modality weights as
	// HEARTFUSE_MODALITY_WEIGHTS_PPG -> modality_weights.ppg
	envProvider := env.Provider(envPrefix, ".", func(s string) string {
		s = strings.ToLower(strings.TrimPrefix(s, envPrefix))
		if rest, ok := strings.CutPrefix(s, weightsKey+"_"); ok {
			return weightsKey + "." + rest
		}
		return s
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	cfg := *base
	cfg.ModalityWeights = make(map[string]float64)
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}
	cfg.ModalityWeights = canonicalWeights(cfg.ModalityWeights)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// canonicalWeights upper-cases modality keys. When two spellings collide the
// lower-case one (as produced by env vars) wins.
func canonicalWeights(in map[string]float64) map[string]float64 {
	keys := make([]string, 0, len(in))
	for m := range in {
		keys = append(keys, m)
	}
	sort.Strings(keys)
	out := make(map[string]float64, len(in))
	for _, m := range keys {
		out[strings.ToUpper(strings.TrimSpace(m))] = in[m]
	}
	return out
}

// Validate checks fields the service cannot start without.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Addr) == "" {
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	}
	if strings.TrimSpace(c.ReportsDir) == "" {
		return fmt.Errorf("%w: reports_dir must not be empty", ErrInvalidConfig)
	}
	switch strings.ToLower(c.StoreBackend) {
	case "memory", "sqlite", "postgres", "mysql":
	default:
		return fmt.Errorf("%w: unknown store_backend %q", ErrInvalidConfig, c.StoreBackend)
	}
	if c.SMTPPort < 0 || c.SMTPPort > 65535 {
		return fmt.Errorf("%w: smtp_port %d out of range", ErrInvalidConfig, c.SMTPPort)
	}
	return nil
}
