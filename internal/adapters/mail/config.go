// Package mail delivers archived reports through an SMTP relay.
package mail

import (
	"fmt"
	"strings"
)

// DefaultPort is the submission port used when none is configured.
const DefaultPort = 587

// Config holds relay options. The zero value is not configured.
type Config struct {
	Host     string
	Port     int
	Username string
	Password string
	UseTLS   bool
	Sender   string // defaults to Username
}

// WithDefaults fills the port and sender.
func (c Config) WithDefaults() Config {
	if c.Port <= 0 {
		c.Port = DefaultPort
	}
	if strings.TrimSpace(c.Sender) == "" {
		c.Sender = c.Username
	}
	return c
}

// Validate reports ErrMailNotConfigured when host or sender is missing.
func (c Config) Validate() error {
	c = c.WithDefaults()
	var missing []string
	if strings.TrimSpace(c.Host) == "" {
		missing = append(missing, "host")
	}
	if strings.TrimSpace(c.Sender) == "" {
		missing = append(missing, "sender")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing %s: %w", strings.Join(missing, " and "), ErrMailNotConfigured)
	}
	return nil
}
