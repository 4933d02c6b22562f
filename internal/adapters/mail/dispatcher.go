package mail

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/okian/heartfuse/pkg/logger"
	"github.com/okian/heartfuse/pkg/metrics"
)

// Dispatch outcomes, as recorded in metrics.
const (
	OutcomeSent          = "sent"
	OutcomeNotConfigured = "not_configured"
	OutcomeNoRecipient   = "no_recipient"
	OutcomeFailed        = "failed"
)

// Dispatcher validates relay options and sends messages through a Transport.
type Dispatcher struct {
	cfg       Config
	transport Transport
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithTransport replaces the SMTP transport.
func WithTransport(t Transport) Option {
	return func(d *Dispatcher) {
		if t != nil {
			d.transport = t
		}
	}
}

// NewDispatcher creates a dispatcher. An incomplete cfg is accepted; every
// Dispatch then fails with ErrMailNotConfigured.
func NewDispatcher(cfg Config, opts ...Option) *Dispatcher {
	d := &Dispatcher{cfg: cfg.WithDefaults(), transport: SMTPTransport{}}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Configured reports whether dispatch can be attempted.
func (d *Dispatcher) Configured() bool { return d.cfg.Validate() == nil }

// Dispatch sends msg. It never touches the attachment on disk.
func (d *Dispatcher) Dispatch(ctx context.Context, msg Message) error {
	start := time.Now()
	if err := d.cfg.Validate(); err != nil {
		metrics.RecordMailDispatch(OutcomeNotConfigured, 0)
		return err
	}
	if strings.TrimSpace(msg.To) == "" {
		metrics.RecordMailDispatch(OutcomeNoRecipient, 0)
		return ErrNoRecipient
	}
	err := d.transport.Send(ctx, d.cfg, msg)
	ms := float64(time.Since(start).Milliseconds())
	if err != nil {
		metrics.RecordMailDispatch(OutcomeFailed, ms)
		logger.Get().Warn(ctx, "report mail failed",
			logger.String("host", d.cfg.Host),
			logger.Int("port", d.cfg.Port),
			logger.Error(err),
		)
		return fmt.Errorf("%w: %w", ErrMailTransport, err)
	}
	metrics.RecordMailDispatch(OutcomeSent, ms)
	return nil
}
