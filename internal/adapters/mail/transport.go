package mail

import (
	"bytes"
	"context"
	"fmt"

	gomail "github.com/wneessen/go-mail"
)

// Transport hands a message to a relay.
type Transport interface {
	Send(ctx context.Context, cfg Config, msg Message) error
}

// SMTPTransport delivers through an SMTP relay, using STARTTLS when
// cfg.UseTLS and PLAIN auth when a username is set.
type SMTPTransport struct{}

// Send implements Transport.
func (SMTPTransport) Send(ctx context.Context, cfg Config, msg Message) error {
	m, err := compose(cfg, msg)
	if err != nil {
		return err
	}

	opts := []gomail.Option{gomail.WithPort(cfg.Port)}
	if cfg.UseTLS {
		opts = append(opts, gomail.WithTLSPolicy(gomail.TLSMandatory))
	} else {
		opts = append(opts, gomail.WithTLSPolicy(gomail.NoTLS))
	}
	if cfg.Username != "" {
		opts = append(opts,
			gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
			gomail.WithUsername(cfg.Username),
			gomail.WithPassword(cfg.Password),
		)
	}
	client, err := gomail.NewClient(cfg.Host, opts...)
	if err != nil {
		return fmt.Errorf("smtp client: %w", err)
	}
	if err := client.DialAndSendWithContext(ctx, m); err != nil {
		return fmt.Errorf("smtp send: %w", err)
	}
	return nil
}

// compose builds the MIME message. The attachment is taken from the bytes
// already rendered, never re-read from disk.
func compose(cfg Config, msg Message) (*gomail.Msg, error) {
	m := gomail.NewMsg()
	if err := m.From(cfg.Sender); err != nil {
		return nil, fmt.Errorf("sender %q: %w", cfg.Sender, err)
	}
	if err := m.To(msg.To); err != nil {
		return nil, fmt.Errorf("recipient %q: %w", msg.To, err)
	}
	m.Subject(msg.Subject)
	m.SetBodyString(gomail.TypeTextPlain, msg.Body)
	if len(msg.Attachment) > 0 {
		if err := m.AttachReader(msg.AttachmentName, bytes.NewReader(msg.Attachment)); err != nil {
			return nil, fmt.Errorf("attach %s: %w", msg.AttachmentName, err)
		}
	}
	return m, nil
}
