package notify

import (
	"context"
	"fmt"

	"github.com/wneessen/go-mail"
)

// SMTPConfig holds the mail server settings.
type SMTPConfig struct {
	Host      string
	Port      int
	Username  string
	Password  string
	From      string
	Recipient string
}

// SMTPMailer sends notifications through an SMTP server with go-mail.
type SMTPMailer struct {
	client    *mail.Client
	from      string
	recipient string
}

// NewSMTPMailer builds a mailer. No connection is made until Notify.
func NewSMTPMailer(cfg SMTPConfig) (*SMTPMailer, error) {
	if cfg.From == "" || cfg.Recipient == "" {
		return nil, fmt.Errorf("notify: sender and recipient addresses are required")
	}

	opts := []mail.Option{
		mail.WithPort(cfg.Port),
		mail.WithTLSPolicy(mail.TLSOpportunistic),
	}
	if cfg.Username != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(cfg.Username),
			mail.WithPassword(cfg.Password),
		)
	}

	client, err := mail.NewClient(cfg.Host, opts...)
	if err != nil {
		return nil, fmt.Errorf("notify: creating SMTP client: %w", err)
	}

	return &SMTPMailer{client: client, from: cfg.From, recipient: cfg.Recipient}, nil
}

func (m *SMTPMailer) Notify(ctx context.Context, msg Message) error {
	out, err := m.message(msg)
	if err != nil {
		return err
	}
	if err := m.client.DialAndSendWithContext(ctx, out); err != nil {
		return fmt.Errorf("notify: sending mail: %w", err)
	}
	return nil
}

func (m *SMTPMailer) message(msg Message) (*mail.Msg, error) {
	out := mail.NewMsg()
	if err := out.From(m.from); err != nil {
		return nil, fmt.Errorf("notify: invalid sender %q: %w", m.from, err)
	}
	if err := out.To(m.recipient); err != nil {
		return nil, fmt.Errorf("notify: invalid recipient %q: %w", m.recipient, err)
	}
	out.Subject(msg.Subject)
	out.SetBodyString(mail.TypeTextPlain, msg.Body)
	return out, nil
}
