// Package mailer renders and delivers account email.
package mailer

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/wneessen/go-mail"

	"github.com/msomdec/passgate/internal/domain"
)

// SMTPConfig holds the connection settings for an SMTP relay.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// SMTPMailer delivers templated HTML email through an SMTP relay. Port 465
// uses implicit TLS; other ports upgrade with STARTTLS when offered.
type SMTPMailer struct {
	cfg SMTPConfig
}

// NewSMTPMailer creates an SMTPMailer.
func NewSMTPMailer(cfg SMTPConfig) *SMTPMailer {
	return &SMTPMailer{cfg: cfg}
}

func (m *SMTPMailer) Send(ctx context.Context, msg domain.Email) error {
	html, err := Render(ctx, msg.Template, msg.Data)
	if err != nil {
		return err
	}

	message := mail.NewMsg()
	if err := message.From(m.cfg.From); err != nil {
		return fmt.Errorf("sender address: %w", err)
	}
	if err := message.To(msg.To); err != nil {
		return fmt.Errorf("recipient address: %w", err)
	}
	message.Subject(msg.Subject)
	message.SetDate()
	message.SetMessageID()
	message.SetBodyString(mail.TypeTextHTML, html)

	client, err := mail.NewClient(m.cfg.Host, m.clientOptions()...)
	if err != nil {
		return fmt.Errorf("smtp client: %w", err)
	}
	if err := client.DialAndSendWithContext(ctx, message); err != nil {
		return fmt.Errorf("send email: %w", err)
	}
	return nil
}

func (m *SMTPMailer) clientOptions() []mail.Option {
	opts := []mail.Option{mail.WithPort(m.cfg.Port)}
	if m.cfg.Port == 465 {
		opts = append(opts, mail.WithSSL())
	} else {
		opts = append(opts, mail.WithTLSPolicy(mail.TLSOpportunistic))
	}
	if m.cfg.Username != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthAutoDiscover),
			mail.WithUsername(m.cfg.Username),
			mail.WithPassword(m.cfg.Password),
		)
	}
	return opts
}

// LogMailer stands in when no SMTP relay is configured. It records that a
// message would have been sent without logging its contents.
type LogMailer struct{}

func (LogMailer) Send(ctx context.Context, msg domain.Email) error {
	if _, err := Render(ctx, msg.Template, msg.Data); err != nil {
		return err
	}
	slog.InfoContext(ctx, "email not sent, no SMTP host configured", "to", msg.To, "subject", msg.Subject, "template", msg.Template)
	return nil
}
