// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package email

import (
	"context"
	"fmt"

	"github.com/wneessen/go-mail"

	"github.com/pdiddy/research-radar/pkg/types"
)

// Sender delivers digests over SMTP.
type Sender struct {
	SMTP types.SMTPConfig
}

// NewSender builds a Sender for the given transport settings.
func NewSender(cfg types.SMTPConfig) *Sender {
	return &Sender{SMTP: cfg}
}

// Send delivers one digest to the configured recipients. Delivery is a
// single SMTP transaction; any failure leaves the run unsent and the error
// tells the caller not to mark papers as seen.
func (s *Sender) Send(ctx context.Context, digest Digest, cfg types.EmailConfig) error {
	if len(cfg.Recipients) == 0 {
		return fmt.Errorf("no recipients configured")
	}
	if s.SMTP.Username == "" || s.SMTP.Password == "" {
		return fmt.Errorf("SMTP credentials are not configured (set SMTP_USERNAME and SMTP_PASSWORD)")
	}

	msg := mail.NewMsg()
	if err := msg.FromFormat(cfg.FromName, cfg.FromEmail); err != nil {
		return fmt.Errorf("invalid sender address %q: %w", cfg.FromEmail, err)
	}
	if err := msg.To(cfg.Recipients...); err != nil {
		return fmt.Errorf("invalid recipient address: %w", err)
	}
	msg.Subject(digest.Subject)
	msg.SetBodyString(mail.TypeTextPlain, digest.Text)
	msg.AddAlternativeString(mail.TypeTextHTML, digest.HTML)

	opts := []mail.Option{
		mail.WithPort(s.SMTP.Port),
		mail.WithSMTPAuth(mail.SMTPAuthPlain),
		mail.WithUsername(s.SMTP.Username),
		mail.WithPassword(s.SMTP.Password),
	}
	if s.SMTP.UseSSL {
		opts = append(opts, mail.WithSSL())
	} else {
		opts = append(opts, mail.WithTLSPolicy(mail.TLSMandatory))
	}

	client, err := mail.NewClient(s.SMTP.Host, opts...)
	if err != nil {
		return fmt.Errorf("configuring SMTP client for %s: %w", s.SMTP.Host, err)
	}

	if err := client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("sending digest via %s:%d: %w", s.SMTP.Host, s.SMTP.Port, err)
	}
	return nil
}
