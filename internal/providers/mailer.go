package providers

import (
	"context"
	"errors"
	"fmt"
	"net/smtp"
	"strings"

	"bulkwave/internal/config"
)

// SMTPMailer is the MailTransport backed by a plain SMTP relay.
type SMTPMailer struct {
	addr     string
	host     string
	auth     smtp.Auth
	fromName string

	// sendMail is swapped in tests; smtp.SendMail otherwise.
	sendMail func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

// NewSMTPMailer builds the mailer from configuration. Auth is optional:
// relays without credentials (local dev, internal relay) are supported by
// leaving Username empty.
func NewSMTPMailer(cfg config.SMTPConfig) (*SMTPMailer, error) {
	if cfg.Host == "" {
		return nil, errors.New("smtp: host is required")
	}
	m := &SMTPMailer{
		addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		host:     cfg.Host,
		fromName: cfg.FromName,
		sendMail: smtp.SendMail,
	}
	if cfg.Username != "" {
		m.auth = smtp.PlainAuth("", cfg.Username, cfg.Password, cfg.Host)
	}
	return m, nil
}

// Send delivers one rendered message. The context deadline is not enforced
// below the SMTP dial; the relay connection carries its own timeouts and any
// failure is a transport failure for the caller.
func (m *SMTPMailer) Send(ctx context.Context, to, subject, body, from string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if from == "" {
		return errors.New("smtp: sender address is required")
	}

	var b strings.Builder
	if m.fromName != "" {
		fmt.Fprintf(&b, "From: %s <%s>\r\n", m.fromName, from)
	} else {
		fmt.Fprintf(&b, "From: %s\r\n", from)
	}
	fmt.Fprintf(&b, "To: %s\r\n", to)
	fmt.Fprintf(&b, "Subject: %s\r\n", subject)
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=\"utf-8\"\r\n")
	b.WriteString("\r\n")
	b.WriteString(body)

	return m.sendMail(m.addr, m.auth, from, []string{to}, []byte(b.String()))
}
