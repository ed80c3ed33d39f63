package notify

import (
	"fmt"
	"log/slog"
	"net/smtp"
	"strings"
)

// Mailer delivers out-of-band notifications. Senders treat delivery as
// best effort: a failed send never rolls back the state change that
// triggered it.
type Mailer interface {
	SendPasswordReset(to, name, resetURL string) error
}

// SMTPMailer sends through a plain SMTP relay.
type SMTPMailer struct {
	addr string
	from string
}

func NewSMTPMailer(addr, from string) *SMTPMailer {
	return &SMTPMailer{addr: addr, from: from}
}

func (m *SMTPMailer) SendPasswordReset(to, name, resetURL string) error {
	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", m.from)
	fmt.Fprintf(&b, "To: %s\r\n", to)
	b.WriteString("Subject: Reset your Momentum password\r\n")
	b.WriteString("\r\n")
	fmt.Fprintf(&b, "Hi %s,\r\n\r\n", name)
	fmt.Fprintf(&b, "Reset your password within 10 minutes using this link:\r\n%s\r\n\r\n", resetURL)
	b.WriteString("If you did not request this, ignore this message.\r\n")

	if err := smtp.SendMail(m.addr, nil, m.from, []string{to}, []byte(b.String())); err != nil {
		return fmt.Errorf("send reset mail: %w", err)
	}
	return nil
}

// LogMailer is the development stand-in: it logs instead of sending.
type LogMailer struct {
	logger *slog.Logger
}

func NewLogMailer(logger *slog.Logger) *LogMailer {
	return &LogMailer{logger: logger}
}

func (m *LogMailer) SendPasswordReset(to, name, resetURL string) error {
	m.logger.Info("password reset mail (dev mode, not sent)",
		"to", to, "reset_url", resetURL)
	return nil
}
