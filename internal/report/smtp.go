package report

import (
	"fmt"
	"net/smtp"
	"strings"

	"github.com/mclemoreauction/neighbor-letters/internal/config"
)

// SMTPMailer sends plaintext mail over authenticated SMTP with STARTTLS.
type SMTPMailer struct {
	host     string
	port     int
	username string
	password string
	from     string
	to       []string

	// send is swappable in tests.
	send func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

// NewSMTPMailer builds a mailer from report configuration.
func NewSMTPMailer(cfg config.ReportConfig) *SMTPMailer {
	return &SMTPMailer{
		host:     cfg.SMTPHost,
		port:     cfg.SMTPPort,
		username: cfg.SMTPUsername,
		password: cfg.SMTPPassword,
		from:     cfg.From,
		to:       strings.Split(cfg.To, ","),
		send:     smtp.SendMail,
	}
}

// Send delivers one plaintext message.
func (m *SMTPMailer) Send(subject, body string) error {
	var sb strings.Builder
	fmt.Fprintf(&sb, "From: %s\r\n", m.from)
	fmt.Fprintf(&sb, "To: %s\r\n", strings.Join(m.to, ", "))
	fmt.Fprintf(&sb, "Subject: %s\r\n", subject)
	sb.WriteString("MIME-Version: 1.0\r\n")
	sb.WriteString("Content-Type: text/plain; charset=utf-8\r\n")
	sb.WriteString("\r\n")
	sb.WriteString(body)

	addr := fmt.Sprintf("%s:%d", m.host, m.port)
	auth := smtp.PlainAuth("", m.username, m.password, m.host)
	if err := m.send(addr, auth, m.from, m.to, []byte(sb.String())); err != nil {
		return fmt.Errorf("smtp send: %w", err)
	}
	return nil
}
