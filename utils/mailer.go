package utils

import (
	"fmt"

	gomail "gopkg.in/gomail.v2"

	"github.com/guildpost/guildpost/config"
)

// Mailer sends plain text email over SMTP using configuration values.
type Mailer struct {
	host     string
	port     int
	username string
	password string
	from     string
	fromName string
}

// NewMailer builds a Mailer from loaded configuration.
func NewMailer() *Mailer {
	cfg := config.Get()
	fromName := cfg.SMTPFromName
	if fromName == "" {
		fromName = "GuildPost"
	}
	return &Mailer{
		host:     cfg.SMTPHost,
		port:     cfg.SMTPPort,
		username: cfg.SMTPUsername,
		password: cfg.SMTPPassword,
		from:     cfg.SMTPFrom,
		fromName: fromName,
	}
}

// Send delivers one message to one recipient.
func (m *Mailer) Send(to, subject, body string) error {
	if m.host == "" || m.from == "" {
		return fmt.Errorf("smtp not configured")
	}

	msg := gomail.NewMessage()
	msg.SetAddressHeader("From", m.from, m.fromName)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/plain", body)

	d := gomail.NewDialer(m.host, m.port, m.username, m.password)
	return d.DialAndSend(msg)
}
