package notify

import (
	"context"
	"errors"
	"fmt"
	"net/smtp"
	"strings"
)

// SMTPConfig holds the shared mail relay settings.
type SMTPConfig struct {
	// Host is the SMTP server hostname.
	Host string `yaml:"host"`
	// Port is the SMTP server port.
	Port int `yaml:"port"`
	// Sender is the authenticated sender address.
	Sender string `yaml:"sender"`
	// Password is the sender's SMTP password.
	Password string `yaml:"password"`
}

// Addr returns the host:port dial address.
func (c SMTPConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// sendFunc matches smtp.SendMail and is swapped out in tests.
type sendFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

// EmailNotifier delivers alerts to a list of recipients over SMTP.
type EmailNotifier struct {
	smtp       SMTPConfig
	subject    string
	recipients []string

	send sendFunc
}

// errNoRecipients is returned when an email channel has nobody to write to.
var errNoRecipients = errors.New("no recipients configured")

// NewEmailNotifier creates the email channel. Blank recipients are dropped.
func NewEmailNotifier(smtpConfig SMTPConfig, subject string, recipients []string) (*EmailNotifier, error) {
	cleaned := cleanList(recipients)
	if len(cleaned) == 0 {
		return nil, errNoRecipients
	}

	if subject == "" {
		subject = "Security Alert"
	}

	return &EmailNotifier{
		smtp:       smtpConfig,
		subject:    subject,
		recipients: cleaned,
		send:       smtp.SendMail,
	}, nil
}

// Name identifies the channel in logs.
func (n *EmailNotifier) Name() string {
	return "email"
}

// Send delivers one message to all recipients of this channel.
func (n *EmailNotifier) Send(_ context.Context, alert Alert) error {
	message := buildMessage(n.smtp.Sender, n.recipients, n.subject, alert.Body())

	auth := smtp.PlainAuth("", n.smtp.Sender, n.smtp.Password, n.smtp.Host)
	if err := n.send(n.smtp.Addr(), auth, n.smtp.Sender, n.recipients, message); err != nil {
		return fmt.Errorf("send alert mail: %w", err)
	}

	return nil
}

// buildMessage assembles a minimal RFC 5322 message.
func buildMessage(from string, to []string, subject, body string) []byte {
	var b strings.Builder

	b.WriteString("From: " + from + "\r\n")
	b.WriteString("To: " + strings.Join(to, ", ") + "\r\n")
	b.WriteString("Subject: " + subject + "\r\n")
	b.WriteString("\r\n")
	b.WriteString(body)

	return []byte(b.String())
}

// cleanList trims entries and drops blanks.
func cleanList(items []string) []string {
	cleaned := make([]string, 0, len(items))

	for _, item := range items {
		item = strings.TrimSpace(item)
		if item != "" {
			cleaned = append(cleaned, item)
		}
	}

	return cleaned
}
