package services

import (
	"fmt"
	"net/smtp"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/nova-nexus-hub/nexora-forms-backend/internal/config"
)

// Notifier dispatches confirmation messages to submitters. Implementations
// are best-effort; the caller treats failures as log-only.
type Notifier interface {
	SendRegistrationConfirmation(email, teamID, teamName string) error
	SendContactConfirmation(email, ticketID string) error
}

// EmailNotifier sends confirmations over SMTP.
type EmailNotifier struct {
	cfg    config.NotifyConfig
	logger *logrus.Logger
}

// NewEmailNotifier creates an SMTP-backed notifier.
func NewEmailNotifier(cfg config.NotifyConfig, logger *logrus.Logger) *EmailNotifier {
	return &EmailNotifier{cfg: cfg, logger: logger}
}

func (n *EmailNotifier) SendRegistrationConfirmation(email, teamID, teamName string) error {
	subject := "NEXORA 2K26 - Registration Confirmation"
	body := fmt.Sprintf(`Dear Participant,

Thank you for registering for NEXORA 2K26!

Your registration details:
- Team Name: %s
- Team ID: %s

IMPORTANT: Please complete your payment of Rs.120 and add your Team ID (%s) in the payment note.

Payment Details:
- UPI ID: indirasuthanvece@oksbi
- Amount: Rs.120
- Note: Add Team ID - %s

We will confirm your registration once payment is verified.

Best regards,
Nova Nexus Hub
Kings Engineering College
`, teamName, teamID, teamID, teamID)

	return n.send(email, subject, body)
}

func (n *EmailNotifier) SendContactConfirmation(email, ticketID string) error {
	subject := "NEXORA 2K26 - Message Received"
	body := fmt.Sprintf(`Dear User,

Thank you for contacting us!

Your message has been received and assigned Ticket ID: %s

We will respond to your query within 24-48 hours.

Best regards,
Nova Nexus Hub
Kings Engineering College
`, ticketID)

	return n.send(email, subject, body)
}

func (n *EmailNotifier) send(to, subject, body string) error {
	addr := fmt.Sprintf("%s:%d", n.cfg.SMTPHost, n.cfg.SMTPPort)

	var auth smtp.Auth
	if n.cfg.Username != "" {
		auth = smtp.PlainAuth("", n.cfg.Username, n.cfg.Password, n.cfg.SMTPHost)
	}

	var msg strings.Builder
	fmt.Fprintf(&msg, "From: %s\r\n", n.cfg.From)
	fmt.Fprintf(&msg, "To: %s\r\n", to)
	fmt.Fprintf(&msg, "Subject: %s\r\n", subject)
	msg.WriteString("MIME-Version: 1.0\r\nContent-Type: text/plain; charset=utf-8\r\n\r\n")
	msg.WriteString(body)

	if err := smtp.SendMail(addr, auth, n.cfg.From, []string{to}, []byte(msg.String())); err != nil {
		return fmt.Errorf("send mail: %w", err)
	}
	return nil
}

// NoopNotifier is used when notifications are disabled and in tests.
type NoopNotifier struct{}

func (NoopNotifier) SendRegistrationConfirmation(string, string, string) error { return nil }
func (NoopNotifier) SendContactConfirmation(string, string) error              { return nil }
