// Package mailer delivers invoice and reminder emails.
package mailer

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/wneessen/go-mail"
)

// Message is one outbound email.
type Message struct {
	To             string
	ReplyTo        string
	Subject        string
	Body           string
	AttachmentName string
	Attachment     []byte
}

// Mailer sends messages. Implementations must honour ctx cancellation.
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

// SMTPConfig configures the SMTP transport.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	Timeout  time.Duration
}

// SMTP sends mail through an SMTP relay.
type SMTP struct {
	cfg SMTPConfig
}

// New returns an SMTP mailer, or a logging mailer when no host is configured.
func New(cfg SMTPConfig) Mailer {
	if cfg.Host == "" {
		return Log{}
	}
	return &SMTP{cfg: cfg}
}

func (s *SMTP) Send(ctx context.Context, msg Message) error {
	m := mail.NewMsg()
	if err := m.From(s.cfg.From); err != nil {
		return fmt.Errorf("set sender: %w", err)
	}
	if err := m.To(msg.To); err != nil {
		return fmt.Errorf("set recipient %q: %w", msg.To, err)
	}
	if msg.ReplyTo != "" {
		if err := m.ReplyTo(msg.ReplyTo); err != nil {
			return fmt.Errorf("set reply-to: %w", err)
		}
	}
	m.Subject(msg.Subject)
	m.SetBodyString(mail.TypeTextPlain, msg.Body)
	if len(msg.Attachment) > 0 {
		if err := m.AttachReader(msg.AttachmentName, bytes.NewReader(msg.Attachment)); err != nil {
			return fmt.Errorf("attach %s: %w", msg.AttachmentName, err)
		}
	}

	opts := []mail.Option{
		mail.WithPort(s.cfg.Port),
		mail.WithTLSPolicy(mail.TLSOpportunistic),
	}
	if s.cfg.Timeout > 0 {
		opts = append(opts, mail.WithTimeout(s.cfg.Timeout))
	}
	if s.cfg.Username != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(s.cfg.Username),
			mail.WithPassword(s.cfg.Password),
		)
	}
	client, err := mail.NewClient(s.cfg.Host, opts...)
	if err != nil {
		return fmt.Errorf("smtp client: %w", err)
	}
	if err := client.DialAndSendWithContext(ctx, m); err != nil {
		return fmt.Errorf("smtp send to %s: %w", msg.To, err)
	}
	return nil
}

// Log writes messages to the log instead of sending them. Used when SMTP
// is not configured.
type Log struct{}

func (Log) Send(_ context.Context, msg Message) error {
	logrus.WithFields(logrus.Fields{
		"to":         msg.To,
		"subject":    msg.Subject,
		"attachment": msg.AttachmentName,
		"bytes":      len(msg.Attachment),
	}).Info("Email not sent: SMTP not configured")
	return nil
}

// InvoiceContent is what the invoice and reminder templates print.
type InvoiceContent struct {
	Number     string
	IssuerName string
	ClientName string
	Total      string
	DueDate    time.Time
}

// InvoiceMessage composes the email that delivers an invoice.
func InvoiceMessage(to, replyTo string, c InvoiceContent, pdf []byte) Message {
	var b strings.Builder
	fmt.Fprintf(&b, "Dear %s,\n\n", c.ClientName)
	fmt.Fprintf(&b, "Please find attached invoice %s from %s.\n\n", c.Number, c.IssuerName)
	fmt.Fprintf(&b, "Amount due: %s\nDue date: %s\n\n", c.Total, c.DueDate.Format("January 2, 2006"))
	fmt.Fprintf(&b, "Thank you for your business!\n%s\n", c.IssuerName)
	return Message{
		To:             to,
		ReplyTo:        replyTo,
		Subject:        fmt.Sprintf("Invoice %s from %s", c.Number, c.IssuerName),
		Body:           b.String(),
		AttachmentName: c.Number + ".pdf",
		Attachment:     pdf,
	}
}

// ReminderMessage composes a payment reminder.
func ReminderMessage(to, replyTo string, c InvoiceContent) Message {
	var b strings.Builder
	fmt.Fprintf(&b, "Dear %s,\n\n", c.ClientName)
	fmt.Fprintf(&b, "This is a friendly reminder that invoice %s for %s was due on %s.\n\n",
		c.Number, c.Total, c.DueDate.Format("January 2, 2006"))
	fmt.Fprintf(&b, "If you have already paid, please disregard this message.\n\n%s\n", c.IssuerName)
	return Message{
		To:      to,
		ReplyTo: replyTo,
		Subject: fmt.Sprintf("Payment reminder: invoice %s", c.Number),
		Body:    b.String(),
	}
}
