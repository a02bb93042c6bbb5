package mail

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	"gopkg.in/gomail.v2"

	"rigrent/internal/app/policies"
)

var ErrNoRecipient = errors.New("mail: recipient is required")

// Dialer is the part of gomail.Dialer the mailer needs.
type Dialer interface {
	DialAndSend(m ...*gomail.Message) error
}

// SMTPMailer sends plain text mail with an optional attachment.
type SMTPMailer struct {
	from   string
	dialer Dialer
}

func NewSMTPMailer(host string, port int, username, password, from string) *SMTPMailer {
	return &SMTPMailer{from: from, dialer: gomail.NewDialer(host, port, username, password)}
}

// NewMailerWithDialer is used by tests and custom transports.
func NewMailerWithDialer(from string, d Dialer) *SMTPMailer {
	return &SMTPMailer{from: from, dialer: d}
}

func (m *SMTPMailer) Send(ctx context.Context, mail policies.Mail) error {
	if mail.To == "" {
		return ErrNoRecipient
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := m.dialer.DialAndSend(m.compose(mail)); err != nil {
		return fmt.Errorf("failed to send email via gomail: %w", err)
	}
	return nil
}

func (m *SMTPMailer) compose(mail policies.Mail) *gomail.Message {
	msg := gomail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", mail.To)
	msg.SetHeader("Subject", mail.Subject)
	msg.SetBody("text/plain", mail.Text)
	if a := mail.Attachment; a != nil {
		data := a.Data
		msg.Attach(a.Filename,
			gomail.SetCopyFunc(func(w io.Writer) error {
				_, err := io.Copy(w, bytes.NewReader(data))
				return err
			}),
			gomail.SetHeader(map[string][]string{"Content-Type": {a.ContentType}}),
		)
	}
	return msg
}

var _ policies.Mailer = (*SMTPMailer)(nil)
