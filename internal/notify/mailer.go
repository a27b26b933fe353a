// Package notify delivers transactional email to users.
package notify

import (
	"errors"
	"fmt"

	gomail "gopkg.in/gomail.v2"
)

// ErrNotConfigured is returned when no SMTP host was provided.  Callers
// decide whether that is fatal; registration treats it as a warning.
var ErrNotConfigured = errors.New("smtp is not configured")

// Mailer sends verification codes over SMTP.
type Mailer struct {
	dialer *gomail.Dialer
	from   string
}

// NewMailer builds a Mailer.  An empty host yields a Mailer whose sends
// fail with ErrNotConfigured, which keeps local setups without SMTP
// working.
func NewMailer(host string, port int, username, password, from string) *Mailer {
	m := &Mailer{from: from}
	if host != "" {
		m.dialer = gomail.NewDialer(host, port, username, password)
	}
	return m
}

// SendVerificationCode emails a six-digit code to the address.
func (m *Mailer) SendVerificationCode(to, code string) error {
	if m.dialer == nil {
		return ErrNotConfigured
	}
	msg := gomail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", "Your verification code")
	msg.SetBody("text/plain", fmt.Sprintf("Your verification code is: %s\n\nThe code is valid for a limited time. If you did not request it, ignore this message.", code))
	return m.dialer.DialAndSend(msg)
}
