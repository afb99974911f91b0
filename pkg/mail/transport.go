// SPDX-FileCopyrightText: 2026 Deutsche Telekom AG
//
// SPDX-License-Identifier: Apache-2.0

package mail

import (
	"context"
	"crypto/tls"
	"fmt"

	"go.uber.org/zap"
	"gopkg.in/gomail.v2"

	"github.com/telekom/booking-mailer/pkg/config"
)

// Transport performs one send attempt. A nil error means the server accepted
// the message; partial success is not modeled.
type Transport interface {
	Send(ctx context.Context, msg Message) error
}

// SMTPTransport sends through an SMTP server using gomail. A new connection
// is dialed for every attempt.
type SMTPTransport struct {
	dialer *gomail.Dialer
}

// NewSMTPTransport builds the transport or returns config.ErrMissingSMTPCredentials
// when host, user or password are not set.
func NewSMTPTransport(cfg config.SMTP, log *zap.SugaredLogger) (*SMTPTransport, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	port := cfg.Port
	if port == 0 {
		port = config.DefaultSMTPPort
	}

	log.Infow("Initializing SMTP transport", "host", cfg.Host, "port", port, "user", cfg.User, "secure", port == config.SecureSMTPPort)
	d := gomail.NewDialer(cfg.Host, port, cfg.User, cfg.Password)
	// implicit TLS only on 465; other ports upgrade with STARTTLS when offered
	d.SSL = port == config.SecureSMTPPort
	if cfg.InsecureSkipVerify {
		log.Warnw("InsecureSkipVerify is enabled for SMTP TLS connection", "host", cfg.Host)
		d.TLSConfig = &tls.Config{InsecureSkipVerify: true, ServerName: cfg.Host} //nolint:gosec // opt-in for test relays
	}
	return &SMTPTransport{dialer: d}, nil
}

// Send dials, sends msg and closes the connection. An attempt already in
// progress is not interrupted by ctx; gomail bounds the dial with its own timeout.
func (t *SMTPTransport) Send(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := t.dialer.DialAndSend(newGomailMessage(msg)); err != nil {
		return fmt.Errorf("smtp send to %s via %s: %w", msg.To, t.Host(), err)
	}
	return nil
}

// Host returns the configured SMTP host.
func (t *SMTPTransport) Host() string {
	return t.dialer.Host
}

// Port returns the configured SMTP port.
func (t *SMTPTransport) Port() int {
	return t.dialer.Port
}

// SSL reports whether implicit TLS is used.
func (t *SMTPTransport) SSL() bool {
	return t.dialer.SSL
}

func newGomailMessage(msg Message) *gomail.Message {
	m := gomail.NewMessage()
	m.SetHeader("From", msg.From)
	m.SetHeader("To", msg.To)
	m.SetHeader("Subject", msg.Subject)
	if msg.ReplyTo != "" {
		m.SetHeader("Reply-To", msg.ReplyTo)
	}
	m.SetBody("text/plain", msg.TextBody)
	if msg.HTMLBody != "" {
		m.AddAlternative("text/html", msg.HTMLBody)
	}
	return m
}
