// Package mailer sends transactional email. Services depend on the Mailer interface only.
package mailer

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gopkg.in/gomail.v2"
)

// Mailer delivers one message. body is HTML.
type Mailer interface {
	Send(ctx context.Context, to, subject, body string) error
}

// SMTPConfig holds the outbound transport settings
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	FromName string
	// Timeout bounds one whole delivery, dial included. Zero means DefaultSendTimeout.
	Timeout time.Duration
}

// DefaultSendTimeout is used when SMTPConfig.Timeout is zero
const DefaultSendTimeout = 30 * time.Second

// SMTP delivers through an SMTP relay. Port 465 uses implicit TLS.
type SMTP struct {
	dialer   *gomail.Dialer
	from     string
	fromName string
	timeout  time.Duration
}

// NewSMTP builds an SMTP mailer. It does not dial until the first Send.
func NewSMTP(cfg SMTPConfig) *SMTP {
	from := cfg.From
	if from == "" {
		from = cfg.Username
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultSendTimeout
	}
	return &SMTP{
		dialer:   gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
		from:     from,
		fromName: cfg.FromName,
		timeout:  timeout,
	}
}

// Send implements Mailer. gomail takes no context, so the delivery runs in its own goroutine and
// Send returns when ctx is done or the timeout passes. An abandoned delivery ends when the relay hangs up.
func (m *SMTP) Send(ctx context.Context, to, subject, body string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	msg := gomail.NewMessage()
	msg.SetAddressHeader("From", m.from, m.fromName)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/html", body)

	done := make(chan error, 1)
	go func() {
		done <- m.dialer.DialAndSend(msg)
	}()
	select {
	case err := <-done:
		if err != nil {
			return fmt.Errorf("smtp send: %w", err)
		}
		return nil
	case <-ctx.Done():
		return fmt.Errorf("smtp send: %w", ctx.Err())
	}
}

// Log writes messages to the logger instead of sending them. Used when no SMTP host is set.
type Log struct {
	log *zap.Logger
}

// NewLog returns a logging mailer
func NewLog(log *zap.Logger) *Log {
	return &Log{log: log}
}

// Send implements Mailer
func (m *Log) Send(ctx context.Context, to, subject, body string) error {
	m.log.Info("email not sent, no SMTP transport configured",
		zap.String("to", to),
		zap.String("subject", subject),
		zap.String("body", body),
	)
	return nil
}
