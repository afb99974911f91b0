// SPDX-FileCopyrightText: 2026 Deutsche Telekom AG
//
// SPDX-License-Identifier: Apache-2.0

package booking

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/telekom/booking-mailer/pkg/config"
	"github.com/telekom/booking-mailer/pkg/ledger"
	"github.com/telekom/booking-mailer/pkg/mail"
	"github.com/telekom/booking-mailer/pkg/metrics"
	"github.com/telekom/booking-mailer/pkg/ratelimit"
)

const (
	ResultOK             = "ok"
	ResultInvalid        = "invalid"
	ResultRateLimited    = "rate_limited"
	ResultTemplateError  = "template_error"
	ResultDeliveryFailed = "delivery_failed"
	ResultStorageError   = "storage_error"
	ResultInternalError  = "internal_error"
)

// ledgerWriteTimeout bounds the outcome write. The write does not inherit
// cancellation from the request so a disconnecting client cannot skip it.
const ledgerWriteTimeout = 10 * time.Second

// Deliverer sends a message with retries. *mail.Engine implements it.
type Deliverer interface {
	Deliver(ctx context.Context, msg mail.Message, maxAttempts int) mail.Result
}

// Options holds the addressing configuration of the service.
type Options struct {
	// FromEmail is the configured sender; empty falls back to the request's replyTo.
	FromEmail string
	// SupportEmail is rendered into the templates; empty falls back to FromEmail.
	SupportEmail string
	// MaxAttempts overrides the engine's policy when > 0.
	MaxAttempts int
}

// Service runs the booking pipeline. It is safe for concurrent use; the only
// shared state lives in the limiter and the ledger.
type Service struct {
	limiter   ratelimit.Limiter
	templates mail.TemplateStore
	deliverer Deliverer
	ledger    ledger.Ledger
	opts      Options
	log       *zap.SugaredLogger
	now       func() time.Time
}

func NewService(limiter ratelimit.Limiter, templates mail.TemplateStore, deliverer Deliverer, l ledger.Ledger, opts Options, log *zap.SugaredLogger) *Service {
	return &Service{
		limiter:   limiter,
		templates: templates,
		deliverer: deliverer,
		ledger:    l,
		opts:      opts,
		log:       log,
		now:       time.Now,
	}
}

// Addresses are the resolved sender, support and reply-to addresses.
type Addresses struct {
	From    string
	Support string
	ReplyTo string
}

// ResolveAddresses applies the fallback chains:
// from = FromEmail, replyTo, default; support = SupportEmail, FromEmail,
// replyTo, default; replyTo = request replyTo, from.
func ResolveAddresses(opts Options, replyTo string) Addresses {
	from := firstNonEmpty(opts.FromEmail, replyTo, config.DefaultFromEmail)
	return Addresses{
		From:    from,
		Support: firstNonEmpty(opts.SupportEmail, opts.FromEmail, replyTo, config.DefaultFromEmail),
		ReplyTo: firstNonEmpty(replyTo, from),
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// Handle runs one booking through the pipeline and returns nil when the
// confirmation was sent and recorded. log may be nil.
func (s *Service) Handle(ctx context.Context, req Request, log *zap.SugaredLogger) (err error) {
	if log == nil {
		log = s.log
	}
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic in booking pipeline: %v", r)
			log.Errorw("Recovered from panic", "panic", r)
		}
		metrics.BookingRequests.WithLabelValues(resultLabel(err)).Inc()
	}()

	if err := req.Validate(); err != nil {
		return err
	}

	recipient := req.ConfirmationEmail.Value()
	admitted, err := s.limiter.Admit(ctx, recipient, s.now())
	if err != nil {
		return fmt.Errorf("rate limit check for %s: %w", recipient, err)
	}
	if !admitted {
		return &RateLimitError{Recipient: recipient}
	}

	tpl, err := mail.LoadConfirmation(s.templates)
	if err != nil {
		log.Errorw("Failed to load confirmation templates", "error", err)
		return &TemplateError{Err: err}
	}

	addrs := ResolveAddresses(s.opts, req.ReplyTo.Value())
	text, html := tpl.Render(mail.RenderContext{
		Service:      req.Service.Value(),
		Date:         req.Date.Value(),
		Time:         req.Time.Value(),
		Notes:        req.Notes.Value(),
		SupportEmail: addrs.Support,
	})
	msg := mail.Message{
		From:     addrs.From,
		To:       recipient,
		Subject:  req.Subject.Value(),
		TextBody: text,
		HTMLBody: html,
		ReplyTo:  addrs.ReplyTo,
	}

	res := s.deliverer.Deliver(ctx, msg, s.opts.MaxAttempts)
	if res.OK {
		log.Infof("Email sent to %s (attempts: %d)", recipient, res.Attempts)
	} else {
		log.Errorf("Email failed to %s: %s", recipient, res.ErrorMessage())
	}

	outcome := ledger.NewOutcome(recipient, msg.Subject, text, res.OK, res.Attempts, res.ErrorMessage(), s.now())
	writeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), ledgerWriteTimeout)
	defer cancel()
	if err := s.ledger.Record(writeCtx, outcome); err != nil {
		log.Errorw("Failed to record delivery outcome", "outcomeID", outcome.ID, "status", outcome.Status, "error", err)
		return &StorageError{Err: err}
	}

	if !res.OK {
		return &DeliveryError{Attempts: res.Attempts, Err: res.Err}
	}
	return nil
}

func resultLabel(err error) string {
	var (
		validation *ValidationError
		rate       *RateLimitError
		tpl        *TemplateError
		delivery   *DeliveryError
		storage    *StorageError
	)
	switch {
	case err == nil:
		return ResultOK
	case errors.As(err, &validation):
		return ResultInvalid
	case errors.As(err, &rate):
		return ResultRateLimited
	case errors.As(err, &tpl):
		return ResultTemplateError
	case errors.As(err, &delivery):
		return ResultDeliveryFailed
	case errors.As(err, &storage):
		return ResultStorageError
	default:
		return ResultInternalError
	}
}
