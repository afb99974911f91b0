// SPDX-FileCopyrightText: 2026 Deutsche Telekom AG
//
// SPDX-License-Identifier: Apache-2.0

package mail

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"go.uber.org/zap"

	"github.com/telekom/booking-mailer/pkg/config"
	"github.com/telekom/booking-mailer/pkg/metrics"
)

const (
	StatusSuccess = "success"
	StatusFailure = "failure"
)

// RetryPolicy bounds the delivery loop. After failed attempt k the engine
// waits BaseDelay * Factor^(k-1) before attempt k+1.
type RetryPolicy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	Factor      float64
}

// DefaultRetryPolicy returns 3 attempts with waits of 500ms and 1500ms.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts: config.DefaultMaxAttempts,
		BaseDelay:   config.DefaultRetryBackoffMs * time.Millisecond,
		Factor:      config.DefaultRetryFactor,
	}
}

// RetryPolicyFromConfig converts the mail configuration into a policy.
func RetryPolicyFromConfig(cfg config.Mail) RetryPolicy {
	p := DefaultRetryPolicy()
	if cfg.MaxAttempts > 0 {
		p.MaxAttempts = cfg.MaxAttempts
	}
	if cfg.RetryBackoffMs > 0 {
		p.BaseDelay = time.Duration(cfg.RetryBackoffMs) * time.Millisecond
	}
	if cfg.RetryFactor > 0 {
		p.Factor = cfg.RetryFactor
	}
	return p
}

// Delay returns the wait after the given failed attempt (1-based).
func (p RetryPolicy) Delay(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	return time.Duration(float64(p.BaseDelay) * math.Pow(p.Factor, float64(attempt-1)))
}

// Result reports the outcome of a delivery. Err is the last transport error
// and is nil iff OK.
type Result struct {
	OK       bool
	Attempts int
	Err      error
}

// Status returns StatusSuccess or StatusFailure.
func (r Result) Status() string {
	if r.OK {
		return StatusSuccess
	}
	return StatusFailure
}

// ErrorMessage returns the last error text or "" on success.
func (r Result) ErrorMessage() string {
	if r.Err == nil {
		return ""
	}
	return r.Err.Error()
}

// Engine sends messages through a Transport with retries.
type Engine struct {
	transport Transport
	policy    RetryPolicy
	host      string
	log       *zap.SugaredLogger
	wait      func(ctx context.Context, d time.Duration) error
}

// NewEngine creates an engine. host is only used as a metrics label.
func NewEngine(transport Transport, policy RetryPolicy, host string, log *zap.SugaredLogger) *Engine {
	if policy.MaxAttempts <= 0 {
		policy.MaxAttempts = config.DefaultMaxAttempts
	}
	if host == "" {
		host = "unknown"
	}
	return &Engine{
		transport: transport,
		policy:    policy,
		host:      host,
		log:       log,
		wait:      waitContext,
	}
}

// Policy returns the effective retry policy.
func (e *Engine) Policy() RetryPolicy {
	return e.policy
}

// Deliver sends msg, retrying up to maxAttempts times (the policy's value
// when maxAttempts <= 0). The first attempt is immediate; there is no wait
// after the final attempt. A cancelled ctx ends the loop early with the last
// transport error joined to the context error.
func (e *Engine) Deliver(ctx context.Context, msg Message, maxAttempts int) Result {
	if maxAttempts <= 0 {
		maxAttempts = e.policy.MaxAttempts
	}
	start := time.Now()

	var lastErr error
	attempts := 0
	for attempts < maxAttempts {
		attempts++
		err := e.transport.Send(ctx, msg)
		if err == nil {
			metrics.MailSendAttempts.WithLabelValues(e.host, "success").Inc()
			e.observe(StatusSuccess, start)
			return Result{OK: true, Attempts: attempts}
		}
		metrics.MailSendAttempts.WithLabelValues(e.host, "failure").Inc()
		lastErr = err

		if attempts == maxAttempts {
			break
		}

		delay := e.policy.Delay(attempts)
		e.log.Warnw("Send attempt failed, retrying", "to", msg.To, "attempt", attempts, "maxAttempts", maxAttempts, "retryIn", delay.String(), "error", err)
		metrics.MailRetryScheduled.WithLabelValues(e.host).Inc()
		if werr := e.wait(ctx, delay); werr != nil {
			lastErr = fmt.Errorf("%w; retry abandoned: %w", lastErr, werr)
			break
		}
	}

	if lastErr == nil {
		lastErr = errors.New("unknown error")
	}
	e.observe(StatusFailure, start)
	return Result{Attempts: attempts, Err: lastErr}
}

func (e *Engine) observe(status string, start time.Time) {
	metrics.MailDeliveries.WithLabelValues(e.host, status).Inc()
	metrics.MailDeliveryDuration.WithLabelValues(status).Observe(time.Since(start).Seconds())
}

// waitContext sleeps for d or until ctx is done.
func waitContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
