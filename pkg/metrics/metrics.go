// SPDX-FileCopyrightText: 2026 Deutsche Telekom AG
//
// SPDX-License-Identifier: Apache-2.0

package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// BookingRequests counts handled bookings by result
	// (ok, invalid, rate_limited, template_error, delivery_failed, storage_error, internal_error).
	BookingRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "booking_mailer_requests_total",
		Help: "Total number of booking requests by result",
	}, []string{"result"})

	// RateLimitDecisions counts per-recipient admission decisions. The recipient is
	// intentionally not a label to keep cardinality bounded.
	RateLimitDecisions = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "booking_mailer_ratelimit_decisions_total",
		Help: "Total number of per-recipient rate limit decisions",
	}, []string{"backend", "decision"})
	ClientRateLimited = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "booking_mailer_client_rate_limited_total",
		Help: "Total number of requests rejected by the per-client-IP limiter",
	})

	// Mail metrics
	MailSendAttempts = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "booking_mailer_mail_send_attempts_total",
		Help: "Total number of individual transport send attempts",
	}, []string{"host", "result"})
	MailRetryScheduled = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "booking_mailer_mail_retry_scheduled_total",
		Help: "Total number of retries scheduled after a failed send attempt",
	}, []string{"host"})
	MailDeliveries = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "booking_mailer_mail_deliveries_total",
		Help: "Total number of deliveries by final status",
	}, []string{"host", "status"})
	MailDeliveryDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "booking_mailer_mail_delivery_duration_seconds",
		Help:    "Time spent delivering one message including retries and backoff",
		Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
	}, []string{"status"})

	// Ledger metrics
	LedgerWrites = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "booking_mailer_ledger_writes_total",
		Help: "Total number of delivery outcome writes by driver and result",
	}, []string{"driver", "result"})
)

func init() {
	prometheus.MustRegister(BookingRequests)
	prometheus.MustRegister(RateLimitDecisions)
	prometheus.MustRegister(ClientRateLimited)
	prometheus.MustRegister(MailSendAttempts)
	prometheus.MustRegister(MailRetryScheduled)
	prometheus.MustRegister(MailDeliveries)
	prometheus.MustRegister(MailDeliveryDuration)
	prometheus.MustRegister(LedgerWrites)
}

// MetricsHandler returns an http.Handler exposing Prometheus metrics.
func MetricsHandler() http.Handler {
	return promhttp.Handler()
}
