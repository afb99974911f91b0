package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCountersIncrement(t *testing.T) {
	BookingRequests.Reset()
	defer BookingRequests.Reset()

	BookingRequests.WithLabelValues("ok").Inc()
	BookingRequests.WithLabelValues("ok").Inc()
	BookingRequests.WithLabelValues("invalid").Inc()

	assert.Equal(t, float64(2), testutil.ToFloat64(BookingRequests.WithLabelValues("ok")))
	assert.Equal(t, float64(1), testutil.ToFloat64(BookingRequests.WithLabelValues("invalid")))
}

func TestLabelCardinality(t *testing.T) {
	defer func() {
		if r := recover(); r != nil {
			t.Fatalf("collector panicked with expected labels: %v", r)
		}
	}()
	RateLimitDecisions.WithLabelValues("memory", "admitted").Inc()
	MailSendAttempts.WithLabelValues("smtp.example.com", "failure").Inc()
	MailRetryScheduled.WithLabelValues("smtp.example.com").Inc()
	MailDeliveries.WithLabelValues("smtp.example.com", "success").Inc()
	MailDeliveryDuration.WithLabelValues("success").Observe(0.2)
	LedgerWrites.WithLabelValues("memory", "ok").Inc()
	ClientRateLimited.Inc()
}

func TestMetricsHandlerExposesCollectors(t *testing.T) {
	LedgerWrites.WithLabelValues("postgres", "error").Inc()

	w := httptest.NewRecorder()
	MetricsHandler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "booking_mailer_ledger_writes_total")
}
