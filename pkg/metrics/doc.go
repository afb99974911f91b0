// Package metrics defines the Prometheus collectors of the booking pipeline:
// booking results, rate limiter decisions, mail send attempts, delivery
// outcomes and ledger writes, plus the HTTP handler that exposes them.
package metrics
