// Package booking turns a booking request into a confirmation email.
//
// Service.Handle validates the request, asks the per-recipient limiter for
// admission, renders the confirmation templates, delivers the message with
// retries and records exactly one ledger outcome for every request that
// reached delivery. Failures are returned as typed errors (see errors.go) so
// the HTTP layer can map them to status codes in one place.
package booking
