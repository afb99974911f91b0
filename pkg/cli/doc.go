// Package cli defines the booking-mailer command tree: serve runs the HTTP
// pipeline, migrate prepares the delivery ledger and version prints build
// metadata. Persistent flags fall back to environment variables.
package cli
