// Package ledger records one immutable Outcome per delivery attempt sequence.
//
// The ledger is append-only: it has no update, delete or query operation and
// the pipeline never reads it back. Backends are PostgreSQL (table email_logs),
// a Kafka topic, and an in-memory slice for tests and local runs.
package ledger
