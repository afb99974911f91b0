// SPDX-FileCopyrightText: 2026 Deutsche Telekom AG
//
// SPDX-License-Identifier: Apache-2.0

package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/telekom/booking-mailer/pkg/config"
)

type Status string

const (
	StatusSuccess Status = "success"
	StatusFailure Status = "failure"
)

// ErrInvalidOutcome is returned by Record for outcomes that break the
// attempts/status/error invariants.
var ErrInvalidOutcome = errors.New("invalid delivery outcome")

// ErrClosed is returned when writing to a closed ledger.
var ErrClosed = errors.New("ledger is closed")

// Outcome is the durable record of one delivery.
type Outcome struct {
	ID           uuid.UUID `json:"id"`
	Recipient    string    `json:"recipient"`
	Subject      string    `json:"subject"`
	Content      string    `json:"content"`
	Status       Status    `json:"status"`
	ErrorMessage string    `json:"errorMessage,omitempty"`
	Attempts     int       `json:"attempts"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// NewOutcome builds an outcome with a fresh id. errMsg is dropped on success.
// A failure with an empty errMsg is recorded as "Unknown error".
func NewOutcome(recipient, subject, content string, ok bool, attempts int, errMsg string, now time.Time) Outcome {
	o := Outcome{
		ID:        uuid.New(),
		Recipient: recipient,
		Subject:   subject,
		Content:   content,
		Status:    StatusSuccess,
		Attempts:  attempts,
		CreatedAt: now.UTC(),
		UpdatedAt: now.UTC(),
	}
	if !ok {
		o.Status = StatusFailure
		o.ErrorMessage = errMsg
		if o.ErrorMessage == "" {
			o.ErrorMessage = "Unknown error"
		}
	}
	return o
}

// Validate checks attempts >= 1 and that ErrorMessage is set iff the status is failure.
func (o Outcome) Validate() error {
	switch {
	case o.ID == uuid.Nil:
		return fmt.Errorf("%w: missing id", ErrInvalidOutcome)
	case o.Attempts < 1:
		return fmt.Errorf("%w: attempts must be >= 1, got %d", ErrInvalidOutcome, o.Attempts)
	case o.Status == StatusSuccess && o.ErrorMessage != "":
		return fmt.Errorf("%w: success must not carry an error message", ErrInvalidOutcome)
	case o.Status == StatusFailure && o.ErrorMessage == "":
		return fmt.Errorf("%w: failure requires an error message", ErrInvalidOutcome)
	case o.Status != StatusSuccess && o.Status != StatusFailure:
		return fmt.Errorf("%w: unknown status %q", ErrInvalidOutcome, o.Status)
	}
	return nil
}

// Ledger appends delivery outcomes to durable storage.
type Ledger interface {
	// Init creates the backing structure if needed. Calling it again is a no-op.
	Init(ctx context.Context) error
	// Record appends exactly one outcome.
	Record(ctx context.Context, o Outcome) error
	Close() error
	// Driver names the backend, used as a metrics label.
	Driver() string
}

// Open builds the ledger selected by cfg.Driver. It does not call Init.
func Open(ctx context.Context, cfg config.Ledger) (Ledger, error) {
	switch cfg.Driver {
	case config.LedgerDriverMemory:
		return NewMemory(), nil
	case config.LedgerDriverPostgres:
		return NewPostgres(ctx, cfg.DatabaseURL)
	case config.LedgerDriverKafka:
		return NewKafka(KafkaConfig{Brokers: cfg.Kafka.Brokers, Topic: cfg.Kafka.Topic})
	default:
		return nil, fmt.Errorf("unknown ledger driver %q", cfg.Driver)
	}
}
