// SPDX-FileCopyrightText: 2026 Deutsche Telekom AG
//
// SPDX-License-Identifier: Apache-2.0

package ledger

import (
	"context"
	"sync"

	"github.com/telekom/booking-mailer/pkg/config"
	"github.com/telekom/booking-mailer/pkg/metrics"
)

// Memory keeps outcomes in process memory. Contents are lost on restart.
type Memory struct {
	mu       sync.Mutex
	outcomes []Outcome
	closed   bool
}

func NewMemory() *Memory {
	return &Memory{}
}

func (m *Memory) Init(context.Context) error {
	return nil
}

func (m *Memory) Record(_ context.Context, o Outcome) error {
	if err := o.Validate(); err != nil {
		metrics.LedgerWrites.WithLabelValues(config.LedgerDriverMemory, "error").Inc()
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		metrics.LedgerWrites.WithLabelValues(config.LedgerDriverMemory, "error").Inc()
		return ErrClosed
	}
	m.outcomes = append(m.outcomes, o)
	metrics.LedgerWrites.WithLabelValues(config.LedgerDriverMemory, "success").Inc()
	return nil
}

func (m *Memory) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

func (m *Memory) Driver() string {
	return config.LedgerDriverMemory
}

// Outcomes returns a copy of everything recorded so far.
func (m *Memory) Outcomes() []Outcome {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Outcome(nil), m.outcomes...)
}

// Len returns the number of recorded outcomes.
func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.outcomes)
}
