// SPDX-FileCopyrightText: 2026 Deutsche Telekom AG
//
// SPDX-License-Identifier: Apache-2.0

package ledger

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/telekom/booking-mailer/pkg/config"
	"github.com/telekom/booking-mailer/pkg/metrics"
)

const createTableSQL = `CREATE TABLE IF NOT EXISTS email_logs (
	id UUID PRIMARY KEY,
	recipient TEXT NOT NULL,
	subject TEXT NOT NULL,
	content TEXT,
	status TEXT NOT NULL CHECK (status IN ('success', 'failure')),
	error_message TEXT,
	attempts INTEGER NOT NULL DEFAULT 1 CHECK (attempts >= 1),
	created_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL
)`

const insertSQL = `INSERT INTO email_logs
	(id, recipient, subject, content, status, error_message, attempts, created_at, updated_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

// execer is the subset of *pgxpool.Pool used by the ledger.
type execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// Postgres writes outcomes into the email_logs table. Each Record is a
// single INSERT, so concurrent writers never interleave a row.
type Postgres struct {
	db    execer
	close func()

	mu          sync.Mutex
	initialized bool
}

// NewPostgres opens a pgx pool for databaseURL.
func NewPostgres(ctx context.Context, databaseURL string) (*Postgres, error) {
	if databaseURL == "" {
		return nil, errors.New("postgres ledger requires DATABASE_URL")
	}
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to create pgx pool: %w", err)
	}
	return &Postgres{db: pool, close: pool.Close}, nil
}

func newPostgresWithExecer(db execer) *Postgres {
	return &Postgres{db: db, close: func() {}}
}

// Init creates email_logs if it does not exist. After the first success
// further calls return immediately.
func (p *Postgres) Init(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.initialized {
		return nil
	}
	if _, err := p.db.Exec(ctx, createTableSQL); err != nil {
		return fmt.Errorf("failed to create email_logs table: %w", err)
	}
	p.initialized = true
	return nil
}

func (p *Postgres) Record(ctx context.Context, o Outcome) error {
	if err := o.Validate(); err != nil {
		metrics.LedgerWrites.WithLabelValues(config.LedgerDriverPostgres, "error").Inc()
		return err
	}

	var errMsg *string
	if o.ErrorMessage != "" {
		errMsg = &o.ErrorMessage
	}
	_, err := p.db.Exec(ctx, insertSQL,
		o.ID, o.Recipient, o.Subject, o.Content, string(o.Status), errMsg, o.Attempts, o.CreatedAt, o.UpdatedAt)
	if err != nil {
		metrics.LedgerWrites.WithLabelValues(config.LedgerDriverPostgres, "error").Inc()
		return fmt.Errorf("failed to insert into email_logs: %w", err)
	}
	metrics.LedgerWrites.WithLabelValues(config.LedgerDriverPostgres, "success").Inc()
	return nil
}

func (p *Postgres) Close() error {
	p.close()
	return nil
}

func (p *Postgres) Driver() string {
	return config.LedgerDriverPostgres
}
