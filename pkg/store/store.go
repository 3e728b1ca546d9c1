// Package store implements transactional persistence for events, per-user
// feed items, notifications, and idempotency keys on PostgreSQL via pgx.
package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// uniqueViolation is the PostgreSQL SQLSTATE for unique constraint failures.
const uniqueViolation = "23505"

// Store is the transactional persistence layer. Read operations run on the
// pool; writes go through WithTx.
type Store struct {
	pool *pgxpool.Pool
}

// New creates a Store over an existing connection pool.
func New(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// Tx is an open top-level transaction plus the hooks to run after it
// commits. Write operations hang off Tx so they cannot run outside one.
type Tx struct {
	tx    pgx.Tx
	hooks []func()
}

// OnCommit registers fn to run after the transaction commits successfully.
// Hooks run sequentially, in registration order, on the caller's goroutine.
// A rolled-back transaction never runs its hooks.
func (t *Tx) OnCommit(fn func()) {
	t.hooks = append(t.hooks, fn)
}

// WithTx runs fn inside a transaction. If fn returns an error the
// transaction is rolled back and the error returned; otherwise the
// transaction commits and any registered commit hooks run.
func (s *Store) WithTx(ctx context.Context, fn func(ctx context.Context, tx *Tx) error) error {
	pgtx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	t := &Tx{tx: pgtx}
	if err := fn(ctx, t); err != nil {
		_ = pgtx.Rollback(ctx)
		return err
	}

	if err := pgtx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	for _, hook := range t.hooks {
		hook()
	}
	return nil
}

// IsUniqueViolation reports whether err is a PostgreSQL unique constraint
// violation.
func IsUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}
