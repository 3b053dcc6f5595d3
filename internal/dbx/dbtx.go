// Package dbx provides tiny DB abstractions shared by repositories:
// a minimal interface (DBTX) implemented by both *sql.DB and *sql.Tx,
// and helpers to run functions inside a transaction.
package dbx

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jackc/pgx/v5"
)

// DBTX is the subset of database/sql used by our repos.
// Both *sql.DB and *sql.Tx satisfy this interface.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// WithTx begins a transaction, runs fn with a transactional handle, and then
// commits on success or rolls back on error/panic. Panics are rethrown.
func WithTx(ctx context.Context, db *sql.DB, opts *sql.TxOptions, fn func(ctx context.Context, tx DBTX) error) (err error) {
	tx, err := db.BeginTx(ctx, opts)
	if err != nil {
		return err
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
		if err != nil {
			_ = tx.Rollback()
			return
		}
		err = tx.Commit()
	}()

	err = fn(ctx, tx)
	return err
}

// Policy is the Postgres row-level security context of a transaction: the
// role assumed with SET LOCAL ROLE and one transaction-local setting that
// the policies read with current_setting().
type Policy struct {
	Role    string
	Setting string
	Value   string
}

// WithPolicyTx is WithTx with p applied before fn runs. Both the role and the
// setting are scoped to the transaction and vanish on commit or rollback.
func WithPolicyTx(ctx context.Context, db *sql.DB, p Policy, fn func(ctx context.Context, tx DBTX) error) error {
	return WithTx(ctx, db, nil, func(ctx context.Context, tx DBTX) error {
		if _, err := tx.ExecContext(ctx, "SET LOCAL ROLE "+pgx.Identifier{p.Role}.Sanitize()); err != nil {
			return fmt.Errorf("set role: %w", err)
		}
		if _, err := tx.ExecContext(ctx, `SELECT set_config($1, $2, true)`, p.Setting, p.Value); err != nil {
			return fmt.Errorf("set %s: %w", p.Setting, err)
		}
		return fn(ctx, tx)
	})
}
