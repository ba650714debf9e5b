package database

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// Transactor runs units of work inside a single database transaction.
type Transactor struct {
	db *sqlx.DB
}

// NewTransactor wraps db.
func NewTransactor(db *sqlx.DB) *Transactor {
	return &Transactor{db: db}
}

// InTx commits when fn returns nil and rolls back otherwise. The error from fn
// is returned unchanged so callers can inspect driver errors.
func (t *Transactor) InTx(ctx context.Context, fn func(exec sqlx.ExtContext) error) (err error) {
	tx, err := t.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if err = fn(tx); err != nil {
		return err
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}
