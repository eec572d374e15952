// Package repository provides data access layer implementations for the application.
package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

// boardStateID is the primary key of the single aggregate row.
const boardStateID = 1

// maxTxAttempts bounds retries of transactions postgres aborted under contention.
const maxTxAttempts = 3

// InTransaction runs fn with repositories bound to one database transaction.
// Serialization failures and deadlocks are retried.
func InTransaction(ctx context.Context, db *gorm.DB, fn func(states StateRepository, complaints ComplaintRepository) error) error {
	var err error
	for attempt := 0; attempt < maxTxAttempts; attempt++ {
		err = db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			return fn(NewStateRepository(tx), NewComplaintRepository(tx))
		})
		if !IsRetryable(err) || ctx.Err() != nil {
			return err
		}
	}
	return err
}

// IsRetryable reports whether err is a postgres error that a fresh attempt may not hit.
func IsRetryable(err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	switch pgErr.Code {
	case "40001", "40P01": // serialization_failure, deadlock_detected
		return true
	}
	return false
}
