package pgerror

import (
	"context"
	"database/sql"
	"fmt"
)

// Retry executes fn within a transaction, retrying it if the error is one of
// the given codes.
//
// It gives up after maxAttempts attempts, returning the last error.
func Retry(
	ctx context.Context,
	db *sql.DB,
	fn func(*sql.Tx) error,
	codes ...string,
) error {
	var err error

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		err = try(ctx, db, fn, attempt)
		if !Is(err, codes...) {
			return err
		}
	}

	return err
}

const maxAttempts = 5

func try(
	ctx context.Context,
	db *sql.DB,
	fn func(*sql.Tx) error,
	attempt int,
) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("cannot start transaction (attempt #%d): %w", attempt, err)
	}
	defer tx.Rollback() // nolint:errcheck

	if err := fn(tx); err != nil {
		return fmt.Errorf("cannot perform transaction (attempt #%d): %w", attempt, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("cannot commit transaction (attempt #%d): %w", attempt, err)
	}

	return nil
}
