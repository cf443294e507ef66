package store

import (
	"context"
	"database/sql"
	"fmt"
)

// transact runs fn in a transaction wrapped with RetryWithBackoff.
func (s *Store) transact(ctx context.Context, fn func(tx *sql.Tx) error) error {
	return RetryWithBackoff(func() error {
		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("failed to begin transaction: %w", err)
		}
		defer func() {
			_ = tx.Rollback()
		}()

		if err := fn(tx); err != nil {
			return err
		}

		if err := tx.Commit(); err != nil {
			return fmt.Errorf("failed to commit transaction: %w", err)
		}
		return nil
	})
}
