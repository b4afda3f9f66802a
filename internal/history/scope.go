package history

import (
	"context"
	"errors"
	"fmt"
)

// Do runs fn inside a new transaction named name.
// If fn returns an error the operations it pushed are rolled back, the
// transaction is abandoned and the error returned; otherwise the
// transaction is completed.
//
//	err := stack.Do(ctx, "Paste", func(tx *history.Transaction) error {
//	    return editor.Set("title", "pasted")
//	})
func (s *Stack) Do(ctx context.Context, name string, fn func(tx *Transaction) error) error {
	tx, err := s.CreateTransaction(ctx, Named(name))
	if err != nil {
		return err
	}

	if err := fn(tx); err != nil {
		errs := []error{err}
		if rbErr := tx.rollback(); rbErr != nil {
			errs = append(errs, fmt.Errorf("revert %q: %w", name, rbErr))
		}
		if abandonErr := tx.Abandon(); abandonErr != nil {
			errs = append(errs, fmt.Errorf("abandon %q: %w", name, abandonErr))
		}
		return errors.Join(errs...)
	}
	return tx.Complete(ctx)
}

// RollbackAll rolls back every done transaction.
func (s *Stack) RollbackAll() error {
	for s.CanRollback() {
		if err := s.Rollback(); err != nil {
			return err
		}
	}
	return nil
}

// RollforwardAll rolls forward every undone transaction.
func (s *Stack) RollforwardAll() error {
	for s.CanRollforward() {
		if err := s.Rollforward(); err != nil {
			return err
		}
	}
	return nil
}
