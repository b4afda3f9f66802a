package history

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Transaction is an ordered batch of operations that is undone and redone
// as one unit.
//
// A transaction is created open by Stack.CreateTransaction and must reach
// Complete, Close or Abandon on every exit path:
//
//	tx, err := stack.CreateTransaction(ctx, history.Named("Rename"))
//	if err != nil {
//	    return err
//	}
//	defer tx.Close()
//	// ... push operations ...
//	return tx.Complete(ctx)
//
// An open transaction that is dropped is never reclaimed by the stack.
type Transaction struct {
	lifecycle

	id      uuid.UUID
	name    string
	created time.Time
	stack   *Stack

	mu        sync.Mutex
	ops       []*Operation
	completed bool
	owner     any
}

// TransactionOption configures a transaction at creation.
type TransactionOption func(*Transaction)

// Named sets the human-readable name of a transaction.
func Named(name string) TransactionOption {
	return func(t *Transaction) {
		t.name = name
	}
}

func newTransaction(s *Stack, owner any, opts []TransactionOption) *Transaction {
	t := &Transaction{
		id:      uuid.New(),
		created: time.Now(),
		stack:   s,
		owner:   owner,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// ID returns the unique identifier of the transaction.
func (t *Transaction) ID() uuid.UUID {
	return t.id
}

// Name returns the name given at creation, or "".
func (t *Transaction) Name() string {
	return t.name
}

// Created returns when the transaction was opened.
func (t *Transaction) Created() time.Time {
	return t.created
}

// String returns a short description for logs.
func (t *Transaction) String() string {
	if t.name != "" {
		return fmt.Sprintf("%s(%s)", t.name, t.id)
	}
	return t.id.String()
}

// Operations returns a copy of the operation list in application order.
func (t *Transaction) Operations() []*Operation {
	t.mu.Lock()
	defer t.mu.Unlock()

	ops := make([]*Operation, len(t.ops))
	copy(ops, t.ops)
	return ops
}

// Len returns the number of operations.
func (t *Transaction) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.ops)
}

// IsEmpty returns true if no operation was pushed.
func (t *Transaction) IsEmpty() bool {
	return t.Len() == 0
}

// IsCompleted returns true once the transaction was completed or abandoned.
func (t *Transaction) IsCompleted() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.completed
}

// PushOperation appends an operation to this transaction.
// Pushing through Stack.PushOperation routes to the innermost open
// transaction instead.
func (t *Transaction) PushOperation(body Reversible) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.pushLocked(body)
}

func (t *Transaction) pushLocked(body Reversible) error {
	if t.completed {
		return ErrTransactionCompleted
	}
	if t.IsFrozen() {
		return ErrFrozen
	}
	t.ops = append(t.ops, NewOperation(body))
	return nil
}

// Continue rebinds the transaction to the owner carried by ctx, for a
// transaction that is completed by a different logical caller than the one
// that opened it.
func (t *Transaction) Continue(ctx context.Context) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.owner = OwnerFrom(ctx)
}

// Complete finishes the transaction: adjacent mergeable operations are
// coalesced and the transaction enters the stack's history. Empty
// transactions are dropped silently.
func (t *Transaction) Complete(ctx context.Context) error {
	return t.complete(ctx, true)
}

// Close completes the transaction if it is still open and is a no-op
// otherwise, so it can be deferred right after creation.
func (t *Transaction) Close() error {
	if t.IsCompleted() {
		return nil
	}
	return t.complete(context.Background(), false)
}

// Abandon discards an open transaction without adding it to the history.
// Operations already applied by the caller stay applied.
func (t *Transaction) Abandon() error {
	if t.IsCompleted() {
		return ErrTransactionCompleted
	}
	return t.stack.abandonTransaction(t)
}

func (t *Transaction) complete(ctx context.Context, checkOwner bool) error {
	if t.IsCompleted() {
		return ErrTransactionCompleted
	}
	if checkOwner {
		if err := t.stack.checkOwner(t, OwnerFrom(ctx)); err != nil {
			return err
		}
	}
	return t.stack.CompleteTransaction(ctx, t)
}

// markCompleted is called by the stack once the transaction left the
// in-progress stack. The owner is dropped so it is not retained.
func (t *Transaction) markCompleted() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.completed = true
	t.owner = nil
}

// merge coalesces mergeable neighbours before the transaction is stored.
func (t *Transaction) merge() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.ops = mergeOperations(t.ops)
}

func (t *Transaction) currentOwner() any {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.owner
}

// rollback undoes the operations in reverse application order.
func (t *Transaction) rollback() error {
	ops := t.Operations()
	return t.run(func() error {
		for i := len(ops) - 1; i >= 0; i-- {
			if err := ops[i].rollback(); err != nil {
				return fmt.Errorf("transaction %s: %w", t, err)
			}
		}
		return nil
	})
}

// rollforward redoes the operations in application order.
func (t *Transaction) rollforward() error {
	ops := t.Operations()
	return t.run(func() error {
		for _, op := range ops {
			if err := op.rollforward(); err != nil {
				return fmt.Errorf("transaction %s: %w", t, err)
			}
		}
		return nil
	})
}

// Freeze makes the transaction and every operation in it terminal.
func (t *Transaction) Freeze() error {
	return t.freeze(func() error {
		var errs []error
		for _, op := range t.Operations() {
			if err := op.Freeze(); err != nil {
				errs = append(errs, err)
			}
		}
		return errors.Join(errs...)
	})
}
