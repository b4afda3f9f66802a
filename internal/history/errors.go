package history

import "errors"

// Errors returned by history operations.
// All of them are caller contract violations; none are transient.
var (
	// ErrAlreadyFrozen indicates Freeze was called on a frozen operation.
	ErrAlreadyFrozen = errors.New("operation already frozen")

	// ErrFrozen indicates a rollback, rollforward or push on a frozen operation.
	ErrFrozen = errors.New("operation is frozen")

	// ErrReentrant indicates a rollback or rollforward was started while
	// the same operation was already being reversed.
	ErrReentrant = errors.New("operation already in progress")

	// ErrRollInProgress indicates the stack is rolling back or forward.
	ErrRollInProgress = errors.New("rollback or rollforward in progress")

	// ErrNoTransactionInProgress indicates no transaction is open.
	ErrNoTransactionInProgress = errors.New("no transaction in progress")

	// ErrOutOfOrderCompletion indicates a transaction that is not the
	// innermost open one was completed or abandoned.
	ErrOutOfOrderCompletion = errors.New("transaction is not the innermost open transaction")

	// ErrCannotRollback indicates there is nothing to roll back.
	ErrCannotRollback = errors.New("nothing to roll back")

	// ErrCannotRollforward indicates there is nothing to roll forward.
	ErrCannotRollforward = errors.New("nothing to roll forward")

	// ErrUnsupportedShrink indicates a capacity reduction was requested.
	ErrUnsupportedShrink = errors.New("shrinking stack capacity is not supported")

	// ErrInvalidCapacity indicates a negative capacity.
	ErrInvalidCapacity = errors.New("invalid stack capacity")

	// ErrTransactionCompleted indicates the transaction was already completed or abandoned.
	ErrTransactionCompleted = errors.New("transaction already completed")

	// ErrForeignOwner indicates a transaction was completed from a context
	// that does not own it.
	ErrForeignOwner = errors.New("transaction completed by a foreign owner")

	// ErrSavePointNotFound indicates the transaction a save point refers to
	// is no longer in the history.
	ErrSavePointNotFound = errors.New("save point not found")
)
