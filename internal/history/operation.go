package history

import (
	"fmt"
	"sync/atomic"
)

// Reversible is the payload of an operation: an edit that has already been
// applied and knows how to undo and redo itself.
// The history never inspects what a Reversible changes.
type Reversible interface {
	// Rollback reverts the edit.
	Rollback() error

	// Rollforward re-applies a reverted edit.
	Rollforward() error
}

// Releaser is implemented by payloads that hold resources to release when
// their operation is frozen.
type Releaser interface {
	Release()
}

// State is the lifecycle state of an operation.
type State uint8

const (
	// StateActive is the resting state: the operation can be reversed.
	StateActive State = iota
	// StateInProgress is held while the operation is being reversed.
	StateInProgress
	// StateFrozen is terminal.
	StateFrozen
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateActive:
		return "active"
	case StateInProgress:
		return "in-progress"
	case StateFrozen:
		return "frozen"
	default:
		return fmt.Sprintf("State(%d)", uint8(s))
	}
}

// lifecycle is the state machine shared by operations and transactions.
// Transitions are compare-and-swap so illegal ones are rejected rather
// than raced.
type lifecycle struct {
	state atomic.Uint32
}

// State returns the current lifecycle state.
func (l *lifecycle) State() State {
	return State(l.state.Load())
}

// IsFrozen returns true once Freeze succeeded.
func (l *lifecycle) IsFrozen() bool {
	return l.State() == StateFrozen
}

// run moves Active -> InProgress -> Active around fn.
func (l *lifecycle) run(fn func() error) error {
	if !l.state.CompareAndSwap(uint32(StateActive), uint32(StateInProgress)) {
		if l.State() == StateFrozen {
			return ErrFrozen
		}
		return ErrReentrant
	}
	defer l.state.Store(uint32(StateActive))
	return fn()
}

// freeze runs the content hook and then moves to Frozen. The state is held
// at InProgress while the hook runs so a concurrent freeze or roll is
// rejected and the hook runs exactly once. A failing hook still freezes.
func (l *lifecycle) freeze(hook func() error) error {
	if !l.state.CompareAndSwap(uint32(StateActive), uint32(StateInProgress)) {
		if l.State() == StateFrozen {
			return ErrAlreadyFrozen
		}
		return ErrReentrant
	}
	defer l.state.Store(uint32(StateFrozen))

	if hook != nil {
		return hook()
	}
	return nil
}

// Operation is the smallest reversible unit held by a transaction.
type Operation struct {
	lifecycle
	body Reversible
}

// NewOperation wraps a payload in an active operation.
func NewOperation(body Reversible) *Operation {
	return &Operation{body: body}
}

// Body returns the payload.
func (op *Operation) Body() Reversible {
	return op.body
}

// Freeze releases the payload and makes the operation terminal.
// Calling Freeze twice fails with ErrAlreadyFrozen so double releases surface.
func (op *Operation) Freeze() error {
	return op.freeze(func() error {
		if r, ok := op.body.(Releaser); ok {
			r.Release()
		}
		return nil
	})
}

func (op *Operation) rollback() error {
	return op.run(func() error {
		if err := op.body.Rollback(); err != nil {
			return fmt.Errorf("rollback operation: %w", err)
		}
		return nil
	})
}

func (op *Operation) rollforward() error {
	return op.run(func() error {
		if err := op.body.Rollforward(); err != nil {
			return fmt.Errorf("rollforward operation: %w", err)
		}
		return nil
	})
}
