package history

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/looplab/fsm"
	"go.uber.org/zap"
)

// Roll phases of the stack.
const (
	phaseIdle           = "idle"
	phaseRollingBack    = "rolling_back"
	phaseRollingForward = "rolling_forward"

	eventRollback    = "rollback"
	eventRollforward = "rollforward"
	eventSettle      = "settle"
)

// StackState summarizes what a stack is doing.
type StackState uint8

const (
	// StackIdle has no open transaction and no roll in progress.
	StackIdle StackState = iota
	// StackOpen has at least one open transaction; see Depth.
	StackOpen
	// StackRollingBack is rolling a transaction back.
	StackRollingBack
	// StackRollingForward is rolling a transaction forward.
	StackRollingForward
)

// String returns the state name.
func (s StackState) String() string {
	switch s {
	case StackIdle:
		return "idle"
	case StackOpen:
		return "open"
	case StackRollingBack:
		return "rolling-back"
	case StackRollingForward:
		return "rolling-forward"
	default:
		return fmt.Sprintf("StackState(%d)", uint8(s))
	}
}

// Stack is a bounded, cursor-addressed history of completed transactions.
//
// Transactions before the cursor are done and can be rolled back; those at
// or after it were rolled back and can be rolled forward. Completing a new
// transaction discards everything after the cursor, then evicts the oldest
// transaction if the stack is full.
//
// All methods are safe for concurrent use. Only one roll runs at a time: a
// second Rollback or Rollforward started while one is running fails with
// ErrRollInProgress instead of waiting.
type Stack struct {
	mu sync.Mutex

	transactions []*Transaction
	position     int
	capacity     int
	inProgress   []*Transaction
	phase        *fsm.FSM

	observers       []*subscription
	strictOwnership bool
	logger          *zap.Logger
}

type subscription struct {
	observer Observer
}

// Option configures a Stack.
type Option func(*Stack)

// WithLogger sets the logger. The default discards everything.
func WithLogger(logger *zap.Logger) Option {
	return func(s *Stack) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithObserver registers an observer at construction.
func WithObserver(o Observer) Option {
	return func(s *Stack) {
		s.observers = append(s.observers, &subscription{observer: o})
	}
}

// WithStrictOwnership makes Transaction.Complete fail with ErrForeignOwner
// when the completing context does not own the transaction. By default a
// mismatch is only logged, so transactions can be completed after an
// asynchronous hand-off without calling Continue.
func WithStrictOwnership(strict bool) Option {
	return func(s *Stack) {
		s.strictOwnership = strict
	}
}

// NewStack creates a stack that retains at most capacity transactions.
// A zero capacity stack accepts transactions and discards them at once.
func NewStack(capacity int, opts ...Option) (*Stack, error) {
	if capacity < 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidCapacity, capacity)
	}

	s := &Stack{
		capacity: capacity,
		logger:   zap.NewNop(),
		phase: fsm.NewFSM(
			phaseIdle,
			fsm.Events{
				{Name: eventRollback, Src: []string{phaseIdle}, Dst: phaseRollingBack},
				{Name: eventRollforward, Src: []string{phaseIdle}, Dst: phaseRollingForward},
				{Name: eventSettle, Src: []string{phaseRollingBack, phaseRollingForward}, Dst: phaseIdle},
			},
			fsm.Callbacks{},
		),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Subscribe registers an observer and returns a function that removes it.
func (s *Stack) Subscribe(o Observer) (cancel func()) {
	sub := &subscription{observer: o}

	s.mu.Lock()
	s.observers = append(s.observers, sub)
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		for i, existing := range s.observers {
			if existing == sub {
				s.observers = append(s.observers[:i:i], s.observers[i+1:]...)
				return
			}
		}
	}
}

// Capacity returns the maximum number of retained transactions.
func (s *Stack) Capacity() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.capacity
}

// Len returns the number of retained transactions.
func (s *Stack) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.transactions)
}

// Position returns the cursor: the number of transactions currently done.
func (s *Stack) Position() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.position
}

// IsEmpty returns true if no transaction is retained.
func (s *Stack) IsEmpty() bool {
	return s.Len() == 0
}

// IsFull returns true if the next completion will evict a transaction.
func (s *Stack) IsFull() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.transactions) == s.capacity
}

// CanRollback returns true if a transaction precedes the cursor.
func (s *Stack) CanRollback() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.position > 0
}

// CanRollforward returns true if a transaction follows the cursor.
func (s *Stack) CanRollforward() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.position < len(s.transactions)
}

// Depth returns the number of open transactions.
func (s *Stack) Depth() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.inProgress)
}

// State returns what the stack is currently doing.
func (s *Stack) State() StackState {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.phase.Current() {
	case phaseRollingBack:
		return StackRollingBack
	case phaseRollingForward:
		return StackRollingForward
	}
	if len(s.inProgress) > 0 {
		return StackOpen
	}
	return StackIdle
}

// Transactions returns a copy of the retained history, oldest first.
func (s *Stack) Transactions() []*Transaction {
	s.mu.Lock()
	defer s.mu.Unlock()

	ts := make([]*Transaction, len(s.transactions))
	copy(ts, s.transactions)
	return ts
}

// PeekRollback returns the transaction the next Rollback would undo.
func (s *Stack) PeekRollback() (*Transaction, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.position == 0 {
		return nil, false
	}
	return s.transactions[s.position-1], true
}

// PeekRollforward returns the transaction the next Rollforward would redo.
func (s *Stack) PeekRollforward() (*Transaction, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.position >= len(s.transactions) {
		return nil, false
	}
	return s.transactions[s.position], true
}

// CreateTransaction opens a new transaction nested inside any open one.
// The transaction is owned by the token carried by ctx (see WithOwner).
func (s *Stack) CreateTransaction(ctx context.Context, opts ...TransactionOption) (*Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.rolling() {
		return nil, fmt.Errorf("create transaction: %w", ErrRollInProgress)
	}

	t := newTransaction(s, OwnerFrom(ctx), opts)
	s.inProgress = append(s.inProgress, t)
	return t, nil
}

// PushOperation adds an operation to the innermost open transaction.
func (s *Stack) PushOperation(body Reversible) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.inProgress) == 0 {
		return ErrNoTransactionInProgress
	}
	return s.inProgress[len(s.inProgress)-1].PushOperation(body)
}

// CompleteTransaction finishes t, which must be the innermost open
// transaction. Transaction.Complete is the usual entry point.
func (s *Stack) CompleteTransaction(ctx context.Context, t *Transaction) error {
	s.mu.Lock()
	notes, err := s.completeLocked(t)
	observers := s.observersLocked()
	s.mu.Unlock()

	if err != nil {
		return err
	}
	notify(observers, notes)
	return nil
}

func (s *Stack) completeLocked(t *Transaction) ([]notification, error) {
	if len(s.inProgress) == 0 {
		return nil, ErrNoTransactionInProgress
	}
	if s.inProgress[len(s.inProgress)-1] != t {
		return nil, ErrOutOfOrderCompletion
	}
	if s.rolling() {
		return nil, fmt.Errorf("complete transaction: %w", ErrRollInProgress)
	}

	s.inProgress = s.inProgress[:len(s.inProgress)-1]
	t.markCompleted()
	t.merge()

	if t.IsEmpty() {
		if err := t.Freeze(); err != nil {
			return nil, fmt.Errorf("freeze empty transaction: %w", err)
		}
		return nil, nil
	}

	var notes []notification

	if s.position < len(s.transactions) {
		purged, err := s.purgeFrom(s.position)
		if err != nil {
			return nil, err
		}
		notes = append(notes, discardedNote(purged, StackPurged))
	}

	if len(s.transactions) == s.capacity {
		oldest := t
		if s.capacity > 0 {
			oldest = s.transactions[0]
			copy(s.transactions, s.transactions[1:])
			s.transactions[len(s.transactions)-1] = nil
			s.transactions = s.transactions[:len(s.transactions)-1]
			s.position--
		}
		if err := oldest.Freeze(); err != nil {
			return nil, fmt.Errorf("freeze evicted transaction %s: %w", oldest, err)
		}
		s.logger.Debug("evicted oldest transaction",
			zap.Stringer("transaction", oldest),
			zap.Int("capacity", s.capacity))
		notes = append(notes, discardedNote([]*Transaction{oldest}, StackFull))
	}

	if s.capacity > 0 {
		s.transactions = append(s.transactions, nil)
		copy(s.transactions[s.position+1:], s.transactions[s.position:])
		s.transactions[s.position] = t
		s.position++
	}

	notes = append(notes, completedNote(t))
	return notes, nil
}

// purgeFrom freezes and removes every transaction from index on.
func (s *Stack) purgeFrom(index int) ([]*Transaction, error) {
	purged := make([]*Transaction, len(s.transactions)-index)
	copy(purged, s.transactions[index:])

	for i := index; i < len(s.transactions); i++ {
		s.transactions[i] = nil
	}
	s.transactions = s.transactions[:index]

	for _, t := range purged {
		if err := t.Freeze(); err != nil {
			return nil, fmt.Errorf("freeze purged transaction %s: %w", t, err)
		}
	}

	s.logger.Debug("purged rolled back transactions",
		zap.Int("count", len(purged)),
		zap.Int("position", index))
	return purged, nil
}

func (s *Stack) abandonTransaction(t *Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.inProgress) == 0 {
		return ErrNoTransactionInProgress
	}
	if s.inProgress[len(s.inProgress)-1] != t {
		return ErrOutOfOrderCompletion
	}

	s.inProgress = s.inProgress[:len(s.inProgress)-1]
	t.markCompleted()
	if err := t.Freeze(); err != nil {
		return fmt.Errorf("freeze abandoned transaction %s: %w", t, err)
	}
	s.logger.Debug("abandoned transaction",
		zap.Stringer("transaction", t),
		zap.Int("operations", t.Len()))
	return nil
}

// checkOwner compares the owner of t with the completing owner.
func (s *Stack) checkOwner(t *Transaction, owner any) error {
	s.mu.Lock()
	strict := s.strictOwnership
	s.mu.Unlock()

	if t.currentOwner() == owner {
		return nil
	}
	if strict {
		return fmt.Errorf("complete transaction %s: %w", t, ErrForeignOwner)
	}
	s.logger.Warn("transaction completed by a different owner",
		zap.Stringer("transaction", t))
	return nil
}

// Rollback undoes the transaction just before the cursor.
// The stack lock is released while the transaction runs; if the
// transaction fails the cursor stays moved and the error is returned.
func (s *Stack) Rollback() error {
	s.mu.Lock()
	if s.position == 0 {
		s.mu.Unlock()
		return ErrCannotRollback
	}
	if err := s.enterRoll(eventRollback); err != nil {
		s.mu.Unlock()
		return err
	}
	s.position--
	t := s.transactions[s.position]
	s.mu.Unlock()

	err := t.rollback()

	s.mu.Lock()
	s.leaveRoll()
	observers := s.observersLocked()
	s.mu.Unlock()

	if err != nil {
		return fmt.Errorf("rollback: %w", err)
	}
	notify(observers, []notification{rollbackedNote(t)})
	return nil
}

// Rollforward redoes the transaction at the cursor.
func (s *Stack) Rollforward() error {
	s.mu.Lock()
	if s.position >= len(s.transactions) {
		s.mu.Unlock()
		return ErrCannotRollforward
	}
	if err := s.enterRoll(eventRollforward); err != nil {
		s.mu.Unlock()
		return err
	}
	t := s.transactions[s.position]
	s.mu.Unlock()

	err := t.rollforward()

	s.mu.Lock()
	s.position++
	s.leaveRoll()
	observers := s.observersLocked()
	s.mu.Unlock()

	if err != nil {
		return fmt.Errorf("rollforward: %w", err)
	}
	notify(observers, []notification{rollforwardedNote(t)})
	return nil
}

// Clear freezes and drops every retained transaction.
// Open transactions are left alone.
func (s *Stack) Clear() error {
	s.mu.Lock()
	if s.rolling() {
		s.mu.Unlock()
		return fmt.Errorf("clear: %w", ErrRollInProgress)
	}

	var errs []error
	for _, t := range s.transactions {
		if err := t.Freeze(); err != nil {
			errs = append(errs, fmt.Errorf("freeze transaction %s: %w", t, err))
		}
	}
	s.transactions = nil
	s.position = 0
	observers := s.observersLocked()
	s.mu.Unlock()

	notify(observers, []notification{clearedNote()})
	return errors.Join(errs...)
}

// Resize raises the capacity. Shrinking is not supported.
func (s *Stack) Resize(capacity int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if capacity < s.capacity {
		return fmt.Errorf("resize from %d to %d: %w", s.capacity, capacity, ErrUnsupportedShrink)
	}
	s.capacity = capacity
	return nil
}

func (s *Stack) rolling() bool {
	return s.phase.Current() != phaseIdle
}

// enterRoll moves the phase machine out of idle. Must hold s.mu.
func (s *Stack) enterRoll(event string) error {
	if s.rolling() {
		return ErrRollInProgress
	}
	if err := s.phase.Event(context.Background(), event); err != nil {
		return fmt.Errorf("%w: %v", ErrRollInProgress, err)
	}
	return nil
}

// leaveRoll returns the phase machine to idle. Must hold s.mu.
func (s *Stack) leaveRoll() {
	if err := s.phase.Event(context.Background(), eventSettle); err != nil {
		s.logger.Error("settle roll phase", zap.Error(err))
		s.phase.SetState(phaseIdle)
	}
}

func (s *Stack) observersLocked() []Observer {
	if len(s.observers) == 0 {
		return nil
	}
	observers := make([]Observer, len(s.observers))
	for i, sub := range s.observers {
		observers[i] = sub.observer
	}
	return observers
}

func notify(observers []Observer, notes []notification) {
	for _, note := range notes {
		for _, o := range observers {
			note(o)
		}
	}
}
