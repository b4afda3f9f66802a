package history

import "fmt"

// DiscardReason tells why transactions left the history.
type DiscardReason uint8

const (
	// StackFull means the oldest transaction was evicted to make room.
	StackFull DiscardReason = iota
	// StackPurged means rolled back transactions were overwritten by a new one.
	StackPurged
)

// String returns the reason name.
func (r DiscardReason) String() string {
	switch r {
	case StackFull:
		return "stack-full"
	case StackPurged:
		return "stack-purged"
	default:
		return fmt.Sprintf("DiscardReason(%d)", uint8(r))
	}
}

// Observer receives stack notifications.
// Notifications are delivered on the goroutine that caused them, after the
// stack lock is released, so observers may call back into the stack.
type Observer interface {
	TransactionCompleted(t *Transaction)
	TransactionRollbacked(t *Transaction)
	TransactionRollforwarded(t *Transaction)
	TransactionDiscarded(ts []*Transaction, reason DiscardReason)
	Cleared()
}

// ObserverFuncs adapts a set of optional functions to Observer.
// Nil fields are skipped.
type ObserverFuncs struct {
	OnCompleted     func(t *Transaction)
	OnRollbacked    func(t *Transaction)
	OnRollforwarded func(t *Transaction)
	OnDiscarded     func(ts []*Transaction, reason DiscardReason)
	OnCleared       func()
}

// TransactionCompleted calls OnCompleted if set.
func (f ObserverFuncs) TransactionCompleted(t *Transaction) {
	if f.OnCompleted != nil {
		f.OnCompleted(t)
	}
}

// TransactionRollbacked calls OnRollbacked if set.
func (f ObserverFuncs) TransactionRollbacked(t *Transaction) {
	if f.OnRollbacked != nil {
		f.OnRollbacked(t)
	}
}

// TransactionRollforwarded calls OnRollforwarded if set.
func (f ObserverFuncs) TransactionRollforwarded(t *Transaction) {
	if f.OnRollforwarded != nil {
		f.OnRollforwarded(t)
	}
}

// TransactionDiscarded calls OnDiscarded if set.
func (f ObserverFuncs) TransactionDiscarded(ts []*Transaction, reason DiscardReason) {
	if f.OnDiscarded != nil {
		f.OnDiscarded(ts, reason)
	}
}

// Cleared calls OnCleared if set.
func (f ObserverFuncs) Cleared() {
	if f.OnCleared != nil {
		f.OnCleared()
	}
}

// notification is a pending observer call recorded under the stack lock.
type notification func(o Observer)

func completedNote(t *Transaction) notification {
	return func(o Observer) { o.TransactionCompleted(t) }
}

func rollbackedNote(t *Transaction) notification {
	return func(o Observer) { o.TransactionRollbacked(t) }
}

func rollforwardedNote(t *Transaction) notification {
	return func(o Observer) { o.TransactionRollforwarded(t) }
}

func discardedNote(ts []*Transaction, reason DiscardReason) notification {
	return func(o Observer) { o.TransactionDiscarded(ts, reason) }
}

func clearedNote() notification {
	return func(o Observer) { o.Cleared() }
}
