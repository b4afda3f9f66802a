// Package history provides a transactional undo/redo engine.
//
// Edits are recorded as opaque Reversible payloads grouped into
// transactions, and completed transactions are kept in a bounded Stack.
// Key concepts:
//
// # Operations
//
// An Operation wraps one applied edit. It is Active until it is frozen;
// while it is being rolled back or forward it is InProgress and cannot be
// entered again. Frozen is terminal and releases the payload through the
// optional Releaser hook.
//
// # Transactions
//
// A Transaction is an ordered batch of operations that is rolled back in
// reverse order and rolled forward in order. On completion, adjacent
// payloads implementing Merger are coalesced in a single left-to-right
// pass:
//
//	tx, _ := stack.CreateTransaction(ctx, history.Named("Rename"))
//	defer tx.Close()
//	stack.PushOperation(edit)
//	tx.Complete(ctx)
//
// Transactions nest; the innermost must be completed first.
//
// # Stack
//
// The Stack keeps a cursor between done and undone transactions:
//
//	stack, _ := history.NewStack(100)
//	stack.Rollback()    // undo
//	stack.Rollforward() // redo
//
// Completing a transaction after a rollback purges the undone transactions;
// a full stack evicts its oldest transaction. Discarded transactions are
// frozen and reported to observers with a DiscardReason.
//
// # Save Points
//
// CreateSavePoint and IsAtSavePoint track whether a document changed since
// it was saved; RevertTo walks the cursor back to a save point.
package history
