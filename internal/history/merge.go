package history

// Merger is implemented by payloads that can absorb a later, adjacent payload
// of the same transaction.
type Merger interface {
	// CanMerge reports whether next, which happened strictly after the
	// receiver, can be absorbed into the receiver.
	CanMerge(next Reversible) bool

	// Merge makes the receiver also represent next. next is discarded
	// afterwards.
	Merge(next Reversible)
}

// mergeOperations coalesces adjacent mergeable operations in one
// left-to-right pass. After a merge the same index is compared against its
// new neighbour; the pass never restarts, so it is not a fixpoint reduction.
// Absorbed operations are dropped without being frozen since their effect
// now lives in the receiver.
func mergeOperations(ops []*Operation) []*Operation {
	if len(ops) < 2 {
		return ops
	}

	i := 0
	for i+1 < len(ops) {
		cur, ok := ops[i].body.(Merger)
		if !ok {
			i++
			continue
		}
		next := ops[i+1].body
		if _, ok := next.(Merger); !ok || !cur.CanMerge(next) {
			i++
			continue
		}

		cur.Merge(next)
		copy(ops[i+1:], ops[i+2:])
		ops[len(ops)-1] = nil
		ops = ops[:len(ops)-1]
	}
	return ops
}
