package integrity

import "github.com/m0n0x41d/crucible/internal/types"

// EffectiveDisposition resolves what the system currently believes about an
// item: the highest-authority record wins (human > host > model); within the
// same authority, the latest proposed_at wins. Returns nil when no records
// exist. Appending a model record after a human or host record can never
// change the result.
func EffectiveDisposition(records []*types.DispositionRecord) *types.DispositionRecord {
	var best *types.DispositionRecord
	for _, r := range records {
		if best == nil {
			best = r
			continue
		}
		br, rr := best.DecidedBy.AuthorityRank(), r.DecidedBy.AuthorityRank()
		if rr > br || (rr == br && !r.ProposedAt.Before(best.ProposedAt)) {
			best = r
		}
	}
	return best
}

// Terminality memoizes per-item terminal state over a snapshot so transitive
// transformed chains resolve in linear time.
type Terminality struct {
	items        ItemStore
	dispositions DispositionStore
	children     ChildrenMap
	memo         map[string]bool
	onStack      map[string]bool
}

// NewTerminality builds a terminality resolver over consistent snapshots.
func NewTerminality(items ItemStore, dispositions DispositionStore, children ChildrenMap) *Terminality {
	return &Terminality{
		items:        items,
		dispositions: dispositions,
		children:     children,
		memo:         make(map[string]bool),
		onStack:      make(map[string]bool),
	}
}

// IsTerminal reports whether an item's effective disposition closes it:
// accepted, rejected, or deferred close immediately; transformed closes only
// when the item has children and every child is terminal;
// pending_transformation never closes (the open flag gate). Unknown IDs are
// not terminal.
func (t *Terminality) IsTerminal(id string) bool {
	if v, ok := t.memo[id]; ok {
		return v
	}
	// A cycle in derivation edges cannot make anything terminal. The store is
	// cycle-free after validation; this guard keeps the walk total regardless.
	if t.onStack[id] {
		return false
	}

	if _, ok := t.items[id]; !ok {
		t.memo[id] = false
		return false
	}

	eff := EffectiveDisposition(t.dispositions[id])
	if eff == nil {
		t.memo[id] = false
		return false
	}

	var result bool
	switch eff.Decision {
	case types.DecisionAccepted, types.DecisionRejected, types.DecisionDeferred:
		result = true
	case types.DecisionTransformed:
		kids := t.children[id]
		if len(kids) == 0 {
			result = false
			break
		}
		t.onStack[id] = true
		result = true
		for _, kid := range kids {
			if !t.IsTerminal(kid) {
				result = false
				break
			}
		}
		delete(t.onStack, id)
	default: // pending_transformation and anything unrecognized
		result = false
	}

	t.memo[id] = result
	return result
}
