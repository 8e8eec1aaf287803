package integrity

import (
	"sort"

	"github.com/m0n0x41d/crucible/internal/types"
)

// ComputeActiveSet returns the items the next round must still resolve:
// non-terminal leaves, where a leaf is an item all of whose children are
// terminal (an item with no children is trivially a leaf). Results are
// ordered by (round, id).
func ComputeActiveSet(items ItemStore, dispositions DispositionStore, children ChildrenMap) []string {
	term := NewTerminality(items, dispositions, children)

	var active []string
	for _, id := range sortedItemIDs(items) {
		if term.IsTerminal(id) {
			continue
		}
		leaf := true
		for _, kid := range children[id] {
			if _, ok := items[kid]; !ok {
				continue
			}
			if !term.IsTerminal(kid) {
				leaf = false
				break
			}
		}
		if leaf {
			active = append(active, id)
		}
	}
	return active
}

// ComputeConvergenceState reports whether a round is closed for synthesis:
// closed iff no active item is blocking. Minor and important items may stay
// active in a closed round; they are tracked but do not block.
func ComputeConvergenceState(activeSet []string, items ItemStore) types.ConvergenceState {
	for _, id := range activeSet {
		if item, ok := items[id]; ok && item.Severity == types.SeverityBlocking {
			return types.ConvergenceOpen
		}
	}
	return types.ConvergenceClosed
}

// ComputePendingFlags lists the items whose effective disposition is
// pending_transformation: downgrade gates still awaiting host or human
// adjudication. Ordered by (round, id) when the items are known; IDs that
// appear only in the disposition store sort last by ID.
func ComputePendingFlags(dispositions DispositionStore, items ItemStore) []string {
	pendingSet := make(map[string]bool, len(dispositions))
	for id, records := range dispositions {
		if eff := EffectiveDisposition(records); eff != nil && eff.Decision == types.DecisionPendingTransformation {
			pendingSet[id] = true
		}
	}

	var pending []string
	for _, id := range sortedItemIDs(items) {
		if pendingSet[id] {
			pending = append(pending, id)
			delete(pendingSet, id)
		}
	}
	for _, id := range sortedStringKeys(pendingSet) {
		pending = append(pending, id)
	}
	return pending
}

// HasBlockingPendingFlags reports whether any open downgrade gate sits on a
// blocking item. Round progression treats a round as synthesizable only when
// convergence is closed and this is false.
func HasBlockingPendingFlags(dispositions DispositionStore, items ItemStore) bool {
	for _, id := range ComputePendingFlags(dispositions, items) {
		if item, ok := items[id]; ok && item.Severity == types.SeverityBlocking {
			return true
		}
	}
	return false
}

func sortedStringKeys(set map[string]bool) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
