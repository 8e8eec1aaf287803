// Package integrity implements the critique and disposition pipeline: the
// content-addressed ingest path, DAG validation, authority-ranked disposition
// resolution, active-set and convergence computation, lineage card assembly,
// and synthesis gap detection.
//
// Every operation is a pure function of the snapshots passed in. The package
// holds no state, touches no storage, and never mutates its inputs; hosts
// provide consistent snapshots and append callbacks.
package integrity

import (
	"sort"

	"github.com/m0n0x41d/crucible/internal/types"
)

// ItemStore is a snapshot of the canonical item store keyed by item ID.
type ItemStore map[string]*types.CritiqueItem

// DispositionStore is a snapshot of disposition records grouped by item ID,
// each list ordered by proposed_at.
type DispositionStore map[string][]*types.DispositionRecord

// ClosedItem is the minimal shape the similarity warner needs for an already
// closed item.
type ClosedItem struct {
	ID             string `json:"id"`
	NormalizedText string `json:"normalized_text"`
}

// ChildrenMap maps an item ID to the IDs of items that derive from it.
type ChildrenMap map[string][]string

// BuildChildrenMap derives the child adjacency from derived_from edges.
// Children are kept as a separately derived map rather than a field on the
// parent so items stay immutable. Edges to IDs absent from the store are
// still recorded; terminality and active-set walks skip unknown IDs.
func BuildChildrenMap(items ItemStore) ChildrenMap {
	children := make(ChildrenMap)
	for _, id := range sortedItemIDs(items) {
		for _, parent := range items[id].DerivedFrom {
			children[parent] = append(children[parent], id)
		}
	}
	return children
}

// ListClosedItems returns the terminal items of a snapshot in (round, id)
// order, shaped for the similarity warner.
func ListClosedItems(items ItemStore, dispositions DispositionStore) []ClosedItem {
	term := NewTerminality(items, dispositions, BuildChildrenMap(items))
	var closed []ClosedItem
	for _, id := range sortedItemIDs(items) {
		if term.IsTerminal(id) {
			closed = append(closed, ClosedItem{ID: id, NormalizedText: items[id].NormalizedText})
		}
	}
	return closed
}

// sortedItemIDs returns store keys ordered by (round, id) so every derived
// computation iterates deterministically regardless of map order.
func sortedItemIDs(items ItemStore) []string {
	ids := make([]string, 0, len(items))
	for id := range items {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(a, b int) bool {
		ia, ib := items[ids[a]], items[ids[b]]
		if ia.Round != ib.Round {
			return ia.Round < ib.Round
		}
		return ia.ID < ib.ID
	})
	return ids
}
