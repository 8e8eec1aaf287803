package integrity

import (
	"time"

	"github.com/m0n0x41d/crucible/internal/types"
)

// lineageHopCap bounds chain tracing so a corrupted store cannot spin the
// builder; on overflow the minimum two-entry form is emitted instead.
const lineageHopCap = 1000

// SupersededBy points at the record that overrode a model disposition.
type SupersededBy struct {
	By types.Actor `json:"by"`
	At time.Time   `json:"at"`
}

// SupersededModelRecord preserves an overridden model disposition for audit.
type SupersededModelRecord struct {
	Record     *types.DispositionRecord `json:"record"`
	Superseded SupersededBy             `json:"superseded"`
}

// LineageEntry is one item along a root-to-leaf derivation chain, annotated
// with its effective disposition and stall metrics for the synthesis prompt.
type LineageEntry struct {
	ID                     string                  `json:"id"`
	DisplayID              string                  `json:"display_id"`
	Round                  int                     `json:"round"`
	Role                   types.Role              `json:"role"`
	Title                  string                  `json:"title"`
	Decision               types.Decision          `json:"decision,omitempty"`
	Rationale              string                  `json:"rationale,omitempty"`
	Superseded             bool                    `json:"superseded"`
	DeferredCount          int                     `json:"deferred_count"`
	RoundsActive           int                     `json:"rounds_active"`
	SupersededModelRecords []SupersededModelRecord `json:"superseded_model_records,omitempty"`
}

// RootLineage is the chain of entries for one of a leaf's root IDs.
type RootLineage struct {
	RootID  string         `json:"root_id"`
	Entries []LineageEntry `json:"lineage"`
}

// LineageCard carries one active item and its per-root lineages into the
// synthesis prompt.
type LineageCard struct {
	Item     *types.CritiqueItem `json:"item"`
	Lineages []RootLineage       `json:"lineages"`
}

// LineageInput is the snapshot BuildLineageCards operates over.
type LineageInput struct {
	ProposalID   string
	Round        int
	ActiveSet    []string
	Items        ItemStore
	Dispositions DispositionStore
}

// BuildLineageCards produces one card per active item. For each of the leaf's
// root IDs it traces the derivation chain from root to leaf when the chain is
// unbranched; otherwise it falls back to the minimum two-entry form
// [root, immediate parent, leaf], deduplicated preserving order.
func BuildLineageCards(in LineageInput) []LineageCard {
	children := BuildChildrenMap(in.Items)

	cards := make([]LineageCard, 0, len(in.ActiveSet))
	for _, leafID := range in.ActiveSet {
		leaf, ok := in.Items[leafID]
		if !ok {
			continue
		}
		card := LineageCard{Item: leaf}
		for _, rootID := range leaf.RootIDs {
			chain := traceChain(rootID, leafID, in.Items, children)
			if chain == nil {
				chain = minimumChain(rootID, leaf, in.Items)
			}
			entries := make([]LineageEntry, 0, len(chain))
			for _, id := range chain {
				entries = append(entries, buildEntry(id, in))
			}
			card.Lineages = append(card.Lineages, RootLineage{RootID: rootID, Entries: entries})
		}
		cards = append(cards, card)
	}
	return cards
}

// traceChain walks root → leaf along derived_from edges whose items share
// rootID. Returns nil when the chain branches, dead-ends, or exceeds the hop
// cap; the caller falls back to the minimum form.
func traceChain(rootID, leafID string, items ItemStore, children ChildrenMap) []string {
	if _, ok := items[rootID]; !ok {
		return nil
	}
	chain := []string{rootID}
	if rootID == leafID {
		return chain
	}

	visited := map[string]bool{rootID: true}
	cur := rootID
	for hops := 0; hops < lineageHopCap; hops++ {
		var next []string
		for _, kid := range children[cur] {
			item, ok := items[kid]
			if !ok || !containsID(item.RootIDs, rootID) {
				continue
			}
			next = append(next, kid)
		}
		if len(next) != 1 {
			return nil // branched or dead end
		}
		cur = next[0]
		if visited[cur] {
			return nil
		}
		visited[cur] = true
		chain = append(chain, cur)
		if cur == leafID {
			return chain
		}
	}
	return nil
}

// minimumChain emits [root, immediate parent, leaf] dedup-preserving order,
// degrading to [root, leaf] when no direct parent shares the root, or [leaf]
// when the leaf is its own root.
func minimumChain(rootID string, leaf *types.CritiqueItem, items ItemStore) []string {
	if rootID == leaf.ID {
		return []string{leaf.ID}
	}

	parent := ""
	for _, p := range leaf.DerivedFrom {
		item, ok := items[p]
		if ok && containsID(item.RootIDs, rootID) {
			parent = p
			break
		}
	}

	var chain []string
	seen := make(map[string]bool)
	for _, id := range []string{rootID, parent, leaf.ID} {
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		chain = append(chain, id)
	}
	return chain
}

// buildEntry annotates one chain member with its effective disposition and
// stall metrics. When a human or host record is effective, the model records
// it overrode ride along so the disagreement survives the override.
func buildEntry(id string, in LineageInput) LineageEntry {
	entry := LineageEntry{ID: id, DisplayID: displayOf(id, in.Items)}
	records := in.Dispositions[id]

	if item, ok := in.Items[id]; ok {
		entry.Round = item.Round
		entry.Role = item.Role
		entry.Title = item.Title
		if in.Round > item.Round {
			entry.RoundsActive = in.Round - item.Round
		}
	}

	for _, r := range records {
		if r.Decision == types.DecisionDeferred {
			entry.DeferredCount++
		}
	}

	eff := EffectiveDisposition(records)
	if eff == nil {
		return entry
	}
	entry.Decision = eff.Decision
	entry.Rationale = eff.Rationale

	if eff.DecidedBy == types.ActorHuman || eff.DecidedBy == types.ActorHost {
		for _, r := range records {
			if !r.DecidedBy.IsModel() || r == eff {
				continue
			}
			entry.SupersededModelRecords = append(entry.SupersededModelRecords, SupersededModelRecord{
				Record:     r,
				Superseded: SupersededBy{By: eff.DecidedBy, At: eff.ProposedAt},
			})
		}
		entry.Superseded = len(entry.SupersededModelRecords) > 0
	}
	return entry
}

func displayOf(id string, items ItemStore) string {
	if item, ok := items[id]; ok {
		return item.DisplayID
	}
	if len(id) > 12 {
		return id[:12]
	}
	return id
}

func containsID(ids []string, id string) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}
