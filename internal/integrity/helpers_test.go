package integrity

import (
	"time"

	"github.com/m0n0x41d/crucible/internal/idgen"
	"github.com/m0n0x41d/crucible/internal/normalize"
	"github.com/m0n0x41d/crucible/internal/types"
)

const testProposal = "prop-test"

// testClock keeps minted_at/proposed_at deterministic across a test.
func testClock() time.Time {
	return time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
}

// mintItem composes a canonical item the way ingest would and, when a store is
// given, registers it there. Parents must already be in the store.
func mintItem(store ItemStore, role types.Role, round int, severity types.Severity, title string, parents ...string) *types.CritiqueItem {
	norm := normalize.Normalize(title)
	id := idgen.MintID(testProposal, string(role), round, norm)
	item := &types.CritiqueItem{
		ID:                       id,
		DisplayID:                idgen.DisplayID(id),
		ProposalID:               testProposal,
		Role:                     role,
		Round:                    round,
		Severity:                 severity,
		Title:                    title,
		NormalizedText:           norm,
		NormalizationSpecVersion: types.NormalizationSpecVersion,
		MintedAt:                 testClock(),
		MintedBy:                 types.MintedByHost,
	}
	if len(parents) > 0 {
		item.DerivedFrom = append([]string(nil), parents...)
		item.RootIDs = resolveRootIDs(id, parents, store, nil)
	} else {
		item.RootIDs = []string{id}
	}
	item.RootSeverity = computeRootSeverityAcross(item.RootIDs, store, nil)
	if item.RootSeverity == "" {
		item.RootSeverity = severity
	}
	if store != nil {
		store[id] = item
	}
	return item
}

// record builds one disposition record, stamping terminal_at for the three
// immediately terminal decisions.
func record(itemID string, by types.Actor, decision types.Decision, at time.Time) *types.DispositionRecord {
	rec := &types.DispositionRecord{
		DispositionID: "disp-" + itemID[:16] + "-" + string(by) + "-" + at.Format("150405.000000000"),
		ItemID:        itemID,
		Round:         1,
		DecidedBy:     by,
		Decision:      decision,
		ProposedAt:    at,
	}
	switch decision {
	case types.DecisionAccepted, types.DecisionRejected, types.DecisionDeferred:
		t := at
		rec.TerminalAt = &t
	}
	return rec
}

// transformedRecord builds a transformed record with explicit children.
func transformedRecord(itemID string, by types.Actor, childIDs []string, at time.Time) *types.DispositionRecord {
	rec := record(itemID, by, types.DecisionTransformed, at)
	rec.Transformation = &types.Transformation{ChildIDs: childIDs}
	return rec
}
