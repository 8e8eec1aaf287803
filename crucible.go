// Package crucible provides a minimal public API for hosting the critique
// and disposition pipeline.
//
// The pipeline core (internal/integrity) is pure: it computes over snapshots
// and never touches storage. This package exports the core types plus the
// snapshot/append glue that connects the core to a storage.Store, which is
// what most hosts need.
package crucible

import (
	"context"

	"github.com/m0n0x41d/crucible/internal/integrity"
	"github.com/m0n0x41d/crucible/internal/normalize"
	"github.com/m0n0x41d/crucible/internal/storage"
	"github.com/m0n0x41d/crucible/internal/storage/memory"
	"github.com/m0n0x41d/crucible/internal/storage/sqlite"
	"github.com/m0n0x41d/crucible/internal/types"
)

// Core data types.
type (
	CritiqueItem      = types.CritiqueItem
	DispositionRecord = types.DispositionRecord
	Transformation    = types.Transformation
	RoundArtifact     = types.RoundArtifact
	SynthesisPlan     = types.SynthesisPlan
	Severity          = types.Severity
	Role              = types.Role
	Actor             = types.Actor
	Decision          = types.Decision
	ConvergenceState  = types.ConvergenceState
)

// Pipeline types.
type (
	RawCritique    = integrity.RawCritique
	RawDisposition = integrity.RawDisposition
	IngestInput    = integrity.IngestInput
	IngestResult   = integrity.IngestResult
	Warning        = integrity.Warning
	ItemStore      = integrity.ItemStore
	ClosedItem     = integrity.ClosedItem
	LineageCard    = integrity.LineageCard
	DAGResult      = integrity.DAGResult
)

// Storage port.
type Storage = storage.Store

// Severity constants.
const (
	SeverityBlocking  = types.SeverityBlocking
	SeverityImportant = types.SeverityImportant
	SeverityMinor     = types.SeverityMinor
)

// Role and actor constants.
const (
	RoleA      = types.RoleA
	RoleB      = types.RoleB
	ActorHuman = types.ActorHuman
	ActorHost  = types.ActorHost
)

// Decision constants.
const (
	DecisionAccepted              = types.DecisionAccepted
	DecisionRejected              = types.DecisionRejected
	DecisionDeferred              = types.DecisionDeferred
	DecisionTransformed           = types.DecisionTransformed
	DecisionPendingTransformation = types.DecisionPendingTransformation
)

// Convergence constants.
const (
	ConvergenceOpen   = types.ConvergenceOpen
	ConvergenceClosed = types.ConvergenceClosed
)

// Normalize applies the pinned v1 normalization rules.
func Normalize(text string) string { return normalize.Normalize(text) }

// NewSQLiteStorage creates a SQLite-backed store at the given path.
func NewSQLiteStorage(ctx context.Context, dbPath string) (Storage, error) {
	return sqlite.New(ctx, dbPath)
}

// NewMemoryStorage creates an in-process store.
func NewMemoryStorage() Storage {
	return memory.NewMemoryStorage()
}

// Snapshot is a consistent read of one proposal's state, shaped for the core.
type Snapshot struct {
	ProposalID   string
	Items        integrity.ItemStore
	Dispositions integrity.DispositionStore
	ClosedItems  []integrity.ClosedItem
}

// LoadSnapshot reads one proposal's items and dispositions from a store.
// Hosts wrap this in whatever transaction isolation their store provides.
func LoadSnapshot(ctx context.Context, store Storage, proposalID string) (*Snapshot, error) {
	items, err := store.ListItems(ctx, proposalID)
	if err != nil {
		return nil, err
	}
	dispositions, err := store.ListDispositions(ctx, proposalID)
	if err != nil {
		return nil, err
	}

	itemStore := make(integrity.ItemStore, len(items))
	for _, item := range items {
		itemStore[item.ID] = item
	}
	return &Snapshot{
		ProposalID:   proposalID,
		Items:        itemStore,
		Dispositions: dispositions,
		ClosedItems:  integrity.ListClosedItems(itemStore, dispositions),
	}, nil
}

// IngestRound runs ProcessCritiqueRound against a store-backed snapshot,
// appending through the store when validation passes. Writes to one proposal
// must be serialized by the caller; the content-addressed IDs make role
// ingestion order immaterial across a round.
func IngestRound(ctx context.Context, store Storage, in IngestInput) (*IngestResult, error) {
	return integrity.ProcessCritiqueRound(in,
		func(items []*types.CritiqueItem) error { return store.InsertItems(ctx, items) },
		func(records []*types.DispositionRecord) error { return store.InsertDispositions(ctx, records) },
	)
}

// CloseRound assembles and persists the round artifact from a snapshot.
func CloseRound(ctx context.Context, store Storage, snap *Snapshot, round int, planText map[Role]string) (*RoundArtifact, error) {
	artifact := integrity.BuildRoundArtifact(integrity.ArtifactInput{
		ProposalID:   snap.ProposalID,
		Round:        round,
		Items:        snap.Items,
		Dispositions: snap.Dispositions,
		PlanText:     planText,
	})
	if err := store.InsertRoundArtifact(ctx, artifact); err != nil {
		return nil, err
	}
	return artifact, nil
}

// ActiveSet returns the snapshot's non-terminal leaves in (round, id) order.
func ActiveSet(snap *Snapshot) []string {
	return integrity.ComputeActiveSet(snap.Items, snap.Dispositions, integrity.BuildChildrenMap(snap.Items))
}

// Convergence reports the snapshot's blocking/closed state.
func Convergence(snap *Snapshot) ConvergenceState {
	return integrity.ComputeConvergenceState(ActiveSet(snap), snap.Items)
}

// PendingFlags lists the open downgrade gates.
func PendingFlags(snap *Snapshot) []string {
	return integrity.ComputePendingFlags(snap.Dispositions, snap.Items)
}

// LineageCards builds the synthesis prompt cards for the snapshot's active set.
func LineageCards(snap *Snapshot, round int) []LineageCard {
	return integrity.BuildLineageCards(integrity.LineageInput{
		ProposalID:   snap.ProposalID,
		Round:        round,
		ActiveSet:    ActiveSet(snap),
		Items:        snap.Items,
		Dispositions: snap.Dispositions,
	})
}

// SynthesisGaps audits a synthesis plan against the snapshot's blocking
// active items; a non-empty result means the round must not finalize.
func SynthesisGaps(snap *Snapshot, plan *SynthesisPlan) []*CritiqueItem {
	return integrity.ComputeSynthesisGaps(ActiveSet(snap), snap.Items, plan)
}

// ValidateDAG checks the snapshot's derivation edges for cycles.
func ValidateDAG(snap *Snapshot) DAGResult {
	return integrity.ValidateDAG(snap.Items)
}

// RootSeverity recomputes the maximum severity across the given roots from
// the canonical store, for hosts that audit the denormalized field.
func RootSeverity(snap *Snapshot, rootIDs []string) Severity {
	return integrity.ComputeRootSeverity(rootIDs, snap.Items)
}
