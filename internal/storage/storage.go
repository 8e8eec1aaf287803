// Package storage provides the persistence ports for the critique pipeline.
//
// The concrete implementations live in the sqlite and memory sub-packages.
// This package holds the interface and sentinel errors referenced by both the
// implementations and their consumers (cmd/crucible, the root facade).
//
// All three stores are append-only: items and artifacts are immutable once
// inserted, dispositions accumulate. Readers get consistent snapshots;
// writers serialize per proposal.
package storage

import (
	"context"
	"errors"

	"github.com/m0n0x41d/crucible/internal/types"
)

// ErrNotFound is returned when a requested entity does not exist in the store.
var ErrNotFound = errors.New("not found")

// ErrDuplicate is returned when inserting an item or artifact whose ID already
// exists. Content addressing makes honest duplicates impossible, so this
// signals a host bug (double ingest of the same response).
var ErrDuplicate = errors.New("duplicate id")

// Store is the persistence port for one or more proposals' items,
// dispositions, and round artifacts.
//
// Consumers depend on this interface rather than a concrete type so the
// sqlite and memory implementations (and test doubles) are interchangeable.
type Store interface {
	// Items
	InsertItems(ctx context.Context, items []*types.CritiqueItem) error
	GetItem(ctx context.Context, id string) (*types.CritiqueItem, error)
	// ListItems returns a proposal's items ordered by (round, id).
	ListItems(ctx context.Context, proposalID string) ([]*types.CritiqueItem, error)

	// Dispositions
	InsertDispositions(ctx context.Context, records []*types.DispositionRecord) error
	// ListDispositions returns a proposal's records grouped by item, each
	// group ordered by proposed_at.
	ListDispositions(ctx context.Context, proposalID string) (map[string][]*types.DispositionRecord, error)

	// Round artifacts
	InsertRoundArtifact(ctx context.Context, artifact *types.RoundArtifact) error
	GetRoundArtifact(ctx context.Context, proposalID string, round int) (*types.RoundArtifact, error)

	// Lifecycle
	Close() error
}
