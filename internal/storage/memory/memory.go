// Package memory implements the storage interface with in-process maps.
// Used by tests and by hosts that keep a debate entirely in memory.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/m0n0x41d/crucible/internal/storage"
	"github.com/m0n0x41d/crucible/internal/types"
)

// MemoryStorage implements storage.Store with mutex-guarded maps.
type MemoryStorage struct {
	mu           sync.RWMutex
	items        map[string]*types.CritiqueItem
	dispositions map[string][]*types.DispositionRecord
	artifacts    map[string]*types.RoundArtifact // key: proposal|round
}

// NewMemoryStorage creates an empty in-memory store.
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{
		items:        make(map[string]*types.CritiqueItem),
		dispositions: make(map[string][]*types.DispositionRecord),
		artifacts:    make(map[string]*types.RoundArtifact),
	}
}

// InsertItems appends minted items. The batch is all-or-nothing: a duplicate
// anywhere rejects the whole call before any write.
func (m *MemoryStorage) InsertItems(_ context.Context, items []*types.CritiqueItem) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, item := range items {
		if _, exists := m.items[item.ID]; exists {
			return fmt.Errorf("insert item %s: %w", item.DisplayID, storage.ErrDuplicate)
		}
	}
	for _, item := range items {
		copied := *item
		m.items[item.ID] = &copied
	}
	return nil
}

// GetItem returns one item by ID.
func (m *MemoryStorage) GetItem(_ context.Context, id string) (*types.CritiqueItem, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	item, ok := m.items[id]
	if !ok {
		return nil, fmt.Errorf("get item %s: %w", id, storage.ErrNotFound)
	}
	copied := *item
	return &copied, nil
}

// ListItems returns a proposal's items ordered by (round, id).
func (m *MemoryStorage) ListItems(_ context.Context, proposalID string) ([]*types.CritiqueItem, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*types.CritiqueItem
	for _, item := range m.items {
		if item.ProposalID != proposalID {
			continue
		}
		copied := *item
		out = append(out, &copied)
	}
	sort.Slice(out, func(a, b int) bool {
		if out[a].Round != out[b].Round {
			return out[a].Round < out[b].Round
		}
		return out[a].ID < out[b].ID
	})
	return out, nil
}

// InsertDispositions appends disposition records.
func (m *MemoryStorage) InsertDispositions(_ context.Context, records []*types.DispositionRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, rec := range records {
		copied := *rec
		m.dispositions[rec.ItemID] = append(m.dispositions[rec.ItemID], &copied)
	}
	return nil
}

// ListDispositions returns a proposal's records grouped by item, each group
// ordered by proposed_at.
func (m *MemoryStorage) ListDispositions(_ context.Context, proposalID string) (map[string][]*types.DispositionRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(map[string][]*types.DispositionRecord)
	for itemID, records := range m.dispositions {
		item, ok := m.items[itemID]
		if !ok || item.ProposalID != proposalID {
			continue
		}
		group := make([]*types.DispositionRecord, 0, len(records))
		for _, rec := range records {
			copied := *rec
			group = append(group, &copied)
		}
		sort.SliceStable(group, func(a, b int) bool {
			return group[a].ProposedAt.Before(group[b].ProposedAt)
		})
		out[itemID] = group
	}
	return out, nil
}

// InsertRoundArtifact stores a round's derived snapshot; artifacts are write-once.
func (m *MemoryStorage) InsertRoundArtifact(_ context.Context, artifact *types.RoundArtifact) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := artifactKey(artifact.ProposalID, artifact.Round)
	if _, exists := m.artifacts[key]; exists {
		return fmt.Errorf("insert artifact for %s round %d: %w", artifact.ProposalID, artifact.Round, storage.ErrDuplicate)
	}
	copied := *artifact
	m.artifacts[key] = &copied
	return nil
}

// GetRoundArtifact returns the artifact for one proposal round.
func (m *MemoryStorage) GetRoundArtifact(_ context.Context, proposalID string, round int) (*types.RoundArtifact, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	artifact, ok := m.artifacts[artifactKey(proposalID, round)]
	if !ok {
		return nil, fmt.Errorf("get artifact for %s round %d: %w", proposalID, round, storage.ErrNotFound)
	}
	copied := *artifact
	return &copied, nil
}

// Close is a no-op for the in-memory store.
func (m *MemoryStorage) Close() error { return nil }

func artifactKey(proposalID string, round int) string {
	return fmt.Sprintf("%s|%d", proposalID, round)
}
