package sqlite

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/m0n0x41d/crucible/internal/types"
)

// InsertRoundArtifact stores a round's derived snapshot. Artifacts are
// write-once: the UNIQUE(proposal_id, round) constraint rejects a rewrite.
func (s *SQLiteStorage) InsertRoundArtifact(ctx context.Context, artifact *types.RoundArtifact) error {
	payload, err := json.Marshal(artifact)
	if err != nil {
		return fmt.Errorf("insert artifact: encode: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `INSERT INTO round_artifacts
		(artifact_id, proposal_id, round, produced_at, payload)
		VALUES (?, ?, ?, ?, ?)`,
		artifact.ArtifactID, artifact.ProposalID, artifact.Round,
		artifact.ProducedAt.UTC().Format(time.RFC3339Nano), string(payload),
	)
	return wrapDBError(fmt.Sprintf("insert artifact for %s round %d", artifact.ProposalID, artifact.Round), err)
}

// GetRoundArtifact returns the artifact for one proposal round.
func (s *SQLiteStorage) GetRoundArtifact(ctx context.Context, proposalID string, round int) (*types.RoundArtifact, error) {
	var payload string
	err := s.db.QueryRowContext(ctx,
		`SELECT payload FROM round_artifacts WHERE proposal_id = ? AND round = ?`,
		proposalID, round).Scan(&payload)
	if err != nil {
		return nil, wrapDBError(fmt.Sprintf("get artifact for %s round %d", proposalID, round), err)
	}
	var artifact types.RoundArtifact
	if err := json.Unmarshal([]byte(payload), &artifact); err != nil {
		return nil, fmt.Errorf("get artifact: decode: %w", err)
	}
	return &artifact, nil
}
