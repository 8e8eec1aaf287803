package integrity

import (
	"time"

	"github.com/google/uuid"

	"github.com/m0n0x41d/crucible/internal/types"
)

// ArtifactInput is the material for one round's derived snapshot. Items and
// dispositions must be consistent snapshots taken after both roles' critiques
// for the round were ingested.
type ArtifactInput struct {
	ProposalID   string
	Round        int
	Items        ItemStore
	Dispositions DispositionStore
	PlanText     map[types.Role]string

	// Clock supplies produced_at; defaults to time.Now.
	Clock func() time.Time
}

// BuildRoundArtifact computes the per-round snapshot: active set, pending
// flags, convergence state, and the DAG validation stamp. The artifact is
// written once and immutable; hosts persist it through the artifact store.
func BuildRoundArtifact(in ArtifactInput) *types.RoundArtifact {
	now := time.Now
	if in.Clock != nil {
		now = in.Clock
	}

	children := BuildChildrenMap(in.Items)
	activeSet := ComputeActiveSet(in.Items, in.Dispositions, children)

	itemsByRole := make(map[types.Role][]string)
	dispositionsByItem := make(map[string][]*types.DispositionRecord)
	for _, id := range sortedItemIDs(in.Items) {
		item := in.Items[id]
		if item.Round == in.Round {
			itemsByRole[item.Role] = append(itemsByRole[item.Role], id)
		}
		for _, rec := range in.Dispositions[id] {
			if rec.Round == in.Round {
				dispositionsByItem[id] = append(dispositionsByItem[id], rec)
			}
		}
	}

	dag := ValidateDAG(in.Items)
	producedAt := now().UTC()
	var validatedAt *time.Time
	if dag.Valid {
		t := producedAt
		validatedAt = &t
	}

	return &types.RoundArtifact{
		ArtifactID:               uuid.NewString(),
		ProposalID:               in.ProposalID,
		Round:                    in.Round,
		ProducedAt:               producedAt,
		PlanText:                 in.PlanText,
		ItemsByRole:              itemsByRole,
		DispositionsByItem:       dispositionsByItem,
		NormalizationSpecVersion: types.NormalizationSpecVersion,
		ActiveSet:                activeSet,
		PendingFlags:             ComputePendingFlags(in.Dispositions, in.Items),
		ConvergenceState:         ComputeConvergenceState(activeSet, in.Items),
		DAGValidated:             dag.Valid,
		DAGValidatedAt:           validatedAt,
	}
}

// RoundReadyForSynthesis reports whether a round may proceed to synthesis:
// convergence closed and no open downgrade gate on a blocking item.
func RoundReadyForSynthesis(artifact *types.RoundArtifact, items ItemStore, dispositions DispositionStore) bool {
	if artifact.ConvergenceState != types.ConvergenceClosed {
		return false
	}
	return !HasBlockingPendingFlags(dispositions, items)
}
