// Package types defines core data structures for the crucible critique pipeline.
package types

import (
	"fmt"
	"strings"
	"time"
)

// Severity classifies how strongly a critique item blocks synthesis.
type Severity string

const (
	SeverityBlocking  Severity = "blocking"
	SeverityImportant Severity = "important"
	SeverityMinor     Severity = "minor"
)

// Rank returns the ordering weight for a severity (blocking > important > minor).
// Unknown severities rank below minor so comparisons never promote garbage.
func (s Severity) Rank() int {
	switch s {
	case SeverityBlocking:
		return 3
	case SeverityImportant:
		return 2
	case SeverityMinor:
		return 1
	default:
		return 0
	}
}

// Valid reports whether s is one of the three known severities.
func (s Severity) Valid() bool {
	return s.Rank() > 0
}

// MaxSeverity returns the higher-ranked of a and b.
func MaxSeverity(a, b Severity) Severity {
	if b.Rank() > a.Rank() {
		return b
	}
	return a
}

// Role identifies which of the two debate agents emitted an item.
type Role string

const (
	RoleA Role = "A"
	RoleB Role = "B"
)

// Valid reports whether r is one of the two debate roles.
func (r Role) Valid() bool {
	return r == RoleA || r == RoleB
}

// Actor identifies who recorded a disposition. Models carry the lowest
// authority, the host sits above them, and a human overrides everything.
type Actor string

const (
	ActorModelA Actor = "A"
	ActorModelB Actor = "B"
	ActorHuman  Actor = "human"
	ActorHost   Actor = "host"
)

// AuthorityRank returns the precedence weight used by the disposition
// resolver: human = 3, host = 2, model = 1. Unknown actors rank 0.
func (a Actor) AuthorityRank() int {
	switch a {
	case ActorHuman:
		return 3
	case ActorHost:
		return 2
	case ActorModelA, ActorModelB:
		return 1
	default:
		return 0
	}
}

// IsModel reports whether the actor is one of the two debate agents.
func (a Actor) IsModel() bool {
	return a == ActorModelA || a == ActorModelB
}

// Decision is the tagged variant over the five disposition outcomes.
type Decision string

const (
	DecisionAccepted              Decision = "accepted"
	DecisionRejected              Decision = "rejected"
	DecisionDeferred              Decision = "deferred"
	DecisionTransformed           Decision = "transformed"
	DecisionPendingTransformation Decision = "pending_transformation"
)

// Valid reports whether d is one of the five known decisions.
func (d Decision) Valid() bool {
	switch d {
	case DecisionAccepted, DecisionRejected, DecisionDeferred,
		DecisionTransformed, DecisionPendingTransformation:
		return true
	}
	return false
}

// NormalizationSpecVersion is the pinned normalizer version stamped onto every
// minted item. Any behavior change to the normalizer requires a new tag; see
// internal/normalize.
const NormalizationSpecVersion = "v1"

// MintedByHost is the only valid minted_by value: the host mints every item.
const MintedByHost = "host"

// IDPrefix is the prefix of every content-addressed item ID.
const IDPrefix = "blk_"

// DisplayIDLength is the length of a truncated display ID ("blk_" + 8 hex).
const DisplayIDLength = 12

// CritiqueItem is a single concern raised by a model agent. Items are
// immutable once inserted; every cross-reference is by ID.
type CritiqueItem struct {
	ID                       string     `json:"id"`
	DisplayID                string     `json:"display_id"`
	ProposalID               string     `json:"proposal_id"`
	Role                     Role       `json:"role"`
	Round                    int        `json:"round"`
	Severity                 Severity   `json:"severity"`
	Title                    string     `json:"title"`
	Detail                   string     `json:"detail,omitempty"`
	NormalizedText           string     `json:"normalized_text"`
	NormalizationSpecVersion string     `json:"normalization_spec_version"`
	DerivedFrom              []string   `json:"derived_from,omitempty"`
	RootIDs                  []string   `json:"root_ids"`
	RootSeverity             Severity   `json:"root_severity,omitempty"`
	SimilarityWarn           []string   `json:"similarity_warn,omitempty"`
	MintedAt                 time.Time  `json:"minted_at"`
	MintedBy                 string     `json:"minted_by"`
}

// IsRoot reports whether the item was minted without parents.
func (i *CritiqueItem) IsRoot() bool {
	return len(i.DerivedFrom) == 0
}

// Validate checks structural invariants of an item before insertion.
func (i *CritiqueItem) Validate() error {
	if !strings.HasPrefix(i.ID, IDPrefix) || len(i.ID) != len(IDPrefix)+64 {
		return fmt.Errorf("id %q is not %s followed by 64 hex chars", i.ID, IDPrefix)
	}
	if i.DisplayID != i.ID[:DisplayIDLength] {
		return fmt.Errorf("display_id %q does not match id %q", i.DisplayID, i.ID)
	}
	if i.ProposalID == "" {
		return fmt.Errorf("proposal_id is required")
	}
	if !i.Role.Valid() {
		return fmt.Errorf("role %q is not A or B", i.Role)
	}
	if i.Round < 1 {
		return fmt.Errorf("round must be positive, got %d", i.Round)
	}
	if !i.Severity.Valid() {
		return fmt.Errorf("severity %q is not blocking/important/minor", i.Severity)
	}
	if i.Title == "" {
		return fmt.Errorf("title is required")
	}
	if len(i.RootIDs) == 0 {
		return fmt.Errorf("root_ids must not be empty")
	}
	if i.DerivedFrom != nil && len(i.DerivedFrom) == 0 {
		return fmt.Errorf("derived_from must be null or non-empty")
	}
	if i.MintedBy != MintedByHost {
		return fmt.Errorf("minted_by must be %q, got %q", MintedByHost, i.MintedBy)
	}
	return nil
}

// Transformation records the split of an item into child items, present only
// on transformed and pending_transformation dispositions.
type Transformation struct {
	ChildIDs                  []string `json:"child_ids"`
	Rationale                 string   `json:"rationale,omitempty"`
	ProposedSeverityDowngrade bool     `json:"proposed_severity_downgrade,omitempty"`
}

// DispositionRecord is one decision about an item. Records are append-only;
// the resolver picks the effective one by authority rank then recency.
type DispositionRecord struct {
	DispositionID  string          `json:"disposition_id"`
	ItemID         string          `json:"item_id"`
	Round          int             `json:"round"`
	DecidedBy      Actor           `json:"decided_by"`
	Decision       Decision        `json:"decision"`
	Rationale      string          `json:"rationale,omitempty"`
	Transformation *Transformation `json:"transformation,omitempty"`
	ProposedAt     time.Time       `json:"proposed_at"`
	TerminalAt     *time.Time      `json:"terminal_at,omitempty"`
}

// Validate checks structural invariants of a disposition record.
// The blocking/deferred rule needs the item's severity, so it takes the item.
func (r *DispositionRecord) Validate(item *CritiqueItem) error {
	if r.DispositionID == "" {
		return fmt.Errorf("disposition_id is required")
	}
	if r.ItemID == "" {
		return fmt.Errorf("item_id is required")
	}
	if r.Round < 0 {
		return fmt.Errorf("round must be non-negative, got %d", r.Round)
	}
	if r.DecidedBy.AuthorityRank() == 0 {
		return fmt.Errorf("decided_by %q is not A/B/human/host", r.DecidedBy)
	}
	if !r.Decision.Valid() {
		return fmt.Errorf("decision %q is not a known disposition", r.Decision)
	}
	if r.Decision == DecisionTransformed &&
		(r.Transformation == nil || len(r.Transformation.ChildIDs) == 0) {
		return fmt.Errorf("transformed disposition requires non-empty child_ids")
	}
	if r.Decision == DecisionPendingTransformation && r.TerminalAt != nil {
		return fmt.Errorf("pending_transformation is never terminal")
	}
	if item != nil && item.Severity == SeverityBlocking && r.Decision == DecisionDeferred {
		return fmt.Errorf("blocking item %s cannot be deferred", item.DisplayID)
	}
	return nil
}

// ConvergenceState is the per-round blocking/closed verdict.
type ConvergenceState string

const (
	ConvergenceOpen   ConvergenceState = "open"
	ConvergenceClosed ConvergenceState = "closed"
)

// RoundArtifact is the immutable per-round derived snapshot.
type RoundArtifact struct {
	ArtifactID               string                          `json:"artifact_id"`
	ProposalID               string                          `json:"proposal_id"`
	Round                    int                             `json:"round"`
	ProducedAt               time.Time                       `json:"produced_at"`
	PlanText                 map[Role]string                 `json:"plan_text,omitempty"`
	ItemsByRole              map[Role][]string               `json:"items_by_role,omitempty"`
	DispositionsByItem       map[string][]*DispositionRecord `json:"dispositions_by_item,omitempty"`
	NormalizationSpecVersion string                          `json:"normalization_spec_version"`
	ActiveSet                []string                        `json:"active_set"`
	PendingFlags             []string                        `json:"pending_flags,omitempty"`
	ConvergenceState         ConvergenceState                `json:"convergence_state"`
	DAGValidated             bool                            `json:"dag_validated"`
	DAGValidatedAt           *time.Time                      `json:"dag_validated_at,omitempty"`
}

// SynthesisPlan is the structured synthesis artifact audited by the gap
// detector: two flat lists of suggestion strings.
type SynthesisPlan struct {
	AcceptedSuggestions []string `json:"accepted_suggestions"`
	RejectedSuggestions []string `json:"rejected_suggestions"`
}
