package integrity

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/m0n0x41d/crucible/internal/idgen"
	"github.com/m0n0x41d/crucible/internal/normalize"
	"github.com/m0n0x41d/crucible/internal/types"
)

// Warning codes attached to non-fatal ingest findings.
const (
	WarnSimilarity    = "similarity"
	WarnDowngradeGate = "downgrade_gate"
	WarnDuplicateItem = "duplicate_item"
)

// Warning is an advisory finding from ingest. Warnings never block writes.
type Warning struct {
	Code    string `json:"code"`
	ItemID  string `json:"item_id,omitempty"`
	Message string `json:"message"`
}

// RawDisposition is the optional decision a model attaches to its own
// critique. severity_downgrade_to lower than the item's severity trips the
// downgrade gate: the decision is recorded as pending_transformation and held
// open for host or human adjudication.
type RawDisposition struct {
	Decision            string         `json:"decision"`
	Rationale           string         `json:"rationale,omitempty"`
	SeverityDowngradeTo types.Severity `json:"severity_downgrade_to,omitempty"`
}

// RawCritique is one critique as parsed from model output by the host.
type RawCritique struct {
	Severity    types.Severity  `json:"severity"`
	Title       string          `json:"title"`
	Detail      string          `json:"detail,omitempty"`
	DerivedFrom []string        `json:"derived_from,omitempty"`
	Disposition *RawDisposition `json:"disposition,omitempty"`
}

// IngestInput carries one role's critique list for one round plus consistent
// snapshots of the stores. The core never mutates the snapshots.
type IngestInput struct {
	ProposalID   string
	Role         types.Role
	Round        int
	Critiques    []RawCritique
	Items        ItemStore
	Dispositions DispositionStore
	ClosedItems  []ClosedItem

	// SimilarityThreshold overrides DefaultSimilarityThreshold when > 0.
	SimilarityThreshold float64

	// Clock supplies minted_at/proposed_at timestamps; defaults to time.Now.
	Clock func() time.Time
}

// IngestResult is the outcome of one ProcessCritiqueRound call. Items and
// dispositions are appended only when Errors is empty; warnings are always
// returned.
type IngestResult struct {
	MintedItems        []*types.CritiqueItem      `json:"minted_items"`
	DispositionRecords []*types.DispositionRecord `json:"disposition_records"`
	Warnings           []Warning                  `json:"warnings,omitempty"`
	Errors             []error                    `json:"-"`
}

// InsertItemsFunc appends minted items to the canonical item store.
type InsertItemsFunc func(items []*types.CritiqueItem) error

// InsertDispositionsFunc appends disposition records to the disposition store.
type InsertDispositionsFunc func(records []*types.DispositionRecord) error

// ProcessCritiqueRound validates and mints one role's critiques for a round.
//
// Parse order is preserved throughout. All structural errors are accumulated
// per raw item and returned together; when any error is present nothing is
// written. The returned error covers only append-callback failures — a result
// with non-empty Errors and a nil error is the normal rejection path.
func ProcessCritiqueRound(in IngestInput, insertItems InsertItemsFunc, insertDispositions InsertDispositionsFunc) (*IngestResult, error) {
	res := &IngestResult{}
	now := time.Now
	if in.Clock != nil {
		now = in.Clock
	}
	threshold := in.SimilarityThreshold
	if threshold <= 0 {
		threshold = DefaultSimilarityThreshold
	}

	if in.ProposalID == "" {
		res.Errors = append(res.Errors, fmt.Errorf("proposal_id is required: %w", ErrInvalidArgument))
	}
	if !in.Role.Valid() {
		res.Errors = append(res.Errors, fmt.Errorf("role %q is not A or B: %w", in.Role, ErrInvalidArgument))
	}
	if in.Round < 1 {
		res.Errors = append(res.Errors, fmt.Errorf("round must be positive, got %d: %w", in.Round, ErrInvalidArgument))
	}
	if len(res.Errors) > 0 {
		recordIngestMetrics(res)
		return res, nil
	}

	// Pass 1: normalize and mint every raw item so same-response references
	// can be classified as backward (fine) or forward (error).
	normTexts := make([]string, len(in.Critiques))
	mintedIDs := make([]string, len(in.Critiques))
	firstIndexOf := make(map[string]int, len(in.Critiques))
	for idx, raw := range in.Critiques {
		if !raw.Severity.Valid() {
			res.Errors = append(res.Errors, fmt.Errorf("item %d: severity %q: %w", idx, raw.Severity, ErrInvalidArgument))
			continue
		}
		norm := normalize.Normalize(raw.Title + " " + raw.Detail)
		if norm == "" {
			res.Errors = append(res.Errors, fmt.Errorf("item %d: empty critique text: %w", idx, ErrInvalidArgument))
			continue
		}
		normTexts[idx] = norm
		mintedIDs[idx] = idgen.MintID(in.ProposalID, string(in.Role), in.Round, norm)
		if _, seen := firstIndexOf[mintedIDs[idx]]; !seen {
			firstIndexOf[mintedIDs[idx]] = idx
		}
	}

	term := NewTerminality(in.Items, in.Dispositions, BuildChildrenMap(in.Items))

	// Pass 2: validate derivations, compute roots, compose items.
	composed := make(map[string]*types.CritiqueItem, len(in.Critiques))
	duplicate := make(map[int]bool)
	for idx, raw := range in.Critiques {
		id := mintedIDs[idx]
		if id == "" {
			continue // rejected in pass 1
		}
		if firstIndexOf[id] != idx {
			duplicate[idx] = true
			res.Warnings = append(res.Warnings, Warning{
				Code:   WarnDuplicateItem,
				ItemID: id,
				Message: fmt.Sprintf("item %d duplicates item %d (%s) after normalization; keeping the first",
					idx, firstIndexOf[id], idgen.DisplayID(id)),
			})
			continue
		}
		if _, exists := in.Items[id]; exists {
			duplicate[idx] = true
			res.Warnings = append(res.Warnings, Warning{
				Code:    WarnDuplicateItem,
				ItemID:  id,
				Message: fmt.Sprintf("item %d re-mints existing item %s; skipped", idx, idgen.DisplayID(id)),
			})
			continue
		}

		itemErrs := false
		for _, parent := range raw.DerivedFrom {
			if err := validateParent(parent, idx, in, firstIndexOf, term); err != nil {
				res.Errors = append(res.Errors, err)
				itemErrs = true
			}
		}
		if itemErrs {
			continue
		}

		rootIDs := resolveRootIDs(id, raw.DerivedFrom, in.Items, composed)

		item := &types.CritiqueItem{
			ID:                       id,
			DisplayID:                idgen.DisplayID(id),
			ProposalID:               in.ProposalID,
			Role:                     in.Role,
			Round:                    in.Round,
			Severity:                 raw.Severity,
			Title:                    raw.Title,
			Detail:                   raw.Detail,
			NormalizedText:           normTexts[idx],
			NormalizationSpecVersion: types.NormalizationSpecVersion,
			RootIDs:                  rootIDs,
			MintedAt:                 now().UTC(),
			MintedBy:                 types.MintedByHost,
		}
		if len(raw.DerivedFrom) > 0 {
			item.DerivedFrom = append([]string(nil), raw.DerivedFrom...)
		} else if warn := ComputeSimilarityWarn(item.NormalizedText, in.ClosedItems, threshold); len(warn) > 0 {
			// Similarity is checked for new roots only and never blocks.
			item.SimilarityWarn = warn
			res.Warnings = append(res.Warnings, Warning{
				Code:    WarnSimilarity,
				ItemID:  id,
				Message: fmt.Sprintf("item %d (%s) resembles closed items %v", idx, item.DisplayID, warn),
			})
		}
		item.RootSeverity = computeRootSeverityAcross(rootIDs, in.Items, composed)

		composed[id] = item
		res.MintedItems = append(res.MintedItems, item)
	}

	// Children are computed host-side from this response's own derivations.
	responseChildren := make(map[string][]string)
	for _, item := range res.MintedItems {
		for _, parent := range item.DerivedFrom {
			responseChildren[parent] = append(responseChildren[parent], item.ID)
		}
	}

	// Pass 3: disposition records for raw items that carry one.
	for idx, raw := range in.Critiques {
		if raw.Disposition == nil || mintedIDs[idx] == "" || duplicate[idx] {
			continue
		}
		item, ok := composed[mintedIDs[idx]]
		if !ok {
			continue // item itself was rejected
		}
		rec, warns, err := buildDisposition(idx, item, raw.Disposition, responseChildren[item.ID], in.Round, now)
		if err != nil {
			res.Errors = append(res.Errors, err)
			continue
		}
		res.Warnings = append(res.Warnings, warns...)
		res.DispositionRecords = append(res.DispositionRecords, rec)
	}

	recordIngestMetrics(res)
	if len(res.Errors) > 0 {
		return res, nil
	}

	if len(res.MintedItems) > 0 && insertItems != nil {
		if err := insertItems(res.MintedItems); err != nil {
			return res, fmt.Errorf("insert items: %w", err)
		}
	}
	if len(res.DispositionRecords) > 0 && insertDispositions != nil {
		if err := insertDispositions(res.DispositionRecords); err != nil {
			return res, fmt.Errorf("insert dispositions: %w", err)
		}
	}
	return res, nil
}

// validateParent classifies one derived_from reference: canonical and open is
// fine, canonical and terminal is a reactivation, same-response backward is
// fine, same-response forward is an error, anything else is missing.
func validateParent(parent string, idx int, in IngestInput, firstIndexOf map[string]int, term *Terminality) error {
	if canonical, ok := in.Items[parent]; ok {
		if canonical.NormalizationSpecVersion != types.NormalizationSpecVersion {
			return fmt.Errorf("item %d: derived_from %s: %w: parent was minted under normalization %q and is historical; mint a new root item if the concern re-emerges",
				idx, idgen.DisplayID(parent), ErrClosedIDReactivation, canonical.NormalizationSpecVersion)
		}
		if term.IsTerminal(parent) {
			eff := EffectiveDisposition(in.Dispositions[parent])
			decision, round := types.Decision("unknown"), 0
			if eff != nil {
				decision, round = eff.Decision, eff.Round
			}
			return fmt.Errorf("item %d: derived_from %s: %w: parent was %s in round %d; mint a new root item if the concern re-emerges",
				idx, idgen.DisplayID(parent), ErrClosedIDReactivation, decision, round)
		}
		return nil
	}
	if parentIdx, ok := firstIndexOf[parent]; ok {
		if parentIdx >= idx {
			return fmt.Errorf("item %d: derived_from %s: %w: parent appears at parse index %d",
				idx, idgen.DisplayID(parent), ErrForwardReferenceInResponse, parentIdx)
		}
		return nil
	}
	return fmt.Errorf("item %d: derived_from %s: %w", idx, idgen.DisplayID(parent), ErrDerivedFromMissing)
}

// resolveRootIDs computes the root set: [id] for a fresh root, otherwise the
// order-preserving union of the parents' roots, falling back to the parent ID
// itself when a parent has no recorded roots.
func resolveRootIDs(id string, derivedFrom []string, items ItemStore, composed map[string]*types.CritiqueItem) []string {
	if len(derivedFrom) == 0 {
		return []string{id}
	}
	var roots []string
	seen := make(map[string]bool)
	add := func(r string) {
		if !seen[r] {
			seen[r] = true
			roots = append(roots, r)
		}
	}
	for _, parent := range derivedFrom {
		var parentRoots []string
		if p, ok := items[parent]; ok {
			parentRoots = p.RootIDs
		} else if p, ok := composed[parent]; ok {
			parentRoots = p.RootIDs
		}
		if len(parentRoots) == 0 {
			add(parent)
			continue
		}
		for _, r := range parentRoots {
			add(r)
		}
	}
	return roots
}

// computeRootSeverityAcross resolves root severity over the canonical store
// plus the items composed so far in this response.
func computeRootSeverityAcross(rootIDs []string, items ItemStore, composed map[string]*types.CritiqueItem) types.Severity {
	var max types.Severity
	for _, id := range rootIDs {
		if root, ok := items[id]; ok {
			max = types.MaxSeverity(max, root.Severity)
		} else if root, ok := composed[id]; ok {
			max = types.MaxSeverity(max, root.Severity)
		}
	}
	return max
}

// buildDisposition validates one raw disposition and materializes the record,
// applying the severity-downgrade gate before terminality is decided.
func buildDisposition(idx int, item *types.CritiqueItem, raw *RawDisposition, childIDs []string, round int, now func() time.Time) (*types.DispositionRecord, []Warning, error) {
	decision := types.Decision(raw.Decision)
	if !decision.Valid() {
		return nil, nil, fmt.Errorf("item %d (%s): decision %q: %w", idx, item.DisplayID, raw.Decision, ErrUnknownDisposition)
	}
	if decision == types.DecisionTransformed && len(childIDs) == 0 {
		return nil, nil, fmt.Errorf("item %d (%s): %w", idx, item.DisplayID, ErrTransformedWithoutChildren)
	}
	if decision == types.DecisionDeferred && item.Severity == types.SeverityBlocking {
		return nil, nil, fmt.Errorf("item %d (%s): %w", idx, item.DisplayID, ErrBlockingCannotDefer)
	}

	var warns []Warning
	var transformation *types.Transformation

	if raw.SeverityDowngradeTo != "" {
		if !raw.SeverityDowngradeTo.Valid() {
			return nil, nil, fmt.Errorf("item %d (%s): severity_downgrade_to %q: %w",
				idx, item.DisplayID, raw.SeverityDowngradeTo, ErrInvalidArgument)
		}
		if raw.SeverityDowngradeTo.Rank() < item.Severity.Rank() {
			// The gate: a proposed downgrade is never applied by a model
			// record. It is held open as pending_transformation until a host
			// or human record resolves it.
			decision = types.DecisionPendingTransformation
			transformation = &types.Transformation{
				ChildIDs:                  childIDs,
				Rationale:                 raw.Rationale,
				ProposedSeverityDowngrade: true,
			}
			warns = append(warns, Warning{
				Code:   WarnDowngradeGate,
				ItemID: item.ID,
				Message: fmt.Sprintf("item %d (%s): proposed downgrade %s → %s opens a ⚑ gate; host or human resolution required before this item can close",
					idx, item.DisplayID, item.Severity, raw.SeverityDowngradeTo),
			})
		}
	}

	if transformation == nil &&
		(decision == types.DecisionTransformed || decision == types.DecisionPendingTransformation) {
		transformation = &types.Transformation{ChildIDs: childIDs, Rationale: raw.Rationale}
	}

	proposedAt := now().UTC()
	var terminalAt *time.Time
	switch decision {
	case types.DecisionAccepted, types.DecisionRejected, types.DecisionDeferred:
		t := proposedAt
		terminalAt = &t
	}

	rec := &types.DispositionRecord{
		DispositionID:  uuid.NewString(),
		ItemID:         item.ID,
		Round:          round,
		DecidedBy:      types.Actor(item.Role),
		Decision:       decision,
		Rationale:      raw.Rationale,
		Transformation: transformation,
		ProposedAt:     proposedAt,
		TerminalAt:     terminalAt,
	}
	if err := rec.Validate(item); err != nil {
		return nil, nil, fmt.Errorf("item %d (%s): %s: %w", idx, item.DisplayID, err, ErrInvalidArgument)
	}
	return rec, warns, nil
}
