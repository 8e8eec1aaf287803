package integrity

import (
	"errors"
	"strings"
	"testing"

	"github.com/m0n0x41d/crucible/internal/idgen"
	"github.com/m0n0x41d/crucible/internal/normalize"
	"github.com/m0n0x41d/crucible/internal/types"
)

// captureStores records what ProcessCritiqueRound attempts to write.
type captureStores struct {
	items        []*types.CritiqueItem
	dispositions []*types.DispositionRecord
	itemCalls    int
	dispCalls    int
}

func (c *captureStores) insertItems(items []*types.CritiqueItem) error {
	c.itemCalls++
	c.items = append(c.items, items...)
	return nil
}

func (c *captureStores) insertDispositions(records []*types.DispositionRecord) error {
	c.dispCalls++
	c.dispositions = append(c.dispositions, records...)
	return nil
}

func newIngestInput(role types.Role, round int, critiques []RawCritique) IngestInput {
	return IngestInput{
		ProposalID: testProposal,
		Role:       role,
		Round:      round,
		Critiques:  critiques,
		Items:      make(ItemStore),
		Clock:      testClock,
	}
}

func expectedID(role types.Role, round int, title, detail string) string {
	return idgen.MintID(testProposal, string(role), round, normalize.Normalize(title+" "+detail))
}

func TestProcessCritiqueRoundMintsRoots(t *testing.T) {
	var sink captureStores
	in := newIngestInput(types.RoleA, 1, []RawCritique{
		{Severity: types.SeverityBlocking, Title: "Missing retry budget", Detail: "The flush path gives up after one attempt."},
		{Severity: types.SeverityMinor, Title: "Chatty logging"},
	})

	res, err := ProcessCritiqueRound(in, sink.insertItems, sink.insertDispositions)
	if err != nil {
		t.Fatalf("ProcessCritiqueRound() error = %v", err)
	}
	if len(res.Errors) != 0 {
		t.Fatalf("unexpected errors: %v", res.Errors)
	}
	if len(res.MintedItems) != 2 {
		t.Fatalf("minted %d items, want 2", len(res.MintedItems))
	}

	first := res.MintedItems[0]
	wantID := expectedID(types.RoleA, 1, "Missing retry budget", "The flush path gives up after one attempt.")
	if first.ID != wantID {
		t.Errorf("minted ID = %s, want %s", first.ID, wantID)
	}
	if first.DisplayID != wantID[:12] {
		t.Errorf("display ID = %s, want %s", first.DisplayID, wantID[:12])
	}
	if len(first.RootIDs) != 1 || first.RootIDs[0] != first.ID {
		t.Errorf("fresh root must be its own root, got %v", first.RootIDs)
	}
	if first.RootSeverity != types.SeverityBlocking {
		t.Errorf("root severity = %s, want blocking", first.RootSeverity)
	}
	if first.MintedBy != types.MintedByHost {
		t.Errorf("minted_by = %s, want host", first.MintedBy)
	}
	if first.NormalizationSpecVersion != types.NormalizationSpecVersion {
		t.Errorf("normalization version = %s, want %s", first.NormalizationSpecVersion, types.NormalizationSpecVersion)
	}
	if sink.itemCalls != 1 {
		t.Errorf("insertItems called %d times, want 1", sink.itemCalls)
	}
}

// Identical text from both roles mints two distinct items: the role is part of
// the identity scope.
func TestProcessCritiqueRoundRoleScoping(t *testing.T) {
	raw := []RawCritique{{Severity: types.SeverityBlocking, Title: "No backpressure on the ingest queue"}}

	resA, _ := ProcessCritiqueRound(newIngestInput(types.RoleA, 1, raw), nil, nil)
	resB, _ := ProcessCritiqueRound(newIngestInput(types.RoleB, 1, raw), nil, nil)

	if len(resA.MintedItems) != 1 || len(resB.MintedItems) != 1 {
		t.Fatalf("minted %d/%d items, want 1/1", len(resA.MintedItems), len(resB.MintedItems))
	}
	if resA.MintedItems[0].ID == resB.MintedItems[0].ID {
		t.Error("role A and role B minted the same ID for identical text")
	}
}

func TestProcessCritiqueRoundBackwardReference(t *testing.T) {
	parentID := expectedID(types.RoleA, 1, "Parent concern", "")
	in := newIngestInput(types.RoleA, 1, []RawCritique{
		{Severity: types.SeverityBlocking, Title: "Parent concern"},
		{Severity: types.SeverityImportant, Title: "Narrowed concern", DerivedFrom: []string{parentID}},
	})

	res, err := ProcessCritiqueRound(in, nil, nil)
	if err != nil || len(res.Errors) != 0 {
		t.Fatalf("backward reference rejected: err=%v errors=%v", err, res.Errors)
	}
	child := res.MintedItems[1]
	if len(child.RootIDs) != 1 || child.RootIDs[0] != parentID {
		t.Errorf("child roots = %v, want [%s]", child.RootIDs, parentID)
	}
	if child.RootSeverity != types.SeverityBlocking {
		t.Errorf("child root severity = %s, want inherited blocking", child.RootSeverity)
	}
}

func TestProcessCritiqueRoundForwardReference(t *testing.T) {
	var sink captureStores
	laterID := expectedID(types.RoleA, 1, "Appears later", "")
	in := newIngestInput(types.RoleA, 1, []RawCritique{
		{Severity: types.SeverityImportant, Title: "Derives forward", DerivedFrom: []string{laterID}},
		{Severity: types.SeverityBlocking, Title: "Appears later"},
	})

	res, err := ProcessCritiqueRound(in, sink.insertItems, sink.insertDispositions)
	if err != nil {
		t.Fatalf("ProcessCritiqueRound() error = %v", err)
	}
	if len(res.Errors) != 1 || !errors.Is(res.Errors[0], ErrForwardReferenceInResponse) {
		t.Fatalf("errors = %v, want one ErrForwardReferenceInResponse", res.Errors)
	}
	if sink.itemCalls != 0 || sink.dispCalls != 0 {
		t.Error("rejected call must write nothing")
	}
}

func TestProcessCritiqueRoundMissingParent(t *testing.T) {
	in := newIngestInput(types.RoleA, 2, []RawCritique{
		{Severity: types.SeverityMinor, Title: "Orphan", DerivedFrom: []string{"blk_" + strings.Repeat("0", 64)}},
	})
	res, _ := ProcessCritiqueRound(in, nil, nil)
	if len(res.Errors) != 1 || !errors.Is(res.Errors[0], ErrDerivedFromMissing) {
		t.Fatalf("errors = %v, want one ErrDerivedFromMissing", res.Errors)
	}
}

func TestProcessCritiqueRoundClosedReactivation(t *testing.T) {
	items := make(ItemStore)
	closed := mintItem(items, types.RoleA, 1, types.SeverityBlocking, "closed concern")
	dispositions := DispositionStore{
		closed.ID: {record(closed.ID, types.ActorModelB, types.DecisionAccepted, testClock())},
	}

	in := newIngestInput(types.RoleB, 2, []RawCritique{
		{Severity: types.SeverityBlocking, Title: "Reopening the closed concern", DerivedFrom: []string{closed.ID}},
	})
	in.Items = items
	in.Dispositions = dispositions

	res, _ := ProcessCritiqueRound(in, nil, nil)
	if len(res.Errors) != 1 || !errors.Is(res.Errors[0], ErrClosedIDReactivation) {
		t.Fatalf("errors = %v, want one ErrClosedIDReactivation", res.Errors)
	}
	msg := res.Errors[0].Error()
	if !strings.Contains(msg, "accepted") {
		t.Errorf("error %q does not name the closing decision", msg)
	}
	if !strings.Contains(msg, "mint a new root item") {
		t.Errorf("error %q does not carry the remediation hint", msg)
	}
}

// A parent minted under an older normalization version is historical even when
// no disposition closed it.
func TestProcessCritiqueRoundCrossVersionParent(t *testing.T) {
	items := make(ItemStore)
	old := mintItem(items, types.RoleA, 1, types.SeverityImportant, "legacy concern")
	old.NormalizationSpecVersion = "v0"

	in := newIngestInput(types.RoleB, 2, []RawCritique{
		{Severity: types.SeverityImportant, Title: "Derives from legacy", DerivedFrom: []string{old.ID}},
	})
	in.Items = items

	res, _ := ProcessCritiqueRound(in, nil, nil)
	if len(res.Errors) != 1 || !errors.Is(res.Errors[0], ErrClosedIDReactivation) {
		t.Fatalf("errors = %v, want one ErrClosedIDReactivation", res.Errors)
	}
}

func TestProcessCritiqueRoundDowngradeGate(t *testing.T) {
	in := newIngestInput(types.RoleA, 1, []RawCritique{{
		Severity: types.SeverityBlocking,
		Title:    "Blocking but maybe overstated",
		Disposition: &RawDisposition{
			Decision:            "accepted",
			Rationale:           "probably just important",
			SeverityDowngradeTo: types.SeverityImportant,
		},
	}})

	res, err := ProcessCritiqueRound(in, nil, nil)
	if err != nil || len(res.Errors) != 0 {
		t.Fatalf("gate tripped an error: err=%v errors=%v", err, res.Errors)
	}
	if len(res.DispositionRecords) != 1 {
		t.Fatalf("got %d records, want 1", len(res.DispositionRecords))
	}
	rec := res.DispositionRecords[0]
	if rec.Decision != types.DecisionPendingTransformation {
		t.Errorf("decision = %s, want pending_transformation", rec.Decision)
	}
	if rec.TerminalAt != nil {
		t.Error("gated record must not carry a terminal stamp")
	}
	if rec.Transformation == nil || !rec.Transformation.ProposedSeverityDowngrade {
		t.Error("gated record must mark the proposed downgrade")
	}
	found := false
	for _, w := range res.Warnings {
		if w.Code == WarnDowngradeGate {
			found = true
		}
	}
	if !found {
		t.Errorf("warnings = %v, want a %s warning", res.Warnings, WarnDowngradeGate)
	}
}

// An equal or upward severity proposal is not a downgrade; the stated decision
// stands.
func TestProcessCritiqueRoundNoGateWithoutDowngrade(t *testing.T) {
	in := newIngestInput(types.RoleA, 1, []RawCritique{{
		Severity: types.SeverityImportant,
		Title:    "Important and says so",
		Disposition: &RawDisposition{
			Decision:            "accepted",
			SeverityDowngradeTo: types.SeverityBlocking,
		},
	}})
	res, _ := ProcessCritiqueRound(in, nil, nil)
	if len(res.Errors) != 0 {
		t.Fatalf("unexpected errors: %v", res.Errors)
	}
	rec := res.DispositionRecords[0]
	if rec.Decision != types.DecisionAccepted {
		t.Errorf("decision = %s, want accepted", rec.Decision)
	}
	if rec.TerminalAt == nil {
		t.Error("accepted record must be terminal")
	}
}

func TestProcessCritiqueRoundDispositionErrors(t *testing.T) {
	tests := []struct {
		name     string
		critique RawCritique
		wantErr  error
	}{
		{
			"unknown decision",
			RawCritique{Severity: types.SeverityMinor, Title: "Decided strangely",
				Disposition: &RawDisposition{Decision: "shrugged"}},
			ErrUnknownDisposition,
		},
		{
			"transformed without children",
			RawCritique{Severity: types.SeverityImportant, Title: "Split with no parts",
				Disposition: &RawDisposition{Decision: "transformed"}},
			ErrTransformedWithoutChildren,
		},
		{
			"blocking deferred",
			RawCritique{Severity: types.SeverityBlocking, Title: "Punt the blocker",
				Disposition: &RawDisposition{Decision: "deferred"}},
			ErrBlockingCannotDefer,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var sink captureStores
			in := newIngestInput(types.RoleA, 1, []RawCritique{tt.critique})
			res, err := ProcessCritiqueRound(in, sink.insertItems, sink.insertDispositions)
			if err != nil {
				t.Fatalf("ProcessCritiqueRound() error = %v", err)
			}
			if len(res.Errors) != 1 || !errors.Is(res.Errors[0], tt.wantErr) {
				t.Fatalf("errors = %v, want one %v", res.Errors, tt.wantErr)
			}
			if sink.itemCalls != 0 || sink.dispCalls != 0 {
				t.Error("rejected call must write nothing")
			}
		})
	}
}

// Transformed is legal when the same response supplies the children.
func TestProcessCritiqueRoundTransformedWithChildren(t *testing.T) {
	parentID := expectedID(types.RoleA, 1, "Split me", "")
	in := newIngestInput(types.RoleA, 1, []RawCritique{
		{Severity: types.SeverityBlocking, Title: "Split me",
			Disposition: &RawDisposition{Decision: "transformed", Rationale: "two separable concerns"}},
		{Severity: types.SeverityBlocking, Title: "First part", DerivedFrom: []string{parentID}},
		{Severity: types.SeverityImportant, Title: "Second part", DerivedFrom: []string{parentID}},
	})

	res, err := ProcessCritiqueRound(in, nil, nil)
	if err != nil || len(res.Errors) != 0 {
		t.Fatalf("split rejected: err=%v errors=%v", err, res.Errors)
	}
	rec := res.DispositionRecords[0]
	if rec.Decision != types.DecisionTransformed {
		t.Fatalf("decision = %s, want transformed", rec.Decision)
	}
	if rec.Transformation == nil || len(rec.Transformation.ChildIDs) != 2 {
		t.Errorf("transformation = %+v, want two child IDs", rec.Transformation)
	}
	if rec.TerminalAt != nil {
		t.Error("transformed record gets no terminal stamp at mint time")
	}
}

func TestProcessCritiqueRoundDuplicateInResponse(t *testing.T) {
	in := newIngestInput(types.RoleA, 1, []RawCritique{
		{Severity: types.SeverityMinor, Title: "Same concern twice."},
		{Severity: types.SeverityMinor, Title: "  same CONCERN twice"},
	})
	res, _ := ProcessCritiqueRound(in, nil, nil)
	if len(res.Errors) != 0 {
		t.Fatalf("unexpected errors: %v", res.Errors)
	}
	if len(res.MintedItems) != 1 {
		t.Errorf("minted %d items, want 1 (duplicate collapsed)", len(res.MintedItems))
	}
	found := false
	for _, w := range res.Warnings {
		if w.Code == WarnDuplicateItem {
			found = true
		}
	}
	if !found {
		t.Errorf("warnings = %v, want a %s warning", res.Warnings, WarnDuplicateItem)
	}
}

func TestProcessCritiqueRoundRemintExisting(t *testing.T) {
	items := make(ItemStore)
	existing := mintItem(items, types.RoleA, 1, types.SeverityMinor, "already minted")

	in := newIngestInput(types.RoleA, 1, []RawCritique{
		{Severity: types.SeverityMinor, Title: "already minted"},
	})
	in.Items = items

	res, _ := ProcessCritiqueRound(in, nil, nil)
	if len(res.Errors) != 0 {
		t.Fatalf("unexpected errors: %v", res.Errors)
	}
	if len(res.MintedItems) != 0 {
		t.Errorf("re-mint of %s produced %d items, want 0", existing.DisplayID, len(res.MintedItems))
	}
	if len(res.Warnings) != 1 || res.Warnings[0].Code != WarnDuplicateItem {
		t.Errorf("warnings = %v, want one %s", res.Warnings, WarnDuplicateItem)
	}
}

func TestProcessCritiqueRoundSimilarityWarn(t *testing.T) {
	in := newIngestInput(types.RoleB, 3, []RawCritique{
		{Severity: types.SeverityImportant, Title: "The flush path has no retry budget"},
	})
	in.ClosedItems = []ClosedItem{{ID: "blk_prior", NormalizedText: "the flush path has no retry budget"}}

	res, _ := ProcessCritiqueRound(in, nil, nil)
	if len(res.Errors) != 0 {
		t.Fatalf("similarity must never block: %v", res.Errors)
	}
	item := res.MintedItems[0]
	if len(item.SimilarityWarn) != 1 || item.SimilarityWarn[0] != "blk_prior" {
		t.Errorf("similarity_warn = %v, want [blk_prior]", item.SimilarityWarn)
	}
	found := false
	for _, w := range res.Warnings {
		if w.Code == WarnSimilarity {
			found = true
		}
	}
	if !found {
		t.Errorf("warnings = %v, want a %s warning", res.Warnings, WarnSimilarity)
	}
}

// One bad critique rejects the whole call: errors from every item come back
// together and nothing is written.
func TestProcessCritiqueRoundAllOrNothing(t *testing.T) {
	var sink captureStores
	in := newIngestInput(types.RoleA, 1, []RawCritique{
		{Severity: types.SeverityBlocking, Title: "Perfectly fine"},
		{Severity: "catastrophic", Title: "Bad severity"},
		{Severity: types.SeverityMinor, Title: ""},
	})
	res, err := ProcessCritiqueRound(in, sink.insertItems, sink.insertDispositions)
	if err != nil {
		t.Fatalf("ProcessCritiqueRound() error = %v", err)
	}
	if len(res.Errors) != 2 {
		t.Fatalf("errors = %v, want 2", res.Errors)
	}
	if sink.itemCalls != 0 || sink.dispCalls != 0 {
		t.Error("partially valid call must write nothing")
	}
}

func TestProcessCritiqueRoundArgumentValidation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*IngestInput)
	}{
		{"empty proposal", func(in *IngestInput) { in.ProposalID = "" }},
		{"bad role", func(in *IngestInput) { in.Role = "C" }},
		{"zero round", func(in *IngestInput) { in.Round = 0 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := newIngestInput(types.RoleA, 1, nil)
			tt.mutate(&in)
			res, err := ProcessCritiqueRound(in, nil, nil)
			if err != nil {
				t.Fatalf("ProcessCritiqueRound() error = %v", err)
			}
			if len(res.Errors) != 1 || !errors.Is(res.Errors[0], ErrInvalidArgument) {
				t.Errorf("errors = %v, want one ErrInvalidArgument", res.Errors)
			}
		})
	}
}

// Diamond derivation: roots union across parents preserving first-seen order,
// and root severity is the max across roots.
func TestProcessCritiqueRoundRootUnion(t *testing.T) {
	items := make(ItemStore)
	rootA := mintItem(items, types.RoleA, 1, types.SeverityMinor, "minor root")
	rootB := mintItem(items, types.RoleB, 1, types.SeverityBlocking, "blocking root")

	in := newIngestInput(types.RoleA, 2, []RawCritique{
		{Severity: types.SeverityMinor, Title: "Merges both roots", DerivedFrom: []string{rootA.ID, rootB.ID}},
	})
	in.Items = items

	res, _ := ProcessCritiqueRound(in, nil, nil)
	if len(res.Errors) != 0 {
		t.Fatalf("unexpected errors: %v", res.Errors)
	}
	merged := res.MintedItems[0]
	if len(merged.RootIDs) != 2 || merged.RootIDs[0] != rootA.ID || merged.RootIDs[1] != rootB.ID {
		t.Errorf("roots = %v, want [%s %s]", merged.RootIDs, rootA.ID, rootB.ID)
	}
	if merged.RootSeverity != types.SeverityBlocking {
		t.Errorf("root severity = %s, want blocking (max across roots)", merged.RootSeverity)
	}
}
