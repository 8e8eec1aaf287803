package integrity

import (
	"testing"
	"time"

	"github.com/m0n0x41d/crucible/internal/types"
)

func TestEffectiveDispositionAuthority(t *testing.T) {
	items := make(ItemStore)
	item := mintItem(items, types.RoleA, 1, types.SeverityBlocking, "missing retry budget")
	base := testClock()

	modelEarly := record(item.ID, types.ActorModelA, types.DecisionRejected, base)
	human := record(item.ID, types.ActorHuman, types.DecisionAccepted, base.Add(time.Minute))
	modelLate := record(item.ID, types.ActorModelB, types.DecisionDeferred, base.Add(2*time.Minute))

	tests := []struct {
		name    string
		records []*types.DispositionRecord
		want    *types.DispositionRecord
	}{
		{"no records", nil, nil},
		{"single model", []*types.DispositionRecord{modelEarly}, modelEarly},
		{"human beats model", []*types.DispositionRecord{modelEarly, human}, human},
		{"later model cannot displace human", []*types.DispositionRecord{modelEarly, human, modelLate}, human},
		{"same authority latest wins", []*types.DispositionRecord{modelEarly, modelLate}, modelLate},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := EffectiveDisposition(tt.records); got != tt.want {
				t.Errorf("EffectiveDisposition() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestEffectiveDispositionHostOverModel(t *testing.T) {
	items := make(ItemStore)
	item := mintItem(items, types.RoleA, 1, types.SeverityMinor, "log level too chatty")
	base := testClock()

	model := record(item.ID, types.ActorModelA, types.DecisionAccepted, base.Add(time.Hour))
	host := record(item.ID, types.ActorHost, types.DecisionRejected, base)

	// Host outranks a model record even when the model record is newer.
	if got := EffectiveDisposition([]*types.DispositionRecord{model, host}); got != host {
		t.Errorf("host record should win, got %+v", got)
	}
}

func TestTerminality(t *testing.T) {
	items := make(ItemStore)
	base := testClock()

	accepted := mintItem(items, types.RoleA, 1, types.SeverityBlocking, "accepted item")
	rejected := mintItem(items, types.RoleA, 1, types.SeverityMinor, "rejected item")
	deferred := mintItem(items, types.RoleA, 1, types.SeverityMinor, "deferred item")
	pending := mintItem(items, types.RoleA, 1, types.SeverityBlocking, "pending gate item")
	undecided := mintItem(items, types.RoleB, 1, types.SeverityImportant, "undecided item")

	dispositions := DispositionStore{
		accepted.ID: {record(accepted.ID, types.ActorModelA, types.DecisionAccepted, base)},
		rejected.ID: {record(rejected.ID, types.ActorModelA, types.DecisionRejected, base)},
		deferred.ID: {record(deferred.ID, types.ActorModelA, types.DecisionDeferred, base)},
		pending.ID:  {record(pending.ID, types.ActorModelA, types.DecisionPendingTransformation, base)},
	}

	term := NewTerminality(items, dispositions, BuildChildrenMap(items))
	tests := []struct {
		name string
		id   string
		want bool
	}{
		{"accepted is terminal", accepted.ID, true},
		{"rejected is terminal", rejected.ID, true},
		{"deferred is terminal", deferred.ID, true},
		{"pending_transformation never terminal", pending.ID, false},
		{"no disposition not terminal", undecided.ID, false},
		{"unknown id not terminal", "blk_nope", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := term.IsTerminal(tt.id); got != tt.want {
				t.Errorf("IsTerminal(%s) = %v, want %v", tt.id, got, tt.want)
			}
		})
	}
}

// A transformed item closes only when all of its children close, transitively.
func TestTerminalityTransformedChain(t *testing.T) {
	items := make(ItemStore)
	base := testClock()

	root := mintItem(items, types.RoleA, 1, types.SeverityBlocking, "split me")
	childA := mintItem(items, types.RoleA, 1, types.SeverityBlocking, "first half", root.ID)
	childB := mintItem(items, types.RoleA, 1, types.SeverityImportant, "second half", root.ID)
	grandchild := mintItem(items, types.RoleA, 2, types.SeverityImportant, "refined second half", childB.ID)

	dispositions := DispositionStore{
		root.ID:   {transformedRecord(root.ID, types.ActorModelA, []string{childA.ID, childB.ID}, base)},
		childA.ID: {record(childA.ID, types.ActorModelB, types.DecisionAccepted, base)},
		childB.ID: {transformedRecord(childB.ID, types.ActorModelA, []string{grandchild.ID}, base)},
	}

	term := NewTerminality(items, dispositions, BuildChildrenMap(items))
	if term.IsTerminal(root.ID) {
		t.Error("root must stay open while the grandchild is unresolved")
	}

	// Closing the grandchild closes the whole chain.
	dispositions[grandchild.ID] = []*types.DispositionRecord{
		record(grandchild.ID, types.ActorModelB, types.DecisionAccepted, base.Add(time.Minute)),
	}
	term = NewTerminality(items, dispositions, BuildChildrenMap(items))
	for _, id := range []string{grandchild.ID, childB.ID, childA.ID, root.ID} {
		if !term.IsTerminal(id) {
			t.Errorf("IsTerminal(%s) = false after chain resolution", id)
		}
	}
}

// Transformed with no recorded children is not terminal; nothing vanished.
func TestTerminalityTransformedWithoutChildren(t *testing.T) {
	items := make(ItemStore)
	item := mintItem(items, types.RoleA, 1, types.SeverityBlocking, "orphan transform")
	dispositions := DispositionStore{
		item.ID: {transformedRecord(item.ID, types.ActorModelA, []string{"blk_ghost"}, testClock())},
	}
	// The record claims a child, but no item derives from this one.
	term := NewTerminality(items, dispositions, BuildChildrenMap(items))
	if term.IsTerminal(item.ID) {
		t.Error("transformed item with no derived children must stay open")
	}
}
