package integrity

import "errors"

// Sentinel errors for the ingest and validation paths. Callers match with
// errors.Is; ingest wraps each with per-item context (parse index, display ID).
var (
	// ErrInvalidArgument indicates a structurally unusable input (empty
	// proposal ID, unknown role, empty critique text, bad round).
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrDerivedFromMissing indicates a derived_from reference that exists
	// neither in the canonical store nor earlier in the same response.
	ErrDerivedFromMissing = errors.New("derived_from parent not found")

	// ErrForwardReferenceInResponse indicates a derived_from reference to an
	// item minted at a later parse index of the same response.
	ErrForwardReferenceInResponse = errors.New("derived_from forward reference within response")

	// ErrClosedIDReactivation indicates a derived_from reference to a terminal
	// item. Closed concerns are never reopened; a re-emerging concern gets a
	// fresh root item.
	ErrClosedIDReactivation = errors.New("derived_from references a closed item")

	// ErrUnknownDisposition indicates a decision string outside the five-value
	// enum.
	ErrUnknownDisposition = errors.New("unknown disposition decision")

	// ErrTransformedWithoutChildren indicates a transformed disposition on an
	// item for which the response supplies no derived children.
	ErrTransformedWithoutChildren = errors.New("transformed disposition without children")

	// ErrBlockingCannotDefer indicates a deferred disposition on a blocking
	// item.
	ErrBlockingCannotDefer = errors.New("blocking item cannot be deferred")

	// ErrCycleDetected is returned by DAG validation when derived_from edges
	// form a cycle.
	ErrCycleDetected = errors.New("derivation cycle detected")
)
