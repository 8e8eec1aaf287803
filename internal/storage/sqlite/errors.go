package sqlite

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/m0n0x41d/crucible/internal/storage"
)

// wrapDBError wraps a database error with operation context, converting
// sql.ErrNoRows to storage.ErrNotFound and unique-constraint violations to
// storage.ErrDuplicate for consistent errors.Is handling upstream.
func wrapDBError(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%s: %w", op, storage.ErrNotFound)
	}
	if isUniqueViolation(err) {
		return fmt.Errorf("%s: %w", op, storage.ErrDuplicate)
	}
	return fmt.Errorf("%s: %w", op, err)
}

// isUniqueViolation sniffs SQLite's constraint error text. The ncruces driver
// surfaces these as plain errors, not typed ones, so string matching is the
// stable option.
func isUniqueViolation(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") ||
		strings.Contains(msg, "constraint failed: items.id")
}
