package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/m0n0x41d/crucible/internal/types"
)

const itemColumns = `id, display_id, proposal_id, role, round, severity, title, detail,
	normalized_text, normalization_spec_version, derived_from, root_ids,
	root_severity, similarity_warn, minted_at, minted_by`

// InsertItems appends minted items inside a single transaction so the batch
// is all-or-nothing, matching the ingestor's no-partial-writes contract.
func (s *SQLiteStorage) InsertItems(ctx context.Context, items []*types.CritiqueItem) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return wrapDBError("insert items: begin", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO items (`+itemColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return wrapDBError("insert items: prepare", err)
	}
	defer func() { _ = stmt.Close() }()

	for _, item := range items {
		if err := item.Validate(); err != nil {
			return fmt.Errorf("insert items: %w", err)
		}
		derivedFrom, err := nullableJSON(item.DerivedFrom)
		if err != nil {
			return fmt.Errorf("insert items: encode derived_from: %w", err)
		}
		rootIDs, err := json.Marshal(item.RootIDs)
		if err != nil {
			return fmt.Errorf("insert items: encode root_ids: %w", err)
		}
		similarityWarn, err := nullableJSON(item.SimilarityWarn)
		if err != nil {
			return fmt.Errorf("insert items: encode similarity_warn: %w", err)
		}
		_, err = stmt.ExecContext(ctx,
			item.ID, item.DisplayID, item.ProposalID, string(item.Role), item.Round,
			string(item.Severity), item.Title, item.Detail,
			item.NormalizedText, item.NormalizationSpecVersion,
			derivedFrom, string(rootIDs),
			nullableString(string(item.RootSeverity)), similarityWarn,
			item.MintedAt.UTC().Format(time.RFC3339Nano), item.MintedBy,
		)
		if err != nil {
			return wrapDBError(fmt.Sprintf("insert item %s", item.DisplayID), err)
		}
	}
	return wrapDBError("insert items: commit", tx.Commit())
}

// GetItem returns one item by ID.
func (s *SQLiteStorage) GetItem(ctx context.Context, id string) (*types.CritiqueItem, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+itemColumns+` FROM items WHERE id = ?`, id)
	item, err := scanItem(row)
	if err != nil {
		return nil, wrapDBError(fmt.Sprintf("get item %s", id), err)
	}
	return item, nil
}

// ListItems returns a proposal's items ordered by (round, id).
func (s *SQLiteStorage) ListItems(ctx context.Context, proposalID string) ([]*types.CritiqueItem, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+itemColumns+` FROM items WHERE proposal_id = ? ORDER BY round, id`, proposalID)
	if err != nil {
		return nil, wrapDBError("list items", err)
	}
	defer func() { _ = rows.Close() }()

	var items []*types.CritiqueItem
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, wrapDBError("list items: scan", err)
		}
		items = append(items, item)
	}
	return items, wrapDBError("list items: rows", rows.Err())
}

// rowScanner lets scanItem serve both QueryRow and Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanItem(row rowScanner) (*types.CritiqueItem, error) {
	var (
		item           types.CritiqueItem
		role, severity string
		derivedFrom    sql.NullString
		rootIDs        string
		rootSeverity   sql.NullString
		similarityWarn sql.NullString
		mintedAt       string
	)
	err := row.Scan(
		&item.ID, &item.DisplayID, &item.ProposalID, &role, &item.Round,
		&severity, &item.Title, &item.Detail,
		&item.NormalizedText, &item.NormalizationSpecVersion,
		&derivedFrom, &rootIDs, &rootSeverity, &similarityWarn,
		&mintedAt, &item.MintedBy,
	)
	if err != nil {
		return nil, err
	}
	item.Role = types.Role(role)
	item.Severity = types.Severity(severity)
	item.RootSeverity = types.Severity(rootSeverity.String)
	if err := decodeJSONList(derivedFrom, &item.DerivedFrom); err != nil {
		return nil, fmt.Errorf("decode derived_from: %w", err)
	}
	if err := json.Unmarshal([]byte(rootIDs), &item.RootIDs); err != nil {
		return nil, fmt.Errorf("decode root_ids: %w", err)
	}
	if err := decodeJSONList(similarityWarn, &item.SimilarityWarn); err != nil {
		return nil, fmt.Errorf("decode similarity_warn: %w", err)
	}
	if item.MintedAt, err = parseTime(mintedAt); err != nil {
		return nil, fmt.Errorf("decode minted_at: %w", err)
	}
	return &item, nil
}
