package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/m0n0x41d/crucible/internal/types"
)

// InsertDispositions appends records inside a single transaction.
func (s *SQLiteStorage) InsertDispositions(ctx context.Context, records []*types.DispositionRecord) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return wrapDBError("insert dispositions: begin", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO dispositions
		(disposition_id, item_id, round, decided_by, decision, rationale, transformation, proposed_at, terminal_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return wrapDBError("insert dispositions: prepare", err)
	}
	defer func() { _ = stmt.Close() }()

	for _, rec := range records {
		var transformation any
		if rec.Transformation != nil {
			b, err := json.Marshal(rec.Transformation)
			if err != nil {
				return fmt.Errorf("insert dispositions: encode transformation: %w", err)
			}
			transformation = string(b)
		}
		var terminalAt any
		if rec.TerminalAt != nil {
			terminalAt = rec.TerminalAt.UTC().Format(time.RFC3339Nano)
		}
		_, err = stmt.ExecContext(ctx,
			rec.DispositionID, rec.ItemID, rec.Round, string(rec.DecidedBy),
			string(rec.Decision), rec.Rationale, transformation,
			rec.ProposedAt.UTC().Format(time.RFC3339Nano), terminalAt,
		)
		if err != nil {
			return wrapDBError(fmt.Sprintf("insert disposition %s", rec.DispositionID), err)
		}
	}
	return wrapDBError("insert dispositions: commit", tx.Commit())
}

// ListDispositions returns a proposal's records grouped by item, each group
// ordered by proposed_at.
func (s *SQLiteStorage) ListDispositions(ctx context.Context, proposalID string) (map[string][]*types.DispositionRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT d.disposition_id, d.item_id, d.round, d.decided_by, d.decision,
		       d.rationale, d.transformation, d.proposed_at, d.terminal_at
		FROM dispositions d
		JOIN items i ON i.id = d.item_id
		WHERE i.proposal_id = ?
		ORDER BY d.item_id, d.proposed_at`, proposalID)
	if err != nil {
		return nil, wrapDBError("list dispositions", err)
	}
	defer func() { _ = rows.Close() }()

	out := make(map[string][]*types.DispositionRecord)
	for rows.Next() {
		var (
			rec            types.DispositionRecord
			decidedBy      string
			decision       string
			transformation sql.NullString
			proposedAt     string
			terminalAt     sql.NullString
		)
		err := rows.Scan(&rec.DispositionID, &rec.ItemID, &rec.Round, &decidedBy,
			&decision, &rec.Rationale, &transformation, &proposedAt, &terminalAt)
		if err != nil {
			return nil, wrapDBError("list dispositions: scan", err)
		}
		rec.DecidedBy = types.Actor(decidedBy)
		rec.Decision = types.Decision(decision)
		if transformation.Valid && transformation.String != "" {
			rec.Transformation = &types.Transformation{}
			if err := json.Unmarshal([]byte(transformation.String), rec.Transformation); err != nil {
				return nil, fmt.Errorf("list dispositions: decode transformation: %w", err)
			}
		}
		if rec.ProposedAt, err = parseTime(proposedAt); err != nil {
			return nil, fmt.Errorf("list dispositions: decode proposed_at: %w", err)
		}
		if terminalAt.Valid {
			t, err := parseTime(terminalAt.String)
			if err != nil {
				return nil, fmt.Errorf("list dispositions: decode terminal_at: %w", err)
			}
			rec.TerminalAt = &t
		}
		out[rec.ItemID] = append(out[rec.ItemID], &rec)
	}
	return out, wrapDBError("list dispositions: rows", rows.Err())
}
