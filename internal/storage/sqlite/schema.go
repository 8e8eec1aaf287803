package sqlite

const schema = `
-- Critique items: immutable, content-addressed.
CREATE TABLE IF NOT EXISTS items (
    id TEXT PRIMARY KEY CHECK(id LIKE 'blk\_%' ESCAPE '\' AND length(id) = 68),
    display_id TEXT NOT NULL,
    proposal_id TEXT NOT NULL,
    role TEXT NOT NULL CHECK(role IN ('A', 'B')),
    round INTEGER NOT NULL CHECK(round >= 1),
    severity TEXT NOT NULL CHECK(severity IN ('blocking', 'important', 'minor')),
    title TEXT NOT NULL,
    detail TEXT NOT NULL DEFAULT '',
    normalized_text TEXT NOT NULL,
    normalization_spec_version TEXT NOT NULL,
    derived_from TEXT,           -- JSON array of parent IDs, NULL for roots
    root_ids TEXT NOT NULL,      -- JSON array, never empty
    root_severity TEXT,
    similarity_warn TEXT,        -- JSON array of closed-item IDs, NULL when clean
    minted_at DATETIME NOT NULL,
    minted_by TEXT NOT NULL DEFAULT 'host'
);

CREATE INDEX IF NOT EXISTS idx_items_proposal ON items(proposal_id, round, id);

-- Disposition records: append-only decisions about items.
CREATE TABLE IF NOT EXISTS dispositions (
    disposition_id TEXT PRIMARY KEY,
    item_id TEXT NOT NULL REFERENCES items(id),
    round INTEGER NOT NULL CHECK(round >= 0),
    decided_by TEXT NOT NULL CHECK(decided_by IN ('A', 'B', 'human', 'host')),
    decision TEXT NOT NULL CHECK(decision IN ('accepted', 'rejected', 'deferred', 'transformed', 'pending_transformation')),
    rationale TEXT NOT NULL DEFAULT '',
    transformation TEXT,         -- JSON object, present only for transformed/pending
    proposed_at DATETIME NOT NULL,
    terminal_at DATETIME,
    -- pending_transformation is never terminal
    CHECK (decision != 'pending_transformation' OR terminal_at IS NULL)
);

CREATE INDEX IF NOT EXISTS idx_dispositions_item ON dispositions(item_id, proposed_at);

-- Round artifacts: write-once derived snapshots.
CREATE TABLE IF NOT EXISTS round_artifacts (
    artifact_id TEXT PRIMARY KEY,
    proposal_id TEXT NOT NULL,
    round INTEGER NOT NULL CHECK(round >= 1),
    produced_at DATETIME NOT NULL,
    payload TEXT NOT NULL,       -- full artifact as JSON
    UNIQUE(proposal_id, round)
);
`
