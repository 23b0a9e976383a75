package storage

import "time"

// SchemaVersion is bumped whenever Schema changes shape
const SchemaVersion = 1

// HistoryConfig bounds the persisted prompt history
type HistoryConfig struct {
	MaxEntries int // 0 keeps everything
	MaxAgeDays int // 0 disables age based cleanup
}

// PromptHistory maps a row of the prompt_history table
type PromptHistory struct {
	ID        int64     `db:"id"`
	Prompt    string    `db:"prompt"`
	Model     string    `db:"model"`
	Timestamp time.Time `db:"timestamp"` // Stored as Unix timestamp
}

// Schema is the SQL DDL for creating all tables
const Schema = `
-- Prompt history table
CREATE TABLE IF NOT EXISTS prompt_history (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    prompt TEXT NOT NULL,
    model TEXT NOT NULL DEFAULT '',
    timestamp INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_prompt_history_timestamp ON prompt_history(timestamp DESC);

-- Schema version table
CREATE TABLE IF NOT EXISTS schema_version (
    version INTEGER PRIMARY KEY,
    applied_at INTEGER NOT NULL
);

INSERT OR IGNORE INTO schema_version (version, applied_at) VALUES (1, unixepoch());
`
