// ABOUTME: SQLite schema for conversation thread storage
// ABOUTME: Creates the thread metadata table and the append-only turn log
package sqlite

// Schema contains all SQL statements for database initialization
const Schema = `
-- Thread metadata (one row per conversation)
CREATE TABLE IF NOT EXISTS threads (
    key TEXT PRIMARY KEY,
    title TEXT NOT NULL DEFAULT '',
    created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
    updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
);

-- Append-only turn log keyed by (thread_key, seq)
CREATE TABLE IF NOT EXISTS turns (
    thread_key TEXT NOT NULL REFERENCES threads(key) ON DELETE CASCADE,
    seq INTEGER NOT NULL,
    role TEXT NOT NULL,
    content TEXT NOT NULL,
    tool_calls TEXT,
    tool_call_id TEXT,
    tool_name TEXT,
    created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
    PRIMARY KEY (thread_key, seq)
);

CREATE INDEX IF NOT EXISTS idx_turns_thread ON turns(thread_key);
CREATE INDEX IF NOT EXISTS idx_threads_updated ON threads(updated_at);
`

// SchemaVersion is the current schema version for migrations
const SchemaVersion = 1
