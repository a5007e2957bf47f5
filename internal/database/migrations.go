package database

import "database/sql"

// Migration represents a single schema migration step.
type Migration struct {
	Version     int
	Description string
	Up          func(tx *sql.Tx) error
}

// migrations is the ordered list of all schema migrations.
// Append new migrations to the end with incrementing Version numbers.
var migrations = []Migration{
	{
		Version:     1,
		Description: "initial schema",
		Up: func(tx *sql.Tx) error {
			_, err := tx.Exec(`
CREATE TABLE IF NOT EXISTS content_items (
    id TEXT PRIMARY KEY,
    source_name TEXT NOT NULL,
    title TEXT NOT NULL,
    snippet TEXT,
    url TEXT,
    published_at TEXT,
    created_at TEXT DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS topic_snapshots (
    bucket_id TEXT NOT NULL,
    snapshot_date TEXT NOT NULL,
    snapshot_json TEXT NOT NULL,
    generated_at TEXT DEFAULT (datetime('now')),
    PRIMARY KEY (bucket_id, snapshot_date)
);

CREATE TABLE IF NOT EXISTS user_events (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    user_id TEXT NOT NULL,
    bucket_id TEXT NOT NULL,
    snapshot_date TEXT NOT NULL,
    event_type TEXT NOT NULL,
    topic_id TEXT,
    subtopic_id TEXT,
    dwell_ms INTEGER,
    created_at TEXT DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS user_topic_scores (
    user_id TEXT NOT NULL,
    topic_id TEXT NOT NULL,
    score REAL NOT NULL DEFAULT 0,
    updated_at TEXT NOT NULL,
    PRIMARY KEY (user_id, topic_id)
);

CREATE TABLE IF NOT EXISTS ingestion_runs (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    status TEXT NOT NULL CHECK(status IN ('running', 'ok', 'error')),
    started_at TEXT DEFAULT (datetime('now')),
    finished_at TEXT,
    details TEXT
);

CREATE INDEX IF NOT EXISTS idx_content_items_created ON content_items(created_at);
CREATE INDEX IF NOT EXISTS idx_user_events_created ON user_events(created_at);
CREATE INDEX IF NOT EXISTS idx_user_events_user ON user_events(user_id);
`)
			return err
		},
	},
}

// latestVersion returns the highest migration version.
func latestVersion() int {
	if len(migrations) == 0 {
		return 0
	}
	return migrations[len(migrations)-1].Version
}
