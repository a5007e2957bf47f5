package database

import "database/sql"

// UpsertSnapshot stores a topic snapshot keyed by (bucket_id, snapshot_date).
// An existing snapshot for the same key is overwritten wholesale.
func (db *DB) UpsertSnapshot(bucketID, snapshotDate, snapshotJSON string) error {
	_, err := db.conn.Exec(
		`INSERT INTO topic_snapshots (bucket_id, snapshot_date, snapshot_json, generated_at)
		VALUES (?, ?, ?, datetime('now'))
		ON CONFLICT(bucket_id, snapshot_date) DO UPDATE SET
			snapshot_json = excluded.snapshot_json,
			generated_at = excluded.generated_at`,
		bucketID, snapshotDate, snapshotJSON,
	)
	return err
}

// GetSnapshot returns the snapshot for (bucket_id, snapshot_date), or nil if
// none exists.
func (db *DB) GetSnapshot(bucketID, snapshotDate string) (*SnapshotRecord, error) {
	row := db.conn.QueryRow(
		`SELECT bucket_id, snapshot_date, snapshot_json, generated_at
		FROM topic_snapshots WHERE bucket_id = ? AND snapshot_date = ?`,
		bucketID, snapshotDate,
	)
	var s SnapshotRecord
	if err := row.Scan(&s.BucketID, &s.SnapshotDate, &s.SnapshotJSON, &s.GeneratedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &s, nil
}
