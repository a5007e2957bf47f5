package database

// GetStats returns aggregate counts for the status command.
func (db *DB) GetStats() (*Stats, error) {
	s := &Stats{}

	queries := []struct {
		query string
		dest  *int
	}{
		{"SELECT COUNT(*) FROM content_items", &s.TotalItems},
		{"SELECT COUNT(*) FROM topic_snapshots", &s.Snapshots},
		{"SELECT COUNT(DISTINCT snapshot_date) FROM topic_snapshots", &s.SnapshotDates},
		{"SELECT COUNT(*) FROM user_events", &s.TotalEvents},
		{"SELECT COUNT(DISTINCT user_id) FROM user_topic_scores", &s.ScoredUsers},
		{"SELECT COUNT(*) FROM ingestion_runs", &s.Runs},
	}

	for _, q := range queries {
		if err := db.conn.QueryRow(q.query).Scan(q.dest); err != nil {
			return nil, err
		}
	}
	return s, nil
}
