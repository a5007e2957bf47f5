package database

import "database/sql"

// InsertEvents persists a batch of user events in one transaction.
// Events are an append-only audit trail; duplicates are never rejected.
func (db *DB) InsertEvents(events []UserEvent) error {
	if len(events) == 0 {
		return nil
	}

	tx, err := db.conn.Begin()
	if err != nil {
		return err
	}

	stmt, err := tx.Prepare(
		`INSERT INTO user_events (user_id, bucket_id, snapshot_date, event_type, topic_id, subtopic_id, dwell_ms)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
	)
	if err != nil {
		tx.Rollback()
		return err
	}
	defer stmt.Close()

	for _, ev := range events {
		if _, err := stmt.Exec(ev.UserID, ev.BucketID, ev.SnapshotDate, ev.EventType,
			ev.TopicID, ev.SubtopicID, ev.DwellMs); err != nil {
			tx.Rollback()
			return err
		}
	}

	return tx.Commit()
}

// CountEventsByBucket counts events since the given timestamp, grouped by
// bucket and ordered by count descending. The scan is bounded: only the most
// recent limit events are considered.
func (db *DB) CountEventsByBucket(since string, limit int) ([]BucketCount, error) {
	rows, err := db.conn.Query(
		`SELECT bucket_id, COUNT(*) AS n FROM (
			SELECT bucket_id FROM user_events
			WHERE created_at >= ?
			ORDER BY created_at DESC LIMIT ?
		) GROUP BY bucket_id ORDER BY n DESC, bucket_id`,
		since, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var counts []BucketCount
	for rows.Next() {
		var c BucketCount
		if err := rows.Scan(&c.BucketID, &c.Count); err != nil {
			return nil, err
		}
		counts = append(counts, c)
	}
	return counts, rows.Err()
}

// GetEventsForUser returns all events recorded for a user, oldest first.
func (db *DB) GetEventsForUser(userID string) ([]UserEvent, error) {
	rows, err := db.conn.Query(
		`SELECT id, user_id, bucket_id, snapshot_date, event_type, topic_id, subtopic_id, dwell_ms, created_at
		FROM user_events WHERE user_id = ? ORDER BY created_at ASC, id ASC`, userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanEvents(rows)
}

func scanEvents(rows *sql.Rows) ([]UserEvent, error) {
	var events []UserEvent
	for rows.Next() {
		var ev UserEvent
		if err := rows.Scan(&ev.ID, &ev.UserID, &ev.BucketID, &ev.SnapshotDate,
			&ev.EventType, &ev.TopicID, &ev.SubtopicID, &ev.DwellMs, &ev.CreatedAt); err != nil {
			return nil, err
		}
		events = append(events, ev)
	}
	return events, rows.Err()
}
