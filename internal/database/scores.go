package database

import (
	"database/sql"
	"strings"
)

// AddScore atomically adds delta to the affinity score for (user_id, topic_id),
// creating the row if absent. The increment happens inside SQLite, so
// concurrent writers for the same key cannot lose deltas.
func (db *DB) AddScore(userID, topicID string, delta float64, updatedAt string) error {
	_, err := db.conn.Exec(
		`INSERT INTO user_topic_scores (user_id, topic_id, score, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(user_id, topic_id) DO UPDATE SET
			score = score + excluded.score,
			updated_at = excluded.updated_at`,
		userID, topicID, delta, updatedAt,
	)
	return err
}

// GetScore returns the affinity score for (user_id, topic_id), 0 if absent.
func (db *DB) GetScore(userID, topicID string) (float64, error) {
	row := db.conn.QueryRow(
		`SELECT score FROM user_topic_scores WHERE user_id = ? AND topic_id = ?`,
		userID, topicID,
	)
	var score float64
	if err := row.Scan(&score); err != nil {
		if err == sql.ErrNoRows {
			return 0, nil
		}
		return 0, err
	}
	return score, nil
}

// GetScores returns a map of topic_id to score for a user and a set of
// topic ids. Topics with no stored score are absent from the map.
func (db *DB) GetScores(userID string, topicIDs []string) (map[string]float64, error) {
	if len(topicIDs) == 0 {
		return make(map[string]float64), nil
	}

	query := `SELECT topic_id, score FROM user_topic_scores
		WHERE user_id = ? AND topic_id IN (?` + strings.Repeat(",?", len(topicIDs)-1) + `)`

	args := make([]any, 0, len(topicIDs)+1)
	args = append(args, userID)
	for _, id := range topicIDs {
		args = append(args, id)
	}

	rows, err := db.conn.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	m := make(map[string]float64)
	for rows.Next() {
		var id string
		var score float64
		if err := rows.Scan(&id, &score); err != nil {
			return nil, err
		}
		m[id] = score
	}
	return m, rows.Err()
}
