package database

import "database/sql"

// OpenRun creates a new ingestion run with status "running" and returns its id.
func (db *DB) OpenRun() (int64, error) {
	result, err := db.conn.Exec(`INSERT INTO ingestion_runs (status) VALUES ('running')`)
	if err != nil {
		return 0, err
	}
	return result.LastInsertId()
}

// CloseRun marks a running run as "ok" or "error". A run is closed at most
// once; closing an already-closed run is a no-op.
func (db *DB) CloseRun(runID int64, status, details string) error {
	_, err := db.conn.Exec(
		`UPDATE ingestion_runs SET status = ?, finished_at = datetime('now'), details = ?
		WHERE id = ? AND status = 'running'`,
		status, details, runID,
	)
	return err
}

// GetRun returns a single ingestion run by id, or nil if absent.
func (db *DB) GetRun(runID int64) (*IngestionRun, error) {
	row := db.conn.QueryRow(
		`SELECT id, status, started_at, finished_at, details FROM ingestion_runs WHERE id = ?`,
		runID,
	)
	var r IngestionRun
	if err := row.Scan(&r.ID, &r.Status, &r.StartedAt, &r.FinishedAt, &r.Details); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &r, nil
}

// GetRecentRuns returns the most recent ingestion runs, newest first.
// Run history is append-only; runs are never deleted.
func (db *DB) GetRecentRuns(limit int) ([]IngestionRun, error) {
	rows, err := db.conn.Query(
		`SELECT id, status, started_at, finished_at, details
		FROM ingestion_runs ORDER BY id DESC LIMIT ?`, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []IngestionRun
	for rows.Next() {
		var r IngestionRun
		if err := rows.Scan(&r.ID, &r.Status, &r.StartedAt, &r.FinishedAt, &r.Details); err != nil {
			return nil, err
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}
