package database

import "database/sql"

// InsertItem inserts a content item. Returns true if the item was inserted,
// false if an item with the same id already existed. Items are never updated
// after insertion.
func (db *DB) InsertItem(item ContentItem) (bool, error) {
	result, err := db.conn.Exec(
		`INSERT OR IGNORE INTO content_items (id, source_name, title, snippet, url, published_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		item.ID, item.SourceName, item.Title, item.Snippet, item.URL, item.PublishedAt,
	)
	if err != nil {
		return false, err
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// GetRecentItems returns the most recently stored items, newest first.
// This is the canonical input set for snapshot generation: every bucket in a
// run sees the same already-persisted items.
func (db *DB) GetRecentItems(limit int) ([]ContentItem, error) {
	rows, err := db.conn.Query(
		`SELECT id, source_name, title, snippet, url, published_at, created_at
		FROM content_items ORDER BY created_at DESC, rowid DESC LIMIT ?`, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanItems(rows)
}

// GetItemByID returns a single content item by id, or nil if absent.
func (db *DB) GetItemByID(id string) (*ContentItem, error) {
	row := db.conn.QueryRow(
		`SELECT id, source_name, title, snippet, url, published_at, created_at
		FROM content_items WHERE id = ?`, id,
	)
	var it ContentItem
	if err := row.Scan(&it.ID, &it.SourceName, &it.Title, &it.Snippet, &it.URL,
		&it.PublishedAt, &it.CreatedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &it, nil
}

func scanItems(rows *sql.Rows) ([]ContentItem, error) {
	var items []ContentItem
	for rows.Next() {
		var it ContentItem
		if err := rows.Scan(&it.ID, &it.SourceName, &it.Title, &it.Snippet, &it.URL,
			&it.PublishedAt, &it.CreatedAt); err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, rows.Err()
}
