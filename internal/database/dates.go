package database

import "time"

// GetToday returns the current UTC day as YYYY-MM-DD. Snapshot dates and
// feed lookups both use UTC day boundaries.
func GetToday() string {
	return time.Now().UTC().Format("2006-01-02")
}
