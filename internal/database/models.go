package database

// ContentItem represents a raw content item pulled from a source.
// Items are immutable once stored; duplicate ids are ignored on insert.
type ContentItem struct {
	ID          string
	SourceName  string
	Title       string
	Snippet     *string
	URL         *string
	PublishedAt *string
	CreatedAt   *string
}

// SnapshotRecord is a stored topic snapshot keyed by (bucket_id, snapshot_date).
type SnapshotRecord struct {
	BucketID     string
	SnapshotDate string
	SnapshotJSON string
	GeneratedAt  *string
}

// UserEvent is a single recorded interaction event. Append-only.
type UserEvent struct {
	ID           int64
	UserID       string
	BucketID     string
	SnapshotDate string
	EventType    string
	TopicID      *string
	SubtopicID   *string
	DwellMs      *int64
	CreatedAt    *string
}

// BucketCount is an event count for one bucket.
type BucketCount struct {
	BucketID string
	Count    int
}

// TopicScore is the accumulated affinity of one user for one topic.
type TopicScore struct {
	UserID    string
	TopicID   string
	Score     float64
	UpdatedAt string
}

// IngestionRun records the lifecycle of one ingestion pipeline run.
// Status moves from "running" to exactly one of "ok" or "error".
type IngestionRun struct {
	ID         int64
	Status     string
	StartedAt  string
	FinishedAt *string
	Details    *string
}

// Stats contains aggregate database statistics.
type Stats struct {
	TotalItems    int
	Snapshots     int
	SnapshotDates int
	TotalEvents   int
	ScoredUsers   int
	Runs          int
}
