package topics

// LocationContext is the approximate location a snapshot was generated for.
// All fields are null for the global bucket.
type LocationContext struct {
	City      *string  `json:"city"`
	Country   *string  `json:"country"`
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
}

// SubTopic is a drill-down facet of a topic.
type SubTopic struct {
	ID                string   `json:"id"`
	Title             string   `json:"title"`
	Summary           string   `json:"summary"`
	SupportingItemIDs []string `json:"supportingItemIds"`
}

// Topic is one summarized topic within a snapshot.
type Topic struct {
	ID                string     `json:"id"`
	Title             string     `json:"title"`
	Summary           string     `json:"summary"`
	Source            *string    `json:"source,omitempty"`
	TrendScore        *float64   `json:"trendScore,omitempty"`
	LocationRelevance *float64   `json:"locationRelevance,omitempty"`
	SupportingItemIDs []string   `json:"supportingItemIds"`
	SubTopics         []SubTopic `json:"subTopics"`
}

// Snapshot is the generated set of topics for one bucket on one date.
// BucketID and SnapshotDate are filled in by the ingestion pipeline before
// the snapshot is stored; the provider only produces the rest.
type Snapshot struct {
	BucketID        string          `json:"bucketId,omitempty"`
	SnapshotDate    string          `json:"snapshotDate,omitempty"`
	GeneratedAt     string          `json:"generatedAt"`
	LocationContext LocationContext `json:"locationContext"`
	Topics          []Topic         `json:"topics"`
}
