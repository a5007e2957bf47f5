package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/indianpineappl/upto-date/internal/apperr"
	"github.com/indianpineappl/upto-date/internal/database"
	"github.com/indianpineappl/upto-date/internal/geo"
	"github.com/indianpineappl/upto-date/internal/score"
	"github.com/indianpineappl/upto-date/internal/topics"
)

// Request is a feed read request. Lat/Lng are optional; UserID defaults to
// "anonymous" and Date to the current UTC day.
type Request struct {
	Lat    *float64
	Lng    *float64
	UserID string
	Date   string
}

// Response is a ranked feed. BucketID is the bucket whose snapshot was
// actually resolved, which may be coarser than the requested location.
type Response struct {
	BucketID     string         `json:"bucketId"`
	SnapshotDate string         `json:"snapshotDate"`
	Topics       []topics.Topic `json:"topics"`
}

// Assembler answers feed read requests by resolving the best available
// snapshot and ranking its topics with the caller's affinity scores.
type Assembler struct {
	db     *database.DB
	scorer score.Scorer
}

// New creates an assembler ranking with the authoritative stored scores.
func New(db *database.DB) *Assembler {
	return &Assembler{db: db, scorer: score.NewStoreScorer(db)}
}

// NewWithScorer creates an assembler with an explicit scoring strategy.
func NewWithScorer(db *database.DB, scorer score.Scorer) *Assembler {
	return &Assembler{db: db, scorer: scorer}
}

// Build resolves and ranks the feed for a request.
func (a *Assembler) Build(ctx context.Context, req Request) (*Response, error) {
	userID := req.UserID
	if userID == "" {
		userID = "anonymous"
	}
	date := req.Date
	if date == "" {
		date = database.GetToday()
	}

	chain := []string{geo.Global}
	if req.Lat != nil && req.Lng != nil {
		chain = geo.FallbackChain(*req.Lat, *req.Lng)
	}

	record, err := a.resolve(chain, date)
	if err != nil {
		return nil, err
	}
	if record == nil {
		return nil, apperr.ErrNotFound
	}

	var snapshot topics.Snapshot
	if err := json.Unmarshal([]byte(record.SnapshotJSON), &snapshot); err != nil {
		return nil, fmt.Errorf("decoding stored snapshot %s/%s: %w", record.BucketID, date, err)
	}

	ranked := a.rank(userID, snapshot.Topics)

	return &Response{
		BucketID:     record.BucketID,
		SnapshotDate: date,
		Topics:       ranked,
	}, nil
}

// resolve walks the fallback chain and returns the first snapshot found.
func (a *Assembler) resolve(chain []string, date string) (*database.SnapshotRecord, error) {
	for _, bucketID := range chain {
		record, err := a.db.GetSnapshot(bucketID, date)
		if err != nil {
			return nil, fmt.Errorf("looking up snapshot %s/%s: %w", bucketID, date, err)
		}
		if record != nil {
			return record, nil
		}
	}
	return nil, nil
}

// rank orders topics by locationRelevance + trendScore + user affinity,
// descending. The sort is stable: ties keep the snapshot's original order.
func (a *Assembler) rank(userID string, items []topics.Topic) []topics.Topic {
	type scored struct {
		topic    topics.Topic
		combined float64
	}

	scoredTopics := make([]scored, len(items))
	for i, t := range items {
		combined := deref(t.LocationRelevance) + deref(t.TrendScore)
		combined += a.scorer.ScoreFor(userID, t.ID)
		scoredTopics[i] = scored{topic: t, combined: combined}
	}

	sort.SliceStable(scoredTopics, func(i, j int) bool {
		return scoredTopics[i].combined > scoredTopics[j].combined
	})

	ranked := make([]topics.Topic, len(scoredTopics))
	for i, s := range scoredTopics {
		ranked[i] = s.topic
	}
	return ranked
}

func deref(f *float64) float64 {
	if f == nil {
		return 0
	}
	return *f
}
