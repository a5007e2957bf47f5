package score

import (
	"math"
	"time"

	"github.com/indianpineappl/upto-date/internal/database"
)

// Scorer provides a per-user per-topic preference score for ranking.
// Implementations differ in how they weigh history; callers pick the one
// that fits their context.
type Scorer interface {
	ScoreFor(userID, topicID string) float64
}

// StoreScorer reads the authoritative accumulated affinity scores. This is
// what the feed read path uses.
type StoreScorer struct {
	db *database.DB
}

// NewStoreScorer creates a scorer backed by stored affinity scores.
func NewStoreScorer(db *database.DB) *StoreScorer {
	return &StoreScorer{db: db}
}

// ScoreFor returns the stored score for (user, topic), 0 if absent or on
// read failure.
func (s *StoreScorer) ScoreFor(userID, topicID string) float64 {
	score, err := s.db.GetScore(userID, topicID)
	if err != nil {
		return 0
	}
	return score
}

// DecayedScorer estimates preference as a recency-weighted average of event
// deltas with a 7-day half-life. It mirrors the client-side local model:
// unlike the accumulated store scores it forgets old signals, and the two
// are not expected to converge exactly.
type DecayedScorer struct {
	db       *database.DB
	halfLife time.Duration
	now      func() time.Time
}

// NewDecayedScorer creates a decayed scorer with a 7-day half-life.
func NewDecayedScorer(db *database.DB) *DecayedScorer {
	return &DecayedScorer{
		db:       db,
		halfLife: 7 * 24 * time.Hour,
		now:      time.Now,
	}
}

// ScoreFor returns the decayed preference estimate for (user, topic),
// 0 when the user has no events for the topic.
func (s *DecayedScorer) ScoreFor(userID, topicID string) float64 {
	events, err := s.db.GetEventsForUser(userID)
	if err != nil {
		return 0
	}

	now := s.now().UTC()
	var totalScore, totalWeight float64

	for _, ev := range events {
		if ev.TopicID == nil || *ev.TopicID != topicID {
			continue
		}
		delta := Delta(Event{Type: ev.EventType, TopicID: ev.TopicID, DwellMs: ev.DwellMs})
		if delta == 0 {
			continue
		}

		age := now.Sub(parseEventTime(ev.CreatedAt, now))
		if age < 0 {
			age = 0
		}
		weight := math.Pow(0.5, age.Hours()/s.halfLife.Hours())

		totalScore += delta * weight
		totalWeight += weight
	}

	if totalWeight == 0 {
		return 0
	}
	return totalScore / totalWeight
}

func parseEventTime(ts *string, fallback time.Time) time.Time {
	if ts == nil {
		return fallback
	}
	// SQLite datetime('now') format, UTC
	t, err := time.Parse("2006-01-02 15:04:05", *ts)
	if err != nil {
		return fallback
	}
	return t
}
