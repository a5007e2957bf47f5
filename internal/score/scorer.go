package score

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/indianpineappl/upto-date/internal/apperr"
	"github.com/indianpineappl/upto-date/internal/database"
)

// Event types accepted in a batch. Unknown types are persisted for audit but
// contribute no score.
const (
	TypeSwipeRight   = "topic_swipe_right"
	TypeSwipeLeft    = "topic_swipe_left"
	TypeTopicOpen    = "topic_open"
	TypeSubtopicOpen = "subtopic_open"
	TypeDwell        = "dwell_time"
)

// Event is a single interaction event within a batch.
type Event struct {
	Type       string  `json:"type"`
	TopicID    *string `json:"topicId,omitempty"`
	SubtopicID *string `json:"subtopicId,omitempty"`
	DwellMs    *int64  `json:"dwellMs,omitempty"`
}

// Batch is a set of events tied to one (user, bucket, snapshot date).
type Batch struct {
	UserID       string
	BucketID     string
	SnapshotDate string
	Events       []Event
}

// Delta returns the affinity score contribution of a single event.
// Dwell time scores sub-linearly: long dwell yields diminishing reward, and
// zero or negative duration contributes nothing.
func Delta(ev Event) float64 {
	switch ev.Type {
	case TypeSwipeRight:
		return 2.0
	case TypeSwipeLeft:
		return -3.0
	case TypeTopicOpen:
		return 0.6
	case TypeSubtopicOpen:
		return 0.5
	case TypeDwell:
		var ms int64
		if ev.DwellMs != nil {
			ms = *ev.DwellMs
		}
		seconds := math.Max(0, float64(ms)/1000)
		return math.Log(1+seconds) * 0.4
	default:
		return 0
	}
}

// EventScorer converts interaction events into affinity score updates.
type EventScorer struct {
	db *database.DB
}

// NewEventScorer creates a new event scorer.
func NewEventScorer(db *database.DB) *EventScorer {
	return &EventScorer{db: db}
}

// Apply validates a batch, persists every event verbatim, and applies the
// summed per-topic deltas to the user's affinity scores. Validation happens
// before any write; an invalid batch leaves no rows behind.
func (s *EventScorer) Apply(ctx context.Context, b Batch) error {
	if b.UserID == "" || b.BucketID == "" || b.SnapshotDate == "" || b.Events == nil {
		return apperr.ErrInvalidPayload
	}

	rows := make([]database.UserEvent, len(b.Events))
	for i, ev := range b.Events {
		rows[i] = database.UserEvent{
			UserID:       b.UserID,
			BucketID:     b.BucketID,
			SnapshotDate: b.SnapshotDate,
			EventType:    ev.Type,
			TopicID:      ev.TopicID,
			SubtopicID:   ev.SubtopicID,
			DwellMs:      ev.DwellMs,
		}
	}
	if err := s.db.InsertEvents(rows); err != nil {
		return fmt.Errorf("persisting events: %w", err)
	}

	// Events without a topic id are audit-only.
	deltas := make(map[string]float64)
	for _, ev := range b.Events {
		if ev.TopicID == nil || *ev.TopicID == "" {
			continue
		}
		deltas[*ev.TopicID] += Delta(ev)
	}

	now := time.Now().UTC().Format(time.RFC3339)
	for topicID, delta := range deltas {
		if delta == 0 {
			continue
		}
		if err := s.db.AddScore(b.UserID, topicID, delta, now); err != nil {
			return fmt.Errorf("updating score for topic %s: %w", topicID, err)
		}
	}

	return nil
}
