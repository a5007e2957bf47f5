package feed

import (
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"testing"

	"github.com/indianpineappl/upto-date/internal/apperr"
	"github.com/indianpineappl/upto-date/internal/database"
	"github.com/indianpineappl/upto-date/internal/geo"
	"github.com/indianpineappl/upto-date/internal/topics"
)

func openTestDB(t *testing.T) *database.DB {
	t.Helper()
	db, err := database.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func ptr[T any](v T) *T {
	return &v
}

func storeSnapshot(t *testing.T, db *database.DB, bucketID, date string, ts []topics.Topic) {
	t.Helper()
	data, err := json.Marshal(topics.Snapshot{
		BucketID:     bucketID,
		SnapshotDate: date,
		GeneratedAt:  "2026-08-31T06:00:00Z",
		Topics:       ts,
	})
	if err != nil {
		t.Fatalf("Failed to encode snapshot: %v", err)
	}
	if err := db.UpsertSnapshot(bucketID, date, string(data)); err != nil {
		t.Fatalf("Failed to store snapshot: %v", err)
	}
}

func TestBuildResolvesFallbackChain(t *testing.T) {
	db := openTestDB(t)
	lat, lng := 48.8566, 2.3522
	date := "2026-08-31"

	// Only precision 3 and the global bucket have snapshots; the request's
	// precision 5 and 4 buckets do not.
	chain := geo.FallbackChain(lat, lng)
	storeSnapshot(t, db, chain[2], date, []topics.Topic{{ID: "local"}})
	storeSnapshot(t, db, geo.Global, date, []topics.Topic{{ID: "global"}})

	resp, err := New(db).Build(context.Background(), Request{Lat: &lat, Lng: &lng, Date: date})
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	if resp.BucketID != chain[2] {
		t.Errorf("expected bucket %q from the fallback chain, got %q", chain[2], resp.BucketID)
	}
	if len(resp.Topics) != 1 || resp.Topics[0].ID != "local" {
		t.Errorf("expected the precision-3 snapshot's topics, got %+v", resp.Topics)
	}
}

func TestBuildWithoutCoordsUsesGlobal(t *testing.T) {
	db := openTestDB(t)
	date := "2026-08-31"
	storeSnapshot(t, db, geo.Global, date, []topics.Topic{{ID: "t1"}})

	resp, err := New(db).Build(context.Background(), Request{Date: date})
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	if resp.BucketID != geo.Global {
		t.Errorf("expected global bucket, got %q", resp.BucketID)
	}
	if resp.SnapshotDate != date {
		t.Errorf("expected snapshot date %q, got %q", date, resp.SnapshotDate)
	}
}

func TestBuildNotFound(t *testing.T) {
	db := openTestDB(t)
	lat, lng := 48.8566, 2.3522

	_, err := New(db).Build(context.Background(), Request{Lat: &lat, Lng: &lng, Date: "2026-08-31"})
	if !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestBuildRanksByCombinedScore(t *testing.T) {
	db := openTestDB(t)
	date := "2026-08-31"

	storeSnapshot(t, db, geo.Global, date, []topics.Topic{
		{ID: "a", LocationRelevance: ptr(10.0), TrendScore: ptr(5.0)},
		{ID: "b", TrendScore: ptr(20.0)},
	})

	// Without affinity, b (20) outranks a (15).
	resp, err := New(db).Build(context.Background(), Request{UserID: "u1", Date: date})
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	if resp.Topics[0].ID != "b" || resp.Topics[1].ID != "a" {
		t.Errorf("expected order [b a] without affinity, got [%s %s]", resp.Topics[0].ID, resp.Topics[1].ID)
	}

	// Affinity for a flips the order: 15 + 100 > 20.
	if err := db.AddScore("u1", "a", 100.0, "2026-08-31T10:00:00Z"); err != nil {
		t.Fatalf("AddScore failed: %v", err)
	}
	resp, err = New(db).Build(context.Background(), Request{UserID: "u1", Date: date})
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	if resp.Topics[0].ID != "a" || resp.Topics[1].ID != "b" {
		t.Errorf("expected order [a b] with affinity, got [%s %s]", resp.Topics[0].ID, resp.Topics[1].ID)
	}

	// Another user is unaffected by u1's scores.
	resp, err = New(db).Build(context.Background(), Request{UserID: "u2", Date: date})
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	if resp.Topics[0].ID != "b" {
		t.Errorf("expected u2's feed to be unaffected by u1's affinity, got %s first", resp.Topics[0].ID)
	}
}

func TestBuildRankingIsStable(t *testing.T) {
	db := openTestDB(t)
	date := "2026-08-31"

	storeSnapshot(t, db, geo.Global, date, []topics.Topic{
		{ID: "first", TrendScore: ptr(1.0)},
		{ID: "second", TrendScore: ptr(1.0)},
		{ID: "third", TrendScore: ptr(1.0)},
	})

	resp, err := New(db).Build(context.Background(), Request{Date: date})
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	got := []string{resp.Topics[0].ID, resp.Topics[1].ID, resp.Topics[2].ID}
	want := []string{"first", "second", "third"}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("expected tied topics in snapshot order %v, got %v", want, got)
			break
		}
	}
}

func TestBuildMissingScoresRankAsZero(t *testing.T) {
	db := openTestDB(t)
	date := "2026-08-31"

	storeSnapshot(t, db, geo.Global, date, []topics.Topic{
		{ID: "a"},
		{ID: "b", TrendScore: ptr(0.5)},
	})

	resp, err := New(db).Build(context.Background(), Request{Date: date})
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	if resp.Topics[0].ID != "b" {
		t.Errorf("expected topic with score 0.5 to outrank nil-scored topic, got %s first", resp.Topics[0].ID)
	}
}
