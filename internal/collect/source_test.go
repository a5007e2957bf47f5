package collect

import (
	"strings"
	"testing"
	"time"

	"github.com/mmcdole/gofeed"
)

func TestItemID(t *testing.T) {
	a := ItemID("nyt", "Breaking news headline")
	b := ItemID("nyt", "Breaking news headline")
	if a != b {
		t.Errorf("ItemID not stable: %q vs %q", a, b)
	}

	if !strings.HasPrefix(a, "rss:nyt:") {
		t.Errorf("expected rss:nyt: prefix, got %q", a)
	}

	if c := ItemID("bbc", "Breaking news headline"); c == a {
		t.Errorf("expected different sources to yield different ids, got %q twice", c)
	}
	if d := ItemID("nyt", "A different headline"); d == a {
		t.Errorf("expected different titles to yield different ids, got %q twice", d)
	}

	// Short titles produce digests shorter than the cap.
	short := ItemID("nyt", "Hi")
	if len(short) >= len("rss:nyt:")+13 {
		t.Errorf("expected digest capped at 12 chars, got %q", short)
	}
}

func TestParseItem(t *testing.T) {
	published := time.Date(2026, 8, 31, 5, 30, 0, 0, time.UTC)
	it := &gofeed.Item{
		Title:           "  Title with padding  ",
		Link:            "https://example.com/story",
		Description:     "A short teaser.",
		PublishedParsed: &published,
	}

	item := parseItem(it, "nyt")
	if item == nil {
		t.Fatal("expected item, got nil")
	}
	if item.Title != "Title with padding" {
		t.Errorf("expected trimmed title, got %q", item.Title)
	}
	if item.SourceName != "nyt" {
		t.Errorf("expected source nyt, got %q", item.SourceName)
	}
	if item.URL == nil || *item.URL != "https://example.com/story" {
		t.Errorf("expected url to be set, got %v", item.URL)
	}
	if item.PublishedAt == nil || *item.PublishedAt != "2026-08-31T05:30:00Z" {
		t.Errorf("expected RFC3339 published_at, got %v", item.PublishedAt)
	}
	if item.Snippet == nil || *item.Snippet != "A short teaser." {
		t.Errorf("expected snippet to be set, got %v", item.Snippet)
	}
}

func TestParseItemSkipsEmptyTitle(t *testing.T) {
	if item := parseItem(&gofeed.Item{Title: "   "}, "nyt"); item != nil {
		t.Errorf("expected nil for blank title, got %+v", item)
	}
}

func TestParseItemOmitsEmptyFields(t *testing.T) {
	item := parseItem(&gofeed.Item{Title: "Bare"}, "nyt")
	if item == nil {
		t.Fatal("expected item, got nil")
	}
	if item.URL != nil {
		t.Errorf("expected nil url, got %v", *item.URL)
	}
	if item.PublishedAt != nil {
		t.Errorf("expected nil published_at, got %v", *item.PublishedAt)
	}
	if item.Snippet != nil {
		t.Errorf("expected nil snippet, got %v", *item.Snippet)
	}
}
