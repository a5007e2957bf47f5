package fetch

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/indianpineappl/upto-date/internal/database"
)

func ptr[T any](v T) *T {
	return &v
}

const articleHTML = `<!DOCTYPE html>
<html><head><title>Test Article</title></head>
<body><article>
<h1>Test Article</h1>
<p>The city council approved the new transit plan on Tuesday after months of debate.
Supporters say the plan will cut commute times across the region, while critics point
to the projected cost overruns. Construction is expected to begin early next year.</p>
<p>Officials said further public hearings would be scheduled before the final vote.</p>
</article></body></html>`

func TestEnrichFillsMissingSnippets(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(articleHTML))
	}))
	defer srv.Close()

	items := []database.ContentItem{
		{ID: "a", Title: "Has snippet", Snippet: ptr("already here"), URL: ptr(srv.URL + "/a")},
		{ID: "b", Title: "Needs snippet", URL: ptr(srv.URL + "/b")},
		{ID: "c", Title: "No url"},
	}

	result := NewSnippetEnricher(5 * time.Second).Enrich(items, 10)

	if result.Enriched != 1 {
		t.Errorf("expected 1 enriched, got %d", result.Enriched)
	}
	if result.Skipped != 1 {
		t.Errorf("expected 1 skipped, got %d", result.Skipped)
	}
	if *items[0].Snippet != "already here" {
		t.Errorf("expected existing snippet to be untouched, got %q", *items[0].Snippet)
	}
	if items[1].Snippet == nil {
		t.Fatal("expected snippet to be filled in")
	}
	if !strings.Contains(*items[1].Snippet, "transit plan") {
		t.Errorf("expected extracted article text, got %q", *items[1].Snippet)
	}
	if len(*items[1].Snippet) > maxSnippetLen {
		t.Errorf("expected snippet capped at %d chars, got %d", maxSnippetLen, len(*items[1].Snippet))
	}
	if items[2].Snippet != nil {
		t.Errorf("expected url-less item untouched, got %q", *items[2].Snippet)
	}
}

func TestEnrichRespectsMaxFetches(t *testing.T) {
	var hits int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(articleHTML))
	}))
	defer srv.Close()

	items := []database.ContentItem{
		{ID: "a", Title: "A", URL: ptr(srv.URL + "/a")},
		{ID: "b", Title: "B", URL: ptr(srv.URL + "/b")},
		{ID: "c", Title: "C", URL: ptr(srv.URL + "/c")},
	}

	result := NewSnippetEnricher(5 * time.Second).Enrich(items, 2)

	if hits != 2 {
		t.Errorf("expected 2 fetches, got %d", hits)
	}
	if result.Enriched != 2 {
		t.Errorf("expected 2 enriched, got %d", result.Enriched)
	}
	if items[2].Snippet != nil {
		t.Error("expected third item to be left alone once the fetch budget is spent")
	}
}

func TestEnrichSkipsFailedDomains(t *testing.T) {
	var hits int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		http.Error(w, "nope", http.StatusForbidden)
	}))
	defer srv.Close()

	items := []database.ContentItem{
		{ID: "a", Title: "A", URL: ptr(srv.URL + "/a")},
		{ID: "b", Title: "B", URL: ptr(srv.URL + "/b")},
	}

	result := NewSnippetEnricher(5 * time.Second).Enrich(items, 10)

	// The first failure marks the domain; the second item is never attempted.
	if hits != 1 {
		t.Errorf("expected 1 fetch against a failing domain, got %d", hits)
	}
	if result.Failed != 1 {
		t.Errorf("expected 1 failed, got %d", result.Failed)
	}
	if result.Skipped != 1 {
		t.Errorf("expected 1 skipped, got %d", result.Skipped)
	}
}
