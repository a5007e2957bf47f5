package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync/atomic"
	"time"

	"github.com/indianpineappl/upto-date/internal/collect"
	"github.com/indianpineappl/upto-date/internal/config"
	"github.com/indianpineappl/upto-date/internal/database"
	"github.com/indianpineappl/upto-date/internal/fetch"
	"github.com/indianpineappl/upto-date/internal/geo"
	"github.com/indianpineappl/upto-date/internal/topics"
)

// maxRecentEvents bounds the engagement scan used for fanout selection.
const maxRecentEvents = 5000

// Result summarizes one ingestion run.
type Result struct {
	RunID        int64
	Date         string
	ItemsFetched int
	ItemsStored  int
	Buckets      []string
}

// runDetails is the JSON persisted in the run's details column.
type runDetails struct {
	ItemsFetched int      `json:"itemsFetched"`
	ItemsStored  int      `json:"itemsStored"`
	Buckets      []string `json:"buckets"`
	Error        string   `json:"error,omitempty"`
	// Buckets upserted before a mid-run failure keep their snapshots.
	UpsertedBeforeFailure []string `json:"upsertedBeforeFailure,omitempty"`
}

// Pipeline refreshes topic snapshots for the buckets with recent engagement.
// One run moves through running -> ok or running -> error; a failed run is
// rectified by the next scheduled run, not retried.
type Pipeline struct {
	cfg      *config.Config
	db       *database.DB
	source   collect.Source
	provider topics.Provider
	enricher *fetch.SnippetEnricher
	running  atomic.Bool
}

// New creates a pipeline from configuration.
func New(cfg *config.Config, db *database.DB) *Pipeline {
	summ := cfg.Summarization
	provider := topics.CreateProvider(
		summ.Provider,
		summ.Model,
		summ.OllamaURL,
		summ.OpenAIModel,
		summ.APIKeyEnv,
		summ.MaxTokens,
	)

	feeds := make([]collect.FeedConfig, len(cfg.Sources.Feeds))
	for i, f := range cfg.Sources.Feeds {
		feeds[i] = collect.FeedConfig{URL: f.URL, Name: f.Name}
	}

	p := &Pipeline{
		cfg:      cfg,
		db:       db,
		source:   collect.NewRSSSource(feeds),
		provider: provider,
	}
	if cfg.Ingest.EnrichSnippets {
		p.enricher = fetch.NewSnippetEnricher(0)
	}
	return p
}

// Run executes one ingestion run for today's UTC date.
func (p *Pipeline) Run(ctx context.Context) (*Result, error) {
	if !p.running.CompareAndSwap(false, true) {
		return nil, fmt.Errorf("ingestion already in progress")
	}
	defer p.running.Store(false)

	if p.provider == nil {
		return nil, fmt.Errorf("no summarization provider configured")
	}

	date := database.GetToday()
	runID, err := p.db.OpenRun()
	if err != nil {
		return nil, fmt.Errorf("opening run: %w", err)
	}

	result := &Result{RunID: runID, Date: date}
	log.Printf("Ingestion run %d started for %s", runID, date)

	targets, err := p.selectTargets()
	if err != nil {
		return result, p.fail(result, fmt.Errorf("selecting fanout targets: %w", err))
	}
	log.Printf("Fanout targets: %v", targets)

	items, err := p.source.Fetch(ctx, p.cfg.Ingest.MaxItems)
	if err != nil {
		return result, p.fail(result, fmt.Errorf("fetching items: %w", err))
	}
	result.ItemsFetched = len(items)

	if p.enricher != nil {
		p.enricher.Enrich(items, p.cfg.Ingest.MaxEnrich)
	}

	for _, item := range items {
		inserted, err := p.db.InsertItem(item)
		if err != nil {
			return result, p.fail(result, fmt.Errorf("storing item %s: %w", item.ID, err))
		}
		if inserted {
			result.ItemsStored++
		}
	}
	log.Printf("Stored %d new items (%d fetched)", result.ItemsStored, result.ItemsFetched)

	// Re-read from the store so every bucket sees the same canonical,
	// already-persisted item set.
	canonical, err := p.db.GetRecentItems(p.cfg.Ingest.MaxItems)
	if err != nil {
		return result, p.fail(result, fmt.Errorf("reading canonical items: %w", err))
	}

	timeout := time.Duration(p.cfg.Summarization.TimeoutSeconds) * time.Second
	for _, bucketID := range targets {
		if err := p.generateBucket(ctx, bucketID, date, canonical, timeout); err != nil {
			return result, p.fail(result, fmt.Errorf("generating bucket %s: %w", bucketID, err))
		}
		result.Buckets = append(result.Buckets, bucketID)
		log.Printf("Upserted snapshot for %s/%s", bucketID, date)
	}

	p.close(runID, "ok", runDetails{
		ItemsFetched: result.ItemsFetched,
		ItemsStored:  result.ItemsStored,
		Buckets:      result.Buckets,
	})
	log.Printf("Ingestion run %d finished: %d items, %d buckets", runID, result.ItemsStored, len(result.Buckets))
	return result, nil
}

// selectTargets returns the global bucket plus the top buckets by event
// count over the last 24 hours. The global bucket never competes in the
// ranking; it is always refreshed.
func (p *Pipeline) selectTargets() ([]string, error) {
	since := time.Now().UTC().Add(-24 * time.Hour).Format("2006-01-02 15:04:05")
	counts, err := p.db.CountEventsByBucket(since, maxRecentEvents)
	if err != nil {
		return nil, err
	}

	targets := []string{geo.Global}
	for _, c := range counts {
		if len(targets) > p.cfg.Ingest.TopBuckets {
			break
		}
		if c.BucketID == "" || c.BucketID == geo.Global {
			continue
		}
		targets = append(targets, c.BucketID)
	}
	return targets, nil
}

// generateBucket produces and stores one bucket's snapshot.
func (p *Pipeline) generateBucket(ctx context.Context, bucketID, date string, items []database.ContentItem, timeout time.Duration) error {
	var loc topics.LocationContext
	if lat, lng, ok := geo.ApproxCoords(bucketID); ok {
		loc.Latitude = &lat
		loc.Longitude = &lng
	}

	genCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	snapshot, err := p.provider.Generate(genCtx, loc, items)
	if err != nil {
		return err
	}
	if err := topics.Validate(snapshot); err != nil {
		return err
	}

	snapshot.BucketID = bucketID
	snapshot.SnapshotDate = date
	if snapshot.GeneratedAt == "" {
		snapshot.GeneratedAt = time.Now().UTC().Format(time.RFC3339)
	}

	data, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("encoding snapshot: %w", err)
	}
	return p.db.UpsertSnapshot(bucketID, date, string(data))
}

// fail closes the run as "error" and returns the original error. A failure
// to write the closing record is logged, never allowed to mask err.
func (p *Pipeline) fail(result *Result, err error) error {
	p.close(result.RunID, "error", runDetails{
		ItemsFetched:          result.ItemsFetched,
		ItemsStored:           result.ItemsStored,
		Error:                 err.Error(),
		UpsertedBeforeFailure: result.Buckets,
	})
	return err
}

func (p *Pipeline) close(runID int64, status string, details runDetails) {
	data, merr := json.Marshal(details)
	if merr != nil {
		data = []byte(fmt.Sprintf(`{"error":%q}`, merr.Error()))
	}
	if cerr := p.db.CloseRun(runID, status, string(data)); cerr != nil {
		log.Printf("Failed to close run %d as %s: %v", runID, status, cerr)
	}
}
