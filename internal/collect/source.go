package collect

import (
	"context"
	"encoding/base64"
	"log"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"

	"github.com/indianpineappl/upto-date/internal/database"
)

// Source produces a bounded list of raw content items on demand.
// Fetching is best effort: partial results are acceptable.
type Source interface {
	Fetch(ctx context.Context, maxItems int) ([]database.ContentItem, error)
}

// FeedConfig represents a single feed configuration.
type FeedConfig struct {
	URL  string
	Name string
}

// RSSSource pulls content items from a set of RSS/Atom feeds.
// A failing feed is skipped; the remaining feeds still contribute items.
type RSSSource struct {
	feeds  []FeedConfig
	parser *gofeed.Parser
}

// NewRSSSource creates a new RSS content source.
func NewRSSSource(feeds []FeedConfig) *RSSSource {
	return &RSSSource{feeds: feeds, parser: gofeed.NewParser()}
}

// Fetch parses all configured feeds and returns at most maxItems items.
func (s *RSSSource) Fetch(ctx context.Context, maxItems int) ([]database.ContentItem, error) {
	var items []database.ContentItem

	for _, fc := range s.feeds {
		if len(items) >= maxItems {
			break
		}

		feed, err := s.parser.ParseURLWithContext(fc.URL, ctx)
		if err != nil {
			log.Printf("Failed to parse feed %s: %v", fc.URL, err)
			continue
		}

		before := len(items)
		for _, it := range feed.Items {
			if len(items) >= maxItems {
				break
			}
			item := parseItem(it, fc.Name)
			if item == nil {
				continue
			}
			items = append(items, *item)
		}
		log.Printf("Parsed %d items from %s", len(items)-before, fc.Name)
	}

	return items, nil
}

func parseItem(it *gofeed.Item, source string) *database.ContentItem {
	title := strings.TrimSpace(it.Title)
	if title == "" {
		return nil
	}

	item := &database.ContentItem{
		ID:         ItemID(source, title),
		SourceName: source,
		Title:      title,
	}

	if link := strings.TrimSpace(it.Link); link != "" {
		item.URL = &link
	}
	if it.PublishedParsed != nil {
		ts := it.PublishedParsed.UTC().Format(time.RFC3339)
		item.PublishedAt = &ts
	}
	if snippet := strings.TrimSpace(it.Description); snippet != "" {
		item.Snippet = &snippet
	}

	return item
}

// ItemID derives a stable item id from source name and title. The id embeds
// a short digest of the title only, so two distinct articles sharing a title
// within one source collide and the later one is dropped as a duplicate.
func ItemID(source, title string) string {
	digest := base64.StdEncoding.EncodeToString([]byte(title))
	if len(digest) > 12 {
		digest = digest[:12]
	}
	return "rss:" + source + ":" + digest
}
