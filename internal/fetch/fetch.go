package fetch

import (
	"fmt"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	readability "github.com/go-shiori/go-readability"

	"github.com/indianpineappl/upto-date/internal/database"
)

const maxSnippetLen = 600

// Result holds the results of a snippet enrichment pass.
type Result struct {
	Enriched int
	Skipped  int
	Failed   int
}

// SnippetEnricher fills in missing snippets by fetching the item's page and
// extracting readable text. It runs on items before they are persisted, so
// stored items stay immutable.
type SnippetEnricher struct {
	client *http.Client
}

// NewSnippetEnricher creates a new snippet enricher.
func NewSnippetEnricher(timeout time.Duration) *SnippetEnricher {
	if timeout == 0 {
		timeout = 15 * time.Second
	}
	return &SnippetEnricher{
		client: &http.Client{
			Timeout: timeout,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 10 {
					return http.ErrUseLastResponse
				}
				return nil
			},
		},
	}
}

// Enrich fetches snippets for up to maxFetches items that lack one,
// mutating the slice in place. Fetch failures are logged and skipped; once a
// domain fails, remaining items from that domain are not attempted.
func (e *SnippetEnricher) Enrich(items []database.ContentItem, maxFetches int) *Result {
	result := &Result{}
	failedDomains := make(map[string]struct{})
	fetches := 0

	for i := range items {
		if fetches >= maxFetches {
			break
		}
		item := &items[i]
		if item.Snippet != nil && *item.Snippet != "" {
			continue
		}
		if item.URL == nil || *item.URL == "" {
			result.Skipped++
			continue
		}

		u, _ := url.Parse(*item.URL)
		domain := ""
		if u != nil {
			domain = strings.ToLower(u.Host)
		}
		if _, failed := failedDomains[domain]; failed {
			result.Skipped++
			continue
		}

		fetches++
		snippet, err := e.fetchSnippet(*item.URL)
		if err != nil || snippet == "" {
			result.Failed++
			if domain != "" {
				failedDomains[domain] = struct{}{}
			}
			log.Printf("No extractable snippet from %s, skipping remaining from %s", *item.URL, domain)
			continue
		}

		item.Snippet = &snippet
		result.Enriched++
	}

	if result.Enriched > 0 || result.Failed > 0 {
		log.Printf("Snippet enrichment: %d enriched, %d failed, %d skipped",
			result.Enriched, result.Failed, result.Skipped)
	}
	return result
}

func (e *SnippetEnricher) fetchSnippet(itemURL string) (string, error) {
	req, err := http.NewRequest("GET", itemURL, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("User-Agent", "uptodate/1.0 (feed aggregator)")

	resp, err := e.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return "", fmt.Errorf("status %d", resp.StatusCode)
	}

	parsed, err := url.Parse(itemURL)
	if err != nil {
		return "", err
	}

	article, err := readability.FromReader(resp.Body, parsed)
	if err != nil {
		return "", err
	}

	text := strings.TrimSpace(article.TextContent)
	if text == "" {
		return "", nil
	}

	fields := strings.Fields(text)
	text = strings.Join(fields, " ")
	if len(text) > maxSnippetLen {
		text = text[:maxSnippetLen]
	}
	return text, nil
}
