package topics

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/indianpineappl/upto-date/internal/apperr"
	"github.com/indianpineappl/upto-date/internal/database"
)

// Provider is the interface for summarization providers. Generate turns a
// location context and a set of raw items into a topic snapshot.
type Provider interface {
	Generate(ctx context.Context, loc LocationContext, items []database.ContentItem) (*Snapshot, error)
	IsConfigured() bool
}

const systemPrompt = "You are an assistant for the 'Upto Date' app. Convert RAW_ITEMS into a ranked daily feed. " +
	"Return ONLY valid JSON (no markdown). Output must match this schema exactly: " +
	"{generatedAt: string, locationContext: {city: string|null, country: string|null, latitude: number|null, longitude: number|null}, " +
	"topics: Array<{id: string, title: string, summary: string, source?: string, trendScore?: number|null, locationRelevance?: number, " +
	"supportingItemIds: string[], subTopics: Array<{id: string, title: string, summary: string, supportingItemIds: string[]}>}>}. " +
	"Ensure ids are stable strings, unique within the response."

// promptItem is the wire shape of a raw item inside the user prompt.
type promptItem struct {
	ID          string  `json:"id"`
	SourceName  string  `json:"source_name"`
	Title       string  `json:"title"`
	Snippet     *string `json:"snippet"`
	URL         *string `json:"url"`
	PublishedAt *string `json:"published_at"`
}

func buildUserPrompt(loc LocationContext, items []database.ContentItem) (string, error) {
	raw := make([]promptItem, len(items))
	for i, it := range items {
		raw[i] = promptItem{
			ID:          it.ID,
			SourceName:  it.SourceName,
			Title:       it.Title,
			Snippet:     it.Snippet,
			URL:         it.URL,
			PublishedAt: it.PublishedAt,
		}
	}

	payload, err := json.MarshalIndent(map[string]any{
		"locationContext": loc,
		"rawItems":        raw,
	}, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshaling prompt: %w", err)
	}
	return string(payload), nil
}

// OpenAIProvider generates snapshots via the OpenAI chat completions API.
type OpenAIProvider struct {
	Model     string
	APIKey    string
	MaxTokens int
	client    *http.Client
}

// NewOpenAIProvider creates a new OpenAI provider.
func NewOpenAIProvider(model, apiKeyEnv string, maxTokens int) *OpenAIProvider {
	return &OpenAIProvider{
		Model:     model,
		APIKey:    os.Getenv(apiKeyEnv),
		MaxTokens: maxTokens,
		client:    &http.Client{Timeout: 120 * time.Second},
	}
}

// IsConfigured checks if the API key is set.
func (o *OpenAIProvider) IsConfigured() bool {
	return o.APIKey != ""
}

// Generate sends the items to OpenAI and parses the snapshot response.
func (o *OpenAIProvider) Generate(ctx context.Context, loc LocationContext, items []database.ContentItem) (*Snapshot, error) {
	if o.APIKey == "" {
		return nil, &apperr.UpstreamError{Op: "openai", Err: fmt.Errorf("API key not configured")}
	}

	user, err := buildUserPrompt(loc, items)
	if err != nil {
		return nil, err
	}

	body := map[string]any{
		"model": o.Model,
		"messages": []map[string]string{
			{"role": "system", "content": systemPrompt},
			{"role": "user", "content": user},
		},
		"max_tokens":  o.MaxTokens,
		"temperature": 0.4,
	}

	data, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", "https://api.openai.com/v1/chat/completions", bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+o.APIKey)

	resp, err := o.client.Do(req)
	if err != nil {
		return nil, &apperr.UpstreamError{Op: "openai", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return nil, &apperr.UpstreamError{Op: "openai", StatusCode: resp.StatusCode, Body: string(respBody)}
	}

	var result struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, &apperr.UpstreamError{Op: "openai", Err: fmt.Errorf("decoding response: %w", err)}
	}
	if len(result.Choices) == 0 {
		return nil, &apperr.SchemaError{Reason: "no choices in response"}
	}

	return parseSnapshot(result.Choices[0].Message.Content)
}

// OllamaProvider generates snapshots via a local Ollama instance.
type OllamaProvider struct {
	Model   string
	BaseURL string
	client  *http.Client
}

// NewOllamaProvider creates a new Ollama provider.
func NewOllamaProvider(model, baseURL string) *OllamaProvider {
	return &OllamaProvider{
		Model:   model,
		BaseURL: baseURL,
		client:  &http.Client{Timeout: 120 * time.Second},
	}
}

// IsConfigured checks if Ollama is running and the model is available.
func (o *OllamaProvider) IsConfigured() bool {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, "GET", o.BaseURL+"/api/tags", nil)
	if err != nil {
		return false
	}

	resp, err := o.client.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return false
	}

	var result struct {
		Models []struct {
			Name string `json:"name"`
		} `json:"models"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return false
	}

	modelBase := strings.SplitN(o.Model, ":", 2)[0]
	for _, m := range result.Models {
		if strings.Contains(m.Name, modelBase) {
			return true
		}
	}
	log.Printf("Ollama model %q not found", o.Model)
	return false
}

// Generate sends the items to Ollama and parses the snapshot response.
func (o *OllamaProvider) Generate(ctx context.Context, loc LocationContext, items []database.ContentItem) (*Snapshot, error) {
	user, err := buildUserPrompt(loc, items)
	if err != nil {
		return nil, err
	}

	body := map[string]any{
		"model": o.Model,
		"messages": []map[string]string{
			{"role": "system", "content": systemPrompt},
			{"role": "user", "content": user},
		},
		"stream": false,
		"options": map[string]any{
			"temperature": 0.4,
		},
	}

	data, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", o.BaseURL+"/api/chat", bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := o.client.Do(req)
	if err != nil {
		return nil, &apperr.UpstreamError{Op: "ollama", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return nil, &apperr.UpstreamError{Op: "ollama", StatusCode: resp.StatusCode, Body: string(respBody)}
	}

	var result struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, &apperr.UpstreamError{Op: "ollama", Err: fmt.Errorf("decoding response: %w", err)}
	}

	return parseSnapshot(result.Message.Content)
}

// CreateProvider creates a summarization provider based on configuration.
func CreateProvider(provider, model, ollamaURL, openaiModel, apiKeyEnv string, maxTokens int) Provider {
	if strings.ToLower(provider) == "ollama" {
		p := NewOllamaProvider(model, ollamaURL)
		if p.IsConfigured() {
			log.Printf("Using Ollama with model: %s", model)
			return p
		}
		log.Println("Ollama not available, trying OpenAI fallback...")
	}

	p := NewOpenAIProvider(openaiModel, apiKeyEnv, maxTokens)
	if p.IsConfigured() {
		log.Printf("Using OpenAI with model: %s", openaiModel)
		return p
	}

	log.Println("No summarization provider available. Check Ollama is running or set OPENAI_API_KEY.")
	return nil
}
