// Package search provides the live web-search capability backed by
// SerpAPI.
package search

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/ragchatbot/server/internal/core"
)

const defaultEndpoint = "https://serpapi.com/search.json"

// SerpAPIClient queries SerpAPI's Google engine. Search fails when no
// API key is configured; the pipeline tolerates that silently.
type SerpAPIClient struct {
	apiKey   string
	endpoint string
	client   *http.Client
}

func NewSerpAPIClient(apiKey string) *SerpAPIClient {
	return &SerpAPIClient{
		apiKey:   apiKey,
		endpoint: defaultEndpoint,
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

type serpAPIResponse struct {
	OrganicResults []organicResult `json:"organic_results"`
}

type organicResult struct {
	Title   string `json:"title"`
	Link    string `json:"link"`
	Snippet string `json:"snippet"`
}

// Search returns up to num web results as passages, each carrying its
// result URL as the source and the snippet as the content.
func (c *SerpAPIClient) Search(ctx context.Context, query string, num int) ([]core.Passage, error) {
	if c.apiKey == "" {
		return nil, fmt.Errorf("SERPAPI_API_KEY not configured")
	}

	params := url.Values{}
	params.Set("q", query)
	params.Set("api_key", c.apiKey)
	params.Set("engine", "google")
	params.Set("num", strconv.Itoa(num))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build search request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("search request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("search request returned status %d", resp.StatusCode)
	}

	var parsed serpAPIResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("failed to decode search response: %w", err)
	}

	results := parsed.OrganicResults
	if len(results) > num {
		results = results[:num]
	}

	passages := make([]core.Passage, 0, len(results))
	for _, r := range results {
		p := core.Passage{Content: r.Snippet}
		if r.Link != "" {
			link := r.Link
			p.Source = &link
		}
		passages = append(passages, p)
	}
	return passages, nil
}
