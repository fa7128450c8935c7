package search

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/tidwall/gjson"
)

const serpAPIURL = "https://serpapi.com/search"

// SerpAPIProvider implements Provider using SerpAPI (premium option)
type SerpAPIProvider struct {
	apiKey  string
	baseURL string
	client  *http.Client
}

// NewSerpAPIProvider creates a new SerpAPI search provider
func NewSerpAPIProvider(apiKey string) *SerpAPIProvider {
	return &SerpAPIProvider{
		apiKey:  apiKey,
		baseURL: serpAPIURL,
		client:  &http.Client{Timeout: 30 * time.Second},
	}
}

// GetName returns the name of this provider
func (s *SerpAPIProvider) GetName() string {
	return "SerpAPI"
}

// Search performs a search using SerpAPI
func (s *SerpAPIProvider) Search(ctx context.Context, query string, config Config) ([]Result, error) {
	params := url.Values{}
	params.Set("q", query)
	params.Set("engine", "google")
	params.Set("api_key", s.apiKey)
	if config.MaxResults > 0 {
		params.Set("num", strconv.Itoa(config.MaxResults))
	}
	if config.Language != "" {
		params.Set("hl", config.Language)
	}
	if r := recency(config.SinceTime); r != "" {
		params.Set("tbs", "qdr:"+r)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create SerpAPI request: %w", err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute SerpAPI request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read SerpAPI response: %w", err)
	}

	doc := gjson.ParseBytes(body)
	if msg := doc.Get("error").String(); msg != "" {
		return nil, fmt.Errorf("SerpAPI error (%d): %s", resp.StatusCode, msg)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("SerpAPI request failed with status: %d", resp.StatusCode)
	}

	var results []Result
	doc.Get("organic_results").ForEach(func(_, item gjson.Result) bool {
		link := item.Get("link").String()
		if link == "" {
			return true
		}
		rank := int(item.Get("position").Int())
		if rank == 0 {
			rank = len(results) + 1
		}
		r := Result{
			URL:     link,
			Title:   item.Get("title").String(),
			Snippet: item.Get("snippet").String(),
			Domain:  extractDomain(link),
			Source:  "SerpAPI",
			Rank:    rank,
		}
		if date := item.Get("date").String(); date != "" {
			if t, err := time.Parse("Jan 2, 2006", date); err == nil {
				r.PublishedAt = t
			}
		}
		results = append(results, r)
		return config.MaxResults <= 0 || len(results) < config.MaxResults
	})

	return results, nil
}
