package search

import (
	"context"
	"errors"
	"fmt"

	"google.golang.org/api/customsearch/v1"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

// GoogleProvider implements Provider using the Google Custom Search JSON API
type GoogleProvider struct {
	service  *customsearch.Service
	searchID string
}

// NewGoogleProvider creates a new Google Custom Search provider. endpoint
// overrides the API base URL when non-empty.
func NewGoogleProvider(ctx context.Context, apiKey, searchID, endpoint string) (*GoogleProvider, error) {
	opts := []option.ClientOption{option.WithAPIKey(apiKey)}
	if endpoint != "" {
		opts = append(opts, option.WithEndpoint(endpoint))
	}

	service, err := customsearch.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create custom search service: %w", err)
	}

	return &GoogleProvider{service: service, searchID: searchID}, nil
}

// GetName returns the name of this provider
func (g *GoogleProvider) GetName() string {
	return "Google Custom Search"
}

// Search performs a search using Google Custom Search API
func (g *GoogleProvider) Search(ctx context.Context, query string, config Config) ([]Result, error) {
	num := config.MaxResults
	if num <= 0 || num > 10 {
		num = 10 // the API caps a page at ten results
	}

	call := g.service.Cse.List().Cx(g.searchID).Q(query).Num(int64(num))
	if r := recency(config.SinceTime); r != "" {
		call = call.DateRestrict(r + "1")
	}
	if config.Language != "" {
		call = call.Lr("lang_" + config.Language)
	}

	resp, err := call.Context(ctx).Do()
	if err != nil {
		var apiErr *googleapi.Error
		if errors.As(err, &apiErr) {
			return nil, fmt.Errorf("google CSE API error (%d): %s", apiErr.Code, apiErr.Message)
		}
		return nil, fmt.Errorf("google CSE request failed: %w", err)
	}

	results := make([]Result, 0, len(resp.Items))
	for i, item := range resp.Items {
		results = append(results, Result{
			URL:     item.Link,
			Title:   item.Title,
			Snippet: item.Snippet,
			Domain:  extractDomain(item.Link),
			Source:  "Google",
			Rank:    i + 1,
		})
	}

	return results, nil
}
