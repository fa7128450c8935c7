package search

import (
	"context"
	"fmt"
	"net/url"
	"strings"
)

// MockProvider serves offline results. Without SetResults each query yields
// a guide, a statistics page and a comparison built from the query, so
// research prompts stay realistic without network access.
type MockProvider struct {
	name    string
	results []Result
	err     error
	queries []string
}

// NewMockProvider creates a new mock search provider
func NewMockProvider() *MockProvider {
	return &MockProvider{name: "Mock"}
}

// GetName returns the name of this provider
func (m *MockProvider) GetName() string {
	return m.name
}

// Search records query and returns either the configured results or
// results derived from the query.
func (m *MockProvider) Search(ctx context.Context, query string, config Config) ([]Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.queries = append(m.queries, query)
	if m.err != nil {
		return nil, m.err
	}

	results := m.results
	if results == nil {
		results = synthesize(query)
	}
	if config.MaxResults > 0 && len(results) > config.MaxResults {
		results = results[:config.MaxResults]
	}
	return append([]Result(nil), results...), nil
}

func synthesize(query string) []Result {
	slug := url.PathEscape(strings.ReplaceAll(strings.ToLower(strings.TrimSpace(query)), " ", "-"))
	pages := []struct{ domain, path, title, snippet string }{
		{"guides.example", "guide", "The Complete Guide to %s", "Everything to know about %s, from the basics to advanced tips."},
		{"stats.example", "statistics", "%s: Key Statistics and Trends", "Recent figures and survey data on %s."},
		{"reviews.example", "compared", "%s Compared: What Actually Works", "A side-by-side look at the most common approaches to %s."},
	}

	results := make([]Result, len(pages))
	for i, p := range pages {
		results[i] = Result{
			URL:     fmt.Sprintf("https://%s/%s/%s", p.domain, p.path, slug),
			Title:   fmt.Sprintf(p.title, query),
			Snippet: fmt.Sprintf(p.snippet, query),
			Domain:  p.domain,
			Source:  "Mock",
			Rank:    i + 1,
		}
	}
	return results
}

// SetResults replaces the derived results with a fixed list.
func (m *MockProvider) SetResults(results []Result) {
	m.results = results
}

// SetName allows customization of provider name for testing
func (m *MockProvider) SetName(name string) {
	m.name = name
}

// SetError makes every subsequent Search fail with err.
func (m *MockProvider) SetError(err error) {
	m.err = err
}

// Queries returns the queries seen so far.
func (m *MockProvider) Queries() []string {
	return m.queries
}
