package search

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"
)

// Provider defines the unified interface for web search backends used by
// article research.
type Provider interface {
	// Search performs a search with configuration
	Search(ctx context.Context, query string, config Config) ([]Result, error)

	// GetName returns the name of the search provider
	GetName() string
}

// Config holds configuration for search requests
type Config struct {
	MaxResults int           // Maximum number of results to return
	SinceTime  time.Duration // Only return results newer than this duration
	Language   string        // Language preference (e.g., "en", "es")
}

// DefaultConfig returns the request settings research uses.
func DefaultConfig() Config {
	return Config{MaxResults: 8, Language: "en"}
}

// Result represents a unified search result
type Result struct {
	URL         string    `json:"url"`
	Title       string    `json:"title"`
	Snippet     string    `json:"snippet"`
	Domain      string    `json:"domain"`
	PublishedAt time.Time `json:"published_at,omitempty"`
	Source      string    `json:"source"` // Provider-specific source identifier
	Rank        int       `json:"rank"`   // Position in search results
}

// ProviderType represents the type of search provider
type ProviderType string

const (
	ProviderTypeDuckDuckGo ProviderType = "duckduckgo"
	ProviderTypeGoogle     ProviderType = "google"
	ProviderTypeSerpAPI    ProviderType = "serpapi"
	ProviderTypeMock       ProviderType = "mock"
)

// ProviderFactory creates search providers based on type and configuration
type ProviderFactory struct{}

// NewProviderFactory creates a new provider factory
func NewProviderFactory() *ProviderFactory {
	return &ProviderFactory{}
}

// CreateProvider creates a search provider of the specified type. Recognised
// config keys are api_key, search_id and base_url.
func (f *ProviderFactory) CreateProvider(ctx context.Context, providerType ProviderType, config map[string]string) (Provider, error) {
	switch providerType {
	case ProviderTypeDuckDuckGo:
		p := NewDuckDuckGoProvider()
		if base := config["base_url"]; base != "" {
			p.baseURL = base
		}
		return p, nil
	case ProviderTypeGoogle:
		apiKey := config["api_key"]
		if apiKey == "" {
			return nil, ErrMissingAPIKey
		}
		searchID := config["search_id"]
		if searchID == "" {
			return nil, ErrMissingSearchID
		}
		return NewGoogleProvider(ctx, apiKey, searchID, config["base_url"])
	case ProviderTypeSerpAPI:
		apiKey := config["api_key"]
		if apiKey == "" {
			return nil, ErrMissingAPIKey
		}
		p := NewSerpAPIProvider(apiKey)
		if base := config["base_url"]; base != "" {
			p.baseURL = base
		}
		return p, nil
	case ProviderTypeMock:
		return NewMockProvider(), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedProvider, providerType)
	}
}

// GetAvailableProviders returns a list of available provider types
func (f *ProviderFactory) GetAvailableProviders() []ProviderType {
	return []ProviderType{
		ProviderTypeDuckDuckGo,
		ProviderTypeGoogle,
		ProviderTypeSerpAPI,
		ProviderTypeMock,
	}
}

// extractDomain returns the host of urlStr without a leading "www.".
func extractDomain(urlStr string) string {
	parsed, err := url.Parse(urlStr)
	if err != nil {
		return ""
	}
	return strings.TrimPrefix(parsed.Hostname(), "www.")
}

// recency buckets a SinceTime window into day, week, month or year.
func recency(since time.Duration) string {
	if since <= 0 {
		return ""
	}
	days := int(since.Hours() / 24)
	switch {
	case days <= 1:
		return "d"
	case days <= 7:
		return "w"
	case days <= 30:
		return "m"
	case days <= 365:
		return "y"
	}
	return ""
}
