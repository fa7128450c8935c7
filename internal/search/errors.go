package search

import "errors"

var (
	// ErrMissingAPIKey is returned when a provider that needs a key has none.
	ErrMissingAPIKey = errors.New("API key is required")
	// ErrMissingSearchID is returned when Google Custom Search has no engine ID.
	ErrMissingSearchID = errors.New("search ID is required")
	// ErrUnsupportedProvider is returned for an unknown provider type.
	ErrUnsupportedProvider = errors.New("unsupported search provider")
	// ErrNoResults is returned when a query matched nothing.
	ErrNoResults = errors.New("no search results found")
	// ErrBlocked is returned when the search engine served a CAPTCHA page.
	ErrBlocked = errors.New("search blocked by CAPTCHA")
)
