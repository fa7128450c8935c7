// Package research builds the web research brief that is embedded in the
// article prompt.
package research

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"contentforge/internal/search"

	"github.com/rs/zerolog"
)

// ErrNoResearch is returned when neither search nor the model produced
// anything usable.
var ErrNoResearch = errors.New("no research data available")

// TextSearcher is a backend that answers a query with free text, such as a
// model with grounded web search.
type TextSearcher interface {
	Search(ctx context.Context, query string) (string, error)
}

// Researcher turns a search term into a research brief. Structured search
// results are preferred; the text searcher is used when no search provider
// is configured or none of the queries returned anything.
type Researcher struct {
	search   search.Provider
	fallback TextSearcher
	config   search.Config
	year     int
	log      zerolog.Logger
}

// NewResearcher creates a researcher. Either backend may be nil.
func NewResearcher(provider search.Provider, fallback TextSearcher, year int, log zerolog.Logger) *Researcher {
	return &Researcher{
		search:   provider,
		fallback: fallback,
		config:   search.DefaultConfig(),
		year:     year,
		log:      log.With().Str("component", "research").Logger(),
	}
}

// WithConfig overrides the per-query search settings.
func (r *Researcher) WithConfig(cfg search.Config) *Researcher {
	r.config = cfg
	return r
}

// Brief researches term and returns the text to embed in the prompt.
func (r *Researcher) Brief(ctx context.Context, term string) (string, error) {
	term = strings.TrimSpace(term)
	if term == "" {
		return "", fmt.Errorf("%w: empty search term", ErrNoResearch)
	}

	if r.search != nil {
		results := r.collect(ctx, term)
		if len(results) > 0 {
			return FormatBrief(term, results), nil
		}
		if err := ctx.Err(); err != nil {
			return "", err
		}
	}

	if r.fallback == nil {
		return "", ErrNoResearch
	}

	r.log.Debug().Str("term", term).Msg("using model web search for research")
	text, err := r.fallback.Search(ctx, term)
	if err != nil {
		return "", fmt.Errorf("model web search failed: %w", err)
	}
	if strings.TrimSpace(text) == "" {
		return "", ErrNoResearch
	}
	return strings.TrimSpace(text), nil
}

// collect runs every query and keeps the first occurrence of each URL.
func (r *Researcher) collect(ctx context.Context, term string) []search.Result {
	var all []search.Result
	for _, query := range Queries(term, r.year) {
		if ctx.Err() != nil {
			break
		}
		results, err := r.search.Search(ctx, query, r.config)
		if err != nil {
			r.log.Warn().Err(err).Str("provider", r.search.GetName()).Str("query", query).Msg("search failed")
			continue
		}
		fresh := filterAndRank(results, all)
		r.log.Debug().Str("query", query).Int("new_results", len(fresh)).Msg("search completed")
		all = append(all, fresh...)
	}
	return all
}

// Queries returns the search queries issued for a term.
func Queries(term string, year int) []string {
	return []string{
		term,
		fmt.Sprintf("%s statistics %d", term, year),
		fmt.Sprintf("%s best practices", term),
	}
}

// filterAndRank removes URLs already collected and renumbers the rest.
func filterAndRank(newResults, existing []search.Result) []search.Result {
	seen := make(map[string]bool, len(existing))
	for _, result := range existing {
		seen[result.URL] = true
	}

	var filtered []search.Result
	for _, result := range newResults {
		if result.URL == "" || seen[result.URL] {
			continue
		}
		seen[result.URL] = true
		result.Rank = len(existing) + len(filtered) + 1
		filtered = append(filtered, result)
	}
	return filtered
}

// FormatBrief renders search results as the research section body.
func FormatBrief(term string, results []search.Result) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Web research for %q (%d sources):\n", term, len(results))
	for i, result := range results {
		fmt.Fprintf(&b, "\n%d. **%s**", i+1, strings.TrimSpace(result.Title))
		if result.Domain != "" {
			fmt.Fprintf(&b, " (%s)", result.Domain)
		}
		b.WriteString("\n")
		if snippet := strings.TrimSpace(result.Snippet); snippet != "" {
			fmt.Fprintf(&b, "   %s\n", snippet)
		}
		fmt.Fprintf(&b, "   Source: %s\n", result.URL)
	}

	return strings.TrimRight(b.String(), "\n")
}
