package services

import (
	"context"
	"time"

	"contentforge/internal/config"
	"contentforge/internal/core"
	"contentforge/internal/fetch"
	"contentforge/internal/sitemap"
)

// ImportResult summarizes a sitemap import.
type ImportResult struct {
	Found int `json:"found"`
	Added int `json:"added"`
}

// ImportSitemap fetches a sitemap and stores its pages as internal links.
// Pages already in the library are kept as they are.
func (s *ArticleService) ImportSitemap(ctx context.Context, sitemapURL string) (*ImportResult, error) {
	client := fetch.NewClient(config.Duration(s.cfg.Research.FetchTimeout, 20*time.Second))
	links, err := sitemap.NewImporter(client, s.cfg.Sitemap.BatchSize, s.log).Import(ctx, sitemapURL)
	if err != nil {
		return nil, err
	}

	added, err := s.lib.SaveInternalLinks(ctx, links)
	if err != nil {
		return nil, err
	}
	return &ImportResult{Found: len(links), Added: added}, nil
}

// SearchLinks ranks stored internal links against query. An empty query
// lists the first limit links.
func (s *ArticleService) SearchLinks(ctx context.Context, query string, limit int) ([]core.InternalLink, error) {
	links, err := s.lib.ListInternalLinks(ctx)
	if err != nil {
		return nil, err
	}
	if query == "" {
		if limit > 0 && len(links) > limit {
			links = links[:limit]
		}
		return links, nil
	}
	return sitemap.Search(links, query, limit), nil
}
