package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"contentforge/internal/core"
)

// SaveInternalLinks stores links, skipping URLs already present. It
// returns how many were new.
func (s *Store) SaveInternalLinks(ctx context.Context, links []core.InternalLink) (int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `
	INSERT OR IGNORE INTO internal_links
	(url, title, excerpt, keywords, sitemap_url, last_updated, created_at)
	VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return 0, fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	now := time.Now().UTC()
	imported := 0
	for _, link := range links {
		keywords := link.Keywords
		if keywords == nil {
			keywords = []string{}
		}
		kw, _ := json.Marshal(keywords)

		res, err := stmt.ExecContext(ctx, link.URL, link.Title, link.Excerpt, string(kw), link.SitemapURL, link.LastUpdated, now)
		if err != nil {
			return 0, fmt.Errorf("failed to save internal link %s: %w", link.URL, err)
		}
		if n, _ := res.RowsAffected(); n > 0 {
			imported++
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit internal links: %w", err)
	}
	return imported, nil
}

// ListInternalLinks returns every stored link in insertion order.
func (s *Store) ListInternalLinks(ctx context.Context) ([]core.InternalLink, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT url, title, excerpt, keywords, sitemap_url, last_updated FROM internal_links ORDER BY created_at, rowid`)
	if err != nil {
		return nil, fmt.Errorf("failed to list internal links: %w", err)
	}
	defer func() { _ = rows.Close() }()

	links := []core.InternalLink{}
	for rows.Next() {
		var link core.InternalLink
		var keywords string
		if err := rows.Scan(&link.URL, &link.Title, &link.Excerpt, &keywords, &link.SitemapURL, &link.LastUpdated); err != nil {
			return nil, fmt.Errorf("failed to scan internal link: %w", err)
		}
		if err := json.Unmarshal([]byte(keywords), &link.Keywords); err != nil {
			link.Keywords = []string{}
		}
		links = append(links, link)
	}
	return links, rows.Err()
}

// DeleteInternalLinks removes every link imported from sitemapURL, or all
// links when sitemapURL is empty.
func (s *Store) DeleteInternalLinks(ctx context.Context, sitemapURL string) (int, error) {
	query, args := `DELETE FROM internal_links`, []any{}
	if sitemapURL != "" {
		query += ` WHERE sitemap_url = ?`
		args = append(args, sitemapURL)
	}
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("failed to delete internal links: %w", err)
	}
	n, _ := res.RowsAffected()
	return int(n), nil
}
