// Package sitemap imports a site's pages as internal link candidates and
// ranks them against a keyword.
package sitemap

import (
	"bytes"
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"time"

	"contentforge/internal/core"
	"contentforge/internal/fetch"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// DefaultBatchSize bounds concurrent page metadata fetches.
const DefaultBatchSize = 10

// ErrEmptySitemap is returned when a sitemap lists no URLs.
var ErrEmptySitemap = errors.New("sitemap contains no URLs")

var nonPage = regexp.MustCompile(`(?i)\.(jpe?g|png|gif|webp|svg|pdf|xml)$`)

// Entry is one <url> or <sitemap> element.
type Entry struct {
	Loc     string `xml:"loc"`
	LastMod string `xml:"lastmod"`
}

type document struct {
	XMLName  xml.Name
	URLs     []Entry `xml:"url"`
	Sitemaps []Entry `xml:"sitemap"`
}

// Parse reads a urlset or sitemapindex document. For an index the child
// sitemap locations are returned with isIndex set.
func Parse(data []byte) (entries []Entry, isIndex bool, err error) {
	var doc document
	if err := xml.NewDecoder(bytes.NewReader(data)).Decode(&doc); err != nil {
		return nil, false, fmt.Errorf("failed to parse sitemap: %w", err)
	}

	switch {
	case len(doc.URLs) > 0:
		entries = doc.URLs
	case len(doc.Sitemaps) > 0:
		entries, isIndex = doc.Sitemaps, true
	}

	var cleaned []Entry
	for _, e := range entries {
		e.Loc = strings.TrimSpace(e.Loc)
		e.LastMod = strings.TrimSpace(e.LastMod)
		if e.Loc != "" {
			cleaned = append(cleaned, e)
		}
	}
	return cleaned, isIndex, nil
}

// Importer turns a sitemap into internal links.
type Importer struct {
	client    *fetch.Client
	batchSize int
	log       zerolog.Logger
}

// NewImporter creates an importer. A non-positive batchSize uses
// DefaultBatchSize.
func NewImporter(client *fetch.Client, batchSize int, log zerolog.Logger) *Importer {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	return &Importer{
		client:    client,
		batchSize: batchSize,
		log:       log.With().Str("component", "sitemap").Logger(),
	}
}

// Entries fetches sitemapURL and returns page entries, following one level
// of sitemap index. Child sitemaps that fail are logged and skipped.
func (im *Importer) Entries(ctx context.Context, sitemapURL string) ([]Entry, error) {
	entries, isIndex, err := im.load(ctx, sitemapURL)
	if err != nil {
		return nil, err
	}

	if isIndex {
		var pages []Entry
		for _, child := range entries {
			childEntries, _, err := im.load(ctx, child.Loc)
			if err != nil {
				im.log.Warn().Err(err).Str("sitemap", child.Loc).Msg("child sitemap skipped")
				continue
			}
			pages = append(pages, childEntries...)
		}
		entries = pages
	}

	seen := make(map[string]bool)
	var pages []Entry
	for _, e := range entries {
		if nonPage.MatchString(e.Loc) || seen[e.Loc] {
			continue
		}
		seen[e.Loc] = true
		pages = append(pages, e)
	}

	if len(pages) == 0 {
		return nil, ErrEmptySitemap
	}
	return pages, nil
}

func (im *Importer) load(ctx context.Context, u string) ([]Entry, bool, error) {
	body, err := im.client.Get(ctx, u)
	if err != nil {
		return nil, false, err
	}
	return Parse(body)
}

// Import fetches every page listed in the sitemap and returns it as an
// internal link. Pages whose metadata cannot be fetched keep their URL as
// the title.
func (im *Importer) Import(ctx context.Context, sitemapURL string) ([]core.InternalLink, error) {
	entries, err := im.Entries(ctx, sitemapURL)
	if err != nil {
		return nil, err
	}

	links := make([]core.InternalLink, len(entries))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(im.batchSize)

	for i, entry := range entries {
		g.Go(func() error {
			links[i] = im.metadata(gctx, entry)
			links[i].SitemapURL = sitemapURL
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	im.log.Info().Str("sitemap", sitemapURL).Int("links", len(links)).Msg("sitemap imported")
	return links, nil
}

func (im *Importer) metadata(ctx context.Context, entry Entry) core.InternalLink {
	link := core.InternalLink{
		URL:         entry.Loc,
		Title:       entry.Loc,
		Keywords:    []string{},
		LastUpdated: parseLastMod(entry.LastMod),
	}

	page, err := im.client.FetchPage(ctx, entry.Loc)
	if err != nil {
		im.log.Debug().Err(err).Str("url", entry.Loc).Msg("page metadata unavailable")
		return link
	}

	if title := fetch.ExtractTitle(page.Doc); title != "" {
		link.Title = title
	}
	link.Excerpt = fetch.MetaDescription(page.Doc)
	if kw := fetch.MetaKeywords(page.Doc); kw != nil {
		link.Keywords = kw
	}
	return link
}

func parseLastMod(s string) time.Time {
	for _, layout := range []string{time.RFC3339, "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}

// Score weights used by Search.
const (
	scoreTitle   = 10
	scoreKeyword = 8
	scoreExcerpt = 5
	scoreURL     = 3
)

// Score rates how well link matches keyword; zero means no match.
func Score(link core.InternalLink, keyword string) int {
	kw := strings.ToLower(strings.TrimSpace(keyword))
	if kw == "" {
		return 0
	}

	score := 0
	if strings.Contains(strings.ToLower(link.Title), kw) {
		score += scoreTitle
	}
	if strings.Contains(strings.ToLower(link.Excerpt), kw) {
		score += scoreExcerpt
	}
	for _, k := range link.Keywords {
		if strings.Contains(strings.ToLower(k), kw) {
			score += scoreKeyword
			break
		}
	}
	if strings.Contains(strings.ToLower(link.URL), kw) {
		score += scoreURL
	}
	return score
}

// Search returns up to limit links matching keyword, best first. Equal
// scores keep their input order.
func Search(links []core.InternalLink, keyword string, limit int) []core.InternalLink {
	type scored struct {
		link  core.InternalLink
		score int
	}

	var matches []scored
	for _, l := range links {
		if s := Score(l, keyword); s > 0 {
			matches = append(matches, scored{l, s})
		}
	}
	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].score > matches[j].score
	})

	if limit > 0 && len(matches) > limit {
		matches = matches[:limit]
	}
	out := make([]core.InternalLink, len(matches))
	for i, m := range matches {
		out[i] = m.link
	}
	return out
}
