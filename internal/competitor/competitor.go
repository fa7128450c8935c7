// Package competitor extracts structure and keyword data from top-ranking
// pages so the article prompt can aim to outperform them.
package competitor

import (
	"context"
	"regexp"
	"sort"
	"strings"

	"contentforge/internal/core"
	"contentforge/internal/fetch"

	"github.com/PuerkitoBio/goquery"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

const (
	// DefaultMaxURLs is how many competitor URLs a run analyzes.
	DefaultMaxURLs = 5
	maxKeywords    = 20
	maxGaps        = 5
	minWordLength  = 5
	concurrency    = 3
)

var nonWord = regexp.MustCompile(`[^\p{L}\p{N}\s]+`)

var stopWords = map[string]bool{
	"about": true, "after": true, "again": true, "being": true, "below": true,
	"could": true, "doing": true, "every": true, "first": true, "their": true,
	"there": true, "these": true, "thing": true, "those": true, "under": true,
	"where": true, "which": true, "while": true, "would": true, "should": true,
	"other": true, "because": true, "before": true, "between": true, "through": true,
	"during": true, "really": true, "still": true, "since": true, "without": true,
}

// Analyzer fetches and analyzes competitor pages.
type Analyzer struct {
	client  *fetch.Client
	maxURLs int
	log     zerolog.Logger
}

// NewAnalyzer creates an analyzer limited to maxURLs pages per run. A
// non-positive limit uses DefaultMaxURLs.
func NewAnalyzer(client *fetch.Client, maxURLs int, log zerolog.Logger) *Analyzer {
	if maxURLs <= 0 {
		maxURLs = DefaultMaxURLs
	}
	return &Analyzer{
		client:  client,
		maxURLs: maxURLs,
		log:     log.With().Str("component", "competitor").Logger(),
	}
}

// AnalyzeAll analyzes the first maxURLs urls. Pages that fail to load are
// logged and skipped. Results keep the input order and carry content gaps
// computed across the whole set.
func (a *Analyzer) AnalyzeAll(ctx context.Context, urls []string) []core.CompetitorAnalysisResult {
	if len(urls) > a.maxURLs {
		urls = urls[:a.maxURLs]
	}

	slots := make([]*core.CompetitorAnalysisResult, len(urls))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

	for i, u := range urls {
		g.Go(func() error {
			result, err := a.Analyze(gctx, u)
			if err != nil {
				a.log.Warn().Err(err).Str("url", u).Msg("competitor analysis failed")
				return nil
			}
			slots[i] = result
			return nil
		})
	}
	_ = g.Wait()

	var results []core.CompetitorAnalysisResult
	for _, r := range slots {
		if r != nil {
			results = append(results, *r)
		}
	}

	FillContentGaps(results)
	return results
}

// Analyze fetches one page and extracts its title, headings and keywords.
func (a *Analyzer) Analyze(ctx context.Context, url string) (*core.CompetitorAnalysisResult, error) {
	page, err := a.client.FetchPage(ctx, url)
	if err != nil {
		return nil, err
	}
	return AnalyzeDocument(url, page.Doc), nil
}

// AnalyzeDocument extracts competitor data from a parsed page.
func AnalyzeDocument(url string, doc *goquery.Document) *core.CompetitorAnalysisResult {
	title := fetch.ExtractTitle(doc)
	if title == "" {
		title = "Untitled"
	}
	description := fetch.MetaDescription(doc)

	content := fetch.MainContent(doc)

	var headings []string
	content.Find("h1, h2, h3, h4").Each(func(_ int, s *goquery.Selection) {
		if text := strings.Join(strings.Fields(s.Text()), " "); text != "" {
			headings = append(headings, text)
		}
	})

	text := strings.Join(strings.Fields(content.Text()), " ")

	return &core.CompetitorAnalysisResult{
		URL:             url,
		Title:           title,
		MetaDescription: description,
		Keywords:        TopKeywords(text, maxKeywords),
		Headings:        headings,
		WordCount:       len(strings.Fields(text)),
		ContentGaps:     []string{},
	}
}

// TopKeywords returns the n most frequent words of at least five letters,
// excluding stop words. Ties keep first-seen order.
func TopKeywords(text string, n int) []string {
	counts := make(map[string]int)
	var order []string

	for _, w := range strings.Fields(nonWord.ReplaceAllString(strings.ToLower(text), " ")) {
		if len([]rune(w)) < minWordLength || stopWords[w] {
			continue
		}
		if counts[w] == 0 {
			order = append(order, w)
		}
		counts[w]++
	}

	sort.SliceStable(order, func(i, j int) bool {
		return counts[order[i]] > counts[order[j]]
	})

	if len(order) > n {
		order = order[:n]
	}
	return order
}

// FillContentGaps records, for each result, keywords that rank highly
// across the whole set but never appear in that page's headings.
func FillContentGaps(results []core.CompetitorAnalysisResult) {
	if len(results) < 2 {
		return
	}

	score := make(map[string]int)
	var order []string
	for _, r := range results {
		for rank, k := range r.Keywords {
			if _, ok := score[k]; !ok {
				order = append(order, k)
			}
			score[k] += maxKeywords - rank
		}
	}
	sort.SliceStable(order, func(i, j int) bool {
		return score[order[i]] > score[order[j]]
	})

	for i := range results {
		headingText := strings.ToLower(strings.Join(results[i].Headings, " "))
		gaps := []string{}
		for _, k := range order {
			if len(gaps) == maxGaps {
				break
			}
			if !strings.Contains(headingText, k) {
				gaps = append(gaps, k)
			}
		}
		results[i].ContentGaps = gaps
	}
}

// AverageWordCount returns the mean word count of results, or 0.
func AverageWordCount(results []core.CompetitorAnalysisResult) int {
	if len(results) == 0 {
		return 0
	}
	total := 0
	for _, r := range results {
		total += r.WordCount
	}
	return total / len(results)
}
